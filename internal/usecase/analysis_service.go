package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/riskibarqy/pitchwatch/internal/docstore"
	"github.com/riskibarqy/pitchwatch/internal/domain/analysis"
	"github.com/riskibarqy/pitchwatch/internal/domain/quota"
)

// AnalyzeRequest identifies the fixture to enrich.
type AnalyzeRequest struct {
	FixtureID int64  `json:"fixtureId"`
	HomeID    int    `json:"homeId"`
	AwayID    int    `json:"awayId"`
	LeagueID  int    `json:"leagueId"`
	Season    int    `json:"season"`
	Date      string `json:"date"`
}

// AnalyzeResult carries the analysis plus how it was obtained.
type AnalyzeResult struct {
	Analysis      *analysis.MatchAnalysis `json:"analysis,omitempty"`
	FromCache     bool                    `json:"fromCache"`
	QuotaExceeded bool                    `json:"quotaExceeded"`
	APICalls      int                     `json:"apiCalls"`
	Quota         quota.Quota             `json:"quota"`
}

// BatchItemResult is the per-fixture outcome of a batch run.
type BatchItemResult struct {
	FixtureID     int64  `json:"fixtureId"`
	Analyzed      bool   `json:"analyzed"`
	FromCache     bool   `json:"fromCache"`
	Skipped       bool   `json:"skipped"`
	SkippedReason string `json:"skippedReason,omitempty"`
	Error         string `json:"error,omitempty"`
}

// BatchResult summarizes a batch analysis run.
type BatchResult struct {
	Results  []BatchItemResult `json:"results"`
	Analyzed int               `json:"analyzed"`
	Cached   int               `json:"cached"`
	Skipped  int               `json:"skipped"`
	Failed   int               `json:"failed"`
	APICalls int               `json:"apiCalls"`
	Quota    quota.Quota       `json:"quota"`
}

// AnalysisService enriches fixtures with team form, head to head,
// odds and injuries. A full enrichment is a fixed number of provider
// calls, so admission is checked against the remaining daily budget
// before any call is made; a complete stored analysis is immutable and
// always served from the store.
type AnalysisService struct {
	store            docstore.Store
	provider         FixtureProvider
	quota            *QuotaService
	resolver         *StatsResolver
	callsPerAnalysis int
	logger           *slog.Logger
	clock            func() time.Time
}

func NewAnalysisService(
	store docstore.Store,
	provider FixtureProvider,
	quotaSvc *QuotaService,
	resolver *StatsResolver,
	callsPerAnalysis int,
	logger *slog.Logger,
) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	if callsPerAnalysis <= 0 {
		callsPerAnalysis = 5
	}
	return &AnalysisService{
		store:            store,
		provider:         provider,
		quota:            quotaSvc,
		resolver:         resolver,
		callsPerAnalysis: callsPerAnalysis,
		logger:           logger,
		clock:            time.Now,
	}
}

func analysisKey(fixtureID int64) string {
	return strconv.FormatInt(fixtureID, 10)
}

// Stored returns the persisted analysis for a fixture, if any.
func (s *AnalysisService) Stored(ctx context.Context, fixtureID int64) (*analysis.MatchAnalysis, bool, error) {
	var stored analysis.MatchAnalysis
	found, err := s.store.Get(ctx, docstore.KindAnalysis, analysisKey(fixtureID), &stored)
	if err != nil {
		return nil, false, fmt.Errorf("load analysis fixture=%d: %w", fixtureID, err)
	}
	if !found {
		return nil, false, nil
	}
	return &stored, true, nil
}

// Analyze enriches one fixture. A complete stored analysis is returned
// as-is; otherwise the five provider lookups run concurrently, each
// tolerating failure on its own, and the merged document is persisted.
// Insufficient remaining budget is not an error: the result reports
// QuotaExceeded so a caller can surface it without aborting a batch.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AnalysisService.Analyze")
	defer span.End()

	if req.FixtureID <= 0 || req.HomeID <= 0 || req.AwayID <= 0 || req.LeagueID <= 0 {
		return AnalyzeResult{}, fmt.Errorf("%w: fixtureId, homeId, awayId and leagueId are required", ErrInvalidInput)
	}

	stored, found, err := s.Stored(ctx, req.FixtureID)
	if err != nil {
		return AnalyzeResult{}, err
	}
	if found && stored.IsComplete() {
		agg, err := s.quota.Aggregate(ctx)
		if err != nil {
			return AnalyzeResult{}, err
		}
		return AnalyzeResult{Analysis: stored, FromCache: true, Quota: agg}, nil
	}

	agg, err := s.quota.Aggregate(ctx)
	if err != nil {
		return AnalyzeResult{}, err
	}
	if agg.Remaining < s.callsPerAnalysis {
		return AnalyzeResult{Analysis: stored, QuotaExceeded: true, Quota: agg}, nil
	}

	season := req.Season
	if season == 0 {
		season = seasonForDate(req.Date, s.clock)
	}

	result := analysis.MatchAnalysis{
		FixtureID:  req.FixtureID,
		Date:       req.Date,
		LeagueID:   req.LeagueID,
		HomeID:     req.HomeID,
		AwayID:     req.AwayID,
		AnalyzedAt: s.clock().UTC(),
	}

	var (
		homeCalls, awayCalls          int
		h2hCalls, oddsCalls, injCalls int
		wg                            conc.WaitGroup
	)
	wg.Go(func() {
		stats, calls, err := s.resolver.Resolve(ctx, req.HomeID, req.LeagueID, season, true)
		homeCalls = calls
		if err != nil {
			s.logger.WarnContext(ctx, "home form lookup failed", "fixture_id", req.FixtureID, "error", err)
			return
		}
		result.HomeStats = stats
	})
	wg.Go(func() {
		stats, calls, err := s.resolver.Resolve(ctx, req.AwayID, req.LeagueID, season, true)
		awayCalls = calls
		if err != nil {
			s.logger.WarnContext(ctx, "away form lookup failed", "fixture_id", req.FixtureID, "error", err)
			return
		}
		result.AwayStats = stats
	})
	wg.Go(func() {
		charged, err := s.quota.ResilientCall(ctx, func(ctx context.Context, apiKey string) error {
			h2h, callErr := s.provider.HeadToHead(ctx, apiKey, req.HomeID, req.AwayID)
			if callErr != nil {
				return callErr
			}
			result.HeadToHead = h2h
			return nil
		})
		h2hCalls = charged
		if err != nil {
			s.logger.WarnContext(ctx, "head to head lookup failed", "fixture_id", req.FixtureID, "error", err)
		}
	})
	wg.Go(func() {
		charged, err := s.quota.ResilientCall(ctx, func(ctx context.Context, apiKey string) error {
			odds, callErr := s.provider.OddsByFixture(ctx, apiKey, req.FixtureID)
			if callErr != nil {
				return callErr
			}
			result.Odds = odds
			return nil
		})
		oddsCalls = charged
		if err != nil {
			s.logger.WarnContext(ctx, "odds lookup failed", "fixture_id", req.FixtureID, "error", err)
		}
	})
	wg.Go(func() {
		charged, err := s.quota.ResilientCall(ctx, func(ctx context.Context, apiKey string) error {
			injuries, callErr := s.provider.InjuriesByFixture(ctx, apiKey, req.FixtureID)
			if callErr != nil {
				return callErr
			}
			result.Injuries = injuries
			return nil
		})
		injCalls = charged
		if err != nil {
			s.logger.WarnContext(ctx, "injuries lookup failed", "fixture_id", req.FixtureID, "error", err)
		}
	})
	wg.Wait()

	if result.HomeStats.HasForm() && result.AwayStats.HasForm() {
		result.BetterForm = analysis.BetterForm(result.HomeStats.Form, result.AwayStats.Form)
	}
	result.APICalls = homeCalls + awayCalls + h2hCalls + oddsCalls + injCalls

	if err := s.store.Put(ctx, docstore.KindAnalysis, analysisKey(req.FixtureID), result); err != nil {
		return AnalyzeResult{}, fmt.Errorf("persist analysis fixture=%d: %w", req.FixtureID, err)
	}

	finalAgg, err := s.quota.Aggregate(ctx)
	if err != nil {
		return AnalyzeResult{}, err
	}
	return AnalyzeResult{Analysis: &result, APICalls: result.APICalls, Quota: finalAgg}, nil
}

// BatchAnalyze runs Analyze sequentially over a list of fixtures. The
// admissible count is fixed up front from the remaining budget; cache
// hits ride for free and do not consume an admission slot. A mid-batch
// quota exhaustion skips everything that is left.
func (s *AnalysisService) BatchAnalyze(ctx context.Context, reqs []AnalyzeRequest) (BatchResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AnalysisService.BatchAnalyze")
	defer span.End()

	if len(reqs) == 0 {
		return BatchResult{}, fmt.Errorf("%w: at least one fixture is required", ErrInvalidInput)
	}

	agg, err := s.quota.Aggregate(ctx)
	if err != nil {
		return BatchResult{}, err
	}
	maxAnalyzable := agg.Remaining / s.callsPerAnalysis

	out := BatchResult{Results: make([]BatchItemResult, 0, len(reqs))}
	quotaGone := false
	for _, req := range reqs {
		row := BatchItemResult{FixtureID: req.FixtureID}

		if quotaGone || out.Analyzed >= maxAnalyzable {
			// Cache hits still ride for free past the admission cap.
			if stored, found, err := s.Stored(ctx, req.FixtureID); err == nil && found && stored.IsComplete() {
				row.Analyzed = true
				row.FromCache = true
				out.Cached++
				out.Results = append(out.Results, row)
				continue
			}
			row.Skipped = true
			row.SkippedReason = "daily quota budget exhausted"
			out.Skipped++
			out.Results = append(out.Results, row)
			continue
		}

		res, err := s.Analyze(ctx, req)
		switch {
		case err != nil:
			row.Error = err.Error()
			out.Failed++
		case res.QuotaExceeded:
			quotaGone = true
			row.Skipped = true
			row.SkippedReason = "daily quota budget exhausted"
			out.Skipped++
		case res.FromCache:
			row.Analyzed = true
			row.FromCache = true
			out.Cached++
		default:
			row.Analyzed = true
			out.Analyzed++
			out.APICalls += res.APICalls
		}
		out.Results = append(out.Results, row)
	}

	finalAgg, err := s.quota.Aggregate(ctx)
	if err != nil {
		return BatchResult{}, err
	}
	out.Quota = finalAgg
	return out, nil
}

// seasonForDate guesses the provider season for a fixture date:
// European seasons roll over in July, so dates before July belong to
// the previous season label.
func seasonForDate(date string, clock func() time.Time) int {
	when, err := time.Parse(snapshotDateLayout, date)
	if err != nil {
		when = clock().UTC()
	}
	if when.Month() < time.July {
		return when.Year() - 1
	}
	return when.Year()
}
