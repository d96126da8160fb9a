package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riskibarqy/pitchwatch/internal/docstore"
	"github.com/riskibarqy/pitchwatch/internal/domain/fixture"
	"github.com/riskibarqy/pitchwatch/internal/domain/quota"
	"github.com/riskibarqy/pitchwatch/internal/platform/logging"
)

const snapshotDateLayout = "2006-01-02"

// Data origins reported on a sync result.
const (
	SourceCache     = "cache"
	SourceSecondary = "secondary-feed"
	SourcePrimary   = "primary-provider"
	SourceEmpty     = "empty"
)

// SyncConfig tunes snapshot freshness and the quota-tiered refetch
// throttle. The throttle stretches the primary-provider poll interval
// as the daily budget drains: plenty left polls fast, a thin remainder
// polls slow.
type SyncConfig struct {
	FreshLive time.Duration
	FreshIdle time.Duration

	IntervalHigh time.Duration
	IntervalMid  time.Duration
	IntervalLow  time.Duration

	RemainingHigh int
	RemainingMid  int
}

func (c SyncConfig) withDefaults() SyncConfig {
	if c.FreshLive <= 0 {
		c.FreshLive = 2 * time.Minute
	}
	if c.FreshIdle <= 0 {
		c.FreshIdle = 6 * time.Hour
	}
	if c.IntervalHigh <= 0 {
		c.IntervalHigh = 45 * time.Second
	}
	if c.IntervalMid <= 0 {
		c.IntervalMid = 90 * time.Second
	}
	if c.IntervalLow <= 0 {
		c.IntervalLow = 180 * time.Second
	}
	if c.RemainingHigh <= 0 {
		c.RemainingHigh = 100
	}
	if c.RemainingMid <= 0 {
		c.RemainingMid = 40
	}
	return c
}

func (c SyncConfig) refetchInterval(remaining int) time.Duration {
	switch {
	case remaining > c.RemainingHigh:
		return c.IntervalHigh
	case remaining > c.RemainingMid:
		return c.IntervalMid
	default:
		return c.IntervalLow
	}
}

// SyncResult is the outcome of one refresh pass for a day.
type SyncResult struct {
	Date          string            `json:"date"`
	Fixtures      []fixture.Fixture `json:"fixtures"`
	Source        string            `json:"source"`
	LiveUpdated   int               `json:"liveUpdated,omitempty"`
	FetchedAt     time.Time         `json:"fetchedAt"`
	NextRefreshIn time.Duration     `json:"nextRefreshIn"`
	Quota         quota.Quota       `json:"quota"`
}

// MatchSyncService keeps day snapshots current. Fresh snapshots are
// served straight from the store; stale ones refresh through the free
// live feed first and only fall through to the quota-charged primary
// provider when the feed cannot help, throttled by the remaining daily
// budget. A non-empty snapshot is never overwritten by an empty fetch.
type MatchSyncService struct {
	store      docstore.Store
	provider   FixtureProvider
	feed       LiveFeed
	quota      *QuotaService
	reconciler *Reconciler
	cfg        SyncConfig
	logger     *logging.Logger
	clock      func() time.Time
}

func NewMatchSyncService(
	store docstore.Store,
	provider FixtureProvider,
	feed LiveFeed,
	quotaSvc *QuotaService,
	reconciler *Reconciler,
	cfg SyncConfig,
	logger *logging.Logger,
) *MatchSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if reconciler == nil {
		reconciler = NewReconciler(nil, 0)
	}
	return &MatchSyncService{
		store:      store,
		provider:   provider,
		feed:       feed,
		quota:      quotaSvc,
		reconciler: reconciler,
		cfg:        cfg.withDefaults(),
		logger:     logger,
		clock:      time.Now,
	}
}

// Snapshot returns the stored day snapshot without refreshing it.
func (s *MatchSyncService) Snapshot(ctx context.Context, date string) (fixture.DaySnapshot, bool, error) {
	if _, err := time.Parse(snapshotDateLayout, date); err != nil {
		return fixture.DaySnapshot{}, false, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}

	var snapshot fixture.DaySnapshot
	found, err := s.store.Get(ctx, docstore.KindMatchDay, date, &snapshot)
	if err != nil {
		return fixture.DaySnapshot{}, false, fmt.Errorf("load snapshot date=%s: %w", date, err)
	}
	return snapshot, found, nil
}

// Sync serves the fixtures for one day, refreshing them when stale.
//
// The pass runs in order: fresh cache wins outright; then the free feed
// gets a chance to update in-play fixtures at zero quota cost; then the
// primary provider is polled, but only once per throttle interval. A
// stale snapshot is still served when every refresh path fails.
func (s *MatchSyncService) Sync(ctx context.Context, date string) (SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchSyncService.Sync")
	defer span.End()

	snapshot, found, err := s.Snapshot(ctx, date)
	if err != nil {
		return SyncResult{}, err
	}

	now := s.clock()
	age := now.Sub(snapshot.FetchedAt)
	hasData := found && len(snapshot.Fixtures) > 0

	threshold := s.cfg.FreshIdle
	if fixture.HasLive(snapshot.Fixtures) {
		threshold = s.cfg.FreshLive
	}
	if hasData && age < threshold {
		return s.result(ctx, date, snapshot.Fixtures, SourceCache, 0, snapshot.FetchedAt, threshold-age)
	}

	// Free feed first: zero quota cost, but it can only amend fixtures
	// we already know about. A successful feed pass ends the refresh,
	// even when nothing changed; only a feed failure or an empty feed
	// reply lets the pass continue to the primary provider.
	if s.feed != nil && hasData {
		live, feedErr := s.feed.LiveNow(ctx)
		if feedErr != nil {
			s.logger.WarnContext(ctx, "live feed refresh failed", "date", date, "error", feedErr)
		} else if len(live) > 0 {
			merged, updated := s.reconciler.Merge(snapshot.Fixtures, live)
			if len(updated) > 0 {
				snapshot = fixture.DaySnapshot{Date: date, Fixtures: merged, FetchedAt: now, Source: SourceSecondary}
				if err := s.store.Put(ctx, docstore.KindMatchDay, date, snapshot); err != nil {
					return SyncResult{}, fmt.Errorf("persist snapshot date=%s: %w", date, err)
				}
			}
			return s.result(ctx, date, merged, SourceSecondary, len(updated), now, s.cfg.FreshLive)
		}
	}

	agg, err := s.quota.Aggregate(ctx)
	if err != nil {
		return SyncResult{}, err
	}
	interval := s.cfg.refetchInterval(agg.Remaining)
	if hasData && age < interval {
		// Still inside the throttle window, serve what we have.
		return s.result(ctx, date, snapshot.Fixtures, SourceCache, 0, snapshot.FetchedAt, interval-age)
	}

	var fetched []fixture.Fixture
	_, callErr := s.quota.ResilientCall(ctx, func(ctx context.Context, apiKey string) error {
		var fetchErr error
		fetched, fetchErr = s.provider.FixturesByDate(ctx, apiKey, date)
		return fetchErr
	})
	if callErr != nil {
		if hasData {
			s.logger.WarnContext(ctx, "primary refresh failed, serving stale snapshot", "date", date, "error", callErr)
			return s.result(ctx, date, snapshot.Fixtures, SourceCache, 0, snapshot.FetchedAt, interval)
		}
		if errors.Is(callErr, ErrQuotaExceeded) {
			// Nothing cached and nothing affordable: an explicit empty
			// day, not a request failure.
			return s.result(ctx, date, nil, SourceEmpty, 0, now, interval)
		}
		return SyncResult{}, callErr
	}

	if len(fetched) == 0 {
		if hasData {
			// An empty answer never clobbers a day we have fixtures for.
			return s.result(ctx, date, snapshot.Fixtures, SourceCache, 0, snapshot.FetchedAt, interval)
		}
		return s.result(ctx, date, nil, SourceEmpty, 0, now, s.cfg.FreshIdle)
	}

	snapshot = fixture.DaySnapshot{Date: date, Fixtures: fetched, FetchedAt: now, Source: SourcePrimary}
	if err := s.store.Put(ctx, docstore.KindMatchDay, date, snapshot); err != nil {
		return SyncResult{}, fmt.Errorf("persist snapshot date=%s: %w", date, err)
	}
	return s.result(ctx, date, fetched, SourcePrimary, 0, now, interval)
}

func (s *MatchSyncService) result(
	ctx context.Context,
	date string,
	fixtures []fixture.Fixture,
	source string,
	liveUpdated int,
	fetchedAt time.Time,
	nextRefreshIn time.Duration,
) (SyncResult, error) {
	agg, err := s.quota.Aggregate(ctx)
	if err != nil {
		return SyncResult{}, err
	}
	if nextRefreshIn < 0 {
		nextRefreshIn = 0
	}
	return SyncResult{
		Date:          date,
		Fixtures:      fixtures,
		Source:        source,
		LiveUpdated:   liveUpdated,
		FetchedAt:     fetchedAt,
		NextRefreshIn: nextRefreshIn,
		Quota:         agg,
	}, nil
}
