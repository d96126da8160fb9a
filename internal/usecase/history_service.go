package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/pitchwatch/internal/docstore"
	"github.com/riskibarqy/pitchwatch/internal/domain/analysis"
)

// HistoryService reads back persisted analyses for review.
type HistoryService struct {
	store docstore.Store
}

func NewHistoryService(store docstore.Store) *HistoryService {
	return &HistoryService{store: store}
}

// ListByDate returns every stored analysis for one fixture date,
// ordered by fixture ID.
func (s *HistoryService) ListByDate(ctx context.Context, date string) ([]analysis.MatchAnalysis, error) {
	if _, err := time.Parse(snapshotDateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}

	docs, err := s.store.Query(ctx, docstore.KindAnalysis, map[string]any{"date": date})
	if err != nil {
		return nil, fmt.Errorf("query analyses date=%s: %w", date, err)
	}
	return decodeAnalyses(docs)
}

// ListAll returns every stored analysis, newest fixture date first and
// by fixture ID within a date.
func (s *HistoryService) ListAll(ctx context.Context) ([]analysis.MatchAnalysis, error) {
	docs, err := s.store.Query(ctx, docstore.KindAnalysis, nil)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	items, err := decodeAnalyses(docs)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Date != items[j].Date {
			return items[i].Date > items[j].Date
		}
		return items[i].FixtureID < items[j].FixtureID
	})
	return items, nil
}

// Dates returns the distinct fixture dates with stored analyses,
// newest first.
func (s *HistoryService) Dates(ctx context.Context) ([]string, error) {
	items, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(items))
	dates := make([]string, 0, len(items))
	for _, item := range items {
		if item.Date == "" || seen[item.Date] {
			continue
		}
		seen[item.Date] = true
		dates = append(dates, item.Date)
	}
	return dates, nil
}

func decodeAnalyses(docs []docstore.Document) ([]analysis.MatchAnalysis, error) {
	out := make([]analysis.MatchAnalysis, 0, len(docs))
	for _, doc := range docs {
		var item analysis.MatchAnalysis
		if err := sonic.Unmarshal(doc.Data, &item); err != nil {
			return nil, fmt.Errorf("decode analysis key=%s: %w", doc.Key, err)
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FixtureID < out[j].FixtureID })
	return out, nil
}
