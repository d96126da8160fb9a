package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/riskibarqy/pitchwatch/internal/platform/logging"
)

// WarmResult summarizes one warm run over a set of dates.
type WarmResult struct {
	Dates    []WarmDateResult `json:"dates"`
	Warmed   int              `json:"warmed"`
	Failed   int              `json:"failed"`
	Duration time.Duration    `json:"duration"`
}

type WarmDateResult struct {
	Date    string `json:"date"`
	Source  string `json:"source"`
	Matches int    `json:"matches"`
	Error   string `json:"error,omitempty"`
}

// WarmService pre-populates day snapshots so the first reader of a day
// never pays the fetch latency. Dates run through a bounded worker
// pool; each date goes through the normal sync path and therefore
// respects the quota throttle.
type WarmService struct {
	sync    *MatchSyncService
	workers int
	logger  *logging.Logger
	clock   func() time.Time
}

func NewWarmService(syncSvc *MatchSyncService, workers int, logger *logging.Logger) *WarmService {
	if logger == nil {
		logger = logging.Default()
	}
	if workers <= 0 {
		workers = 4
	}
	return &WarmService{sync: syncSvc, workers: workers, logger: logger, clock: time.Now}
}

// UpcomingDates lists today plus the next n-1 days in UTC.
func (s *WarmService) UpcomingDates(n int) []string {
	if n <= 0 {
		n = 1
	}
	today := s.clock().UTC()
	dates := make([]string, 0, n)
	for i := 0; i < n; i++ {
		dates = append(dates, today.AddDate(0, 0, i).Format(snapshotDateLayout))
	}
	return dates
}

// Warm refreshes the snapshots for the given dates concurrently.
func (s *WarmService) Warm(ctx context.Context, dates []string) (WarmResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WarmService.Warm")
	defer span.End()

	if len(dates) == 0 {
		return WarmResult{}, fmt.Errorf("%w: at least one date is required", ErrInvalidInput)
	}

	workers := s.workers
	if workers > len(dates) {
		workers = len(dates)
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return WarmResult{}, fmt.Errorf("create warm pool: %w", err)
	}
	defer pool.Release()

	start := s.clock()
	rows := make(chan WarmDateResult, len(dates))

	var wg sync.WaitGroup
	for _, date := range dates {
		date := date
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()

			row := WarmDateResult{Date: date}
			res, syncErr := s.sync.Sync(ctx, date)
			if syncErr != nil {
				row.Error = syncErr.Error()
				s.logger.WarnContext(ctx, "warm sync failed", "date", date, "error", syncErr)
			} else {
				row.Source = res.Source
				row.Matches = len(res.Fixtures)
			}
			rows <- row
		}); err != nil {
			wg.Done()
			return WarmResult{}, fmt.Errorf("submit warm task date=%s: %w", date, err)
		}
	}
	wg.Wait()
	close(rows)

	out := WarmResult{Dates: make([]WarmDateResult, 0, len(dates))}
	for row := range rows {
		if row.Error == "" {
			out.Warmed++
		} else {
			out.Failed++
		}
		out.Dates = append(out.Dates, row)
	}
	sort.SliceStable(out.Dates, func(i, j int) bool { return out.Dates[i].Date < out.Dates[j].Date })
	out.Duration = s.clock().Sub(start)
	return out, nil
}
