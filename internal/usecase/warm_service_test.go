package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/pitchwatch/internal/docstore"
	"github.com/riskibarqy/pitchwatch/internal/domain/fixture"
)

func TestWarmServiceUpcomingDates(t *testing.T) {
	t.Parallel()

	svc := NewWarmService(nil, 2, nil)
	svc.clock = func() time.Time { return syncTestNow }

	dates := svc.UpcomingDates(3)
	want := []string{"2026-03-14", "2026-03-15", "2026-03-16"}
	if len(dates) != len(want) {
		t.Fatalf("dates = %v", dates)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Fatalf("dates = %v, want %v", dates, want)
		}
	}
}

func TestWarmServiceWarmsAllDates(t *testing.T) {
	t.Parallel()

	store := docstore.NewMemoryStore()
	provider := &stubProvider{
		fixturesFn: func(_ context.Context, _, date string) ([]fixture.Fixture, error) {
			if date == "2026-03-16" {
				return nil, errors.New("provider hiccup")
			}
			return idleFixtures(), nil
		},
	}
	syncSvc, _ := newTestSyncService(t, store, provider, nil, 100)

	// A single worker keeps the failing date last so it cannot burn the
	// credential before the earlier dates run.
	warm := NewWarmService(syncSvc, 1, nil)
	warm.clock = func() time.Time { return syncTestNow }

	out, err := warm.Warm(context.Background(), []string{"2026-03-14", "2026-03-15", "2026-03-16"})
	if err != nil {
		t.Fatalf("Warm: %v", err)
	}
	if out.Warmed != 2 || out.Failed != 1 {
		t.Fatalf("warm counts = %+v", out)
	}
	if len(out.Dates) != 3 || out.Dates[0].Date != "2026-03-14" {
		t.Fatalf("rows = %+v", out.Dates)
	}
	if out.Dates[2].Error == "" {
		t.Fatalf("failing date should carry an error: %+v", out.Dates[2])
	}

	// Snapshots for the successful dates are in the store.
	for _, date := range []string{"2026-03-14", "2026-03-15"} {
		var snapshot fixture.DaySnapshot
		if found, _ := store.Get(context.Background(), docstore.KindMatchDay, date, &snapshot); !found {
			t.Fatalf("snapshot missing for %s", date)
		}
	}
}

func TestWarmServiceRequiresDates(t *testing.T) {
	t.Parallel()

	warm := NewWarmService(nil, 2, nil)
	if _, err := warm.Warm(context.Background(), nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}
