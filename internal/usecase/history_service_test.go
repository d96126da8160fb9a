package usecase

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/riskibarqy/pitchwatch/internal/docstore"
	"github.com/riskibarqy/pitchwatch/internal/domain/analysis"
)

func seedAnalysis(t *testing.T, store docstore.Store, fixtureID int64, date string) {
	t.Helper()

	doc := analysis.MatchAnalysis{FixtureID: fixtureID, Date: date, LeagueID: 39, HomeID: 1, AwayID: 2}
	if err := store.Put(context.Background(), docstore.KindAnalysis, strconv.FormatInt(fixtureID, 10), doc); err != nil {
		t.Fatalf("seed analysis: %v", err)
	}
}

func TestHistoryServiceListByDate(t *testing.T) {
	t.Parallel()

	store := docstore.NewMemoryStore()
	seedAnalysis(t, store, 102, "2026-03-14")
	seedAnalysis(t, store, 100, "2026-03-14")
	seedAnalysis(t, store, 300, "2026-03-15")

	svc := NewHistoryService(store)
	items, err := svc.ListByDate(context.Background(), "2026-03-14")
	if err != nil {
		t.Fatalf("ListByDate: %v", err)
	}
	if len(items) != 2 || items[0].FixtureID != 100 || items[1].FixtureID != 102 {
		t.Fatalf("items = %+v", items)
	}
}

func TestHistoryServiceListByDateValidates(t *testing.T) {
	t.Parallel()

	svc := NewHistoryService(docstore.NewMemoryStore())
	if _, err := svc.ListByDate(context.Background(), "yesterday"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestHistoryServiceDatesNewestFirst(t *testing.T) {
	t.Parallel()

	store := docstore.NewMemoryStore()
	seedAnalysis(t, store, 100, "2026-03-13")
	seedAnalysis(t, store, 200, "2026-03-15")
	seedAnalysis(t, store, 201, "2026-03-15")
	seedAnalysis(t, store, 300, "2026-03-14")

	svc := NewHistoryService(store)
	dates, err := svc.Dates(context.Background())
	if err != nil {
		t.Fatalf("Dates: %v", err)
	}
	want := []string{"2026-03-15", "2026-03-14", "2026-03-13"}
	if len(dates) != len(want) {
		t.Fatalf("dates = %v", dates)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Fatalf("dates = %v, want %v", dates, want)
		}
	}
}
