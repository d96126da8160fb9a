package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/pitchwatch/internal/docstore"
	"github.com/riskibarqy/pitchwatch/internal/domain/fixture"
)

var syncTestNow = time.Date(2026, time.March, 14, 15, 0, 0, 0, time.UTC)

func newTestSyncService(
	t *testing.T,
	store *docstore.MemoryStore,
	provider FixtureProvider,
	feed LiveFeed,
	perKeyLimit int,
) (*MatchSyncService, *QuotaService) {
	t.Helper()

	quotaSvc := NewQuotaService(store, []string{"key-a"}, perKeyLimit, nil)
	quotaSvc.clock = func() time.Time { return syncTestNow }

	svc := NewMatchSyncService(store, provider, feed, quotaSvc, nil, SyncConfig{}, nil)
	svc.clock = func() time.Time { return syncTestNow }
	return svc, quotaSvc
}

func putSnapshot(t *testing.T, store docstore.Store, date string, age time.Duration, fixtures []fixture.Fixture) {
	t.Helper()

	snapshot := fixture.DaySnapshot{
		Date:      date,
		Fixtures:  fixtures,
		FetchedAt: syncTestNow.Add(-age),
		Source:    SourcePrimary,
	}
	if err := store.Put(context.Background(), docstore.KindMatchDay, date, snapshot); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}
}

func idleFixtures() []fixture.Fixture {
	return []fixture.Fixture{{
		ID:     100,
		Home:   fixture.Team{Name: "Liverpool"},
		Away:   fixture.Team{Name: "Everton"},
		Status: fixture.StatusNotStarted,
	}}
}

func liveFixtures() []fixture.Fixture {
	minute := 30
	return []fixture.Fixture{{
		ID:      100,
		Home:    fixture.Team{Name: "Liverpool"},
		Away:    fixture.Team{Name: "Everton"},
		Status:  fixture.StatusFirstHalf,
		Elapsed: &minute,
	}}
}

func TestSyncRejectsBadDate(t *testing.T) {
	t.Parallel()

	svc, _ := newTestSyncService(t, docstore.NewMemoryStore(), &stubProvider{}, nil, 100)
	if _, err := svc.Sync(context.Background(), "14-03-2026"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestSyncServesFreshCacheWithoutProviderCall(t *testing.T) {
	t.Parallel()

	store := docstore.NewMemoryStore()
	provider := &stubProvider{
		fixturesFn: func(_ context.Context, _, _ string) ([]fixture.Fixture, error) {
			t.Fatal("provider must not be called for a fresh snapshot")
			return nil, nil
		},
	}
	svc, _ := newTestSyncService(t, store, provider, nil, 100)
	putSnapshot(t, store, "2026-03-14", 30*time.Second, idleFixtures())

	res, err := svc.Sync(context.Background(), "2026-03-14")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Source != SourceCache {
		t.Fatalf("source = %q", res.Source)
	}
	if len(res.Fixtures) != 1 {
		t.Fatalf("fixtures = %d", len(res.Fixtures))
	}
	if res.NextRefreshIn <= 0 {
		t.Fatalf("nextRefreshIn = %v", res.NextRefreshIn)
	}
}

func TestSyncPrefersFreeFeedForLiveFixtures(t *testing.T) {
	t.Parallel()

	store := docstore.NewMemoryStore()
	provider := &stubProvider{
		fixturesFn: func(_ context.Context, _, _ string) ([]fixture.Fixture, error) {
			t.Fatal("primary provider must not be called when the feed delivers")
			return nil, nil
		},
	}
	one, minute := 1, 52
	feed := &stubFeed{liveFn: func(_ context.Context) ([]LiveMatch, error) {
		return []LiveMatch{{
			HomeName:  "Liverpool",
			AwayName:  "Everton",
			HomeScore: &one,
			RawStatus: "2nd_half",
			Elapsed:   &minute,
		}}, nil
	}}
	svc, _ := newTestSyncService(t, store, provider, feed, 100)
	putSnapshot(t, store, "2026-03-14", 3*time.Minute, liveFixtures())

	res, err := svc.Sync(context.Background(), "2026-03-14")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Source != SourceSecondary {
		t.Fatalf("source = %q", res.Source)
	}
	if res.LiveUpdated != 1 {
		t.Fatalf("liveUpdated = %d", res.LiveUpdated)
	}
	if res.Fixtures[0].Status != fixture.StatusSecondHalf {
		t.Fatalf("status = %q", res.Fixtures[0].Status)
	}

	// The merged snapshot is persisted.
	var stored fixture.DaySnapshot
	if found, err := store.Get(context.Background(), docstore.KindMatchDay, "2026-03-14", &stored); err != nil || !found {
		t.Fatalf("stored snapshot missing: found=%v err=%v", found, err)
	}
	if stored.Source != SourceSecondary || *stored.Fixtures[0].HomeGoals != 1 {
		t.Fatalf("stored snapshot = %+v", stored)
	}
}

func TestSyncFeedWithoutChangesStillSkipsPrimary(t *testing.T) {
	t.Parallel()

	store := docstore.NewMemoryStore()
	provider := &stubProvider{
		fixturesFn: func(_ context.Context, _, _ string) ([]fixture.Fixture, error) {
			t.Fatal("primary provider must not be charged after a feed pass")
			return nil, nil
		},
	}
	// The feed reports the score the snapshot already has.
	minute := 30
	feed := &stubFeed{liveFn: func(_ context.Context) ([]LiveMatch, error) {
		return []LiveMatch{{
			HomeName:  "Liverpool",
			AwayName:  "Everton",
			RawStatus: "1st_half",
			Elapsed:   &minute,
		}}, nil
	}}
	svc, quotaSvc := newTestSyncService(t, store, provider, feed, 100)
	putSnapshot(t, store, "2026-03-14", 3*time.Minute, liveFixtures())

	res, err := svc.Sync(context.Background(), "2026-03-14")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Source != SourceSecondary {
		t.Fatalf("source = %q", res.Source)
	}
	if res.LiveUpdated != 0 {
		t.Fatalf("liveUpdated = %d", res.LiveUpdated)
	}
	if kq, err := quotaSvc.QuotaFor(context.Background(), 0); err != nil || kq.Used != 0 {
		t.Fatalf("quota touched: %+v err=%v", kq, err)
	}
}

func TestSyncThrottlesPrimaryWhenQuotaIsLow(t *testing.T) {
	t.Parallel()

	store := docstore.NewMemoryStore()
	provider := &stubProvider{
		fixturesFn: func(_ context.Context, _, _ string) ([]fixture.Fixture, error) {
			t.Fatal("throttle window must hold the provider call back")
			return nil, nil
		},
	}
	// One key of 40 leaves remaining at the low tier: 180s interval.
	svc, _ := newTestSyncService(t, store, provider, nil, 40)
	putSnapshot(t, store, "2026-03-14", 150*time.Second, liveFixtures())

	res, err := svc.Sync(context.Background(), "2026-03-14")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Source != SourceCache {
		t.Fatalf("source = %q", res.Source)
	}
	if res.NextRefreshIn != 30*time.Second {
		t.Fatalf("nextRefreshIn = %v", res.NextRefreshIn)
	}
}

func TestSyncFetchesPrimaryOnEmptyCache(t *testing.T) {
	t.Parallel()

	store := docstore.NewMemoryStore()
	provider := &stubProvider{
		fixturesFn: func(_ context.Context, apiKey, date string) ([]fixture.Fixture, error) {
			if apiKey != "key-a" || date != "2026-03-14" {
				t.Fatalf("unexpected call apiKey=%q date=%q", apiKey, date)
			}
			return idleFixtures(), nil
		},
	}
	svc, quotaSvc := newTestSyncService(t, store, provider, nil, 100)

	res, err := svc.Sync(context.Background(), "2026-03-14")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Source != SourcePrimary || len(res.Fixtures) != 1 {
		t.Fatalf("result = %+v", res)
	}
	if res.Quota.Used != 1 {
		t.Fatalf("quota used = %d", res.Quota.Used)
	}

	kq, err := quotaSvc.QuotaFor(context.Background(), 0)
	if err != nil || kq.Used != 1 {
		t.Fatalf("key usage = %+v err=%v", kq, err)
	}

	var stored fixture.DaySnapshot
	if found, _ := store.Get(context.Background(), docstore.KindMatchDay, "2026-03-14", &stored); !found {
		t.Fatal("snapshot not persisted")
	}
}

func TestSyncNeverOverwritesWithEmptyFetch(t *testing.T) {
	t.Parallel()

	store := docstore.NewMemoryStore()
	provider := &stubProvider{
		fixturesFn: func(_ context.Context, _, _ string) ([]fixture.Fixture, error) {
			return nil, nil
		},
	}
	svc, _ := newTestSyncService(t, store, provider, nil, 100)
	putSnapshot(t, store, "2026-03-14", 7*time.Hour, idleFixtures())

	res, err := svc.Sync(context.Background(), "2026-03-14")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Source != SourceCache || len(res.Fixtures) != 1 {
		t.Fatalf("result = %+v", res)
	}

	var stored fixture.DaySnapshot
	if found, _ := store.Get(context.Background(), docstore.KindMatchDay, "2026-03-14", &stored); !found || len(stored.Fixtures) != 1 {
		t.Fatalf("stored snapshot damaged: %+v", stored)
	}
}

func TestSyncEmptyDayStaysEmpty(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		fixturesFn: func(_ context.Context, _, _ string) ([]fixture.Fixture, error) {
			return nil, nil
		},
	}
	svc, _ := newTestSyncService(t, docstore.NewMemoryStore(), provider, nil, 100)

	res, err := svc.Sync(context.Background(), "2026-03-14")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Source != SourceEmpty || len(res.Fixtures) != 0 {
		t.Fatalf("result = %+v", res)
	}
}

func TestSyncServesStaleCacheWhenProviderFails(t *testing.T) {
	t.Parallel()

	store := docstore.NewMemoryStore()
	provider := &stubProvider{
		fixturesFn: func(_ context.Context, _, _ string) ([]fixture.Fixture, error) {
			return nil, errors.New("provider down")
		},
	}
	svc, _ := newTestSyncService(t, store, provider, nil, 100)
	putSnapshot(t, store, "2026-03-14", 7*time.Hour, idleFixtures())

	res, err := svc.Sync(context.Background(), "2026-03-14")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Source != SourceCache || len(res.Fixtures) != 1 {
		t.Fatalf("result = %+v", res)
	}
}

func TestSyncNoCacheAndExhaustedQuotaServesEmptyDay(t *testing.T) {
	t.Parallel()

	store := docstore.NewMemoryStore()
	provider := &stubProvider{
		fixturesFn: func(_ context.Context, _, _ string) ([]fixture.Fixture, error) {
			t.Fatal("exhausted credentials must not reach the provider")
			return nil, nil
		},
	}
	svc, quotaSvc := newTestSyncService(t, store, provider, nil, 5)
	if err := quotaSvc.MarkExhausted(context.Background(), 0); err != nil {
		t.Fatalf("MarkExhausted: %v", err)
	}

	res, err := svc.Sync(context.Background(), "2026-03-14")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Source != SourceEmpty || len(res.Fixtures) != 0 {
		t.Fatalf("result = %+v", res)
	}
	if res.Quota.Remaining != 0 {
		t.Fatalf("quota remaining = %d, want 0", res.Quota.Remaining)
	}
}
