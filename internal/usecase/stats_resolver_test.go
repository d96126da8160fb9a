package usecase

import (
	"context"
	"testing"

	"github.com/riskibarqy/pitchwatch/internal/domain/analysis"
)

func TestCandidateLeagues(t *testing.T) {
	t.Parallel()

	// Domestic first division: own league first, then country chain.
	if got := candidateLeagues(39); len(got) != 2 || got[0] != 39 || got[1] != 40 {
		t.Fatalf("premier league chain = %v", got)
	}

	// Cup fixtures look at the domestic divisions before the cup itself.
	if got := candidateLeagues(45); len(got) != 3 || got[0] != 39 || got[1] != 40 || got[2] != 45 {
		t.Fatalf("fa cup chain = %v", got)
	}

	// Untracked league falls back to itself.
	if got := candidateLeagues(9999); len(got) != 1 || got[0] != 9999 {
		t.Fatalf("untracked chain = %v", got)
	}
}

func TestStatsResolverWalksChainUntilForm(t *testing.T) {
	t.Parallel()

	var queried []int
	provider := &stubProvider{
		statsFn: func(_ context.Context, _ string, teamID, leagueID, _ int) (*analysis.TeamStatistics, error) {
			queried = append(queried, leagueID)
			if leagueID == 40 {
				return &analysis.TeamStatistics{TeamID: teamID, LeagueID: leagueID, Form: "WWDLW"}, nil
			}
			return nil, nil
		},
	}
	quotaSvc := newTestQuotaService(t, []string{"key-a"}, 100)
	resolver := NewStatsResolver(provider, quotaSvc, nil)

	stats, calls, err := resolver.Resolve(context.Background(), 50, 45, 2025, false)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if stats == nil || stats.Form != "WWDLW" {
		t.Fatalf("stats = %+v", stats)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	if len(queried) != 2 || queried[0] != 39 || queried[1] != 40 {
		t.Fatalf("queried = %v", queried)
	}
}

func TestStatsResolverOptimizedStopsAfterOneCall(t *testing.T) {
	t.Parallel()

	var queried []int
	provider := &stubProvider{
		statsFn: func(_ context.Context, _ string, _, leagueID, _ int) (*analysis.TeamStatistics, error) {
			queried = append(queried, leagueID)
			return nil, nil
		},
	}
	quotaSvc := newTestQuotaService(t, []string{"key-a"}, 100)
	resolver := NewStatsResolver(provider, quotaSvc, nil)

	stats, calls, err := resolver.Resolve(context.Background(), 50, 45, 2025, true)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if stats != nil {
		t.Fatalf("stats = %+v, want nil", stats)
	}
	if calls != 1 || len(queried) != 1 {
		t.Fatalf("calls = %d queried = %v", calls, queried)
	}
}

func TestStatsResolverPropagatesQuotaExhaustion(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{}
	quotaSvc := newTestQuotaService(t, []string{"key-a"}, 5)
	if err := quotaSvc.MarkExhausted(context.Background(), 0); err != nil {
		t.Fatalf("MarkExhausted: %v", err)
	}
	resolver := NewStatsResolver(provider, quotaSvc, nil)

	_, _, err := resolver.Resolve(context.Background(), 50, 39, 2025, true)
	if err == nil {
		t.Fatal("expected error when quota is gone")
	}
}
