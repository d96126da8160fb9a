package usecase

import (
	"context"
	"log/slog"

	"github.com/riskibarqy/pitchwatch/internal/domain/analysis"
	"github.com/riskibarqy/pitchwatch/internal/domain/league"
)

// StatsResolver finds season form for a team. Providers only return
// statistics for the league the team actually plays in, and cup
// fixtures carry the cup's league ID, so the resolver walks a fallback
// chain of candidate leagues until one yields form data.
type StatsResolver struct {
	provider FixtureProvider
	quota    *QuotaService
	logger   *slog.Logger
}

func NewStatsResolver(provider FixtureProvider, quotaSvc *QuotaService, logger *slog.Logger) *StatsResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsResolver{provider: provider, quota: quotaSvc, logger: logger}
}

// candidateLeagues orders the leagues worth querying for a team seen in
// leagueID. Domestic league fixtures try their own league first; cup
// fixtures try the country's first and second divisions before the cup
// itself, since form lives in the domestic league.
func candidateLeagues(leagueID int) []int {
	meta, ok := league.Lookup(leagueID)
	if !ok {
		return []int{leagueID}
	}

	chain := make([]int, 0, 4)
	seen := make(map[int]bool, 4)
	add := func(id int) {
		if !seen[id] {
			seen[id] = true
			chain = append(chain, id)
		}
	}

	if meta.Division == league.DivisionFirst || meta.Division == league.DivisionSecond {
		add(leagueID)
	}
	for _, id := range league.CountryLeagueIDs(meta.Country) {
		add(id)
	}
	add(leagueID)
	return chain
}

// Resolve fetches season statistics for one team, trying candidate
// leagues in order until one returns form data. It reports the number
// of quota-charged calls alongside the result, rotation charges
// included. In optimized mode only the best candidate is tried,
// capping the chain at a single league. A fully walked chain with no
// form anywhere returns (nil, n, nil).
func (r *StatsResolver) Resolve(ctx context.Context, teamID, leagueID, season int, optimized bool) (*analysis.TeamStatistics, int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsResolver.Resolve")
	defer span.End()

	chain := candidateLeagues(leagueID)
	if optimized && len(chain) > 1 {
		chain = chain[:1]
	}

	calls := 0
	for _, candidate := range chain {
		var stats *analysis.TeamStatistics
		charged, err := r.quota.ResilientCall(ctx, func(ctx context.Context, apiKey string) error {
			var callErr error
			stats, callErr = r.provider.TeamStatistics(ctx, apiKey, teamID, candidate, season)
			return callErr
		})
		calls += charged
		if err != nil {
			return nil, calls, err
		}
		if stats != nil && stats.HasForm() {
			return stats, calls, nil
		}
		r.logger.DebugContext(ctx, "no form data in candidate league",
			"team_id", teamID,
			"league_id", candidate,
			"season", season,
		)
	}
	return nil, calls, nil
}
