package usecase

import (
	"context"

	"github.com/riskibarqy/pitchwatch/internal/domain/analysis"
	"github.com/riskibarqy/pitchwatch/internal/domain/fixture"
)

// FixtureProvider is the paid, key-rotated data source. Every call costs
// one unit of the daily quota for the credential it was made with.
type FixtureProvider interface {
	FixturesByDate(ctx context.Context, apiKey, date string) ([]fixture.Fixture, error)
	TeamStatistics(ctx context.Context, apiKey string, teamID, leagueID, season int) (*analysis.TeamStatistics, error)
	HeadToHead(ctx context.Context, apiKey string, homeID, awayID int) ([]analysis.HeadToHead, error)
	OddsByFixture(ctx context.Context, apiKey string, fixtureID int64) (*analysis.Odds, error)
	InjuriesByFixture(ctx context.Context, apiKey string, fixtureID int64) ([]analysis.Injury, error)
}

// LiveMatch is one in-play entry from the free feed. The feed has no
// shared fixture IDs, only free-text team names, so entries are tied
// back to known fixtures by fuzzy name matching.
type LiveMatch struct {
	HomeName  string
	AwayName  string
	HomeScore *int
	AwayScore *int
	RawStatus string
	Elapsed   *int
}

// LiveFeed is the free secondary source for in-play score updates.
type LiveFeed interface {
	LiveNow(ctx context.Context) ([]LiveMatch, error)
}
