package usecase

import (
	"context"

	"github.com/riskibarqy/pitchwatch/internal/domain/analysis"
	"github.com/riskibarqy/pitchwatch/internal/domain/fixture"
)

type stubProvider struct {
	fixturesFn func(ctx context.Context, apiKey, date string) ([]fixture.Fixture, error)
	statsFn    func(ctx context.Context, apiKey string, teamID, leagueID, season int) (*analysis.TeamStatistics, error)
	h2hFn      func(ctx context.Context, apiKey string, homeID, awayID int) ([]analysis.HeadToHead, error)
	oddsFn     func(ctx context.Context, apiKey string, fixtureID int64) (*analysis.Odds, error)
	injuriesFn func(ctx context.Context, apiKey string, fixtureID int64) ([]analysis.Injury, error)
}

func (s *stubProvider) FixturesByDate(ctx context.Context, apiKey, date string) ([]fixture.Fixture, error) {
	if s.fixturesFn == nil {
		return nil, nil
	}
	return s.fixturesFn(ctx, apiKey, date)
}

func (s *stubProvider) TeamStatistics(ctx context.Context, apiKey string, teamID, leagueID, season int) (*analysis.TeamStatistics, error) {
	if s.statsFn == nil {
		return nil, nil
	}
	return s.statsFn(ctx, apiKey, teamID, leagueID, season)
}

func (s *stubProvider) HeadToHead(ctx context.Context, apiKey string, homeID, awayID int) ([]analysis.HeadToHead, error) {
	if s.h2hFn == nil {
		return nil, nil
	}
	return s.h2hFn(ctx, apiKey, homeID, awayID)
}

func (s *stubProvider) OddsByFixture(ctx context.Context, apiKey string, fixtureID int64) (*analysis.Odds, error) {
	if s.oddsFn == nil {
		return nil, nil
	}
	return s.oddsFn(ctx, apiKey, fixtureID)
}

func (s *stubProvider) InjuriesByFixture(ctx context.Context, apiKey string, fixtureID int64) ([]analysis.Injury, error) {
	if s.injuriesFn == nil {
		return nil, nil
	}
	return s.injuriesFn(ctx, apiKey, fixtureID)
}

type stubFeed struct {
	liveFn func(ctx context.Context) ([]LiveMatch, error)
}

func (s *stubFeed) LiveNow(ctx context.Context) ([]LiveMatch, error) {
	if s.liveFn == nil {
		return nil, nil
	}
	return s.liveFn(ctx)
}
