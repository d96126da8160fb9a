package analysis

import (
	"strings"
	"time"
)

// Form comparison outcomes.
const (
	FormHome  = "home"
	FormAway  = "away"
	FormEqual = "equal"
)

// TeamStatistics is the slice of a provider statistics response the
// analysis cares about. Form is a recent-results string such as "WWDLW",
// most recent last.
type TeamStatistics struct {
	TeamID       int    `json:"teamId"`
	TeamName     string `json:"teamName,omitempty"`
	LeagueID     int    `json:"leagueId"`
	Season       int    `json:"season,omitempty"`
	Form         string `json:"form"`
	Rank         int    `json:"rank,omitempty"`
	Played       int    `json:"played"`
	Wins         int    `json:"wins"`
	Draws        int    `json:"draws"`
	Losses       int    `json:"losses"`
	GoalsFor     int    `json:"goalsFor"`
	GoalsAgainst int    `json:"goalsAgainst"`
	// PenaltyMissed counts penalties the team failed to convert this
	// season.
	PenaltyMissed int `json:"penaltyMissed,omitempty"`
}

// HasForm reports whether the statistics carry a usable form string.
func (s *TeamStatistics) HasForm() bool {
	return s != nil && strings.TrimSpace(s.Form) != ""
}

// HeadToHead is one prior meeting between the two teams.
type HeadToHead struct {
	FixtureID int64     `json:"fixtureId"`
	Date      time.Time `json:"date"`
	HomeID    int       `json:"homeId"`
	AwayID    int       `json:"awayId"`
	HomeGoals *int      `json:"homeGoals"`
	AwayGoals *int      `json:"awayGoals"`
}

// Odds holds pre-match 1X2 prices when the provider has them.
type Odds struct {
	Bookmaker string `json:"bookmaker,omitempty"`
	Home      string `json:"home"`
	Draw      string `json:"draw"`
	Away      string `json:"away"`
}

// Injury is one unavailable player report.
type Injury struct {
	TeamID int    `json:"teamId"`
	Player string `json:"player"`
	Reason string `json:"reason,omitempty"`
}

// MatchAnalysis is the persisted enrichment document for one fixture.
// It is written once: a document whose both team forms are present is
// complete and never recomputed.
type MatchAnalysis struct {
	FixtureID  int64           `json:"fixtureId"`
	Date       string          `json:"date"`
	LeagueID   int             `json:"leagueId"`
	HomeID     int             `json:"homeId"`
	AwayID     int             `json:"awayId"`
	HomeStats  *TeamStatistics `json:"homeStats,omitempty"`
	AwayStats  *TeamStatistics `json:"awayStats,omitempty"`
	HeadToHead []HeadToHead    `json:"headToHead,omitempty"`
	Odds       *Odds           `json:"odds,omitempty"`
	Injuries   []Injury        `json:"injuries,omitempty"`
	BetterForm string          `json:"betterForm,omitempty"`
	APICalls   int             `json:"apiCalls"`
	AnalyzedAt time.Time       `json:"analyzedAt"`
}

// IsComplete reports whether the analysis resolved form for both teams.
func (a *MatchAnalysis) IsComplete() bool {
	return a != nil && a.HomeStats.HasForm() && a.AwayStats.HasForm()
}

// FormScore values a form string three points per win and one per draw.
// Unknown characters (including "-" placeholders) count nothing.
func FormScore(form string) int {
	score := 0
	for _, r := range strings.ToUpper(form) {
		switch r {
		case 'W':
			score += 3
		case 'D':
			score++
		}
	}
	return score
}

// BetterForm compares two form strings by FormScore.
func BetterForm(homeForm, awayForm string) string {
	home, away := FormScore(homeForm), FormScore(awayForm)
	switch {
	case home > away:
		return FormHome
	case away > home:
		return FormAway
	default:
		return FormEqual
	}
}
