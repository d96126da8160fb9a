package fixture

import (
	"strings"
	"time"
)

// Canonical short statuses, matching the primary provider's vocabulary.
const (
	StatusNotStarted = "NS"
	StatusFirstHalf  = "1H"
	StatusHalftime   = "HT"
	StatusSecondHalf = "2H"
	StatusExtraTime  = "ET"
	StatusPenalties  = "P"
	StatusFullTime   = "FT"
	StatusAfterExtra = "AET"
	StatusAfterPens  = "PEN"
	StatusCancelled  = "CANC"
	StatusPostponed  = "PST"
	StatusSuspended  = "SUSP"
)

// Team is one side of a fixture.
type Team struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
}

// Fixture represents one scheduled match in a tracked league.
type Fixture struct {
	ID         int64     `json:"id"`
	LeagueID   int       `json:"leagueId"`
	LeagueName string    `json:"leagueName,omitempty"`
	Season     int       `json:"season,omitempty"`
	Round      string    `json:"round,omitempty"`
	KickoffAt  time.Time `json:"kickoffAt"`
	Venue      string    `json:"venue,omitempty"`
	Home       Team      `json:"home"`
	Away       Team      `json:"away"`
	HomeGoals  *int      `json:"homeGoals"`
	AwayGoals  *int      `json:"awayGoals"`
	Status     string    `json:"status"`
	Elapsed    *int      `json:"elapsed,omitempty"`
}

// DaySnapshot is the persisted fixture set for one UTC calendar day.
type DaySnapshot struct {
	Date      string    `json:"date"`
	Fixtures  []Fixture `json:"fixtures"`
	FetchedAt time.Time `json:"fetchedAt"`
	Source    string    `json:"source,omitempty"`
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	if status == "" {
		return StatusNotStarted
	}
	return status
}

func IsLiveStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusFirstHalf, StatusHalftime, StatusSecondHalf, StatusExtraTime, StatusPenalties:
		return true
	default:
		return false
	}
}

func IsFinishedStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusFullTime, StatusAfterExtra, StatusAfterPens:
		return true
	default:
		return false
	}
}

// HasLive reports whether any fixture in the set is currently in play.
func HasLive(fixtures []Fixture) bool {
	for _, f := range fixtures {
		if IsLiveStatus(f.Status) {
			return true
		}
	}
	return false
}
