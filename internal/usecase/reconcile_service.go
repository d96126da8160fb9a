package usecase

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/riskibarqy/pitchwatch/internal/domain/fixture"
)

const defaultMinPairScore = 80

// NormalizeTeamName reduces a free-text club name to a comparable form:
// lowercased, diacritics stripped, punctuation dropped, whitespace
// collapsed. "Atlético de Madrid" and "atletico madrid" both normalize
// into containment range of each other.
func NormalizeTeamName(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	decomposed := norm.NFD.String(lower)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark left over from NFD, drop it
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// PairScorer rates how likely two home/away name pairs describe the
// same match. Inputs are already normalized; 100 is a certain match,
// 0 is no relation.
type PairScorer interface {
	Score(homeA, awayA, homeB, awayB string) int
}

// ContainmentScorer awards 100 for an exact pair match and 50 per side
// when one name contains the other. "bayern munchen" vs "bayern" is a
// side match; both sides matching reaches the acceptance threshold.
type ContainmentScorer struct{}

func (ContainmentScorer) Score(homeA, awayA, homeB, awayB string) int {
	if homeA == "" || awayA == "" || homeB == "" || awayB == "" {
		return 0
	}
	if homeA == homeB && awayA == awayB {
		return 100
	}

	score := 0
	if sideMatches(homeA, homeB) {
		score += 50
	}
	if sideMatches(awayA, awayB) {
		score += 50
	}
	return score
}

func sideMatches(a, b string) bool {
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

// rawStatusTable maps the free feed's status vocabulary onto the
// canonical short codes. The canonical codes themselves are in the
// table too, so an already-canonical status maps to itself. Ambiguous
// in-play statuses are resolved by minute in CanonicalStatus instead.
var rawStatusTable = map[string]string{
	"1st_half":         fixture.StatusFirstHalf,
	"first_half":       fixture.StatusFirstHalf,
	"1h":               fixture.StatusFirstHalf,
	"halftime":         fixture.StatusHalftime,
	"half_time":        fixture.StatusHalftime,
	"ht":               fixture.StatusHalftime,
	"2nd_half":         fixture.StatusSecondHalf,
	"second_half":      fixture.StatusSecondHalf,
	"2h":               fixture.StatusSecondHalf,
	"finished":         fixture.StatusFullTime,
	"ended":            fixture.StatusFullTime,
	"ft":               fixture.StatusFullTime,
	"notstarted":       fixture.StatusNotStarted,
	"not_started":      fixture.StatusNotStarted,
	"scheduled":        fixture.StatusNotStarted,
	"ns":               fixture.StatusNotStarted,
	"cancelled":        fixture.StatusCancelled,
	"canceled":         fixture.StatusCancelled,
	"canc":             fixture.StatusCancelled,
	"postponed":        fixture.StatusPostponed,
	"pst":              fixture.StatusPostponed,
	"suspended":        fixture.StatusSuspended,
	"susp":             fixture.StatusSuspended,
	"extra_time":       fixture.StatusExtraTime,
	"extratime":        fixture.StatusExtraTime,
	"et":               fixture.StatusExtraTime,
	"penalties":        fixture.StatusPenalties,
	"penalty":          fixture.StatusPenalties,
	"p":                fixture.StatusPenalties,
	"after_extra_time": fixture.StatusAfterExtra,
	"aet":              fixture.StatusAfterExtra,
	"after_penalties":  fixture.StatusAfterPens,
	"pen":              fixture.StatusAfterPens,
}

// CanonicalStatus translates a feed status into a canonical short code.
// In-play statuses without a half marker pick the half from the minute.
// Unknown statuses return "" so the caller keeps whatever it had.
func CanonicalStatus(raw string, elapsed *int) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, " ", "_")
	if key == "" {
		return ""
	}

	if mapped, ok := rawStatusTable[key]; ok {
		return mapped
	}

	switch key {
	case "inprogress", "in_progress", "live", "playing":
		if elapsed != nil && *elapsed <= 45 {
			return fixture.StatusFirstHalf
		}
		return fixture.StatusSecondHalf
	}
	return ""
}

// Reconciler folds free-feed live entries into a cached day snapshot.
// The feed has no fixture IDs, so entries attach to fixtures purely by
// team-name similarity.
type Reconciler struct {
	scorer   PairScorer
	minScore int
}

func NewReconciler(scorer PairScorer, minScore int) *Reconciler {
	if scorer == nil {
		scorer = ContainmentScorer{}
	}
	if minScore <= 0 || minScore > 100 {
		minScore = defaultMinPairScore
	}
	return &Reconciler{scorer: scorer, minScore: minScore}
}

// Merge returns a copy of cached with live scores, statuses and minutes
// applied, plus the IDs of the fixtures that actually changed. Each feed
// entry attaches to at most one fixture, the highest-scoring unfinished
// one. Nil feed values never erase known data and an unknown feed
// status keeps the prior one. Ties between equally scored fixtures go
// to the earlier fixture.
func (r *Reconciler) Merge(cached []fixture.Fixture, live []LiveMatch) ([]fixture.Fixture, map[int64]bool) {
	merged := make([]fixture.Fixture, len(cached))
	copy(merged, cached)
	updated := make(map[int64]bool)

	if len(live) == 0 || len(merged) == 0 {
		return merged, updated
	}

	names := make([]struct{ home, away string }, len(merged))
	for i, fx := range merged {
		names[i].home = NormalizeTeamName(fx.Home.Name)
		names[i].away = NormalizeTeamName(fx.Away.Name)
	}

	for _, entry := range live {
		home := NormalizeTeamName(entry.HomeName)
		away := NormalizeTeamName(entry.AwayName)

		bestIdx := -1
		bestScore := 0
		for i := range merged {
			if fixture.IsFinishedStatus(merged[i].Status) {
				continue
			}
			score := r.scorer.Score(home, away, names[i].home, names[i].away)
			if score > bestScore {
				bestScore = score
				bestIdx = i
				if score == 100 {
					break
				}
			}
		}
		if bestIdx < 0 || bestScore < r.minScore {
			continue
		}

		if applyLiveMatch(&merged[bestIdx], entry) {
			updated[merged[bestIdx].ID] = true
		}
	}
	return merged, updated
}

func applyLiveMatch(fx *fixture.Fixture, entry LiveMatch) bool {
	changed := false

	if entry.HomeScore != nil && (fx.HomeGoals == nil || *fx.HomeGoals != *entry.HomeScore) {
		value := *entry.HomeScore
		fx.HomeGoals = &value
		changed = true
	}
	if entry.AwayScore != nil && (fx.AwayGoals == nil || *fx.AwayGoals != *entry.AwayScore) {
		value := *entry.AwayScore
		fx.AwayGoals = &value
		changed = true
	}
	if status := CanonicalStatus(entry.RawStatus, entry.Elapsed); status != "" && status != fx.Status {
		fx.Status = status
		changed = true
	}
	if entry.Elapsed != nil && (fx.Elapsed == nil || *fx.Elapsed != *entry.Elapsed) {
		value := *entry.Elapsed
		fx.Elapsed = &value
		changed = true
	}
	return changed
}
