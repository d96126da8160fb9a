package quota

import "fmt"

// Counter is the persisted per-credential call counter for one UTC day.
type Counter struct {
	Date     string `json:"date"`
	KeyIndex int    `json:"keyIndex"`
	Used     int    `json:"used"`
	Limit    int    `json:"limit"`
}

// CounterKey builds the document key for one credential on one day.
func CounterKey(date string, keyIndex int) string {
	return fmt.Sprintf("%s-key%d", date, keyIndex)
}

// KeyQuota is the read-side view of one credential's budget.
type KeyQuota struct {
	Index     int  `json:"index"`
	Used      int  `json:"used"`
	Limit     int  `json:"limit"`
	Remaining int  `json:"remaining"`
	Exhausted bool `json:"exhausted"`
}

// Quota aggregates every credential's budget for one UTC day.
type Quota struct {
	Date      string     `json:"date"`
	Used      int        `json:"used"`
	Limit     int        `json:"limit"`
	Remaining int        `json:"remaining"`
	Keys      []KeyQuota `json:"keys"`
}

// Clamp normalizes a raw used count into [0, limit].
func Clamp(used, limit int) int {
	if used < 0 {
		return 0
	}
	if used > limit {
		return limit
	}
	return used
}
