package app

import (
	"regexp"
	"strings"
)

// Span attributes cap the recorded statement so a bulk snapshot write
// does not bloat the trace.
const maxTracedQueryLength = 512

var sqlWhitespace = regexp.MustCompile(`\s+`)

// formatDBQueryForTrace collapses a statement to one line for the
// db.statement span attribute, truncated at maxTracedQueryLength.
func formatDBQueryForTrace(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	flat := sqlWhitespace.ReplaceAllString(query, " ")
	if len(flat) <= maxTracedQueryLength {
		return flat
	}
	return flat[:maxTracedQueryLength] + "..."
}
