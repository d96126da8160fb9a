package bzzoiro

import (
	"strings"
	"testing"
)

func TestFirstString(t *testing.T) {
	t.Parallel()

	item := map[string]any{
		"home_name": "  Real Madrid ",
		"away_team": "Barcelona",
		"status":    "",
	}
	if got := firstString(item, "home_name", "home_team"); got != "Real Madrid" {
		t.Fatalf("unexpected home name %q", got)
	}
	if got := firstString(item, "away_name", "away_team"); got != "Barcelona" {
		t.Fatalf("fallback key should resolve, got %q", got)
	}
	if got := firstString(item, "status", "state"); got != "" {
		t.Fatalf("blank values should not match, got %q", got)
	}
}

func TestFirstInt(t *testing.T) {
	t.Parallel()

	item := map[string]any{
		"home_score":     float64(2),
		"current_minute": "67",
		"elapsed":        float64(99),
	}
	if got := firstInt(item, "home_score", "score_home"); got == nil || *got != 2 {
		t.Fatalf("unexpected home score %v", got)
	}
	// String minutes are accepted; the first matching key wins.
	if got := firstInt(item, "current_minute", "elapsed", "minute"); got == nil || *got != 67 {
		t.Fatalf("unexpected minute %v", got)
	}
	if got := firstInt(item, "away_score", "score_away"); got != nil {
		t.Fatalf("missing score should be nil, got %v", got)
	}
}

func TestSanitizeSensitiveText(t *testing.T) {
	t.Parallel()

	got := sanitizeSensitiveText("dial failed for token abc123 target", "abc123")
	if got != "dial failed for token REDACTED target" {
		t.Fatalf("token not redacted: %q", got)
	}
}

func TestBuildCurlPreviewRedactsAuthorization(t *testing.T) {
	t.Parallel()

	preview := buildCurlPreview("https://api.bzzoiro.com/v1/live/")
	if preview == "" {
		t.Fatal("empty preview")
	}
	if !strings.Contains(preview, "Authorization: Token ***") {
		t.Fatalf("preview missing redacted header: %q", preview)
	}
	if strings.Contains(preview, "Bearer") {
		t.Fatalf("unexpected header in preview: %q", preview)
	}
}
