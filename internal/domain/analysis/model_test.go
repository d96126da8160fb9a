package analysis

import "testing"

func TestFormScore(t *testing.T) {
	t.Parallel()

	cases := []struct {
		form string
		want int
	}{
		{form: "", want: 0},
		{form: "WWWWW", want: 15},
		{form: "WDLWD", want: 8},
		{form: "LLLLL", want: 0},
		{form: "wdl", want: 4},
		{form: "W-D--", want: 4},
	}

	for _, tc := range cases {
		if got := FormScore(tc.form); got != tc.want {
			t.Fatalf("FormScore(%q) = %d, want %d", tc.form, got, tc.want)
		}
	}
}

func TestBetterForm(t *testing.T) {
	t.Parallel()

	if got := BetterForm("WWWWW", "DDDDD"); got != FormHome {
		t.Fatalf("expected home, got %q", got)
	}
	if got := BetterForm("LLLDD", "WWLLL"); got != FormAway {
		t.Fatalf("expected away, got %q", got)
	}
	if got := BetterForm("WLL", "DDD"); got != "equal" {
		t.Fatalf("expected equal on matching scores, got %q", got)
	}
	if got := BetterForm("", ""); got != FormEqual {
		t.Fatalf("expected equal on empty forms, got %q", got)
	}
}

func TestIsComplete(t *testing.T) {
	t.Parallel()

	var nilAnalysis *MatchAnalysis
	if nilAnalysis.IsComplete() {
		t.Fatal("nil analysis must not be complete")
	}

	a := &MatchAnalysis{
		HomeStats: &TeamStatistics{Form: "WWD"},
	}
	if a.IsComplete() {
		t.Fatal("analysis with one form must not be complete")
	}

	a.AwayStats = &TeamStatistics{Form: "  "}
	if a.IsComplete() {
		t.Fatal("blank away form must not count as complete")
	}

	a.AwayStats.Form = "LDL"
	if !a.IsComplete() {
		t.Fatal("analysis with both forms must be complete")
	}
}
