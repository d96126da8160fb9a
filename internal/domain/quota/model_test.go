package quota

import "testing"

func TestCounterKey(t *testing.T) {
	t.Parallel()

	if got := CounterKey("2026-03-14", 0); got != "2026-03-14-key0" {
		t.Fatalf("unexpected counter key %q", got)
	}
}

func TestClamp(t *testing.T) {
	t.Parallel()

	cases := []struct {
		used, limit, want int
	}{
		{used: -1, limit: 100, want: 0},
		{used: 0, limit: 100, want: 0},
		{used: 57, limit: 100, want: 57},
		{used: 100, limit: 100, want: 100},
		{used: 250, limit: 100, want: 100},
	}
	for _, tc := range cases {
		if got := Clamp(tc.used, tc.limit); got != tc.want {
			t.Fatalf("Clamp(%d, %d) = %d, want %d", tc.used, tc.limit, got, tc.want)
		}
	}
}
