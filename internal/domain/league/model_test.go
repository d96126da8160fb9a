package league

import (
	"reflect"
	"testing"
)

func TestCountryLeagueIDs(t *testing.T) {
	t.Parallel()

	got := CountryLeagueIDs("Germany")
	want := []int{78, 79}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("germany league ids = %v, want %v", got, want)
	}

	// Women's leagues and cups never appear in the fallback chain.
	for _, id := range CountryLeagueIDs("England") {
		meta := Leagues[id]
		if meta.Gender != GenderMen || meta.Division == DivisionCup {
			t.Fatalf("unexpected league %d (%+v) in country chain", id, meta)
		}
	}
}

func TestCountryLeagueIDsOrder(t *testing.T) {
	t.Parallel()

	for _, country := range Countries() {
		ids := CountryLeagueIDs(country)
		seenSecond := false
		for _, id := range ids {
			switch Leagues[id].Division {
			case DivisionSecond:
				seenSecond = true
			case DivisionFirst:
				if seenSecond {
					t.Fatalf("%s: first division after second in %v", country, ids)
				}
			}
		}
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	meta, ok := Lookup(39)
	if !ok || meta.Name != "Premier League" {
		t.Fatalf("lookup(39) = %+v, %t", meta, ok)
	}
	if _, ok := Lookup(9999); ok {
		t.Fatal("untracked league id should not resolve")
	}
	if IsTracked(9999) {
		t.Fatal("untracked league id reported as tracked")
	}
}
