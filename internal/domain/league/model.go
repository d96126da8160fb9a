package league

import "sort"

// Division classifies a competition inside its country.
// 1 and 2 are the top two league tiers, 0 is a cup or super cup.
const (
	DivisionCup    = 0
	DivisionFirst  = 1
	DivisionSecond = 2
)

const (
	GenderMen   = "M"
	GenderWomen = "W"
)

// Meta describes one tracked competition.
type Meta struct {
	Country  string `json:"country"`
	Name     string `json:"name"`
	Division int    `json:"division"`
	Gender   string `json:"gender"`
}

// Leagues is the static set of tracked competitions, keyed by the
// primary provider's league id.
var Leagues = map[int]Meta{
	// Germany
	78:  {Country: "Germany", Name: "Bundesliga", Division: 1, Gender: GenderMen},
	79:  {Country: "Germany", Name: "2. Bundesliga", Division: 2, Gender: GenderMen},
	81:  {Country: "Germany", Name: "DFB Pokal", Division: 0, Gender: GenderMen},
	529: {Country: "Germany", Name: "DFL Super Cup", Division: 0, Gender: GenderMen},
	506: {Country: "Germany", Name: "Frauen Bundesliga", Division: 1, Gender: GenderWomen},

	// Spain
	140: {Country: "Spain", Name: "La Liga", Division: 1, Gender: GenderMen},
	141: {Country: "Spain", Name: "Segunda División", Division: 2, Gender: GenderMen},
	143: {Country: "Spain", Name: "Copa del Rey", Division: 0, Gender: GenderMen},
	556: {Country: "Spain", Name: "Super Cup", Division: 0, Gender: GenderMen},
	898: {Country: "Spain", Name: "Liga F", Division: 1, Gender: GenderWomen},

	// England
	39:  {Country: "England", Name: "Premier League", Division: 1, Gender: GenderMen},
	40:  {Country: "England", Name: "Championship", Division: 2, Gender: GenderMen},
	45:  {Country: "England", Name: "FA Cup", Division: 0, Gender: GenderMen},
	48:  {Country: "England", Name: "League Cup", Division: 0, Gender: GenderMen},
	528: {Country: "England", Name: "Community Shield", Division: 0, Gender: GenderMen},
	44:  {Country: "England", Name: "WSL", Division: 1, Gender: GenderWomen},

	// Italy
	135: {Country: "Italy", Name: "Serie A", Division: 1, Gender: GenderMen},
	136: {Country: "Italy", Name: "Serie B", Division: 2, Gender: GenderMen},
	137: {Country: "Italy", Name: "Coppa Italia", Division: 0, Gender: GenderMen},
	547: {Country: "Italy", Name: "Supercoppa", Division: 0, Gender: GenderMen},
	723: {Country: "Italy", Name: "Serie A Femminile", Division: 1, Gender: GenderWomen},

	// Colombia
	239: {Country: "Colombia", Name: "Liga BetPlay", Division: 1, Gender: GenderMen},
	240: {Country: "Colombia", Name: "Torneo BetPlay", Division: 2, Gender: GenderMen},

	// Brazil
	71:  {Country: "Brazil", Name: "Série A", Division: 1, Gender: GenderMen},
	72:  {Country: "Brazil", Name: "Série B", Division: 2, Gender: GenderMen},
	73:  {Country: "Brazil", Name: "Copa do Brasil", Division: 0, Gender: GenderMen},
	475: {Country: "Brazil", Name: "Série A1 Feminino", Division: 1, Gender: GenderWomen},

	// France
	61:  {Country: "France", Name: "Ligue 1", Division: 1, Gender: GenderMen},
	62:  {Country: "France", Name: "Ligue 2", Division: 2, Gender: GenderMen},
	66:  {Country: "France", Name: "Coupe de France", Division: 0, Gender: GenderMen},
	526: {Country: "France", Name: "Trophée des Champions", Division: 0, Gender: GenderMen},
	484: {Country: "France", Name: "D1 Arkema", Division: 1, Gender: GenderWomen},

	// Saudi Arabia
	307: {Country: "Saudi Arabia", Name: "Pro League", Division: 1, Gender: GenderMen},
	308: {Country: "Saudi Arabia", Name: "Division 1", Division: 2, Gender: GenderMen},
	320: {Country: "Saudi Arabia", Name: "King's Cup", Division: 0, Gender: GenderMen},

	// Argentina
	128: {Country: "Argentina", Name: "Liga Profesional", Division: 1, Gender: GenderMen},
	129: {Country: "Argentina", Name: "Primera Nacional", Division: 2, Gender: GenderMen},
	130: {Country: "Argentina", Name: "Copa Argentina", Division: 0, Gender: GenderMen},

	// Mexico
	262: {Country: "Mexico", Name: "Liga MX", Division: 1, Gender: GenderMen},
	263: {Country: "Mexico", Name: "Liga de Expansión", Division: 2, Gender: GenderMen},
	749: {Country: "Mexico", Name: "Liga MX Femenil", Division: 1, Gender: GenderWomen},
}

// Lookup returns the metadata for a league id.
func Lookup(id int) (Meta, bool) {
	meta, ok := Leagues[id]
	return meta, ok
}

func IsTracked(id int) bool {
	_, ok := Leagues[id]
	return ok
}

// AllIDs returns every tracked league id in ascending order.
func AllIDs() []int {
	ids := make([]int, 0, len(Leagues))
	for id := range Leagues {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// CountryLeagueIDs returns the men's first and second division ids for a
// country, first division before second, ascending within a division.
func CountryLeagueIDs(country string) []int {
	var first, second []int
	for id, meta := range Leagues {
		if meta.Country != country || meta.Gender != GenderMen {
			continue
		}
		switch meta.Division {
		case DivisionFirst:
			first = append(first, id)
		case DivisionSecond:
			second = append(second, id)
		}
	}
	sort.Ints(first)
	sort.Ints(second)
	return append(first, second...)
}

// Countries returns the distinct tracked countries, sorted.
func Countries() []string {
	seen := make(map[string]struct{})
	var countries []string
	for _, meta := range Leagues {
		if _, ok := seen[meta.Country]; ok {
			continue
		}
		seen[meta.Country] = struct{}{}
		countries = append(countries, meta.Country)
	}
	sort.Strings(countries)
	return countries
}
