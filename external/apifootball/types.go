package apifootball

import (
	"bytes"
	"strconv"

	sonic "github.com/bytedance/sonic"
)

// providerErrors tolerates the provider's two encodings of the errors
// field: an empty JSON array when the call succeeded and an object of
// code -> message when it was rejected.
type providerErrors map[string]string

func (e *providerErrors) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("[]")) || bytes.Equal(trimmed, []byte("{}")) {
		*e = nil
		return nil
	}

	var asMap map[string]string
	if err := sonic.Unmarshal(trimmed, &asMap); err == nil {
		*e = asMap
		return nil
	}

	var asList []string
	if err := sonic.Unmarshal(trimmed, &asList); err != nil {
		return err
	}
	out := make(map[string]string, len(asList))
	for i, item := range asList {
		out[strconv.Itoa(i)] = item
	}
	*e = out
	return nil
}

func (e providerErrors) first() string {
	for code, message := range e {
		if message != "" {
			return code + ": " + message
		}
		return code
	}
	return ""
}

type teamRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo"`
}

type fixtureItem struct {
	Fixture struct {
		ID   int64  `json:"id"`
		Date string `json:"date"`
		Status struct {
			Short   string `json:"short"`
			Elapsed *int   `json:"elapsed"`
		} `json:"status"`
		Venue struct {
			Name string `json:"name"`
		} `json:"venue"`
	} `json:"fixture"`
	League struct {
		ID     int    `json:"id"`
		Name   string `json:"name"`
		Season int    `json:"season"`
		Round  string `json:"round"`
	} `json:"league"`
	Teams struct {
		Home teamRef `json:"home"`
		Away teamRef `json:"away"`
	} `json:"teams"`
	Goals struct {
		Home *int `json:"home"`
		Away *int `json:"away"`
	} `json:"goals"`
}

type fixturesEnvelope struct {
	Errors   providerErrors `json:"errors"`
	Results  int            `json:"results"`
	Response []fixtureItem  `json:"response"`
}

type teamStatisticsEnvelope struct {
	Errors   providerErrors `json:"errors"`
	Response struct {
		Form string `json:"form"`
		Team struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"team"`
		League struct {
			ID        int `json:"id"`
			Season    int `json:"season"`
			Standings []struct {
				Rank int `json:"rank"`
			} `json:"standings"`
		} `json:"league"`
		Fixtures struct {
			Played totals `json:"played"`
			Wins   totals `json:"wins"`
			Draws  totals `json:"draws"`
			Loses  totals `json:"loses"`
		} `json:"fixtures"`
		Goals struct {
			For     goalTotals `json:"for"`
			Against goalTotals `json:"against"`
		} `json:"goals"`
		Penalty struct {
			Missed totals `json:"missed"`
		} `json:"penalty"`
	} `json:"response"`
}

type totals struct {
	Total int `json:"total"`
}

type goalTotals struct {
	Total totals `json:"total"`
}

type oddsEnvelope struct {
	Errors   providerErrors `json:"errors"`
	Response []struct {
		Bookmakers []struct {
			Name string `json:"name"`
			Bets []struct {
				Name   string `json:"name"`
				Values []struct {
					Value string `json:"value"`
					Odd   string `json:"odd"`
				} `json:"values"`
			} `json:"bets"`
		} `json:"bookmakers"`
	} `json:"response"`
}

type injuriesEnvelope struct {
	Errors   providerErrors `json:"errors"`
	Response []struct {
		Player struct {
			Name   string `json:"name"`
			Reason string `json:"reason"`
		} `json:"player"`
		Team struct {
			ID int `json:"id"`
		} `json:"team"`
	} `json:"response"`
}
