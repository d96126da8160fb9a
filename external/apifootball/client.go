// Package apifootball is the metered primary fixture provider. Every
// call costs daily quota, so credentials are supplied per request and
// rotation stays with the caller.
package apifootball

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/pitchwatch/internal/domain/analysis"
	"github.com/riskibarqy/pitchwatch/internal/domain/fixture"
	"github.com/riskibarqy/pitchwatch/internal/domain/league"
	"github.com/riskibarqy/pitchwatch/internal/platform/logging"
	"github.com/riskibarqy/pitchwatch/internal/platform/resilience"
	"github.com/riskibarqy/pitchwatch/internal/usecase"
)

const (
	defaultBaseURL     = "https://v3.football.api-sports.io"
	apiKeyHeader       = "x-apisports-key"
	headToHeadLast     = 5
	maxResponseBytes   = 6 << 20
	matchWinnerBetName = "Match Winner"
)

var errTransient = crerr.New("api-football transient failure")

// ErrRejected marks a 2xx response whose errors field is populated. The
// provider uses this shape for rate limiting and invalid credentials,
// so callers treat it as the active credential being unusable.
var ErrRejected = crerr.New("api-football rejected request")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// FixturesByDate fetches every fixture on a UTC calendar day and keeps
// only the tracked leagues.
func (c *Client) FixturesByDate(ctx context.Context, apiKey, date string) ([]fixture.Fixture, error) {
	if strings.TrimSpace(date) == "" {
		return nil, fmt.Errorf("date is required")
	}

	var envelope fixturesEnvelope
	if err := c.doJSON(ctx, apiKey, "/fixtures", map[string]string{"date": date, "timezone": "UTC"}, &envelope); err != nil {
		return nil, fmt.Errorf("fetch fixtures date=%s: %w", date, err)
	}
	if message := envelope.Errors.first(); message != "" {
		return nil, crerr.Wrapf(ErrRejected, "fetch fixtures date=%s: %s", date, message)
	}

	out := make([]fixture.Fixture, 0, len(envelope.Response))
	for _, item := range envelope.Response {
		if item.Fixture.ID <= 0 || !league.IsTracked(item.League.ID) {
			continue
		}
		out = append(out, mapFixtureItem(item))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].KickoffAt.Equal(out[j].KickoffAt) {
			return out[i].KickoffAt.Before(out[j].KickoffAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// TeamStatistics fetches one team's season statistics in one league.
// A response without a form string means the provider has no data for
// that pairing; that is reported as (nil, nil), not an error.
func (c *Client) TeamStatistics(ctx context.Context, apiKey string, teamID, leagueID, season int) (*analysis.TeamStatistics, error) {
	if teamID <= 0 || leagueID <= 0 || season <= 0 {
		return nil, fmt.Errorf("team, league and season must be greater than zero")
	}

	query := map[string]string{
		"team":   strconv.Itoa(teamID),
		"league": strconv.Itoa(leagueID),
		"season": strconv.Itoa(season),
	}
	var envelope teamStatisticsEnvelope
	if err := c.doJSON(ctx, apiKey, "/teams/statistics", query, &envelope); err != nil {
		return nil, fmt.Errorf("fetch team statistics team=%d league=%d: %w", teamID, leagueID, err)
	}
	if message := envelope.Errors.first(); message != "" {
		return nil, crerr.Wrapf(ErrRejected, "fetch team statistics team=%d league=%d: %s", teamID, leagueID, message)
	}

	body := envelope.Response
	if strings.TrimSpace(body.Form) == "" {
		return nil, nil
	}
	rank := 0
	if len(body.League.Standings) > 0 {
		rank = body.League.Standings[0].Rank
	}
	return &analysis.TeamStatistics{
		TeamID:        body.Team.ID,
		TeamName:      strings.TrimSpace(body.Team.Name),
		LeagueID:      body.League.ID,
		Season:        body.League.Season,
		Form:          strings.TrimSpace(body.Form),
		Rank:          rank,
		Played:        body.Fixtures.Played.Total,
		Wins:          body.Fixtures.Wins.Total,
		Draws:         body.Fixtures.Draws.Total,
		Losses:        body.Fixtures.Loses.Total,
		GoalsFor:      body.Goals.For.Total.Total,
		GoalsAgainst:  body.Goals.Against.Total.Total,
		PenaltyMissed: body.Penalty.Missed.Total,
	}, nil
}

// HeadToHead fetches the most recent meetings between two teams.
func (c *Client) HeadToHead(ctx context.Context, apiKey string, homeID, awayID int) ([]analysis.HeadToHead, error) {
	if homeID <= 0 || awayID <= 0 {
		return nil, fmt.Errorf("both team ids must be greater than zero")
	}

	query := map[string]string{
		"h2h":  fmt.Sprintf("%d-%d", homeID, awayID),
		"last": strconv.Itoa(headToHeadLast),
	}
	var envelope fixturesEnvelope
	if err := c.doJSON(ctx, apiKey, "/fixtures/headtohead", query, &envelope); err != nil {
		return nil, fmt.Errorf("fetch head to head %d-%d: %w", homeID, awayID, err)
	}
	if message := envelope.Errors.first(); message != "" {
		return nil, crerr.Wrapf(ErrRejected, "fetch head to head %d-%d: %s", homeID, awayID, message)
	}

	out := make([]analysis.HeadToHead, 0, len(envelope.Response))
	for _, item := range envelope.Response {
		if item.Fixture.ID <= 0 {
			continue
		}
		meeting := analysis.HeadToHead{
			FixtureID: item.Fixture.ID,
			HomeID:    item.Teams.Home.ID,
			AwayID:    item.Teams.Away.ID,
			HomeGoals: item.Goals.Home,
			AwayGoals: item.Goals.Away,
		}
		if parsed := parseProviderDateTime(item.Fixture.Date); parsed != nil {
			meeting.Date = *parsed
		}
		out = append(out, meeting)
	}
	return out, nil
}

// OddsByFixture fetches pre-match 1X2 prices. Missing markets resolve
// to (nil, nil) so enrichment can degrade quietly.
func (c *Client) OddsByFixture(ctx context.Context, apiKey string, fixtureID int64) (*analysis.Odds, error) {
	if fixtureID <= 0 {
		return nil, fmt.Errorf("fixture id must be greater than zero")
	}

	var envelope oddsEnvelope
	if err := c.doJSON(ctx, apiKey, "/odds", map[string]string{"fixture": strconv.FormatInt(fixtureID, 10)}, &envelope); err != nil {
		return nil, fmt.Errorf("fetch odds fixture=%d: %w", fixtureID, err)
	}
	if message := envelope.Errors.first(); message != "" {
		return nil, crerr.Wrapf(ErrRejected, "fetch odds fixture=%d: %s", fixtureID, message)
	}

	for _, entry := range envelope.Response {
		for _, bookmaker := range entry.Bookmakers {
			for _, bet := range bookmaker.Bets {
				if !strings.EqualFold(bet.Name, matchWinnerBetName) {
					continue
				}
				odds := analysis.Odds{Bookmaker: strings.TrimSpace(bookmaker.Name)}
				for _, value := range bet.Values {
					switch strings.ToLower(strings.TrimSpace(value.Value)) {
					case "home", "1":
						odds.Home = value.Odd
					case "draw", "x":
						odds.Draw = value.Odd
					case "away", "2":
						odds.Away = value.Odd
					}
				}
				if odds.Home != "" || odds.Draw != "" || odds.Away != "" {
					return &odds, nil
				}
			}
		}
	}
	return nil, nil
}

// InjuriesByFixture fetches unavailable player reports for a fixture.
func (c *Client) InjuriesByFixture(ctx context.Context, apiKey string, fixtureID int64) ([]analysis.Injury, error) {
	if fixtureID <= 0 {
		return nil, fmt.Errorf("fixture id must be greater than zero")
	}

	var envelope injuriesEnvelope
	if err := c.doJSON(ctx, apiKey, "/injuries", map[string]string{"fixture": strconv.FormatInt(fixtureID, 10)}, &envelope); err != nil {
		return nil, fmt.Errorf("fetch injuries fixture=%d: %w", fixtureID, err)
	}
	if message := envelope.Errors.first(); message != "" {
		return nil, crerr.Wrapf(ErrRejected, "fetch injuries fixture=%d: %s", fixtureID, message)
	}

	out := make([]analysis.Injury, 0, len(envelope.Response))
	for _, item := range envelope.Response {
		name := strings.TrimSpace(item.Player.Name)
		if name == "" {
			continue
		}
		out = append(out, analysis.Injury{
			TeamID: item.Team.ID,
			Player: name,
			Reason: strings.TrimSpace(item.Player.Reason),
		})
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, apiKey, path string, query map[string]string, target any) error {
	if strings.TrimSpace(apiKey) == "" {
		return fmt.Errorf("api key is required")
	}
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "api-football circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: fixture provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	// Credentials are distinct budgets, so identical requests on
	// different keys must not be collapsed into one flight.
	flightKey := apiKey + "|" + path + "?" + values.Encode()
	out, err, _ := c.flight.Do(flightKey, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, apiKey, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && isCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, apiKey, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set(apiKeyHeader, apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errTransient, sanitizeSensitiveText(err.Error(), apiKey))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errTransient, resp.StatusCode, abbreviateBody(raw))
			} else {
				return nil, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "api-football request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func mapFixtureItem(item fixtureItem) fixture.Fixture {
	out := fixture.Fixture{
		ID:         item.Fixture.ID,
		LeagueID:   item.League.ID,
		LeagueName: strings.TrimSpace(item.League.Name),
		Season:     item.League.Season,
		Round:      strings.TrimSpace(item.League.Round),
		Venue:      strings.TrimSpace(item.Fixture.Venue.Name),
		Home: fixture.Team{
			ID:   item.Teams.Home.ID,
			Name: strings.TrimSpace(item.Teams.Home.Name),
			Logo: strings.TrimSpace(item.Teams.Home.Logo),
		},
		Away: fixture.Team{
			ID:   item.Teams.Away.ID,
			Name: strings.TrimSpace(item.Teams.Away.Name),
			Logo: strings.TrimSpace(item.Teams.Away.Logo),
		},
		HomeGoals: item.Goals.Home,
		AwayGoals: item.Goals.Away,
		Status:    fixture.NormalizeStatus(item.Fixture.Status.Short),
		Elapsed:   item.Fixture.Status.Elapsed,
	}
	if parsed := parseProviderDateTime(item.Fixture.Date); parsed != nil {
		out.KickoffAt = *parsed
	}
	return out
}

func parseProviderDateTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05-07:00", "2006-01-02 15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			utc := parsed.UTC()
			return &utc
		}
	}
	return nil
}

func sanitizeSensitiveText(value, apiKey string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if apiKey != "" {
		value = strings.ReplaceAll(value, apiKey, "REDACTED")
	}
	return value
}

// IsRejected reports whether err is a provider-logical rejection as
// opposed to a transport failure.
func IsRejected(err error) bool {
	return err != nil && stderrors.Is(err, ErrRejected)
}

func isCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
