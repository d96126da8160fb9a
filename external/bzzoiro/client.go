// Package bzzoiro reads the free live-score feed. The feed costs no
// quota and is polled on every live refresh, so the client is built on
// fasthttp and treats every answer as best effort: identities are
// free-text team names and field names drift between deployments.
package bzzoiro

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"github.com/riskibarqy/pitchwatch/internal/platform/logging"
	"github.com/riskibarqy/pitchwatch/internal/platform/resilience"
	"github.com/riskibarqy/pitchwatch/internal/usecase"
)

const (
	defaultBaseURL = "https://api.bzzoiro.com"
	livePath       = "/v1/live/"
)

var errBzzoiroTransient = crerr.New("bzzoiro transient failure")

type ClientConfig struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	client         *fasthttp.Client
	baseURL        string
	apiKey         string
	timeout        time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		client: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		timeout:        timeout,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// LiveNow fetches everything the feed currently reports as in play.
// Scores and minute are nil when the feed omits them.
func (c *Client) LiveNow(ctx context.Context) ([]usecase.LiveMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "bzzoiro circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("live feed is temporarily unavailable: %w", err)
		}
	}

	fullURL := c.baseURL + livePath
	raw, err := c.fetch(ctx, fullURL)
	c.recordCircuitResult(err)
	if err != nil {
		c.logger.WarnContext(ctx, "bzzoiro request failed", "url", fullURL, "curl_preview", buildCurlPreview(fullURL), "error", err)
		return nil, err
	}

	var envelope struct {
		Results []map[string]any `json:"results"`
	}
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode live feed payload: %w", err)
	}

	out := make([]usecase.LiveMatch, 0, len(envelope.Results))
	for _, item := range envelope.Results {
		match := usecase.LiveMatch{
			HomeName:  firstString(item, "home_name", "home_team", "home"),
			AwayName:  firstString(item, "away_name", "away_team", "away"),
			HomeScore: firstInt(item, "home_score", "score_home"),
			AwayScore: firstInt(item, "away_score", "score_away"),
			RawStatus: firstString(item, "status", "state"),
			Elapsed:   firstInt(item, "current_minute", "elapsed", "minute"),
		}
		if match.HomeName == "" || match.AwayName == "" {
			continue
		}
		out = append(out, match)
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, fullURL string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Token "+c.apiKey)
	}

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("%w: send request: %s", errBzzoiroTransient, sanitizeSensitiveText(err.Error(), c.apiKey))
	}

	status := resp.StatusCode()
	if status/100 != 2 {
		body := strings.TrimSpace(string(resp.Body()))
		if len(body) > 240 {
			body = body[:240] + "..."
		}
		if isRetryableStatus(status) {
			return nil, fmt.Errorf("%w: feed status=%d body=%s", errBzzoiroTransient, status, body)
		}
		return nil, fmt.Errorf("feed status=%d body=%s", status, body)
	}

	// The response body is pooled with the fasthttp response; copy it
	// out before release.
	return append([]byte(nil), resp.Body()...), nil
}

func (c *Client) recordCircuitResult(err error) {
	if !c.circuitEnabled || c.breaker == nil {
		return
	}
	if err != nil && stderrors.Is(err, errBzzoiroTransient) {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

func buildCurlPreview(fullURL string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("curl -X GET ")
	_, _ = buf.WriteString(shellQuote(fullURL))
	_, _ = buf.WriteString(" -H ")
	_, _ = buf.WriteString(shellQuote("Authorization: Token ***"))
	_, _ = buf.WriteString(" -H ")
	_, _ = buf.WriteString(shellQuote("Accept: application/json"))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func sanitizeSensitiveText(value, apiKey string) string {
	value = strings.TrimSpace(value)
	if value == "" || apiKey == "" {
		return value
	}
	return strings.ReplaceAll(value, apiKey, "REDACTED")
}

func isRetryableStatus(code int) bool {
	return code == fasthttp.StatusRequestTimeout ||
		code == fasthttp.StatusTooManyRequests ||
		code >= fasthttp.StatusInternalServerError
}

func firstString(item map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := item[key].(string); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func firstInt(item map[string]any, keys ...string) *int {
	for _, key := range keys {
		switch value := item[key].(type) {
		case float64:
			out := int(value)
			return &out
		case int:
			out := value
			return &out
		case string:
			trimmed := strings.TrimSpace(value)
			if trimmed == "" {
				continue
			}
			var out int
			if _, err := fmt.Sscanf(trimmed, "%d", &out); err == nil {
				return &out
			}
		}
	}
	return nil
}
