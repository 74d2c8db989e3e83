// Package analytics reports question and test results to the remote
// analytics backend. Reporting is best effort: failures are logged and
// counted, never returned.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/raflytch/mockprep-server/internal/domain"
	"github.com/raflytch/mockprep-server/internal/metrics"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	questionResultsPath = "/analytics/question-results"
	testResultsPath     = "/analytics/test-results"
)

type tokenSourceKey struct{}

// WithToken attaches the caller's bearer token to ctx.
func WithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return WithTokenSource(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
}

func WithTokenSource(ctx context.Context, ts oauth2.TokenSource) context.Context {
	return context.WithValue(ctx, tokenSourceKey{}, ts)
}

func TokenSourceFrom(ctx context.Context) oauth2.TokenSource {
	ts, _ := ctx.Value(tokenSourceKey{}).(oauth2.TokenSource)
	return ts
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	http    *http.Client
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func NewClient(cfg Config, m *metrics.Metrics, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		metrics: m,
		log:     log.With().Str("component", "analytics").Logger(),
	}
}

func (c *Client) ReportQuestion(ctx context.Context, report domain.QuestionResultReport) {
	c.post(ctx, "question", questionResultsPath, report)
}

func (c *Client) ReportTestSummary(ctx context.Context, report domain.TestResultReport) {
	c.post(ctx, "test", testResultsPath, report)
}

func (c *Client) post(ctx context.Context, kind, path string, body any) {
	if c.baseURL == "" {
		c.metrics.AnalyticsReport(kind, "skipped")
		return
	}

	ts := TokenSourceFrom(ctx)
	if ts == nil {
		c.metrics.AnalyticsReport(kind, "skipped")
		return
	}
	token, err := ts.Token()
	if err != nil || token == nil || token.AccessToken == "" {
		c.metrics.AnalyticsReport(kind, "skipped")
		return
	}

	if err := c.send(ctx, path, token, body); err != nil {
		c.log.Warn().Err(err).Str("kind", kind).Msg("analytics report failed")
		c.metrics.AnalyticsReport(kind, "error")
		return
	}
	c.metrics.AnalyticsReport(kind, "success")
}

func (c *Client) send(ctx context.Context, path string, token *oauth2.Token, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	token.SetAuthHeader(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("analytics backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
