// Package factual provides a rate-limited client for the Factual places API.
package factual

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/citystats/internal/ratelimit"
)

// DefaultRequestsPerSecond is the default request rate.
const DefaultRequestsPerSecond = 1.0

// Client defines the Factual operations used by the report.
type Client interface {
	// TotalCount returns the number of places rows matching filter.
	TotalCount(ctx context.Context, filter Filter) (int, error)
	// Rows returns the places rows matching filter.
	Rows(ctx context.Context, filter Filter) ([]json.RawMessage, error)
	// CategoryCount counts places in the city described by query whose
	// categories include any of ids.
	CategoryCount(ctx context.Context, query map[string]any, ids []int) (int, error)
	CollegeCount(ctx context.Context, query map[string]any) (int, error)
	IndustryCount(ctx context.Context, query map[string]any) (int, error)
	BankCount(ctx context.Context, query map[string]any) (int, error)
	ATMCount(ctx context.Context, query map[string]any) (int, error)
}

// Option configures the Factual client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client. It replaces the OAuth signing client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets the requests-per-second limit.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = ratelimit.New(rps)
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *ratelimit.Limiter
}

// NewClient creates a Factual client that signs requests with two-legged
// OAuth 1.0a using key and secret.
func NewClient(key, secret string, opts ...Option) Client {
	signer := oauth1.NewConfig(key, secret).Client(context.Background(), oauth1.NewToken("", ""))
	signer.Timeout = 30 * time.Second

	c := &httpClient{
		baseURL: "https://api.v3.factual.com",
		http:    signer,
		limiter: ratelimit.New(DefaultRequestsPerSecond),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type placesResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Response *struct {
		Data          []json.RawMessage `json:"data"`
		TotalRowCount *int              `json:"total_row_count"`
	} `json:"response"`
}

func (c *httpClient) query(ctx context.Context, filter Filter, includeCount bool) (*placesResponse, error) {
	filters, err := json.Marshal(filter)
	if err != nil {
		return nil, eris.Wrap(err, "factual: marshal filter")
	}
	params := url.Values{"filters": {string(filters)}}
	if includeCount {
		params.Set("include_count", "true")
	}
	u := strings.TrimRight(c.baseURL, "/") + "/t/places?" + params.Encode()

	var out placesResponse
	err = c.limiter.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return eris.Wrap(err, "factual: create request")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return eris.Wrap(err, "factual: query places")
		}
		defer resp.Body.Close() //nolint:errcheck

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return eris.Wrap(err, "factual: read response")
		}
		if resp.StatusCode != http.StatusOK {
			return eris.Errorf("factual: places returned %d: %s", resp.StatusCode, truncate(string(body), 200))
		}
		if err := json.Unmarshal(body, &out); err != nil {
			return eris.Wrap(err, "factual: decode response")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.Status != "ok" {
		return nil, eris.Errorf("factual: places status %q: %s", out.Status, out.Message)
	}
	if out.Response == nil {
		return nil, eris.New("factual: response missing \"response\"")
	}
	zap.L().Debug("factual query", zap.String("filters", string(filters)), zap.Int("rows", len(out.Response.Data)))
	return &out, nil
}

// TotalCount implements Client.
func (c *httpClient) TotalCount(ctx context.Context, filter Filter) (int, error) {
	out, err := c.query(ctx, filter, true)
	if err != nil {
		return 0, err
	}
	if out.Response.TotalRowCount == nil {
		return 0, eris.New("factual: response missing \"total_row_count\"")
	}
	return *out.Response.TotalRowCount, nil
}

// Rows implements Client.
func (c *httpClient) Rows(ctx context.Context, filter Filter) ([]json.RawMessage, error) {
	out, err := c.query(ctx, filter, false)
	if err != nil {
		return nil, err
	}
	return out.Response.Data, nil
}

// CategoryCount implements Client.
func (c *httpClient) CategoryCount(ctx context.Context, query map[string]any, ids []int) (int, error) {
	return c.TotalCount(ctx, CityFilter(query).WithCategories(ids))
}

// CollegeCount counts colleges and universities.
func (c *httpClient) CollegeCount(ctx context.Context, query map[string]any) (int, error) {
	return c.CategoryCount(ctx, query, []int{CategoryCollegesAndUniversities})
}

// IndustryCount counts places in any of IndustryCategories.
func (c *httpClient) IndustryCount(ctx context.Context, query map[string]any) (int, error) {
	return c.CategoryCount(ctx, query, IndustryCategories)
}

// BankCount counts banking and finance places.
func (c *httpClient) BankCount(ctx context.Context, query map[string]any) (int, error) {
	return c.CategoryCount(ctx, query, []int{CategoryBankingAndFinance})
}

// ATMCount counts ATMs.
func (c *httpClient) ATMCount(ctx context.Context, query map[string]any) (int, error) {
	return c.CategoryCount(ctx, query, []int{CategoryATMs})
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
