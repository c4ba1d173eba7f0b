// Package angelco provides a rate-limited client for the angel.co v1 API.
package angelco

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/citystats/internal/ratelimit"
)

// DefaultRequestsPerSecond matches the documented ceiling of 2000 requests
// per hour per token.
const DefaultRequestsPerSecond = 0.5

// Client defines the angel.co operations used by the report.
type Client interface {
	// StartupCount returns the number of startups tagged with tagID.
	StartupCount(ctx context.Context, tagID int) (int, error)
	// InvestorCount returns the number of investors resident in tagID.
	InvestorCount(ctx context.Context, tagID int) (int, error)
	// DumpAllStartups persists every startup page for tagID, and the founders
	// of every startup listed, and returns the total startup count.
	DumpAllStartups(ctx context.Context, tagID int) (int, error)
	// DumpFounders persists the founder roles of one startup.
	DumpFounders(ctx context.Context, startupID int) error
	// DumpAllInvestors persists every investor page for tagID and returns the
	// total investor count.
	DumpAllInvestors(ctx context.Context, tagID int) (int, error)
}

// Option configures the angel.co client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
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
	token   string
	dataDir string
	baseURL string
	http    *http.Client
	limiter *ratelimit.Limiter
}

// NewClient creates a new angel.co client. Dumps are written below dataDir.
func NewClient(token, dataDir string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		dataDir: dataDir,
		baseURL: "https://api.angel.co/1/",
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: ratelimit.New(DefaultRequestsPerSecond),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// page is the subset of a paginated response the client depends on. Pointer
// fields distinguish a missing field from a zero value.
type page struct {
	Total    *int            `json:"total"`
	LastPage *int            `json:"last_page"`
	Startups *[]startupEntry `json:"startups"`
}

type startupEntry struct {
	ID *int `json:"id"`
}

// get performs a rate-limited GET of path relative to the base URL and
// returns the raw body.
func (c *httpClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return nil, eris.Wrapf(err, "angelco: build url for %s", path)
	}
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var body []byte
	err = c.limiter.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return eris.Wrap(err, "angelco: create request")
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.http.Do(req)
		if err != nil {
			return eris.Wrapf(err, "angelco: GET %s", path)
		}
		defer resp.Body.Close() //nolint:errcheck

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return eris.Wrap(err, "angelco: read response")
		}
		if resp.StatusCode != http.StatusOK {
			return eris.Errorf("angelco: GET %s returned %d: %s", path, resp.StatusCode, truncate(string(body), 200))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *httpClient) getPage(ctx context.Context, path string, params url.Values) (*page, []byte, error) {
	body, err := c.get(ctx, path, params)
	if err != nil {
		return nil, nil, err
	}
	var p page
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, nil, eris.Wrapf(err, "angelco: decode %s", path)
	}
	return &p, body, nil
}

func (c *httpClient) total(ctx context.Context, path string, params url.Values) (int, error) {
	p, _, err := c.getPage(ctx, path, params)
	if err != nil {
		return 0, err
	}
	if p.Total == nil {
		return 0, eris.Errorf("angelco: %s response missing \"total\"", path)
	}
	return *p.Total, nil
}

func startupsPath(tagID int) string { return fmt.Sprintf("tags/%d/startups", tagID) }

func usersPath(tagID int) string { return fmt.Sprintf("tags/%d/users", tagID) }

func investorParams() url.Values {
	return url.Values{"investors": {"by_residence"}}
}

// StartupCount implements Client. API doc: https://angel.co/api/spec/startups
func (c *httpClient) StartupCount(ctx context.Context, tagID int) (int, error) {
	return c.total(ctx, startupsPath(tagID), nil)
}

// InvestorCount implements Client. API doc: https://angel.co/api/spec/users
func (c *httpClient) InvestorCount(ctx context.Context, tagID int) (int, error) {
	return c.total(ctx, usersPath(tagID), investorParams())
}

// DumpAllStartups implements Client. Pages are written to
// <dataDir>/cities/<tag>/startup<page>.json and pagination stops once
// last_page <= page. The returned total comes from a separate request without
// a page parameter, issued after the first page.
func (c *httpClient) DumpAllStartups(ctx context.Context, tagID int) (int, error) {
	log := zap.L().With(zap.String("component", "angelco.dump_startups"), zap.Int("tag_id", tagID))
	path := startupsPath(tagID)

	total := -1
	for pageNum := 1; ; pageNum++ {
		p, raw, err := c.getPage(ctx, path, url.Values{"page": {strconv.Itoa(pageNum)}})
		if err != nil {
			return 0, err
		}
		if total < 0 {
			if total, err = c.StartupCount(ctx, tagID); err != nil {
				return 0, err
			}
		}

		filename := filepath.Join(c.dataDir, "cities", strconv.Itoa(tagID), fmt.Sprintf("startup%d.json", pageNum))
		if err := writeFile(filename, raw); err != nil {
			return 0, err
		}

		if p.Startups == nil {
			return 0, eris.Errorf("angelco: %s page %d missing \"startups\"", path, pageNum)
		}
		for _, s := range *p.Startups {
			if s.ID == nil {
				return 0, eris.Errorf("angelco: %s page %d has startup without \"id\"", path, pageNum)
			}
			log.Debug("dumping founders", zap.Int("startup_id", *s.ID))
			if err := c.DumpFounders(ctx, *s.ID); err != nil {
				return 0, err
			}
		}

		if p.LastPage == nil {
			return 0, eris.Errorf("angelco: %s page %d missing \"last_page\"", path, pageNum)
		}
		log.Info("dumped startup page",
			zap.Int("page", pageNum),
			zap.Int("last_page", *p.LastPage),
			zap.String("file", filename),
		)
		if *p.LastPage <= pageNum {
			return total, nil
		}
	}
}

// DumpFounders implements Client. API doc: https://angel.co/api/spec/startup_roles
func (c *httpClient) DumpFounders(ctx context.Context, startupID int) error {
	params := url.Values{
		"v":          {"1"},
		"role":       {"founder"},
		"startup_id": {strconv.Itoa(startupID)},
	}
	body, err := c.get(ctx, "startup_roles", params)
	if err != nil {
		return err
	}
	if !json.Valid(body) {
		return eris.Errorf("angelco: startup_roles for %d returned invalid JSON", startupID)
	}
	return writeFile(filepath.Join(c.dataDir, "startups", fmt.Sprintf("%d_founders.json", startupID)), body)
}

// DumpAllInvestors implements Client. Pages are written to
// <dataDir>/investors/<tag>/<page>.json.
func (c *httpClient) DumpAllInvestors(ctx context.Context, tagID int) (int, error) {
	log := zap.L().With(zap.String("component", "angelco.dump_investors"), zap.Int("tag_id", tagID))
	path := usersPath(tagID)

	total := -1
	for pageNum := 1; ; pageNum++ {
		params := investorParams()
		params.Set("page", strconv.Itoa(pageNum))
		p, raw, err := c.getPage(ctx, path, params)
		if err != nil {
			return 0, err
		}
		if total < 0 {
			if total, err = c.InvestorCount(ctx, tagID); err != nil {
				return 0, err
			}
		}

		filename := filepath.Join(c.dataDir, "investors", strconv.Itoa(tagID), fmt.Sprintf("%d.json", pageNum))
		if err := writeFile(filename, raw); err != nil {
			return 0, err
		}

		if p.LastPage == nil {
			return 0, eris.Errorf("angelco: %s page %d missing \"last_page\"", path, pageNum)
		}
		log.Info("dumped investor page",
			zap.Int("page", pageNum),
			zap.Int("last_page", *p.LastPage),
			zap.String("file", filename),
		)
		if *p.LastPage <= pageNum {
			return total, nil
		}
	}
}

// writeFile writes data to filename, creating its directory on first use.
func writeFile(filename string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return eris.Wrapf(err, "angelco: create dir for %s", filename)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return eris.Wrapf(err, "angelco: write %s", filename)
	}
	return nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
