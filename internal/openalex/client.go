// Package openalex is a rate-limited client for the OpenAlex works API,
// the primary citation provider.
package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the OpenAlex API base URL.
	BaseURL = "https://api.openalex.org"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 10 * time.Second

	// RateLimit is 10 requests per second per OpenAlex documentation.
	RateLimit = 10.0

	// DefaultCitationsLimit bounds how many citing works one lookup
	// returns.
	DefaultCitationsLimit = 10
)

// Work is an OpenAlex work as returned by the works endpoints.
type Work struct {
	ID              string `json:"id"`
	DOI             string `json:"doi"`
	Title           string `json:"title"`
	DisplayName     string `json:"display_name"`
	PublicationDate string `json:"publication_date"`
	CitedByCount    int    `json:"cited_by_count"`
}

// listResponse is the envelope of the works list endpoint.
type listResponse struct {
	Results []Work `json:"results"`
	Meta    struct {
		Count int `json:"count"`
	} `json:"meta"`
}

// Client is a rate-limited HTTP client for the OpenAlex API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	mailto     string
	baseURL    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithMailto sets the mailto parameter for the OpenAlex polite pool.
func WithMailto(mailto string) ClientOption {
	return func(c *Client) {
		c.mailto = mailto
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithRateLimit overrides the requests-per-second limit.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// NewClient creates a new OpenAlex API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
	}

	// The polite pool gets faster, more consistent response times.
	if mailto := os.Getenv("OPENALEX_MAILTO"); mailto != "" {
		c.mailto = mailto
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response) error {
	switch {
	case resp.StatusCode == 401 || resp.StatusCode == 403:
		return fmt.Errorf("%w: status %d", ErrAuthError, resp.StatusCode)
	case resp.StatusCode == 404:
		return ErrNotFound
	case resp.StatusCode == 429:
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode >= 400:
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}
	return nil
}

// get performs one rate-limited GET against the API and returns the body.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	if c.mailto != "" {
		if query == nil {
			query = url.Values{}
		}
		query.Set("mailto", c.mailto)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrNetworkError, err)
	}
	return body, nil
}

// WorkByDOI fetches a work by DOI. A direct lookup is tried first; on a
// 404 the works filter is queried as a fallback, since some registered
// DOIs only resolve through it.
func (c *Client) WorkByDOI(ctx context.Context, doi string) (*Work, error) {
	body, err := c.get(ctx, "/works/doi:"+doi, nil)
	if err == nil {
		var work Work
		if err := json.Unmarshal(body, &work); err != nil {
			return nil, fmt.Errorf("%w: parsing work: %v", ErrInvalidResponse, err)
		}
		return &work, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}

	query := url.Values{}
	query.Set("filter", "doi:"+doi)
	query.Set("per-page", "1")
	return c.firstResult(ctx, query)
}

// SearchWork finds the best-matching work for a title.
func (c *Client) SearchWork(ctx context.Context, title string) (*Work, error) {
	query := url.Values{}
	query.Set("search", title)
	query.Set("per-page", "1")
	return c.firstResult(ctx, query)
}

// firstResult queries the works list endpoint and returns the first hit.
func (c *Client) firstResult(ctx context.Context, query url.Values) (*Work, error) {
	body, err := c.get(ctx, "/works", query)
	if err != nil {
		return nil, err
	}

	var list listResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("%w: parsing works list: %v", ErrInvalidResponse, err)
	}
	if len(list.Results) == 0 {
		return nil, ErrNotFound
	}
	return &list.Results[0], nil
}

// Citations fetches up to limit works citing the given work.
func (c *Client) Citations(ctx context.Context, workID string, limit int) ([]Work, error) {
	if limit <= 0 {
		limit = DefaultCitationsLimit
	}

	query := url.Values{}
	query.Set("filter", "cites:"+shortWorkID(workID))
	query.Set("per-page", strconv.Itoa(limit))

	body, err := c.get(ctx, "/works", query)
	if err != nil {
		return nil, err
	}

	var list listResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("%w: parsing citing works: %v", ErrInvalidResponse, err)
	}
	return list.Results, nil
}

// shortWorkID reduces a full OpenAlex ID URL to the W-prefixed short
// form the cites filter expects.
func shortWorkID(id string) string {
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}
