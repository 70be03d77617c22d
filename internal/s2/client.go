// Package s2 is a rate-limited client for the Semantic Scholar Graph
// API, the secondary citation provider.
package s2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the Semantic Scholar API base URL.
	BaseURL = "https://api.semanticscholar.org"

	// graphPath is the Graph API prefix under the base URL.
	graphPath = "/graph/v1"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 10 * time.Second

	// RateLimit is 1 request per second, the unauthenticated tier.
	// Keyed clients may raise it via WithRateLimit.
	RateLimit = 1.0

	// DefaultCitationsLimit bounds how many citing papers one lookup
	// returns.
	DefaultCitationsLimit = 10

	// paperFields are the fields requested for paper and citation lookups.
	paperFields = "title,externalIds,publicationDate,year"
)

// Paper is a Semantic Scholar paper as returned by the Graph API.
type Paper struct {
	PaperID         string      `json:"paperId"`
	Title           string      `json:"title"`
	ExternalIDs     ExternalIDs `json:"externalIds"`
	PublicationDate string      `json:"publicationDate"`
	Year            int         `json:"year"`
}

// ExternalIDs carries the subset of external identifiers used here.
type ExternalIDs struct {
	DOI string `json:"DOI"`
}

// citationsResponse is the envelope of the citations endpoint.
type citationsResponse struct {
	Data []struct {
		CitingPaper Paper `json:"citingPaper"`
	} `json:"data"`
}

// searchResponse is the envelope of the paper search endpoint.
type searchResponse struct {
	Total int     `json:"total"`
	Data  []Paper `json:"data"`
}

// Client is a rate-limited HTTP client for the Semantic Scholar API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	baseURL    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the API key for authenticated requests.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
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

// NewClient creates a new Semantic Scholar API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
	}

	if key := os.Getenv("S2_API_KEY"); key != "" {
		c.apiKey = key
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

// get performs one rate-limited GET against the Graph API.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + graphPath + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

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

// PaperByDOI fetches a paper by DOI.
func (c *Client) PaperByDOI(ctx context.Context, doi string) (*Paper, error) {
	query := url.Values{}
	query.Set("fields", paperFields)

	body, err := c.get(ctx, "/paper/DOI:"+doi, query)
	if err != nil {
		return nil, err
	}

	var paper Paper
	if err := json.Unmarshal(body, &paper); err != nil {
		return nil, fmt.Errorf("%w: parsing paper: %v", ErrInvalidResponse, err)
	}
	if paper.PaperID == "" {
		return nil, ErrNotFound
	}
	return &paper, nil
}

// SearchPaper finds the best-matching paper for a title.
func (c *Client) SearchPaper(ctx context.Context, title string) (*Paper, error) {
	query := url.Values{}
	query.Set("query", title)
	query.Set("limit", "1")
	query.Set("fields", paperFields)

	body, err := c.get(ctx, "/paper/search", query)
	if err != nil {
		return nil, err
	}

	var results searchResponse
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("%w: parsing search results: %v", ErrInvalidResponse, err)
	}
	if len(results.Data) == 0 {
		return nil, ErrNotFound
	}
	return &results.Data[0], nil
}

// Citations fetches up to limit papers citing the given paper.
func (c *Client) Citations(ctx context.Context, paperID string, limit int) ([]Paper, error) {
	if limit <= 0 {
		limit = DefaultCitationsLimit
	}

	query := url.Values{}
	query.Set("fields", paperFields)
	query.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, "/paper/"+paperID+"/citations", query)
	if err != nil {
		return nil, err
	}

	var citations citationsResponse
	if err := json.Unmarshal(body, &citations); err != nil {
		return nil, fmt.Errorf("%w: parsing citations: %v", ErrInvalidResponse, err)
	}

	papers := make([]Paper, len(citations.Data))
	for i, entry := range citations.Data {
		papers[i] = entry.CitingPaper
	}
	return papers, nil
}
