// Package ghstats collects repository and issue statistics for a
// GitHub organization.
package ghstats

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

const (
	// DefaultTimeout is the HTTP request timeout.
	DefaultTimeout = 30 * time.Second
	// MaxIssueRepos caps how many repositories the issue scan covers,
	// most recently updated first.
	MaxIssueRepos = 25

	// EnvToken and EnvFallbackToken are checked in order for the API
	// token.
	EnvToken         = "GITHUB_PUBLIC_REPO_TOKEN"
	EnvFallbackToken = "GITHUB_TOKEN"
)

// RepoStats sums community metrics over an organization's public
// repositories created up to a cutoff.
type RepoStats struct {
	Repos      int `json:"repos"`
	TotalForks int `json:"total_forks"`
	TotalStars int `json:"total_stars"`
}

// IssueStats summarizes closed-issue resolution up to a cutoff.
type IssueStats struct {
	ClosedIssues int     `json:"closed_issues"`
	MedianDays   float64 `json:"median_days_to_close"`
}

// Client wraps the GitHub API for organization statistics.
type Client struct {
	gh *gh.Client
}

// TokenFromEnv returns the configured API token, or empty for
// unauthenticated access.
func TokenFromEnv() string {
	if t := os.Getenv(EnvToken); t != "" {
		return t
	}
	return os.Getenv(EnvFallbackToken)
}

// NewClient builds a client. An empty token means unauthenticated
// access with GitHub's lower rate limits.
func NewClient(ctx context.Context, token string) *Client {
	if token == "" {
		return &Client{gh: gh.NewClient(&http.Client{Timeout: DefaultTimeout})}
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = DefaultTimeout
	return &Client{gh: gh.NewClient(tc)}
}

// NewClientWithHTTP wires a custom HTTP client and API base URL.
func NewClientWithHTTP(hc *http.Client, baseURL string) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	c := gh.NewClient(hc)
	c.BaseURL = u
	return &Client{gh: c}, nil
}

// IsRateLimited reports whether err carries a GitHub rate limit
// rejection. The error itself holds the reset time.
func IsRateLimited(err error) bool {
	var rl *gh.RateLimitError
	return errors.As(err, &rl)
}

// PublicRepos lists every public repository of the organization.
func (c *Client) PublicRepos(ctx context.Context, org string) ([]*gh.Repository, error) {
	opts := &gh.RepositoryListByOrgOptions{
		Type:        "public",
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var all []*gh.Repository
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		repos, resp, err := c.gh.Repositories.ListByOrg(ctx, org, opts)
		if err != nil {
			return nil, fmt.Errorf("listing %s repositories: %w", org, err)
		}
		all = append(all, repos...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// CollectRepoStats sums forks and stars over public repositories
// created no later than midnight UTC of the cutoff date.
func (c *Client) CollectRepoStats(ctx context.Context, org string, cutoff time.Time) (RepoStats, error) {
	repos, err := c.PublicRepos(ctx, org)
	if err != nil {
		return RepoStats{}, err
	}
	return sumRepoStats(repos, cutoff), nil
}

func sumRepoStats(repos []*gh.Repository, cutoff time.Time) RepoStats {
	limit := midnightUTC(cutoff)
	var stats RepoStats
	for _, r := range repos {
		created := r.GetCreatedAt()
		if created.IsZero() || created.After(limit) {
			continue
		}
		stats.Repos++
		stats.TotalForks += r.GetForksCount()
		stats.TotalStars += r.GetStargazersCount()
	}
	return stats
}

// CollectIssueStats reports closed-issue counts and the median days to
// close across the organization's most recently updated public
// repositories. Pull requests are excluded.
func (c *Client) CollectIssueStats(ctx context.Context, org string, cutoff time.Time) (IssueStats, error) {
	repos, err := c.PublicRepos(ctx, org)
	if err != nil {
		return IssueStats{}, err
	}

	sort.Slice(repos, func(i, j int) bool {
		return repos[i].GetUpdatedAt().Time.After(repos[j].GetUpdatedAt().Time)
	})
	if len(repos) > MaxIssueRepos {
		repos = repos[:MaxIssueRepos]
	}

	limit := midnightUTC(cutoff)
	var days []float64
	for _, r := range repos {
		issues, err := c.closedIssues(ctx, org, r.GetName())
		if err != nil {
			return IssueStats{}, err
		}
		for _, issue := range issues {
			if issue.IsPullRequest() {
				continue
			}
			closed := issue.GetClosedAt()
			if closed.IsZero() || closed.After(limit) {
				continue
			}
			opened := issue.GetCreatedAt()
			days = append(days, closed.Sub(opened.Time).Hours()/24)
		}
	}

	return IssueStats{
		ClosedIssues: len(days),
		MedianDays:   median(days),
	}, nil
}

func (c *Client) closedIssues(ctx context.Context, org, repo string) ([]*gh.Issue, error) {
	opts := &gh.IssueListByRepoOptions{
		State:       "closed",
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var all []*gh.Issue
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		issues, resp, err := c.gh.Issues.ListByRepo(ctx, org, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("listing %s/%s issues: %w", org, repo, err)
		}
		all = append(all, issues...)

		if resp.NextPage == 0 {
			break
		}
		opts.ListOptions.Page = resp.NextPage
	}
	return all, nil
}

// midnightUTC truncates a cutoff to 00:00:00 UTC of its calendar day,
// matching how the dashboard's date headers are interpreted.
func midnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// median returns the middle value of an unsorted sample, zero when the
// sample is empty.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
