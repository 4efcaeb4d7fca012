// Package release queries GitHub Releases for the go-ethereum repository,
// acting as the release index used to translate `latest` into a tag and a tag
// into the commit the release archives are named after.
package release

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	perPage  = 30
	maxPages = 3

	// upper bound for json and plain text api responses (10 MB)
	maxResponseBytes = 10 << 20
)

var (
	// ErrUnavailable wraps every failure to reach the index or get a usable answer from it.
	ErrUnavailable = errors.New("release index unavailable")
	// ErrReleaseNotFound is returned when the requested tag or release doesn't exist.
	ErrReleaseNotFound = errors.New("release not found")
)

// RateLimitError is returned when the GitHub API quota is exhausted.
type RateLimitError struct {
	Limit   int
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("github api rate limit of %d exceeded, resets at %s",
		e.Limit, e.ResetAt.UTC().Format("15:04 UTC"))
}

func (e *RateLimitError) Unwrap() error {
	return ErrUnavailable
}

// Release is the subset of a GitHub release needed to pick the latest version.
type Release struct {
	TagName    string `json:"tag_name"`
	Name       string `json:"name"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
	HTMLURL    string `json:"html_url"`
}

// GitHubClient talks to the GitHub REST api.
type GitHubClient struct {
	httpClient *http.Client
	baseURL    string
	owner      string
	repo       string
	token      string
	useragent  string
}

type ClientOption func(c *GitHubClient)

// WithHTTPClient sets a custom http client, e.g. one with a timeout or a proxy.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *GitHubClient) {
		c.httpClient = client
	}
}

// WithBaseURL overrides the api base url; mostly useful for test servers.
func WithBaseURL(base string) ClientOption {
	return func(c *GitHubClient) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithToken authenticates requests, raising the rate limit from 60 to 5000 requests per hour.
// On github actions the workflow GITHUB_TOKEN is enough.
func WithToken(token string) ClientOption {
	return func(c *GitHubClient) {
		c.token = token
	}
}

// WithRepo overrides the repository the releases are read from.
func WithRepo(owner, repo string) ClientOption {
	return func(c *GitHubClient) {
		c.owner = owner
		c.repo = repo
	}
}

// WithUserAgent sets the User-Agent header sent with each request.
func WithUserAgent(useragent string) ClientOption {
	return func(c *GitHubClient) {
		c.useragent = useragent
	}
}

// NewGitHubClient builds a client pointing at ethereum/go-ethereum on api.github.com.
func NewGitHubClient(opts ...ClientOption) *GitHubClient {
	client := GitHubClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://api.github.com",
		owner:      "ethereum",
		repo:       "go-ethereum",
		useragent:  "setup-geth",
	}

	for _, opt := range opts {
		opt(&client)
	}

	return &client
}

// LatestTag returns the tag of the most recent stable release.
// Drafts, pre-releases and tags that aren't valid semver are ignored.
func (c *GitHubClient) LatestTag(ctx context.Context) (string, error) {
	releases, err := c.ListReleases(ctx)
	if err != nil {
		return "", err
	}

	if len(releases) == 0 {
		return "", fmt.Errorf("%w: no stable releases in %s/%s", ErrReleaseNotFound, c.owner, c.repo)
	}

	return releases[0].TagName, nil
}

// ListReleases fetches stable releases sorted by semantic version, newest first.
// Pagination follows the Link header for at most a few pages; the api returns
// the newest releases first, so older pages don't matter for `latest`.
func (c *GitHubClient) ListReleases(ctx context.Context) ([]Release, error) {
	pageurl := fmt.Sprintf("%s/repos/%s/%s/releases?per_page=%d", c.baseURL, c.owner, c.repo, perPage)

	var stable []Release

	for page := 0; page < maxPages && pageurl != ""; page++ {
		resp, err := c.get(ctx, pageurl, "application/vnd.github+json")
		if err != nil {
			return nil, fmt.Errorf("listing releases: %w", err)
		}

		var releases []Release
		err = json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&releases)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: decoding releases: %s", ErrUnavailable, err)
		}

		for _, rel := range releases {
			if rel.Draft || rel.Prerelease || !semver.IsValid(rel.TagName) {
				continue
			}
			stable = append(stable, rel)
		}

		pageurl = nextPage(resp.Header.Get("Link"))
	}

	slices.SortStableFunc(stable, func(a, b Release) int {
		return semver.Compare(b.TagName, a.TagName)
	})

	return stable, nil
}

// CommitForTag returns the full sha of the commit the tag points at.
func (c *GitHubClient) CommitForTag(ctx context.Context, tag string) (string, error) {
	commiturl := fmt.Sprintf("%s/repos/%s/%s/commits/%s", c.baseURL, c.owner, c.repo, url.PathEscape(tag))

	resp, err := c.get(ctx, commiturl, "application/vnd.github.sha")
	if err != nil {
		return "", fmt.Errorf("resolving commit for %s: %w", tag, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: reading commit for %s: %s", ErrUnavailable, tag, err)
	}

	sha := strings.TrimSpace(string(body))
	if len(sha) < 8 {
		return "", fmt.Errorf("%w: unexpected commit sha %q for %s", ErrUnavailable, sha, tag)
	}

	return sha, nil
}

// get performs a request and checks status and rate limit headers.
// On success the caller owns the response body.
func (c *GitHubClient) get(ctx context.Context, requrl, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requrl, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", c.useragent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}

	if rlerr := rateLimited(resp); rlerr != nil {
		resp.Body.Close()
		return nil, rlerr
	}

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusUnprocessableEntity:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ErrReleaseNotFound)
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	return resp, nil
}

// rateLimited returns a RateLimitError when a request got rejected and the
// remaining quota reported by the response headers is zero.
// Missing or malformed headers are ignored.
func rateLimited(resp *http.Response) error {
	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusTooManyRequests {
		return nil
	}

	remaining, err := strconv.Atoi(resp.Header.Get("X-RateLimit-Remaining"))
	if err != nil || remaining > 0 {
		return nil
	}

	limit, _ := strconv.Atoi(resp.Header.Get("X-RateLimit-Limit"))
	reset, _ := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64)

	return &RateLimitError{
		Limit:   limit,
		ResetAt: time.Unix(reset, 0),
	}
}

// nextPage extracts the `next` url from a Link header.
//
//	<https://api.github.com/...?page=2>; rel="next", <...>; rel="last"
func nextPage(header string) string {
	for _, part := range strings.Split(header, ",") {
		if !strings.Contains(part, `rel="next"`) {
			continue
		}

		start, end := strings.Index(part, "<"), strings.Index(part, ">")
		if start >= 0 && end > start {
			return part[start+1 : end]
		}
	}
	return ""
}
