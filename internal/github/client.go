package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// requestTimeout caps any single API request.
const requestTimeout = 30 * time.Second

var (
	// ErrInvalidRepoURL means the repository URL could not be parsed into
	// an owner/name pair.
	ErrInvalidRepoURL = errors.New("invalid repository URL")
	// ErrRepoUnreachable means the repository does not exist or is not
	// visible with the current credentials.
	ErrRepoUnreachable = errors.New("repository unreachable")
	// ErrAuthRejected means GitHub rejected the configured token.
	ErrAuthRejected = errors.New("authentication rejected")
)

// Client wraps the GitHub API with lazy initialization and client-side
// rate limiting. The zero token is fine for public repositories, subject
// to GitHub's unauthenticated limits.
type Client struct {
	token   string
	mu      sync.Mutex
	client  *gh.Client
	limiter *rate.Limiter
}

func NewClient(token string) *Client {
	return &Client{
		token:   token,
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
}

func (c *Client) ensureClient(ctx context.Context) (*gh.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	httpClient := &http.Client{Timeout: requestTimeout}
	if c.token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token})
		httpClient = oauth2.NewClient(ctx, src)
		httpClient.Timeout = requestTimeout
	}
	c.client = gh.NewClient(httpClient)
	return c.client, nil
}

func (c *Client) wait(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

// classifyError maps GitHub API errors onto the package sentinels so
// callers can branch with errors.Is.
func classifyError(err error) error {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrAuthRejected, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrRepoUnreachable, err)
		}
	}
	return err
}

// ParseRepoURL extracts the owner and repository name from a GitHub URL
// such as https://github.com/owner/repo or git@github.com:owner/repo.git.
func ParseRepoURL(repoURL string) (owner, name string, err error) {
	s := strings.TrimSpace(repoURL)
	s = strings.TrimSuffix(s, "/")
	s = strings.TrimSuffix(s, ".git")

	if idx := strings.Index(s, "github.com"); idx >= 0 {
		s = s[idx+len("github.com"):]
		s = strings.TrimPrefix(s, ":")
		s = strings.TrimPrefix(s, "/")
	} else {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidRepoURL, repoURL)
	}

	parts := strings.Split(s, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidRepoURL, repoURL)
	}
	return parts[0], parts[1], nil
}
