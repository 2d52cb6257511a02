// Package github fetches repository metadata and a bounded slice of
// repository contents from the GitHub REST API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"
	"go.uber.org/zap"

	"github.com/sakif/repo-explainer/internal/apperror"
)

// DefaultBudget is the content budget in bytes when none is configured.
const DefaultBudget = 5000

// ErrRepoNotFound is returned for missing and private repositories alike;
// GitHub answers 404 for both.
var ErrRepoNotFound = apperror.NotFoundMessage("Repository not found or it's private.")

type Options struct {
	// Token authenticates API calls when set; anonymous otherwise.
	Token string
	// BaseURL overrides https://api.github.com/ (tests, GHES).
	BaseURL string
	// Budget caps RepoContents.Text in bytes. Zero means DefaultBudget.
	Budget int
	// DownloadTimeout bounds each raw file download.
	DownloadTimeout time.Duration
}

// Client wraps the go-github client with rate-limit waiting.
type Client struct {
	gh       *github.Client
	download *http.Client
	budget   int
	logger   *zap.Logger
}

func NewClient(opts Options, logger *zap.Logger) (*Client, error) {
	// Waits out primary and secondary rate limits instead of failing.
	rl, err := github_ratelimit.NewRateLimitWaiterClient(nil)
	if err != nil {
		return nil, fmt.Errorf("github: creating rate limit client: %w", err)
	}

	gh := github.NewClient(rl)
	if opts.Token != "" {
		gh = gh.WithAuthToken(opts.Token)
	}
	if opts.BaseURL != "" {
		base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("github: parsing base URL: %w", err)
		}
		gh.BaseURL = base
	}

	budget := opts.Budget
	if budget <= 0 {
		budget = DefaultBudget
	}
	timeout := opts.DownloadTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		gh:       gh,
		download: &http.Client{Timeout: timeout},
		budget:   budget,
		logger:   logger,
	}, nil
}

// Budget reports the configured content budget in bytes.
func (c *Client) Budget() int { return c.budget }

// classify turns a go-github error into the application's taxonomy.
func classify(ctx context.Context, resp *github.Response, err error, what string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("github: %s: %w", what, ctxErr)
	}
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return ErrRepoNotFound
	}
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return fmt.Errorf("github: %s: %w", what,
			apperror.Upstream("GitHub", fmt.Sprintf("%d %s", ghErr.Response.StatusCode, ghErr.Message)))
	}
	return fmt.Errorf("github: %s: %w", what, apperror.Upstream("GitHub", err.Error()))
}
