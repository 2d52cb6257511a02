package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/repo-explainer/internal/apperror"
	"github.com/sakif/repo-explainer/internal/github"
	"github.com/sakif/repo-explainer/internal/model"
	"github.com/sakif/repo-explainer/internal/repository"
)

// RepoFetcher reads a repository from GitHub.
type RepoFetcher interface {
	FetchMetadata(ctx context.Context, ref model.RepoRef) (*model.RepoMetadata, error)
	FetchContents(ctx context.Context, ref model.RepoRef) (*model.RepoContents, error)
}

// ExplanationGenerator turns repository text into markdown.
type ExplanationGenerator interface {
	Generate(ctx context.Context, contents string) (*model.Explanation, error)
}

var _ RepoFetcher = (*github.Client)(nil)

// ErrTimedOut is returned when an explain call outlives its deadline.
var ErrTimedOut = apperror.Timeout("Request timed out while explaining the repository.")

// historySaveTimeout bounds the best-effort save after a response is ready.
const historySaveTimeout = 5 * time.Second

type ExplainResult struct {
	Ref         model.RepoRef
	RepoURL     string // canonical https://github.com/<owner>/<repo>
	Explanation model.Explanation
	Metadata    model.RepoMetadata
	Contents    *model.RepoContents
	// Saved reports whether the result was written to the caller's history.
	Saved bool
}

// ExplainService runs parse → fetch → generate → save.
type ExplainService struct {
	fetcher   RepoFetcher
	generator ExplanationGenerator
	history   repository.HistoryRepository
	timeout   time.Duration
	logger    *zap.Logger
}

// NewExplainService wires the pipeline. history may be nil, in which case
// nothing is saved. A zero timeout disables the deadline.
func NewExplainService(
	fetcher RepoFetcher,
	generator ExplanationGenerator,
	history repository.HistoryRepository,
	timeout time.Duration,
	logger *zap.Logger,
) *ExplainService {
	return &ExplainService{
		fetcher:   fetcher,
		generator: generator,
		history:   history,
		timeout:   timeout,
		logger:    logger,
	}
}

// Explain produces an explanation for repoURL. owner is the caller's
// history key; when non-empty a successful explanation is saved to their
// history. Save failures are logged and never fail the call.
func (s *ExplainService) Explain(ctx context.Context, repoURL, owner string) (*ExplainResult, error) {
	repoURL = strings.TrimSpace(repoURL)
	if repoURL == "" {
		return nil, apperror.ValidationFailed("repoUrl", "Repo URL is required")
	}
	ref, ok := github.ParseRepoURL(repoURL)
	if !ok {
		return nil, apperror.ValidationFailed("repoUrl", "Invalid GitHub URL")
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	// === Fetch metadata and contents concurrently ===
	var (
		meta              *model.RepoMetadata
		contents          *model.RepoContents
		metaErr, fetchErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		meta, metaErr = s.fetcher.FetchMetadata(gctx, ref)
		return metaErr
	})
	g.Go(func() error {
		contents, fetchErr = s.fetcher.FetchContents(gctx, ref)
		return fetchErr
	})
	_ = g.Wait()

	if err := s.fetchFailure(ctx, metaErr, fetchErr); err != nil {
		return nil, err
	}

	s.logger.Debug("repository fetched",
		zap.String("owner", ref.Owner),
		zap.String("repo", ref.Repo),
		zap.Int("bytes", len(contents.Text)),
		zap.Int("files", len(contents.Files)),
		zap.Int("skipped", len(contents.Skipped)),
	)

	// === Generate ===
	exp, err := s.generator.Generate(ctx, contents.Text)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimedOut
		}
		return nil, fmt.Errorf("service/explain: generating for %s/%s: %w", ref.Owner, ref.Repo, err)
	}

	result := &ExplainResult{
		Ref:         ref,
		RepoURL:     fmt.Sprintf("https://github.com/%s/%s", ref.Owner, ref.Repo),
		Explanation: *exp,
		Metadata:    *meta,
		Contents:    contents,
	}

	if owner != "" && exp.Available && s.history != nil {
		result.Saved = s.save(ctx, owner, result)
	}
	return result, nil
}

// fetchFailure picks the error to report. The metadata failure wins so a
// missing repository reads as not-found; a sibling's cancellation is never
// reported over the failure that caused it.
func (s *ExplainService) fetchFailure(ctx context.Context, metaErr, fetchErr error) error {
	if metaErr == nil && fetchErr == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimedOut
	}
	for _, err := range []error{metaErr, fetchErr} {
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("service/explain: %w", err)
		}
	}
	if metaErr != nil {
		return fmt.Errorf("service/explain: %w", metaErr)
	}
	return fmt.Errorf("service/explain: %w", fetchErr)
}

func (s *ExplainService) save(ctx context.Context, owner string, r *ExplainResult) bool {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historySaveTimeout)
	defer cancel()

	entry := &model.SearchHistoryEntry{
		UserID:      owner,
		RepoURL:     r.RepoURL,
		RepoName:    r.Ref.Repo,
		RepoOwner:   r.Ref.Owner,
		Explanation: r.Explanation.Text,
		Metadata:    r.Metadata,
	}
	if err := s.history.Upsert(ctx, entry); err != nil {
		s.logger.Warn("saving search history failed",
			zap.String("repoUrl", r.RepoURL),
			zap.Error(err),
		)
		return false
	}
	return true
}
