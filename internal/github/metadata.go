package github

import (
	"context"
	"time"

	"github.com/google/go-github/v81/github"
	"go.uber.org/zap"

	"github.com/sakif/repo-explainer/internal/model"
)

// FetchMetadata returns the repository's descriptive metadata. The latest
// commit date is looked up separately; when that lookup fails the date is
// left nil and the failure is only logged.
func (c *Client) FetchMetadata(ctx context.Context, ref model.RepoRef) (*model.RepoMetadata, error) {
	repo, resp, err := c.gh.Repositories.Get(ctx, ref.Owner, ref.Repo)
	if err != nil {
		return nil, classify(ctx, resp, err, "getting repository "+ref.Owner+"/"+ref.Repo)
	}

	meta := &model.RepoMetadata{
		Name:        repo.GetFullName(),
		Description: repo.Description,
		Stars:       repo.GetStargazersCount(),
		Forks:       repo.GetForksCount(),
		URL:         repo.GetHTMLURL(),
	}
	meta.LastCommitDate = c.lastCommitDate(ctx, ref)

	return meta, nil
}

func (c *Client) lastCommitDate(ctx context.Context, ref model.RepoRef) *time.Time {
	commits, _, err := c.gh.Repositories.ListCommits(ctx, ref.Owner, ref.Repo, &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		c.logger.Warn("last commit lookup failed",
			zap.String("owner", ref.Owner),
			zap.String("repo", ref.Repo),
			zap.Error(err),
		)
		return nil
	}
	if len(commits) == 0 {
		return nil
	}

	date := commits[0].GetCommit().GetCommitter().GetDate()
	if date.IsZero() {
		return nil
	}
	t := date.UTC()
	return &t
}
