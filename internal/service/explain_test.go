package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sakif/repo-explainer/internal/apperror"
	"github.com/sakif/repo-explainer/internal/github"
	"github.com/sakif/repo-explainer/internal/llm"
	"github.com/sakif/repo-explainer/internal/model"
)

func sampleRepo() *fakeFetcher {
	desc := "A sample"
	return &fakeFetcher{
		meta: &model.RepoMetadata{
			Name:        "foo/bar",
			Description: &desc,
			Stars:       12,
			Forks:       3,
			URL:         "https://github.com/foo/bar",
		},
		contents: &model.RepoContents{
			Text:  "File: README.md\n# bar\n\n",
			Files: []string{"README.md"},
		},
	}
}

func explanation(text string) *fakeGenerator {
	return &fakeGenerator{result: &model.Explanation{Text: text, Available: true}}
}

func newExplain(f *fakeFetcher, g ExplanationGenerator, h *fakeHistoryRepo, timeout time.Duration) *ExplainService {
	if h == nil {
		return NewExplainService(f, g, nil, timeout, zap.NewNop())
	}
	return NewExplainService(f, g, h, timeout, zap.NewNop())
}

func TestExplain_Success(t *testing.T) {
	gen := explanation("## TL;DR\nIt does things.")
	svc := newExplain(sampleRepo(), gen, nil, 0)

	res, err := svc.Explain(context.Background(), "https://github.com/foo/bar", "")
	require.NoError(t, err)

	assert.Equal(t, model.RepoRef{Owner: "foo", Repo: "bar"}, res.Ref)
	assert.Equal(t, "https://github.com/foo/bar", res.RepoURL)
	assert.Equal(t, "## TL;DR\nIt does things.", res.Explanation.Text)
	assert.Equal(t, 12, res.Metadata.Stars)
	assert.Equal(t, "File: README.md\n# bar\n\n", gen.received)
	assert.False(t, res.Saved, "anonymous calls are never saved")
}

func TestExplain_Validation(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantMsg string
	}{
		{name: "empty", url: "", wantMsg: "Repo URL is required"},
		{name: "whitespace", url: "   ", wantMsg: "Repo URL is required"},
		{name: "not github", url: "https://gitlab.com/foo/bar", wantMsg: "Invalid GitHub URL"},
		{name: "owner only", url: "https://github.com/foo", wantMsg: "Invalid GitHub URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := explanation("x")
			svc := newExplain(sampleRepo(), gen, nil, 0)

			_, err := svc.Explain(context.Background(), tt.url, "")
			require.ErrorIs(t, err, apperror.ErrValidation)
			assert.Equal(t, tt.wantMsg, err.Error())
			assert.Zero(t, gen.calls)
		})
	}
}

func TestExplain_MissingRepoSkipsGenerator(t *testing.T) {
	f := sampleRepo()
	f.metaErr = github.ErrRepoNotFound
	f.contentsErr = github.ErrRepoNotFound
	gen := explanation("x")

	_, err := newExplain(f, gen, nil, 0).Explain(context.Background(), "github.com/foo/missing", "")
	require.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, "Repository not found or it's private.", errors.Unwrap(err).Error())
	assert.Zero(t, gen.calls, "generator must not run for a missing repository")
}

func TestExplain_MetadataErrorWinsOverCanceledSibling(t *testing.T) {
	f := sampleRepo()
	f.metaErr = github.ErrRepoNotFound
	f.contentsErr = context.Canceled

	_, err := newExplain(f, explanation("x"), nil, 0).Explain(context.Background(), "foo/bar at github.com/foo/bar", "")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.NotErrorIs(t, err, context.Canceled)
}

func TestExplain_ContentFailureSurfaces(t *testing.T) {
	f := sampleRepo()
	f.contentsErr = github.ErrNothingToAnalyze
	gen := explanation("x")

	_, err := newExplain(f, gen, nil, 0).Explain(context.Background(), "https://github.com/foo/bar", "")
	require.ErrorIs(t, err, apperror.ErrInternal)
	assert.Contains(t, err.Error(), "No readable files found in the repository.")
	assert.Zero(t, gen.calls)
}

func TestExplain_GeneratorFailure(t *testing.T) {
	gen := &fakeGenerator{err: apperror.Upstream("LLM", "503 Service Unavailable")}

	_, err := newExplain(sampleRepo(), gen, nil, 0).Explain(context.Background(), "https://github.com/foo/bar", "")
	assert.ErrorIs(t, err, apperror.ErrUpstream)
}

func TestExplain_DeadlineIsTimeout(t *testing.T) {
	f := sampleRepo()
	f.block = true
	gen := explanation("x")

	start := time.Now()
	_, err := newExplain(f, gen, nil, 20*time.Millisecond).Explain(context.Background(), "https://github.com/foo/bar", "")
	require.ErrorIs(t, err, apperror.ErrTimeout)
	assert.Equal(t, ErrTimedOut.Message, err.Error())
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Zero(t, gen.calls)
}

// =========================================================================
// HISTORY SIDE EFFECT
// =========================================================================

func TestExplain_SavesForSignedInCaller(t *testing.T) {
	h := newFakeHistoryRepo()
	svc := newExplain(sampleRepo(), explanation("## TL;DR\nok"), h, 0)

	res, err := svc.Explain(context.Background(), "http://www.github.com/foo/bar.git", "a@example.com")
	require.NoError(t, err)
	assert.True(t, res.Saved)

	entries, err := h.ListByUser(context.Background(), "a@example.com")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "https://github.com/foo/bar.git", entries[0].RepoURL)
	assert.Equal(t, "bar.git", entries[0].RepoName)
	assert.Equal(t, "foo", entries[0].RepoOwner)
	assert.Equal(t, "## TL;DR\nok", entries[0].Explanation)
	assert.Equal(t, 12, entries[0].Metadata.Stars)
}

func TestExplain_RepeatedSearchKeepsOneEntry(t *testing.T) {
	ctx := context.Background()
	h := newFakeHistoryRepo()
	svc := newExplain(sampleRepo(), explanation("ok"), h, 0)

	_, err := svc.Explain(ctx, "https://github.com/foo/bar", "a@example.com")
	require.NoError(t, err)
	_, err = svc.Explain(ctx, "github.com/foo/bar/tree/main", "a@example.com")
	require.NoError(t, err)

	assert.Equal(t, 1, h.count("a@example.com"))
	assert.Equal(t, 2, h.upserts)
}

func TestExplain_FallbackIsNotSaved(t *testing.T) {
	h := newFakeHistoryRepo()
	gen := &fakeGenerator{result: &model.Explanation{Text: llm.FallbackText}}

	res, err := newExplain(sampleRepo(), gen, h, 0).Explain(context.Background(), "https://github.com/foo/bar", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, llm.FallbackText, res.Explanation.Text)
	assert.False(t, res.Saved)
	assert.Zero(t, h.upserts)
}

func TestExplain_SaveFailureIsSwallowed(t *testing.T) {
	h := newFakeHistoryRepo()
	h.err = errors.New("database is locked")

	res, err := newExplain(sampleRepo(), explanation("ok"), h, 0).Explain(context.Background(), "https://github.com/foo/bar", "a@example.com")
	require.NoError(t, err)
	assert.False(t, res.Saved)
	assert.Equal(t, 1, h.upserts)
	assert.Equal(t, "ok", res.Explanation.Text)
}

func TestExplain_SaveOutlivesCanceledRequest(t *testing.T) {
	h := newFakeHistoryRepo()
	gen := explanation("ok")
	ctx, cancel := context.WithCancel(context.Background())

	// Cancel right after generation; the save must still go through.
	svc := newExplain(sampleRepo(), &cancelingGenerator{inner: gen, cancel: cancel}, h, 0)
	res, err := svc.Explain(ctx, "https://github.com/foo/bar", "a@example.com")
	require.NoError(t, err)
	assert.True(t, res.Saved)
	assert.Equal(t, 1, h.count("a@example.com"))
}

type cancelingGenerator struct {
	inner  *fakeGenerator
	cancel context.CancelFunc
}

func (c *cancelingGenerator) Generate(ctx context.Context, contents string) (*model.Explanation, error) {
	exp, err := c.inner.Generate(ctx, contents)
	c.cancel()
	return exp, err
}
