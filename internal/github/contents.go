package github

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sakif/repo-explainer/internal/apperror"
	"github.com/sakif/repo-explainer/internal/model"
)

// ErrNothingToAnalyze means no file in the repository root contributed text.
var ErrNothingToAnalyze = apperror.Internal("No readable files found in the repository.")

// FetchContents concatenates the raw text of the files in the repository
// root, in listing order, until the budget is reached. The result never
// exceeds the budget in bytes and never ends in a split UTF-8 sequence.
// Files that cannot be downloaded or look binary are skipped and listed in
// RepoContents.Skipped.
func (c *Client) FetchContents(ctx context.Context, ref model.RepoRef) (*model.RepoContents, error) {
	_, entries, resp, err := c.gh.Repositories.GetContents(ctx, ref.Owner, ref.Repo, "", nil)
	if err != nil {
		return nil, classify(ctx, resp, err, "listing contents of "+ref.Owner+"/"+ref.Repo)
	}

	out := &model.RepoContents{Files: []string{}}
	var buf bytes.Buffer

	for _, entry := range entries {
		if entry.GetType() != "file" || entry.DownloadURL == nil {
			continue
		}
		remaining := c.budget - buf.Len()
		if remaining <= 0 {
			break
		}

		name := entry.GetName()
		chunk, err := c.downloadFile(ctx, entry.GetDownloadURL(), remaining)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("github: downloading %s: %w", name, ctx.Err())
			}
			c.logger.Debug("skipping file", zap.String("file", name), zap.Error(err))
			out.Skipped = append(out.Skipped, model.SkippedFile{Name: name, Reason: err.Error()})
			continue
		}
		if bytes.IndexByte(chunk, 0) >= 0 {
			out.Skipped = append(out.Skipped, model.SkippedFile{Name: name, Reason: "binary content"})
			continue
		}
		if len(chunk) == remaining {
			chunk = trimPartialRune(chunk)
		}
		if len(chunk) == 0 {
			continue
		}

		buf.Write(chunk)
		out.Files = append(out.Files, name)
	}

	if strings.TrimSpace(buf.String()) == "" {
		return nil, ErrNothingToAnalyze
	}

	out.Text = buf.String()
	return out, nil
}

// downloadFile reads at most limit bytes of the file at rawURL.
func (c *Client) downloadFile(ctx context.Context, rawURL string, limit int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.download.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("download returned %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return data, nil
}

// trimPartialRune drops an incomplete UTF-8 sequence from the end of b.
func trimPartialRune(b []byte) []byte {
	for i := len(b) - 1; i >= 0 && len(b)-i <= utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return b[:i]
			}
			return b
		}
	}
	return b
}
