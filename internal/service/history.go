package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sakif/repo-explainer/internal/apperror"
	"github.com/sakif/repo-explainer/internal/model"
	"github.com/sakif/repo-explainer/internal/repository"
)

// ClearAll is the searchUrl value that deletes a user's whole history.
const ClearAll = "all"

var errNoIdentity = apperror.Unauthorized("Unauthorized")

type SaveHistoryInput struct {
	RepoURL     string             `json:"repoUrl"`
	RepoName    string             `json:"repoName"`
	RepoOwner   string             `json:"repoOwner"`
	Explanation string             `json:"explanation"`
	Metadata    model.RepoMetadata `json:"metadata"`
}

// HistoryService scopes every history operation to one owner key.
// Storage failures are logged here and surfaced with a fixed message.
type HistoryService struct {
	repo   repository.HistoryRepository
	logger *zap.Logger
}

func NewHistoryService(repo repository.HistoryRepository, logger *zap.Logger) *HistoryService {
	return &HistoryService{repo: repo, logger: logger}
}

func (s *HistoryService) List(ctx context.Context, owner string) ([]model.SearchHistoryEntry, error) {
	if owner == "" {
		return nil, errNoIdentity
	}
	entries, err := s.repo.ListByUser(ctx, owner)
	if err != nil {
		s.logger.Error("listing search history", zap.Error(err))
		return nil, apperror.Internal("Failed to fetch search history")
	}
	return entries, nil
}

func (s *HistoryService) Save(ctx context.Context, owner string, in SaveHistoryInput) (*model.SearchHistoryEntry, error) {
	if owner == "" {
		return nil, errNoIdentity
	}
	if strings.TrimSpace(in.RepoURL) == "" || strings.TrimSpace(in.RepoName) == "" ||
		strings.TrimSpace(in.RepoOwner) == "" || strings.TrimSpace(in.Explanation) == "" {
		return nil, apperror.ValidationFailed("", "Missing required fields")
	}

	entry := &model.SearchHistoryEntry{
		UserID:      owner,
		RepoURL:     strings.TrimSpace(in.RepoURL),
		RepoName:    in.RepoName,
		RepoOwner:   in.RepoOwner,
		Explanation: in.Explanation,
		Metadata:    in.Metadata,
	}
	if err := s.repo.Upsert(ctx, entry); err != nil {
		s.logger.Error("saving search history", zap.String("repoUrl", entry.RepoURL), zap.Error(err))
		return nil, apperror.Internal("Failed to save search history")
	}
	return entry, nil
}

// Delete clears the whole history when searchURL is ClearAll and otherwise
// removes the entry for that repository URL. It returns the number of rows
// removed.
func (s *HistoryService) Delete(ctx context.Context, owner, searchURL string) (int64, error) {
	if owner == "" {
		return 0, errNoIdentity
	}
	searchURL = strings.TrimSpace(searchURL)
	if searchURL == "" {
		return 0, apperror.ValidationFailed("searchUrl", "Invalid request")
	}

	var (
		n   int64
		err error
	)
	if searchURL == ClearAll {
		n, err = s.repo.DeleteAllByUser(ctx, owner)
	} else {
		n, err = s.repo.DeleteByRepoURL(ctx, owner, searchURL)
	}
	if err != nil {
		s.logger.Error("deleting search history", zap.String("searchUrl", searchURL), zap.Error(err))
		return 0, apperror.Internal("Failed to delete search history")
	}
	return n, nil
}

func (s *HistoryService) DeleteByID(ctx context.Context, owner, id string) error {
	if owner == "" {
		return errNoIdentity
	}
	err := s.repo.DeleteByID(ctx, owner, id)
	if err == nil {
		return nil
	}
	if errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("service/history: %w", err)
	}
	s.logger.Error("deleting search history entry", zap.String("id", id), zap.Error(err))
	return apperror.Internal("Failed to delete search history")
}
