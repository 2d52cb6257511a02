package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/repo-explainer/internal/apperror"
	"github.com/sakif/repo-explainer/internal/model"
	"github.com/sakif/repo-explainer/internal/repository"
)

var _ repository.HistoryRepository = (*HistoryDB)(nil)

type HistoryDB struct {
	conn *sql.DB
}

func (h *HistoryDB) Upsert(ctx context.Context, entry *model.SearchHistoryEntry) error {
	meta, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("sqlite: encoding metadata: %w", err)
	}

	if entry.SearchDate.IsZero() {
		entry.SearchDate = time.Now().UTC()
	}

	// On conflict the existing row keeps its id; RETURNING hands it back.
	err = h.conn.QueryRowContext(ctx,
		`INSERT INTO user_search_history
			(id, user_id, repo_url, repo_name, repo_owner, search_date, explanation, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, repo_url) DO UPDATE SET
			repo_name   = excluded.repo_name,
			repo_owner  = excluded.repo_owner,
			search_date = excluded.search_date,
			explanation = excluded.explanation,
			metadata    = excluded.metadata
		 RETURNING id`,
		uuid.New().String(),
		entry.UserID,
		entry.RepoURL,
		entry.RepoName,
		entry.RepoOwner,
		entry.SearchDate,
		entry.Explanation,
		string(meta),
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("sqlite: upserting history for %s: %w", entry.RepoURL, err)
	}

	return nil
}

func (h *HistoryDB) ListByUser(ctx context.Context, userID string) ([]model.SearchHistoryEntry, error) {
	rows, err := h.conn.QueryContext(ctx,
		`SELECT id, user_id, repo_url, repo_name, repo_owner, search_date, explanation, metadata
		 FROM user_search_history
		 WHERE user_id = ?
		 ORDER BY search_date DESC
		 LIMIT ?`,
		userID, repository.HistoryLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing history: %w", err)
	}
	defer rows.Close()

	entries := []model.SearchHistoryEntry{}
	for rows.Next() {
		var (
			e    model.SearchHistoryEntry
			meta string
		)
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.RepoURL,
			&e.RepoName,
			&e.RepoOwner,
			&e.SearchDate,
			&e.Explanation,
			&meta,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning history row: %w", err)
		}
		if meta != "" {
			if err := json.Unmarshal([]byte(meta), &e.Metadata); err != nil {
				return nil, fmt.Errorf("sqlite: decoding metadata of %s: %w", e.ID, err)
			}
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating history rows: %w", err)
	}

	return entries, nil
}

func (h *HistoryDB) DeleteAllByUser(ctx context.Context, userID string) (int64, error) {
	res, err := h.conn.ExecContext(ctx,
		`DELETE FROM user_search_history WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("sqlite: clearing history: %w", err)
	}
	return res.RowsAffected()
}

func (h *HistoryDB) DeleteByRepoURL(ctx context.Context, userID, repoURL string) (int64, error) {
	res, err := h.conn.ExecContext(ctx,
		`DELETE FROM user_search_history WHERE user_id = ? AND repo_url = ?`, userID, repoURL)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting history for %s: %w", repoURL, err)
	}
	return res.RowsAffected()
}

func (h *HistoryDB) DeleteByID(ctx context.Context, userID, id string) error {
	res, err := h.conn.ExecContext(ctx,
		`DELETE FROM user_search_history WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting history entry %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("history entry", id)
	}
	return nil
}
