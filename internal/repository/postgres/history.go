package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sakif/repo-explainer/internal/apperror"
	"github.com/sakif/repo-explainer/internal/model"
	"github.com/sakif/repo-explainer/internal/repository"
)

var _ repository.HistoryRepository = (*HistoryDB)(nil)

type HistoryDB struct {
	conn *sqlx.DB
}

// historyRow is the table shape; metadata travels as raw JSONB bytes.
type historyRow struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	RepoURL     string    `db:"repo_url"`
	RepoName    string    `db:"repo_name"`
	RepoOwner   string    `db:"repo_owner"`
	SearchDate  time.Time `db:"search_date"`
	Explanation string    `db:"explanation"`
	Metadata    []byte    `db:"metadata"`
}

func (r historyRow) toModel() (model.SearchHistoryEntry, error) {
	e := model.SearchHistoryEntry{
		ID:          r.ID,
		UserID:      r.UserID,
		RepoURL:     r.RepoURL,
		RepoName:    r.RepoName,
		RepoOwner:   r.RepoOwner,
		SearchDate:  r.SearchDate,
		Explanation: r.Explanation,
	}
	if len(r.Metadata) > 0 {
		if err := json.Unmarshal(r.Metadata, &e.Metadata); err != nil {
			return e, fmt.Errorf("decoding metadata of %s: %w", r.ID, err)
		}
	}
	return e, nil
}

const upsertHistoryQuery = `
	INSERT INTO user_search_history
		(id, user_id, repo_url, repo_name, repo_owner, search_date, explanation, metadata)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (user_id, repo_url) DO UPDATE SET
		repo_name   = EXCLUDED.repo_name,
		repo_owner  = EXCLUDED.repo_owner,
		search_date = EXCLUDED.search_date,
		explanation = EXCLUDED.explanation,
		metadata    = EXCLUDED.metadata
	RETURNING id`

func (h *HistoryDB) Upsert(ctx context.Context, entry *model.SearchHistoryEntry) error {
	meta, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("postgres: encoding metadata: %w", err)
	}

	if entry.SearchDate.IsZero() {
		entry.SearchDate = time.Now().UTC()
	}

	err = h.conn.QueryRowxContext(ctx, upsertHistoryQuery,
		uuid.New().String(),
		entry.UserID,
		entry.RepoURL,
		entry.RepoName,
		entry.RepoOwner,
		entry.SearchDate,
		entry.Explanation,
		meta,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("postgres: upserting history for %s: %w", entry.RepoURL, err)
	}

	return nil
}

func (h *HistoryDB) ListByUser(ctx context.Context, userID string) ([]model.SearchHistoryEntry, error) {
	var rows []historyRow
	err := h.conn.SelectContext(ctx, &rows,
		`SELECT id, user_id, repo_url, repo_name, repo_owner, search_date, explanation, metadata
		 FROM user_search_history
		 WHERE user_id = $1
		 ORDER BY search_date DESC
		 LIMIT $2`,
		userID, repository.HistoryLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing history: %w", err)
	}

	entries := make([]model.SearchHistoryEntry, 0, len(rows))
	for _, r := range rows {
		e, err := r.toModel()
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (h *HistoryDB) DeleteAllByUser(ctx context.Context, userID string) (int64, error) {
	res, err := h.conn.ExecContext(ctx,
		`DELETE FROM user_search_history WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("postgres: clearing history: %w", err)
	}
	return res.RowsAffected()
}

func (h *HistoryDB) DeleteByRepoURL(ctx context.Context, userID, repoURL string) (int64, error) {
	res, err := h.conn.ExecContext(ctx,
		`DELETE FROM user_search_history WHERE user_id = $1 AND repo_url = $2`, userID, repoURL)
	if err != nil {
		return 0, fmt.Errorf("postgres: deleting history for %s: %w", repoURL, err)
	}
	return res.RowsAffected()
}

func (h *HistoryDB) DeleteByID(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		// Not a UUID, so it cannot name a row; the cast would error in SQL.
		return apperror.NotFound("history entry", id)
	}

	res, err := h.conn.ExecContext(ctx,
		`DELETE FROM user_search_history WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("postgres: deleting history entry %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("history entry", id)
	}
	return nil
}
