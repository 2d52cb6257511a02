package model

import "time"

type SearchHistoryEntry struct {
	ID          string       `json:"id"          db:"id"`
	UserID      string       `json:"userId"      db:"user_id"`
	RepoURL     string       `json:"repoUrl"     db:"repo_url"`
	RepoName    string       `json:"repoName"    db:"repo_name"`
	RepoOwner   string       `json:"repoOwner"   db:"repo_owner"`
	SearchDate  time.Time    `json:"searchDate"  db:"search_date"`
	Explanation string       `json:"explanation" db:"explanation"`
	Metadata    RepoMetadata `json:"metadata"    db:"-"`
}
