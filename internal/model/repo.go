package model

import "time"

// RepoRef identifies a GitHub repository by owner and name.
type RepoRef struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

// RepoMetadata is produced fresh for every explain request.
// Description is nil when the repository has none; LastCommitDate is nil
// when the commit lookup was unavailable.
type RepoMetadata struct {
	Name           string     `json:"name"`
	Description    *string    `json:"description"`
	Stars          int        `json:"stars"`
	Forks          int        `json:"forks"`
	URL            string     `json:"url"`
	LastCommitDate *time.Time `json:"lastCommitDate,omitempty"`
}

type RepoFile struct {
	Name        string  `json:"name"`
	Path        string  `json:"path"`
	Type        string  `json:"type"` // "file" or "dir"
	DownloadURL *string `json:"downloadUrl,omitempty"`
}

// SkippedFile records a file left out of the concatenated contents.
type SkippedFile struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// RepoContents is the bounded text handed to the explanation generator.
type RepoContents struct {
	Text    string        `json:"text"`
	Files   []string      `json:"files"`
	Skipped []SkippedFile `json:"skipped,omitempty"`
}

// Explanation is the generator's output. Available is false when the
// model returned no text and Text holds the fallback string.
type Explanation struct {
	Text      string `json:"text"`
	Available bool   `json:"available"`
}

// MarkdownSection is one "## heading" block of an explanation.
type MarkdownSection struct {
	Heading string `json:"heading"`
	Content string `json:"content"`
}
