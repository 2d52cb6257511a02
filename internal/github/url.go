package github

import (
	"regexp"

	"github.com/sakif/repo-explainer/internal/model"
)

var repoURLPattern = regexp.MustCompile(`github\.com/([\w-]+)/([\w.-]+)`)

// ParseRepoURL extracts owner and repository name from anything that
// contains "github.com/<owner>/<repo>". The first match wins and no
// existence check is made, so "https://github.com/foo/bar-baz.git" yields
// repo "bar-baz.git".
func ParseRepoURL(s string) (model.RepoRef, bool) {
	m := repoURLPattern.FindStringSubmatch(s)
	if m == nil {
		return model.RepoRef{}, false
	}
	return model.RepoRef{Owner: m[1], Repo: m[2]}, true
}
