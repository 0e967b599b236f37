package github

import (
	"context"
	"regexp"
)

// Directory lists and searches the repositories visible to the token.
type Directory struct {
	api API
}

func NewDirectory(api API) *Directory {
	return &Directory{api: api}
}

func (d *Directory) ListAll(ctx context.Context) ([]RepositoryRef, error) {
	return d.api.ListRepositories(ctx)
}

// Search returns the repositories whose name (not owner) contains query,
// ignoring case. An empty query matches every repository.
func (d *Directory) Search(ctx context.Context, query string) ([]RepositoryRef, error) {
	repos, err := d.api.ListRepositories(ctx)
	if err != nil {
		return nil, err
	}

	pattern := regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))
	matches := make([]RepositoryRef, 0, len(repos))
	for _, r := range repos {
		if pattern.MatchString(r.Name) {
			matches = append(matches, r)
		}
	}
	return matches, nil
}
