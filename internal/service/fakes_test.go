package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sakif/repo-explainer/internal/apperror"
	"github.com/sakif/repo-explainer/internal/model"
	"github.com/sakif/repo-explainer/internal/repository"
)

// =========================================================================
// USERS
// =========================================================================

// fakeUserRepo is an in-memory repository.UserRepository keyed by email.
type fakeUserRepo struct {
	byEmail map[string]*model.User
	nextID  int
	err     error // returned by every method when set
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: map[string]*model.User{}}
}

func (f *fakeUserRepo) create(email string) *model.User {
	f.nextID++
	u := &model.User{ID: fmt.Sprintf("user-%d", f.nextID), Email: email, CreatedAt: time.Now()}
	f.byEmail[email] = u
	return u
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, apperror.NotFound("user", email)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byEmail {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", id)
}

func (f *fakeUserRepo) SetPassword(ctx context.Context, email, hash string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byEmail[email]
	if !ok {
		u = f.create(email)
	}
	if u.HasPassword() {
		return nil, apperror.Conflict("User already exists")
	}
	u.PasswordHash = &hash
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) Ensure(ctx context.Context, email string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byEmail[email]
	if !ok {
		u = f.create(email)
	}
	copied := *u
	return &copied, nil
}

// =========================================================================
// HISTORY
// =========================================================================

// fakeHistoryRepo is an in-memory repository.HistoryRepository.
type fakeHistoryRepo struct {
	mu      sync.Mutex
	rows    map[string]map[string]model.SearchHistoryEntry // owner -> repoURL -> entry
	nextID  int
	err     error
	upserts int
}

var _ repository.HistoryRepository = (*fakeHistoryRepo)(nil)

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{rows: map[string]map[string]model.SearchHistoryEntry{}}
}

func (f *fakeHistoryRepo) Upsert(ctx context.Context, e *model.SearchHistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.err != nil {
		return f.err
	}
	if e.SearchDate.IsZero() {
		e.SearchDate = time.Now().UTC()
	}
	byURL, ok := f.rows[e.UserID]
	if !ok {
		byURL = map[string]model.SearchHistoryEntry{}
		f.rows[e.UserID] = byURL
	}
	if existing, ok := byURL[e.RepoURL]; ok {
		e.ID = existing.ID
	} else {
		f.nextID++
		e.ID = fmt.Sprintf("entry-%d", f.nextID)
	}
	byURL[e.RepoURL] = *e
	return nil
}

func (f *fakeHistoryRepo) ListByUser(ctx context.Context, owner string) ([]model.SearchHistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []model.SearchHistoryEntry{}
	for _, e := range f.rows[owner] {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SearchDate.After(out[j].SearchDate) })
	if len(out) > repository.HistoryLimit {
		out = out[:repository.HistoryLimit]
	}
	return out, nil
}

func (f *fakeHistoryRepo) DeleteAllByUser(ctx context.Context, owner string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	n := int64(len(f.rows[owner]))
	delete(f.rows, owner)
	return n, nil
}

func (f *fakeHistoryRepo) DeleteByRepoURL(ctx context.Context, owner, repoURL string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	if _, ok := f.rows[owner][repoURL]; !ok {
		return 0, nil
	}
	delete(f.rows[owner], repoURL)
	return 1, nil
}

func (f *fakeHistoryRepo) DeleteByID(ctx context.Context, owner, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for url, e := range f.rows[owner] {
		if e.ID == id {
			delete(f.rows[owner], url)
			return nil
		}
	}
	return apperror.NotFound("history entry", id)
}

func (f *fakeHistoryRepo) count(owner string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows[owner])
}

// =========================================================================
// GITHUB AND LLM
// =========================================================================

type fakeFetcher struct {
	meta        *model.RepoMetadata
	contents    *model.RepoContents
	metaErr     error
	contentsErr error
	// block makes both fetches wait for ctx to end.
	block bool
}

func (f *fakeFetcher) FetchMetadata(ctx context.Context, ref model.RepoRef) (*model.RepoMetadata, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.metaErr != nil {
		return nil, f.metaErr
	}
	return f.meta, nil
}

func (f *fakeFetcher) FetchContents(ctx context.Context, ref model.RepoRef) (*model.RepoContents, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.contentsErr != nil {
		return nil, f.contentsErr
	}
	return f.contents, nil
}

type fakeGenerator struct {
	mu       sync.Mutex
	calls    int
	received string
	result   *model.Explanation
	err      error
}

func (g *fakeGenerator) Generate(ctx context.Context, contents string) (*model.Explanation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.received = contents
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}
