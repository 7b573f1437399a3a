package preview

import (
	"context"
	"sync"

	"github.com/stagecms/stagecms/internal/store"
)

// fakeTokenSource is a hand-rolled TokenSource for poller tests.
type fakeTokenSource struct {
	mu      sync.Mutex
	token   string
	missing bool
	err     error
}

func (f *fakeTokenSource) VersionToken(context.Context, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if f.missing {
		return "", store.ErrNotFound
	}
	return f.token, nil
}

func (f *fakeTokenSource) set(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
	f.missing = false
}
