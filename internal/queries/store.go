// Package queries provides named GraphQL document lookup. Documents are
// opaque strings to the rest of the harness.
package queries

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
)

// ErrNotFound is returned when no document exists under a name.
var ErrNotFound = errors.New("query not found")

// Store returns a ready-to-send GraphQL document by operation name.
type Store interface {
	Get(name string) (string, error)
}

// MapStore is an in-memory Store.
type MapStore map[string]string

func (m MapStore) Get(name string) (string, error) {
	q, ok := m[name]
	if !ok {
		return "", fmt.Errorf("query %q: %w", name, ErrNotFound)
	}
	return q, nil
}

// DirStore reads documents from <name>.graphql files on a filesystem,
// caching each document after the first read.
type DirStore struct {
	fsys fs.FS

	mu    sync.Mutex
	cache map[string]string
}

func NewDirStore(fsys fs.FS) *DirStore {
	return &DirStore{fsys: fsys, cache: make(map[string]string)}
}

func (d *DirStore) Get(name string) (string, error) {
	d.mu.Lock()
	cached, ok := d.cache[name]
	d.mu.Unlock()
	if ok {
		return cached, nil
	}

	data, err := fs.ReadFile(d.fsys, name+".graphql")
	if err != nil {
		return "", fmt.Errorf("query %q: %w", name, ErrNotFound)
	}

	q := string(data)
	d.mu.Lock()
	d.cache[name] = q
	d.mu.Unlock()
	return q, nil
}

// Fallback chains stores: the first store that knows the name wins.
type Fallback []Store

func (f Fallback) Get(name string) (string, error) {
	for _, s := range f {
		q, err := s.Get(name)
		if err == nil {
			return q, nil
		}
	}
	return "", fmt.Errorf("query %q: %w", name, ErrNotFound)
}
