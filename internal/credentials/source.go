// Package credentials draws login credentials from per-tenant pool
// files, falling back to a shared pool when a tenant has none.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gqlswarm/internal/tenant"
)

// FallbackPool is the shared pool name used when a tenant-specific pool
// file is absent.
const FallbackPool = "default"

// ErrNoCredentialPool is returned when neither the tenant pool nor the
// fallback pool is readable.
var ErrNoCredentialPool = errors.New("no credential pool")

// Credential is one username/password pair from a pool file.
type Credential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Source yields a credential for a tenant. Implementations must be safe
// for concurrent use by many starting users.
type Source interface {
	Next(cfg tenant.Config) (Credential, error)
}

// Picker selects an index in [0, n). Injected so tests can replace the
// uniform-random default with a deterministic sequence.
type Picker func(n int) int

// FileSource reads JSON pool files of the form <dir>/<pool>.json, each a
// JSON array of {username, password} objects. Pools are read-only data:
// loaded lazily, cached for the lifetime of the source.
type FileSource struct {
	dir  string
	pick Picker

	mu    sync.Mutex
	rng   *rand.Rand
	cache map[string][]Credential // nil value = pool known missing
}

// NewFileSource creates a source over the given pool directory. A nil
// picker selects uniform-random entries from a time-seeded generator.
func NewFileSource(dir string, pick Picker) *FileSource {
	s := &FileSource{
		dir:   dir,
		pick:  pick,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string][]Credential),
	}
	if s.pick == nil {
		s.pick = s.uniform
	}
	return s
}

func (s *FileSource) uniform(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// Next draws one credential for the tenant: uniform over the tenant's
// pool, or over the fallback pool if the tenant pool is missing.
func (s *FileSource) Next(cfg tenant.Config) (Credential, error) {
	pool := s.load(cfg.CredentialPool)
	if len(pool) == 0 {
		pool = s.load(FallbackPool)
	}
	if len(pool) == 0 {
		return Credential{}, fmt.Errorf("tenant %q: pools %q and %q unavailable: %w",
			cfg.TenantID, cfg.CredentialPool, FallbackPool, ErrNoCredentialPool)
	}
	return pool[s.pick(len(pool))], nil
}

func (s *FileSource) load(pool string) []Credential {
	s.mu.Lock()
	cached, ok := s.cache[pool]
	s.mu.Unlock()
	if ok {
		return cached
	}

	var creds []Credential
	data, err := os.ReadFile(filepath.Join(s.dir, pool+".json"))
	if err == nil {
		if jsonErr := json.Unmarshal(data, &creds); jsonErr != nil {
			creds = nil
		}
	}

	s.mu.Lock()
	s.cache[pool] = creds
	s.mu.Unlock()
	return creds
}

// StaticSource serves credentials from an in-memory pool map, keyed by
// pool name. Used for built-in defaults and tests.
type StaticSource struct {
	pools map[string][]Credential
	pick  Picker

	mu  sync.Mutex
	rng *rand.Rand
}

// NewStaticSource creates a source over the given pools. A nil picker
// selects uniform-random entries.
func NewStaticSource(pools map[string][]Credential, pick Picker) *StaticSource {
	s := &StaticSource{
		pools: pools,
		pick:  pick,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if s.pick == nil {
		s.pick = func(n int) int {
			s.mu.Lock()
			defer s.mu.Unlock()
			return s.rng.Intn(n)
		}
	}
	return s
}

func (s *StaticSource) Next(cfg tenant.Config) (Credential, error) {
	pool := s.pools[cfg.CredentialPool]
	if len(pool) == 0 {
		pool = s.pools[FallbackPool]
	}
	if len(pool) == 0 {
		return Credential{}, fmt.Errorf("tenant %q: %w", cfg.TenantID, ErrNoCredentialPool)
	}
	return pool[s.pick(len(pool))], nil
}
