package vuser

import (
	"fmt"
	"math/rand"
	"sync"

	"go.uber.org/zap"

	"gqlswarm/internal/core"
	"gqlswarm/internal/credentials"
	"gqlswarm/internal/gateway"
	"gqlswarm/internal/queries"
	"gqlswarm/internal/tenant"
)

// Builder assembles virtual users from the shared read-only pieces:
// catalog, credential source, query store, transport. Each spawned user
// gets its own gateway, session and random stream.
type Builder struct {
	Endpoint    string
	Client      gateway.Doer
	Catalog     *tenant.Catalog
	Credentials credentials.Source
	Queries     queries.Store
	Policies    []Policy
	Logger      *zap.Logger
	Wire        *gateway.WireLogger
	Seed        int64

	once sync.Once
	mu   sync.Mutex
	rng  *rand.Rand
}

// Factory returns a core.UserFactory that assigns each new user a
// policy drawn proportionally to the policy mix weights.
func (b *Builder) Factory() (core.UserFactory, error) {
	if len(b.Policies) == 0 {
		return nil, fmt.Errorf("no behavior policies configured")
	}
	for _, p := range b.Policies {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}

	return func(userID int) (core.User, error) {
		policy := b.pickPolicy()
		cfg, err := b.Catalog.Resolve(policy.Tenant)
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", userID, err)
		}
		gw := gateway.New(b.Endpoint, cfg, b.Client, b.Logger, b.Wire)
		seed := b.Seed + int64(userID)*2654435761 // spread per-user streams
		return New(cfg, policy, gw, b.Credentials, b.Queries, b.Logger, seed), nil
	}, nil
}

func (b *Builder) pickPolicy() Policy {
	b.once.Do(func() {
		b.rng = rand.New(rand.NewSource(b.Seed))
	})
	b.mu.Lock()
	defer b.mu.Unlock()
	return PickPolicy(b.Policies, b.rng)
}
