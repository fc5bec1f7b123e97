// Package mockserver emulates the GraphQL backend: per-tenant latency,
// error and response-size profiles drive stochastic, operation-shaped
// responses for load testing.
package mockserver

import (
	"fmt"
	"time"
)

// SizeClass selects how much filler a synthesized payload carries.
type SizeClass string

const (
	SizeSmall  SizeClass = "small"
	SizeMedium SizeClass = "medium"
	SizeLarge  SizeClass = "large"
)

// paddingBytes returns the filler size for the class.
func (s SizeClass) paddingBytes() int {
	switch s {
	case SizeMedium:
		return 2048
	case SizeLarge:
		return 16384
	}
	return 0
}

// listLength returns how many entries synthesized lists get.
func (s SizeClass) listLength() int {
	switch s {
	case SizeMedium:
		return 10
	case SizeLarge:
		return 25
	}
	return 3
}

func (s SizeClass) valid() bool {
	return s == SizeSmall || s == SizeMedium || s == SizeLarge
}

// Profile is one tenant's backend behavior. Static after load.
type Profile struct {
	Tenant       string
	ErrorRate    float64
	MinLatency   time.Duration
	MaxLatency   time.Duration
	ErrorMessage string
	ResponseSize SizeClass
}

// Validate checks rates and ranges.
func (p Profile) Validate() error {
	if p.ErrorRate < 0 || p.ErrorRate > 1 {
		return fmt.Errorf("profile %q: error rate %v outside [0,1]", p.Tenant, p.ErrorRate)
	}
	if p.MinLatency < 0 || p.MaxLatency < p.MinLatency {
		return fmt.Errorf("profile %q: invalid latency range [%v, %v]", p.Tenant, p.MinLatency, p.MaxLatency)
	}
	if !p.ResponseSize.valid() {
		return fmt.Errorf("profile %q: unknown response size %q", p.Tenant, p.ResponseSize)
	}
	return nil
}

// ProfileTable maps tenant ids to profiles, with a default for unknown
// tenants. Loaded once at server start, never mutated afterwards, safe
// for concurrent reads from request handlers.
type ProfileTable struct {
	profiles map[string]Profile
	fallback Profile
}

// NewProfileTable builds a table. The fallback applies to any tenant
// without its own entry.
func NewProfileTable(profiles []Profile, fallback Profile) (*ProfileTable, error) {
	if err := fallback.Validate(); err != nil {
		return nil, err
	}
	m := make(map[string]Profile, len(profiles))
	for _, p := range profiles {
		if p.Tenant == "" {
			return nil, fmt.Errorf("profile without tenant id")
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		m[p.Tenant] = p
	}
	return &ProfileTable{profiles: m, fallback: fallback}, nil
}

// Lookup resolves a tenant's profile, falling back to the default.
func (t *ProfileTable) Lookup(tenantID string) Profile {
	if p, ok := t.profiles[tenantID]; ok {
		return p
	}
	p := t.fallback
	p.Tenant = tenantID
	return p
}

// DefaultProfiles returns the built-in tenant behaviors: neverwinter is
// slow and flaky, wonderland moderately slow, everyone else fast.
func DefaultProfiles() ([]Profile, Profile) {
	profiles := []Profile{
		{
			Tenant:       "neverwinter",
			ErrorRate:    0.3,
			MinLatency:   400 * time.Millisecond,
			MaxLatency:   1200 * time.Millisecond,
			ErrorMessage: "Gamma crash",
			ResponseSize: SizeLarge,
		},
		{
			Tenant:       "wonderland",
			ErrorRate:    0,
			MinLatency:   200 * time.Millisecond,
			MaxLatency:   400 * time.Millisecond,
			ErrorMessage: "Wonderland unavailable",
			ResponseSize: SizeMedium,
		},
	}
	fallback := Profile{
		Tenant:       "default",
		ErrorRate:    0,
		MinLatency:   50 * time.Millisecond,
		MaxLatency:   100 * time.Millisecond,
		ErrorMessage: "upstream unavailable",
		ResponseSize: SizeSmall,
	}
	return profiles, fallback
}
