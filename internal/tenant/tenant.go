// Package tenant resolves tenant identifiers to their request
// configuration: headers, origin/referer and credential pool naming.
package tenant

import (
	"errors"
	"fmt"
	"sort"
)

// HeaderTenantID is the header carrying the tenant identity on every
// outbound request. The mock backend routes on it.
const HeaderTenantID = "X-Tenant-ID"

// ErrUnknownTenant is returned when a tenant id is not in the catalog.
var ErrUnknownTenant = errors.New("unknown tenant")

// Config is the resolved per-tenant request configuration. Immutable in
// the catalog; Resolve hands out copies that callers may mutate freely.
type Config struct {
	TenantID                  string
	Headers                   map[string]string
	Origin                    string
	Referer                   string
	CredentialPool            string
	DefaultBusinessPartnerKey string
	DefaultBusinessPartnerID  string
}

// clone returns a deep copy; the headers map is never shared.
func (c Config) clone() Config {
	out := c
	out.Headers = make(map[string]string, len(c.Headers)+1)
	for k, v := range c.Headers {
		out.Headers[k] = v
	}
	return out
}

// Catalog is a read-only tenant lookup table. Safe for concurrent
// Resolve calls after construction.
type Catalog struct {
	configs map[string]Config
}

// NewCatalog builds a catalog from the given configs. Every entry gets
// the tenant-id header derived from its TenantID and, when set, Origin
// and Referer headers. Duplicate or empty tenant ids are rejected.
func NewCatalog(configs []Config) (*Catalog, error) {
	m := make(map[string]Config, len(configs))
	for _, cfg := range configs {
		if cfg.TenantID == "" {
			return nil, fmt.Errorf("tenant config with empty tenant id")
		}
		if _, dup := m[cfg.TenantID]; dup {
			return nil, fmt.Errorf("duplicate tenant config %q", cfg.TenantID)
		}
		c := cfg.clone()
		c.Headers[HeaderTenantID] = c.TenantID
		if c.Origin != "" {
			c.Headers["Origin"] = c.Origin
		}
		if c.Referer != "" {
			c.Headers["Referer"] = c.Referer
		}
		if c.CredentialPool == "" {
			c.CredentialPool = c.TenantID
		}
		m[c.TenantID] = c
	}
	return &Catalog{configs: m}, nil
}

// Resolve looks up a tenant's configuration. The returned Config is a
// deep copy, so callers may substitute deployment-specific values
// without affecting the catalog.
func (c *Catalog) Resolve(tenantID string) (Config, error) {
	cfg, ok := c.configs[tenantID]
	if !ok {
		return Config{}, fmt.Errorf("resolve %q: %w", tenantID, ErrUnknownTenant)
	}
	return cfg.clone(), nil
}

// TenantIDs returns all known tenant ids, sorted.
func (c *Catalog) TenantIDs() []string {
	ids := make([]string, 0, len(c.configs))
	for id := range c.configs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
