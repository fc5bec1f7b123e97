// Package config handles YAML scenario parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"gqlswarm/internal/collector"
	"gqlswarm/internal/mockserver"
	"gqlswarm/internal/tenant"
	"gqlswarm/internal/vuser"
)

// Config is the root scenario structure. A single file describes the
// target, the run shape, the tenant catalog, the behavior policies and
// optionally the mock backend profiles.
type Config struct {
	Target     TargetConfig          `yaml:"target"`
	Run        RunConfig             `yaml:"run"`
	Tenants    []TenantConfig        `yaml:"tenants,omitempty"`
	Policies   []PolicyConfig        `yaml:"policies,omitempty"`
	Thresholds *collector.Thresholds `yaml:"thresholds,omitempty"`
	Mock       *MockConfig           `yaml:"mock,omitempty"`
}

// TargetConfig points the harness at the system under test.
type TargetConfig struct {
	Endpoint       string `yaml:"endpoint"`
	CredentialsDir string `yaml:"credentialsDir"`
	QueriesDir     string `yaml:"queriesDir,omitempty"`
}

// RunConfig controls how many users run and for how long. When a load
// profile is present it takes precedence over the flat users/duration
// pair.
type RunConfig struct {
	Users    int           `yaml:"users"`
	Duration time.Duration `yaml:"duration"`
	Profile  *LoadProfile  `yaml:"profile,omitempty"`
	RPS      int           `yaml:"rps,omitempty"`
}

// LoadProfile defines the load pattern for a test.
type LoadProfile struct {
	Phases []Phase `yaml:"phases"`
}

// TotalDuration returns the sum of all phase durations.
func (lp *LoadProfile) TotalDuration() time.Duration {
	var total time.Duration
	for _, p := range lp.Phases {
		total += p.Duration
	}
	return total
}

// Phase represents a single phase in the load profile. Users holds a
// steady-state count; StartUsers/EndUsers describe a ramp.
type Phase struct {
	Name       string        `yaml:"name"`
	Duration   time.Duration `yaml:"duration"`
	Users      int           `yaml:"users"`
	StartUsers int           `yaml:"startUsers"`
	EndUsers   int           `yaml:"endUsers"`
	RPS        int           `yaml:"rps"`
}

// TenantConfig is one catalog entry.
type TenantConfig struct {
	ID                        string            `yaml:"id"`
	Origin                    string            `yaml:"origin,omitempty"`
	Referer                   string            `yaml:"referer,omitempty"`
	CredentialPool            string            `yaml:"credentialPool,omitempty"`
	Headers                   map[string]string `yaml:"headers,omitempty"`
	DefaultBusinessPartnerKey string            `yaml:"defaultBusinessPartnerKey,omitempty"`
	DefaultBusinessPartnerID  string            `yaml:"defaultBusinessPartnerId,omitempty"`
}

func (t TenantConfig) toTenant() tenant.Config {
	return tenant.Config{
		TenantID:                  t.ID,
		Origin:                    t.Origin,
		Referer:                   t.Referer,
		CredentialPool:            t.CredentialPool,
		Headers:                   t.Headers,
		DefaultBusinessPartnerKey: t.DefaultBusinessPartnerKey,
		DefaultBusinessPartnerID:  t.DefaultBusinessPartnerID,
	}
}

// PolicyConfig is one tenant's behavior policy.
type PolicyConfig struct {
	Tenant string       `yaml:"tenant"`
	Weight int          `yaml:"weight"`
	Wait   WaitConfig   `yaml:"wait"`
	Flows  []FlowConfig `yaml:"flows"`
}

// WaitConfig bounds the think time between flow iterations.
type WaitConfig struct {
	Min time.Duration `yaml:"min"`
	Max time.Duration `yaml:"max"`
}

// FlowConfig is one weighted flow: a named ordered step list.
type FlowConfig struct {
	Name   string   `yaml:"name"`
	Weight int      `yaml:"weight"`
	Steps  []string `yaml:"steps"`
}

func (p PolicyConfig) toPolicy() vuser.Policy {
	flows := make([]vuser.Flow, 0, len(p.Flows))
	for _, f := range p.Flows {
		flows = append(flows, vuser.Flow{Name: f.Name, Weight: f.Weight, Steps: f.Steps})
	}
	return vuser.Policy{
		Tenant: p.Tenant,
		Weight: p.Weight,
		Wait:   vuser.WaitRange{Min: p.Wait.Min, Max: p.Wait.Max},
		Flows:  flows,
	}
}

// MockConfig configures the mock backend.
type MockConfig struct {
	Addr     string              `yaml:"addr,omitempty"`
	Default  *MockProfileConfig  `yaml:"default,omitempty"`
	Profiles []MockProfileConfig `yaml:"profiles,omitempty"`
}

// MockProfileConfig is one tenant's simulated backend behavior.
type MockProfileConfig struct {
	Tenant       string        `yaml:"tenant"`
	ErrorRate    float64       `yaml:"errorRate"`
	MinLatency   time.Duration `yaml:"minLatency"`
	MaxLatency   time.Duration `yaml:"maxLatency"`
	ErrorMessage string        `yaml:"errorMessage,omitempty"`
	ResponseSize string        `yaml:"responseSize,omitempty"`
}

func (m MockProfileConfig) toProfile() mockserver.Profile {
	size := mockserver.SizeClass(m.ResponseSize)
	if m.ResponseSize == "" {
		size = mockserver.SizeSmall
	}
	return mockserver.Profile{
		Tenant:       m.Tenant,
		ErrorRate:    m.ErrorRate,
		MinLatency:   m.MinLatency,
		MaxLatency:   m.MaxLatency,
		ErrorMessage: m.ErrorMessage,
		ResponseSize: size,
	}
}

// Load reads and parses a YAML scenario file, fills defaults and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses scenario YAML, fills defaults and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in scenario: the slumberland and
// neverwinter catalogs and behavior policies with a 1:2 user mix.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Run.Users <= 0 && c.Run.Profile == nil {
		c.Run.Users = 10
	}
	if c.Run.Duration <= 0 && c.Run.Profile == nil {
		c.Run.Duration = time.Minute
	}
	if len(c.Tenants) == 0 {
		c.Tenants = DefaultTenants()
	}
	if len(c.Policies) == 0 {
		c.Policies = DefaultPolicies()
	}
}

// Validate checks the scenario for contradictions before a run starts.
func (c *Config) Validate() error {
	if c.Run.Profile != nil {
		if len(c.Run.Profile.Phases) == 0 {
			return fmt.Errorf("load profile has no phases")
		}
		for i, p := range c.Run.Profile.Phases {
			if p.Duration <= 0 {
				return fmt.Errorf("phase %d (%s): non-positive duration", i, p.Name)
			}
		}
	}
	seen := make(map[string]bool, len(c.Tenants))
	for _, t := range c.Tenants {
		if t.ID == "" {
			return fmt.Errorf("tenant entry without id")
		}
		if seen[t.ID] {
			return fmt.Errorf("duplicate tenant %q", t.ID)
		}
		seen[t.ID] = true
	}
	for _, p := range c.Policies {
		if !seen[p.Tenant] {
			return fmt.Errorf("policy references unknown tenant %q", p.Tenant)
		}
		if err := p.toPolicy().Validate(); err != nil {
			return err
		}
	}
	if c.Mock != nil {
		for _, mp := range c.Mock.Profiles {
			if err := mp.toProfile().Validate(); err != nil {
				return err
			}
		}
		if c.Mock.Default != nil {
			if err := c.Mock.Default.toProfile().Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Catalog builds the tenant catalog from the scenario entries.
func (c *Config) Catalog() (*tenant.Catalog, error) {
	configs := make([]tenant.Config, 0, len(c.Tenants))
	for _, t := range c.Tenants {
		configs = append(configs, t.toTenant())
	}
	return tenant.NewCatalog(configs)
}

// BehaviorPolicies converts the policy entries for the user builder.
func (c *Config) BehaviorPolicies() []vuser.Policy {
	policies := make([]vuser.Policy, 0, len(c.Policies))
	for _, p := range c.Policies {
		policies = append(policies, p.toPolicy())
	}
	return policies
}

// ProfileTable builds the mock backend profile table. Tenants without
// an explicit profile fall back to the default entry, or the built-in
// one when the scenario does not override it.
func (m *MockConfig) ProfileTable() (*mockserver.ProfileTable, error) {
	builtin, fallback := mockserver.DefaultProfiles()
	profiles := builtin
	if m != nil {
		if len(m.Profiles) > 0 {
			profiles = make([]mockserver.Profile, 0, len(m.Profiles))
			for _, mp := range m.Profiles {
				profiles = append(profiles, mp.toProfile())
			}
		}
		if m.Default != nil {
			fallback = m.Default.toProfile()
		}
	}
	return mockserver.NewProfileTable(profiles, fallback)
}

// DefaultTenants returns the built-in tenant catalog entries.
func DefaultTenants() []TenantConfig {
	return []TenantConfig{
		{
			ID:                        "slumberland",
			Origin:                    "https://shop.slumberland.example",
			Referer:                   "https://shop.slumberland.example/",
			DefaultBusinessPartnerKey: "businessPartnerId",
		},
		{
			ID:      "neverwinter",
			Origin:  "https://shop.neverwinter.example",
			Referer: "https://shop.neverwinter.example/",
		},
		{
			ID:      "wonderland",
			Origin:  "https://shop.wonderland.example",
			Referer: "https://shop.wonderland.example/",
		},
	}
}

// DefaultPolicies returns the built-in behavior mix: leisurely
// slumberland shoppers and fast neverwinter browsers, two neverwinter
// users spawned for every slumberland one.
func DefaultPolicies() []PolicyConfig {
	return []PolicyConfig{
		{
			Tenant: "slumberland",
			Weight: 1,
			Wait:   WaitConfig{Min: 2 * time.Second, Max: 8 * time.Second},
			Flows: []FlowConfig{
				{
					Name:   "browse_products",
					Weight: 3,
					Steps:  []string{vuser.OpSearchResultItem, vuser.OpLoadProfilePointAndReward},
				},
				{
					Name:   "rewards_check",
					Weight: 2,
					Steps:  []string{vuser.OpLoadProfilePointAndReward, vuser.OpOrderStreakOffers},
				},
				{
					Name:   "outlet_management",
					Weight: 1,
					Steps: []string{
						vuser.OpChangeOutlet,
						vuser.OpGetUser,
						vuser.OpLoadProfilePointAndReward,
						vuser.OpOrderStreakOffers,
						vuser.OpSearchResultItem,
						vuser.OpCart,
						vuser.OpNotifications,
					},
				},
				{
					Name:   "cart_and_notifications",
					Weight: 1,
					Steps:  []string{vuser.OpCart, vuser.OpNotifications},
				},
			},
		},
		{
			Tenant: "neverwinter",
			Weight: 2,
			Wait:   WaitConfig{Min: time.Second, Max: 4 * time.Second},
			Flows: []FlowConfig{
				{
					Name:   "rapid_product_browsing",
					Weight: 5,
					Steps:  []string{vuser.OpSearchResultItem},
				},
				{
					Name:   "quick_rewards_check",
					Weight: 2,
					Steps:  []string{vuser.OpLoadProfilePointAndReward},
				},
				{
					Name:   "minimal_outlet_flow",
					Weight: 1,
					Steps:  []string{vuser.OpChangeOutlet, vuser.OpGetUser},
				},
			},
		},
	}
}
