package vuser

import (
	"fmt"
	"math/rand"
	"time"
)

// WaitRange bounds the think-time pause between flow iterations.
type WaitRange struct {
	Min time.Duration
	Max time.Duration
}

// Flow is one named user action: an ordered sequence of gateway
// operations, executed with AND-gated continuation (a failed step skips
// the remainder of that iteration).
type Flow struct {
	Name   string
	Weight int
	Steps  []string
}

// Policy is a tenant's behavior configuration: how long users idle
// between actions and which weighted flows they pick from. Policies are
// data; new tenants need a new record here, never new engine code.
type Policy struct {
	Tenant string
	Weight int // share of spawned users running this policy
	Wait   WaitRange
	Flows  []Flow
}

// Validate checks that the policy can drive a user.
func (p Policy) Validate() error {
	if p.Tenant == "" {
		return fmt.Errorf("policy without tenant")
	}
	if p.Wait.Min < 0 || p.Wait.Max < p.Wait.Min {
		return fmt.Errorf("policy %q: invalid wait range [%v, %v]", p.Tenant, p.Wait.Min, p.Wait.Max)
	}
	if len(p.Flows) == 0 {
		return fmt.Errorf("policy %q: no flows", p.Tenant)
	}
	total := 0
	for _, f := range p.Flows {
		if f.Name == "" {
			return fmt.Errorf("policy %q: flow without name", p.Tenant)
		}
		if f.Weight < 0 {
			return fmt.Errorf("policy %q: flow %q has negative weight", p.Tenant, f.Name)
		}
		if len(f.Steps) == 0 {
			return fmt.Errorf("policy %q: flow %q has no steps", p.Tenant, f.Name)
		}
		for _, op := range f.Steps {
			if !knownOperation(op) {
				return fmt.Errorf("policy %q: flow %q: unknown operation %q", p.Tenant, f.Name, op)
			}
		}
		total += f.Weight
	}
	if total <= 0 {
		return fmt.Errorf("policy %q: flow weights sum to zero", p.Tenant)
	}
	return nil
}

// pickFlow selects a flow at random, proportional to weights.
func (p Policy) pickFlow(rng *rand.Rand) Flow {
	total := 0
	for _, f := range p.Flows {
		total += f.Weight
	}
	n := rng.Intn(total)
	for _, f := range p.Flows {
		n -= f.Weight
		if n < 0 {
			return f
		}
	}
	return p.Flows[len(p.Flows)-1]
}

// thinkTime draws a pause uniform in the wait range.
func (p Policy) thinkTime(rng *rand.Rand) time.Duration {
	if p.Wait.Max <= p.Wait.Min {
		return p.Wait.Min
	}
	return p.Wait.Min + time.Duration(rng.Int63n(int64(p.Wait.Max-p.Wait.Min)))
}

// PickPolicy selects a policy at random, proportional to user-mix
// weights. Zero-weight policies are treated as weight 1 so a mix of
// all-zero weights still spawns users.
func PickPolicy(policies []Policy, rng *rand.Rand) Policy {
	total := 0
	for _, p := range policies {
		total += policyWeight(p)
	}
	n := rng.Intn(total)
	for _, p := range policies {
		n -= policyWeight(p)
		if n < 0 {
			return p
		}
	}
	return policies[len(policies)-1]
}

func policyWeight(p Policy) int {
	if p.Weight <= 0 {
		return 1
	}
	return p.Weight
}
