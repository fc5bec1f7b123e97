// Package vuser implements the virtual-user behavior engine: a
// simulated user that authenticates, discovers its outlets and then
// loops weighted flows against the GraphQL gateway.
package vuser

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"gqlswarm/internal/core"
	"gqlswarm/internal/credentials"
	"gqlswarm/internal/gateway"
	"gqlswarm/internal/queries"
	"gqlswarm/internal/tenant"
)

// ErrLoginFailed aborts a user that could not authenticate. Fatal for
// that user only; the run hosting other users continues.
var ErrLoginFailed = errors.New("login failed")

// State is the lifecycle position of a virtual user.
type State int

const (
	StateUninitialized State = iota
	StateAuthenticating
	StateDiscovering
	StateActive
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAuthenticating:
		return "authenticating"
	case StateDiscovering:
		return "discovering"
	case StateActive:
		return "active"
	}
	return "unknown"
}

// Session is the per-user mutable state. Owned exclusively by one
// VirtualUser; never shared, never reused across runs.
type Session struct {
	TenantID  string
	AuthToken string
	OutletIDs []string
}

// VirtualUser drives one simulated user. Not safe for concurrent use;
// the coordinator runs each user on its own goroutine.
type VirtualUser struct {
	cfg     tenant.Config
	policy  Policy
	gw      *gateway.Gateway
	creds   credentials.Source
	queries queries.Store
	log     *zap.Logger
	rng     *rand.Rand

	state   State
	session Session
}

// New creates a user in StateUninitialized. log may be nil; seed drives
// all of the user's stochastic choices (flow selection, think time,
// outlet and search-term picks).
func New(cfg tenant.Config, policy Policy, gw *gateway.Gateway, creds credentials.Source, qs queries.Store, log *zap.Logger, seed int64) *VirtualUser {
	if log == nil {
		log = zap.NewNop()
	}
	return &VirtualUser{
		cfg:     cfg,
		policy:  policy,
		gw:      gw,
		creds:   creds,
		queries: qs,
		log:     log.With(zap.String("tenant", cfg.TenantID)),
		rng:     rand.New(rand.NewSource(seed)),
		session: Session{TenantID: cfg.TenantID},
	}
}

// State returns the user's current lifecycle state.
func (u *VirtualUser) State() State { return u.state }

// Session returns a snapshot of the user's session state.
func (u *VirtualUser) Session() Session {
	s := u.session
	s.OutletIDs = append([]string(nil), u.session.OutletIDs...)
	return s
}

// Run performs one unit of work: the login/discovery start sequence on
// the first call, one flow iteration plus think time afterwards. The
// coordinator loops Run until the context ends or an error (fatal for
// this user) is returned.
func (u *VirtualUser) Run(ctx context.Context, userID int, rep core.Reporter) error {
	ctx = core.ContextWithUserID(ctx, userID)

	if u.state != StateActive {
		if err := u.start(ctx, userID, rep); err != nil {
			return err
		}
		return nil
	}

	flow := u.policy.pickFlow(u.rng)
	u.runFlow(ctx, userID, flow, rep)

	return u.think(ctx)
}

// start walks Uninitialized → Authenticating → Discovering → Active.
// Login failure is fatal; discovery failure only degrades the session.
func (u *VirtualUser) start(ctx context.Context, userID int, rep core.Reporter) error {
	u.state = StateAuthenticating
	if err := u.login(ctx, userID, rep); err != nil {
		return err
	}

	u.state = StateDiscovering
	u.discover(ctx, userID, rep)

	u.state = StateActive
	u.log.Info("user active",
		zap.Int("user", userID),
		zap.Int("outlets", len(u.session.OutletIDs)))
	return nil
}

func (u *VirtualUser) login(ctx context.Context, userID int, rep core.Reporter) error {
	cred, err := u.creds.Next(u.cfg)
	if err != nil {
		u.log.Error("credential draw failed", zap.Int("user", userID), zap.Error(err))
		rep.Report(u.event(userID, "", OpLogin, gateway.Result{
			Kind: gateway.KindParseError, Detail: err.Error(),
		}, false))
		return fmt.Errorf("user %d: %w", userID, err)
	}

	result := u.execute(ctx, "", OpLogin, map[string]any{
		"username": cred.Username,
		"password": cred.Password,
	})
	token := result.Field(accessTokenPath).String()
	ok := result.OK() && token != ""
	ev := u.event(userID, "", OpLogin, result, ok)
	if result.OK() && token == "" {
		ev.Error = "login response missing accessToken"
	}
	rep.Report(ev)

	if !ok {
		u.log.Warn("login failed, user will not start",
			zap.Int("user", userID),
			zap.String("kind", result.Kind.String()),
			zap.String("error", result.ErrorText()))
		return fmt.Errorf("user %d tenant %q: %w", userID, u.cfg.TenantID, ErrLoginFailed)
	}

	u.session.AuthToken = token
	return nil
}

// discover runs GetUser and extracts outlet ids. Any failure leaves the
// outlet list empty and the user proceeds with degraded functionality.
func (u *VirtualUser) discover(ctx context.Context, userID int, rep core.Reporter) {
	result := u.execute(ctx, "", OpGetUser, u.getUserVariables())
	rep.Report(u.event(userID, "", OpGetUser, result, result.OK()))

	if !result.OK() {
		u.log.Warn("outlet discovery degraded",
			zap.Int("user", userID),
			zap.String("kind", result.Kind.String()))
		return
	}
	u.extractOutlets(result)
	if len(u.session.OutletIDs) == 0 {
		u.log.Warn("outlet discovery returned no outlets", zap.Int("user", userID))
	}
}

func (u *VirtualUser) extractOutlets(result gateway.Result) {
	ids := result.Field(outletIDsPath)
	if !ids.Exists() {
		return
	}
	var outlets []string
	for _, id := range ids.Array() {
		if s := id.String(); s != "" {
			outlets = append(outlets, s)
		}
	}
	u.session.OutletIDs = outlets
}

// runFlow executes one flow iteration. Steps are AND-gated: the first
// failed step skips the remainder, but the user itself survives.
func (u *VirtualUser) runFlow(ctx context.Context, userID int, flow Flow, rep core.Reporter) {
	start := time.Now()
	success := true

	for _, op := range flow.Steps {
		if ctx.Err() != nil {
			return
		}
		vars, skip := u.stepVariables(op)
		if skip {
			// ChangeOutlet without outlets is a no-op, reported as
			// non-failure so flows keep going.
			rep.Report(core.Event{
				UserID:    userID,
				Timestamp: time.Now(),
				Tenant:    u.cfg.TenantID,
				Flow:      flow.Name,
				Operation: op,
				Success:   true,
				Kind:      "skipped",
			})
			continue
		}

		result := u.execute(ctx, flow.Name, op, vars)
		rep.Report(u.event(userID, flow.Name, op, result, result.OK()))

		if !result.OK() {
			success = false
			break
		}
		// A GetUser mid-flow refreshes the outlet list, mirroring a real
		// client re-reading user info after an outlet change.
		if op == OpGetUser {
			u.extractOutlets(result)
		}
	}

	duration := time.Since(start)
	rep.Report(core.Event{
		UserID:    userID,
		Timestamp: time.Now(),
		Tenant:    u.cfg.TenantID,
		Flow:      flow.Name,
		Operation: core.FlowTotalOp,
		Duration:  duration,
		Success:   success,
		Kind:      "flow",
	})
	u.log.Debug("flow finished",
		zap.Int("user", userID),
		zap.String("flow", flow.Name),
		zap.Bool("success", success),
		zap.Duration("duration", duration))
}

// stepVariables builds the variables for an operation from session and
// tenant state. skip means the step must be silently passed over.
func (u *VirtualUser) stepVariables(op string) (vars map[string]any, skip bool) {
	switch op {
	case OpLogin:
		// Flows normally never re-login; if a policy asks for it, reuse
		// the draw path so the call is at least well-formed.
		cred, err := u.creds.Next(u.cfg)
		if err != nil {
			return nil, true
		}
		return map[string]any{"username": cred.Username, "password": cred.Password}, false
	case OpGetUser:
		return u.getUserVariables(), false
	case OpSearchResultItem:
		return map[string]any{
			"query":    searchTerms[u.rng.Intn(len(searchTerms))],
			"page":     1,
			"pageSize": 20,
		}, false
	case OpChangeOutlet:
		if len(u.session.OutletIDs) == 0 {
			return nil, true
		}
		outlet := u.session.OutletIDs[u.rng.Intn(len(u.session.OutletIDs))]
		vars := map[string]any{"outletId": outlet}
		if u.cfg.DefaultBusinessPartnerKey != "" {
			vars["businessPartnerKey"] = u.cfg.DefaultBusinessPartnerKey
		}
		return vars, false
	case OpNotifications:
		return map[string]any{"unreadOnly": true}, false
	default:
		// Cart, LoadProfilePointAndReward, OrderStreakOffers take no
		// variables.
		return map[string]any{}, false
	}
}

func (u *VirtualUser) getUserVariables() map[string]any {
	vars := map[string]any{}
	if u.cfg.DefaultBusinessPartnerKey != "" {
		vars["businessPartnerKey"] = u.cfg.DefaultBusinessPartnerKey
	}
	return vars
}

func (u *VirtualUser) execute(ctx context.Context, flow, op string, vars map[string]any) gateway.Result {
	query, err := u.queries.Get(op)
	if err != nil {
		return gateway.Result{Kind: gateway.KindParseError, Detail: err.Error()}
	}
	return u.gw.Execute(ctx, gateway.Call{
		Flow:      flow,
		Operation: op,
		Variables: vars,
		Query:     query,
		Token:     u.session.AuthToken,
	})
}

func (u *VirtualUser) event(userID int, flow, op string, r gateway.Result, ok bool) core.Event {
	return core.Event{
		UserID:    userID,
		Timestamp: time.Now(),
		Tenant:    u.cfg.TenantID,
		Flow:      flow,
		Operation: op,
		Duration:  r.Duration,
		Success:   ok,
		Kind:      r.Kind.String(),
		Error:     r.ErrorText(),
		Status:    r.Status,
		Bytes:     r.Bytes,
	}
}

// think pauses for a uniform draw from the policy's wait range,
// returning early if the context ends.
func (u *VirtualUser) think(ctx context.Context) error {
	d := u.policy.thinkTime(u.rng)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil
	case <-timer.C:
		return nil
	}
}
