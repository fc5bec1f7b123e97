// Package coordinator manages virtual-user lifecycle and orchestration.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"gqlswarm/internal/config"
	"gqlswarm/internal/core"
	"gqlswarm/internal/progress"
	"gqlswarm/internal/ratelimit"
)

const (
	// phaseTickInterval is how often we check for phase transitions
	// and adjust user counts during load profile execution.
	phaseTickInterval = 100 * time.Millisecond
)

// Coordinator spawns virtual users on their own goroutines and assigns
// unique ids. Users are stateful, so every spawned slot builds its own
// user through the factory.
type Coordinator struct {
	nextID      atomic.Int64
	wg          sync.WaitGroup
	reporter    core.Reporter
	log         *zap.Logger
	activeCount atomic.Int32
	stopChans   []chan struct{}
	stopMu      sync.Mutex
}

func NewCoordinator(reporter core.Reporter, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		reporter: reporter,
		log:      log,
	}
}

// Spawn launches count users that loop until the context ends or their
// run fails fatally.
func (c *Coordinator) Spawn(ctx context.Context, count int, factory core.UserFactory) {
	for i := 0; i < count; i++ {
		userID := int(c.nextID.Add(1))
		c.wg.Add(1)
		go func(id int) {
			defer c.wg.Done()
			defer c.recoverPanic(id)
			c.runUser(ctx, id, factory, nil)
		}(userID)
	}
}

// runUser builds one user and loops its Run until the context ends,
// the stop channel fires or the user fails fatally.
func (c *Coordinator) runUser(ctx context.Context, id int, factory core.UserFactory, stop chan struct{}) {
	user, err := factory(id)
	if err != nil {
		c.log.Error("user factory failed", zap.Int("user", id), zap.Error(err))
		c.reporter.Report(core.Event{
			UserID:    id,
			Timestamp: time.Now(),
			Operation: "spawn",
			Kind:      "spawn_error",
			Error:     err.Error(),
		})
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		default:
			if err := user.Run(ctx, id, c.reporter); err != nil {
				if ctx.Err() == nil {
					c.log.Warn("user stopped", zap.Int("user", id), zap.Error(err))
				}
				return
			}
		}
	}
}

// Wait blocks until all spawned users have completed.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// ActiveUsers returns the number of users spawned with stop channels
// that are still running.
func (c *Coordinator) ActiveUsers() int {
	return int(c.activeCount.Load())
}

// spawnWithStop launches a user that can be stopped individually.
func (c *Coordinator) spawnWithStop(ctx context.Context, factory core.UserFactory) chan struct{} {
	stopCh := make(chan struct{})
	userID := int(c.nextID.Add(1))
	c.activeCount.Add(1)
	c.wg.Add(1)

	c.stopMu.Lock()
	c.stopChans = append(c.stopChans, stopCh)
	c.stopMu.Unlock()

	go func(id int, stop chan struct{}) {
		defer func() {
			c.wg.Done()
			c.activeCount.Add(-1)
		}()
		defer c.recoverPanic(id)
		c.runUser(ctx, id, factory, stop)
	}(userID, stopCh)

	return stopCh
}

// recoverPanic reports a panicking user goroutine as a failed event.
func (c *Coordinator) recoverPanic(userID int) {
	if r := recover(); r != nil {
		c.log.Error("user panicked", zap.Int("user", userID), zap.Any("panic", r))
		c.reporter.Report(core.Event{
			UserID:    userID,
			Timestamp: time.Now(),
			Operation: "panic",
			Kind:      "panic",
			Error:     fmt.Sprintf("panic: %v", r),
		})
	}
}

func (c *Coordinator) stopUsers(n int) {
	c.stopMu.Lock()
	defer c.stopMu.Unlock()
	toStop := n
	if toStop > len(c.stopChans) {
		toStop = len(c.stopChans)
	}
	for i := 0; i < toStop; i++ {
		close(c.stopChans[i])
	}
	c.stopChans = c.stopChans[toStop:]
}

func (c *Coordinator) stopAllUsers() {
	c.stopMu.Lock()
	for _, ch := range c.stopChans {
		close(ch)
	}
	c.stopChans = nil
	c.stopMu.Unlock()
}

// RunWithProfile executes a load profile, ramping the spawned user
// count toward each phase's target and retuning the rate limiter on
// phase transitions. Returns when the profile completes or ctx ends.
func (c *Coordinator) RunWithProfile(ctx context.Context, profile *config.LoadProfile, factory core.UserFactory, rateLimiter *ratelimit.RateLimiter, prog *progress.Progress) {
	pm := ratelimit.NewPhaseManager(profile.Phases)

	printMsg := func(format string, args ...interface{}) {
		if prog != nil {
			prog.Printf(format, args...)
		} else {
			fmt.Printf(format+"\n", args...)
		}
	}

	printMsg("Starting load profile with %d phases, total duration: %v",
		len(profile.Phases), profile.TotalDuration())

	currentPhaseIdx := -1
	ticker := time.NewTicker(phaseTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.stopAllUsers()
			return
		case <-ticker.C:
			if pm.IsComplete() {
				c.stopAllUsers()
				return
			}
			newPhaseIdx := pm.CurrentPhaseIndex()
			if newPhaseIdx != currentPhaseIdx {
				currentPhaseIdx = newPhaseIdx
				phase := pm.CurrentPhase()
				if phase != nil {
					if phase.RPS > 0 {
						printMsg("Phase: %s (duration: %v, target users: %d, rps: %d)",
							phase.Name, phase.Duration, pm.TargetUsers(), phase.RPS)
					} else {
						printMsg("Phase: %s (duration: %v, target users: %d)",
							phase.Name, phase.Duration, pm.TargetUsers())
					}
				}
			}
			target := pm.TargetUsers()
			current := c.ActiveUsers()
			if current < target {
				for i := current; i < target; i++ {
					c.spawnWithStop(ctx, factory)
				}
			} else if current > target {
				c.stopUsers(current - target)
			}
			rateLimiter.SetRate(pm.CurrentRPS())
		}
	}
}
