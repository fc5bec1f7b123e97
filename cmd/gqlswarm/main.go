// Command gqlswarm runs a multi-tenant GraphQL load test: virtual
// users authenticate, discover their outlets and loop weighted flows
// against the target endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"gqlswarm/internal/collector"
	"gqlswarm/internal/config"
	"gqlswarm/internal/coordinator"
	"gqlswarm/internal/core"
	"gqlswarm/internal/credentials"
	"gqlswarm/internal/gateway"
	"gqlswarm/internal/progress"
	"gqlswarm/internal/queries"
	"gqlswarm/internal/ratelimit"
	"gqlswarm/internal/vuser"
)

const (
	ExitSuccess         = 0
	ExitThresholdFailed = 1
	ExitError           = 2
)

func main() {
	configPath := flag.String("config", "", "path to YAML scenario file (built-in scenario when omitted)")
	endpoint := flag.String("endpoint", "", "GraphQL endpoint (overrides scenario)")
	users := flag.Int("users", 0, "number of virtual users (overrides scenario)")
	duration := flag.Duration("duration", 0, "test duration (overrides scenario)")
	output := flag.String("output", "text", "output format: text, json")
	quiet := flag.Bool("quiet", false, "suppress progress output during test")
	verbose := flag.Bool("verbose", false, "enable debug output (request/response logging)")
	seed := flag.Int64("seed", 0, "base seed for user randomness (0 = time-based)")
	timeout := flag.Duration("timeout", 30*time.Second, "per-call HTTP timeout")
	flag.Parse()

	if *output != "text" && *output != "json" {
		fmt.Fprintf(os.Stderr, "error: --output must be 'text' or 'json', got %q\n", *output)
		os.Exit(ExitError)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(ExitError)
		}
		cfg = loaded
	}
	if *endpoint != "" {
		cfg.Target.Endpoint = *endpoint
	}
	if *users > 0 {
		cfg.Run.Users = *users
	}
	if *duration > 0 {
		cfg.Run.Duration = *duration
	}
	if cfg.Target.Endpoint == "" {
		fmt.Fprintln(os.Stderr, "error: no endpoint configured (use --endpoint or the scenario file)")
		os.Exit(ExitError)
	}

	logger := newLogger(*verbose, *quiet)
	defer func() { _ = logger.Sync() }()

	catalog, err := cfg.Catalog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}

	var queryStore queries.Store = queries.Builtin()
	if cfg.Target.QueriesDir != "" {
		queryStore = queries.Fallback{
			queries.NewDirStore(os.DirFS(cfg.Target.QueriesDir)),
			queries.Builtin(),
		}
	}

	var credSource credentials.Source
	if cfg.Target.CredentialsDir != "" {
		credSource = credentials.NewFileSource(cfg.Target.CredentialsDir, nil)
	} else {
		credSource = credentials.NewStaticSource(map[string][]credentials.Credential{
			credentials.FallbackPool: {{Username: "loadtest", Password: "loadtest"}},
		}, nil)
	}

	var wire *gateway.WireLogger
	if *verbose {
		wire = gateway.NewWireLogger(os.Stderr)
	}

	var rateLimiter *ratelimit.RateLimiter
	if cfg.Run.RPS > 0 {
		rateLimiter = ratelimit.NewRateLimiter(cfg.Run.RPS)
	} else if cfg.Run.Profile != nil {
		for _, phase := range cfg.Run.Profile.Phases {
			if phase.RPS > 0 {
				rateLimiter = ratelimit.NewRateLimiter(phase.RPS)
				break
			}
		}
	}

	baseSeed := *seed
	if baseSeed == 0 {
		baseSeed = time.Now().UnixNano()
	}

	builder := &vuser.Builder{
		Endpoint: cfg.Target.Endpoint,
		Client: ratelimit.PacedDoer{
			Next:    &http.Client{Timeout: *timeout},
			Limiter: rateLimiter,
		},
		Catalog:     catalog,
		Credentials: credSource,
		Queries:     queryStore,
		Policies:    cfg.BehaviorPolicies(),
		Logger:      logger,
		Wire:        wire,
		Seed:        baseSeed,
	}
	factory, err := builder.Factory()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}

	coll := collector.NewCollector()
	coord := coordinator.NewCoordinator(coll, logger)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	interrupted := false
	go func() {
		<-sigCh
		interrupted = true
		if !*quiet {
			fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down...")
		}
		cancel()
	}()

	prog := progress.NewProgress(coll, coord.ActiveUsers, *quiet)

	if cfg.Run.Profile != nil && len(cfg.Run.Profile.Phases) > 0 {
		runWithProfile(ctx, cfg, coord, factory, coll, rateLimiter, prog)
	} else {
		runFlat(ctx, cfg, coord, factory, coll, prog)
	}

	prog.Stop()

	metrics := coll.Compute()

	var thresholdResults *collector.ThresholdResults
	if cfg.Thresholds != nil {
		thresholdResults = cfg.Thresholds.Check(metrics)
	}

	if *output == "json" {
		coll.PrintJSON(os.Stdout, metrics, thresholdResults)
	} else {
		coll.PrintText(os.Stdout, metrics, thresholdResults)
	}

	if interrupted {
		os.Exit(ExitSuccess) // partial results are fine on interrupt
	}

	if thresholdResults != nil && !thresholdResults.Passed {
		if *output == "text" {
			fmt.Fprintln(os.Stderr, "\nThreshold check failed!")
		}
		os.Exit(ExitThresholdFailed)
	}

	os.Exit(ExitSuccess)
}

// runFlat spawns a fixed user count for a fixed duration.
func runFlat(ctx context.Context, cfg *config.Config, coord *coordinator.Coordinator, factory core.UserFactory, coll *collector.Collector, prog *progress.Progress) {
	if cfg.Run.Users < 1 {
		fmt.Fprintln(os.Stderr, "error: --users must be >= 1")
		os.Exit(ExitError)
	}

	prog.Printf("gqlswarm starting: %d users, duration %v", cfg.Run.Users, cfg.Run.Duration)

	ctx, cancel := context.WithTimeout(ctx, cfg.Run.Duration)
	defer cancel()

	prog.Start()
	coord.Spawn(ctx, cfg.Run.Users, factory)
	coord.Wait()
	coll.Close()
}

// runWithProfile ramps users according to the load profile phases.
func runWithProfile(ctx context.Context, cfg *config.Config, coord *coordinator.Coordinator, factory core.UserFactory, coll *collector.Collector, rateLimiter *ratelimit.RateLimiter, prog *progress.Progress) {
	profile := cfg.Run.Profile

	prog.Printf("gqlswarm starting with load profile")

	totalDuration := profile.TotalDuration() + 5*time.Second
	ctx, cancel := context.WithTimeout(ctx, totalDuration)
	defer cancel()

	prog.Start()
	coord.RunWithProfile(ctx, profile, factory, rateLimiter, prog)
	coord.Wait()
	coll.Close()
}

func newLogger(verbose, quiet bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	if quiet {
		level = zapcore.ErrorLevel
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		level,
	))
}
