// Command mockserver runs the stochastic GraphQL backend emulator.
// Per-tenant profiles control error rates, latency and response size.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gqlswarm/internal/config"
	"gqlswarm/internal/mockserver"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "address to listen on")
	configPath := flag.String("config", "", "path to YAML scenario file (built-in profiles when omitted)")
	seed := flag.Int64("seed", 0, "seed for the response engine (0 = time-based)")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	var mockCfg *config.MockConfig
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		mockCfg = cfg.Mock
		if mockCfg != nil && mockCfg.Addr != "" {
			*addr = mockCfg.Addr
		}
	}

	table, err := mockCfg.ProfileTable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	engine := mockserver.NewEngine(table, *seed)
	server := mockserver.NewServer(engine, logger)

	httpServer := &http.Server{
		Addr:    *addr,
		Handler: server.Handler(),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	logger.Info("mock backend listening",
		zap.String("addr", *addr),
		zap.Int64("seed", *seed))

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed", zap.Error(err))
	}
}
