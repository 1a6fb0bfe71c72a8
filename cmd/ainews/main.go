package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ainews/internal/core"
	"ainews/internal/features/digest"
	"ainews/internal/server"

	"github.com/joho/godotenv"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load .env file if it exists
	godotenv.Load()

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [serve|run|migrate up|down|status]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := core.NewLogger()

	if err := execute(logger, flag.Args()); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func execute(logger *core.Logger, args []string) error {
	config, err := core.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	level, _ := core.ParseLogLevel(config.Log.Level)
	logger.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := core.OpenDatabase(config.Database, logger)
	if err != nil {
		return err
	}

	digestConfig, err := digest.NewConfig(config)
	if err != nil {
		db.Close()
		return err
	}

	feature, err := digest.NewFeature(ctx, logger, db, digestConfig)
	if err != nil {
		db.Close()
		return err
	}

	registry := core.NewRegistry(logger)
	if err := registry.Register(feature); err != nil {
		db.Close()
		return err
	}

	command := "serve"
	if len(args) > 0 {
		command = args[0]
	}

	switch command {
	case "serve":
		return serve(ctx, logger, config, db, registry)
	case "run":
		defer db.Close()
		defer feature.Shutdown(context.Background())
		return runOnce(ctx, registry, feature)
	case "migrate":
		defer db.Close()
		defer feature.Shutdown(context.Background())
		return migrate(ctx, registry, feature, args[1:])
	default:
		db.Close()
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func serve(ctx context.Context, logger *core.Logger, config *core.Config, db *core.Database, registry *core.Registry) error {
	srv := server.New(config, logger, db, registry)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return errors.Join(serveErr, srv.Shutdown(shutdownCtx))
}

func runOnce(ctx context.Context, registry *core.Registry, feature *digest.Feature) error {
	if !feature.Enabled() {
		return fmt.Errorf("digest feature is disabled")
	}
	if err := registry.MigrateAll(ctx); err != nil {
		return err
	}

	report, err := feature.RunPipeline(ctx)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func migrate(ctx context.Context, registry *core.Registry, feature *digest.Feature, args []string) error {
	manager := feature.GetMigrationManager()

	action := "up"
	if len(args) > 0 {
		action = args[0]
	}

	switch action {
	case "up":
		return registry.MigrateAll(ctx)
	case "down":
		return manager.Rollback(ctx)
	case "status":
		status, err := manager.Status(ctx)
		if err != nil {
			return err
		}
		pending, err := manager.GetPendingMigrations(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Applied: %d\n", status.AppliedCount)
		for _, m := range status.Applied {
			fmt.Printf("  %03d %s (%s)\n", m.Version, m.Name, m.AppliedAt.Format(time.RFC3339))
		}
		fmt.Printf("Pending: %d\n", len(pending))
		for _, m := range pending {
			fmt.Printf("  %03d %s\n", m.Version, m.Name)
		}
		return nil
	default:
		return fmt.Errorf("unknown migrate action %q", action)
	}
}
