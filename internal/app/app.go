package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vidhub/backend/internal/auth"
	"github.com/vidhub/backend/internal/cache"
	"github.com/vidhub/backend/internal/config"
	"github.com/vidhub/backend/internal/db"
	"github.com/vidhub/backend/internal/httpserver"
	"github.com/vidhub/backend/internal/logging"
	"github.com/vidhub/backend/internal/migrate"
	"github.com/vidhub/backend/internal/storage"
)

// Run bootstraps the vidhub backend application.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, or seed")
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "migrate":
		return runMigrations(ctx, args[1:])
	case "seed":
		return runSeed(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	logger.Info("loaded configuration", "config", cfg.String())

	pool, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	objects, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	var kv auth.KV
	redis := cache.New(cache.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer redis.Close()
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	if err := redis.Ping(pingCtx); err != nil {
		logger.Warn("redis unreachable, access token revocation disabled", "addr", cfg.Redis.Addr, "error", err)
	} else {
		kv = redis
	}
	cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	application, err := buildDependencies(externals{
		Pool:     pool,
		Objects:  objects,
		KV:       kv,
		Registry: registry,
		Logger:   logger,
	}, cfg)
	if err != nil {
		return err
	}

	srv := httpserver.New(cfg.HTTP, application.Handler())

	logger.Info("starting http server", "port", cfg.HTTP.Port)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalCh)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("shutdown http server: %w", err))
	}
	if err := application.Close(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("drain view recorder: %w", err))
	}
	return runErr
}

func runMigrations(ctx context.Context, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	command := "up"
	if len(args) > 0 {
		command = args[0]
	}
	return migrate.Run(ctx, cfg.Database.URL, command, os.Stdout)
}

func runSeed(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected seed name (e.g. dev)")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	seedPath, err := resolveSeed(cfg.Database.SeedDir, args[0])
	if err != nil {
		return err
	}
	contents, err := os.ReadFile(seedPath)
	if err != nil {
		return fmt.Errorf("read seed %s: %w", filepath.Base(seedPath), err)
	}

	pool, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, string(contents)); err != nil {
		return fmt.Errorf("apply seed %s: %w", filepath.Base(seedPath), err)
	}

	fmt.Printf("applied seed %s\n", filepath.Base(seedPath))
	return nil
}

// resolveSeed maps a seed name such as "dev" to <seedDir>/dev_seed.sql.
func resolveSeed(seedDir, name string) (string, error) {
	if !filepath.IsAbs(seedDir) {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
		seedDir = filepath.Join(wd, seedDir)
	}

	if name != filepath.Base(name) {
		return "", fmt.Errorf("seed name %q must not contain a path", name)
	}
	if !strings.HasSuffix(name, ".sql") {
		name = fmt.Sprintf("%s_seed.sql", name)
	}
	return filepath.Join(seedDir, name), nil
}
