// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jason-s-yu/partydeck/internal/bus"
	"github.com/jason-s-yu/partydeck/internal/cache"
	"github.com/jason-s-yu/partydeck/internal/catalog"
	"github.com/jason-s-yu/partydeck/internal/config"
	"github.com/jason-s-yu/partydeck/internal/database"
	"github.com/jason-s-yu/partydeck/internal/game"
	"github.com/jason-s-yu/partydeck/internal/handlers"
	"github.com/jason-s-yu/partydeck/internal/room"
	"github.com/jason-s-yu/partydeck/internal/store"
	"github.com/jason-s-yu/partydeck/internal/store/sqlite"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		port     int
		backend  string
		logLevel string
		decksDir string
	)
	cmd := &cobra.Command{
		Use:           "partydeck",
		Short:         "Multiplayer card table server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.Port = port
			}
			if flags.Changed("store") {
				cfg.StoreBackend = backend
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if flags.Changed("decks") {
				cfg.DecksDir = decksDir
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	cmd.Flags().IntVar(&port, "port", 3000, "HTTP listen port (overrides PORT)")
	cmd.Flags().StringVar(&backend, "store", config.BackendMemory, "session store backend: memory, sqlite, postgres or redis (overrides STORE_BACKEND)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (overrides LOG_LEVEL)")
	cmd.Flags().StringVar(&decksDir, "decks", "decks", "deck catalog directory (overrides DECKS_DIR)")
	return cmd
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", level)
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

func run(ctx context.Context, cfg config.Config) error {
	logger := newLogger(cfg.LogLevel)

	cat, err := catalog.OpenDirectory(cfg.DecksDir, logger)
	if err != nil {
		return fmt.Errorf("load deck catalog: %w", err)
	}
	go reloadOnHangup(ctx, cat, logger)

	// The Redis client is shared by the redis store and the action queue;
	// it is closed here, once, after the store.
	var rdb *redis.Client
	redisClient := func() (*redis.Client, error) {
		if rdb != nil {
			return rdb, nil
		}
		c, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		rdb = c
		return rdb, nil
	}

	st, err := openStore(ctx, cfg, redisClient)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warnf("close store: %v", err)
		}
		if rdb != nil {
			if err := rdb.Close(); err != nil {
				logger.Warnf("close redis: %v", err)
			}
		}
	}()

	hub := bus.NewHub(logger)
	rooms := room.NewRegistry(st, logger)

	var opts []game.Option
	if cfg.PublishActions {
		c, err := redisClient()
		if err != nil {
			return err
		}
		opts = append(opts, game.WithRecorder(cache.NewActionQueue(c, cfg.ActionQueueName)))
		logger.Infof("publishing room actions to %s", cfg.ActionQueueName)
	}
	engine := game.NewEngine(rooms, st, cat, hub, logger, opts...)

	srv := &handlers.Server{
		Logger:  logger,
		Engine:  engine,
		Store:   st,
		Catalog: cat,
		Hub:     hub,
		WS:      handlers.WSOptions{OriginPatterns: cfg.AllowedOrigins, OutboxSize: cfg.OutboxSize},
	}
	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Running on %s (store: %s)", cfg.Addr(), cfg.StoreBackend)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server exited: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg config.Config, redisClient func() (*redis.Client, error)) (*store.Store, error) {
	switch strings.ToLower(cfg.StoreBackend) {
	case config.BackendSQLite:
		b, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store.New(b), nil
	case config.BackendPostgres:
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		b, err := database.NewDocumentBackend(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return store.New(b), nil
	case config.BackendRedis:
		c, err := redisClient()
		if err != nil {
			return nil, err
		}
		return store.New(cache.NewDocumentBackend(c, "")), nil
	default:
		return store.NewMemory(), nil
	}
}

// reloadOnHangup rereads the deck catalog on SIGHUP.
func reloadOnHangup(ctx context.Context, cat *catalog.Directory, logger *logrus.Logger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGHUP)
	defer signal.Stop(sigs)
	for {
		select {
		case <-ctx.Done():
			return
		case <-sigs:
			if err := cat.Reload(); err != nil {
				logger.Warnf("catalog reload failed: %v", err)
				continue
			}
			logger.Infof("catalog reloaded: %d public decks", len(cat.PublicDecks()))
		}
	}
}
