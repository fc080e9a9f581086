// cmd/historian/main.go pops room action records from the Redis queue and
// persists them to Postgres.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/partydeck/internal/cache"
	"github.com/jason-s-yu/partydeck/internal/config"
	"github.com/jason-s-yu/partydeck/internal/database"
	"github.com/jason-s-yu/partydeck/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	cmd := &cobra.Command{
		Use:           "partydeck-historian",
		Short:         "Persist room actions from the Redis queue",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadHistorian()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.HistorianConfig) error {
	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	actionLog, err := database.NewActionLog(ctx, pool)
	if err != nil {
		return err
	}

	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	svc := historian.New(cache.NewActionQueue(rdb, cfg.ActionQueueName), actionLog, logger, historian.Options{
		BatchSize:  cfg.BatchSize,
		FlushDelay: time.Duration(cfg.FlushMS) * time.Millisecond,
	})
	return svc.Run(ctx)
}
