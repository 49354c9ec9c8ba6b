package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"barops_backend/internal/conversations"
	"barops_backend/internal/scheduler"
	"barops_backend/platform/config"
	"barops_backend/platform/db"
	"barops_backend/platform/logger"
	"barops_backend/platform/retry"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := retry.Do(ctx, log, "database connection", 5, 2*time.Second, func(ctx context.Context) error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	// The worker only writes the directory; de-duplication and enqueueing
	// happen on the API side.
	directory := conversations.NewService(conversations.NewRepository(pool), nil, nil, log)

	worker, err := scheduler.NewWorker(cfg, directory, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}
