package scheduler

import (
	"context"
	"fmt"

	"barops_backend/platform/config"
	"barops_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// ConversationUpserter stores conversation events in the directory.
type ConversationUpserter interface {
	UpsertConversation(ctx context.Context, payload ConversationUpsertPayload) error
}

type Worker struct {
	server        *asynq.Server
	mux           *asynq.ServeMux
	conversations ConversationUpserter
	log           *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, conversations ConversationUpserter, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:        server,
		mux:           mux,
		conversations: conversations,
		log:           log,
	}

	mux.HandleFunc(TaskConversationUpsert, w.handleConversationUpsert)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleConversationUpsert(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseConversationUpsertPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if payload.ContactID == "" {
		return nil
	}
	return w.conversations.UpsertConversation(ctx, payload)
}
