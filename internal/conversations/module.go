// Package conversations ingests the messaging provider's conversation
// webhooks into the conversation directory.
package conversations

import (
	apphttp "barops_backend/internal/http"
	"barops_backend/internal/scheduler"
	"barops_backend/platform/config"
	"barops_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Module is the conversations module implementing http.Module.
type Module struct {
	handler *Handler
	secret  string
	log     *logger.Logger
}

// NewModule wires the webhook endpoint. rdb may be nil, which disables
// de-duplication.
func NewModule(pool *pgxpool.Pool, rdb *redis.Client, queue scheduler.ConversationEnqueuer, cfg config.WebhookConfig, log *logger.Logger) *Module {
	var events EventLog
	if rdb != nil {
		events = NewDeduper(rdb, cfg.GetWebhookDedupTTL())
	}
	service := NewService(NewRepository(pool), events, queue, log)

	return &Module{
		handler: NewHandler(service),
		secret:  cfg.GetWebhookSecret(),
		log:     log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "conversations"
}

// RegisterRoutes mounts the webhook. Without a configured secret the
// endpoint is not exposed.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	if m.secret == "" {
		m.log.Warn("UMBLER_WEBHOOK_SECRET not set, conversation webhook disabled")
		return
	}
	webhooks := ctx.V1.Group("/webhooks")
	webhooks.POST("/umbler", SecretRequired(m.secret), m.handler.HandleEvent)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
