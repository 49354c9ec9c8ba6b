// Package campaigns provides the campaign outcome reconciliation module.
package campaigns

import (
	"barops_backend/internal/campaigns/handler"
	"barops_backend/internal/campaigns/repository"
	"barops_backend/internal/campaigns/service"
	apphttp "barops_backend/internal/http"
	"barops_backend/internal/umbler"
	"barops_backend/platform/config"
	"barops_backend/platform/logger"
	"barops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the campaigns domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new campaigns module with all dependencies wired
func NewModule(pool *pgxpool.Pool, client *umbler.Client, cfg *config.Config, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	fallback := umbler.Credentials{APIToken: cfg.GetUmblerAPIToken(), OrganizationID: cfg.GetUmblerOrganizationID()}
	svc := service.New(client, repo, cfg, fallback, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "campaigns"
}

// RegisterRoutes registers the module's routes under /api/v1/campaigns
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	campaigns := ctx.Protected.Group("/campaigns")
	m.handler.RegisterRoutes(campaigns)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
