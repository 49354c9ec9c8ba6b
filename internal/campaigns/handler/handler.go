package handler

import (
	"context"
	"net/http"
	"strings"

	"barops_backend/internal/campaigns/transport"
	"barops_backend/platform/apperr"
	"barops_backend/platform/httpkit"
	"barops_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgBarForbidden     = "no access to this bar"
)

// CampaignService is what the handler needs from the campaigns service.
type CampaignService interface {
	Report(ctx context.Context, campaignID string, req transport.ReportRequest) (transport.ReportResponse, error)
	ListCampaigns(ctx context.Context, req transport.ListCampaignsRequest) (transport.ListCampaignsResponse, error)
	DefaultBarID() int
}

// Handler handles HTTP requests for campaigns
type Handler struct {
	svc CampaignService
	val *validator.Validator
}

// New creates a new campaigns handler
func New(svc CampaignService, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the campaign routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id/report", h.Report)
}

// List handles GET /api/v1/campaigns
func (h *Handler) List(c *gin.Context) {
	var req transport.ListCampaignsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation(msgValidationFailed).WithDetails(err.Error()))
		return
	}

	barID, ok := h.authorizeBar(c, req.BarID)
	if !ok {
		return
	}
	req.BarID = barID

	result, err := h.svc.ListCampaigns(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Report handles GET /api/v1/campaigns/:id/report
func (h *Handler) Report(c *gin.Context) {
	campaignID := strings.TrimSpace(c.Param("id"))
	if campaignID == "" {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "campaign id is required")
		return
	}

	var req transport.ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	req.Mode = strings.ReplaceAll(strings.ToLower(req.Mode), "-", "_")
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation(msgValidationFailed).WithDetails(err.Error()))
		return
	}

	barID, ok := h.authorizeBar(c, req.BarID)
	if !ok {
		return
	}
	req.BarID = barID

	result, err := h.svc.Report(c.Request.Context(), campaignID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// authorizeBar picks the bar a request is about and checks the caller may
// read it. Tokens scoped to a bar default to that bar.
func (h *Handler) authorizeBar(c *gin.Context, requested int) (int, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return 0, false
	}

	barID := requested
	if barID == 0 {
		if scoped, ok := identity.BarID(); ok {
			barID = scoped
		} else {
			barID = h.svc.DefaultBarID()
		}
	}

	if !identity.CanAccessBar(barID) {
		httpkit.HandleError(c, apperr.Forbidden(msgBarForbidden))
		return 0, false
	}
	return barID, true
}
