package conversations

import (
	"crypto/subtle"
	"net/http"

	"barops_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// HeaderWebhookSecret carries the shared secret configured at the provider.
const HeaderWebhookSecret = "X-Webhook-Secret"

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// SecretRequired rejects requests that do not carry the shared secret.
func SecretRequired(secret string) gin.HandlerFunc {
	expected := []byte(secret)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader(HeaderWebhookSecret))
		if len(expected) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
			return
		}
		c.Next()
	}
}

// HandleEvent handles POST /api/v1/webhooks/umbler
func (h *Handler) HandleEvent(c *gin.Context) {
	var ev Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	resp, err := h.service.Ingest(c.Request.Context(), ev)
	if httpkit.HandleError(c, err) {
		return
	}

	if resp.Duplicate {
		httpkit.OK(c, resp)
		return
	}
	httpkit.Accepted(c, resp)
}
