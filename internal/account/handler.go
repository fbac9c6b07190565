package account

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"resumemind-api/internal/shared/server/middleware"
	"resumemind-api/internal/shared/server/respond"
	"resumemind-api/internal/shared/telemetry"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/account/claim-guest", h.claimGuest)
}

func (h *Handler) claimGuest(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	p := middleware.PrincipalFromContext(c)
	if p.IsGuest || strings.TrimSpace(p.OwnerID) == "" {
		respond.Error(c, http.StatusUnauthorized, "login_required", "sign in to continue", nil)
		return
	}

	// Only the HttpOnly guest cookie proves ownership of guest data.
	guestID := p.GuestID
	if guestID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "no guest session to claim", gin.H{"fields": []respond.FieldError{
			{Field: middleware.GuestCookieName, Rule: "required", Message: "is required"},
		}})
		return
	}
	if _, err := uuid.Parse(guestID); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid guest id", gin.H{"fields": []respond.FieldError{
			{Field: middleware.GuestCookieName, Rule: "uuid", Message: "must be a valid UUID"},
		}})
		return
	}

	result, err := h.Svc.ClaimGuest(c.Request.Context(), guestID, p.OwnerID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to claim guest data", nil)
		return
	}
	telemetry.Info("account.claim_guest", map[string]any{
		"user_id":  p.OwnerID,
		"guest_id": guestID,
		"total":    result.Total,
	})
	respond.OK(c, result)
}
