package users

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resumemind-api/internal/entitlements"
	"resumemind-api/internal/httperr"
	"resumemind-api/internal/shared/server/middleware"
	"resumemind-api/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/session", h.session)
}

func (h *Handler) session(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	p := middleware.PrincipalFromContext(c)
	u, err := h.Svc.Ensure(c.Request.Context(), p)
	if err != nil {
		httperr.Write(c, err, "session")
		return
	}

	now := h.Svc.now()
	plan := u.EffectivePlan(now)
	body := gin.H{
		"guest":        p.IsGuest,
		"plan":         plan,
		"paidUntil":    u.PaidUntil,
		"entitlements": entitlements.For(plan),
	}
	if p.IsGuest {
		body["guestId"] = p.OwnerID
		body["user"] = nil
	} else {
		body["user"] = gin.H{
			"id":          p.OwnerID,
			"email":       u.Email,
			"displayName": u.DisplayName,
		}
	}
	respond.OK(c, body)
}
