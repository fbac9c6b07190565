package exports

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"resumemind-api/internal/httperr"
	"resumemind-api/internal/shared/server/middleware"
	"resumemind-api/internal/shared/server/respond"
	"resumemind-api/internal/shared/storage/docstore"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the authenticated export routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/builders/:id/export", h.export)
	rg.GET("/exports/usage", h.usage)
}

// RegisterPrintRoutes attaches the signed print page. It must sit outside
// the session middleware.
func (h *Handler) RegisterPrintRoutes(r gin.IRoutes) {
	r.GET("/print/builders/:id", h.print)
}

type exportRequest struct {
	Watermark *bool `json:"watermark"`
}

func (h *Handler) export(c *gin.Context) {
	var req exportRequest
	if !respond.BindOptionalJSON(c, &req) {
		return
	}
	out, err := h.Svc.Export(c.Request.Context(), middleware.PrincipalFromContext(c), c.Param("id"), req.Watermark)
	if err != nil {
		var limit *LimitError
		switch {
		case errors.As(err, &limit):
			c.Header("Retry-After", strconv.Itoa(int(limit.ResetsAt.Sub(h.Svc.now()).Seconds())+1))
			respond.Error(c, http.StatusTooManyRequests, "export_limit_reached", "daily export limit reached",
				gin.H{"limit": limit.Limit, "resetsAt": limit.ResetsAt})
		case errors.Is(err, ErrRenderFailed):
			respond.Error(c, http.StatusBadGateway, "render_failed", "failed to render PDF", nil)
		default:
			httperr.Write(c, err, "builder")
		}
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+out.FileName+`"`)
	c.Header("X-Watermark", strconv.FormatBool(out.Watermark))
	if out.Key != "" {
		c.Header("X-Export-Key", out.Key)
	}
	c.Data(http.StatusOK, "application/pdf", out.PDF)
}

func (h *Handler) usage(c *gin.Context) {
	u, err := h.Svc.Usage(c.Request.Context(), middleware.PrincipalFromContext(c))
	if err != nil {
		httperr.Write(c, err, "usage")
		return
	}
	respond.OK(c, u)
}

func (h *Handler) print(c *gin.Context) {
	var buf bytes.Buffer
	err := h.Svc.PrintPage(c.Request.Context(), c.Param("id"), c.Query("exp"), c.Query("wm"), c.Query("sig"), &buf)
	switch {
	case err == nil:
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
	case errors.Is(err, ErrInvalidSignature):
		respond.Error(c, http.StatusUnauthorized, "invalid_signature", "invalid print signature", nil)
	case errors.Is(err, ErrExpired):
		respond.Error(c, http.StatusUnauthorized, "expired", "print link expired", nil)
	case errors.Is(err, docstore.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "builder not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to render print page", nil)
	}
}
