package builders

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resumemind-api/internal/httperr"
	"resumemind-api/internal/shared/server/middleware"
	"resumemind-api/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the builders service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches builder routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/builders", h.create)
	rg.GET("/builders", h.list)
	rg.GET("/builders/:id", h.get)
	rg.PATCH("/builders/:id", h.update)
}

type createRequest struct {
	AuditID         string `json:"auditId" binding:"required"`
	TargetRole      string `json:"targetRole" binding:"required,max=120"`
	ExperienceLevel string `json:"experienceLevel" binding:"omitempty,oneof=entry junior mid senior lead executive"`
	JobDescription  string `json:"jobDescription" binding:"max=10000"`
	Template        string `json:"template" binding:"omitempty,oneof=classic modern compact"`
}

type updateRequest struct {
	Template *string `json:"template" binding:"omitempty,oneof=classic modern compact"`
	Resume   *Resume `json:"resume"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if !respond.BindJSON(c, &req) {
		return
	}
	p := middleware.PrincipalFromContext(c)
	b, err := h.Svc.Create(c.Request.Context(), p, CreateInput{
		AuditID:         strings.TrimSpace(req.AuditID),
		TargetRole:      req.TargetRole,
		ExperienceLevel: req.ExperienceLevel,
		JobDescription:  req.JobDescription,
		Template:        req.Template,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set("builderId", b.ID)
	respond.Created(c, b)
}

func (h *Handler) get(c *gin.Context) {
	b, err := h.Svc.Get(c.Request.Context(), middleware.PrincipalFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, b)
}

func (h *Handler) list(c *gin.Context) {
	limit, offset := respond.Paging(c)
	items, err := h.Svc.List(c.Request.Context(), middleware.PrincipalFromContext(c), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.List(c, items, limit, offset)
}

func (h *Handler) update(c *gin.Context) {
	var req updateRequest
	if !respond.BindJSON(c, &req) {
		return
	}
	b, err := h.Svc.Update(c.Request.Context(), middleware.PrincipalFromContext(c), c.Param("id"), UpdateInput{
		Template: req.Template,
		Resume:   req.Resume,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, b)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidTemplate):
		respond.Error(c, http.StatusBadRequest, "invalid_template", "template must be one of classic, modern, compact", gin.H{"allowed": Templates})
	case errors.Is(err, ErrInvalidResume):
		respond.Error(c, http.StatusBadRequest, "invalid_resume", err.Error(), nil)
	case errors.Is(err, ErrAuditNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "audit not found", nil)
	case errors.Is(err, ErrNothingToUpdate):
		respond.Error(c, http.StatusBadRequest, "validation_error", "template or resume is required", nil)
	default:
		httperr.Write(c, err, "builder")
	}
}
