package generations

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"resumemind-api/internal/audits"
	"resumemind-api/internal/httperr"
	"resumemind-api/internal/shared/server/middleware"
	"resumemind-api/internal/shared/server/respond"
)

// Handler serves every derivative document kind.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches routes for all kinds.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	for _, kind := range Kinds {
		if kind.BuilderKeyed {
			rg.POST("/builders/:id/"+kind.Path, h.createForBuilder(kind))
			rg.GET("/builders/:id/"+kind.Path, h.listForBuilder(kind))
		} else {
			rg.POST("/"+kind.Path, h.createStandalone(kind))
			rg.GET("/"+kind.Path, h.listOwned(kind))
		}
		rg.GET("/"+kind.Path+"/:id", h.get(kind))
	}
}

type coverLetterRequest struct {
	CompanyName    string `json:"companyName" binding:"required,max=200"`
	JobDescription string `json:"jobDescription" binding:"max=10000"`
	Tone           string `json:"tone" binding:"omitempty,oneof=professional friendly enthusiastic formal"`
}

type interviewGuideRequest struct {
	JobDescription string `json:"jobDescription" binding:"max=10000"`
}

type linkedInPostsRequest struct {
	Count int    `json:"count" binding:"omitempty,min=1,max=5"`
	Topic string `json:"topic" binding:"max=200"`
}

type translationRequest struct {
	Language string `json:"language" binding:"required,max=60"`
}

type careerPathRequest struct {
	Goal       string `json:"goal" binding:"required,max=500"`
	AuditID    string `json:"auditId"`
	ResumeText string `json:"resumeText"`
}

type salaryRequest struct {
	Role            string   `json:"role" binding:"required,max=120"`
	Location        string   `json:"location" binding:"required,max=120"`
	YearsExperience *float64 `json:"yearsExperience" binding:"required,min=0,max=60"`
	AuditID         string   `json:"auditId"`
}

// bindInput decodes the request body for kind.
func bindInput(c *gin.Context, kind Kind) (Input, bool) {
	switch kind.Feature {
	case CoverLetters.Feature:
		var req coverLetterRequest
		if !respond.BindJSON(c, &req) {
			return Input{}, false
		}
		return Input{CompanyName: req.CompanyName, JobDescription: req.JobDescription, Tone: req.Tone}, true
	case InterviewGuides.Feature:
		var req interviewGuideRequest
		if !respond.BindOptionalJSON(c, &req) {
			return Input{}, false
		}
		return Input{JobDescription: req.JobDescription}, true
	case LinkedInPosts.Feature:
		var req linkedInPostsRequest
		if !respond.BindOptionalJSON(c, &req) {
			return Input{}, false
		}
		return Input{Count: req.Count, Topic: req.Topic}, true
	case Translations.Feature:
		var req translationRequest
		if !respond.BindJSON(c, &req) {
			return Input{}, false
		}
		return Input{Language: req.Language}, true
	case CareerPaths.Feature:
		var req careerPathRequest
		if !respond.BindJSON(c, &req) {
			return Input{}, false
		}
		return Input{Goal: req.Goal, AuditID: req.AuditID, ResumeText: req.ResumeText}, true
	case SalaryEstimates.Feature:
		var req salaryRequest
		if !respond.BindJSON(c, &req) {
			return Input{}, false
		}
		return Input{Role: req.Role, Location: req.Location, YearsExperience: *req.YearsExperience, AuditID: req.AuditID}, true
	}
	// cheat sheets take no input
	return Input{}, true
}

func (h *Handler) createForBuilder(kind Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		in, ok := bindInput(c, kind)
		if !ok {
			return
		}
		g, err := h.Svc.CreateForBuilder(c.Request.Context(), middleware.PrincipalFromContext(c), kind, c.Param("id"), in)
		if err != nil {
			writeError(c, err, kind)
			return
		}
		respond.Created(c, g)
	}
}

func (h *Handler) createStandalone(kind Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		in, ok := bindInput(c, kind)
		if !ok {
			return
		}
		g, err := h.Svc.CreateStandalone(c.Request.Context(), middleware.PrincipalFromContext(c), kind, in)
		if err != nil {
			writeError(c, err, kind)
			return
		}
		respond.Created(c, g)
	}
}

func (h *Handler) get(kind Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		g, err := h.Svc.Get(c.Request.Context(), middleware.PrincipalFromContext(c), kind, c.Param("id"))
		if err != nil {
			writeError(c, err, kind)
			return
		}
		respond.OK(c, g)
	}
}

func (h *Handler) listForBuilder(kind Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := respond.Paging(c)
		items, err := h.Svc.ListForBuilder(c.Request.Context(), middleware.PrincipalFromContext(c), kind, c.Param("id"), limit, offset)
		if err != nil {
			writeError(c, err, kind)
			return
		}
		respond.List(c, items, limit, offset)
	}
}

func (h *Handler) listOwned(kind Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := respond.Paging(c)
		items, err := h.Svc.ListOwned(c.Request.Context(), middleware.PrincipalFromContext(c), kind, limit, offset)
		if err != nil {
			writeError(c, err, kind)
			return
		}
		respond.List(c, items, limit, offset)
	}
}

func writeError(c *gin.Context, err error, kind Kind) {
	switch {
	case errors.Is(err, ErrBuilderMissing):
		respond.Error(c, http.StatusNotFound, "not_found", "builder not found", nil)
	case errors.Is(err, ErrAuditMissing):
		respond.Error(c, http.StatusNotFound, "not_found", "audit not found", nil)
	case errors.Is(err, ErrSourceRequired):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, audits.ErrResumeTooShort):
		respond.Error(c, http.StatusBadRequest, "resume_too_short", "resume text must be at least 200 characters", gin.H{"min": audits.MinResumeChars})
	case errors.Is(err, audits.ErrResumeTooLong):
		respond.Error(c, http.StatusBadRequest, "resume_too_long", "resume text must be at most 30000 characters", gin.H{"max": audits.MaxResumeChars})
	default:
		httperr.Write(c, err, kind.Feature)
	}
}
