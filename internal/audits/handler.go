package audits

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resumemind-api/internal/extract"
	"resumemind-api/internal/httperr"
	"resumemind-api/internal/shared/server/middleware"
	"resumemind-api/internal/shared/server/respond"
	"resumemind-api/internal/shared/storage/object"
	"resumemind-api/internal/shared/telemetry"
)

// Handler wires HTTP handlers to the audits service.
type Handler struct {
	Svc   *Service
	Store object.ObjectStore
}

// NewHandler constructs a Handler. store may be nil, in which case uploaded
// files are not kept.
func NewHandler(svc *Service, store object.ObjectStore) *Handler {
	return &Handler{Svc: svc, Store: store}
}

// RegisterRoutes attaches audit routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/audits", h.create)
	rg.GET("/audits", h.list)
	rg.GET("/audits/:id", h.get)
}

type createRequest struct {
	ResumeText string `json:"resumeText" binding:"required"`
	TargetRole string `json:"targetRole" binding:"max=120"`
}

func (h *Handler) create(c *gin.Context) {
	p := middleware.PrincipalFromContext(c)
	var in CreateInput

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, extract.MaxUploadBytes+(1<<20))
		fh, err := c.FormFile("file")
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", gin.H{"fields": []respond.FieldError{
				{Field: "file", Rule: "required", Message: "is required"},
			}})
			return
		}
		if fh.Size > extract.MaxUploadBytes {
			respond.Error(c, http.StatusBadRequest, "file_too_large", "file exceeds 5 MB", gin.H{"maxBytes": extract.MaxUploadBytes})
			return
		}
		f, err := fh.Open()
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "could not read file", nil)
			return
		}
		data, err := extract.ReadLimited(f)
		_ = f.Close()
		if err != nil {
			if errors.Is(err, extract.ErrTooLarge) {
				respond.Error(c, http.StatusBadRequest, "file_too_large", "file exceeds 5 MB", gin.H{"maxBytes": extract.MaxUploadBytes})
				return
			}
			respond.Error(c, http.StatusBadRequest, "validation_error", "could not read file", nil)
			return
		}
		text, err := extract.Text(c.Request.Context(), data, fh.Header.Get("Content-Type"), fh.Filename)
		if err != nil {
			switch {
			case errors.Is(err, extract.ErrUnsupported):
				respond.Error(c, http.StatusBadRequest, "unsupported_file", "upload a PDF, DOCX or plain text resume", nil)
			case errors.Is(err, extract.ErrTooLarge):
				respond.Error(c, http.StatusBadRequest, "file_too_large", "extracted text is too large", gin.H{"maxChars": MaxResumeChars})
			default:
				respond.Error(c, http.StatusBadRequest, "extraction_failed", "could not extract text from file", nil)
			}
			return
		}
		if _, err := ValidateText(text); err != nil {
			writeCreateError(c, err)
			return
		}
		in = CreateInput{ResumeText: text, TargetRole: c.PostForm("targetRole"), FileName: fh.Filename}
		if h.Store != nil {
			saved, err := h.Store.Save(c.Request.Context(), p.CounterKey(), fh.Filename, bytes.NewReader(data))
			if err != nil {
				respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to store file", nil)
				return
			}
			in.FileKey = saved.Key
		}
	} else {
		var req createRequest
		if !respond.BindJSON(c, &req) {
			return
		}
		in = CreateInput{ResumeText: req.ResumeText, TargetRole: req.TargetRole}
	}

	audit, err := h.Svc.Create(c.Request.Context(), p, in)
	if err != nil {
		if in.FileKey != "" {
			h.discardUpload(in.FileKey)
		}
		writeCreateError(c, err)
		return
	}
	c.Set("auditId", audit.ID)
	respond.Created(c, audit)
}

func writeCreateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrResumeTooShort):
		respond.Error(c, http.StatusBadRequest, "resume_too_short", "resume text must be at least 200 characters", gin.H{"min": MinResumeChars})
	case errors.Is(err, ErrResumeTooLong):
		respond.Error(c, http.StatusBadRequest, "resume_too_long", "resume text must be at most 30000 characters", gin.H{"max": MaxResumeChars})
	default:
		httperr.Write(c, err, "audit")
	}
}

// discardUpload removes a stored file whose audit was never written.
func (h *Handler) discardUpload(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Store.Delete(ctx, key); err != nil {
		telemetry.Warn("audit.upload_cleanup_failed", map[string]any{"key": key, "error": err.Error()})
	}
}

func (h *Handler) get(c *gin.Context) {
	p := middleware.PrincipalFromContext(c)
	audit, err := h.Svc.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		httperr.Write(c, err, "audit")
		return
	}
	respond.OK(c, audit)
}

func (h *Handler) list(c *gin.Context) {
	p := middleware.PrincipalFromContext(c)
	limit, offset := respond.Paging(c)
	items, err := h.Svc.List(c.Request.Context(), p, limit, offset)
	if err != nil {
		httperr.Write(c, err, "audits")
		return
	}
	respond.List(c, items, limit, offset)
}
