// Package httperr maps domain errors shared by the feature handlers onto the
// standard error response.
package httperr

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"resumemind-api/internal/entitlements"
	"resumemind-api/internal/llm"
	"resumemind-api/internal/shared/auth"
	"resumemind-api/internal/shared/server/respond"
	"resumemind-api/internal/shared/storage/docstore"
)

// Write sends the response for err. subject names the resource in messages,
// e.g. "audit".
func Write(c *gin.Context, err error, subject string) {
	switch {
	case errors.Is(err, context.Canceled):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
	case errors.Is(err, docstore.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", subject+" not found", nil)
	case errors.Is(err, auth.ErrLoginRequired):
		respond.Error(c, http.StatusUnauthorized, "login_required", "sign in to continue", nil)
	case errors.Is(err, auth.ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "you do not have access to this "+subject, nil)
	case errors.Is(err, entitlements.ErrUpgradeRequired):
		var locked *entitlements.FeatureLockedError
		var details interface{}
		if errors.As(err, &locked) {
			details = gin.H{"feature": locked.Feature, "requiredPlan": locked.Required}
		}
		respond.Error(c, http.StatusPaymentRequired, "upgrade_required", "upgrade your plan to use this feature", details)
	case errors.Is(err, llm.ErrNotConfigured):
		respond.Error(c, http.StatusBadGateway, "llm_unavailable", "AI provider is not configured", nil)
	case errors.Is(err, llm.ErrInvalidOutput):
		respond.Error(c, http.StatusBadGateway, "llm_invalid_output", "AI provider returned an unusable answer", nil)
	case errors.Is(err, llm.ErrUpstream), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusBadGateway, "upstream_error", "AI provider request failed", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process "+subject, nil)
	}
}
