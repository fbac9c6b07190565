package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"resumemind-api/internal/shared/auth"
	"resumemind-api/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	isGuestKey   = "isGuest"
	principalKey = "principal"

	// GuestCookieName carries the guest-session id.
	GuestCookieName = "rm_guest"
	guestCookieTTL  = 30 * 24 * time.Hour
)

// AuthOptions configures the Auth middleware.
type AuthOptions struct {
	Verifier     auth.TokenVerifier
	SecureCookie bool
}

// Auth resolves the caller from a bearer token or the guest-session cookie
// and stores the principal in context. Guests without a valid cookie get a
// fresh one.
func Auth(opts AuthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		guestID := guestIDFromCookie(c)
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))

		if authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") || opts.Verifier == nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			if token == "" {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			id, err := opts.Verifier.Verify(c.Request.Context(), token)
			if err != nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			setPrincipal(c, auth.Principal{
				OwnerID: id.UserID,
				Email:   id.Email,
				Name:    id.Name,
				GuestID: guestID,
			})
			c.Next()
			return
		}

		if guestID == "" {
			guestID = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(GuestCookieName, guestID, int(guestCookieTTL/time.Second), "/", "", opts.SecureCookie, true)
		}
		setPrincipal(c, auth.Principal{OwnerID: guestID, IsGuest: true, GuestID: guestID})
		c.Next()
	}
}

func guestIDFromCookie(c *gin.Context) string {
	raw, err := c.Cookie(GuestCookieName)
	if err != nil {
		return ""
	}
	parsed, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return parsed.String()
}

func setPrincipal(c *gin.Context, p auth.Principal) {
	c.Set(principalKey, p)
	c.Set(userIDKey, p.OwnerID)
	c.Set(isGuestKey, p.IsGuest)
}

// PrincipalFromContext returns the caller resolved by Auth.
func PrincipalFromContext(c *gin.Context) auth.Principal {
	if c == nil {
		return auth.Principal{}
	}
	val, _ := c.Get(principalKey)
	if p, ok := val.(auth.Principal); ok {
		return p
	}
	return auth.Principal{}
}

// UserIDFromContext fetches the owner id set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	return PrincipalFromContext(c).OwnerID
}
