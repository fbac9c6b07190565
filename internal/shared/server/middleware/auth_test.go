package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"resumemind-api/internal/shared/auth"
)

func newAuthRouter(v auth.TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(AuthOptions{Verifier: v}))
	router.GET("/api/v1/session", func(c *gin.Context) {
		p := PrincipalFromContext(c)
		c.JSON(http.StatusOK, gin.H{"ownerId": p.OwnerID, "isGuest": p.IsGuest, "guestId": p.GuestID})
	})
	router.OPTIONS("/api/v1/session", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestAuthAllowsOptionsWithoutIdentity(t *testing.T) {
	router := newAuthRouter(nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/session", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func TestAuthIssuesGuestCookie(t *testing.T) {
	router := newAuthRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	cookies := resp.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != GuestCookieName {
		t.Fatalf("expected guest cookie, got %v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Fatalf("expected HttpOnly guest cookie")
	}
}

func TestAuthReusesValidGuestCookie(t *testing.T) {
	router := newAuthRouter(nil)
	guestID := "6f1c1f0e-8f5c-4d0a-9f5e-0d6f1a2b3c4d"

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.AddCookie(&http.Cookie{Name: GuestCookieName, Value: guestID})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if len(resp.Result().Cookies()) != 0 {
		t.Fatalf("expected no new cookie for a valid session")
	}
	if body := resp.Body.String(); !strings.Contains(body, guestID) {
		t.Fatalf("expected guest id in body, got %s", body)
	}
}

func TestAuthReplacesMalformedGuestCookie(t *testing.T) {
	router := newAuthRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.AddCookie(&http.Cookie{Name: GuestCookieName, Value: "not-a-uuid"})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	cookies := resp.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value == "not-a-uuid" {
		t.Fatalf("expected a replacement cookie, got %v", cookies)
	}
}

func TestAuthBearerToken(t *testing.T) {
	v := auth.NewDevVerifier("secret")
	router := newAuthRouter(v)
	token, err := v.Sign(auth.Identity{UserID: "user-1"}, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"ownerId":"user-1"`) {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
}

func TestAuthRejectsInvalidBearer(t *testing.T) {
	router := newAuthRouter(auth.NewDevVerifier("secret"))

	for _, header := range []string{"Bearer nope", "Basic abc", "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
		req.Header.Set("Authorization", header)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, resp.Code)
		}
	}
}

type stubVerifier struct{ id auth.Identity }

func (s stubVerifier) Verify(context.Context, string) (auth.Identity, error) { return s.id, nil }

func TestAuthKeepsGuestCookieForSignedInUser(t *testing.T) {
	router := newAuthRouter(stubVerifier{id: auth.Identity{UserID: "user-2"}})
	guestID := "6f1c1f0e-8f5c-4d0a-9f5e-0d6f1a2b3c4d"

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.Header.Set("Authorization", "Bearer anything")
	req.AddCookie(&http.Cookie{Name: GuestCookieName, Value: guestID})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if !strings.Contains(resp.Body.String(), `"guestId":"`+guestID+`"`) {
		t.Fatalf("expected guest id carried for signed-in user: %s", resp.Body.String())
	}
}
