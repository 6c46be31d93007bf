package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func invokeMiddleware(t *testing.T, req *http.Request, secret string) (*httptest.ResponseRecorder, echo.Context, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	var next echo.HandlerFunc = func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
	err := EchoAuthMiddleware(secret)(next)(ctx)
	return rec, ctx, err
}

func TestSignJWTRoundTrip(t *testing.T) {
	token, err := SignJWT("user-42", "secret", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec, ctx, err := invokeMiddleware(t, req, "secret")
	if err != nil {
		t.Fatalf("middleware rejected valid token: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got, _ := ctx.Get("user_id").(string); got != "user-42" {
		t.Fatalf("expected user_id user-42, got %q", got)
	}
	sub, ok := SubjectFromContext(ctx.Request().Context())
	if !ok || sub != "user-42" {
		t.Fatalf("expected subject user-42 on request context, got %q (%v)", sub, ok)
	}
}

func TestMiddlewareMissingToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, _, err := invokeMiddleware(t, req, "secret")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusUnauthorized || httpErr.Message != "missing token" {
		t.Fatalf("unexpected error: %v", httpErr)
	}
}

func TestMiddlewareInvalidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	_, _, err := invokeMiddleware(t, req, "secret")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusUnauthorized || httpErr.Message != "invalid token" {
		t.Fatalf("unexpected error: %v", httpErr)
	}
}

func TestMiddlewareRejectsWrongSecret(t *testing.T) {
	token, err := SignJWT("user-42", "secret", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	_, _, err = invokeMiddleware(t, req, "other-secret")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestMiddlewareExpiredToken(t *testing.T) {
	token, err := SignJWT("user-42", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	_, _, err = invokeMiddleware(t, req, "secret")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %v", err)
	}
}

func TestMiddlewareCookieFallback(t *testing.T) {
	token, err := SignJWT("user-42", "secret", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "auth", Value: token})
	rec, _, err := invokeMiddleware(t, req, "secret")
	if err != nil {
		t.Fatalf("middleware rejected cookie token: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
