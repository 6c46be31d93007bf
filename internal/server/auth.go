package server

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/mohammad-safakhou/icebreak/internal/auth"
	"github.com/mohammad-safakhou/icebreak/internal/store"
)

const sessionTTL = 24 * time.Hour

// AuthHandler serves signup, login and logout. It needs the postgres store;
// the other backends do not persist users.
type AuthHandler struct {
	Store  *store.PostgresStore
	Secret string
}

func (h *AuthHandler) Register(g *echo.Group) {
	g.POST("/signup", h.signup)
	g.POST("/login", h.login)
	g.POST("/logout", h.logout)
	g.GET("/me", h.me, auth.EchoAuthMiddleware(h.Secret))
}

// @Summary Create a user account
// @Tags auth
// @Accept json
// @Param request body AuthSignupRequest true "credentials"
// @Success 201
// @Failure 400 {object} HTTPError
// @Failure 409 {object} HTTPError
// @Router /api/auth/signup [post]
func (h *AuthHandler) signup(c echo.Context) error {
	var req AuthSignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") || len(req.Password) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid email or password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to hash password")
	}
	if err := h.Store.CreateUser(c.Request().Context(), email, string(hash)); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return echo.NewHTTPError(http.StatusConflict, "email already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create user")
	}
	return c.NoContent(http.StatusCreated)
}

// @Summary Log in and receive a token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body AuthLoginRequest true "credentials"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} HTTPError
// @Failure 401 {object} HTTPError
// @Router /api/auth/login [post]
func (h *AuthHandler) login(c echo.Context) error {
	var req AuthLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Password) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid email or password")
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	id, hash, err := h.Store.GetUserByEmail(c.Request().Context(), email)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	token, err := auth.SignJWT(id, h.Secret, sessionTTL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to sign token")
	}
	c.SetCookie(&http.Cookie{
		Name:     "auth",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   os.Getenv("ICEBREAK_ENV") == "prod",
		MaxAge:   int(sessionTTL.Seconds()),
	})
	c.Response().Header().Set("Authorization", "Bearer "+token)
	return c.JSON(http.StatusOK, TokenResponse{Token: token})
}

// @Summary Log out
// @Tags auth
// @Success 200
// @Router /api/auth/logout [post]
func (h *AuthHandler) logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     "auth",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	return c.NoContent(http.StatusOK)
}

// @Summary Identify the authenticated user
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} MeResponse
// @Failure 401 {object} HTTPError
// @Router /api/auth/me [get]
func (h *AuthHandler) me(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	return c.JSON(http.StatusOK, MeResponse{UserID: userID})
}
