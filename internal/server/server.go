package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/golang-migrate/migrate/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mohammad-safakhou/icebreak/config"
	"github.com/mohammad-safakhou/icebreak/internal/agent/core"
	"github.com/mohammad-safakhou/icebreak/internal/agent/telemetry"
	"github.com/mohammad-safakhou/icebreak/internal/auth"
	"github.com/mohammad-safakhou/icebreak/internal/index"
	"github.com/mohammad-safakhou/icebreak/internal/store"
)

// Run wires the task store, the search index, telemetry and the pipeline,
// then serves HTTP until the listener fails.
func Run(cfg *config.Config) error {
	logger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := "internal server error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			}
		}
		logger.Printf("%d %s %s from %s: %v", code, c.Request().Method, c.Request().URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, HTTPError{Error: msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, "Cookie"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	registerDocs(e)

	tel := telemetry.New(cfg.Telemetry)
	e.GET("/metrics", echo.WrapHandler(tel.Handler()))

	if store.Backend(cfg.Storage.Backend) == store.PostgresBackend {
		if err := Migrate("file://migrations", cfg.Storage.Postgres.DSN(), "up", 0); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Printf("migrations: %v", err)
		}
	}

	st, err := store.New(context.Background(), cfg.Storage, nil)
	if err != nil {
		return fmt.Errorf("failed to initialise task store: %w", err)
	}
	defer st.Close()

	idx, err := index.New(cfg.Index)
	if err != nil {
		return fmt.Errorf("failed to open search index: %w", err)
	}
	defer idx.Close()

	orch, err := core.NewOrchestrator(cfg, nil, tel)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	api := e.Group("/api/v1")
	if cfg.Server.AuthEnabled {
		pg, ok := st.(*store.PostgresStore)
		if !ok {
			return fmt.Errorf("auth requires the postgres storage backend, got %s", cfg.Storage.Backend)
		}
		authH := &AuthHandler{Store: pg, Secret: cfg.Server.JWTSecret}
		authH.Register(e.Group("/api/auth"))
		api.Use(auth.EchoAuthMiddleware(cfg.Server.JWTSecret))
	}
	NewIceBreakerHandler(orch, st, idx, tel, logger).Register(api)

	logger.Printf("listening on %s (storage=%s llm=%s)", cfg.Server.Address, cfg.Storage.Backend, cfg.LLM.Backend)
	return e.Start(cfg.Server.Address)
}
