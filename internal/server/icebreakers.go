package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/icebreak/internal/agent/core"
	"github.com/mohammad-safakhou/icebreak/internal/agent/telemetry"
	"github.com/mohammad-safakhou/icebreak/internal/index"
	"github.com/mohammad-safakhou/icebreak/internal/store"
	"github.com/mohammad-safakhou/icebreak/models"
)

// asyncRunTimeout is an outer guard on background runs. The pipeline enforces
// its own execution budget; this only catches a wedged store or provider.
const asyncRunTimeout = 5 * time.Minute

// Generator produces ice breakers for a person. *core.Orchestrator satisfies
// it; handler tests substitute a stub.
type Generator interface {
	GenerateIceBreakers(ctx context.Context, name string) (models.IceBreakerResult, error)
}

// IceBreakerHandler serves the generation API, both synchronous and
// task-based.
type IceBreakerHandler struct {
	gen    Generator
	store  store.TaskStore
	index  *index.Index
	tel    *telemetry.Telemetry
	logger *log.Logger
}

func NewIceBreakerHandler(gen Generator, st store.TaskStore, idx *index.Index, tel *telemetry.Telemetry, logger *log.Logger) *IceBreakerHandler {
	if logger == nil {
		logger = log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	}
	return &IceBreakerHandler{gen: gen, store: st, index: idx, tel: tel, logger: logger}
}

func (h *IceBreakerHandler) Register(g *echo.Group) {
	g.POST("/icebreakers", h.generate)
	g.POST("/icebreakers/async", h.generateAsync)
	g.GET("/icebreakers/status/:task_id", h.status)
	g.GET("/icebreakers/tasks", h.tasks)
	g.GET("/icebreakers/search", h.search)
	g.GET("/metrics", h.metrics)
}

// generate runs the pipeline synchronously.
// @Summary Generate ice breakers for a person
// @Tags icebreakers
// @Accept json
// @Produce json
// @Param request body GenerateRequest true "person to research"
// @Success 200 {object} models.IceBreakerResult
// @Failure 400 {object} HTTPError
// @Failure 502 {object} HTTPError
// @Failure 504 {object} HTTPError
// @Router /api/v1/icebreakers [post]
func (h *IceBreakerHandler) generate(c echo.Context) error {
	var req GenerateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	result, err := h.gen.GenerateIceBreakers(c.Request().Context(), req.Name)
	if err != nil {
		return echo.NewHTTPError(httpStatusForError(err), err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

// generateAsync starts a background run and returns a task id to poll.
// @Summary Start an asynchronous ice breaker run
// @Tags icebreakers
// @Accept json
// @Produce json
// @Param request body GenerateRequest true "person to research"
// @Success 202 {object} TaskAcceptedResponse
// @Failure 400 {object} HTTPError
// @Router /api/v1/icebreakers/async [post]
func (h *IceBreakerHandler) generateAsync(c echo.Context) error {
	var req GenerateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	// Reject bad names before creating a task so callers get the same
	// fast feedback as the synchronous endpoint.
	name := strings.TrimSpace(req.Name)
	if err := core.ValidateName(name); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	task, err := h.store.Create(c.Request().Context(), name)
	if err != nil {
		h.logger.Printf("failed to create task for %q: %v", name, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create task")
	}
	go h.process(task.ID, name)
	return c.JSON(http.StatusAccepted, TaskAcceptedResponse{TaskID: task.ID})
}

// process runs the pipeline for a task and records the outcome. It runs on
// its own context: the HTTP request that spawned it is long gone.
func (h *IceBreakerHandler) process(taskID, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), asyncRunTimeout)
	defer cancel()

	result, err := h.gen.GenerateIceBreakers(ctx, name)
	if err != nil {
		if ferr := h.store.Fail(ctx, taskID, err.Error()); ferr != nil {
			h.logger.Printf("task %s: failed to record failure: %v", taskID, ferr)
		}
		return
	}
	if cerr := h.store.Complete(ctx, taskID, result); cerr != nil {
		h.logger.Printf("task %s: failed to record result: %v", taskID, cerr)
		return
	}
	task, gerr := h.store.Get(ctx, taskID)
	if gerr != nil {
		return
	}
	if ierr := h.index.IndexTask(task); ierr != nil {
		h.logger.Printf("task %s: failed to index: %v", taskID, ierr)
	}
}

// status returns the current state of a task.
// @Summary Poll an asynchronous run
// @Tags icebreakers
// @Produce json
// @Param task_id path string true "task id"
// @Success 200 {object} models.Task
// @Failure 404 {object} HTTPError
// @Router /api/v1/icebreakers/status/{task_id} [get]
func (h *IceBreakerHandler) status(c echo.Context) error {
	task, err := h.store.Get(c.Request().Context(), c.Param("task_id"))
	if err != nil {
		if errors.Is(err, models.ErrTaskNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "task not found")
		}
		h.logger.Printf("failed to load task %s: %v", c.Param("task_id"), err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load task")
	}
	return c.JSON(http.StatusOK, task)
}

// tasks lists recent tasks, newest first.
// @Summary List recent tasks
// @Tags icebreakers
// @Produce json
// @Param limit query int false "maximum tasks to return (default 20)"
// @Success 200 {array} models.Task
// @Failure 400 {object} HTTPError
// @Router /api/v1/icebreakers/tasks [get]
func (h *IceBreakerHandler) tasks(c echo.Context) error {
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	tasks, err := h.store.List(c.Request().Context(), limit)
	if err != nil {
		h.logger.Printf("failed to list tasks: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list tasks")
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return c.JSON(http.StatusOK, tasks)
}

// search queries the full-text index over completed runs.
// @Summary Search completed runs
// @Tags icebreakers
// @Produce json
// @Param q query string true "query string"
// @Param k query int false "maximum hits (default 10)"
// @Success 200 {object} SearchResponse
// @Failure 400 {object} HTTPError
// @Failure 503 {object} HTTPError
// @Router /api/v1/icebreakers/search [get]
func (h *IceBreakerHandler) search(c echo.Context) error {
	if h.index == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search index disabled")
	}
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing query parameter q")
	}
	k, _ := strconv.Atoi(c.QueryParam("k"))
	hits, err := h.index.Search(q, k)
	if err != nil {
		h.logger.Printf("search %q failed: %v", q, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}
	if hits == nil {
		hits = []index.Hit{}
	}
	return c.JSON(http.StatusOK, SearchResponse{Query: q, Hits: hits})
}

// metrics returns aggregate pipeline counters as JSON. Prometheus scraping
// uses /metrics on the root instead.
// @Summary Aggregate pipeline metrics
// @Tags icebreakers
// @Produce json
// @Success 200 {object} MetricsResponse
// @Router /api/v1/metrics [get]
func (h *IceBreakerHandler) metrics(c echo.Context) error {
	m := h.tel.GetMetrics()
	return c.JSON(http.StatusOK, MetricsResponse{
		TotalRuns:             m.TotalRuns,
		SuccessfulRuns:        m.SuccessfulRuns,
		FailedRuns:            m.FailedRuns,
		AverageRunTimeSeconds: m.AverageRunTime.Seconds(),
		GenerationCalls:       m.GenerationCalls,
		ProfilesFound:         m.ProfilesFound,
		ScrapesSucceeded:      m.ScrapesSucceeded,
		ScrapesFailed:         m.ScrapesFailed,
	})
}

// httpStatusForError maps pipeline errors onto HTTP statuses.
func httpStatusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrSearchProvider):
		return http.StatusBadGateway
	case errors.Is(err, models.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrModelTimeout), errors.Is(err, models.ErrTimeoutExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, models.ErrParseExhausted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrTaskNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
