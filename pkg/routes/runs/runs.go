// Package runs serves dedupe run artifacts to the review dashboard:
// run summaries, scored pairs, clusters, and review decisions.
package runs

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/sage/internal/repositories/deduprun"
	"github.com/Ramsey-B/sage/pkg/models"
)

// Handler handles run and pair-review endpoints
type Handler struct {
	runs   *deduprun.Repository
	logger ectologger.Logger
}

// NewHandler creates a new runs handler
func NewHandler(runs *deduprun.Repository, logger ectologger.Logger) *Handler {
	return &Handler{
		runs:   runs,
		logger: logger,
	}
}

// RegisterRoutes registers run endpoints
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/runs", h.ListRuns)
	e.GET("/api/v1/runs/:id", h.GetRun)
	e.GET("/api/v1/runs/:id/pairs", h.ListPairs)
	e.GET("/api/v1/runs/:id/clusters", h.ListClusters)
	e.POST("/api/v1/pairs/:id/approve", h.ApprovePair)
	e.POST("/api/v1/pairs/:id/reject", h.RejectPair)
}

// ListRuns returns run summaries, newest first.
func (h *Handler) ListRuns(ctx echo.Context) error {
	limit := intQueryParam(ctx, "limit", 50)

	runs, err := h.runs.ListRuns(ctx.Request().Context(), limit)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

// GetRun returns one run summary.
func (h *Handler) GetRun(ctx echo.Context) error {
	run, err := h.runs.GetRun(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, run)
}

// ListPairs returns a run's scored pairs, score descending, optionally
// filtered by match_class.
func (h *Handler) ListPairs(ctx echo.Context) error {
	matchClass := ctx.QueryParam("match_class")
	switch matchClass {
	case "", string(models.MatchClassDefinite), string(models.MatchClassPossible), string(models.MatchClassNonmatch):
	default:
		return httperror.NewHTTPError(http.StatusBadRequest, "match_class must be definite, possible, or nonmatch")
	}

	limit := intQueryParam(ctx, "limit", 200)

	pairs, err := h.runs.ListPairs(ctx.Request().Context(), ctx.Param("id"), matchClass, limit)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, map[string]any{"pairs": pairs, "count": len(pairs)})
}

// ListClusters returns a run's multi-member clusters, largest first.
func (h *Handler) ListClusters(ctx echo.Context) error {
	clusters, err := h.runs.ListClusters(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, map[string]any{"clusters": clusters, "count": len(clusters)})
}

// reviewRequest carries the optional reviewer identity.
type reviewRequest struct {
	DecidedBy string `json:"decided_by"`
}

// ApprovePair records an approval on a possible pair. Decisions are
// advisory; they never feed back into clustering.
func (h *Handler) ApprovePair(ctx echo.Context) error {
	return h.review(ctx, models.ReviewApproved)
}

// RejectPair records a rejection on a possible pair.
func (h *Handler) RejectPair(ctx echo.Context) error {
	return h.review(ctx, models.ReviewRejected)
}

func (h *Handler) review(ctx echo.Context, decision models.ReviewStatus) error {
	id := ctx.Param("id")

	var req reviewRequest
	if err := ctx.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid review request body")
	}

	if err := h.runs.ReviewPair(ctx.Request().Context(), id, decision, req.DecidedBy); err != nil {
		return err
	}

	h.logger.WithContext(ctx.Request().Context()).WithFields(map[string]any{
		"pair_id":  id,
		"decision": decision,
	}).Info("recorded pair review")

	return ctx.JSON(http.StatusOK, map[string]any{"pair_id": id, "review_status": decision})
}

func intQueryParam(ctx echo.Context, name string, fallback int) int {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
