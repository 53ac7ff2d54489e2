// Package query answers natural-language questions about the roster
// by translating them to SQL and running the result.
package query

import (
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/sage/internal/repositories/roster"
	"github.com/Ramsey-B/sage/pkg/nlquery"
)

// Handler handles the NL query endpoint
type Handler struct {
	roster     *roster.Repository
	translator *nlquery.Translator
	logger     ectologger.Logger
}

// NewHandler creates a new query handler
func NewHandler(rosterRepo *roster.Repository, translator *nlquery.Translator, logger ectologger.Logger) *Handler {
	return &Handler{
		roster:     rosterRepo,
		translator: translator,
		logger:     logger,
	}
}

// RegisterRoutes registers the query endpoint
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/query", h.Query)
}

type queryRequest struct {
	Question string `json:"question"`
}

type queryResponse struct {
	Question string           `json:"question"`
	SQL      string           `json:"sql"`
	Kind     string           `json:"kind"`
	Rows     []map[string]any `json:"rows"`
	Count    int              `json:"count"`
}

// Query translates a question to SQL and executes it. Only generated
// SELECT statements ever reach the database.
func (h *Handler) Query(ctx echo.Context) error {
	var req queryRequest
	if err := ctx.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid query request body")
	}
	if strings.TrimSpace(req.Question) == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "question is required")
	}

	translated := h.translator.Translate(req.Question)
	if !nlquery.IsReadOnly(translated.SQL) {
		h.logger.WithContext(ctx.Request().Context()).WithFields(map[string]any{"sql": translated.SQL}).Error("translator produced a non-select statement")
		return httperror.NewHTTPError(http.StatusUnprocessableEntity, "generated statement is not read-only")
	}

	rows, err := h.roster.Query(ctx.Request().Context(), translated.SQL, translated.Args...)
	if err != nil {
		return err
	}

	h.logger.WithContext(ctx.Request().Context()).WithFields(map[string]any{
		"sql":  translated.SQL,
		"rows": len(rows),
	}).Info("answered roster question")

	return ctx.JSON(http.StatusOK, queryResponse{
		Question: req.Question,
		SQL:      translated.SQL,
		Kind:     translated.Kind,
		Rows:     rows,
		Count:    len(rows),
	})
}
