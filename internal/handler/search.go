package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/flightagent/internal/models"
	"github.com/dharmasatrya/flightagent/internal/pipeline"
)

// Runner is the slice of the pipeline the handler needs.
type Runner interface {
	Run(ctx context.Context, rawText string) (*pipeline.Outcome, error)
}

type SearchHandler struct {
	pipeline Runner
}

func NewSearchHandler(p Runner) *SearchHandler {
	return &SearchHandler{pipeline: p}
}

type searchBody struct {
	Query string `json:"query"`
}

// Search runs the full pipeline for a raw text query and returns the
// ranked results with run metadata. Zero results is a 200, not an error.
func (h *SearchHandler) Search(c echo.Context) error {
	ctx := c.Request().Context()

	var body searchBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}
	if body.Query == "" {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "query text is required",
			Code:    http.StatusBadRequest,
		})
	}

	outcome, err := h.pipeline.Run(ctx, body.Query)
	if err != nil {
		var parseErr *models.ParseError
		var limitErr *models.CombinationLimitError
		switch {
		case errors.As(err, &parseErr):
			return c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
				Error:   "parse_failure",
				Message: parseErr.Error(),
				Code:    http.StatusUnprocessableEntity,
			})
		case errors.As(err, &limitErr):
			return c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
				Error:   "combination_limit_exceeded",
				Message: limitErr.Error(),
				Code:    http.StatusUnprocessableEntity,
			})
		default:
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "search_error",
				Message: err.Error(),
				Code:    http.StatusInternalServerError,
			})
		}
	}

	return c.JSON(http.StatusOK, models.SearchResponse{
		Query:    outcome.Query,
		Metadata: outcome.Metadata,
		Results:  outcome.Results,
	})
}

func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
