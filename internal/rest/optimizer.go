package rest

import (
	"context"
	"net/http"

	"adMarginLab/domain"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	OptimizerHandler struct {
		validate *validator.Validate
		service  OptimizerService
	}

	OptimizerService interface {
		RunCycle(ctx context.Context) (*domain.RunLog, error)
		State(ctx context.Context) (*domain.OptimizerState, error)
		Runs(ctx context.Context, limit int) ([]domain.RunLog, error)
		DryRun(ctx context.Context, endpointID string) (domain.Verdict, error)
	}

	RunsQuery struct {
		Limit int `query:"limit"`
	}

	VerdictQuery struct {
		Endpoint string `query:"endpoint" validate:"required"`
	}
)

func NewOptimizerHandler(svc OptimizerService) *OptimizerHandler {
	return &OptimizerHandler{
		validate: validator.New(),
		service:  svc,
	}
}

// POST /api/v1/optimizer/run
func (h *OptimizerHandler) TriggerRun(c echo.Context) error {
	run, err := h.service.RunCycle(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(run))
}

// GET /api/v1/optimizer/state
func (h *OptimizerHandler) GetState(c echo.Context) error {
	state, err := h.service.State(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(state))
}

// GET /api/v1/optimizer/runs?limit=20
func (h *OptimizerHandler) ListRuns(c echo.Context) error {
	var q RunsQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}

	runs, err := h.service.Runs(c.Request().Context(), q.Limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(runs))
}

// GET /api/v1/optimizer/verdict?endpoint=endpoint-1
func (h *OptimizerHandler) Verdict(c echo.Context) error {
	var q VerdictQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	verdict, err := h.service.DryRun(c.Request().Context(), q.Endpoint)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(verdict))
}
