package rest

import (
	"net/http"

	"adMarginLab/business/margin"
	"adMarginLab/domain"

	"github.com/labstack/echo/v4"
)

type OptimizerAdminHandler struct {
	cfgRepo margin.ConfigRepository
}

func NewOptimizerAdminHandler(cfgRepo margin.ConfigRepository) *OptimizerAdminHandler {
	return &OptimizerAdminHandler{cfgRepo: cfgRepo}
}

// GET /api/v1/admin/optimizer/config?endpoint=endpoint-1
func (h *OptimizerAdminHandler) GetConfig(c echo.Context) error {
	ctx := c.Request().Context()
	endpoint := c.QueryParam("endpoint")

	if endpoint == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "endpoint is required",
		})
	}

	cfg, ok, err := h.cfgRepo.GetConfig(ctx, endpoint)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": err.Error(),
		})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "config not found",
		})
	}

	return c.JSON(http.StatusOK, cfg)
}

// PUT /api/v1/admin/optimizer/config
// body: EndpointConfig JSON
func (h *OptimizerAdminHandler) UpsertConfig(c echo.Context) error {
	ctx := c.Request().Context()

	var body domain.EndpointConfig
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "invalid body: " + err.Error(),
		})
	}
	if body.EndpointID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "endpoint_id is required",
		})
	}
	if body.GuardrailRatio < 0 || body.GuardrailRatio > 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "guardrail_ratio must be in (0,1]",
		})
	}

	if err := h.cfgRepo.UpsertConfig(ctx, body); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status": "ok",
	})
}
