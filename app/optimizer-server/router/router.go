package router

import (
	"adMarginLab/internal/middleware"
	"adMarginLab/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetOptimizerRoutes(api *echo.Group, handler *rest.OptimizerHandler) {
	opt := api.Group("/optimizer")

	opt.POST("/run", handler.TriggerRun)
	opt.GET("/state", handler.GetState)
	opt.GET("/runs", handler.ListRuns)
	opt.GET("/verdict", handler.Verdict)
}

func SetOptimizerAdminRoutes(api *echo.Group, handler *rest.OptimizerAdminHandler, jwtSecret string) {
	admin := api.Group("/admin/optimizer", middleware.AuthMiddleware(jwtSecret), middleware.AdminOnly())

	admin.GET("/config", handler.GetConfig)
	admin.PUT("/config", handler.UpsertConfig)
}
