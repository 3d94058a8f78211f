package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/darasahq/darasa/core/dashboard"
)

type dashboardApi struct {
	service *dashboard.Service
}

func registerDashboardAPI(g *echo.Group, deps ServerDeps) {
	api := dashboardApi{service: deps.DashboardSvc}

	dg := g.Group("/dashboard")
	dg.GET("/stats", api.stats)
	dg.GET("/class-distribution", api.classDistribution)
	dg.GET("/fees-overview", api.feesOverview)
}

func (api *dashboardApi) stats(ctx echo.Context) error {
	stats, err := api.service.Stats(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *dashboardApi) classDistribution(ctx echo.Context) error {
	data, err := api.service.ClassDistribution(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, data)
}

func (api *dashboardApi) feesOverview(ctx echo.Context) error {
	data, err := api.service.FeesOverview(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, data)
}
