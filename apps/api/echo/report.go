package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/breakthefear/btf/core/activity"
	"github.com/breakthefear/btf/core/fee"
)

type reportApi struct {
	reporter *fee.Reporter
	activity *activity.Service
}

func registerReportAPI(g *echo.Group, reporter *fee.Reporter, activities *activity.Service) {
	api := reportApi{reporter: reporter, activity: activities}

	g.GET("/dashboard", api.dashboard)
	g.GET("/activities", api.queryActivities)
	g.GET("/reports/pending", api.pending)
}

type PendingResponse struct {
	Students []fee.StudentDue `json:"students"`
	Total    decimal.Decimal  `json:"total"`
}

func (api *reportApi) dashboard(ctx echo.Context) error {
	dash, err := api.reporter.Dashboard(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "building dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}

func (api *reportApi) queryActivities(ctx echo.Context) error {
	limit := new(Limit)
	limit.Bind(ctx)

	acts, err := api.activity.Recent(ctx.Request().Context(), limit.Value)
	if err != nil {
		return errors.Wrap(err, "querying activities")
	}
	if acts == nil {
		acts = []activity.Activity{}
	}
	return ctx.JSON(http.StatusOK, acts)
}

func (api *reportApi) pending(ctx echo.Context) error {
	dues, total, err := api.reporter.PendingByStudent(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing pending fees")
	}
	if dues == nil {
		dues = []fee.StudentDue{}
	}
	return ctx.JSON(http.StatusOK, PendingResponse{Students: dues, Total: total})
}
