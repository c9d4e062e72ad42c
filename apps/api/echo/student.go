package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/breakthefear/btf/core/fee"
	"github.com/breakthefear/btf/core/payment"
	"github.com/breakthefear/btf/core/student"
)

type studentApi struct {
	svc      *student.Service
	ledger   *fee.Ledger
	payments *payment.Service
}

func registerStudentAPI(g *echo.Group, svc *student.Service, ledger *fee.Ledger, payments *payment.Service) {
	api := studentApi{svc: svc, ledger: ledger, payments: payments}

	g.GET("", api.query)
	g.POST("", api.create)

	// detail endpoints
	dg := g.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.GET("/statement", api.statement)
	dg.GET("/payments", api.queryPayments)
}

// Handlers

func (api *studentApi) query(ctx echo.Context) error {
	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []student.Student{})
	}
	filter.Clean()
	status, err := fee.ParseStatus(filter.Status)
	if err != nil {
		return err
	}

	students, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	students, err = api.ledger.FilterByStatus(ctx.Request().Context(), students, status)
	if err != nil {
		return errors.Wrap(err, "filtering students by status")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	std, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	std, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding student by ID")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) update(ctx echo.Context) error {
	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	std, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) statement(ctx echo.Context) error {
	std, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding student by ID")
	}
	st, err := api.ledger.Statement(ctx.Request().Context(), std)
	if err != nil {
		return errors.Wrap(err, "building statement")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) queryPayments(ctx echo.Context) error {
	std, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding student by ID")
	}
	payments, err := api.payments.QueryByStudent(ctx.Request().Context(), std.ID)
	if err != nil {
		return errors.Wrap(err, "querying student payments")
	}
	if payments == nil {
		payments = []payment.Payment{}
	}
	return ctx.JSON(http.StatusOK, payments)
}
