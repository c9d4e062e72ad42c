package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/breakthefear/btf/core/fee"
	"github.com/breakthefear/btf/core/payment"
)

type paymentApi struct {
	svc  *payment.Service
	desk *fee.Desk
}

func registerPaymentAPI(g *echo.Group, svc *payment.Service, desk *fee.Desk) {
	api := paymentApi{svc: svc, desk: desk}

	g.GET("", api.query)
	g.POST("", api.collect)
	g.POST("/quote", api.quote)
	g.GET("/:id", api.retrieve)
}

// Handlers

func (api *paymentApi) query(ctx echo.Context) error {
	filter := new(payment.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []payment.Payment{})
	}
	payments, err := api.svc.Query(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	if payments == nil {
		payments = []payment.Payment{}
	}
	return ctx.JSON(http.StatusOK, payments)
}

func (api *paymentApi) collect(ctx echo.Context) error {
	var data fee.PaymentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PaymentRequest")
	}
	receipt, err := api.desk.CollectPayment(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "collecting payment")
	}
	return ctx.JSON(http.StatusCreated, receipt)
}

// quote previews the allocation of a payment without recording it.
func (api *paymentApi) quote(ctx echo.Context) error {
	var data fee.PaymentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PaymentRequest")
	}
	alloc, err := api.desk.Quote(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "quoting payment")
	}
	return ctx.JSON(http.StatusOK, alloc)
}

func (api *paymentApi) retrieve(ctx echo.Context) error {
	p, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding payment by ID")
	}
	return ctx.JSON(http.StatusOK, p)
}
