package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/darasahq/darasa/core/fees"
	"github.com/darasahq/darasa/core/listing"
)

type feesApi struct {
	service    *fees.Service
	validate   *validator.Validate
	translator ut.Translator
}

var paymentColumns = []listing.Column{
	{Field: "student_id", Searchable: true},
	{Field: "method", Searchable: true},
	{Field: "reference", Searchable: true},
	{Field: "amount"},
	{Field: "payment_date"},
}

func registerFeesAPI(g *echo.Group, deps ServerDeps) {
	api := feesApi{
		service:    deps.FeesSvc,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	fg := g.Group("/fees")
	fg.GET("", api.paymentQuery)
	fg.POST("", api.paymentRecord)
	fg.GET("/:id", api.paymentRetrieve)
	fg.PUT("/:id", api.paymentUpdate)
	fg.DELETE("/:id", api.paymentDestroy)
}

func (api *feesApi) paymentQuery(ctx echo.Context) error {
	filter := new(fees.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return err
	}

	payments, err := api.service.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return err
	}

	vq := new(viewQuery)
	vq.Bind(ctx)
	if vq.wanted {
		rows, err := toRows(payments)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, listing.Apply(rows, paymentColumns, vq.state))
	}
	return ctx.JSON(http.StatusOK, payments)
}

func (api *feesApi) paymentRecord(ctx echo.Context) error {
	data := new(fees.NewPayment)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	// the header wins over the body copy
	if key := ctx.Request().Header.Get("Idempotency-Key"); key != "" {
		data.IdempotencyKey = key
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	pmt, err := api.service.RecordPayment(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, pmt)
}

func (api *feesApi) paymentRetrieve(ctx echo.Context) error {
	pmt, err := api.service.GetPayment(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pmt)
}

func (api *feesApi) paymentUpdate(ctx echo.Context) error {
	data := new(fees.UpdatePayment)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	pmt, err := api.service.EditPayment(ctx.Request().Context(), ctx.Param("id"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pmt)
}

func (api *feesApi) paymentDestroy(ctx echo.Context) error {
	if err := api.service.DeletePayment(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
