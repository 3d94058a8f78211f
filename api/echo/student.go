package echoapi

import (
	"encoding/json"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/darasahq/darasa/core/fees"
	"github.com/darasahq/darasa/core/listing"
	"github.com/darasahq/darasa/core/student"
)

type studentApi struct {
	service    *student.Service
	feesSvc    *fees.Service
	validate   *validator.Validate
	translator ut.Translator
}

var studentColumns = []listing.Column{
	{Field: "name", Searchable: true},
	{Field: "student_id", Searchable: true},
	{Field: "roll_number", Searchable: true},
	{Field: "class"},
	{Field: "section"},
}

func registerStudentAPI(g *echo.Group, deps ServerDeps) {
	api := studentApi{
		service:    deps.StudentSvc,
		feesSvc:    deps.FeesSvc,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	sg := g.Group("/students")
	sg.GET("", api.studentQuery)
	sg.POST("", api.studentCreate)
	sg.GET("/:id", api.studentRetrieve)
	sg.PUT("/:id", api.studentUpdate)
	sg.DELETE("/:id", api.studentDestroy)
}

func (api *studentApi) studentQuery(ctx echo.Context) error {
	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return err
	}

	students, err := api.service.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return err
	}

	vq := new(viewQuery)
	vq.Bind(ctx)
	if vq.wanted {
		rows, err := toRows(students)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, listing.Apply(rows, studentColumns, vq.state))
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) studentCreate(ctx echo.Context) error {
	data := new(student.NewStudent)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(api.validate, api.translator, api.service); err != nil {
		return err
	}

	st, err := api.service.Create(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, st)
}

func (api *studentApi) studentRetrieve(ctx echo.Context) error {
	st, err := api.service.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

// updateStudentRequest carries profile fields plus the optional fee charges;
// charge changes go through the fees service so the balance is recomputed.
type updateStudentRequest struct {
	student.UpdateStudent
	TotalFee   *decimal.Decimal `json:"total_fee"`
	Concession *decimal.Decimal `json:"concession"`
}

func (api *studentApi) studentUpdate(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	orig, err := api.service.GetByID(rctx, ctx.Param("id"))
	if err != nil {
		return err
	}

	data := new(updateStudentRequest)
	if err = ctx.Bind(data); err != nil {
		return err
	}
	if err = data.UpdateStudent.Validate(api.validate, orig, api.service); err != nil {
		return err
	}

	st, err := api.service.Update(rctx, orig.ID, data.UpdateStudent)
	if err != nil {
		return err
	}

	if data.TotalFee != nil || data.Concession != nil {
		totalFee, concession := orig.TotalFee, orig.Concession
		if data.TotalFee != nil {
			totalFee = *data.TotalFee
		}
		if data.Concession != nil {
			concession = *data.Concession
		}
		acct, err := api.feesSvc.EditCharges(rctx, orig.ID, totalFee, concession)
		if err != nil {
			return err
		}
		st.TotalFee = acct.TotalFee
		st.Concession = acct.Concession
		st.AmountPaid = acct.AmountPaid
		st.Balance = acct.Balance
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) studentDestroy(ctx echo.Context) error {
	if err := api.service.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// toRows converts a typed slice to generic rows for the view engine.
func toRows(v interface{}) ([]listing.Row, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var rows []listing.Row
	if err = json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
