package echoapi

import (
	"fmt"
	"net/http"
	"net/mail"

	"github.com/labstack/echo/v4"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/records"
)

type recordsApi struct {
	service *records.Service
	conf    *core.Config
	mailSvc core.EmailService
}

// registerRecordsAPI mounts one CRUD group per list-backed resource.
func registerRecordsAPI(g *echo.Group, deps ServerDeps) {
	api := recordsApi{
		service: deps.RecordsSvc,
		conf:    deps.Conf,
		mailSvc: deps.MailSvc,
	}

	for _, desc := range api.service.Descriptors() {
		resource := desc.Name
		rg := g.Group("/" + resource)
		rg.GET("", func(ctx echo.Context) error { return api.recordQuery(ctx, resource) })
		rg.POST("", func(ctx echo.Context) error { return api.recordCreate(ctx, resource) })
		rg.GET("/:key", func(ctx echo.Context) error { return api.recordRetrieve(ctx, resource) })
		rg.PUT("/:key", func(ctx echo.Context) error { return api.recordUpdate(ctx, resource) })
		rg.DELETE("/:key", func(ctx echo.Context) error { return api.recordDestroy(ctx, resource) })
	}
}

func (api *recordsApi) recordQuery(ctx echo.Context, resource string) error {
	vq := new(viewQuery)
	vq.Bind(ctx)
	if vq.wanted {
		res, err := api.service.ListView(ctx.Request().Context(), resource, vq.state)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, res)
	}

	recs, err := api.service.Query(ctx.Request().Context(), resource)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *recordsApi) recordCreate(ctx echo.Context, resource string) error {
	data := make(records.Record)
	if err := ctx.Bind(&data); err != nil {
		return err
	}

	rec, err := api.service.Create(ctx.Request().Context(), resource, data)
	if err != nil {
		return err
	}

	if resource == "announcements" {
		api.notifyAnnouncement(rec)
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *recordsApi) recordRetrieve(ctx echo.Context, resource string) error {
	rec, err := api.service.Get(ctx.Request().Context(), resource, ctx.Param("key"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *recordsApi) recordUpdate(ctx echo.Context, resource string) error {
	data := make(records.Record)
	if err := ctx.Bind(&data); err != nil {
		return err
	}

	rec, err := api.service.Update(ctx.Request().Context(), resource, ctx.Param("key"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *recordsApi) recordDestroy(ctx echo.Context, resource string) error {
	if err := api.service.Delete(ctx.Request().Context(), resource, ctx.Param("key")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *recordsApi) notifyAnnouncement(rec records.Record) {
	if api.conf.NotifyEmail == "" || api.mailSvc == nil {
		return
	}
	title, _ := rec["title"].(string)
	message, _ := rec["message"].(string)
	api.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Address: api.conf.NotifyEmail}},
		Subject: fmt.Sprintf("New announcement: %s", title),
		BodyStr: message,
	})
}
