package echoapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/koinonia/core"
	"github.com/trezcool/koinonia/core/reminder"
)

// resolveTimeout bounds the fan-out leaf reads for one resolution.
const resolveTimeout = 10 * time.Second

var errInvalidDate = echo.NewHTTPError(http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")

type reminderApi struct {
	svc      *reminder.Service
	validate *validator.Validate
}

func registerReminderAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *reminder.Service, validate *validator.Validate) {
	api := reminderApi{svc: svc, validate: validate}

	rg := g.Group("/reminders", jwt, adminMiddleware())
	rg.GET("/due", api.due)
	rg.POST("/dispatches", api.recordDispatch)
}

// Handlers

func (api *reminderApi) due(ctx echo.Context) error {
	day := core.Today()
	if raw := ctx.QueryParam("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return errInvalidDate
		}
		day = parsed
	}

	rctx, cancel := context.WithTimeout(ctx.Request().Context(), resolveTimeout)
	defer cancel()

	obs, err := api.svc.Resolve(rctx, day)
	if err != nil {
		return errors.Wrap(err, "resolving reminder obligations")
	}
	if obs == nil {
		obs = []reminder.Obligation{}
	}
	return ctx.JSON(http.StatusOK, obs)
}

func (api *reminderApi) recordDispatch(ctx echo.Context) error {
	var data reminder.NewDispatch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDispatch")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rec, err := api.svc.Record(ctx.Request().Context(), data.Obligation(), data.Message)
	if err != nil {
		return errors.Wrap(err, "recording dispatch")
	}
	return ctx.JSON(http.StatusCreated, rec)
}
