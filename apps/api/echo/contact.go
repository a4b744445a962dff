package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/koinonia/core/contact"
)

type contactApi struct {
	svc      *contact.Service
	validate *validator.Validate
}

func registerContactAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *contact.Service, validate *validator.Validate) {
	api := contactApi{svc: svc, validate: validate}

	cg := g.Group("/contacts", jwt, adminMiddleware())
	cg.POST("", api.create)
	cg.GET("", api.query)

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

// Handlers

func (api *contactApi) create(ctx echo.Context) error {
	var data contact.NewContact
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewContact")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	ct, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating contact")
	}
	return ctx.JSON(http.StatusCreated, ct)
}

func (api *contactApi) query(ctx echo.Context) error {
	var filter contact.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	cts, err := api.svc.Query(ctx.Request().Context(), &filter)
	if err != nil {
		return errors.Wrap(err, "querying contacts")
	}
	if cts == nil {
		cts = []contact.Contact{}
	}
	return ctx.JSON(http.StatusOK, cts)
}

func (api *contactApi) retrieve(ctx echo.Context) error {
	ct, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting contact")
	}
	return ctx.JSON(http.StatusOK, ct)
}

func (api *contactApi) update(ctx echo.Context) error {
	origCt, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting contact")
	}

	var data contact.UpdateContact
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateContact")
	}
	if err = data.Validate(origCt, api.validate, api.svc); err != nil {
		return err
	}

	ct, err := api.svc.Update(ctx.Request().Context(), origCt.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating contact")
	}
	return ctx.JSON(http.StatusOK, ct)
}

func (api *contactApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting contact")
	}
	return ctx.NoContent(http.StatusNoContent)
}
