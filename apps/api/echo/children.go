package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mutabaah/mutabaah/core/child"
)

var errChildNotFoundInCtx = errors.New("child object not found in echo.Context")

type childApi struct {
	svc      *child.Service
	validate *validator.Validate
}

func registerChildAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := childApi{
		svc:      deps.ChildSvc,
		validate: deps.Validate,
	}

	cg := g.Group("/children", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create)

	dg := cg.Group("/:id", childObjectMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

func (api *childApi) query(ctx echo.Context) error {
	filter := new(child.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []child.Child{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	children, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying children")
	}
	if children == nil {
		children = []child.Child{}
	}
	return ctx.JSON(http.StatusOK, children)
}

func (api *childApi) create(ctx echo.Context) error {
	var data child.NewChild
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewChild")
	}
	rctx := ctx.Request().Context()
	if err := data.Validate(rctx, api.validate, api.svc); err != nil {
		return err
	}

	c, err := api.svc.Create(rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating child")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *childApi) retrieve(ctx echo.Context) error {
	c, ok := ctx.Get("object").(child.Child)
	if !ok {
		return errors.Wrap(errChildNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *childApi) update(ctx echo.Context) error {
	c, ok := ctx.Get("object").(child.Child)
	if !ok {
		return errors.Wrap(errChildNotFoundInCtx, "retrieving object from context")
	}

	var data child.UpdateChild
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateChild")
	}
	rctx := ctx.Request().Context()
	if err := data.Validate(rctx, c, api.validate, api.svc); err != nil {
		return err
	}

	c, err := api.svc.Update(rctx, c, data)
	if err != nil {
		return errors.Wrap(err, "updating child")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *childApi) destroy(ctx echo.Context) error {
	c, ok := ctx.Get("object").(child.Child)
	if !ok {
		return errors.Wrap(errChildNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), c.ID); err != nil {
		return errors.Wrap(err, "deleting child")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func childObjectMiddleware(svc *child.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			c, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				return errors.Wrap(err, "finding child by ID")
			}
			ctx.Set("object", c)
			return next(ctx)
		}
	}
}
