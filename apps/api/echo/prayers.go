package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mutabaah/mutabaah/core/calendar"
	"github.com/mutabaah/mutabaah/core/child"
	"github.com/mutabaah/mutabaah/core/prayer"
)

type prayerApi struct {
	svc      *prayer.Service
	children *child.Service
	cal      *calendar.Resolver
	validate *validator.Validate
	now      func() time.Time
}

func registerPrayerAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := prayerApi{
		svc:      deps.PrayerSvc,
		children: deps.ChildSvc,
		cal:      deps.Calendar,
		validate: deps.Validate,
		now:      deps.Now,
	}

	pg := g.Group("/prayers", jwt)
	pg.GET("", api.list)
	pg.POST("/reconcile", api.reconcile)

	g.PUT("/children/:id/prayers", api.mark, jwt)
	g.PUT("/children/:id/prayers/:recordId", api.setStatus, jwt)
}

type (
	ChildSheet struct {
		ChildID   string            `json:"child_id"`
		ChildName string            `json:"child_name"`
		Days      []prayer.DaySheet `json:"days"`
	}

	PrayersResponse struct {
		Window   calendar.Window `json:"window"`
		Today    string          `json:"today"`
		Children []ChildSheet    `json:"children"`
	}

	ReconcileResponse struct {
		Window  calendar.Window `json:"window"`
		Created int             `json:"created"`
	}
)

// list backfills the week containing `date` and returns each child's ledger for it.
func (api *prayerApi) list(ctx echo.Context) error {
	var q WindowQuery
	if err := ctx.Bind(&q); err != nil {
		return errors.Wrap(err, "binding to WindowQuery")
	}
	q.Clean()
	ref, err := parseDayParam(api.cal, "date", q.Date, api.now())
	if err != nil {
		return err
	}
	w := api.cal.Week(ref)

	rctx := ctx.Request().Context()
	children, err := api.children.Select(rctx, q.ChildID)
	if err != nil {
		return errors.Wrap(err, "selecting children")
	}
	if _, err = api.svc.ReconcileAll(rctx, children, w); err != nil {
		return errors.Wrap(err, "reconciling week")
	}
	byChild, err := api.svc.RecordsByChild(rctx, children, w)
	if err != nil {
		return errors.Wrap(err, "reading records")
	}

	resp := PrayersResponse{
		Window:   w,
		Today:    calendar.DayKey(api.now(), api.cal.Location()),
		Children: make([]ChildSheet, 0, len(children)),
	}
	for _, c := range children {
		resp.Children = append(resp.Children, ChildSheet{
			ChildID:   c.ID,
			ChildName: c.Name,
			Days:      prayer.BuildSheet(byChild[c.ID], w),
		})
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *prayerApi) reconcile(ctx echo.Context) error {
	var q WindowQuery
	if err := ctx.Bind(&q); err != nil {
		return errors.Wrap(err, "binding to WindowQuery")
	}
	w, err := q.Resolve(api.cal, api.now())
	if err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	children, err := api.children.Select(rctx, q.ChildID)
	if err != nil {
		return errors.Wrap(err, "selecting children")
	}
	created, err := api.svc.ReconcileAll(rctx, children, w)
	if err != nil {
		return errors.Wrap(err, "reconciling")
	}
	return ctx.JSON(http.StatusOK, ReconcileResponse{Window: w, Created: created})
}

func (api *prayerApi) mark(ctx echo.Context) error {
	var data prayer.MarkRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkRecord")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}
	typ, _ := prayer.ParseType(data.Type)

	rec, err := api.svc.Mark(ctx.Request().Context(), ctx.Param("id"), typ, data.Date, *data.Status)
	if err != nil {
		return errors.Wrap(err, "marking prayer")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *prayerApi) setStatus(ctx echo.Context) error {
	var data prayer.UpdateStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStatus")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	rec, err := api.svc.SetStatus(ctx.Request().Context(), ctx.Param("id"), ctx.Param("recordId"), *data.Status)
	if err != nil {
		return errors.Wrap(err, "setting prayer status")
	}
	return ctx.JSON(http.StatusOK, rec)
}
