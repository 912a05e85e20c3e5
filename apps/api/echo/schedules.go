package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/calendar"
	"github.com/mutabaah/mutabaah/core/schedule"
)

var errScheduleNotFoundInCtx = errors.New("schedule object not found in echo.Context")

type scheduleApi struct {
	svc      *schedule.Service
	cal      *calendar.Resolver
	validate *validator.Validate
	now      func() time.Time
}

func registerScheduleAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := scheduleApi{
		svc:      deps.ScheduleSvc,
		cal:      deps.Calendar,
		validate: deps.Validate,
		now:      deps.Now,
	}

	sg := g.Group("/schedules", jwt)
	sg.GET("", api.query)
	sg.POST("", api.create)

	dg := sg.Group("/:id", scheduleObjectMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.POST("/status", api.setStatus)
}

// query lists schedules. `from` and `to` bound the start date by whole days;
// `week` (with an optional `date` picking the year) selects one week instead.
func (api *scheduleApi) query(ctx echo.Context) error {
	filter := new(schedule.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []schedule.Schedule{})
	}
	filter.Clean()

	now := api.now()
	weekNum, err := parseIntParam(ctx, "week")
	if err != nil {
		return err
	}
	if weekNum != 0 {
		ref, err := parseDayParam(api.cal, "date", core.CleanString(ctx.QueryParam("date")), now)
		if err != nil {
			return err
		}
		year, _ := api.cal.WeekNumber(ref)
		w, err := api.cal.WeekOfYear(year, weekNum)
		if err != nil {
			return err
		}
		filter.From, filter.To = w.Start, w.End
	} else {
		if from := core.CleanString(ctx.QueryParam("from")); from != "" {
			d, err := parseDayParam(api.cal, "from", from, now)
			if err != nil {
				return err
			}
			filter.From = d
		}
		if to := core.CleanString(ctx.QueryParam("to")); to != "" {
			d, err := parseDayParam(api.cal, "to", to, now)
			if err != nil {
				return err
			}
			filter.To = calendar.EndOfDay(d, api.cal.Location())
		}
		if !filter.From.IsZero() && !filter.To.IsZero() && filter.From.After(filter.To) {
			return core.NewInvalidRangeError(filter.From, filter.To)
		}
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)

	schedules, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying schedules")
	}
	if schedules == nil {
		schedules = []schedule.Schedule{}
	}
	return ctx.JSON(http.StatusOK, schedules)
}

func (api *scheduleApi) create(ctx echo.Context) error {
	var data schedule.NewSchedule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchedule")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating schedule")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *scheduleApi) retrieve(ctx echo.Context) error {
	s, ok := ctx.Get("object").(schedule.Schedule)
	if !ok {
		return errors.Wrap(errScheduleNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *scheduleApi) update(ctx echo.Context) error {
	s, ok := ctx.Get("object").(schedule.Schedule)
	if !ok {
		return errors.Wrap(errScheduleNotFoundInCtx, "retrieving object from context")
	}

	var data schedule.UpdateSchedule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSchedule")
	}
	if err := data.Validate(s, api.validate); err != nil {
		return err
	}

	s, err := api.svc.Update(ctx.Request().Context(), s, data)
	if err != nil {
		return errors.Wrap(err, "updating schedule")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *scheduleApi) setStatus(ctx echo.Context) error {
	s, ok := ctx.Get("object").(schedule.Schedule)
	if !ok {
		return errors.Wrap(errScheduleNotFoundInCtx, "retrieving object from context")
	}

	var data schedule.SetStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetStatus")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.SetStatus(ctx.Request().Context(), s.ID, data.Status)
	if err != nil {
		return errors.Wrap(err, "setting schedule status")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *scheduleApi) destroy(ctx echo.Context) error {
	s, ok := ctx.Get("object").(schedule.Schedule)
	if !ok {
		return errors.Wrap(errScheduleNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), s.ID); err != nil {
		return errors.Wrap(err, "deleting schedule")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func scheduleObjectMiddleware(svc *schedule.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			s, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				return errors.Wrap(err, "finding schedule by ID")
			}
			ctx.Set("object", s)
			return next(ctx)
		}
	}
}
