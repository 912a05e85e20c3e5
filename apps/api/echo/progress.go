package echoapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/calendar"
	"github.com/mutabaah/mutabaah/core/child"
	"github.com/mutabaah/mutabaah/core/prayer"
	"github.com/mutabaah/mutabaah/core/prayertimes"
	"github.com/mutabaah/mutabaah/core/schedule"
)

const weekLabelLayout = "02 Jan"

type progressApi struct {
	prayers     *prayer.Service
	children    *child.Service
	schedules   *schedule.Service
	prayerTimes *prayertimes.Service
	cal         *calendar.Resolver
	logger      core.Logger
	now         func() time.Time
}

func registerProgressAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := progressApi{
		prayers:     deps.PrayerSvc,
		children:    deps.ChildSvc,
		schedules:   deps.ScheduleSvc,
		prayerTimes: deps.PrayerTimesSvc,
		cal:         deps.Calendar,
		logger:      deps.Logger,
		now:         deps.Now,
	}

	g.GET("/progress", api.progress, jwt)
	g.GET("/report", api.report, jwt)
	g.GET("/dashboard", api.dashboard, jwt)
}

type (
	ProgressResponse struct {
		Window   calendar.Window   `json:"window"`
		Progress []prayer.Progress `json:"progress"`
	}

	ReportResponse struct {
		Year       ProgressResponse           `json:"year"`
		Week       ProgressResponse           `json:"week"`
		Activities []schedule.ActivityProgress `json:"activities"`
	}

	DashboardResponse struct {
		Date         string                 `json:"date"`
		PrayerTimes  *prayertimes.Timetable `json:"prayer_times"`
		YearProgress []prayer.Progress      `json:"year_progress"`
		Week         int                    `json:"week"`
		Weeks        []int                  `json:"weeks"`
		WeekStart    string                 `json:"week_start"`
		WeekEnd      string                 `json:"week_end"`
		Schedules    []schedule.Schedule    `json:"schedules"`
		Children     []child.Child          `json:"children"`
	}
)

// computeProgress backfills w up to today, then aggregates over the whole of w.
// Days after today are not backfilled, but records already there (marked
// explicitly or created by a weekly listing) are counted.
func (api *progressApi) computeProgress(ctx context.Context, children []child.Child, w calendar.Window) ([]prayer.Progress, error) {
	if clipped, ok := w.ClipEnd(api.now()); ok {
		if _, err := api.prayers.ReconcileAll(ctx, children, clipped); err != nil {
			return nil, errors.Wrap(err, "reconciling")
		}
	}
	progress, err := api.prayers.Progress(ctx, children, w)
	return progress, errors.Wrap(err, "aggregating progress")
}

func (api *progressApi) progress(ctx echo.Context) error {
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
	progress, err := api.computeProgress(rctx, children, w)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ProgressResponse{Window: w, Progress: progress})
}

func (api *progressApi) report(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	now := api.now()

	children, err := api.children.Select(rctx, "")
	if err != nil {
		return errors.Wrap(err, "selecting children")
	}

	resp := ReportResponse{
		Year: ProgressResponse{Window: api.cal.Year(now)},
		Week: ProgressResponse{Window: api.cal.Week(now)},
	}
	if resp.Year.Progress, err = api.computeProgress(rctx, children, resp.Year.Window); err != nil {
		return err
	}
	if resp.Week.Progress, err = api.computeProgress(rctx, children, resp.Week.Window); err != nil {
		return err
	}

	schedules, err := api.schedules.Query(rctx, nil, nil)
	if err != nil {
		return errors.Wrap(err, "querying schedules")
	}
	resp.Activities = schedule.ComputeActivityProgress(children, schedules)

	return ctx.JSON(http.StatusOK, resp)
}

func (api *progressApi) dashboard(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	now := api.now()

	ref, err := parseDayParam(api.cal, "date", core.CleanString(ctx.QueryParam("date")), now)
	if err != nil {
		return err
	}
	weekNum, err := parseIntParam(ctx, "week")
	if err != nil {
		return err
	}
	year, current := api.cal.WeekNumber(ref)
	if weekNum == 0 {
		weekNum = current
	}
	week, err := api.cal.WeekOfYear(year, weekNum)
	if err != nil {
		return err
	}

	children, err := api.children.Select(rctx, "")
	if err != nil {
		return errors.Wrap(err, "selecting children")
	}
	if children == nil {
		children = []child.Child{}
	}

	resp := DashboardResponse{
		Date:      calendar.DayKey(ref, api.cal.Location()),
		Week:      weekNum,
		Weeks:     make([]int, api.cal.WeeksInYear(year)),
		WeekStart: week.Start.Format(weekLabelLayout),
		WeekEnd:   week.End.Format(weekLabelLayout),
		Children:  children,
	}
	for i := range resp.Weeks {
		resp.Weeks[i] = i + 1
	}

	// prayer times are informative: an unreachable calculator must not break the dashboard
	if tt, err := api.prayerTimes.ForDate(rctx, ref, nil); err != nil {
		api.logger.Warn(fmt.Sprintf("dashboard: prayer times: %v", err), err)
	} else {
		resp.PrayerTimes = &tt
	}

	if resp.YearProgress, err = api.computeProgress(rctx, children, api.cal.Year(ref)); err != nil {
		return err
	}

	if resp.Schedules, err = api.schedules.Week(rctx, week.Start, week.End); err != nil {
		return errors.Wrap(err, "querying schedules of the week")
	}
	if resp.Schedules == nil {
		resp.Schedules = []schedule.Schedule{}
	}

	return ctx.JSON(http.StatusOK, resp)
}
