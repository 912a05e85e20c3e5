package echoapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/calendar"
	"github.com/mutabaah/mutabaah/core/prayertimes"
)

type prayerTimesApi struct {
	svc      *prayertimes.Service
	cal      *calendar.Resolver
	validate *validator.Validate
	logger   core.Logger
	now      func() time.Time
}

var errPrayerTimesUnavailable = echo.NewHTTPError(http.StatusBadGateway, "prayer times unavailable")

func registerPrayerTimesAPI(g *echo.Group, deps Deps) {
	api := prayerTimesApi{
		svc:      deps.PrayerTimesSvc,
		cal:      deps.Calendar,
		validate: deps.Validate,
		logger:   deps.Logger,
		now:      deps.Now,
	}
	g.GET("/prayer-times", api.timetable)
}

// timetable returns the prayer times of `date` (default today) at `lat`,`lng`,
// or at the household location when both are omitted.
func (api *prayerTimesApi) timetable(ctx echo.Context) error {
	day, err := parseDayParam(api.cal, "date", core.CleanString(ctx.QueryParam("date")), api.now())
	if err != nil {
		return err
	}

	lat, hasLat, err := parseFloatParam(ctx, "lat")
	if err != nil {
		return err
	}
	lng, hasLng, err := parseFloatParam(ctx, "lng")
	if err != nil {
		return err
	}

	var coords *prayertimes.Coordinates
	switch {
	case hasLat && hasLng:
		coords = &prayertimes.Coordinates{Latitude: lat, Longitude: lng}
		if err = api.validate.Struct(coords); err != nil {
			return err
		}
	case hasLat:
		return core.NewValidationError(nil, core.FieldError{Field: "lng", Error: "this field is required"})
	case hasLng:
		return core.NewValidationError(nil, core.FieldError{Field: "lat", Error: "this field is required"})
	}

	tt, err := api.svc.ForDate(ctx.Request().Context(), day, coords)
	if err != nil {
		api.logger.Warn(fmt.Sprintf("prayer-times: %v", err), err)
		return errPrayerTimesUnavailable
	}
	return ctx.JSON(http.StatusOK, tt)
}
