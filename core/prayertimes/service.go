package prayertimes

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/calendar"
)

type Service struct {
	calc     Calculator
	cache    Cache
	loc      *time.Location
	defaults Coordinates
	ttl      time.Duration
	logger   core.Logger
}

func NewService(calc Calculator, cache Cache, conf *core.Config, logger core.Logger) *Service {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Service{
		calc:     calc,
		cache:    cache,
		loc:      conf.Location,
		defaults: Coordinates{Latitude: conf.PrayerTimes.Latitude, Longitude: conf.PrayerTimes.Longitude},
		ttl:      conf.PrayerTimes.CacheTTL,
		logger:   logger,
	}
}

func (svc *Service) Defaults() Coordinates { return svc.defaults }

func cacheKey(day string, coords Coordinates) string {
	return "prayertimes:" + day + ":" + coords.String()
}

// ForDate returns the timetable of day at coords, or at the household location when coords is nil.
// Cache failures are logged and never fail the lookup.
func (svc *Service) ForDate(ctx context.Context, day time.Time, coords *Coordinates) (Timetable, error) {
	c := svc.defaults
	if coords != nil {
		c = *coords
	}
	day = calendar.StartOfDay(day, svc.loc)
	key := cacheKey(day.Format(calendar.DayLayout), c)

	if tt, ok, err := svc.cache.Get(ctx, key); err != nil {
		svc.logger.Warn(fmt.Sprintf("prayertimes: reading cache: %v", err), err)
	} else if ok {
		return tt, nil
	}

	tt, err := svc.calc.Timings(ctx, day, c, svc.loc)
	if err != nil {
		return Timetable{}, errors.Wrap(err, "computing prayer times")
	}
	if err = svc.cache.Set(ctx, key, tt, svc.ttl); err != nil {
		svc.logger.Warn(fmt.Sprintf("prayertimes: writing cache: %v", err), err)
	}
	return tt, nil
}
