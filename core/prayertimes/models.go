package prayertimes

import (
	"context"
	"fmt"
	"time"
)

type Coordinates struct {
	Latitude  float64 `json:"latitude" query:"lat" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" query:"lng" validate:"gte=-180,lte=180"`
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}

// Timetable lists the prayer times of one day, formatted "15:04" in Timezone.
type Timetable struct {
	Date      string      `json:"date"`
	Timezone  string      `json:"timezone"`
	Location  Coordinates `json:"location"`
	Fajr      string      `json:"fajr"`
	Sunrise   string      `json:"sunrise"`
	Dhuhr     string      `json:"dhuhr"`
	Asr       string      `json:"asr"`
	Maghrib   string      `json:"maghrib"`
	Isha      string      `json:"isha"`
	FetchedAt time.Time   `json:"fetched_at"`
}

// Calculator computes prayer times. Implementations call an external service.
type Calculator interface {
	Timings(ctx context.Context, day time.Time, coords Coordinates, loc *time.Location) (Timetable, error)
}

// Cache stores timetables by key until ttl expires. A miss is (Timetable{}, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) (Timetable, bool, error)
	Set(ctx context.Context, key string, tt Timetable, ttl time.Duration) error
}
