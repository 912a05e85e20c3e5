// Package aladhan computes prayer times through the Aladhan REST API (https://aladhan.com/prayer-times-api).
package aladhan

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/prayertimes"
)

type timingsResponse struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   struct {
		Timings map[string]string `json:"timings"`
		Meta    struct {
			Timezone string `json:"timezone"`
		} `json:"meta"`
	} `json:"data"`
}

type Client struct {
	rest    *rest.Client
	baseURL string
	method  int
	school  int
}

var _ prayertimes.Calculator = (*Client)(nil)

func NewClient(conf *core.Config) *Client {
	return &Client{
		rest:    &rest.Client{HTTPClient: &http.Client{Timeout: 10 * time.Second}},
		baseURL: strings.TrimRight(conf.PrayerTimes.BaseURL, "/"),
		method:  conf.PrayerTimes.Method,
		school:  conf.PrayerTimes.School,
	}
}

func (c *Client) Timings(ctx context.Context, day time.Time, coords prayertimes.Coordinates, loc *time.Location) (prayertimes.Timetable, error) {
	req := rest.Request{
		Method:  rest.Get,
		BaseURL: c.baseURL + "/v1/timings/" + day.In(loc).Format("02-01-2006"),
		Headers: map[string]string{"Accept": "application/json"},
		QueryParams: map[string]string{
			"latitude":       strconv.FormatFloat(coords.Latitude, 'f', -1, 64),
			"longitude":      strconv.FormatFloat(coords.Longitude, 'f', -1, 64),
			"method":         strconv.Itoa(c.method),
			"school":         strconv.Itoa(c.school),
			"timezonestring": loc.String(),
		},
	}
	res, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		return prayertimes.Timetable{}, errors.Wrap(err, "requesting timings")
	}
	if res.StatusCode != http.StatusOK {
		return prayertimes.Timetable{}, errors.Errorf("requesting timings: status %d: %s", res.StatusCode, res.Body)
	}

	var body timingsResponse
	if err = json.Unmarshal([]byte(res.Body), &body); err != nil {
		return prayertimes.Timetable{}, errors.Wrap(err, "decoding timings")
	}
	timing := func(name string) (string, error) {
		v, ok := body.Data.Timings[name]
		if !ok {
			return "", fmt.Errorf("decoding timings: missing %s", name)
		}
		return clean(v), nil
	}

	tt := prayertimes.Timetable{
		Date:      day.In(loc).Format("2006-01-02"),
		Timezone:  loc.String(),
		Location:  coords,
		FetchedAt: time.Now().UTC(),
	}
	if body.Data.Meta.Timezone != "" {
		tt.Timezone = body.Data.Meta.Timezone
	}
	for name, dest := range map[string]*string{
		"Fajr":    &tt.Fajr,
		"Sunrise": &tt.Sunrise,
		"Dhuhr":   &tt.Dhuhr,
		"Asr":     &tt.Asr,
		"Maghrib": &tt.Maghrib,
		"Isha":    &tt.Isha,
	} {
		if *dest, err = timing(name); err != nil {
			return prayertimes.Timetable{}, err
		}
	}
	return tt, nil
}

// clean drops the " (WIB)" zone suffix the API appends to some timings.
func clean(v string) string {
	if i := strings.IndexByte(v, ' '); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}
