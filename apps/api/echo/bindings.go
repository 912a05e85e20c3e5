package echoapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/calendar"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// WindowQuery selects a calendar window and, optionally, a single child.
// Kind defaults to week, or to custom when Start or End is set.
// Week picks the n-th week of Date's year instead of the week containing Date.
type WindowQuery struct {
	Kind    string `query:"kind" json:"kind"`
	Date    string `query:"date" json:"date"`
	Week    int    `query:"week" json:"week"`
	Start   string `query:"start" json:"start"`
	End     string `query:"end" json:"end"`
	ChildID string `query:"child_id" json:"child_id"`
}

func (q *WindowQuery) Clean() {
	q.Kind = core.CleanString(q.Kind, true /* lower */)
	q.Date = core.CleanString(q.Date)
	q.Start = core.CleanString(q.Start)
	q.End = core.CleanString(q.End)
	q.ChildID = core.CleanString(q.ChildID)
}

// Resolve turns the query into a window around now.
func (q *WindowQuery) Resolve(cal *calendar.Resolver, now time.Time) (calendar.Window, error) {
	q.Clean()
	ref, err := parseDayParam(cal, "date", q.Date, now)
	if err != nil {
		return calendar.Window{}, err
	}

	kind := calendar.Kind(q.Kind)
	if kind == "" {
		kind = calendar.KindWeek
		if q.Start != "" || q.End != "" {
			kind = calendar.KindCustom
		}
	}

	switch kind {
	case calendar.KindWeek:
		if q.Week != 0 {
			year, _ := cal.WeekNumber(ref)
			return cal.WeekOfYear(year, q.Week)
		}
		return cal.Week(ref), nil
	case calendar.KindCustom:
		var flds []core.FieldError
		if q.Start == "" {
			flds = append(flds, core.FieldError{Field: "start", Error: "this field is required"})
		}
		if q.End == "" {
			flds = append(flds, core.FieldError{Field: "end", Error: "this field is required"})
		}
		if flds != nil {
			return calendar.Window{}, core.NewValidationError(nil, flds...)
		}
		start, err := parseDayParam(cal, "start", q.Start, now)
		if err != nil {
			return calendar.Window{}, err
		}
		end, err := parseDayParam(cal, "end", q.End, now)
		if err != nil {
			return calendar.Window{}, err
		}
		return cal.Custom(start, end)
	default:
		return cal.Resolve(ref, calendar.Spec{Kind: kind})
	}
}

// parseDayParam parses a "2006-01-02" parameter, defaulting to the day of now when empty.
func parseDayParam(cal *calendar.Resolver, name, value string, now time.Time) (time.Time, error) {
	if value == "" {
		return cal.Day(now), nil
	}
	d, err := cal.ParseDay(value)
	if err != nil {
		return time.Time{}, core.NewValidationError(nil, core.FieldError{
			Field: name,
			Error: "invalid date, expected YYYY-MM-DD",
		})
	}
	return d, nil
}

// parseFloatParam parses an optional float query parameter; ok is false when absent.
func parseFloatParam(ctx echo.Context, name string) (v float64, ok bool, err error) {
	raw := strings.TrimSpace(ctx.QueryParam(name))
	if raw == "" {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, core.NewValidationError(nil, core.FieldError{Field: name, Error: "must be a number"})
	}
	return v, true, nil
}

// parseIntParam parses an optional int query parameter, returning 0 when absent.
func parseIntParam(ctx echo.Context, name string) (int, error) {
	raw := strings.TrimSpace(ctx.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, core.NewValidationError(nil, core.FieldError{Field: name, Error: "must be an integer"})
	}
	return v, nil
}
