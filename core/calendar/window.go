// Package calendar resolves the inclusive day windows used for backfills and progress.
//
// All boundaries are day-granular and expressed in the household's configured location:
// a Window starts at 00:00 of its first day and ends at the last nanosecond of its last day.
package calendar

import (
	"time"

	"github.com/mutabaah/mutabaah/core"
)

// DayLayout is the wire and storage format of a calendar day.
const DayLayout = "2006-01-02"

type Kind string

const (
	KindWeek   Kind = "week"
	KindYear   Kind = "year"
	KindCustom Kind = "custom"
)

func (k Kind) Valid() bool {
	switch k {
	case KindWeek, KindYear, KindCustom:
		return true
	}
	return false
}

// Spec describes which window to resolve. Start and End are only read for KindCustom.
type Spec struct {
	Kind  Kind
	Start time.Time
	End   time.Time
}

type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls on a day inside the window, both ends included.
func (w Window) Contains(t time.Time) bool {
	t = t.In(w.Start.Location())
	return !t.Before(w.Start) && !t.After(w.End)
}

// Days enumerates every day of the window by calendar stepping.
func (w Window) Days() []time.Time {
	if w.End.Before(w.Start) {
		return nil
	}
	loc := w.Start.Location()
	last := StartOfDay(w.End, loc)
	days := make([]time.Time, 0, 8)
	for d := StartOfDay(w.Start, loc); !d.After(last); d = nextDay(d) {
		days = append(days, d)
	}
	return days
}

// ClipEnd returns the window ending no later than the end of t's day.
// ok is false when the whole window lies after t.
func (w Window) ClipEnd(t time.Time) (Window, bool) {
	end := EndOfDay(t, w.Start.Location())
	if end.Before(w.Start) {
		return Window{}, false
	}
	if end.Before(w.End) {
		return Window{Start: w.Start, End: end}, true
	}
	return w, true
}

func (w Window) StartDay() string { return w.Start.Format(DayLayout) }
func (w Window) EndDay() string   { return w.End.Format(DayLayout) }

// StartOfDay returns 00:00 of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns the last nanosecond of t's calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	return nextDay(StartOfDay(t, loc)).Add(-time.Nanosecond)
}

// SameDay compares calendar days in loc, ignoring the time of day.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return DayKey(a, loc) == DayKey(b, loc)
}

// DayKey formats t's calendar day in loc.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayLayout)
}

// ParseDay parses a "2006-01-02" day in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DayLayout, s, loc)
}

// nextDay rebuilds the date instead of adding 24h, so DST transitions cannot shift it.
func nextDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day()+1, 0, 0, 0, 0, d.Location())
}

type Resolver struct {
	loc       *time.Location
	weekStart time.Weekday
}

func NewResolver(loc *time.Location, weekStart time.Weekday) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	return &Resolver{loc: loc, weekStart: weekStart}
}

func (r *Resolver) Location() *time.Location { return r.loc }
func (r *Resolver) WeekStart() time.Weekday  { return r.weekStart }

// Day normalizes t to the start of its day in the resolver's location.
func (r *Resolver) Day(t time.Time) time.Time { return StartOfDay(t, r.loc) }

func (r *Resolver) ParseDay(s string) (time.Time, error) { return ParseDay(s, r.loc) }

func (r *Resolver) Resolve(ref time.Time, spec Spec) (Window, error) {
	switch spec.Kind {
	case KindWeek, "":
		return r.Week(ref), nil
	case KindYear:
		return r.Year(ref), nil
	case KindCustom:
		return r.Custom(spec.Start, spec.End)
	default:
		return Window{}, core.NewInvalidRangeError(spec.Start, spec.End, "unknown window kind "+string(spec.Kind))
	}
}

// Week returns the calendar week containing ref.
func (r *Resolver) Week(ref time.Time) Window {
	start := r.weekStartOf(ref)
	return Window{
		Start: start,
		End:   EndOfDay(time.Date(start.Year(), start.Month(), start.Day()+6, 0, 0, 0, 0, r.loc), r.loc),
	}
}

// Year returns January 1st to December 31st of ref's year.
func (r *Resolver) Year(ref time.Time) Window {
	year := ref.In(r.loc).Year()
	return Window{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, r.loc),
		End:   EndOfDay(time.Date(year, time.December, 31, 0, 0, 0, 0, r.loc), r.loc),
	}
}

// Custom returns the given bounds normalized to whole days.
func (r *Resolver) Custom(start, end time.Time) (Window, error) {
	w := Window{Start: StartOfDay(start, r.loc), End: EndOfDay(end, r.loc)}
	if w.Start.After(w.End) {
		return Window{}, core.NewInvalidRangeError(start, end)
	}
	return w, nil
}

// WeekNumber returns the week-year and number of t's week. Week 1 contains January 1st,
// so the last days of December may belong to week 1 of the next year.
func (r *Resolver) WeekNumber(t time.Time) (year, week int) {
	t = StartOfDay(t, r.loc)
	start := r.weekStartOf(t)
	year = t.Year()
	if next := r.weekStartOf(time.Date(year+1, time.January, 1, 0, 0, 0, 0, r.loc)); !start.Before(next) {
		year++
	}
	first := r.weekStartOf(time.Date(year, time.January, 1, 0, 0, 0, 0, r.loc))
	return year, daysBetween(first, start)/7 + 1
}

// WeeksInYear returns how many weeks start in or contain days of the given year.
func (r *Resolver) WeeksInYear(year int) int {
	first := r.weekStartOf(time.Date(year, time.January, 1, 0, 0, 0, 0, r.loc))
	next := r.weekStartOf(time.Date(year+1, time.January, 1, 0, 0, 0, 0, r.loc))
	return daysBetween(first, next) / 7
}

// WeekOfYear returns the n-th week (1-based) of year.
func (r *Resolver) WeekOfYear(year, n int) (Window, error) {
	if n < 1 || n > r.WeeksInYear(year) {
		jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, r.loc)
		return Window{}, core.NewInvalidRangeError(jan1, jan1, "week number out of range")
	}
	first := r.weekStartOf(time.Date(year, time.January, 1, 0, 0, 0, 0, r.loc))
	return r.Week(time.Date(first.Year(), first.Month(), first.Day()+7*(n-1), 0, 0, 0, 0, r.loc)), nil
}

func (r *Resolver) weekStartOf(t time.Time) time.Time {
	d := StartOfDay(t, r.loc)
	offset := (int(d.Weekday()) - int(r.weekStart) + 7) % 7
	return time.Date(d.Year(), d.Month(), d.Day()-offset, 0, 0, 0, 0, r.loc)
}

// daysBetween counts calendar days from a to b; both must be day starts in the same location.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
