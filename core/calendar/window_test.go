package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mutabaah/mutabaah/core"
)

var wib = time.FixedZone("WIB", 7*60*60)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, wib)
}

func TestResolver_Week(t *testing.T) {
	tests := []struct {
		name      string
		weekStart time.Weekday
		ref       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{name: "sunday start, mid week", weekStart: time.Sunday, ref: day(2024, time.January, 3).Add(15 * time.Hour), wantStart: day(2023, time.December, 31), wantEnd: day(2024, time.January, 6)},
		{name: "sunday start, on start day", weekStart: time.Sunday, ref: day(2024, time.March, 10), wantStart: day(2024, time.March, 10), wantEnd: day(2024, time.March, 16)},
		{name: "sunday start, on last day", weekStart: time.Sunday, ref: day(2024, time.March, 16).Add(23 * time.Hour), wantStart: day(2024, time.March, 10), wantEnd: day(2024, time.March, 16)},
		{name: "monday start", weekStart: time.Monday, ref: day(2024, time.January, 3), wantStart: day(2024, time.January, 1), wantEnd: day(2024, time.January, 7)},
		{name: "monday start, sunday ref", weekStart: time.Monday, ref: day(2024, time.January, 7), wantStart: day(2024, time.January, 1), wantEnd: day(2024, time.January, 7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewResolver(wib, tt.weekStart).Week(tt.ref)
			assert.Equal(t, tt.wantStart, w.Start)
			assert.Equal(t, EndOfDay(tt.wantEnd, wib), w.End)
			assert.Len(t, w.Days(), 7)
		})
	}
}

func TestResolver_Week_UTCReference(t *testing.T) {
	// 2024-01-06 20:00 UTC is already Sunday 2024-01-07 03:00 in WIB.
	ref := time.Date(2024, time.January, 6, 20, 0, 0, 0, time.UTC)
	w := NewResolver(wib, time.Sunday).Week(ref)
	assert.Equal(t, day(2024, time.January, 7), w.Start)
}

func TestResolver_Year(t *testing.T) {
	r := NewResolver(wib, time.Sunday)

	w := r.Year(day(2024, time.June, 15))
	assert.Equal(t, day(2024, time.January, 1), w.Start)
	assert.Equal(t, EndOfDay(day(2024, time.December, 31), wib), w.End)
	assert.Len(t, w.Days(), 366)

	assert.Len(t, r.Year(day(2023, time.February, 1)).Days(), 365)
}

func TestResolver_Custom(t *testing.T) {
	r := NewResolver(wib, time.Sunday)

	t.Run("spans a year boundary", func(t *testing.T) {
		w, err := r.Custom(day(2023, time.December, 30).Add(13*time.Hour), day(2024, time.January, 2))
		require.NoError(t, err)
		days := w.Days()
		require.Len(t, days, 4)
		assert.Equal(t, day(2023, time.December, 30), days[0])
		assert.Equal(t, day(2023, time.December, 31), days[1])
		assert.Equal(t, day(2024, time.January, 1), days[2])
		assert.Equal(t, day(2024, time.January, 2), days[3])
	})

	t.Run("leap day", func(t *testing.T) {
		w, err := r.Custom(day(2024, time.February, 28), day(2024, time.March, 1))
		require.NoError(t, err)
		assert.Len(t, w.Days(), 3)
	})

	t.Run("single day", func(t *testing.T) {
		w, err := r.Custom(day(2024, time.May, 5), day(2024, time.May, 5))
		require.NoError(t, err)
		assert.Len(t, w.Days(), 1)
	})

	t.Run("start after end", func(t *testing.T) {
		_, err := r.Custom(day(2024, time.May, 6), day(2024, time.May, 5))
		require.Error(t, err)
		assert.True(t, core.IsInvalidRange(err))
		var rangeErr *core.InvalidRangeError
		assert.ErrorAs(t, err, &rangeErr)
	})

	t.Run("resolve dispatches", func(t *testing.T) {
		_, err := r.Resolve(day(2024, time.May, 5), Spec{Kind: KindCustom, Start: day(2024, time.May, 6), End: day(2024, time.May, 1)})
		assert.True(t, core.IsInvalidRange(err))

		w, err := r.Resolve(day(2024, time.May, 5), Spec{Kind: KindYear})
		require.NoError(t, err)
		assert.Equal(t, day(2024, time.January, 1), w.Start)

		_, err = r.Resolve(day(2024, time.May, 5), Spec{Kind: "fortnight"})
		assert.True(t, core.IsInvalidRange(err))
	})
}

func TestWindow_DaysAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}
	r := NewResolver(ny, time.Sunday)
	w, err := r.Custom(time.Date(2024, time.March, 9, 12, 0, 0, 0, ny), time.Date(2024, time.March, 12, 0, 0, 0, 0, ny))
	require.NoError(t, err)

	days := w.Days()
	require.Len(t, days, 4)
	for i, d := range days {
		assert.Equal(t, 0, d.Hour(), "day %d not at midnight", i)
		assert.Equal(t, 9+i, d.Day())
	}
}

func TestWindow_Contains(t *testing.T) {
	r := NewResolver(wib, time.Sunday)
	w, err := r.Custom(day(2024, time.May, 1), day(2024, time.May, 7))
	require.NoError(t, err)

	assert.True(t, w.Contains(w.Start))
	assert.True(t, w.Contains(w.End))
	assert.True(t, w.Contains(day(2024, time.May, 7)))
	assert.False(t, w.Contains(w.End.Add(time.Nanosecond)))
	assert.False(t, w.Contains(w.Start.Add(-time.Nanosecond)))
}

func TestWindow_ClipEnd(t *testing.T) {
	r := NewResolver(wib, time.Sunday)
	w := r.Year(day(2024, time.January, 1))

	clipped, ok := w.ClipEnd(day(2024, time.March, 3).Add(10 * time.Hour))
	require.True(t, ok)
	assert.Equal(t, w.Start, clipped.Start)
	assert.Equal(t, EndOfDay(day(2024, time.March, 3), wib), clipped.End)

	same, ok := w.ClipEnd(day(2025, time.March, 3))
	require.True(t, ok)
	assert.Equal(t, w, same)

	_, ok = w.ClipEnd(day(2023, time.December, 31))
	assert.False(t, ok)
}

func TestResolver_WeekNumbers(t *testing.T) {
	r := NewResolver(wib, time.Sunday)

	tests := []struct {
		day      time.Time
		wantYear int
		wantWeek int
	}{
		{day(2023, time.December, 30), 2023, 52},
		{day(2023, time.December, 31), 2024, 1},
		{day(2024, time.January, 1), 2024, 1},
		{day(2024, time.January, 6), 2024, 1},
		{day(2024, time.January, 7), 2024, 2},
		{day(2024, time.December, 28), 2024, 52},
		{day(2024, time.December, 29), 2025, 1},
		{day(2024, time.December, 30), 2025, 1},
		{day(2024, time.December, 31), 2025, 1},
		{day(2025, time.January, 1), 2025, 1},
		{day(2025, time.January, 4), 2025, 1},
		{day(2025, time.January, 5), 2025, 2},
	}
	for _, tt := range tests {
		year, week := r.WeekNumber(tt.day)
		assert.Equal(t, tt.wantYear, year, tt.day)
		assert.Equal(t, tt.wantWeek, week, tt.day)

		w, err := r.WeekOfYear(year, week)
		require.NoError(t, err, tt.day)
		assert.True(t, w.Contains(tt.day), tt.day)
	}

	assert.Equal(t, 52, r.WeeksInYear(2024))
	assert.Equal(t, 53, r.WeeksInYear(2022))

	w, err := r.WeekOfYear(2024, 1)
	require.NoError(t, err)
	assert.Equal(t, day(2023, time.December, 31), w.Start)

	w, err = r.WeekOfYear(2024, 10)
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.March, 3), w.Start)
	_, week := r.WeekNumber(w.Start)
	assert.Equal(t, 10, week)

	_, err = r.WeekOfYear(2024, 53)
	assert.True(t, core.IsInvalidRange(err))
	_, err = r.WeekOfYear(2024, 0)
	assert.True(t, core.IsInvalidRange(err))
}

func TestDayKey(t *testing.T) {
	assert.True(t, SameDay(day(2024, time.May, 1), day(2024, time.May, 1).Add(23*time.Hour), wib))
	assert.False(t, SameDay(day(2024, time.May, 1), day(2024, time.May, 2), wib))

	d, err := ParseDay("2024-05-01", wib)
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.May, 1), d)
	assert.Equal(t, "2024-05-01", DayKey(d, wib))
}
