package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/child"
	"github.com/mutabaah/mutabaah/core/schedule"
	"github.com/mutabaah/mutabaah/storage/database/inmem"
)

var ctx = context.Background()

func newValidator() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	schedule.InitValidators(validate, translator)
	return validate
}

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to schedule.Status
		want     bool
	}{
		{schedule.StatusNotStarted, schedule.StatusInProgress, true},
		{schedule.StatusNotStarted, schedule.StatusDone, true},
		{schedule.StatusInProgress, schedule.StatusDone, true},
		{schedule.StatusInProgress, schedule.StatusNotStarted, true},
		{schedule.StatusDone, schedule.StatusInProgress, true},
		{schedule.StatusDone, schedule.StatusNotStarted, false},
		{schedule.StatusDone, schedule.StatusDone, true},
		{schedule.StatusNotStarted, "cancelled", false},
		{"cancelled", "cancelled", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestNewSchedule_Validate(t *testing.T) {
	validate := newValidator()
	start := time.Date(2024, time.March, 11, 16, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		ns        schedule.NewSchedule
		wantField string
	}{
		{name: "valid", ns: schedule.NewSchedule{Title: "Tahfidz", ChildID: "c1", StartDate: start, EndDate: start.Add(time.Hour)}},
		{name: "blank title", ns: schedule.NewSchedule{Title: " ", ChildID: "c1", StartDate: start, EndDate: start}, wantField: "title"},
		{name: "missing child", ns: schedule.NewSchedule{Title: "Tahfidz", StartDate: start, EndDate: start}, wantField: "child_id"},
		{name: "end before start", ns: schedule.NewSchedule{Title: "Tahfidz", ChildID: "c1", StartDate: start, EndDate: start.Add(-time.Minute)}, wantField: "end_date"},
		{name: "unknown status", ns: schedule.NewSchedule{Title: "Tahfidz", ChildID: "c1", StartDate: start, EndDate: start, Status: "paused"}, wantField: "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns := tt.ns
			err := ns.Validate(validate)
			if tt.wantField == "" {
				require.NoError(t, err)
				assert.Equal(t, schedule.StatusNotStarted, ns.Status)
				return
			}
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tt.wantField, verrs[0].Field())
		})
	}
}

type fixture struct {
	children child.Repository
	svc      *schedule.Service
}

func newFixture() *fixture {
	db := inmemdb.Open()
	children := inmemdb.NewChildRepository(db)
	return &fixture{children: children, svc: schedule.NewService(inmemdb.NewScheduleRepository(db), children)}
}

func (f *fixture) createChild(t *testing.T, name string) child.Child {
	t.Helper()
	c, err := f.children.CreateChild(ctx, child.Child{Name: name, CreatedAt: time.Now().UTC()})
	require.NoError(t, err)
	return c
}

func (f *fixture) createSchedule(t *testing.T, title string, c child.Child, start time.Time, status schedule.Status) schedule.Schedule {
	t.Helper()
	s, err := f.svc.Create(ctx, schedule.NewSchedule{Title: title, ChildID: c.ID, StartDate: start, EndDate: start.Add(time.Hour), Status: status})
	require.NoError(t, err)
	return s
}

func TestService_Create(t *testing.T) {
	f := newFixture()
	umar := f.createChild(t, "Umar")
	wib := time.FixedZone("WIB", 7*60*60)
	start := time.Date(2024, time.March, 11, 16, 0, 0, 0, wib)

	s, err := f.svc.Create(ctx, schedule.NewSchedule{
		Title:     "Tahfidz",
		ChildID:   umar.ID,
		StartDate: start,
		EndDate:   start.Add(time.Hour),
		Deadline:  null.TimeFrom(start.Add(24 * time.Hour)),
		Status:    schedule.StatusNotStarted,
	})
	require.NoError(t, err)
	assert.Equal(t, "Umar", s.ChildName)
	assert.Equal(t, time.UTC, s.StartDate.Location())
	assert.True(t, s.StartDate.Equal(start))
	assert.Equal(t, time.UTC, s.Deadline.Time.Location())

	_, err = f.svc.Create(ctx, schedule.NewSchedule{Title: "Ghost", ChildID: "nope", StartDate: start, EndDate: start})
	assert.ErrorIs(t, err, child.ErrNotFound)
	assert.True(t, core.IsNotFound(err))
}

func TestService_SetStatus(t *testing.T) {
	f := newFixture()
	umar := f.createChild(t, "Umar")
	start := time.Date(2024, time.March, 11, 16, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		from, to  schedule.Status
		wantErr   bool
	}{
		{name: "start", from: schedule.StatusNotStarted, to: schedule.StatusInProgress},
		{name: "finish", from: schedule.StatusInProgress, to: schedule.StatusDone},
		{name: "same status is a no-op", from: schedule.StatusDone, to: schedule.StatusDone},
		{name: "done cannot restart", from: schedule.StatusDone, to: schedule.StatusNotStarted, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := f.createSchedule(t, tt.name, umar, start, tt.from)
			got, err := f.svc.SetStatus(ctx, s.ID, tt.to)
			if tt.wantErr {
				var verr *core.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, "status", verr.Fields[0].Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, got.Status)
		})
	}

	_, err := f.svc.SetStatus(ctx, "nope", schedule.StatusDone)
	assert.ErrorIs(t, err, schedule.ErrNotFound)
}

func TestService_Update(t *testing.T) {
	validate := newValidator()
	f := newFixture()
	umar := f.createChild(t, "Umar")
	aisyah := f.createChild(t, "Aisyah")
	start := time.Date(2024, time.March, 11, 16, 0, 0, 0, time.UTC)
	orig := f.createSchedule(t, "Tahfidz", umar, start, schedule.StatusDone)

	t.Run("invalid transition", func(t *testing.T) {
		us := schedule.UpdateSchedule{Status: schedule.StatusNotStarted}
		err := us.Validate(orig, validate)
		assert.Error(t, err)
	})

	t.Run("reassign child", func(t *testing.T) {
		us := schedule.UpdateSchedule{ChildID: aisyah.ID}
		require.NoError(t, us.Validate(orig, validate))
		got, err := f.svc.Update(ctx, orig, us)
		require.NoError(t, err)
		assert.Equal(t, "Tahfidz", got.Title)
		assert.Equal(t, aisyah.ID, got.ChildID)
		assert.Equal(t, "Aisyah", got.ChildName)
		assert.Equal(t, schedule.StatusDone, got.Status)
	})
}

func TestService_WeekAndUpcoming(t *testing.T) {
	f := newFixture()
	umar := f.createChild(t, "Umar")
	base := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	late := f.createSchedule(t, "Renang", umar, base.Add(50*time.Hour), schedule.StatusNotStarted)
	early := f.createSchedule(t, "Tahfidz", umar, base.Add(2*time.Hour), schedule.StatusInProgress)
	done := f.createSchedule(t, "Iqro", umar, base.Add(3*time.Hour), schedule.StatusDone)
	f.createSchedule(t, "Next week", umar, base.AddDate(0, 0, 8), schedule.StatusNotStarted)

	week, err := f.svc.Week(ctx, base, base.AddDate(0, 0, 7).Add(-time.Nanosecond))
	require.NoError(t, err)
	assert.Equal(t, []string{early.ID, done.ID, late.ID}, ids(week))

	upcoming, err := f.svc.Upcoming(ctx, base, base.Add(4*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{early.ID}, ids(upcoming))
}

func TestComputeActivityProgress(t *testing.T) {
	umar := child.Child{ID: "c1", Name: "Umar"}
	aisyah := child.Child{ID: "c2", Name: "Aisyah"}
	schedules := []schedule.Schedule{
		{ChildID: "c1", Status: schedule.StatusDone},
		{ChildID: "c1", Status: schedule.StatusInProgress},
		{ChildID: "c1", Status: schedule.StatusNotStarted},
		{ChildID: "ghost", Status: schedule.StatusDone},
	}
	got := schedule.ComputeActivityProgress([]child.Child{umar, aisyah}, schedules)
	assert.Equal(t, []schedule.ActivityProgress{
		{ChildID: "c1", ChildName: "Umar", Total: 3, Completed: 1, Percent: 33},
		{ChildID: "c2", ChildName: "Aisyah"},
	}, got)
}

func TestSchedule_Stamp(t *testing.T) {
	s := schedule.Schedule{ID: "s1", StartDate: time.Date(2024, time.March, 11, 23, 0, 0, 0, time.FixedZone("WIB", 7*60*60))}
	assert.Equal(t, "s1@2024-03-11T16:00:00Z", s.Stamp())
}

func ids(schedules []schedule.Schedule) []string {
	out := make([]string, 0, len(schedules))
	for _, s := range schedules {
		out = append(out, s.ID)
	}
	return out
}
