package child_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/calendar"
	"github.com/mutabaah/mutabaah/core/child"
	"github.com/mutabaah/mutabaah/core/prayer"
	"github.com/mutabaah/mutabaah/core/schedule"
	"github.com/mutabaah/mutabaah/storage/database/inmem"
)

var ctx = context.Background()

func newValidator() *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())
	return validate
}

func TestService(t *testing.T) {
	validate := newValidator()
	db := inmemdb.Open()
	svc := child.NewService(inmemdb.NewChildRepository(db))

	create := func(name string) child.Child {
		nc := child.NewChild{Name: name}
		require.NoError(t, nc.Validate(ctx, validate, svc))
		c, err := svc.Create(ctx, nc)
		require.NoError(t, err)
		return c
	}
	aisyah := create("  Aisyah ")
	umar := create("Umar")
	assert.Equal(t, "Aisyah", aisyah.Name)

	t.Run("create validation", func(t *testing.T) {
		tests := []struct {
			name      string
			childName string
			wantField string
		}{
			{name: "blank", childName: "  ", wantField: "name"},
			{name: "duplicate ignores case", childName: "AISYAH", wantField: "name"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				nc := child.NewChild{Name: tt.childName}
				err := nc.Validate(ctx, validate, svc)
				require.Error(t, err)
				switch err := err.(type) {
				case validator.ValidationErrors:
					assert.Equal(t, tt.wantField, err[0].Field())
				case *core.ValidationError:
					assert.Equal(t, tt.wantField, err.Fields[0].Field)
				default:
					t.Fatalf("unexpected error %T: %v", err, err)
				}
			})
		}
	})

	t.Run("select", func(t *testing.T) {
		all, err := svc.Select(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"Aisyah", "Umar"}, []string{all[0].Name, all[1].Name})

		one, err := svc.Select(ctx, umar.ID)
		require.NoError(t, err)
		assert.Equal(t, []child.Child{umar}, one)

		_, err = svc.Select(ctx, "nope")
		assert.ErrorIs(t, err, child.ErrNotFound)
	})

	t.Run("query", func(t *testing.T) {
		got, err := svc.Query(ctx, &child.QueryFilter{Search: "sya"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []child.Child{aisyah}, got)

		got, err = svc.Query(ctx, &child.QueryFilter{IDs: []string{umar.ID}}, nil)
		require.NoError(t, err)
		assert.Equal(t, []child.Child{umar}, got)

		got, err = svc.Query(ctx, nil, []core.DBOrdering{{Field: "name"}})
		require.NoError(t, err)
		assert.Equal(t, []child.Child{umar, aisyah}, got)
	})

	t.Run("rename keeps its own name and refreshes schedules", func(t *testing.T) {
		schedules := schedule.NewService(inmemdb.NewScheduleRepository(db), inmemdb.NewChildRepository(db))
		start := time.Date(2024, time.March, 11, 16, 0, 0, 0, time.UTC)
		s, err := schedules.Create(ctx, schedule.NewSchedule{Title: "Tahfidz", ChildID: umar.ID, StartDate: start, EndDate: start.Add(time.Hour), Status: schedule.StatusNotStarted})
		require.NoError(t, err)
		assert.Equal(t, "Umar", s.ChildName)

		uc := child.UpdateChild{Name: "umar"}
		require.NoError(t, uc.Validate(ctx, umar, validate, svc))
		renamed, err := svc.Update(ctx, umar, uc)
		require.NoError(t, err)
		assert.Equal(t, "umar", renamed.Name)
		assert.Equal(t, umar.CreatedAt, renamed.CreatedAt)

		s, err = schedules.GetByID(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "umar", s.ChildName)

		uc = child.UpdateChild{Name: "Aisyah"}
		assert.Error(t, uc.Validate(ctx, renamed, validate, svc))
	})

	t.Run("delete cascades", func(t *testing.T) {
		ledger := inmemdb.NewLedger(db)
		prayers := prayer.NewService(ledger, inmemdb.NewChildRepository(db))
		resolver := calendar.NewResolver(time.UTC, time.Sunday)
		w := resolver.Week(time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC))
		_, err := prayers.Reconcile(ctx, aisyah.ID, w)
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, aisyah.ID))
		_, err = svc.GetByID(ctx, aisyah.ID)
		assert.ErrorIs(t, err, child.ErrNotFound)

		recs, err := ledger.FindRecords(ctx, aisyah.ID, w)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})
}

func TestNames(t *testing.T) {
	got := child.Names([]child.Child{{ID: "1", Name: "Aisyah"}, {ID: "2", Name: "Umar"}})
	assert.Equal(t, map[string]string{"1": "Aisyah", "2": "Umar"}, got)
}
