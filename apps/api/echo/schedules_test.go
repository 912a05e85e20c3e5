package echoapi_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mutabaah/mutabaah/core/schedule"
	testutil "github.com/mutabaah/mutabaah/tests"
)

func scheduleIDs(t *testing.T, f *fixture, path string) []string {
	t.Helper()
	rec := f.do(t, http.MethodGet, path)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got []schedule.Schedule
	decode(t, rec, &got)
	ids := make([]string, 0, len(got))
	for _, s := range got {
		ids = append(ids, s.ID)
	}
	return ids
}

func Test_scheduleApi_query(t *testing.T) {
	f := setup(t)
	aisyah := testutil.CreateChild(t, f.children, "Aisyah")
	umar := testutil.CreateChild(t, f.children, "Umar")

	tahsin := testutil.CreateSchedule(t, f.schedules, "Tahsin", aisyah, f.now.AddDate(0, 0, 1), schedule.StatusNotStarted)
	renang := testutil.CreateSchedule(t, f.schedules, "Renang", umar, f.now.AddDate(0, 0, -8), schedule.StatusDone)
	hafalan := testutil.CreateSchedule(t, f.schedules, "Hafalan", umar, f.now.AddDate(0, 0, -1), schedule.StatusInProgress)

	tests := []struct {
		name string
		path string
		want []string
	}{
		{name: "all", path: "/v1/schedules", want: []string{renang.ID, hafalan.ID, tahsin.ID}},
		{name: "ordering", path: "/v1/schedules?ordering=-start_date", want: []string{tahsin.ID, hafalan.ID, renang.ID}},
		{name: "child", path: "/v1/schedules?child_id=" + umar.ID, want: []string{renang.ID, hafalan.ID}},
		{name: "status", path: "/v1/schedules?status=done&status=in_progress", want: []string{renang.ID, hafalan.ID}},
		{name: "week 12", path: "/v1/schedules?week=12", want: []string{hafalan.ID, tahsin.ID}},
		{name: "week 11", path: "/v1/schedules?week=11", want: []string{renang.ID}},
		{name: "week of another year", path: "/v1/schedules?week=12&date=2023-01-01", want: []string{}},
		{name: "from", path: "/v1/schedules?from=2024-03-19", want: []string{hafalan.ID, tahsin.ID}},
		{name: "from to", path: "/v1/schedules?from=2024-03-12&to=2024-03-19", want: []string{renang.ID, hafalan.ID}},
		{name: "same day", path: "/v1/schedules?from=2024-03-21&to=2024-03-21", want: []string{tahsin.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scheduleIDs(t, f, tt.path))
		})
	}

	runHTTPTests(t, f, []httpTest{
		{
			name:     "from after to",
			method:   http.MethodGet,
			path:     "/v1/schedules?from=2024-03-19&to=2024-03-12",
			token:    f.token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "invalid range: start 2024-03-19 is after end 2024-03-12"}),
		},
		{
			name:     "bad from",
			method:   http.MethodGet,
			path:     "/v1/schedules?from=yesterday",
			token:    f.token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"from": "invalid date, expected YYYY-MM-DD"}),
		},
		{
			name:     "week out of range",
			method:   http.MethodGet,
			path:     "/v1/schedules?week=60",
			token:    f.token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "invalid range: week number out of range"}),
		},
	})
}

func Test_scheduleApi_crud(t *testing.T) {
	f := setup(t)
	aisyah := testutil.CreateChild(t, f.children, "Aisyah")
	umar := testutil.CreateChild(t, f.children, "Umar")

	start := time.Date(2024, time.March, 21, 16, 0, 0, 0, f.conf.Location)
	body := func(title, childID string, start, end time.Time, extra string) []byte {
		return []byte(fmt.Sprintf(`{"title":%q,"child_id":%q,"start_date":%q,"end_date":%q%s}`,
			title, childID, start.Format(time.RFC3339), end.Format(time.RFC3339), extra))
	}

	var created schedule.Schedule
	t.Run("create", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/schedules", body("  Tahsin  ", aisyah.ID, start, start.Add(time.Hour), ""))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decode(t, rec, &created)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "Tahsin", created.Title)
		assert.Equal(t, "Aisyah", created.ChildName)
		assert.Equal(t, schedule.StatusNotStarted, created.Status)
		assert.True(t, created.StartDate.Equal(start))
		assert.False(t, created.Deadline.Valid)
	})

	runHTTPTests(t, f, []httpTest{
		{
			name:     "create (end before start)",
			method:   http.MethodPost,
			path:     "/v1/schedules",
			body:     body("Tahsin", aisyah.ID, start, start.Add(-time.Hour), ""),
			token:    f.token,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "create (blank title)",
			method:   http.MethodPost,
			path:     "/v1/schedules",
			body:     body(" ", aisyah.ID, start, start.Add(time.Hour), ""),
			token:    f.token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"title": "this field is required"}),
		},
		{
			name:     "create (unknown child)",
			method:   http.MethodPost,
			path:     "/v1/schedules",
			body:     body("Tahsin", uuid.New().String(), start, start.Add(time.Hour), ""),
			token:    f.token,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "child not found"}),
		},
		{
			name:     "create (bad status)",
			method:   http.MethodPost,
			path:     "/v1/schedules",
			body:     body("Tahsin", aisyah.ID, start, start.Add(time.Hour), `,"status":"paused"`),
			token:    f.token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"status": "must be one of not_started, in_progress or done"}),
		},
		{
			name:     "retrieve (unknown)",
			method:   http.MethodGet,
			path:     "/v1/schedules/" + uuid.New().String(),
			token:    f.token,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "schedule not found"}),
		},
	})

	t.Run("update moves to another child", func(t *testing.T) {
		deadline := start.Add(48 * time.Hour)
		rec := f.do(t, http.MethodPut, "/v1/schedules/"+created.ID, []byte(fmt.Sprintf(
			`{"child_id":%q,"status":"in_progress","deadline":%q}`, umar.ID, deadline.Format(time.RFC3339))))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got schedule.Schedule
		decode(t, rec, &got)
		assert.Equal(t, "Tahsin", got.Title)
		assert.Equal(t, umar.ID, got.ChildID)
		assert.Equal(t, "Umar", got.ChildName)
		assert.Equal(t, schedule.StatusInProgress, got.Status)
		assert.True(t, got.StartDate.Equal(start))
		require.True(t, got.Deadline.Valid)
		assert.True(t, got.Deadline.Time.Equal(deadline))
	})

	t.Run("status transitions", func(t *testing.T) {
		setStatus := func(status string) *httpTest {
			return &httpTest{
				method: http.MethodPost,
				path:   "/v1/schedules/" + created.ID + "/status",
				body:   []byte(fmt.Sprintf(`{"status":%q}`, status)),
				token:  f.token,
			}
		}

		tt := setStatus("DONE")
		tt.wantCode = http.StatusOK
		req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
		f.serve(req, rec)
		checkCodeAndData(t, *tt, rec)
		var got schedule.Schedule
		decode(t, rec, &got)
		assert.Equal(t, schedule.StatusDone, got.Status)

		tests := []httpTest{
			{name: "done to not_started", wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{
				"status": "cannot change status from done to not_started",
			})},
			{name: "unknown status", wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{
				"status": "must be one of not_started, in_progress or done",
			})},
			{name: "done to done", wantCode: http.StatusOK},
			{name: "done to in_progress", wantCode: http.StatusOK},
		}
		statuses := []string{"not_started", "paused", "done", "in_progress"}
		for i := range tests {
			base := setStatus(statuses[i])
			tests[i].method, tests[i].path, tests[i].body, tests[i].token = base.method, base.path, base.body, base.token
		}
		runHTTPTests(t, f, tests)
	})

	t.Run("delete", func(t *testing.T) {
		rec := f.do(t, http.MethodDelete, "/v1/schedules/"+created.ID)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = f.do(t, http.MethodGet, "/v1/schedules/"+created.ID)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "schedule not found"}),
		}, rec)
	})
}
