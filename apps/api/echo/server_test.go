package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	echoapi "github.com/mutabaah/mutabaah/apps/api/echo"
	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/calendar"
	"github.com/mutabaah/mutabaah/core/child"
	"github.com/mutabaah/mutabaah/core/prayer"
	"github.com/mutabaah/mutabaah/core/prayertimes"
	"github.com/mutabaah/mutabaah/core/schedule"
	"github.com/mutabaah/mutabaah/core/user"
	logsvc "github.com/mutabaah/mutabaah/services/logger"
	sqlxrepos "github.com/mutabaah/mutabaah/storage/database/sqlx"
	testutil "github.com/mutabaah/mutabaah/tests"
)

var (
	ctx             = context.Background()
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

type fakeCalculator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *fakeCalculator) Timings(_ context.Context, day time.Time, coords prayertimes.Coordinates, loc *time.Location) (prayertimes.Timetable, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return prayertimes.Timetable{}, c.err
	}
	return prayertimes.Timetable{
		Date:     day.In(loc).Format(calendar.DayLayout),
		Timezone: loc.String(),
		Location: coords,
		Fajr:     "04:38",
		Sunrise:  "05:52",
		Dhuhr:    "11:59",
		Asr:      "15:08",
		Maghrib:  "18:02",
		Isha:     "19:11",
	}, nil
}

func (c *fakeCalculator) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fixture struct {
	conf      *core.Config
	now       time.Time
	cal       *calendar.Resolver
	app       *echoapi.Server
	users     user.Repository
	children  child.Repository
	ledger    prayer.Ledger
	schedules schedule.Repository
	calc      *fakeCalculator
	admin     user.User
	token     string
}

// setup serves the API over a fresh in-memory database.
// "Today" is Wednesday 2024-03-20, 10:00 in the household timezone.
func setup(t *testing.T, overrides ...func(*fixture, *echoapi.Deps)) *fixture {
	t.Helper()

	conf := core.NewTestConfig()
	db := testutil.PrepareDB(t)
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	prayer.InitValidators(validate, translator)
	schedule.InitValidators(validate, translator)

	f := &fixture{
		conf:      conf,
		now:       time.Date(2024, time.March, 20, 10, 0, 0, 0, conf.Location),
		users:     sqlxrepos.NewUserRepository(db),
		children:  sqlxrepos.NewChildRepository(db),
		ledger:    sqlxrepos.NewLedger(db),
		schedules: sqlxrepos.NewScheduleRepository(db),
		calc:      new(fakeCalculator),
	}
	f.cal = calendar.NewResolver(conf.Location, conf.WeekStart)

	deps := echoapi.Deps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		Calendar:       f.cal,
		UserSvc:        user.NewService(f.users),
		ChildSvc:       child.NewService(f.children),
		PrayerSvc:      prayer.NewService(f.ledger, f.children),
		ScheduleSvc:    schedule.NewService(f.schedules, f.children),
		PrayerTimesSvc: prayertimes.NewService(f.calc, nil, conf, logger),
		DisableReqLogs: true,
		Now:            func() time.Time { return f.now },
	}
	for _, override := range overrides {
		override(f, &deps)
	}
	f.app = echoapi.NewServer(deps)

	admin := testutil.CreateUser(t, f.users, "Abu Umar", "abuumar", "Bism1ll@h!", true)
	admin, err := f.users.GetUserByID(ctx, admin.ID) // stored precision
	require.NoError(t, err)
	f.admin = admin
	f.token = getToken(t, conf, f.admin)
	return f
}

func (f *fixture) serve(req *http.Request, rec *httptest.ResponseRecorder) {
	f.app.ServeHTTP(rec, req)
}

func (f *fixture) do(t *testing.T, method, path string, body ...[]byte) *httptest.ResponseRecorder {
	t.Helper()
	req, rec := newAuthRequest(method, path, f.token, body...)
	f.serve(req, rec)
	return rec
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	t.Helper()
	token, err := echoapi.GenerateToken(conf, echoapi.GetUserClaims(conf, usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

// checkCodeAndData compares the status code, and the body when wantData is set.
func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, f *fixture, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			f.serve(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestServer_home(t *testing.T) {
	f := setup(t)
	req, rec := newRequest(http.MethodGet, "/")
	f.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Welcome to Mutabaah API!", rec.Body.String())
}

func TestServer_authRequired(t *testing.T) {
	f := setup(t)

	paths := []string{
		"/v1/users", "/v1/children", "/v1/prayers", "/v1/progress",
		"/v1/report", "/v1/dashboard", "/v1/schedules",
	}
	tests := make([]httpTest, 0, len(paths))
	for _, p := range paths {
		tests = append(tests, httpTest{
			name:     "GET " + p,
			method:   http.MethodGet,
			path:     p,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		})
	}
	tests = append(tests, httpTest{
		name:     "invalid token",
		method:   http.MethodGet,
		path:     "/v1/children",
		token:    "not.a.jwt",
		wantCode: http.StatusUnauthorized,
	})
	runHTTPTests(t, f, tests)
}

// failingLedger reports every ledger operation as a storage outage.
type failingLedger struct{}

var errDown = core.NewStoreUnavailableError(errors.New("connection refused"), "ledger")

func (failingLedger) FindRecords(context.Context, string, calendar.Window) ([]prayer.Record, error) {
	return nil, errDown
}

func (failingLedger) InsertMissing(context.Context, string, []prayer.Key) (int, error) {
	return 0, errDown
}

func (failingLedger) UpsertRecord(context.Context, string, prayer.Type, string, bool) (prayer.Record, error) {
	return prayer.Record{}, errDown
}

func (failingLedger) UpdateStatus(context.Context, string, string, bool) (prayer.Record, error) {
	return prayer.Record{}, errDown
}

func TestServer_storeUnavailable(t *testing.T) {
	f := setup(t, func(f *fixture, deps *echoapi.Deps) {
		deps.PrayerSvc = prayer.NewService(failingLedger{}, f.children)
	})
	c := testutil.CreateChild(t, f.children, "Aisyah")
	unavailable := marchallObj(t, httpErr{Error: "Service Unavailable"})

	runHTTPTests(t, f, []httpTest{
		{name: "list", method: http.MethodGet, path: "/v1/prayers", token: f.token, wantCode: http.StatusServiceUnavailable, wantData: unavailable},
		{name: "progress", method: http.MethodGet, path: "/v1/progress", token: f.token, wantCode: http.StatusServiceUnavailable, wantData: unavailable},
		{
			name:     "mark",
			method:   http.MethodPut,
			path:     "/v1/children/" + c.ID + "/prayers",
			body:     []byte(`{"type":"Subuh","date":"2024-03-20","status":true}`),
			token:    f.token,
			wantCode: http.StatusServiceUnavailable,
			wantData: unavailable,
		},
	})
}
