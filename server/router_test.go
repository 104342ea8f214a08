package server

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"timesheet/config"
	"timesheet/database"
	"timesheet/handlers"
	"timesheet/models"
	"timesheet/services"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	t       *testing.T
	db      *gorm.DB
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Database = config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")),
	}
	cfg.JWT.Secret = "test-secret"
	cfg.RateLimit.LoginBurst = 100

	db, err := database.Open(cfg.Database, "silent")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	srv := New(cfg, db)
	t.Cleanup(srv.Close)

	return &testEnv{t: t, db: db, handler: srv}
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (e *testEnv) register(input services.RegisterInput) *models.User {
	e.t.Helper()
	w := e.do(http.MethodPost, "/users", "", input)
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	user := decode[models.User](e.t, w)
	return &user
}

func (e *testEnv) login(username, password string) string {
	e.t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())

	token := decode[handlers.TokenResponse](e.t, w)
	assert.Equal(e.t, "bearer", token.TokenType)
	return token.AccessToken
}

// org registers manager M with employee E, and creates project P.
type org struct {
	managerToken  string
	employeeToken string
	manager       *models.User
	employee      *models.User
	projectID     uint
}

func (e *testEnv) org() *org {
	e.t.Helper()
	manager := e.register(services.RegisterInput{Username: "maria", Email: "maria@example.com", Password: "secret1", Role: models.RoleManager})
	employee := e.register(services.RegisterInput{Username: "eric", Email: "eric@example.com", Password: "secret1", ManagerID: &manager.ID})

	o := &org{
		manager:       manager,
		employee:      employee,
		managerToken:  e.login("maria", "secret1"),
		employeeToken: e.login("eric", "secret1"),
	}

	w := e.do(http.MethodPost, "/projects", o.managerToken, map[string]string{"name": "Website Redesign"})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	o.projectID = decode[models.Project](e.t, w).ID
	return o
}

func (e *testEnv) createTimesheet(token string, week, year int) *httptest.ResponseRecorder {
	return e.do(http.MethodPost, "/timesheets", token, map[string]int{"week_number": week, "year": year})
}

func (e *testEnv) addEntry(token string, timesheetID, projectID uint, date string, hours float64) *httptest.ResponseRecorder {
	return e.do(http.MethodPost, "/timesheet-entries", token, map[string]interface{}{
		"timesheet_id": timesheetID,
		"project_id":   projectID,
		"date":         date,
		"hours":        hours,
		"description":  "landing page",
	})
}

func TestScenario_SubmitAndApprove(t *testing.T) {
	e := newTestEnv(t)
	o := e.org()

	w := e.createTimesheet(o.employeeToken, 6, 2026)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ts := decode[models.Timesheet](t, w)
	assert.Equal(t, models.StatusDraft, ts.Status)

	w = e.addEntry(o.employeeToken, ts.ID, o.projectID, "2026-02-03", 8)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	entry := decode[models.Entry](t, w)
	assert.Equal(t, "2026-02-03", entry.Date.String())
	assert.Contains(t, w.Body.String(), `"date":"2026-02-03"`)

	w = e.do(http.MethodPost, fmt.Sprintf("/timesheets/%d/submit", ts.ID), o.employeeToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusSubmitted, decode[models.Timesheet](t, w).Status)

	w = e.do(http.MethodGet, "/timesheets/pending-approvals", o.managerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	pending := decode[[]services.TimesheetSummary](t, w)
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].EmployeeName)
	assert.Equal(t, "eric", *pending[0].EmployeeName)
	assert.Equal(t, 8.0, pending[0].TotalHours)

	w = e.do(http.MethodPut, fmt.Sprintf("/timesheets/%d/approve", ts.ID), o.managerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	approved := decode[models.Timesheet](t, w)
	assert.Equal(t, models.StatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, o.manager.ID, *approved.ReviewedBy)
}

func TestScenario_SubmitEmptyTimesheet(t *testing.T) {
	e := newTestEnv(t)
	o := e.org()

	w := e.createTimesheet(o.employeeToken, 6, 2026)
	require.Equal(t, http.StatusCreated, w.Code)
	ts := decode[models.Timesheet](t, w)

	w = e.do(http.MethodPost, fmt.Sprintf("/timesheets/%d/submit", ts.ID), o.employeeToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[map[string]interface{}](t, w)
	assert.Equal(t, float64(400), body["code"])
	assert.Equal(t, "cannot submit empty timesheet", body["message"])
}

func TestScenario_DuplicateWeek(t *testing.T) {
	e := newTestEnv(t)
	o := e.org()

	w := e.createTimesheet(o.employeeToken, 6, 2026)
	require.Equal(t, http.StatusCreated, w.Code)
	ts := decode[models.Timesheet](t, w)
	require.Equal(t, http.StatusCreated, e.addEntry(o.employeeToken, ts.ID, o.projectID, "2026-02-02", 4).Code)
	require.Equal(t, http.StatusOK, e.do(http.MethodPost, fmt.Sprintf("/timesheets/%d/submit", ts.ID), o.employeeToken, nil).Code)

	w = e.createTimesheet(o.employeeToken, 6, 2026)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestScenario_RejectNeedsComment(t *testing.T) {
	e := newTestEnv(t)
	o := e.org()

	ts := decode[models.Timesheet](t, e.createTimesheet(o.employeeToken, 6, 2026))
	require.Equal(t, http.StatusCreated, e.addEntry(o.employeeToken, ts.ID, o.projectID, "2026-02-04", 7.5).Code)
	require.Equal(t, http.StatusOK, e.do(http.MethodPost, fmt.Sprintf("/timesheets/%d/submit", ts.ID), o.employeeToken, nil).Code)

	path := fmt.Sprintf("/timesheets/%d/reject", ts.ID)
	w := e.do(http.MethodPut, path, o.managerToken, map[string]string{"rejection_comment": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPut, path, o.managerToken, map[string]string{"rejection_comment": "needs detail"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rejected := decode[models.Timesheet](t, w)
	assert.Equal(t, models.StatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionComment)
	assert.Equal(t, "needs detail", *rejected.RejectionComment)
}

func TestAuthorizationStatuses(t *testing.T) {
	e := newTestEnv(t)
	o := e.org()

	w := e.do(http.MethodGet, "/timesheets/my-timesheets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodGet, "/timesheets/pending-approvals", o.employeeToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodPost, "/projects", o.employeeToken, map[string]string{"name": "Internal Tools"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodGet, "/timesheets/9999", o.employeeToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(http.MethodGet, "/timesheets/abc", o.employeeToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ts := decode[models.Timesheet](t, e.createTimesheet(o.employeeToken, 6, 2026))
	w = e.addEntry(o.employeeToken, ts.ID, o.projectID, "2026-02-09", 8)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = e.addEntry(o.employeeToken, ts.ID, o.projectID, "02/03/2026", 8)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	e := newTestEnv(t)
	e.org()

	w := e.do(http.MethodPost, "/login", "", map[string]string{"username": "eric", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, decode[handlers.TokenResponse](t, w).AccessToken)

	w = e.do(http.MethodPost, "/login", "", map[string]string{"username": "eric", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
}

func TestUsersEndpoints(t *testing.T) {
	e := newTestEnv(t)
	o := e.org()

	w := e.do(http.MethodGet, "/users/me", o.employeeToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[map[string]interface{}](t, w)
	assert.Equal(t, "eric", me["username"])
	assert.NotContains(t, me, "password")

	w = e.do(http.MethodGet, fmt.Sprintf("/users/manager/%d/team", o.manager.ID), o.employeeToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.User](t, w), 1)

	w = e.do(http.MethodGet, fmt.Sprintf("/users/manager/%d/team", o.employee.ID), o.employeeToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/users", "", services.RegisterInput{Username: "eric", Email: "new@example.com", Password: "secret1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(http.MethodPut, "/users/me/password", o.employeeToken, map[string]string{"current_password": "secret1", "new_password": "secret2"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	e.login("eric", "secret2")
}

func TestEntryEndpointsAndExport(t *testing.T) {
	e := newTestEnv(t)
	o := e.org()

	ts := decode[models.Timesheet](t, e.createTimesheet(o.employeeToken, 6, 2026))
	entry := decode[models.Entry](t, e.addEntry(o.employeeToken, ts.ID, o.projectID, "2026-02-05", 6))

	w := e.do(http.MethodPut, fmt.Sprintf("/timesheet-entries/%d", entry.ID), o.employeeToken, map[string]float64{"hours": 7})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 7.0, decode[models.Entry](t, w).Hours)

	w = e.do(http.MethodGet, fmt.Sprintf("/timesheet-entries/%d", entry.ID), o.managerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, "/timesheet-entries/team-entries", o.managerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Entry](t, w), 1)

	w = e.do(http.MethodGet, "/timesheet-entries/my-entries", o.employeeToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Entry](t, w), 1)

	w = e.do(http.MethodGet, "/timesheet-entries/team-entries/export?year=2026&week_number=6", o.managerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "team_entries_2026_w06.csv")
	assert.Contains(t, w.Body.String(), "eric,Website Redesign,2026-02-05,7.00,landing page,draft")

	w = e.do(http.MethodGet, "/timesheet-entries/team-entries/export?year=2026", o.managerToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodGet, fmt.Sprintf("/timesheets/%d", ts.ID), o.employeeToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[services.TimesheetDetail](t, w)
	require.Len(t, detail.Entries, 1)

	w = e.do(http.MethodDelete, fmt.Sprintf("/timesheet-entries/%d", entry.ID), o.employeeToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = e.do(http.MethodDelete, fmt.Sprintf("/timesheets/%d", ts.ID), o.employeeToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMyTimesheetsFilters(t *testing.T) {
	e := newTestEnv(t)
	o := e.org()

	require.Equal(t, http.StatusCreated, e.createTimesheet(o.employeeToken, 6, 2026).Code)
	require.Equal(t, http.StatusCreated, e.createTimesheet(o.employeeToken, 7, 2026).Code)

	w := e.do(http.MethodGet, "/timesheets/my-timesheets?week_number=7", o.employeeToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]services.TimesheetSummary](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, 7, list[0].WeekNumber)
	assert.Equal(t, int64(0), list[0].EntriesCount)

	w = e.do(http.MethodGet, "/timesheets/my-timesheets?status=draft", o.employeeToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]services.TimesheetSummary](t, w), 2)

	w = e.do(http.MethodGet, "/timesheets/my-timesheets?year=twenty", o.employeeToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	_, err := database.SeedDemoData(e.db, time.Date(2026, 2, 4, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	w := e.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decode[handlers.HealthReport](t, w)
	assert.Equal(t, "healthy", report.Status)
	assert.Equal(t, int64(6), report.Checks["data_counts"].Counts["users"])
	assert.Equal(t, int64(14), report.Checks["data_counts"].Counts["entries"])
	assert.Equal(t, int64(2), report.Checks["roles_distribution"].Counts["managers"])
}

func TestUnknownRoute(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"code":404,"message":"not found"}`, w.Body.String())
}
