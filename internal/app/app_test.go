package app_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-emptrack/internal/app"
	"go-emptrack/internal/config"
	"go-emptrack/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type envelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string          `json:"code"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

type result struct {
	Status int
	Raw    string
	Env    envelope
}

func (r result) errorCode() string {
	if r.Env.Error == nil {
		return ""
	}
	return r.Env.Error.Code
}

type testApp struct {
	t      *testing.T
	router *gin.Engine
	calls  int
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	apperror.Init()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, app.Migrate(db))

	router, err := app.NewRouter(app.Deps{
		Config: &config.Config{
			JWTSecret: "scenario-secret",
			UploadDir: t.TempDir(),
			ES:        config.ESConfig{Index: "employees"},
		},
		DB:     db,
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)
	return &testApp{t: t, router: router}
}

func (a *testApp) do(method, path, bearer string, body any) result {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	// spread callers over addresses so the per-IP auth limits stay out of the way
	a.calls++
	req.RemoteAddr = fmt.Sprintf("10.1.%d.%d:40000", a.calls/250, a.calls%250+1)

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	res := result{Status: w.Code, Raw: w.Body.String()}
	_ = json.Unmarshal(w.Body.Bytes(), &res.Env)
	return res
}

func (a *testApp) register(email, password, role string) result {
	return a.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": email, "password": password, "role": role,
	})
}

func (a *testApp) login(email, password, role string) result {
	return a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": email, "password": password, "role": role,
	})
}

type loginData struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	ID    string `json:"id"`
}

func (a *testApp) mustLogin(email, password, role string) loginData {
	a.t.Helper()
	res := a.login(email, password, role)
	require.Equal(a.t, http.StatusOK, res.Status, res.Raw)
	var data loginData
	require.NoError(a.t, json.Unmarshal(res.Env.Data, &data))
	require.NotEmpty(a.t, data.Token)
	return data
}

func TestAdminCeiling(t *testing.T) {
	a := newTestApp(t)

	assert.Equal(t, http.StatusCreated, a.register("a@x.com", "pw-a", "admin").Status)

	dup := a.register("A@x.com", "pw-other", "admin")
	assert.Equal(t, http.StatusBadRequest, dup.Status)
	assert.Equal(t, "ADMIN_ALREADY_EXISTS", dup.errorCode())

	assert.Equal(t, http.StatusCreated, a.register("b@x.com", "pw-b", "admin").Status)

	third := a.register("c@x.com", "pw-c", "admin")
	assert.Equal(t, http.StatusForbidden, third.Status)
	assert.Equal(t, "MAX_ADMINS_REACHED", third.errorCode())
	var details map[string]int64
	require.NoError(t, json.Unmarshal(third.Env.Error.Details, &details))
	assert.Equal(t, map[string]int64{"current": 2, "max": 2}, details)

	// a full house reports the ceiling even for a known email
	assert.Equal(t, http.StatusForbidden, a.register("a@x.com", "pw-a", "admin").Status)

	a.mustLogin("a@x.com", "pw-a", "admin")
	a.mustLogin("b@x.com", "pw-b", "admin")

	missing := a.login("c@x.com", "pw-c", "admin")
	assert.Equal(t, http.StatusUnauthorized, missing.Status)
	assert.Equal(t, "ADMIN_NOT_FOUND", missing.errorCode())

	wrong := a.login("a@x.com", "nope", "admin")
	assert.Equal(t, http.StatusUnauthorized, wrong.Status)
	assert.Equal(t, "INVALID_CREDENTIALS", wrong.errorCode())
	assert.NotContains(t, wrong.Raw, "token")
}

func TestEmployeeOnboarding(t *testing.T) {
	a := newTestApp(t)
	require.Equal(t, http.StatusCreated, a.register("admin@x.com", "admin-pw", "admin").Status)
	admin := a.mustLogin("admin@x.com", "admin-pw", "admin")

	created := a.do(http.MethodPost, "/api/v1/employees", admin.Token, map[string]string{
		"name":            "Jo",
		"email":           "Jo@X.com",
		"phone":           "0812000111",
		"designation":     "Engineer",
		"date_of_joining": "2024-01-15",
		"blood_group":     "O+",
	})
	require.Equal(t, http.StatusCreated, created.Status, created.Raw)
	assert.NotContains(t, created.Raw, "password")

	var jo struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		DateOfJoining string `json:"date_of_joining"`
		Registered    bool   `json:"registered"`
	}
	require.NoError(t, json.Unmarshal(created.Env.Data, &jo))
	assert.Equal(t, "jo@x.com", jo.Email)
	assert.False(t, jo.Registered)

	other := a.do(http.MethodPost, "/api/v1/employees", admin.Token, map[string]string{
		"name": "Sam", "email": "sam@x.com", "phone": "0812000222",
	})
	require.Equal(t, http.StatusCreated, other.Status, other.Raw)
	var sam struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(other.Env.Data, &sam))

	dupEmail := a.do(http.MethodPost, "/api/v1/employees", admin.Token, map[string]string{
		"name": "Jo Two", "email": "jo@x.com", "phone": "1",
	})
	assert.Equal(t, http.StatusBadRequest, dupEmail.Status)

	// provisioned but not registered
	notYet := a.login("jo@x.com", "jo-pw", "employee")
	assert.Equal(t, http.StatusUnauthorized, notYet.Status)
	assert.Equal(t, "NOT_REGISTERED", notYet.errorCode())

	unknown := a.register("ghost@x.com", "pw", "employee")
	assert.Equal(t, http.StatusBadRequest, unknown.Status)
	assert.Equal(t, "EMPLOYEE_NOT_PROVISIONED", unknown.errorCode())
	assert.Equal(t, http.StatusUnauthorized, a.login("ghost@x.com", "pw", "employee").Status)

	require.Equal(t, http.StatusCreated, a.register("jo@x.com", "jo-pw", "employee").Status)

	again := a.register("jo@x.com", "new-pw", "employee")
	assert.Equal(t, http.StatusBadRequest, again.Status)
	assert.Equal(t, "ALREADY_REGISTERED", again.errorCode())
	assert.Equal(t, http.StatusUnauthorized, a.login("jo@x.com", "new-pw", "employee").Status)

	session := a.mustLogin("jo@x.com", "jo-pw", "employee")
	assert.Equal(t, jo.ID, session.ID)
	assert.Equal(t, "employee", session.Role)

	t.Run("employee reads own record only", func(t *testing.T) {
		own := a.do(http.MethodGet, "/api/v1/employees/"+jo.ID, session.Token, nil)
		assert.Equal(t, http.StatusOK, own.Status)
		assert.NotContains(t, own.Raw, "password")

		assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/v1/employees/"+sam.ID, session.Token, nil).Status)
		assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/v1/employees", session.Token, nil).Status)
		assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodDelete, "/api/v1/employees/"+sam.ID, session.Token, nil).Status)
	})

	t.Run("admin round trip", func(t *testing.T) {
		res := a.do(http.MethodGet, "/api/v1/employees/"+jo.ID, admin.Token, nil)
		require.Equal(t, http.StatusOK, res.Status)
		assert.NotContains(t, res.Raw, "password")

		var got struct {
			Name          string `json:"name"`
			Email         string `json:"email"`
			Phone         string `json:"phone"`
			Designation   string `json:"designation"`
			DateOfJoining string `json:"date_of_joining"`
			BloodGroup    string `json:"blood_group"`
			Registered    bool   `json:"registered"`
		}
		require.NoError(t, json.Unmarshal(res.Env.Data, &got))
		assert.Equal(t, "Jo", got.Name)
		assert.Equal(t, "jo@x.com", got.Email)
		assert.Equal(t, "0812000111", got.Phone)
		assert.Equal(t, "Engineer", got.Designation)
		assert.Equal(t, "2024-01-15", got.DateOfJoining)
		assert.Equal(t, "O+", got.BloodGroup)
		assert.True(t, got.Registered)
	})

	t.Run("admin edit keeps the password", func(t *testing.T) {
		res := a.do(http.MethodPut, "/api/v1/employees/"+jo.ID, admin.Token, map[string]string{
			"designation": "Lead Engineer",
		})
		require.Equal(t, http.StatusOK, res.Status, res.Raw)
		a.mustLogin("jo@x.com", "jo-pw", "employee")
	})

	t.Run("list", func(t *testing.T) {
		res := a.do(http.MethodGet, "/api/v1/employees?sort_by=name", admin.Token, nil)
		require.Equal(t, http.StatusOK, res.Status)
		assert.NotContains(t, res.Raw, "password")

		var list []struct {
			Name string `json:"name"`
		}
		require.NoError(t, json.Unmarshal(res.Env.Data, &list))
		require.Len(t, list, 2)
		assert.Equal(t, "Jo", list[0].Name)
		assert.Equal(t, "Sam", list[1].Name)
	})

	t.Run("me", func(t *testing.T) {
		res := a.do(http.MethodGet, "/api/v1/auth/me", session.Token, nil)
		require.Equal(t, http.StatusOK, res.Status)
		assert.Contains(t, res.Raw, jo.ID)
	})

	t.Run("search without an index", func(t *testing.T) {
		res := a.do(http.MethodGet, "/api/v1/employees/search?q=jo", admin.Token, nil)
		assert.Equal(t, http.StatusServiceUnavailable, res.Status)
	})

	t.Run("delete", func(t *testing.T) {
		res := a.do(http.MethodDelete, "/api/v1/employees/"+sam.ID, admin.Token, nil)
		require.Equal(t, http.StatusOK, res.Status)
		assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/v1/employees/"+sam.ID, admin.Token, nil).Status)
	})
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	a := newTestApp(t)

	for _, path := range []string{"/api/v1/employees", "/api/v1/auth/me", "/api/v1/rbac/permissions"} {
		res := a.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, res.Status, path)
		assert.Equal(t, apperror.CodeUnauthorized, res.errorCode(), path)
	}

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/v1/employees", "garbage", nil).Status)
}

func TestHealth(t *testing.T) {
	a := newTestApp(t)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/health", "", nil).Status)
}
