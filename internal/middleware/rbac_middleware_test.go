package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-emptrack/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeRBAC struct {
	allowed map[string]bool
	err     error
}

func (f fakeRBAC) Enforce(role, resource, action string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.allowed[role+":"+resource+":"+action], nil
}

func newRBACRouter(svc middleware.RBACService, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.DELETE("/employees/:id",
		func(c *gin.Context) {
			if role != "" {
				c.Set(middleware.ContextRole, role)
			}
			c.Next()
		},
		middleware.RBACAuthorize(svc, "employee", "delete"),
		func(c *gin.Context) { c.Status(http.StatusNoContent) },
	)
	return r
}

func TestRBACAuthorize(t *testing.T) {
	svc := fakeRBAC{allowed: map[string]bool{"admin:employee:delete": true}}

	tests := []struct {
		name string
		svc  middleware.RBACService
		role string
		want int
	}{
		{"allowed", svc, "admin", http.StatusNoContent},
		{"denied", svc, "employee", http.StatusUnauthorized},
		{"no role", svc, "", http.StatusUnauthorized},
		{"enforcer error", fakeRBAC{err: errors.New("boom")}, "admin", http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newRBACRouter(tc.svc, tc.role)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/employees/e1", nil))
			assert.Equal(t, tc.want, w.Code)
		})
	}
}
