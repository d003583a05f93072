package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lostfound/models"
)

func withUser(r *http.Request, u *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), UserContextKey, u))
}

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestRequireRoleAllowsListedRoles(t *testing.T) {
	next, called := okHandler()
	h := RequireRole(models.RoleMaintainer, models.RoleAdmin)(next)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, withUser(httptest.NewRequest(http.MethodGet, "/", nil), &models.User{UID: "m1", Role: models.RoleMaintainer}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, *called)
}

func TestRequireRoleRejectsOthers(t *testing.T) {
	next, called := okHandler()
	h := RequireRole(models.RoleAdmin)(next)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, withUser(httptest.NewRequest(http.MethodGet, "/", nil), &models.User{UID: "s1", Role: models.RoleStudent}))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, *called)
}

func TestRequireRoleWithoutUser(t *testing.T) {
	next, _ := okHandler()
	h := RequireRole(models.RoleAdmin)(next)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimiterBlocksBursts(t *testing.T) {
	next, _ := okHandler()
	rl := NewRateLimiter(2, time.Minute)
	h := rl.Middleware()(next)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiterIsPerIP(t *testing.T) {
	next, _ := okHandler()
	rl := NewRateLimiter(1, time.Minute)
	h := rl.Middleware()(next)

	for i, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "request %d", i)
	}
}

func TestCORSPreflight(t *testing.T) {
	next, called := okHandler()
	h := CORSMiddleware([]string{"http://localhost:3000"})(next)

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.False(t, *called)
}

func TestCORSUnknownOrigin(t *testing.T) {
	next, _ := okHandler()
	h := CORSMiddleware([]string{"http://localhost:3000"})(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
