package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareInjectsCaller(t *testing.T) {
	var got Caller
	var ok bool
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, "u-1")
	req.Header.Set(HeaderRole, RoleAdmin)
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, ok)
	assert.Equal(t, "u-1", got.UserID)
	assert.True(t, got.IsAdmin())
	assert.True(t, got.Owns("u-1"))
	assert.False(t, got.Owns("u-2"))
}

func TestMiddlewareAnonymous(t *testing.T) {
	var ok bool
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = FromContext(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}

func TestDefaultRoleIsUser(t *testing.T) {
	var got Caller
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, "u-9")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, RoleUser, got.Role)
	assert.False(t, got.IsAdmin())
}
