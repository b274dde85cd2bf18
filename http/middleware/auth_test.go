package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func issueToken(t *testing.T, role string) string {
	t.Helper()
	claims := tokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func protectedCall(t *testing.T, token string, roles ...string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	auth := NewAuthenticator(testSecret)

	called := false
	handler := auth.Require(func(w http.ResponseWriter, r *http.Request) {
		called = true
		id, ok := IdentityFrom(r.Context())
		assert.True(t, ok)
		assert.Equal(t, "user-1", id.Subject)
		w.WriteHeader(http.StatusOK)
	}, roles...)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr, called
}

func TestRequireAcceptsValidRole(t *testing.T) {
	rr, called := protectedCall(t, issueToken(t, RoleAdmin), RoleAdmin)
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireRejectsWrongRole(t *testing.T) {
	rr, called := protectedCall(t, issueToken(t, RoleStudent), RoleAdmin)
	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequireRejectsMissingToken(t *testing.T) {
	rr, called := protectedCall(t, "")
	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireRejectsForgedToken(t *testing.T) {
	claims := tokenClaims{Role: RoleAdmin}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	rr, called := protectedCall(t, forged, RoleAdmin)
	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
