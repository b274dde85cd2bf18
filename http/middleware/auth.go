package middleware

import (
	"context"
	"net/http"
	"strings"

	"fees-module/http/response"

	"github.com/golang-jwt/jwt/v4"
)

// Roles embedded in tokens by the external auth service.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the caller identity extracted from the bearer token. It is
// carried in the request context, never in package state.
type Identity struct {
	Subject string
	Role    string
}

// IdentityFrom returns the caller identity stored by Authenticate.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator validates bearer tokens issued by the external auth
// service and enforces role requirements per route.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Require validates the bearer token and, when roles are given, checks the
// token's role claim against them. An empty role list only authenticates.
func (a *Authenticator) Require(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.ErrorResponse(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		claims := &tokenClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return a.secret, nil
		})
		if err != nil || !token.Valid {
			response.ErrorResponse(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		if len(roles) > 0 && !hasRole(claims.Role, roles) {
			response.ErrorResponse(w, http.StatusForbidden, "Insufficient role")
			return
		}

		id := Identity{Subject: claims.Subject, Role: claims.Role}
		next(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
	}
}

func hasRole(role string, allowed []string) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}
