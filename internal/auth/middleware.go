package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	apperrors "parkingslots/internal/errors"
)

type ctxKey struct{}

// UserFromContext returns the identity established by IdentityMiddleware, if any.
func UserFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// WithUser stores a verified identity on ctx.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// IdentityMiddleware verifies the HS256 bearer token issued by the external auth service and
// puts its subject on the request context. With an empty secret it lets every request
// through and handlers rely on the user_id sent in the request.
func IdentityMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeUnauthorized(w, "missing bearer token")
				return
			}
			userID, err := ParseToken(strings.TrimPrefix(header, "Bearer "), secret)
			if err != nil {
				writeUnauthorized(w, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID)))
		})
	}
}

// ParseToken validates tokenString and returns the user it was issued for, taken from the
// "sub" claim or, failing that, "user_id".
func ParseToken(tokenString, secret string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub, nil
	}
	switch v := claims["user_id"].(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case float64:
		return fmt.Sprintf("%.0f", v), nil
	}
	return "", errors.New("token carries no user identity")
}

// ResolveUser reconciles the identity on the context with the user_id a client sent. A
// verified identity wins; a conflicting user_id is Forbidden.
func ResolveUser(ctx context.Context, requested string) (string, error) {
	verified, ok := UserFromContext(ctx)
	if !ok {
		return requested, nil
	}
	if requested != "" && requested != verified {
		return "", apperrors.New(apperrors.KindForbidden, "user_id does not match the authenticated user")
	}
	return verified, nil
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"kind": string(apperrors.KindUnauthorized), "message": msg},
	})
}
