package accounts

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey struct{}

var userIDKey contextKey

func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

var errInvalidToken = errors.New("invalid token")

// AdminChecker answers whether a user holds the administrator role.
// *ProfileRepository satisfies it.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// Auth verifies HS256 bearer tokens and gates admin routes on the profile's
// is_admin flag.
type Auth struct {
	secret []byte
	admins AdminChecker
	logger *slog.Logger
}

func NewAuth(secret string, admins AdminChecker, logger *slog.Logger) *Auth {
	return &Auth{
		secret: []byte(secret),
		admins: admins,
		logger: logger,
	}
}

func (a *Auth) verify(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", errInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errInvalidToken
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return "", errInvalidToken
	}
	return userID, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// Optional attaches the user id to the context when a valid bearer token is
// present and rejects malformed tokens, but lets anonymous requests through.
// Guest checkout depends on this.
func (a *Auth) Optional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next(w, r)
			return
		}
		userID, err := a.verify(token)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
	}
}

// RequireUser rejects requests without a valid bearer token.
func (a *Auth) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeAuthError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		userID, err := a.verify(token)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
	}
}

// RequireAdmin additionally checks the administrator role against the
// profile store.
func (a *Auth) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return a.RequireUser(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserIDFromContext(r.Context())
		isAdmin, err := a.admins.IsAdmin(r.Context(), userID)
		if err != nil {
			a.logger.Error("failed to check admin role", "error", err, "user_id", userID)
			writeAuthError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if !isAdmin {
			writeAuthError(w, http.StatusForbidden, "admin role required")
			return
		}
		next(w, r)
	})
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}`))
}
