package httputil

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/workledger/workledger-backend/pkg/actor"
	"github.com/workledger/workledger-backend/pkg/errors"
	"github.com/workledger/workledger-backend/pkg/logger"
	"github.com/workledger/workledger-backend/pkg/permissions"
	"github.com/workledger/workledger-backend/pkg/tenant"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
	UserRoleKey  contextKey = "user_role"
	PermsKey     contextKey = "user_permissions"
)

// Principal is the verified identity behind a request. Permissions are claims such
// as "ledger.read" or "ledger.*".
type Principal struct {
	UserID      string
	Name        string
	Role        string
	TenantID    string
	TenantSlug  string
	Permissions []string
}

// TokenVerifier validates a bearer token
type TokenVerifier interface {
	Verify(token string) (*Principal, error)
}

// RequestID middleware adds a request ID to each request
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logger middleware logs HTTP requests
func Logger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			tenantID, _ := tenant.TenantID(r.Context())

			log.Info().
				Str("request_id", GetRequestID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", wrapped.statusCode).
				Dur("duration", time.Since(start)).
				Str("user_id", GetUserID(r.Context())).
				Str("tenant_id", tenantID).
				Str("remote_addr", r.RemoteAddr).
				Msg("HTTP request")
		})
	}
}

// Recoverer middleware recovers from panics
func Recoverer(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error().
						Interface("panic", err).
						Str("path", r.URL.Path).
						Msg("panic recovered")

					Error(w, errors.Internal("internal server error"))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// Authenticate verifies the bearer token and binds tenant, actor and user to the request.
// The tenant comes only from the verified token, so a request can never name another tenant.
// /health is left open for monitoring.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				Error(w, errors.Unauthorized("missing bearer token"))
				return
			}

			principal, err := verifier.Verify(token)
			if err != nil {
				Error(w, err)
				return
			}
			if principal.TenantID == "" {
				Error(w, errors.Forbidden("missing tenant context"))
				return
			}

			ctx := tenant.WithTenantContext(r.Context(), principal.TenantID, principal.TenantSlug)
			ctx = actor.WithActor(ctx, &actor.Actor{
				ID:       principal.UserID,
				Name:     principal.Name,
				TenantID: principal.TenantID,
				Role:     principal.Role,
			})
			ctx = WithUserContext(ctx, principal.UserID, principal.Role)
			ctx = WithPermissions(ctx, principal.Permissions)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission rejects requests whose operator lacks the read or write permission
// on resource. GET, HEAD and OPTIONS need read; all other methods need write.
func RequirePermission(resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			required := permissions.ForMethod(resource, r.Method)
			if !permissions.HasPermission(GetPermissions(r.Context()), required) {
				Error(w, errors.Forbidden("missing permission "+required))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetUserID retrieves the user ID from context
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// GetUserRole retrieves the user role from context
func GetUserRole(ctx context.Context) string {
	if role, ok := ctx.Value(UserRoleKey).(string); ok {
		return role
	}
	return ""
}

// WithUserContext adds user information to the context
func WithUserContext(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	ctx = context.WithValue(ctx, UserRoleKey, role)
	return ctx
}

// GetPermissions retrieves the operator's permissions from context
func GetPermissions(ctx context.Context) []string {
	perms, _ := ctx.Value(PermsKey).([]string)
	return perms
}

// WithPermissions adds the operator's permissions to the context
func WithPermissions(ctx context.Context, perms []string) context.Context {
	return context.WithValue(ctx, PermsKey, perms)
}
