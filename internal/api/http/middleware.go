package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"stockledger-backend/internal/config"
	"stockledger-backend/internal/logger"
	"stockledger-backend/internal/security"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type ctxKey int

const claimsKey ctxKey = iota

// ClaimsFromContext returns the caller claims placed by AuthMiddleware.
func ClaimsFromContext(ctx context.Context) (*security.UserClaims, bool) {
	c, ok := ctx.Value(claimsKey).(*security.UserClaims)
	return c, ok
}

// AuthMiddleware applies the same endpoint security table as the gRPC
// interceptor, keyed by "METHOD /route/template".
type AuthMiddleware struct {
	tokenManager security.TokenManager
}

func NewAuthMiddleware(tm security.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tm}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		level := config.GetSecurityLevel(routeKey(r))
		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			writeErrorMessage(w, http.StatusUnauthorized, "authorization token is not provided")
			return
		}
		claims, err := m.tokenManager.ValidateToken(token)
		if err != nil {
			writeErrorMessage(w, http.StatusUnauthorized, "invalid token: "+err.Error())
			return
		}
		if level == config.SecurityWrite && !claims.HasPermission(config.PermissionLedgerWrite) {
			writeErrorMessage(w, http.StatusForbidden, "ledger write permission required")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

func routeKey(r *http.Request) string {
	tpl := r.URL.Path
	if route := mux.CurrentRoute(r); route != nil {
		if t, err := route.GetPathTemplate(); err == nil {
			tpl = t
		}
	}
	return r.Method + " " + tpl
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RequestLogger tags each request with an X-Request-ID and logs its outcome.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.InfoContext(r.Context(), "HTTP request",
			"requestID", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
