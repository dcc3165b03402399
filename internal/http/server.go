// Package http serves the JSON API of the ledger application.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"ledgerbook/internal/export"
	"ledgerbook/internal/ledger"
	"ledgerbook/internal/session"
	"ledgerbook/internal/store"
)

type Server struct {
	http.Server

	svc      *ledger.Service
	exporter *export.Exporter
	cached   *store.Cached

	auth     *session.Authenticator
	sessions *session.Registry

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
// cached may be nil when the store carries no cache layer (tests).
func NewServer(addr string, svc *ledger.Service, cached *store.Cached, auth *session.Authenticator, sessions *session.Registry) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		svc:         svc,
		exporter:    export.New(svc),
		cached:      cached,
		auth:        auth,
		sessions:    sessions,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/login", s.withRequestLog(s.handleLogin))

	api := func(h http.HandlerFunc) http.HandlerFunc {
		return s.withRequestLog(s.withAuth(h))
	}

	mux.HandleFunc("POST /api/logout", api(s.handleLogout))
	mux.HandleFunc("GET /api/categories", api(s.handleCategories))

	mux.HandleFunc("GET /api/ledger", api(s.handleListLedger))
	mux.HandleFunc("POST /api/ledger", api(s.handleAddEntry))
	mux.HandleFunc("PUT /api/ledger/{id}", api(s.handleUpdateEntry))
	mux.HandleFunc("DELETE /api/ledger/{id}", api(s.handleDeleteEntry))
	mux.HandleFunc("POST /api/ledger/apply-fixed", api(s.handleApplyFixed))
	mux.HandleFunc("POST /api/ledger/apply-subscriptions", api(s.handleApplySubscriptions))

	mux.HandleFunc("GET /api/budgets", api(s.handleGetBudgets))
	mux.HandleFunc("PUT /api/budgets", api(s.handlePutBudgets))
	mux.HandleFunc("GET /api/budgets/report", api(s.handleBudgetReport))

	mux.HandleFunc("GET /api/fixed-expenses", api(s.handleListFixedExpenses))
	mux.HandleFunc("PUT /api/fixed-expenses", api(s.handlePutFixedExpenses))

	mux.HandleFunc("GET /api/subscriptions", api(s.handleListSubscriptions))
	mux.HandleFunc("PUT /api/subscriptions", api(s.handlePutSubscriptions))

	mux.HandleFunc("GET /api/cards", api(s.handleListCards))
	mux.HandleFunc("PUT /api/cards", api(s.handlePutCards))

	mux.HandleFunc("GET /api/logs/{log}", api(s.handleListLog))
	mux.HandleFunc("POST /api/logs/{log}", api(s.handleAddLogEntry))
	mux.HandleFunc("DELETE /api/logs/{log}/{id}", api(s.handleDeleteLogEntry))

	mux.HandleFunc("POST /api/refresh", api(s.handleRefresh))
	mux.HandleFunc("GET /api/export", api(s.handleExport))

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// ctxKey avoids collisions with context values set by other packages.
type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeyUser      ctxKey = "user"
)

// withRequestLog adds security headers, request IDs, mutation rate limiting
// and request logging.
func (s *Server) withRequestLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

// withAuth resolves the bearer token and stores the user in the context.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		user, ok := s.sessions.Resolve(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyUser, user)
		next(w, r.WithContext(ctx))
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
