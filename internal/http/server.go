package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"budgetbabah/internal/app"
	"budgetbabah/internal/log"
)

// Server exposes the budget application as a JSON API.
type Server struct {
	http.Server
	app         *app.App
	logger      *log.Logger
	structured  *log.StructuredLogger
	rateLimiter *rateLimiter
	metrics     *securityMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, application *app.App, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	httpLogger := logger.WithComponent(log.ComponentHTTP)
	s := &Server{
		app:         application,
		logger:      httpLogger,
		structured:  log.NewStructuredLogger(httpLogger),
		rateLimiter: newRateLimiter(),
		metrics:     &securityMetrics{},
	}
	s.Server = http.Server{
		Addr:    addr,
		Handler: log.Middleware(httpLogger)(mux),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/year", s.withMiddleware(s.handleYear))
	mux.HandleFunc("/api/month", s.withMiddleware(s.handleMonth))
	mux.HandleFunc("/api/month/summary", s.withMiddleware(s.handleMonthSummary))
	mux.HandleFunc("/api/month/clear", s.withMiddleware(s.handleClearMonth))
	mux.HandleFunc("/api/month/clear-category", s.withMiddleware(s.handleClearCategory))
	mux.HandleFunc("/api/month/copy-previous", s.withMiddleware(s.handleCopyPrevious))

	mux.HandleFunc("/api/items", s.withMiddleware(s.handleItems))
	mux.HandleFunc("/api/items/duplicate", s.withMiddleware(s.handleDuplicateItem))

	mux.HandleFunc("/api/sync/push", s.withMiddleware(s.handleSyncPush))
	mux.HandleFunc("/api/sync/pull", s.withMiddleware(s.handleSyncPull))
	mux.HandleFunc("/api/sync/test", s.withMiddleware(s.handleSyncTest))
	mux.HandleFunc("/api/sync/settings", s.withMiddleware(s.handleSyncSettings))
	mux.HandleFunc("/api/sync/status", s.withMiddleware(s.handleSyncStatus))

	mux.HandleFunc("/api/preferences", s.withMiddleware(s.handlePreferences))

	return s
}

// withMiddleware adds security headers, rate limiting, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), log.ContextKey(log.FieldRequestID), requestID)
		r = r.WithContext(ctx)

		s.structured.LogHTTPStart(ctx, r, clientIP)

		if detectSuspiciousRequest(r, s.metrics) {
			s.logger.WarnContext(ctx, "Suspicious request blocked",
				log.FieldRequestID, requestID,
				log.FieldClientIP, clientIP,
				log.FieldPath, r.URL.Path)
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}

		// Rate limit mutations only; reads are local and cheap.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, s.metrics) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.structured.LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds(), clientIP)
	}
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

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
