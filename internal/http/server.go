package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"scadenze/internal/core"
	applog "scadenze/internal/log"
	"scadenze/internal/services"
	appweb "scadenze/web"
)

const storeCallTimeout = 10 * time.Second

// Server serves the calendar page and the account API.
type Server struct {
	http.Server
	templates   *template.Template
	accounts    *services.AccountService
	calendar    *services.CalendarService
	logger      *applog.Logger
	access      *applog.StructuredLogger
	rateLimiter *rateLimiter
	metrics     *securityMetrics
	now         func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, accounts *services.AccountService, calendar *services.CalendarService, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		accounts:    accounts,
		calendar:    calendar,
		logger:      logger,
		access:      applog.NewStructuredLogger(logger),
		rateLimiter: newRateLimiter(writeLimitPerMinute),
		metrics:     &securityMetrics{},
		now:         time.Now,
	}

	t, err := template.New("").Funcs(template.FuncMap{
		"money": func(m core.Money) string { return m.Format() },
	}).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.WithComponent(applog.ComponentTemplate).Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /{$}", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("GET /api/accounts", s.withSecurityHeaders(s.handleListAccounts))
	mux.HandleFunc("POST /api/accounts", s.withSecurityHeaders(s.handleSaveAccount))
	mux.HandleFunc("GET /api/accounts/new/form", s.withSecurityHeaders(s.handleNewAccountForm))
	mux.HandleFunc("GET /api/accounts/{id}", s.withSecurityHeaders(s.handleGetAccount))
	mux.HandleFunc("GET /api/accounts/{id}/form", s.withSecurityHeaders(s.handleAccountForm))
	mux.HandleFunc("GET /api/calendar", s.withSecurityHeaders(s.handleCalendar))
	mux.HandleFunc("GET /api/calendar/installments", s.withSecurityHeaders(s.handleDueInstallments))

	return s
}

// Shutdown stops background routines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// withSecurityHeaders adds request ids, access logging, write rate
// limiting and security headers.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := applog.NewContext(r.Context(), s.logger.With(applog.FieldRequestID, requestID))
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-ID", requestID)

		s.access.LogHTTPStart(ctx, r, clientIP)
		if isSuspiciousRequest(r, s.metrics) {
			applog.FromContext(ctx).WarnContext(ctx, "Suspicious request", applog.FieldClientIP, clientIP, applog.FieldPath, r.URL.Path)
		}

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, s.metrics) {
			applog.FromContext(ctx).WarnContext(ctx, "Rate limit exceeded", applog.FieldClientIP, clientIP, applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			ErrorResponse(http.StatusTooManyRequests, "too many requests, try again later").Write(w)
			return
		}

		setSecurityHeaders(w.Header())
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.access.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// responseWriter captures the status code for access logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

// handleReady reports ready when templates are loaded and the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]string{"templates": "ok", "store": "ok"}
	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	if err := s.accounts.Ping(ctx); err != nil {
		slog.WarnContext(ctx, "Readiness check failed", "error", err)
		checks["store"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{"status": status, "checks": checks})
}

// writeJSON writes v without any HX-Trigger.
func writeJSON(w http.ResponseWriter, status int, v any) {
	NewHTMXResponse().Status(status).JSON(v).Write(w)
}
