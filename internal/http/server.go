package http

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"path"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"fooddiary/internal/export"
	applog "fooddiary/internal/log"
	"fooddiary/internal/metrics"
	"fooddiary/internal/middleware/ratelimit"
	"fooddiary/internal/middleware/security"
	"fooddiary/internal/middleware/trace"
	"fooddiary/internal/services"
)

// Options configures a Server. Zero values select the defaults.
type Options struct {
	Addr string

	// RateLimitPerMinute bounds mutating requests per client IP.
	RateLimitPerMinute int

	// MaxBodyBytes caps JSON bodies and import uploads.
	MaxBodyBytes int64

	Logger   *applog.Logger
	Metrics  *metrics.Metrics
	Dropdown *services.DropdownCache

	// Static is the SPA bundle served at "/". Nil serves nothing there.
	Static fs.FS
}

const (
	defaultMaxBodyBytes = 10 << 20
	readyTimeout        = 5 * time.Second
)

// Server is the JSON API server.
type Server struct {
	http.Server
	services *services.Services
	logger   *applog.Logger
	metrics  *metrics.Metrics
	dropdown *services.DropdownCache
	static   fs.FS

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	maxBodyBytes int64
	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(svc *services.Services, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}

	limiterConfig := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		limiterConfig.RequestsPerMinute = opts.RateLimitPerMinute
	}

	detector := security.NewDetector()
	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		services:         svc,
		logger:           logger.WithComponent(applog.ComponentHTTP),
		metrics:          opts.Metrics,
		dropdown:         opts.Dropdown,
		static:           opts.Static,
		rateLimiter:      ratelimit.NewLimiter(limiterConfig),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP, logger),
		maxBodyBytes:     opts.MaxBodyBytes,
		started:          time.Now(),
	}

	mux := http.NewServeMux()
	s.routes(mux)
	s.Handler = s.middleware(mux)
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	api := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.instrument(routePath(pattern), security.NoStore(h)))
	}

	api("GET /api/v1/pages", s.handleSearchPages)
	api("GET /api/v1/pages/calories", s.handleCaloriesHistory)
	api("GET /api/v1/pages/{id}", s.handleGetPage)
	api("GET /api/v1/pages/{id}/table", s.handlePageTable)
	api("POST /api/v1/pages", s.handleCreatePage)
	api("PUT /api/v1/pages/{id}", s.handleUpdatePage)
	api("DELETE /api/v1/pages/batch", s.handleDeletePages)

	api("GET /api/v1/notes", s.handleSearchNotes)
	api("GET /api/v1/notes/{id}", s.handleGetNote)
	api("POST /api/v1/notes", s.handleCreateNote)
	api("PUT /api/v1/notes/move", s.handleMoveNote)
	api("PUT /api/v1/notes/{id}", s.handleUpdateNote)
	api("DELETE /api/v1/notes/batch", s.handleDeleteNotes)
	api("DELETE /api/v1/notes/{id}", s.handleDeleteNote)

	api("GET /api/v1/products", s.handleSearchProducts)
	api("GET /api/v1/products/autocomplete", s.handleProductDropdown)
	api("GET /api/v1/products/{id}", s.handleGetProduct)
	api("POST /api/v1/products", s.handleCreateProduct)
	api("PUT /api/v1/products/{id}", s.handleUpdateProduct)
	api("DELETE /api/v1/products/batch", s.handleDeleteProducts)
	api("DELETE /api/v1/products/{id}", s.handleDeleteProduct)

	api("GET /api/v1/categories", s.handleListCategories)
	api("GET /api/v1/categories/autocomplete", s.handleCategoryDropdown)
	api("GET /api/v1/categories/{id}", s.handleGetCategory)
	api("POST /api/v1/categories", s.handleCreateCategory)
	api("PUT /api/v1/categories/{id}", s.handleUpdateCategory)
	api("DELETE /api/v1/categories/{id}", s.handleDeleteCategory)

	api("GET /api/v1/exports/pdf", s.handleExport(export.FormatPDF))
	api("GET /api/v1/exports/xlsx", s.handleExport(export.FormatXLSX))
	api("GET /api/v1/exports/json", s.handleExport(export.FormatJSON))
	api("POST /api/v1/exports/google-sheets", s.handleRequestSheetsExport)
	api("GET /api/v1/exports/jobs/{id}", s.handleExportJob)
	api("POST /api/v1/imports/json", s.handleImportJSON)

	mux.Handle("/api/", s.instrument("/api/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("No such endpoint").Write(w)
	})))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	if s.static != nil {
		mux.Handle("/", s.spaHandler())
	}
}

// middleware wraps the router, outermost first: tracing, request logger,
// panic recovery, security headers, suspicious request logging, rate limit.
func (s *Server) middleware(next http.Handler) http.Handler {
	h := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.onRateLimited)(next)
	h = s.detectSuspicious(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.recoverPanics(h)
	h = applog.RequestIDMiddleware(trace.RequestID)(h)
	h = applog.Middleware(s.logger)(h)
	return s.traceMiddleware.Middleware(h)
}

// instrument records request count and latency under route.
func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &trace.StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.ObserveHTTP(r.Method, route, rec.Status, time.Since(start))
	})
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.metrics.RateLimited()
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	TooManyRequestsError().Write(w)
}

func (s *Server) detectSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.securityDetector.DetectSuspiciousRequest(r) {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				applog.FieldComponent, applog.ComponentSecurity,
				applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldUserAgent, r.Header.Get("User-Agent"))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "Handler panicked",
				"panic", rec,
				"stack", string(debug.Stack()),
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			InternalServerError("Internal server error").Write(w)
		}()
		next.ServeHTTP(w, r)
	})
}

// spaHandler serves files of the bundle and falls back to index.html for
// client-side routes.
func (s *Server) spaHandler() http.Handler {
	files := http.FileServerFS(s.static)
	assets := security.StaticAssetMiddleware(3600)(files)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			ErrorResponse(http.StatusMethodNotAllowed, "Method not allowed").Write(w)
			return
		}
		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name == "" || name == "index.html" {
			http.ServeFileFS(w, r, s.static, "index.html")
			return
		}
		if info, err := fs.Stat(s.static, name); err == nil && !info.IsDir() {
			if strings.HasPrefix(name, "assets/") {
				assets.ServeHTTP(w, r)
				return
			}
			files.ServeHTTP(w, r)
			return
		}
		http.ServeFileFS(w, r, s.static, "index.html")
	})
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// ListenAndServe runs the server until Shutdown. A clean shutdown returns nil.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.Addr)
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
