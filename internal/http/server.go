package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"fintrack/internal/auth"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/ports"
	"fintrack/internal/services"
)

// Deps are the services the API is built over.
type Deps struct {
	Auth         *auth.Service
	Categories   *services.CategoryService
	Budgets      *services.BudgetService
	Transactions *services.TransactionService
	Reports      *services.ReportService
	Dashboard    *services.DashboardService
	Converter    ports.Converter
	Pinger       ports.Pinger
	Logger       *slog.Logger
}

// Options tune the middleware stack.
type Options struct {
	CORSAllowedOrigins []string
	RateLimitRPM       int
	TrustedProxies     []string
}

type Server struct {
	http.Server

	deps     Deps
	logger   *slog.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps, opts Options) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(log.FieldComponent, log.ComponentHTTP)

	detector := security.NewDetector(logger)
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}

	s := &Server{
		deps:     deps,
		logger:   logger,
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP, logger),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitRPM,
			CleanupInterval:   5 * time.Minute,
		}),
		started: time.Now(),
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(opts),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(s.tracer.Handler)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", trace.HeaderRequestID},
		ExposedHeaders:   []string{trace.HeaderRequestID, "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("route not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(api chi.Router) {
		api.Use(s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			TooManyRequestsError().Write(w)
		}))

		api.Post("/auth/register", s.handleRegister)
		api.Post("/auth/login", s.handleLogin)

		api.Group(func(p chi.Router) {
			p.Use(auth.Middleware(s.deps.Auth, func(w http.ResponseWriter, r *http.Request, err error) {
				writeError(w, r, s.logger, err)
			}))

			p.Post("/auth/logout", s.handleLogout)
			p.Get("/auth/me", s.handleMe)
			p.Put("/auth/profile", s.handleUpdateProfile)
			p.Put("/auth/password", s.handleChangePassword)

			p.Route("/categories", func(c chi.Router) {
				c.Get("/", s.handleListCategories)
				c.Post("/", s.handleCreateCategory)
				c.Get("/{id}", s.handleGetCategory)
				c.Put("/{id}", s.handleUpdateCategory)
				c.Delete("/{id}", s.handleDeleteCategory)
				c.Post("/{id}/subcategories", s.handleAddSubcategory)
				c.Put("/{id}/subcategories/{index}", s.handleUpdateSubcategory)
				c.Delete("/{id}/subcategories/{index}", s.handleDeleteSubcategory)
			})

			p.Route("/budgets", func(b chi.Router) {
				b.Get("/", s.handleListBudgets)
				b.Post("/", s.handleCreateBudget)
				b.Get("/check", s.handleCheckBudgets)
				b.Post("/reconcile", s.handleReconcileBudgets)
				b.Get("/{id}", s.handleGetBudget)
				b.Put("/{id}", s.handleUpdateBudget)
				b.Delete("/{id}", s.handleDeleteBudget)
			})

			p.Route("/transactions", func(t chi.Router) {
				t.Get("/", s.handleListTransactions)
				t.Post("/", s.handleCreateTransaction)
				t.Get("/{id}", s.handleGetTransaction)
				t.Put("/{id}", s.handleUpdateTransaction)
				t.Delete("/{id}", s.handleDeleteTransaction)
			})

			p.Get("/reports", s.handleReport)
			p.Get("/reports/export", s.handleReportExport)
			p.Post("/reports/sheets", s.handleReportSheets)
			p.Get("/dashboard", s.handleDashboard)
			p.Get("/currency/convert", s.handleConvert)
		})
	})

	return r
}

// userID is set by auth.Middleware on every protected route.
func userID(r *http.Request) string {
	return auth.UserIDFromContext(r.Context())
}

// Shutdown stops the limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
