package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	applog "github.com/jc9677/budget-app-2/internal/log"
	"github.com/jc9677/budget-app-2/internal/services"
	"github.com/jc9677/budget-app-2/internal/storage"
)

// Deps are the services the API serves.
type Deps struct {
	Budget   *services.BudgetService
	Forecast *services.ForecastService
	Transfer *services.TransferService
	// Store is pinged by /readyz.
	Store storage.Gateway
	// Hub is optional; without it /ws is not routed.
	Hub *Hub
}

// Options tunes the server. Zero values take defaults.
type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
	TrustedProxies []string
	HorizonDays    int
	Logger         *applog.Logger
}

type Server struct {
	http.Server
	deps        Deps
	horizonDays int
	logger      *applog.Logger
	rateLimiter *rateLimiter
	proxies     *proxyList
	metrics     *securityMetrics
	today       func() time.Time

	shutdownOnce sync.Once
}

func NewServer(addr string, deps Deps, opts Options) (*Server, error) {
	proxies, err := newProxyList(opts.TrustedProxies)
	if err != nil {
		return nil, err
	}
	if opts.RateLimitRPS <= 0 {
		opts.RateLimitRPS = 10
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 30
	}
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = 30
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}

	s := &Server{
		deps:        deps,
		horizonDays: opts.HorizonDays,
		logger:      opts.Logger,
		rateLimiter: newRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		proxies:     proxies,
		metrics:     &securityMetrics{},
		today:       time.Now,
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64KB
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(applog.Middleware(s.logger))
	r.Use(s.withRequestID)
	r.Use(applog.RequestIDMiddleware(requestIDFrom))
	r.Use(s.withRequestLogging)
	r.Use(withSecurityHeaders)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	if s.deps.Hub != nil {
		r.Get("/ws", s.deps.Hub.ServeHTTP)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.withRateLimit)

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", s.handleListAccounts)
			r.Post("/", s.handleCreateAccount)
			r.Get("/{id}", s.handleGetAccount)
			r.Put("/{id}", s.handleUpdateAccount)
			r.Delete("/{id}", s.handleDeleteAccount)
			r.Get("/{id}/transactions", s.handleListAccountTransactions)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Get("/{id}", s.handleGetTransaction)
			r.Put("/{id}", s.handleUpdateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})

		r.Get("/categories", s.handleListCategories)
		r.Post("/categories", s.handleAddCategory)

		r.Get("/occurrences", s.handleListOccurrences)
		r.Patch("/occurrences/{baseId}", s.handleEditOccurrence)

		r.Get("/forecast", s.handleForecast)

		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
		r.Delete("/data", s.handleReset)
	})

	return r
}

// Shutdown stops background routines, closes websocket sessions and then
// drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()

		var errs []error
		if s.deps.Hub != nil {
			if err := s.deps.Hub.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if err := s.Server.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		shutdownErr = errors.Join(errs...)

		s.logger.InfoContext(ctx, "HTTP server stopped",
			"rate_limit_hits", s.metrics.rateLimited(),
			"suspicious_requests", s.metrics.suspicious())
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Store.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
