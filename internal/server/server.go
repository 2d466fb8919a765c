package server

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sgprime/sgprime/internal/handler"
	"github.com/sgprime/sgprime/internal/mailer"
	"github.com/sgprime/sgprime/internal/model"
	"github.com/sgprime/sgprime/internal/server/middleware"
	"github.com/sgprime/sgprime/internal/service"
	"github.com/sgprime/sgprime/internal/store"
	"github.com/sgprime/sgprime/internal/ui"
	"github.com/sgprime/sgprime/internal/upload"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	Version         string
	EnableUI        bool
	// EnquiryRateLimit caps contact form submissions per IP per minute.
	EnquiryRateLimit int
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:             "0.0.0.0",
		Port:             8080,
		ShutdownTimeout:  30 * time.Second,
		CORSOrigins:      []string{"*"},
		EnableUI:         true,
		EnquiryRateLimit: 5,
	}
}

// Server is the top-level HTTP server. It owns the chi router and wires the
// handlers, middleware, uploads directory, and embedded frontend together.
type Server struct {
	cfg        Config
	router     chi.Router
	store      *store.Store
	authSvc    *service.AuthService
	mailer     mailer.Mailer
	saver      *upload.Saver
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Server with all routes and middleware wired. Call
// ListenAndServe to start accepting connections.
func New(cfg Config, s *store.Store, authSvc *service.AuthService, m mailer.Mailer, saver *upload.Saver, logger *slog.Logger) *Server {
	srv := &Server{
		cfg:     cfg,
		store:   s,
		authSvc: authSvc,
		mailer:  m,
		saver:   saver,
		logger:  logger,
	}
	srv.setupRouter()
	return srv
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		if strings.HasPrefix(req.URL.Path, "/api/") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"success":false,"message":"Route not found"}`))
			return
		}
		http.NotFound(w, req)
	})

	systemHandler := handler.NewSystemHandler(s.store, s.cfg.Version, s.logger)
	authHandler := handler.NewAuthHandler(s.authSvc, s.logger)
	categoryHandler := handler.NewCategoryHandler(s.store, s.logger)
	productHandler := handler.NewProductHandler(s.store, s.saver, s.logger)
	enquiryHandler := handler.NewEnquiryHandler(s.store, s.mailer, s.logger)

	// --- Liveness probe ---
	r.Get("/healthz", systemHandler.Healthz)

	// --- API routes ---
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", systemHandler.Health)

		// Public catalog
		r.Get("/categories", categoryHandler.List)
		r.Get("/categories/{slug}", categoryHandler.GetBySlug)
		r.Get("/products", productHandler.List)
		r.Get("/products/{id}", productHandler.Get)

		// Public contact form, rate limited per IP
		r.Group(func(r chi.Router) {
			if s.cfg.EnquiryRateLimit > 0 {
				r.Use(middleware.RateLimit(s.cfg.EnquiryRateLimit))
			}
			r.Post("/enquiry", enquiryHandler.Submit)
		})

		// Admin console
		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Authenticate(s.authSvc))
				r.Use(middleware.RequireRole(model.RoleAdmin))

				r.Get("/verify", authHandler.Verify)
				r.Patch("/password", authHandler.ChangePassword)

				r.Post("/categories", categoryHandler.Create)
				r.Put("/categories/{id}", categoryHandler.Update)
				r.Delete("/categories/{id}", categoryHandler.Delete)

				r.Get("/products", productHandler.AdminList)
				r.Post("/products", productHandler.Create)
				r.Put("/products/{id}", productHandler.Update)
				r.Delete("/products/{id}", productHandler.Delete)

				r.Get("/enquiries", enquiryHandler.List)
				r.Get("/enquiries/{id}", enquiryHandler.Get)
				r.Patch("/enquiries/{id}", enquiryHandler.UpdateStatus)
				r.Delete("/enquiries/{id}", enquiryHandler.Delete)
			})
		})
	})

	// --- Uploaded images ---
	if s.saver != nil {
		uploadsFS := http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.saver.Dir())))
		r.Get("/uploads/*", func(w http.ResponseWriter, req *http.Request) {
			uploadsFS.ServeHTTP(w, req)
		})
	}

	// --- Embedded frontend ---
	if s.cfg.EnableUI {
		// The dist/ directory is produced by `cd ui && npm run build` and
		// embedded via go:embed in internal/ui.
		distFS, err := fs.Sub(ui.Dist, "dist")
		if err != nil {
			s.logger.Error("failed to create sub filesystem for UI", "error", err)
		} else {
			fileServer := http.FileServer(http.FS(distFS))
			r.Handle("/assets/*", fileServer)
			r.Get("/favicon.svg", func(w http.ResponseWriter, req *http.Request) {
				fileServer.ServeHTTP(w, req)
			})
			// SPA fallback: serve index.html for all UI routes.
			spaHandler := func(w http.ResponseWriter, req *http.Request) {
				f, err := distFS.Open("index.html")
				if err != nil {
					http.Error(w, "UI not available", http.StatusNotFound)
					return
				}
				defer f.Close()
				stat, _ := f.Stat()
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				http.ServeContent(w, req, "index.html", stat.ModTime(), f.(io.ReadSeeker))
			}
			r.Get("/", spaHandler)
			r.Get("/products-page", spaHandler)
			r.Get("/products-page/*", spaHandler)
			r.Get("/about", spaHandler)
			r.Get("/contact", spaHandler)
			r.Get("/admin", spaHandler)
			r.Get("/admin/*", spaHandler)
		}
	}

	s.router = r
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests before returning.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
