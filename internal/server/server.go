// Package server assembles the HTTP server: router, middleware chain, and
// the wiring between the GitHub client, provisioner, object store, and
// session manager.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/pdfstash/pdfstash/internal/config"
	"github.com/pdfstash/pdfstash/internal/server/handlers"
	"github.com/pdfstash/pdfstash/internal/server/middleware"
	"github.com/pdfstash/pdfstash/internal/session"
	"github.com/pdfstash/pdfstash/internal/version"
	"github.com/pdfstash/pdfstash/pkg/githubclient"
	"github.com/pdfstash/pdfstash/pkg/objectstore"
	"github.com/pdfstash/pdfstash/pkg/provision"
)

// authRequestsPerMinute limits the unauthenticated login endpoints per IP.
const authRequestsPerMinute = 30

// Server is the HTTP server and its dependencies.
type Server struct {
	log        *zap.Logger
	cfg        *config.Config
	router     chi.Router
	httpServer *http.Server
	sessions   *session.Store
}

// New wires the full dependency graph from configuration. A nil logger
// disables logging.
func New(log *zap.Logger, cfg *config.Config) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	github := githubclient.New(log, githubclient.Config{
		ClientID:     cfg.GitHub.ClientID,
		ClientSecret: cfg.GitHub.ClientSecret,
		APIBaseURL:   cfg.GitHub.APIBaseURL,
		AuthBaseURL:  cfg.GitHub.AuthBaseURL,
	})

	sessionStore := session.NewStore(log)
	sessionManager := session.NewManager(sessionStore, cfg.Session.Secret, cfg.Session.SecureCookie)

	provisioner := provision.New(log, github)
	store := objectstore.New(log, github, provision.RepoName)

	authHandler := handlers.NewAuthHandler(
		log, github, provisioner, sessionManager,
		cfg.Frontend.URL, cfg.RedirectURI(), cfg.Session.SecureCookie)
	filesHandler := handlers.NewFilesHandler(log, store)

	health := handlers.NewHealthManager(version.Version)
	health.RegisterChecker("sessions", sessionChecker{store: sessionStore})

	s := &Server{
		log:      log.Named("server"),
		cfg:      cfg,
		sessions: sessionStore,
	}
	s.router = s.buildRouter(authHandler, filesHandler, health, sessionManager)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

func (s *Server) buildRouter(
	auth *handlers.AuthHandler,
	files *handlers.FilesHandler,
	health *handlers.HealthManager,
	sessions *session.Manager,
) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.cfg.Frontend.URL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", handlers.Liveness)
	r.Get("/health", health.HealthHandler)

	limiter := middleware.NewRateLimiter(authRequestsPerMinute)
	r.Group(func(r chi.Router) {
		r.Use(limiter.Handler)
		r.Get("/auth/github", auth.Login)
		r.Get("/auth/github/callback", auth.Callback)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(sessions))
		r.Post("/upload", files.Upload)
		r.Get("/files", files.List)
		r.Put("/delete", files.Delete)
		r.Get("/me", auth.Me)
		r.Post("/logout", auth.Logout)
	})

	return r
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server until ctx is canceled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.sessions.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err := <-errCh:
		return err
	}
}

func (s *Server) shutdown() error {
	s.log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	s.sessions.Stop()
	return err
}

// sessionChecker exercises the session store lock so a wedged store shows
// up as a hung health check rather than silent failure.
type sessionChecker struct {
	store *session.Store
}

func (c sessionChecker) CheckHealth(context.Context) error {
	_ = c.store.Len()
	return nil
}
