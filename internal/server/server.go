// Package server is the composition root: it builds the clients, services
// and handlers from a config.Config and mounts them on one chi router.
//
// DEPENDENCY FLOW:
//
//	config → github.Client, llm.Generator, payment.Client
//	store  → HistoryRepository, UserRepository
//	       → ExplainService, HistoryService, AuthService
//	       → handlers → routes
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sakif/repo-explainer/internal/auth"
	"github.com/sakif/repo-explainer/internal/config"
	"github.com/sakif/repo-explainer/internal/github"
	"github.com/sakif/repo-explainer/internal/handler"
	"github.com/sakif/repo-explainer/internal/llm"
	"github.com/sakif/repo-explainer/internal/middleware"
	"github.com/sakif/repo-explainer/internal/payment"
	"github.com/sakif/repo-explainer/internal/repository"
	"github.com/sakif/repo-explainer/internal/service"
	"github.com/sakif/repo-explainer/web"
)

// Server owns the router and the store. The store is closed when Start
// returns.
type Server struct {
	router *chi.Mux
	config *config.Config
	store  repository.Store
	logger *zap.Logger
}

// NewExplainService builds the GitHub → LLM pipeline from cfg. history may
// be nil for one-shot use.
func NewExplainService(cfg *config.Config, history repository.HistoryRepository, logger *zap.Logger) (*service.ExplainService, error) {
	gh, err := github.NewClient(github.Options{
		Token:           cfg.GitHubToken,
		Budget:          cfg.ContentBudget,
		DownloadTimeout: 15 * time.Second,
	}, logger.Named("github"))
	if err != nil {
		return nil, err
	}

	if cfg.LLMAPIKey == "" {
		logger.Warn("LLM API key not set; explanations will fail")
	}
	generator := llm.NewGenerator(llm.Options{
		APIKey:   cfg.LLMAPIKey,
		BaseURL:  cfg.LLMBaseURL,
		Model:    cfg.LLMModel,
		MaxWords: cfg.LLMMaxWords,
	}, logger.Named("llm"))

	return service.NewExplainService(gh, generator, history, cfg.ExplainTimeout, logger.Named("explain")), nil
}

// New wires every dependency onto the router.
func New(cfg *config.Config, store repository.Store, logger *zap.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		store:  store,
		logger: logger,
	}
	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// setupRoutes configures middleware and routes.
//
// ROUTES:
//
//	GET    /                               page
//	GET    /explain?repo=…                 page
//	GET    /static/*                       embedded assets
//	GET    /healthz                        database ping
//	POST   /api/explain                    optional session
//	POST   /api/razorpay/order
//	GET    /api/search-history             session required
//	POST   /api/search-history             session required
//	DELETE /api/search-history             session required
//	DELETE /api/search-history/{id}        session required
//	POST   /api/auth/register|login|logout
//	GET    /api/auth/me                    session required
//	GET    /auth/{provider}/login|callback
//	GET    /auth/logout
//
// Without a session secret the auth and history routes are not mounted.
func (s *Server) setupRoutes() error {
	cfg := s.config

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger.Named("http")))

	var tokens *auth.TokenService
	if cfg.AuthEnabled() {
		var err error
		tokens, err = auth.NewTokenService(cfg.SessionSecret)
		if err != nil {
			return err
		}
	} else {
		s.logger.Warn("SESSION_SECRET not set; sign-in and search history are disabled")
	}

	explainService, err := NewExplainService(cfg, s.store.History(), s.logger)
	if err != nil {
		return fmt.Errorf("creating explain service: %w", err)
	}
	historyService := service.NewHistoryService(s.store.History(), s.logger.Named("history"))

	providers := s.oauthProviders()
	providerNames := make([]string, 0, len(providers))
	for _, p := range providers {
		providerNames = append(providerNames, p.Name())
	}

	var pageHistory *service.HistoryService
	if tokens != nil {
		pageHistory = historyService
	}
	pages, err := handler.NewPageHandler(web.Templates(), explainService, pageHistory, providerNames, s.logger.Named("page"))
	if err != nil {
		return fmt.Errorf("creating page handler: %w", err)
	}
	explainHandler := handler.NewExplainHandler(explainService, s.logger)
	paymentHandler := handler.NewPaymentHandler(payment.NewClient(payment.Config{
		KeyID:     cfg.RazorpayKeyID,
		KeySecret: cfg.RazorpayKeySecret,
		BaseURL:   cfg.RazorpayBaseURL,
	}, s.logger.Named("payment")), s.logger)
	healthHandler := handler.NewHealthHandler(s.store, s.logger)

	// === Static files and health ===
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))
	s.router.Get("/healthz", healthHandler.HandleHealth)

	// === Pages and explain (session optional) ===
	s.router.Group(func(r chi.Router) {
		r.Use(auth.OptionalAuth(tokens))
		r.Get("/", pages.HandleHome)
		r.Get("/explain", pages.HandleExplain)
		r.Post("/api/explain", explainHandler.HandleExplain)
	})

	s.router.Post("/api/razorpay/order", paymentHandler.HandleCreateOrder)

	if tokens == nil {
		return nil
	}

	// === Auth and history ===
	authService := service.NewAuthService(s.store.Users(), tokens, auth.NewPasswordService(), s.logger.Named("auth"))
	authHandler := handler.NewAuthHandler(authService, providers, cfg.Production(), s.logger)
	historyHandler := handler.NewHistoryHandler(historyService, s.logger)

	s.router.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		r.With(auth.RequireAuth(tokens)).Get("/me", authHandler.HandleMe)
	})

	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/logout", authHandler.HandleSignOut)
		r.Get("/{provider}/login", authHandler.HandleOAuthLogin)
		r.Get("/{provider}/callback", authHandler.HandleOAuthCallback)
	})

	s.router.Route("/api/search-history", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Get("/", historyHandler.HandleList)
		r.Post("/", historyHandler.HandleSave)
		r.Delete("/", historyHandler.HandleDelete)
		r.Delete("/{id}", historyHandler.HandleDeleteByID)
	})

	return nil
}

func (s *Server) oauthProviders() []*auth.Provider {
	cfg := s.config
	var providers []*auth.Provider
	if cfg.GoogleEnabled() {
		providers = append(providers, auth.NewGoogleProvider(auth.ProviderConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			CallbackURL:  cfg.PublicBaseURL + "/auth/google/callback",
		}))
	}
	if cfg.GitHubOAuthEnabled() {
		providers = append(providers, auth.NewGitHubProvider(auth.ProviderConfig{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			CallbackURL:  cfg.PublicBaseURL + "/auth/github/callback",
		}))
	}
	return providers
}

// Start serves until SIGINT/SIGTERM or ctx is cancelled, then drains
// in-flight requests for up to 30 seconds and closes the store.
func (s *Server) Start(ctx context.Context) error {
	defer s.store.Close()

	// WriteTimeout leaves room for a full explain call.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.config.ExplainTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			zap.Int("port", s.config.Port),
			zap.String("url", s.config.PublicBaseURL),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
