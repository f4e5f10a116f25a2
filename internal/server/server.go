// Package server wires handlers, middleware, and routes, and owns the
// HTTP server lifecycle.
//
// This is the composition root: New() assembles the whole dependency
// chain (sqlite.DB → repositories → services → handlers) in one place,
// so no other package constructs its own dependencies.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/chatconnect/internal/auth"
	"github.com/sakif/chatconnect/internal/handler"
	"github.com/sakif/chatconnect/internal/mail"
	"github.com/sakif/chatconnect/internal/middleware"
	sqliteRepo "github.com/sakif/chatconnect/internal/repository/sqlite"
	"github.com/sakif/chatconnect/internal/service"
)

// Config holds server configuration, loaded from the environment in
// cmd/server.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string
	ServerURL string // public base URL embedded in emailed links

	SMTP mail.Config

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Server owns the router and the resources that must be released on
// shutdown (the database connection).
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server with the full dependency chain assembled.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and the route table.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	var mailer service.Mailer
	if s.config.SMTP.Host != "" {
		mailer = mail.NewMailer(s.config.SMTP)
	} else {
		s.logger.Warn("SMTP not configured — verification and reset emails will be dropped")
		mailer = dropMailer{logger: s.logger}
	}

	users := s.db.Users()
	userService := service.NewUserService(users, tokens, passwords, mailer, s.config.ServerURL, s.logger)
	chatService := service.NewChatService(s.db.Conversations(), s.db.Messages(), users, s.logger)

	userHandler := handler.NewUserHandler(userService, s.logger)
	chatHandler := handler.NewChatHandler(chatService, s.logger)
	resetPage := handler.NewResetPageHandler(s.logger)

	requireAuth := auth.RequireAuth(tokens)

	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/register", userHandler.HandleRegister)
		r.Post("/login", userHandler.HandleSignIn)
		r.Get("/fetch-all-users", userHandler.HandleListUsers)
		r.Post("/delete", userHandler.HandleDelete)
		r.Post("/forgotPassword", userHandler.HandleForgotPassword)
		r.Post("/sso-login", userHandler.HandleSSOLogin)
		r.Get("/resetPasswordHtmlPage", resetPage.HandleResetPage)

		// Token-protected: identity comes from the signed token on the
		// request, not from the body.
		r.With(requireAuth).Get("/verification", userHandler.HandleVerification)
		r.With(requireAuth).Post("/resetPassword", userHandler.HandleResetPassword)

		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", chatHandler.HandleCreateConversation)
			r.Get("/", chatHandler.HandleListConversations)
			r.Get("/{id}", chatHandler.HandleGetConversation)
			r.Put("/{id}", chatHandler.HandleRenameConversation)
			r.Delete("/{id}", chatHandler.HandleDeleteConversation)
			r.Post("/{id}/members", chatHandler.HandleJoinConversation)
			r.Post("/{id}/messages", chatHandler.HandleSendMessage)
			r.Get("/{id}/messages", chatHandler.HandleListMessages)
		})
	})

	// GitHub OAuth routes are only registered when the OAuth app is
	// configured; everything else works without it.
	if s.config.GitHubClientID != "" && s.config.GitHubClientSecret != "" {
		github := auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
		authHandler := handler.NewAuthHandler(github, userService, s.logger)
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
		s.router.Post("/auth/logout", authHandler.HandleLogout)
	} else {
		s.logger.Warn("GitHub OAuth not configured — /auth/github routes not registered")
	}

	return nil
}

// Router exposes the configured router, mainly for tests that drive the
// full stack through httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// dropMailer stands in for the real mailer when SMTP is unconfigured
// (local development). Messages are logged and discarded.
type dropMailer struct {
	logger *slog.Logger
}

func (d dropMailer) Send(to, subject, _ string) error {
	d.logger.Info("email dropped (SMTP not configured)",
		slog.String("to", to),
		slog.String("subject", subject),
	)
	return nil
}
