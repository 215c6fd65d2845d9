// Package server
//
// @title up to me web API
// @version 1.0
// @description Views of the up to me app, gated by the route guard
// @host localhost:8080
// @BasePath /
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/uptome-dev/uptome/internal/auth"
	"github.com/uptome-dev/uptome/internal/client"
	"github.com/uptome-dev/uptome/internal/config"
	"github.com/uptome-dev/uptome/internal/party"
)

// Server represents the HTTP server
type Server struct {
	router  *gin.Engine
	config  *config.Config
	logger  zerolog.Logger
	client  *client.Client
	party   *party.Service
	version string

	resolverOpts []auth.ResolverOption
	inflight     sync.Map // action:external_id -> *longtask.Guarded
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	if err := cfg.RequireAPI(); err != nil {
		return nil, err
	}
	if len(cfg.Web.AllowOrigins) == 0 {
		return nil, errors.New("at least one CORS origin is required")
	}

	// Register custom validators on gin's binding engine
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			// Letters, digits, dots, hyphens and underscores only
			for _, char := range fl.Field().String() {
				if !((char >= 'a' && char <= 'z') ||
					(char >= 'A' && char <= 'Z') ||
					(char >= '0' && char <= '9') ||
					char == '.' ||
					char == '-' ||
					char == '_') {
					return false
				}
			}
			return true
		})
	}

	apiClient := client.New(cfg.API.URL, cfg.API.Key,
		client.WithTimeout(cfg.API.Timeout),
		client.WithLogger(zlog.With().Str("component", "client").Logger()),
	)

	server := &Server{
		config:  cfg,
		logger:  zlog,
		client:  apiClient,
		party:   party.NewService(apiClient),
		version: version,
	}
	if cfg.Session.JWTSecret != "" {
		server.resolverOpts = append(server.resolverOpts, auth.WithVerificationKey([]byte(cfg.Session.JWTSecret)))
	}

	// Setup router
	server.setupRouter()

	return server, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	// Set Gin mode based on environment
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.Web.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	user := s.requireRoles(nil, auth.RoleUser)
	admin := s.requireRoles(nil, auth.RoleAdmin)

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Session endpoints
	s.router.POST("/register", s.register)
	s.router.GET("/login", s.loginView)
	s.router.POST("/login", s.login)
	s.router.POST("/logout", s.logout)
	s.router.GET("/unauthorized", s.unauthorizedView)

	// Decks and cards: signed-out visitors get the shared decks
	s.router.GET("/", s.requireRoles(s.listSharedDecks, auth.RoleUser), s.listDecks)
	s.router.GET("/decks", s.requireRoles(s.listSharedDecks, auth.RoleUser), s.listDecks)
	s.router.POST("/decks", user, s.createDeck)
	s.router.DELETE("/decks/:iddeck", user, s.deleteDeck)
	s.router.GET("/cards", s.listCards)
	s.router.GET("/cards/:iddeck", s.listCards)
	s.router.POST("/cards", user, s.createCard)
	s.router.DELETE("/card/:idcard", user, s.deleteCard)

	// Games
	s.router.GET("/startgame", user, s.startGameView)
	s.router.POST("/startgame", user, s.startGame)
	s.router.GET("/games", user, s.listGames)
	s.router.GET("/games/:idgame", user, s.getGame)
	s.router.PUT("/games/:idgame/accept", user, s.acceptGame)
	s.router.DELETE("/games/:idgame", user, s.deleteGame)

	// User page and friends
	s.router.GET("/user", user, s.userView)
	s.router.GET("/friends", user, s.listFriends)
	s.router.POST("/friends", user, s.requestFriend)
	s.router.PUT("/friends/:username/accept", user, s.acceptFriend)
	s.router.GET("/users/search", user, s.searchUsers)

	// Admin
	s.router.GET("/admin", admin, s.adminView)
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("request_id", c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "uptome-web",
		"version":   s.version,
	})
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	addr := s.config.Web.Addr

	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
		// Backend calls are bounded by the API timeout
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.config.API.Timeout + 10*time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Str("api", s.config.API.URL).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err, ok := <-errc:
		if ok {
			s.logger.Error().Err(err).Msg("HTTP server error")
			return err
		}
		return nil
	case <-ctx.Done():
	}
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
