package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/urna-cipa/internal/config"
	"github.com/gravadigital/urna-cipa/internal/handlers"
	"github.com/gravadigital/urna-cipa/internal/live"
	"github.com/gravadigital/urna-cipa/internal/logger"
	"github.com/gravadigital/urna-cipa/internal/middleware/auth"
	"github.com/gravadigital/urna-cipa/internal/middleware/events"
	"github.com/gravadigital/urna-cipa/internal/response"
)

// HealthChecker reports whether the storage behind the API is reachable
type HealthChecker interface {
	Health() error
}

// Dependencies are the handlers and collaborators the router is built from
type Dependencies struct {
	Votes  *handlers.VoteHandler
	Admin  *handlers.AdminHandler
	Tokens auth.TokenParser
	Health HealthChecker
	// Live is optional; without it the /api/admin/live route is not registered.
	Live *live.Hub
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	config     *config.Config
	deps       Dependencies
}

// New creates a new server instance
func New(cfg *config.Config, deps Dependencies) *Server {
	return &Server{
		config: cfg,
		deps:   deps,
	}
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    ":" + s.config.Server.Port,
		Handler: s.Router(),

		// Photos arrive as base64 in the JSON body, so reads get more room.
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Get().Info("Starting HTTP server", "port", s.config.Server.Port)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	logger.Get().Info("Shutting down HTTP server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// Router configures the HTTP router with middleware and routes
func (s *Server) Router() *gin.Engine {
	if s.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(events.CreateEvent())
	router.Use(cors.New(s.corsConfig()))

	router.GET("/ping", s.ping)

	s.setupAPIRoutes(router)

	return router
}

func (s *Server) corsConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	origins := config.SplitList(s.config.CORS.AllowOrigins)
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	if methods := config.SplitList(s.config.CORS.AllowMethods); len(methods) > 0 {
		corsConfig.AllowMethods = methods
	}
	if headers := config.SplitList(s.config.CORS.AllowHeaders); len(headers) > 0 {
		corsConfig.AllowHeaders = headers
	}
	return corsConfig
}

func (s *Server) ping(c *gin.Context) {
	if s.deps.Health != nil {
		if err := s.deps.Health.Health(); err != nil {
			logger.HTTP().Error("health check failed", "error", err)
			response.ServiceUnavailableError(c, "database unavailable")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Urna CIPA is running",
		"status":  "healthy",
	})
}

// setupAPIRoutes configures all API routes
func (s *Server) setupAPIRoutes(router *gin.Engine) {
	votes := s.deps.Votes
	admin := s.deps.Admin

	api := router.Group("/api")
	{
		api.POST("/vote", votes.CastVote)
		api.GET("/eligibility", votes.CheckEligibility)
		api.GET("/check-cpf/:cpf", votes.CheckEligibility)
		api.GET("/candidate", votes.GetCandidate)
		api.GET("/candidates/:number", votes.GetCandidate)
		api.GET("/employees/:cpf", votes.GetEmployee)

		api.POST("/admin/login", admin.Login)

		protected := api.Group("/admin", auth.RequireAdmin(s.deps.Tokens))
		{
			protected.POST("/roster/import", admin.ImportRoster)
			protected.POST("/candidates", admin.RegisterCandidate)
			protected.GET("/dashboard", admin.Dashboard)
			protected.GET("/stats", admin.Stats)
			protected.GET("/evidence/:ref", admin.GetEvidence)
			if s.deps.Live != nil {
				protected.GET("/live", s.deps.Live.Serve)
			}
		}
	}

	// Paths used by the kiosk page shipped with the first release.
	router.POST("/vote", votes.CastVote)
	router.GET("/candidate-info/:number", votes.GetCandidate)
	router.GET("/api/get-employee/:cpf", votes.GetEmployee)
}
