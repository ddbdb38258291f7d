package api

import (
	"context"
	"net/http"
	"time"

	"homerent/internal/config"
	"homerent/internal/database"
	"homerent/internal/handlers"
	"homerent/internal/middleware"
	"homerent/internal/service"

	"github.com/casbin/casbin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthChecker is satisfied by database.DB
type HealthChecker interface {
	HealthCheck(ctx context.Context) database.HealthCheck
}

// Server представляет HTTP сервер API
type Server struct {
	router *gin.Engine
	config *config.Config
	health HealthChecker
}

// Deps - собранные в main зависимости сервера
type Deps struct {
	Services *service.Services
	Auth     middleware.AuthConfig
	Enforcer *casbin.Enforcer
	Health   HealthChecker
}

// NewServer создает новый экземпляр сервера
func NewServer(cfg *config.Config, deps Deps) *Server {
	gin.SetMode(cfg.GinMode)

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace(cfg.Tracing.ServiceName))
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.Logger())

	server := &Server{
		router: router,
		config: cfg,
		health: deps.Health,
	}

	server.setupRoutes(deps)

	return server
}

// setupRoutes настраивает все API роуты
func (s *Server) setupRoutes(deps Deps) {
	h := handlers.NewHandlers(deps.Services)

	api := s.router.Group("/api")
	api.Use(middleware.Timeout(s.config.RequestTimeout))
	api.Use(middleware.Authenticate(deps.Auth))
	api.Use(middleware.Authorize(deps.Enforcer))
	h.RegisterRoutes(api)

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// healthCheck обрабатывает health check запросы
func (s *Server) healthCheck(c *gin.Context) {
	if s.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "homerent-api"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	check := s.health.HealthCheck(ctx)
	if check.Status != "healthy" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "service": "homerent-api", "database": check})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "homerent-api", "database": check})
}

// Handler возвращает роутер для http.Server и тестов
func (s *Server) Handler() http.Handler {
	return s.router
}
