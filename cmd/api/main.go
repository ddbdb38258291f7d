package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homerent/internal/api"
	"homerent/internal/cache"
	"homerent/internal/config"
	"homerent/internal/database"
	"homerent/internal/external"
	"homerent/internal/logger"
	"homerent/internal/messaging"
	"homerent/internal/middleware"
	"homerent/internal/notification"
	"homerent/internal/repository"
	"homerent/internal/search"
	"homerent/internal/service"
	"homerent/internal/tracing"

	"github.com/casbin/casbin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Get().Warn("Failed to load .env", "error", err)
	}

	// Загружаем конфигурацию
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Get()

	shutdownTracing, err := tracing.Init(cfg.Tracing)
	if err != nil {
		logger.Fatal("Failed to init tracing", "error", err)
	}

	// Подключаемся к базе данных
	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}
	db.ValidateConnectionPool()

	// NATS, Valkey и Elasticsearch необязательны: без них сервис работает в урезанном режиме
	var broker notification.Broker
	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		log.Warn("NATS is unavailable, notifications will be dropped", "error", err)
	} else {
		broker = natsClient
	}
	publisher := notification.NewPublisher(broker)

	auth := middleware.AuthConfig{JWTSecret: []byte(cfg.JWTSecret)}
	valkeyClient, err := cache.NewValkeyClient(cfg.Redis)
	if err != nil {
		log.Warn("Valkey is unavailable, credentials will not be cached", "error", err)
	} else {
		auth.Cache = valkeyClient
	}

	var index service.AccommodationIndex
	if cfg.Elasticsearch.Enabled {
		esClient, err := search.NewElasticsearchClient(cfg.Elasticsearch)
		if err != nil {
			log.Warn("Elasticsearch is unavailable, search falls back to the database", "error", err)
		} else {
			index = esClient
		}
	}

	repos := repository.NewRepositories(db)
	auth.Users = repos.Users
	services := service.NewServices(repos, external.NewCheckoutClient(cfg.Checkout), index, publisher, cfg.Checkout.Currency)

	enforcer, err := casbin.NewEnforcerSafe(cfg.RBACModelPath, cfg.RBACPolicyPath)
	if err != nil {
		logger.Fatal("Failed to load RBAC policy", "error", err)
	}

	server := api.NewServer(cfg, api.Deps{
		Services: services,
		Auth:     auth,
		Enforcer: enforcer,
		Health:   db,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Ждем сигнал для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	// дожидаемся отправки уведомлений до закрытия NATS
	publisher.Wait()

	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.Error("Error closing NATS connection", "error", err)
		}
	}
	if valkeyClient != nil {
		if err := valkeyClient.Close(); err != nil {
			log.Error("Error closing Valkey connection", "error", err)
		}
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database connection", "error", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Error("Error flushing traces", "error", err)
	}

	log.Info("Server stopped")
}
