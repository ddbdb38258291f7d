package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homerent/cmd/consumers/jobs"
	"homerent/internal/config"
	"homerent/internal/consumers"
	"homerent/internal/database"
	"homerent/internal/external"
	"homerent/internal/logger"
	"homerent/internal/messaging"
	"homerent/internal/notification"
	"homerent/internal/repository"
	"homerent/internal/service"
	"homerent/internal/tracing"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Get().Warn("Failed to load .env", "error", err)
	}

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Get()
	log.Info("Starting consumers service...")

	// Override NATS client ID for consumers
	cfg.NATS.ClientID = "homerent-consumers"
	cfg.Tracing.ServiceName = "homerent-consumers"

	shutdownTracing, err := tracing.Init(cfg.Tracing)
	if err != nil {
		logger.Fatal("Failed to init tracing", "error", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	var (
		broker     notification.Broker
		subscriber consumers.Subscriber
	)
	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		log.Warn("NATS is unavailable, running expiration jobs only", "error", err)
	} else {
		broker = natsClient
		subscriber = natsClient
	}
	publisher := notification.NewPublisher(broker)

	// поиск здесь не нужен: задачи истечения не трогают объекты размещения
	services := service.NewServices(repository.NewRepositories(db), external.NewCheckoutClient(cfg.Checkout), nil, publisher, cfg.Checkout.Currency)

	bookingJob, err := jobs.NewBookingExpirationJob(services.Bookings, cfg.Sweeps.BookingSweepAt)
	if err != nil {
		logger.Fatal("Invalid booking sweep schedule", "error", err)
	}
	paymentJob, err := jobs.NewPaymentExpirationJob(services.Payments, cfg.Sweeps.PaymentSweepInterval)
	if err != nil {
		logger.Fatal("Invalid payment sweep interval", "error", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	consumerService := consumers.NewConsumerService(subscriber, consumers.NewHandlers(log), bookingJob, paymentJob)
	if err := consumerService.Start(ctx); err != nil {
		logger.Fatal("Failed to start consumers", "error", err)
	}

	log.Info("Consumers service started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down consumers service...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := consumerService.Shutdown(shutdownCtx); err != nil {
		log.Error("Error during shutdown", "error", err)
	}
	publisher.Wait()

	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.Error("Error closing NATS connection", "error", err)
		}
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database connection", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("Error flushing traces", "error", err)
	}

	log.Info("Consumers service stopped")
}
