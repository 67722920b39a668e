package main

import (
	"context"
	"crm-bridge/internal/api"
	"crm-bridge/internal/config"
	"crm-bridge/internal/domain/contact"
	"crm-bridge/internal/event"
	"crm-bridge/internal/infrastructure/crm"
	"crm-bridge/internal/infrastructure/database/postgres"
	"crm-bridge/internal/infrastructure/logging"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/viper"
)

// @title CRM Bridge API
// @version 1.0
// @description Looks up CRM contacts for local users and pushes field updates to the CRM.

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, logger := initializeApp()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbPool := initializeDatabase(ctx, cfg, logger)
	defer closeDatabase(dbPool, logger)

	var (
		amqpConn  *amqp.Connection
		publisher contact.EventPublisher
	)
	if cfg.RabbitMQ.Enabled {
		conn, err := setupRabbitMQ(cfg, logger)
		if err != nil {
			logger.Error("Failed to set up RabbitMQ", "error", err)
			os.Exit(1)
		}
		amqpConn = conn
		defer closeRabbitMQ(amqpConn, logger)

		pub, err := event.NewRabbitMQEventPublisher(amqpConn, cfg.RabbitMQ.ExchangeName, logger)
		if err != nil {
			logger.Error("Failed to create event publisher", "error", err)
			os.Exit(1)
		}
		publisher = pub
	} else {
		logger.Info("RabbitMQ disabled, flag events will not be consumed or published")
	}

	contactService := initializeServices(cfg, dbPool, publisher, logger)

	var consumer *event.Consumer
	if amqpConn != nil {
		consumer = startConsumer(ctx, cfg, amqpConn, contactService, logger)
	}

	router := api.SetupRouter(ctx, contactService, cfg, logger)

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	var stopper consumerStopper
	if consumer != nil {
		stopper = consumer
	}
	handleShutdown(srv, stopper, shutdownChan, serverErrors, logger)
	cancel()
}

type consumerStopper interface {
	Stop()
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Logger)
	slog.SetDefault(logger)
	logger.Info("Application starting...", "config_source", viper.ConfigFileUsed(), "crm", cfg.CRM.Name)

	return cfg, logger
}

func initializeDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	logger.Info("Initializing database connection pool...")
	dbPool, err := postgres.NewConnectionPool(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	return dbPool
}

func closeDatabase(dbPool *pgxpool.Pool, logger *slog.Logger) {
	logger.Info("Closing database connection pool...")
	dbPool.Close()
}

func initializeServices(cfg *config.Config, db postgres.DBPool, publisher contact.EventPublisher, logger *slog.Logger) contact.ContactService {
	logger.Info("Initializing application components...")
	repo := postgres.NewContactRepository(db, logger)

	crmClient, err := crm.NewClient(cfg.CRM, &http.Client{Timeout: cfg.CRM.Timeout}, logger)
	if err != nil {
		logger.Error("Failed to create CRM client", "error", err)
		os.Exit(1)
	}

	return contact.NewContactService(repo, crmClient, publisher, cfg.CRM.Name, logger)
}

func startConsumer(ctx context.Context, cfg *config.Config, conn *amqp.Connection, svc contact.ContactService, logger *slog.Logger) *event.Consumer {
	flagHandler := event.NewFlagEventHandler(svc, logger)
	consumer, err := event.NewConsumer(
		conn,
		cfg.RabbitMQ.ExchangeName,
		cfg.RabbitMQ.QueueName,
		cfg.RabbitMQ.ConsumerTag,
		flagHandler.HandleDelivery,
		logger,
	)
	if err != nil {
		logger.Error("Failed to create flag request consumer", "error", err)
		os.Exit(1)
	}
	if err := consumer.Start(ctx); err != nil {
		logger.Error("Failed to start flag request consumer", "error", err)
		os.Exit(1)
	}
	return consumer
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error, <-chan os.Signal) {
	logger.Info("Setting up HTTP server...", "port", cfg.Server.Port)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server listening on port %d", cfg.Server.Port))
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
		} else {
			logger.Info("Server closed gracefully.")
			serverErrors <- nil
		}
	}()
	return srv, serverErrors, shutdownChan
}

func handleShutdown(srv *http.Server, consumer consumerStopper, shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	var triggerReason string
	select {
	case sig := <-shutdownChan:
		triggerReason = "signal: " + sig.String()
		logger.Info("Shutdown signal received.", "signal", sig.String())
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			os.Exit(1)
		}
		triggerReason = "server exited"
		logger.Info("Server goroutine finished before signal.", "error", err)
	}

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)

	if consumer != nil {
		logger.Info("Stopping flag request consumer...")
		consumer.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server graceful shutdown failed", "error", err)
		}
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}
	logger.Info("Waiting for server goroutine to confirm exit...")
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		} else {
			logger.Info("Server goroutine confirmed exit.")
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}

	logger.Info("Application shutdown process complete.")
}

func setupLogger(cfg config.LoggerConfig) *slog.Logger {
	return logging.NewLogger(cfg)
}

func amqpURI(cfg config.RabbitMQConfig) (string, error) {
	if cfg.Host == "" {
		return "", fmt.Errorf("RabbitMQ host is not configured")
	}
	port := cfg.Port
	if port == 0 {
		port = 5672
	}

	switch {
	case cfg.Username != "" && cfg.Password != "":
		return fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.Username, cfg.Password, cfg.Host, port), nil
	case cfg.Username != "" || cfg.Password != "":
		return "", fmt.Errorf("RabbitMQ username and password must be provided together")
	default:
		return fmt.Sprintf("amqp://%s:%d/", cfg.Host, port), nil
	}
}

func connectRabbitMQ(uri string, logger *slog.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	retryCount := 5
	for i := 1; i <= retryCount; i++ {
		conn, err = amqp.Dial(uri)
		if err == nil {
			logger.Info("Successfully connected to RabbitMQ")

			blockChan := conn.NotifyBlocked(make(chan amqp.Blocking, 1))
			closeChan := conn.NotifyClose(make(chan *amqp.Error, 1))
			go watchConnection(blockChan, closeChan, logger)

			return conn, nil
		}
		logger.Warn("Failed to connect to RabbitMQ, retrying...",
			slog.Int("attempt", i),
			slog.Int("max_attempts", retryCount),
			slog.Any("error", err),
		)
		time.Sleep(time.Duration(i*2) * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", retryCount, err)
}

// watchConnection drains blocked/unblocked notifications until the connection
// closes. amqp091 delivers them from the connection reader, so an unread
// channel stalls the whole connection.
func watchConnection(blockChan <-chan amqp.Blocking, closeChan <-chan *amqp.Error, logger *slog.Logger) {
	for {
		select {
		case b, ok := <-blockChan:
			if !ok {
				blockChan = nil
				continue
			}
			if b.Active {
				logger.Warn("RabbitMQ Connection Blocked", "reason", b.Reason)
			} else {
				logger.Info("RabbitMQ Connection Unblocked")
			}
		case e := <-closeChan:
			if e != nil {
				logger.Error("RabbitMQ Connection Closed", slog.Any("error", e))
			} else {
				logger.Info("RabbitMQ Connection Closed")
			}
			return
		}
	}
}

func setupRabbitMQ(cfg *config.Config, logger *slog.Logger) (*amqp.Connection, error) {
	uri, err := amqpURI(cfg.RabbitMQ)
	if err != nil {
		return nil, err
	}
	return connectRabbitMQ(uri, logger)
}

func closeRabbitMQ(conn *amqp.Connection, logger *slog.Logger) {
	logger.Info("Closing RabbitMQ connection...")
	if err := conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		logger.Warn("Failed to close RabbitMQ connection", "error", err)
	}
}
