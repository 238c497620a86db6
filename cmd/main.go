/**
 * @description
 * This is the main entry point for the customer service. It is responsible for
 * initializing the application, wiring the dependencies, and starting the HTTP
 * server alongside the RabbitMQ consumers.
 *
 * Key features:
 * - Loads configuration from environment variables.
 * - Establishes and manages a connection pool to the PostgreSQL database.
 * - Connects an RPC client for wallet and loyalty collaborator calls.
 * - Consumes 'customer.register' events and serves the info-customer RPC queue.
 * - Starts the chi HTTP server and implements graceful shutdown.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5/pgxpool: For database connection pooling.
 * - github.com/joho/godotenv: To load .env files for local development.
 * - github.com/redis/go-redis/v9: Rate limiter backend for the create endpoint.
 * - The service's internal packages for config, API, app logic, and storage.
 */
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/winanjuar/kezbek-customer/internal/api"
	"github.com/winanjuar/kezbek-customer/internal/app"
	"github.com/winanjuar/kezbek-customer/internal/config"
	"github.com/winanjuar/kezbek-customer/internal/store"
	"github.com/winanjuar/kezbek-customer/pkg/rabbitmq"
)

func main() {
	// Load .env file for local development. In production, env vars are set directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load application configuration.
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	// Establish database connection pool.
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to parse database URL: %v\n", err)
	}

	dbConfig.MaxConns = 10
	dbConfig.MinConns = 2
	dbConfig.MaxConnLifetime = 30 * time.Minute
	dbConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	dbConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	dbpool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer dbpool.Close()
	log.Println("Database connection established")

	// Set up the repository and make sure the schema exists.
	customerRepo := store.NewPostgresCustomerRepository(dbpool)
	if err := customerRepo.EnsureCustomerTable(context.Background()); err != nil {
		log.Fatalf("Failed ensuring customers table: %v", err)
	}

	// RPC client for wallet and loyalty collaborator calls.
	rpcClient, err := rabbitmq.NewRPCClient(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect RPC client to RabbitMQ: %v", err)
	}
	defer rpcClient.Close()

	// Event producer for customer lifecycle events. A broken producer should
	// not keep the HTTP API down, so fall back to a no-op publisher.
	var producer rabbitmq.Publisher
	if p, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL); err != nil {
		log.Printf("Failed to set up event producer, lifecycle events disabled: %v", err)
		producer = &rabbitmq.EventProducerFallback{}
	} else {
		producer = p
	}
	defer producer.Close()

	// Optional Redis-backed rate limiter for the create endpoint.
	var rateLimiter api.RateLimiter
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Unable to parse Redis URL: %v", err)
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()
		rateLimiter = app.NewRedisRateLimiter(redisClient, "")
		log.Println("Redis rate limiter enabled")
	} else {
		log.Println("REDIS_URL not set, create rate limiting disabled")
	}

	// Core service and message handlers.
	customerService := app.NewService(customerRepo, rpcClient, producer, cfg.WalletQueue, cfg.LoyaltyQueue, cfg.RPCTimeout())
	eventHandler := app.NewEventHandler(customerService)

	// Consumer for register events and the info-customer RPC queue.
	consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer consumer.Close()

	go func() {
		log.Printf("Starting consumer for queue '%s'...", cfg.RegisterQueue)
		bindings := map[string]func([]byte) bool{
			cfg.RegisterRoutingKey: eventHandler.HandleRegisterEvent,
		}
		if err := consumer.ConsumeWithBindings(cfg.RegisterExchange, cfg.RegisterQueue, bindings); err != nil {
			log.Printf("Consumer error: %v", err)
		}
	}()

	go func() {
		log.Printf("Starting RPC consumer for queue '%s'...", cfg.InfoCustomerQueue)
		if err := consumer.ConsumeRPC(cfg.InfoCustomerQueue, eventHandler.HandleInfoCustomerRequest); err != nil {
			log.Printf("RPC consumer error: %v", err)
		}
	}()

	// Setup and start HTTP server.
	handlers := api.NewCustomerHandlers(customerService)
	router := api.CustomerRoutes(handlers, api.RouterOptions{
		JWKSURL:          cfg.CognitoJWKSURL,
		RateLimiter:      rateLimiter,
		CreateRateLimit:  cfg.CreateRateLimitPerMinute,
		CreateRateWindow: time.Minute,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %s\n", err)
		}
	}()

	log.Println("Customer service is running with API and event consumers.")

	// Wait for termination signal for graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down customer service...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
