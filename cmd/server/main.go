package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"BusTicketPlatform/internal/analytics"
	"BusTicketPlatform/internal/handler"
	"BusTicketPlatform/internal/middleware"
	"BusTicketPlatform/internal/pkg/password"
	repo "BusTicketPlatform/internal/repository/postgres"
	"BusTicketPlatform/internal/service"
	"BusTicketPlatform/internal/token"
	"BusTicketPlatform/pkg/config"
	"BusTicketPlatform/pkg/database"
	"BusTicketPlatform/pkg/health"
	"BusTicketPlatform/pkg/logger"
	"BusTicketPlatform/pkg/metrics"
	"BusTicketPlatform/pkg/rabbitmq"
	"BusTicketPlatform/pkg/ratelimit"
)

const (
	serviceName    = "busline-server"
	serviceVersion = "v1.0.0"
)

func main() {
	configFile := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	baseLogger, err := logger.NewLogger(cfg.Environment, cfg.Logger.Level, serviceName)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer baseLogger.Sync()

	baseLogger.Info("Starting busline server",
		logger.String("version", serviceVersion),
		logger.String("environment", cfg.Environment))

	if err := run(cfg, baseLogger); err != nil {
		baseLogger.Error("Server terminated with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, baseLogger logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone %q: %w", cfg.Timezone, err)
	}

	tokenTTL, err := time.ParseDuration(cfg.Session.TokenDuration)
	if err != nil {
		return fmt.Errorf("failed to parse session token duration: %w", err)
	}

	if err := metrics.InitializeOpenTelemetry(serviceName); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	metricsInstance := metrics.NewMetrics("busline")

	// PostgreSQL обязателен: без него сервер не стартует
	dbConfig := database.NewConfig()
	dbConfig.Host = cfg.Database.Host
	dbConfig.Port = cfg.Database.Port
	dbConfig.User = cfg.Database.User
	dbConfig.Password = cfg.Database.Password
	dbConfig.Database = cfg.Database.Name

	pg, err := database.Connect(ctx, dbConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pg.Close()
	baseLogger.Info("Database connection established")

	// Redis для ограничения частоты логинов. Недоступность при старте не
	// фатальна: лимитер деградирует в пропускающий, логин остается доступным.
	rateLimiter := initRateLimiter(ctx, cfg, baseLogger)

	// RabbitMQ для аналитики. Аналитика best-effort: без брокера события
	// просто не публикуются.
	publisher, closeBroker := initAnalytics(cfg, baseLogger, metricsInstance)
	defer closeBroker()

	tokens := token.NewManager(cfg.Session.Secret, tokenTTL)
	hasher := password.NewBcryptHasher(0)

	auditRepo := repo.NewAuditRepository(pg.Pool)
	rideRepo := repo.NewRideRepository(pg.Pool)
	ticketRepo := repo.NewTicketRepository(pg.Pool)
	userRepo := repo.NewAdminUserRepository(pg.Pool)

	auditService := service.NewAuditService(auditRepo, baseLogger, metricsInstance)
	rideService := service.NewRideService(rideRepo, ticketRepo, auditService, publisher, baseLogger, location)
	ticketService := service.NewTicketService(ticketRepo, rideRepo, publisher, baseLogger, metricsInstance, location)
	authService := service.NewAuthService(userRepo, tokens, auditService, hasher, rateLimiter,
		cfg.RateLimiting.LoginAttemptsPerMinute, baseLogger)

	httpHandler := handler.NewHTTPHandler(baseLogger, authService, rideService, ticketService, auditService,
		middleware.RequireSession(tokens, cfg.Session.CookieName), cfg.Session.CookieName, tokenTTL)

	checker := health.NewChecker(serviceVersion)
	checker.Register("postgres", pg.HealthCheck)

	mux := http.NewServeMux()
	httpHandler.RegisterRoutes(mux)
	mux.HandleFunc("/healthz", health.Handler(checker))
	mux.Handle("/metrics", metricsInstance.GetHandler())

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: metricsInstance.Middleware(mux),
	}

	errCh := make(chan error, 1)
	go func() {
		baseLogger.Info("HTTP server listening", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	baseLogger.Info("Shutdown signal received, stopping server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	baseLogger.Info("Server stopped")
	return nil
}

// initRateLimiter подключает Redis для ограничения частоты логинов
func initRateLimiter(ctx context.Context, cfg *config.Config, baseLogger logger.Logger) ratelimit.RateLimiter {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConn,
		MaxRetries:   cfg.Redis.MaxRetries,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		baseLogger.Warn("Redis unavailable, login rate limiting disabled", logger.Error(err))
		return ratelimit.AllowAll{}
	}

	baseLogger.Info("Redis connection established", logger.String("addr", cfg.Redis.Addr))
	return ratelimit.NewRedisRateLimiter(client)
}

// initAnalytics подключает RabbitMQ для публикации аналитических событий
func initAnalytics(cfg *config.Config, baseLogger logger.Logger, m *metrics.Metrics) (analytics.Publisher, func()) {
	brokerConfig := rabbitmq.NewConfig()
	brokerConfig.URL = cfg.RabbitMQ.URL
	brokerConfig.Exchange = cfg.RabbitMQ.Exchange
	brokerConfig.RoutingKey = cfg.RabbitMQ.RoutingKey

	conn, err := rabbitmq.Connect(brokerConfig)
	if err != nil {
		baseLogger.Warn("RabbitMQ unavailable, analytics publishing disabled", logger.Error(err))
		return analytics.NoopPublisher{}, func() {}
	}

	baseLogger.Info("RabbitMQ connection established", logger.String("exchange", cfg.RabbitMQ.Exchange))
	producer := rabbitmq.NewProducer(conn, brokerConfig)
	return analytics.NewRabbitMQPublisher(producer, baseLogger, m), func() { _ = conn.Close() }
}
