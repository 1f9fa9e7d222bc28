package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/handler"
	"storefront-backend/internal/ratelimit"
	"storefront-backend/internal/repositories"
	"storefront-backend/internal/service"
	"storefront-backend/pkg/database"
	"storefront-backend/pkg/envconfig"
	"storefront-backend/pkg/logger"
)

func main() {
	envErr := envconfig.LoadEnvFile(".env")

	appLogger := logger.New(logger.Config{
		Level:       envconfig.GetLogLevel(),
		Format:      envconfig.GetEnv("LOG_FORMAT", "json"),
		Output:      envconfig.GetEnv("LOG_OUTPUT", "stdout"),
		Environment: envconfig.GetEnv("ENVIRONMENT", "development"),
	})

	if envErr != nil {
		appLogger.Warn("Failed to load .env file", "error", envErr)
	}

	appLogger.Info("Starting storefront backend",
		"environment", envconfig.GetEnv("ENVIRONMENT", "development"))

	if envconfig.GetEnv("ENVIRONMENT", "development") != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Mongo URI precedence: public URL first, then internal, then local
	mongoURI := envconfig.GetEnv("MONGO_PUBLIC_URL", "")
	if mongoURI == "" {
		mongoURI = envconfig.GetEnv("MONGO_URL", "mongodb://localhost:27017")
	}

	db, err := database.NewConnection(database.Config{
		URI:            mongoURI,
		Database:       envconfig.GetEnv("MONGO_DB", "storefront"),
		ConnectTimeout: envconfig.GetDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
	}, appLogger)
	if err != nil {
		appLogger.Error("Failed to establish database connection", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(ctx); err != nil {
			appLogger.Error("Failed to close database connection", "error", err)
		}
	}()

	limitConfig := ratelimit.Config{
		Limit:  envconfig.GetInt("ORDER_RATE_LIMIT", ratelimit.DefaultConfig().Limit),
		Window: envconfig.GetDuration("ORDER_RATE_WINDOW", ratelimit.DefaultConfig().Window),
	}

	var limiter ratelimit.Limiter
	var redisLimiter *ratelimit.RedisLimiter
	if redisURL := envconfig.GetEnv("REDIS_URL", ""); redisURL != "" {
		redisLimiter, err = ratelimit.NewRedisLimiter(limitConfig, redisURL, appLogger)
		if err != nil {
			appLogger.Error("Failed to connect rate limiter to Redis, falling back to in-memory", "error", err)
			limiter = ratelimit.NewMemoryLimiter(limitConfig)
		} else {
			limiter = redisLimiter
			defer redisLimiter.Close()
		}
	} else {
		appLogger.Warn("REDIS_URL not set, rate limits are per-instance only")
		limiter = ratelimit.NewMemoryLimiter(limitConfig)
	}

	jwtSecret := envconfig.GetEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		appLogger.Warn("JWT_SECRET not set, using insecure default")
		jwtSecret = "SECRET"
	}

	userRepo := repositories.NewUserRepository(appLogger, db)
	productRepo := repositories.NewProductRepository(appLogger, db)
	orderRepo := repositories.NewOrderRepository(appLogger, db)
	seqRepo := repositories.NewSequenceRepository(appLogger, db)

	authService := service.NewAuthService(userRepo, seqRepo, []byte(jwtSecret), appLogger)
	productService := service.NewProductService(productRepo, seqRepo, appLogger)
	orderService := service.NewOrderService(orderRepo, productRepo, seqRepo, db, appLogger)

	authHandler := handler.NewAuthHandler(authService, appLogger)
	productHandler := handler.NewProductHandler(productService, appLogger)
	orderHandler := handler.NewOrderHandler(orderService, appLogger)

	corsOrigins := strings.Split(envconfig.GetEnv("CORS_ORIGINS", "http://localhost:3000"), ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}

	router := handler.NewRouter(authHandler, productHandler, orderHandler, authService, limiter, handler.RouterConfig{
		CORSOrigins: corsOrigins,
		AdminToken:  envconfig.GetEnv("ADMIN_TOKEN", ""),
		Health: func(ctx context.Context) (bool, gin.H) {
			detail := gin.H{"mongo": "ok", "redis": "ok"}
			healthy := true
			if err := db.HealthCheck(ctx); err != nil {
				detail["mongo"] = err.Error()
				healthy = false
			}
			if redisLimiter != nil {
				if err := redisLimiter.HealthCheck(ctx); err != nil {
					detail["redis"] = err.Error()
					healthy = false
				}
			} else {
				detail["redis"] = "disabled"
			}
			return healthy, detail
		},
	}, appLogger)

	addr := envconfig.GetEnv("HOST", "") + ":" + envconfig.GetEnv("PORT", "8080")

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		appLogger.Info("Starting HTTP server", "address", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		appLogger.Error("Server error", "error", err)
		os.Exit(1)
	case sig := <-shutdown:
		appLogger.Info("Shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			appLogger.Error("Graceful shutdown failed, forcing close", "error", err)
			server.Close()
		}
		appLogger.Info("Server stopped")
	}
}
