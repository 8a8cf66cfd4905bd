package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	_ "github.com/redmonkez12/neuroscreen/docs" // Swagger docs (generated)
	"github.com/redmonkez12/neuroscreen/internal/auth"
	"github.com/redmonkez12/neuroscreen/internal/config"
	"github.com/redmonkez12/neuroscreen/internal/database"
	"github.com/redmonkez12/neuroscreen/internal/email"
	httpServer "github.com/redmonkez12/neuroscreen/internal/http"
	"github.com/redmonkez12/neuroscreen/internal/logging"
	"github.com/redmonkez12/neuroscreen/internal/ratelimit"
	"github.com/redmonkez12/neuroscreen/internal/screening"
	"github.com/redmonkez12/neuroscreen/internal/storage"
	"github.com/redmonkez12/neuroscreen/internal/user"
)

// @title           NeuroScreen API
// @version         1.0
// @description     REST API for participant accounts and neurological screening uploads.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// Initialize database connection
	db, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// Initialize Redis connection
	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Initialize object storage
	objectStore, err := storage.NewObjectStore(context.Background(), cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}

	// Initialize repositories
	userRepo := user.NewRepository(db)
	screeningRepo := screening.NewRepository(db)

	// Initialize rate limiter
	rateLimiter := ratelimit.NewLimiter(redisClient)

	// Initialize token service
	tokenService, err := initTokenService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	// Initialize email service
	emailService := email.NewService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FrontendURL,
	)

	// Initialize auth service
	authService := auth.NewService(
		userRepo,
		tokenService,
		emailService,
		logger,
		cfg.Auth.SessionDuration,
	)

	// Initialize HTTP handlers
	authHandler := auth.NewHandler(
		authService,
		rateLimiter,
		logger,
		!cfg.Server.IsDevelopment(), // isProduction
		cfg.Auth.SessionDuration,
	)
	authMiddleware := auth.NewMiddleware(tokenService)
	screeningHandler := screening.NewHandler(objectStore, screeningRepo, logger)

	// Initialize router
	router := httpServer.NewRouter(cfg, authHandler, authMiddleware, screeningHandler, logger)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initDB initializes the database connection, runs pending migrations
// and returns a Bun DB instance
func initDB(cfg config.DatabaseConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if cfg.MigrationsPath != "" {
		if err := database.Migrate(sqlDB, cfg.MigrationsPath); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return database.NewBunDB(sqlDB), nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}

// initTokenService picks the session token backend from configuration
func initTokenService(cfg config.AuthConfig) (auth.TokenService, error) {
	switch cfg.TokenBackend {
	case "paseto":
		return auth.NewPasetoService(cfg.PasetoKey)
	case "jwt":
		return auth.NewJWTService(cfg.SigningSecret)
	default:
		return nil, fmt.Errorf("unknown token backend: %q", cfg.TokenBackend)
	}
}
