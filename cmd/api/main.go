package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"marketplace-api/internal/auth"
	"marketplace-api/internal/config"
	"marketplace-api/internal/database"
	"marketplace-api/internal/email"
	httpServer "marketplace-api/internal/http"
	"marketplace-api/internal/listing"
	"marketplace-api/internal/logging"
	"marketplace-api/internal/ratelimit"
	"marketplace-api/internal/upload"
	"marketplace-api/internal/user"
)

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

	// Initialize database connection and apply pending migrations
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Initialize Redis connection (optional; rate limiting degrades to a
	// no-op without it)
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = initRedis(cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn("redis not configured, rate limiting disabled")
	}
	rateLimiter := ratelimit.NewLimiter(redisClient)

	// Initialize upload store
	uploads := upload.NewStore(cfg.Upload.Dir, logger)

	// Initialize repositories
	userRepo := user.NewRepository(db)
	listingRepo := listing.NewRepository(db)

	// Initialize PASETO service
	pasetoService, err := auth.NewPasetoService(cfg.Auth.PasetoKey)
	if err != nil {
		return fmt.Errorf("failed to initialize PASETO service: %w", err)
	}

	// Initialize mailer: SMTP when configured, otherwise a no-op
	var mailer email.Mailer
	if cfg.Email.Enabled() {
		mailer = email.NewSMTPMailer(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPassword,
		)
	} else {
		logger.Warn("smtp not configured, reset codes will only be logged")
		mailer = email.NewNoopMailer(logger)
	}

	// Initialize services
	authService := auth.NewService(
		userRepo,
		pasetoService,
		mailer,
		uploads,
		logger,
		cfg.Auth.TokenDuration,
		cfg.Auth.ResetCodeTTL,
		cfg.Upload.MaxAvatarBytes,
	)
	listingService := listing.NewService(listingRepo, uploads, logger, cfg.Upload.MaxListingBytes)

	// Initialize HTTP handlers
	authHandler := auth.NewHandler(authService, rateLimiter, uploads, logger)
	listingHandler := listing.NewHandler(listingService, logger)
	authMiddleware := auth.NewMiddleware(pasetoService)

	// Initialize router
	router := httpServer.NewRouter(cfg, authHandler, listingHandler, authMiddleware, logger)

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

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
