package main // Entry point package

import (
	"log"      // Logging library
	"net/http" // HTTP client for the media uploader

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/user-account-service/internal/config"     // Internal config loader
	"github.com/iliyamo/user-account-service/internal/database"   // MySQL connection helper
	"github.com/iliyamo/user-account-service/internal/handler"    // HTTP handlers
	"github.com/iliyamo/user-account-service/internal/media"      // External media host client
	"github.com/iliyamo/user-account-service/internal/queue"      // Signup event consumer
	"github.com/iliyamo/user-account-service/internal/repository" // Credential store
	"github.com/iliyamo/user-account-service/internal/router"     // Route registration
	"github.com/iliyamo/user-account-service/internal/session"    // Session lifecycle core
	"github.com/iliyamo/user-account-service/internal/token"      // JWT issuer
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: a nil client disables rate limiting and caching.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and response cache disabled")
	}

	users := repository.NewUserRepo(db, cfg.BcryptCost)
	issuer := token.NewIssuer(token.Config{
		AccessSecret:  cfg.AccessSecret,
		AccessExpiry:  cfg.AccessExpiry,
		RefreshSecret: cfg.RefreshSecret,
		RefreshExpiry: cfg.RefreshExpiry,
	})
	uploader := media.NewHTTPUploader(cfg.MediaUploadURL, cfg.MediaAPIKey,
		&http.Client{Timeout: cfg.MediaTimeout})
	sessions := session.NewManager(users, issuer, uploader)

	authHandler := handler.NewAuthHandler(cfg, sessions)
	userHandler := handler.NewUserHandler(sessions)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, issuer, users, rdb)
	router.RegisterUsers(e, userHandler, cfg, issuer, users)
	router.RegisterPublic(e, userHandler, rdb)

	// Consume user.registered events in the background; the consumer owns
	// its own reconnect loop and never takes the server down.
	go func() {
		if err := queue.StartSignupConsumer(); err != nil {
			log.Printf("signup consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
