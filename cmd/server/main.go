package main // Entry point package

import (
	"log"  // Logging library
	"time" // Duration arithmetic for token TTLs

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/online-cinema/internal/config"     // Internal config loader
	"github.com/iliyamo/online-cinema/internal/database"   // MySQL connection helper
	"github.com/iliyamo/online-cinema/internal/handler"    // HTTP handlers
	"github.com/iliyamo/online-cinema/internal/middleware" // Rate limiting and caching
	"github.com/iliyamo/online-cinema/internal/queue"      // RabbitMQ email publisher/consumer
	"github.com/iliyamo/online-cinema/internal/repository" // Data access layer
	"github.com/iliyamo/online-cinema/internal/router"     // Internal router setup
	"github.com/iliyamo/online-cinema/internal/service"    // Business logic
)

func main() {
	// Load variables from a .env file when present.  Real deployments set
	// the environment directly, so a missing file is not an error.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	// Open the MySQL pool and verify connectivity before serving traffic.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories over the shared pool.
	accounts := repository.NewAccountRepo(db)
	tokens := repository.NewTokenRepo(db)
	movies := repository.NewMovieRepo(db)
	carts := repository.NewCartRepo(db)
	purchases := repository.NewPurchaseRepo(db)

	// Outbound email events go through RabbitMQ; the consumer drains the
	// queue in the background and writes the rendered mails to logs/.
	notifier := queue.NewPublisher()
	go func() {
		if err := queue.StartEmailConsumer(); err != nil {
			log.Printf("email consumer stopped: %v", err)
		}
	}()

	// Services.
	identity := service.NewIdentityService(
		accounts, tokens, notifier, cfg.BcryptCost,
		time.Duration(cfg.ActivationTTLHours)*time.Hour,
		time.Duration(cfg.ResetTTLMin)*time.Minute,
	)
	sessions := service.NewSessionService(
		accounts, tokens, cfg.JWTSecret,
		time.Duration(cfg.AccessTTLMin)*time.Minute,
		time.Duration(cfg.RefreshTTLDays)*24*time.Hour,
	)
	guard := service.NewPurchaseGuard(purchases, carts, accounts, notifier)

	// Sweep expired tokens on a fixed cadence for the life of the process.
	sweeper := service.NewSweeper(tokens, time.Duration(cfg.SweepIntervalMin)*time.Minute)
	if err := sweeper.Start(); err != nil {
		log.Fatalf("sweeper: %v", err)
	}
	defer sweeper.Stop()

	e := echo.New() // Create Echo instance

	// Redis backs both the token-bucket rate limiter and the response cache.
	// A nil client disables both features instead of failing startup.
	var cache echo.MiddlewareFunc
	if rdb := config.NewRedisClient(); rdb != nil {
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
		cache = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	}

	// Register application routes.
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(identity, sessions), cfg.JWTSecret)
	router.RegisterCatalog(e, handler.NewMovieHandler(movies, guard), cfg.JWTSecret, cache)
	router.RegisterCart(e, handler.NewCartHandler(carts, movies, purchases, accounts, guard, notifier), cfg.JWTSecret)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
