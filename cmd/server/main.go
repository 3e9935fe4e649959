package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roadmaptracker/internal/config"
	"roadmaptracker/internal/database"
	"roadmaptracker/internal/handlers"
	"roadmaptracker/internal/logging"
	"roadmaptracker/internal/middleware"
	"roadmaptracker/internal/preflight"
	"roadmaptracker/internal/services"
	"roadmaptracker/pkg/auth"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	cfg := config.Load()
	logging.Init(cfg.IsProduction())
	log.Printf("🚀 Starting Roadmaps Server (Port: %s, Environment: %s)", cfg.Port, cfg.Environment)

	ctx := context.Background()

	// Stores: MongoDB, or process memory in development
	var (
		mongoDB      *database.MongoDB
		roadmapStore services.RoadmapStore
		legacyStore  services.LegacyCategoryStore
		userStore    services.UserStore
	)
	if cfg.MongoURI != "" {
		log.Println("🔗 Connecting to MongoDB...")
		var err error
		mongoDB, err = database.NewMongoDB(ctx, cfg.MongoURI)
		if err != nil {
			log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
		}
		if err := mongoDB.Initialize(ctx); err != nil {
			log.Fatalf("❌ Failed to initialize MongoDB: %v", err)
		}
		roadmapStore = services.NewMongoRoadmapStore(mongoDB)
		legacyStore = services.NewMongoLegacyCategoryStore(mongoDB)
		userStore = services.NewMongoUserStore(mongoDB)
	} else {
		if !cfg.AllowsDevFallbacks() {
			log.Fatal("❌ MONGODB_URI is required outside development")
		}
		log.Println("⚠️  MONGODB_URI not set - using in-memory store (data is lost on restart)")
		roadmapStore = services.NewMemoryRoadmapStore()
		legacyStore = services.NewMemoryLegacyCategoryStore()
		userStore = services.NewMemoryUserStore()
	}

	// Redis (optional - token revocation on sign-out)
	var redisService *services.RedisService
	if cfg.RedisURL != "" {
		var err error
		redisService, err = services.NewRedisService(ctx, cfg.RedisURL)
		if err != nil {
			if cfg.IsProduction() {
				log.Fatalf("❌ Failed to connect to Redis: %v", err)
			}
			log.Printf("⚠️  Failed to connect to Redis: %v (sign-out revocation disabled)", err)
		}
	} else {
		log.Println("⚠️  REDIS_URL not set - sign-out revocation disabled, tokens only expire")
	}

	// JWT auth
	var jwtAuth *auth.LocalJWTAuth
	if cfg.JWTSecret != "" {
		var err error
		jwtAuth, err = auth.NewLocalJWTAuth(cfg.JWTSecret, cfg.AccessTokenExpiry)
		if err != nil {
			log.Fatalf("❌ Failed to initialize JWT auth: %v", err)
		}
		log.Printf("🔐 JWT auth enabled (token lifetime: %s)", cfg.AccessTokenExpiry)
	} else if cfg.IsProduction() {
		log.Fatal("❌ CRITICAL SECURITY ERROR: JWT_SECRET is required in production")
	} else {
		log.Printf("⚠️  JWT_SECRET not set - every request acts as %s", middleware.DevUserEmail)
	}

	// Services
	metrics := services.NewMetrics(prometheus.DefaultRegisterer)
	userService := services.NewUserService(userStore, cfg.ProfileCacheTTL)
	roadmapService := services.NewRoadmapService(roadmapStore, legacyStore, userService, metrics, logging.NewServiceLogger(cfg.IsProduction()))
	exportService := services.NewExportService(roadmapService)

	// Interfaces stay nil when Redis is not configured
	var (
		revocations              middleware.TokenRevocationChecker
		revoker                  handlers.TokenRevoker
		mongoPinger, redisPinger preflight.Pinger
	)
	checks := map[string]handlers.Pinger{"mongodb": nil, "redis": nil}
	if mongoDB != nil {
		mongoPinger = mongoDB
		checks["mongodb"] = mongoDB
	}
	if redisService != nil {
		revocations = redisService
		revoker = redisService
		redisPinger = redisService
		checks["redis"] = redisService
	}

	results := preflight.NewChecker(cfg, mongoPinger, redisPinger).RunAll(ctx)
	if preflight.HasFailures(results) {
		log.Fatal("❌ Pre-flight checks failed, refusing to start")
	}

	app := fiber.New(fiber.Config{
		AppName:      "Roadmaps v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prom := fiberprometheus.New("roadmaps")
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: cfg.AllowedOrigins != "*",
	}))
	log.Printf("🔒 [SECURITY] CORS allowed origins: %s", cfg.AllowedOrigins)

	app.Get("/health", handlers.NewHealthHandler(checks).Handle)

	authHandler := handlers.NewLocalAuthHandler(jwtAuth, userService, revoker, metrics, cfg.ProviderSecret)
	if cfg.ProviderSecret == "" {
		log.Println("⚠️  PROVIDER_SECRET not set - /api/auth/signin is disabled")
	}

	api := app.Group("/api")
	api.Post("/auth/signin", authHandler.SignIn)

	protected := api.Group("", middleware.LocalAuthMiddleware(jwtAuth, revocations))
	protected.Post("/auth/signout", authHandler.SignOut)
	protected.Get("/auth/me", authHandler.Me)
	handlers.NewRoadmapHandler(roadmapService, exportService).Register(protected)
	handlers.NewBucketHandler(roadmapService).Register(protected)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if mongoDB != nil {
		if err := mongoDB.Close(shutdownCtx); err != nil {
			log.Printf("⚠️ Error closing MongoDB: %v", err)
		}
	}
	if redisService != nil {
		if err := redisService.Close(); err != nil {
			log.Printf("⚠️ Error closing Redis: %v", err)
		}
	}
	log.Println("👋 Server stopped")
}
