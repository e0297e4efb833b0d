package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cardvault-rest-api/internal/cache"
	"cardvault-rest-api/internal/config"
	"cardvault-rest-api/internal/handler"
	"cardvault-rest-api/internal/images"
	"cardvault-rest-api/internal/middleware"
	"cardvault-rest-api/internal/repository"
	"cardvault-rest-api/internal/router"
	"cardvault-rest-api/internal/service"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting CardVault API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize card repository based on config
	var cardRepo repository.CardRepository
	switch cfg.CatalogDB.Type {
	case "mongodb", "mongo":
		mongoRepo, err := repository.NewMongoDBCardRepository(
			cfg.CatalogDB.MongoURI,
			cfg.CatalogDB.MongoDatabase,
			cfg.CatalogDB.MongoCollection,
		)
		if err != nil {
			log.Fatalf("Failed to initialize MongoDB: %v", err)
		}
		cardRepo = mongoRepo
		log.Println("MongoDB card repository initialized")
	case "postgres", "postgresql":
		pgRepo, err := repository.NewPostgresCardRepository(cfg.CatalogDB.PostgresDSN())
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		cardRepo = pgRepo
		log.Println("PostgreSQL card repository initialized")
	case "mysql":
		myRepo, err := repository.NewMySQLCardRepository(cfg.CatalogDB.MySQLDSN())
		if err != nil {
			log.Fatalf("Failed to initialize MySQL: %v", err)
		}
		cardRepo = myRepo
		log.Println("MySQL card repository initialized")
	case "memory":
		cardRepo = repository.NewMemoryCardRepository()
		log.Println("In-memory card repository initialized (data is not persisted)")
	default: // sqlite
		sqliteRepo, err := repository.NewSQLiteCardRepository(cfg.CatalogDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		cardRepo = sqliteRepo
		log.Println("SQLite card repository initialized")
	}
	defer cardRepo.Close()

	// Initialize cache (stats caching); Redis failures fall back to memory
	var statsCache cache.Cache
	cacheType := cfg.Cache.Type
	if cacheType == "redis" {
		redisCache, err := cache.NewRedisCache(cache.RedisCacheConfig{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			log.Printf("Warning: Redis connection failed, using memory cache: %v", err)
			cacheType = "memory"
		} else {
			defer redisCache.Close()
			statsCache = redisCache
			log.Println("Redis cache initialized")
		}
	}
	if statsCache == nil {
		memCache := cache.NewMemoryCache()
		defer memCache.Close()
		statsCache = memCache
		log.Println("Memory cache initialized")
	}

	// Image resolver with fallback directories
	resolver := images.NewResolver(cfg.Images.Dir)
	if root := resolver.Root(); root != "" {
		log.Printf("Serving card images from %s", root)
	} else {
		log.Println("No image directory found, cards will have no thumbnails")
	}

	// Initialize services
	catalogService := service.NewCatalogService(cardRepo, statsCache, resolver, cfg.Cache.TTL)

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Version)
	cardHandler := handler.NewCardHandler(catalogService)
	adminHandler := handler.NewAdminHandler(cardRepo, cfg.CatalogDB.Type, cacheType)

	// Create router
	r := router.New(router.Config{
		Handler:      healthHandler,
		CardHandler:  cardHandler,
		AdminHandler: adminHandler,
		AdminKey:     middleware.NewAdminKeyMiddleware(cfg.App.LoginKey),
		ImagesRoot:   resolver.Root(),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
