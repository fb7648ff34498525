package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"armory-gateway/internal/aggregate"
	"armory-gateway/internal/common/cache"
	"armory-gateway/internal/common/logging"
	"armory-gateway/internal/config"
	"armory-gateway/internal/handlers"
	"armory-gateway/internal/middleware"
	"armory-gateway/internal/server"
	"armory-gateway/internal/token"
	"armory-gateway/internal/upstream"
)

func main() {
	// A missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()

	logging.InitGlobalLogger()
	defer logging.MustSync()
	logger := logging.GetGlobalLogger()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	backend, err := newCacheBackend(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize cache backend: %v", err)
	}
	responseCache := cache.NewResponseCache(backend, cfg.CacheTTLDuration())

	broker := token.NewBroker(cfg.ClientID, cfg.ClientSecret, cfg.AuthURL, logger)
	client := upstream.NewClient(broker, responseCache, logger)
	endpoints := upstream.NewEndpoints(cfg.UpstreamAPIBase)
	aggregator := aggregate.New(client, endpoints, cfg.DefaultRegion, cfg.DefaultLocale, cfg.FanoutLimit(), logger)

	h := handlers.New(client, aggregator, endpoints, cfg)

	router := mux.NewRouter()
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.LoggingMiddleware)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/seasons", h.GetSeasons).Methods("GET")
	api.HandleFunc("/leaderboard", h.GetLeaderboard).Methods("GET")
	api.HandleFunc("/leaderboard_rift/{battletag}", h.GetRiftDetails).Methods("GET")
	api.HandleFunc("/item/{itemSlug}", h.GetItem).Methods("GET")
	api.HandleFunc("/item-types", h.GetItemTypes).Methods("GET")
	api.HandleFunc("/item-type/{itemType}", h.GetItemType).Methods("GET")
	api.HandleFunc("/account/{account}", h.GetAccountProfile).Methods("GET")
	api.HandleFunc("/account/{account}/achievements", h.GetAccountAchievements).Methods("GET")
	api.HandleFunc("/character/{account}", h.GetCharacter).Methods("GET")
	api.HandleFunc("/character/{account}/hero/{heroID}", h.GetHero).Methods("GET")
	api.HandleFunc("/character/{account}/hero/{heroID}/items", h.GetHeroItems).Methods("GET")
	api.HandleFunc("/character/{account}/hero/{heroID}/follower-items", h.GetFollowerItems).Methods("GET")
	api.HandleFunc("/acts", h.GetActs).Methods("GET")
	api.HandleFunc("/artisan/{artisanSlug}", h.GetArtisan).Methods("GET")
	api.HandleFunc("/hero-class/{classSlug}", h.GetHeroClass).Methods("GET")
	api.HandleFunc("/hero-class/{classSlug}/skill/{skillSlug}", h.GetSkill).Methods("GET")
	api.HandleFunc("/hero-class/{classSlug}/skills", h.GetClassSkills).Methods("GET")
	api.HandleFunc("/most_used_items", h.GetMostUsedItems).Methods("GET")

	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	srv := server.New(router, cfg.Port)
	errCh := srv.Start()
	logger.Info("Server started", logging.String("port", cfg.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("Server failed to start: %v", err)
	case sig := <-quit:
		logger.Info("Shutting down server", logging.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// newCacheBackend selects the cache backend from configuration.
func newCacheBackend(cfg *config.Config) (cache.Cache, error) {
	if cfg.CacheBackend == "redis" {
		db, err := strconv.Atoi(cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       db,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, err
		}
		return cache.NewRedisCache(client, "armory:"), nil
	}

	ttl := cfg.CacheTTLDuration()
	return cache.NewLocalCache(ttl, 2*ttl), nil
}
