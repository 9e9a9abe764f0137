package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tripmap/internal/cache"
	"tripmap/internal/config"
	"tripmap/internal/geometry"
	"tripmap/internal/handler"
	"tripmap/internal/hub"
	"tripmap/internal/middleware"
	"tripmap/internal/observability"
	"tripmap/internal/planner"
	"tripmap/internal/store"
	"tripmap/pkg/tripapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting tripmap server",
		"log_level", cfg.LogLevel.String(),
		"http_addr", cfg.HTTPAddr,
		"planner_api_url", cfg.PlannerAPIURL,
		"redis_enabled", cfg.RedisEnabled,
	)

	styles, err := geometry.LoadStyles(cfg.MarkerStylesFile)
	if err != nil {
		logger.Error("failed to load marker styles", "path", cfg.MarkerStylesFile, "error", err)
		os.Exit(1)
	}

	builder := geometry.NewBuilder(styles, cfg.ViewportWidth, cfg.ViewportHeight)
	tripStore := store.New()
	wsHub := hub.NewHub(logger)
	apiClient := tripapi.New(cfg.PlannerAPIURL, cfg.PlannerTimeout)

	// Leave the interface nil when Redis is off so the planner skips caching.
	var sharedCache planner.Cache
	if cfg.RedisEnabled {
		redisCache, err := cache.NewRedisCache(cache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			ViewTTL:  cfg.CacheTTL,
			TripTTL:  cfg.TripTTL,
		}, logger)
		if err != nil {
			logger.Warn("redis unavailable, continuing without cache", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer redisCache.Close()
			sharedCache = redisCache
			logger.Info("redis cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
		}
	}

	svc := planner.New(apiClient, tripStore, builder, sharedCache, wsHub, planner.Options{
		HealthInterval: cfg.HealthInterval,
		TripTTL:        cfg.TripTTL,
	}, logger)

	tripHandler := handler.NewTripHandler(svc, logger)
	polylineHandler := handler.NewPolylineHandler(logger)
	wsHandler := handler.NewWSHandler(wsHub, svc, logger)
	healthHandler := handler.NewHealthHandler(svc, tripStore)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/trips", tripHandler.CreateTrip)
	mux.HandleFunc("GET /v1/trips", tripHandler.ListTrips)
	mux.HandleFunc("GET /v1/trips/{id}", tripHandler.GetTrip)
	mux.HandleFunc("PUT /v1/trips/{id}", tripHandler.ReplanTrip)
	mux.HandleFunc("DELETE /v1/trips/{id}", tripHandler.DeleteTrip)
	mux.HandleFunc("GET /v1/trips/{id}/map", tripHandler.GetTripMap)
	mux.HandleFunc("GET /v1/trips/{id}/geojson", tripHandler.GetTripGeoJSON)
	mux.HandleFunc("GET /v1/trips/{id}/itinerary", tripHandler.GetTripItinerary)
	mux.HandleFunc("POST /v1/map/render", tripHandler.RenderMap)

	mux.HandleFunc("POST /v1/polyline/decode", polylineHandler.Decode)
	mux.HandleFunc("POST /v1/polyline/encode", polylineHandler.Encode)

	mux.HandleFunc("GET /healthz", healthHandler.Healthz)
	mux.HandleFunc("GET /readyz", healthHandler.Readyz)
	mux.Handle("GET /metrics", observability.Handler())

	// The websocket upgrade needs the raw ResponseWriter, so it bypasses gzip.
	root := http.NewServeMux()
	root.HandleFunc("/v1/ws", wsHandler.ServeWS)
	root.Handle("/", handler.GzipMiddleware(mux))

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerWindow, cfg.RateLimitWindow, cfg.RateLimitWhitelist, logger)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.CORSMiddleware(limiter.Middleware(root)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go wsHub.Run(ctx)
	go svc.Run(ctx)
	go limiter.Run(ctx)

	go func() {
		logger.Info("starting HTTP server", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
