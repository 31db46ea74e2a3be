package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/savelydental/Savely/internal/adapters/cache"
	"github.com/savelydental/Savely/internal/adapters/session"
	"github.com/savelydental/Savely/internal/api/handlers"
	"github.com/savelydental/Savely/internal/api/middleware"
	"github.com/savelydental/Savely/internal/api/routes"
	"github.com/savelydental/Savely/internal/application/services"
	"github.com/savelydental/Savely/internal/domain/providers"
	"github.com/savelydental/Savely/internal/infrastructure/clients/denticompare"
	"github.com/savelydental/Savely/internal/infrastructure/clients/redis"
	"github.com/savelydental/Savely/internal/infrastructure/observability"
	"github.com/savelydental/Savely/internal/web"
	"github.com/savelydental/Savely/pkg/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env, cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry tracing")
		} else {
			defer shutdownWithTimeout("tracing", shutdown)
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry tracing initialized")
		}
	}

	// Metrics
	var metricsHandler http.Handler
	if cfg.OTEL.MetricsEnabled {
		pushEndpoint := ""
		if cfg.OTEL.Enabled {
			pushEndpoint = cfg.OTEL.Endpoint
		}
		handler, shutdown, err := observability.SetupMetrics(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, pushEndpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up metrics exporter")
		} else {
			metricsHandler = handler
			defer shutdownWithTimeout("metrics", shutdown)
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// Cache: Redis when reachable, in-process otherwise
	cacheProvider := newCacheProvider(ctx, cfg)
	if closer, ok := cacheProvider.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	// API client
	api := denticompare.NewClient(cfg.API.BaseURL, cfg.API.Timeout, metrics)
	if cfg.API.SeedOnStart {
		summary, err := api.Seed(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("seeding the API failed")
		} else {
			log.Info().
				Int("treatments", summary.Treatments).
				Int("clinics", summary.Clinics).
				Int("clinic_treatments", summary.ClinicTreatments).
				Msg("API seeded")
		}
	}

	// Services
	sessionState := services.NewSessionState(session.NewCacheStore(cacheProvider), cfg.Session.TTL)
	searchService := services.NewSearchService(api, services.NewFetchGuard(), metrics)
	compareService := services.NewCompareService(api)
	clinicService := services.NewClinicService(api)
	authService := services.NewAuthService(api, sessionState, cacheProvider, services.AuthConfig{
		ProviderURL: cfg.Auth.ProviderURL,
		PublicURL:   cfg.Server.PublicURL,
		ExchangeTTL: cfg.Auth.ExchangeTTL,
	}, metrics)

	// Handlers
	renderer, err := web.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	view := handlers.NewView(renderer, sessionState)

	router := routes.NewRouter(
		view,
		handlers.NewLandingHandler(view, searchService),
		handlers.NewSearchHandler(view, searchService, cfg.Search.PersistAllFilters),
		handlers.NewCompareHandler(view, compareService),
		handlers.NewClinicHandler(view, clinicService),
		handlers.NewAuthHandler(view, authService),
		sessionState,
		routes.Options{
			SessionCookie: middleware.SessionCookie{
				Name:   cfg.Session.CookieName,
				Secure: cfg.Session.CookieSecure,
			},
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Metrics:        metrics,
			MetricsHandler: metricsHandler,
		},
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", serverAddr).Str("api", cfg.API.BaseURL).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error during server shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// closingCache ties the Redis connection lifetime to the cache adapter
type closingCache struct {
	providers.CacheProvider
	client *redis.Client
}

func (c closingCache) Close() error {
	return c.client.Close()
}

func newCacheProvider(ctx context.Context, cfg *config.Config) providers.CacheProvider {
	if !cfg.Redis.Enabled {
		log.Info().Msg("Redis disabled; sessions are kept in memory")
		return cache.NewMemoryAdapter()
	}

	client, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.RedisAddr()).Msg("Redis unavailable; sessions are kept in memory")
		return cache.NewMemoryAdapter()
	}
	log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis client initialized")
	return closingCache{
		CacheProvider: cache.NewRedisAdapter(client, "savely:"),
		client:        client,
	}
}

func shutdownWithTimeout(name string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Error().Err(err).Str("component", name).Msg("shutdown failed")
	}
}
