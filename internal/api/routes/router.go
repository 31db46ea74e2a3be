package routes

import (
	"net/http"

	"github.com/savelydental/Savely/internal/api/handlers"
	"github.com/savelydental/Savely/internal/api/middleware"
	"github.com/savelydental/Savely/internal/application/services"
	"github.com/savelydental/Savely/internal/infrastructure/observability"
	"github.com/savelydental/Savely/internal/web"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	view           *handlers.View
	landingHandler *handlers.LandingHandler
	searchHandler  *handlers.SearchHandler
	compareHandler *handlers.CompareHandler
	clinicHandler  *handlers.ClinicHandler
	authHandler    *handlers.AuthHandler

	sessionState   *services.SessionState
	sessionCookie  middleware.SessionCookie
	allowedOrigins []string

	metrics        *observability.Metrics
	metricsHandler http.Handler
}

// Options carries the cross-cutting settings of the router
type Options struct {
	SessionCookie  middleware.SessionCookie
	AllowedOrigins []string
	Metrics        *observability.Metrics
	// MetricsHandler serves /metrics; nil leaves the route unregistered
	MetricsHandler http.Handler
}

// NewRouter creates a new router
func NewRouter(
	view *handlers.View,
	landingHandler *handlers.LandingHandler,
	searchHandler *handlers.SearchHandler,
	compareHandler *handlers.CompareHandler,
	clinicHandler *handlers.ClinicHandler,
	authHandler *handlers.AuthHandler,
	sessionState *services.SessionState,
	opts Options,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		view:           view,
		landingHandler: landingHandler,
		searchHandler:  searchHandler,
		compareHandler: compareHandler,
		clinicHandler:  clinicHandler,
		authHandler:    authHandler,

		sessionState:   sessionState,
		sessionCookie:  opts.SessionCookie,
		allowedOrigins: opts.AllowedOrigins,

		metrics:        opts.Metrics,
		metricsHandler: opts.MetricsHandler,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Probes and assets
	r.mux.HandleFunc("GET /health", handlers.Health)
	if r.metricsHandler != nil {
		r.mux.Handle("GET /metrics", r.metricsHandler)
	}
	r.mux.Handle("GET /static/", web.StaticHandler())

	// Landing
	r.mux.HandleFunc("GET /{$}", r.landingHandler.Show)

	// Search view and comparison selection
	r.mux.HandleFunc("GET /buscar", r.searchHandler.Show)
	r.mux.HandleFunc("POST /buscar", r.searchHandler.Update)
	r.mux.HandleFunc("POST /buscar/comparar", r.searchHandler.Compare)

	// Comparison and clinic detail
	r.mux.HandleFunc("GET /comparar", r.compareHandler.Show)
	r.mux.HandleFunc("GET /clinica/{id}", r.clinicHandler.Show)

	// Auth
	r.mux.HandleFunc("GET /auth", r.authHandler.Page)
	r.mux.HandleFunc("POST /auth/login", r.authHandler.Login)
	r.mux.HandleFunc("POST /auth/register", r.authHandler.Register)
	r.mux.HandleFunc("POST /auth/logout", r.authHandler.Logout)
	r.mux.HandleFunc("GET /auth/google", r.authHandler.Google)
	r.mux.HandleFunc("GET /auth/callback", r.authHandler.Callback)
	r.mux.HandleFunc("POST /auth/session", r.authHandler.Session)
	r.mux.HandleFunc("GET /perfil", r.authHandler.Profile)

	r.mux.HandleFunc("/", r.view.NotFoundRoute)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = middleware.RecordRoute(r.mux)
	handler = middleware.SessionMiddleware(r.sessionState, r.sessionCookie)(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// Logging sees the final status, including 304s
	handler = middleware.LoggingMiddleware(handler)

	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
