package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/acesoft/ace-crm-site/internal/emailcheck"
	"github.com/acesoft/ace-crm-site/internal/http/handlers"
	httpmiddleware "github.com/acesoft/ace-crm-site/internal/http/middleware"
	"github.com/acesoft/ace-crm-site/internal/leads"
	"github.com/acesoft/ace-crm-site/internal/popup"
	"github.com/acesoft/ace-crm-site/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	HealthHandler      *handlers.HealthHandler
	LeadsHandler       *leads.Handler
	EmailProxy         *emailcheck.ProxyHandler
	PopupHandler       *popup.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// FormRateLimiter throttles form submissions and email proxy calls when set.
	FormRateLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowCredentials: true,
		}))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	health := cfg.HealthHandler
	if health == nil {
		health = handlers.NewHealthHandler(nil, cfg.Logger)
	}
	r.Get("/health", health.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if cfg.PopupHandler != nil {
		r.Handle("/ws/popup", cfg.PopupHandler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Group(func(limited chi.Router) {
			if cfg.FormRateLimiter != nil {
				limited.Use(httpmiddleware.RateLimit(cfg.FormRateLimiter))
			}
			if cfg.LeadsHandler != nil {
				limited.Post("/forms/{form}", cfg.LeadsHandler.SubmitForm)
			}
			if cfg.EmailProxy != nil {
				limited.Post("/proxy-validate-email", cfg.EmailProxy.ValidateEmail)
			}
		})
		if cfg.LeadsHandler != nil {
			api.Get("/session/marker", cfg.LeadsHandler.SessionMarker)
		}
	})

	return r
}
