package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xavierca1/whatsapp-notifier/internal/infra/http/handlers"
	"github.com/xavierca1/whatsapp-notifier/internal/infra/http/middleware"
)

type RouterConfig struct {
	Logger         *zap.Logger
	AllowedOrigins []string

	WhatsApp   *handlers.WhatsAppHandler
	Health     *handlers.HealthHandler
	Dispatches *handlers.DispatchHandler // nil when the journal is disabled
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	r.Post("/send-whatsapp", cfg.WhatsApp.Handle)

	if cfg.Health != nil {
		r.Get("/health", cfg.Health.Handle)
	}
	r.Handle("/metrics", promhttp.Handler())

	if cfg.Dispatches != nil {
		r.Get("/dispatches", cfg.Dispatches.HandleList)
		r.Get("/dispatches/{id}", cfg.Dispatches.HandleGet)
	}

	return r
}
