package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// RouterOptions configures the HTTP surface
type RouterOptions struct {
	// Metrics serves GET /metrics when set
	Metrics http.Handler
	// Instrument wraps every route, typically with request metrics
	Instrument func(http.Handler) http.Handler
	// AllowedOrigins defaults to every origin
	AllowedOrigins []string
}

// NewRouter builds the chi router for the sync API
func NewRouter(h *Handler, logger zerolog.Logger, opts RouterOptions) chi.Router {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	if opts.Instrument != nil {
		r.Use(opts.Instrument)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/installations", h.RecordInstallation)
		r.Post("/connections/token", h.StoreAccessToken)
		r.Post("/autosync/run", h.RunSweep)

		r.Route("/tenants/{tenantID}/shops/{shop}", func(r chi.Router) {
			r.Post("/orders/{orderNumber}/sync", h.SyncOrder)
			r.Get("/orders/{orderNumber}/sync", h.OrderSyncStatus)
			r.Post("/products/sync", h.SyncProduct)
			r.Get("/products", h.SearchProducts)
			r.Get("/connection", h.ConnectionStatus)
			r.Post("/connection", h.LinkShop)
			r.Post("/connection/auto-sync", h.ToggleAutoSync)
			r.Delete("/connection", h.Disconnect)
		})
	})

	return r
}

// requestLogger logs one line per request with the chi request id
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info().
				Str("requestId", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("HTTP request")
		})
	}
}
