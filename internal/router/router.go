package router

import (
	"net/http"

	"kart-checkout/internal/handler"
	"kart-checkout/internal/middleware"
	"kart-checkout/internal/ratelimit"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Config holds the credentials and optional collaborators the router needs.
type Config struct {
	JWTSecret   string
	AdminAPIKey string
	// PaymentKeyID is the public gateway key returned to the checkout widget.
	PaymentKeyID string
	// VerifyLimiter throttles payment verification when set.
	VerifyLimiter ratelimit.Limiter
}

// New creates a new HTTP router with all routes and middleware configured.
func New(
	productHandler *handler.ProductHandler,
	orderHandler *handler.OrderHandler,
	cfg Config,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Applied in order: RequestID -> Recovery -> Logging -> CORS
	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", productHandler.GetAll)
		r.Get("/products/{id}", productHandler.GetByID)
		r.Get("/config/payment-key", handler.PaymentKey(cfg.PaymentKeyID))

		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(cfg.JWTSecret, logger))

			r.Post("/orders", orderHandler.Create)
			r.Get("/orders/mine", orderHandler.ListMine)
			r.Get("/orders/{id}", orderHandler.GetByID)

			r.Group(func(r chi.Router) {
				if cfg.VerifyLimiter != nil {
					r.Use(middleware.RateLimit(cfg.VerifyLimiter, logger))
				}
				r.Post("/orders/verify", orderHandler.Verify)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(cfg.AdminAPIKey, logger))
			r.Get("/admin/orders", orderHandler.List)
		})
	})

	return r
}
