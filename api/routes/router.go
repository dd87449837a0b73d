package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/tierpay/api/controllers"
	webhookcontrollers "github.com/angelmondragon/tierpay/api/controllers/webhooks"
	"github.com/angelmondragon/tierpay/api/middleware"
	"github.com/angelmondragon/tierpay/internal/catalog"
	"github.com/angelmondragon/tierpay/internal/payments"
	"github.com/angelmondragon/tierpay/internal/sessions"
	stripewebhook "github.com/angelmondragon/tierpay/internal/webhooks/stripe"
	"github.com/angelmondragon/tierpay/pkg/config"
	"github.com/angelmondragon/tierpay/pkg/logger"
	"github.com/angelmondragon/tierpay/pkg/metrics"
	"github.com/angelmondragon/tierpay/pkg/redis"
	"github.com/angelmondragon/tierpay/pkg/stripe"
)

// RouterParams carries everything NewRouter wires together.
type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	RedisClient    *redis.Client
	StripeClient   *stripe.Client
	Catalog        catalog.Service
	Payments       payments.Service
	Sessions       sessions.Service
	WebhookService *stripewebhook.Service
	WebhookGuard   *stripewebhook.IdempotencyGuard
	Registry       *prometheus.Registry
	HTTPMetrics    *metrics.HTTPMetrics
}

func NewRouter(p RouterParams) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.HTTPMetrics),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		var redisP redis.Pinger
		if p.RedisClient != nil {
			redisP = p.RedisClient
		}
		r.Get("/ready", controllers.HealthReady(cfg, logg, redisP))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", controllers.Products(p.Catalog, logg))
		r.Get("/products/{productId}", controllers.Product(p.Catalog, logg))
		r.Get("/products/users/{userCount}", controllers.ProductByUserCount(p.Catalog, logg))

		r.Get("/config", controllers.StripeConfig(p.Payments, logg))
		r.Post("/create-payment-intent", controllers.CreatePaymentIntent(p.Payments, logg))
		r.Get("/payment-status/{paymentIntentId}", controllers.PaymentStatus(p.Payments, logg))
		r.Post("/confirm-payment/{paymentIntentId}", controllers.ConfirmPayment(p.Payments, logg))

		r.Post("/create-checkout-session", controllers.CreateCheckoutSession(p.Sessions, logg))
		r.Get("/checkout-session/{sessionId}", controllers.CheckoutSession(p.Sessions, logg))

		r.Route("/purchases/sessions", func(r chi.Router) {
			r.Get("/", controllers.PurchaseSessions(p.Sessions, logg))
			r.Get("/customer/{email}", controllers.PurchaseSessionsByCustomer(p.Sessions, logg))
			r.Get("/date-range", controllers.PurchaseSessionsByDateRange(p.Sessions, logg))
		})

		var guard webhookcontrollers.StripeWebhookGuard
		if p.WebhookGuard != nil {
			guard = p.WebhookGuard
		}
		var stripeClient webhookcontrollers.StripeSigningSecretProvider
		if p.StripeClient != nil {
			stripeClient = p.StripeClient
		}
		r.Post("/webhook", webhookcontrollers.StripeWebhook(p.WebhookService, stripeClient, guard, logg))
	})

	return r
}
