package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/foodshare-backend/api/controllers"
	"github.com/angelmondragon/foodshare-backend/api/middleware"
	"github.com/angelmondragon/foodshare-backend/internal/auth"
	"github.com/angelmondragon/foodshare-backend/internal/listings"
	"github.com/angelmondragon/foodshare-backend/pkg/auth/session"
	"github.com/angelmondragon/foodshare-backend/pkg/config"
	"github.com/angelmondragon/foodshare-backend/pkg/db"
	"github.com/angelmondragon/foodshare-backend/pkg/logger"
	"github.com/angelmondragon/foodshare-backend/pkg/metrics"
	"github.com/angelmondragon/foodshare-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	database db.Pinger,
	sessions redis.Pinger,
	limiter *redis.Client,
	sessionManager sessionManager,
	registry *prometheus.Registry,
	httpMetrics *metrics.HTTPMetrics,
	authService auth.Service,
	registerService auth.RegisterService,
	listingService listings.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, database, sessions))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, limiter, logg)).Post("/register", controllers.AuthRegister(registerService, authService, logg))
		r.Post("/logout", controllers.AuthLogout(sessionManager, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessionManager, cfg.JWT, logg))
		r.With(middleware.Auth(cfg.JWT, sessionManager, logg)).Get("/verify", controllers.AuthVerify(logg))
	})

	r.Route("/api/v1/listings", func(r chi.Router) {
		// Browse surfaces stay public so anyone can see what food is on offer.
		r.Get("/", controllers.ListListings(listingService, logg))
		r.Get("/featured", controllers.FeaturedListings(listingService, logg))
		r.Get("/available", controllers.AvailableListings(listingService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))

			r.Get("/ping", controllers.PrivatePing())
			r.Post("/", controllers.CreateListing(listingService, logg))
			r.Get("/mine", controllers.MyListings(listingService, logg))
			r.Get("/requested", controllers.RequestedListings(listingService, logg))
			r.Put("/{id}", controllers.UpdateListing(listingService, logg))
			r.Patch("/{id}", controllers.ClaimListing(listingService, httpMetrics, logg))
			r.Delete("/{id}", controllers.DeleteListing(listingService, logg))
		})

		r.Get("/{id}", controllers.GetListing(listingService, logg))
	})

	return r
}
