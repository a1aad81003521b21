package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/earnpro/rewards-backend/api/controllers"
	"github.com/earnpro/rewards-backend/api/middleware"
	"github.com/earnpro/rewards-backend/internal/accounts"
	"github.com/earnpro/rewards-backend/internal/ads"
	"github.com/earnpro/rewards-backend/internal/auth"
	"github.com/earnpro/rewards-backend/internal/ledger"
	"github.com/earnpro/rewards-backend/internal/promos"
	"github.com/earnpro/rewards-backend/internal/settings"
	"github.com/earnpro/rewards-backend/internal/tasks"
	"github.com/earnpro/rewards-backend/internal/withdrawals"
	"github.com/earnpro/rewards-backend/pkg/auth/session"
	"github.com/earnpro/rewards-backend/pkg/config"
	"github.com/earnpro/rewards-backend/pkg/enums"
	"github.com/earnpro/rewards-backend/pkg/logger"
	pkgredis "github.com/earnpro/rewards-backend/pkg/redis"
)

// RedisStore is the slice of the Redis client the HTTP layer needs.
type RedisStore interface {
	pkgredis.IdempotencyStore
	middleware.RateLimiter
	controllers.Pinger
}

// Services bundles the domain services exposed over HTTP.
type Services struct {
	Accounts    accounts.Service
	Ledger      ledger.Service
	Promos      promos.Service
	Withdrawals withdrawals.Service
	Tasks       tasks.Service
	Ads         ads.Service
	Settings    settings.Service
	Auth        auth.Service
}

// Deps carries the infrastructure handles the router wires into middleware.
type Deps struct {
	DB       controllers.Pinger
	Redis    RedisStore
	Sessions session.SessionChecker
	Metrics  prometheus.Gatherer
	Outbox   controllers.OutboxInspector
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		chimiddleware.RealIP,
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	var store pkgredis.IdempotencyStore
	var limiter middleware.RateLimiter
	readiness := map[string]controllers.Pinger{"db": deps.DB}
	if deps.Redis != nil {
		store = deps.Redis
		limiter = deps.Redis
		readiness["redis"] = deps.Redis
	}
	idempotent := middleware.Idempotency(store, middleware.DefaultIdempotencyTTL, logg)

	claimLimit := middleware.RateLimit(limiter, middleware.RateLimitPolicy{
		Name:    "promo_claim",
		Limit:   cfg.RateLimit.ClaimLimit,
		Window:  cfg.RateLimit.ClaimWindow,
		Subject: middleware.AccountSubject,
	}, logg)
	loginLimit := middleware.RateLimit(limiter, middleware.RateLimitPolicy{
		Name:    "admin_login",
		Limit:   cfg.RateLimit.AdminLoginLimit,
		Window:  cfg.RateLimit.AdminLoginWindow,
		Subject: middleware.ClientIPSubject,
	}, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})

	gatherer := deps.Metrics
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.RequireRole(enums.RoleUser, logg))

		r.Get("/me", controllers.MeGet(svc.Accounts, logg))
		r.Put("/me", controllers.MeSync(svc.Accounts, logg))
		r.Get("/me/ledger", controllers.MeLedger(svc.Ledger, logg))

		r.Get("/tasks", controllers.TaskList(svc.Tasks, logg))
		r.Post("/tasks/{taskId}/complete", controllers.TaskComplete(svc.Tasks, logg))

		r.Post("/ads/watch", controllers.AdWatch(svc.Ads, logg))

		r.Route("/promos", func(r chi.Router) {
			r.With(claimLimit, idempotent).Post("/claim", controllers.PromoClaim(svc.Promos, logg))
			r.Get("/claims", controllers.PromoClaimHistory(svc.Promos, logg))
		})

		r.Route("/withdrawals", func(r chi.Router) {
			r.Get("/", controllers.WithdrawalList(svc.Withdrawals, logg))
			r.With(idempotent).Post("/", controllers.WithdrawalCreate(svc.Withdrawals, logg))
		})

		r.Get("/leaderboard", controllers.Leaderboard(svc.Accounts, cfg.Rewards.LeaderboardLimit, logg))
		r.Get("/settings", controllers.SettingsGet(svc.Settings, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.With(loginLimit).Post("/auth/login", controllers.AdminAuthLogin(svc.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.RequireRole(enums.RoleAdmin, logg))

			r.Post("/auth/logout", controllers.AdminAuthLogout(svc.Auth, logg))
			r.Get("/dashboard", controllers.AdminDashboard(svc.Accounts, nil, logg))

			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", controllers.AdminAccountList(svc.Accounts, logg))
				r.Get("/{accountId}", controllers.AdminAccountGet(svc.Accounts, logg))
				r.With(idempotent).Post("/{accountId}/adjust", controllers.AdminAccountAdjust(svc.Accounts, logg))
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", controllers.AdminTaskList(svc.Tasks, logg))
				r.Post("/", controllers.AdminTaskCreate(svc.Tasks, logg))
				r.Get("/{taskId}", controllers.AdminTaskGet(svc.Tasks, logg))
				r.Put("/{taskId}", controllers.AdminTaskUpdate(svc.Tasks, logg))
				r.Delete("/{taskId}", controllers.AdminTaskDelete(svc.Tasks, logg))
				r.Post("/{taskId}/increment", controllers.AdminTaskIncrement(svc.Tasks, logg))
			})

			r.Route("/promos", func(r chi.Router) {
				r.Get("/", controllers.AdminPromoList(svc.Promos, logg))
				r.Post("/", controllers.AdminPromoCreate(svc.Promos, logg))
				r.Delete("/{promoId}", controllers.AdminPromoDelete(svc.Promos, logg))
			})

			r.Route("/withdrawals", func(r chi.Router) {
				r.Get("/", controllers.AdminWithdrawalList(svc.Withdrawals, logg))
				r.Post("/{withdrawalId}/complete", controllers.AdminWithdrawalTransition(svc.Withdrawals, enums.WithdrawalStatusCompleted, logg))
				r.Post("/{withdrawalId}/reject", controllers.AdminWithdrawalTransition(svc.Withdrawals, enums.WithdrawalStatusRejected, logg))
			})

			r.Get("/settings", controllers.AdminSettingsGet(svc.Settings, logg))
			r.Put("/settings", controllers.AdminSettingsUpdate(svc.Settings, logg))

			r.Get("/outbox", controllers.AdminOutboxStatus(deps.Outbox, logg))
		})
	})

	return r
}
