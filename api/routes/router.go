package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/wealthguardian-backend/api/controllers"
	webhookcontrollers "github.com/angelmondragon/wealthguardian-backend/api/controllers/webhooks"
	"github.com/angelmondragon/wealthguardian-backend/api/middleware"
	"github.com/angelmondragon/wealthguardian-backend/internal/auth"
	"github.com/angelmondragon/wealthguardian-backend/internal/payments"
	"github.com/angelmondragon/wealthguardian-backend/internal/transfers"
	"github.com/angelmondragon/wealthguardian-backend/internal/wallets"
	"github.com/angelmondragon/wealthguardian-backend/pkg/auth/session"
	"github.com/angelmondragon/wealthguardian-backend/pkg/config"
	"github.com/angelmondragon/wealthguardian-backend/pkg/db"
	"github.com/angelmondragon/wealthguardian-backend/pkg/logger"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Store is the redis surface the HTTP layer relies on for rate limits,
// idempotent replays and readiness.
type Store interface {
	Get(context.Context, string) (string, error)
	Set(context.Context, string, any, time.Duration) error
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	Del(context.Context, ...string) error
	IdempotencyKey(scope, id string) string
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope string) string
	Ping(context.Context) error
}

// Services bundles the domain services mounted on the router.
type Services struct {
	Auth            auth.Service
	Register        auth.RegisterService
	Users           controllers.ProfileReader
	Wallets         wallets.Service
	Payments        payments.Service
	Transfers       transfers.Service
	Webhook         webhookcontrollers.RazorpayWebhookService
	WebhookVerifier webhookcontrollers.WebhookVerifier
	WebhookGuard    webhookcontrollers.RazorpayWebhookGuard
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	store Store,
	metricsHandler http.Handler,
	sessionManager sessionManager,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Recoverer(logg),
		middleware.CORS(cfg.App.CORSOrigins),
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

	depositPolicy := middleware.NewWalletRateLimitPolicy(
		"deposit",
		cfg.WalletLimits.DepositWindow,
		cfg.WalletLimits.DepositLimit,
	)
	transferPolicy := middleware.NewWalletRateLimitPolicy(
		"transfer",
		cfg.WalletLimits.TransferWindow,
		cfg.WalletLimits.TransferLimit,
	)

	readiness := map[string]controllers.Pinger{}
	if dbP != nil {
		readiness["db"] = dbP
	}
	if store != nil {
		readiness["redis"] = store
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/razorpay", webhookcontrollers.RazorpayWebhook(svcs.Webhook, svcs.WebhookVerifier, svcs.WebhookGuard, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.RateLimit(loginPolicy, store, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.With(middleware.RateLimit(registerPolicy, store, logg)).Post("/register", controllers.AuthRegister(svcs.Register, logg))
		r.Post("/logout", controllers.AuthLogout(sessionManager, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessionManager, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
		r.Use(middleware.Idempotency(store, logg))

		r.Get("/users/me", controllers.UsersMe(svcs.Users, logg))

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", controllers.WalletGet(svcs.Wallets, logg))
			r.Get("/transactions", controllers.WalletTransactions(svcs.Wallets, logg))
			r.Get("/stats", controllers.WalletStats(svcs.Wallets, logg))
			r.With(middleware.RateLimit(depositPolicy, store, logg)).Post("/deposit", controllers.WalletDeposit(svcs.Payments, logg))
			r.Post("/verify-payment", controllers.WalletVerifyPayment(svcs.Payments, logg))
			r.With(middleware.RateLimit(transferPolicy, store, logg)).Post("/transfer", controllers.WalletTransfer(svcs.Transfers, logg))
		})
	})

	return r
}
