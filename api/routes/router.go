package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmreyes/milasset-backend/api/controllers"
	"github.com/dmreyes/milasset-backend/api/middleware"
	"github.com/dmreyes/milasset-backend/internal/assets"
	"github.com/dmreyes/milasset-backend/internal/assignments"
	"github.com/dmreyes/milasset-backend/internal/audit"
	"github.com/dmreyes/milasset-backend/internal/auth"
	"github.com/dmreyes/milasset-backend/internal/bases"
	"github.com/dmreyes/milasset-backend/internal/dashboard"
	"github.com/dmreyes/milasset-backend/internal/expenditures"
	"github.com/dmreyes/milasset-backend/internal/purchases"
	"github.com/dmreyes/milasset-backend/internal/transfers"
	"github.com/dmreyes/milasset-backend/internal/users"
	"github.com/dmreyes/milasset-backend/pkg/auth/session"
	"github.com/dmreyes/milasset-backend/pkg/config"
	"github.com/dmreyes/milasset-backend/pkg/db"
	"github.com/dmreyes/milasset-backend/pkg/logger"
	"github.com/dmreyes/milasset-backend/pkg/metrics"
	"github.com/dmreyes/milasset-backend/pkg/redis"
)

// Services bundles the domain services behind the HTTP layer.
type Services struct {
	Auth         auth.Service
	Bases        *bases.Service
	Users        *users.Service
	Assets       *assets.Service
	Purchases    *purchases.Service
	Transfers    *transfers.Service
	Assignments  *assignments.Service
	Expenditures *expenditures.Service
	Audit        *audit.Service
	Dashboard    *dashboard.Service
}

// NewRouter assembles the full route tree with its middleware stack.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionVerifier session.AccessSessionChecker,
	svcs Services,
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

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(svcs.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionVerifier, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/bases", func(r chi.Router) {
			r.Get("/", controllers.BaseList(svcs.Bases, logg))
			r.Post("/", controllers.BaseCreate(svcs.Bases, logg))
			r.Get("/{baseId}", controllers.BaseGet(svcs.Bases, logg))
			r.Patch("/{baseId}", controllers.BaseUpdate(svcs.Bases, logg))
			r.Delete("/{baseId}", controllers.BaseDelete(svcs.Bases, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.UserList(svcs.Users, logg))
			r.Post("/", controllers.UserCreate(svcs.Users, logg))
			r.Get("/{userId}", controllers.UserGet(svcs.Users, logg))
			r.Patch("/{userId}", controllers.UserUpdate(svcs.Users, logg))
			r.Delete("/{userId}", controllers.UserDelete(svcs.Users, logg))
		})

		r.Route("/assets", func(r chi.Router) {
			r.Get("/", controllers.AssetList(svcs.Assets, logg))
			r.Post("/", controllers.AssetCreate(svcs.Assets, logg))
			r.Get("/{assetId}", controllers.AssetGet(svcs.Assets, logg))
			r.Patch("/{assetId}", controllers.AssetUpdate(svcs.Assets, logg))
			r.Delete("/{assetId}", controllers.AssetDelete(svcs.Assets, logg))
		})

		r.Route("/purchases", func(r chi.Router) {
			r.Get("/", controllers.PurchaseList(svcs.Purchases, logg))
			r.Post("/", controllers.PurchaseCreate(svcs.Purchases, logg))
			r.Get("/{purchaseId}", controllers.PurchaseGet(svcs.Purchases, logg))
			r.Patch("/{purchaseId}", controllers.PurchaseUpdate(svcs.Purchases, logg))
		})

		r.Route("/transfers", func(r chi.Router) {
			r.Get("/", controllers.TransferList(svcs.Transfers, logg))
			r.Post("/", controllers.TransferCreate(svcs.Transfers, logg))
			r.Get("/{transferId}", controllers.TransferGet(svcs.Transfers, logg))
			r.Post("/{transferId}/approve", controllers.TransferApprove(svcs.Transfers, logg))
			r.Post("/{transferId}/complete", controllers.TransferComplete(svcs.Transfers, logg))
			r.Post("/{transferId}/cancel", controllers.TransferCancel(svcs.Transfers, logg))
		})

		r.Route("/assignments", func(r chi.Router) {
			r.Get("/", controllers.AssignmentList(svcs.Assignments, logg))
			r.Post("/", controllers.AssignmentCreate(svcs.Assignments, logg))
			r.Get("/{assignmentId}", controllers.AssignmentGet(svcs.Assignments, logg))
			r.Post("/{assignmentId}/return", controllers.AssignmentReturn(svcs.Assignments, logg))
		})

		r.Route("/expenditures", func(r chi.Router) {
			r.Get("/", controllers.ExpenditureList(svcs.Expenditures, logg))
			r.Post("/", controllers.ExpenditureCreate(svcs.Expenditures, logg))
			r.Get("/{expenditureId}", controllers.ExpenditureGet(svcs.Expenditures, logg))
		})

		r.With(middleware.RequireAdmin(logg)).Get("/audit-log", controllers.AuditList(svcs.Audit, logg))

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/summary", controllers.DashboardSummary(svcs.Dashboard, logg))
			r.Get("/net-movement", controllers.DashboardNetMovement(svcs.Dashboard, logg))
			r.Get("/activity", controllers.DashboardActivity(svcs.Dashboard, logg))
		})
	})

	return r
}
