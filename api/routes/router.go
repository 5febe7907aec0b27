package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/replaygames/replay-backend/api/controllers"
	"github.com/replaygames/replay-backend/api/middleware"
	"github.com/replaygames/replay-backend/internal/balances"
	"github.com/replaygames/replay-backend/internal/catalog"
	"github.com/replaygames/replay-backend/internal/deposits"
	"github.com/replaygames/replay-backend/internal/promos"
	"github.com/replaygames/replay-backend/internal/reports"
	"github.com/replaygames/replay-backend/internal/sales"
	"github.com/replaygames/replay-backend/internal/sessions"
	"github.com/replaygames/replay-backend/internal/users"
	"github.com/replaygames/replay-backend/pkg/config"
	"github.com/replaygames/replay-backend/pkg/enums"
	"github.com/replaygames/replay-backend/pkg/logger"
	pkgredis "github.com/replaygames/replay-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    *pkgredis.Client
	Metrics  prometheus.Gatherer
	Users    users.Service
	Sessions sessions.Service
	Deposits deposits.Service
	Sales    sales.Service
	Balances balances.Service
	Promos   promos.Service
	Catalog  catalog.Service
	Reports  reports.Service
}

const (
	roleAdmin   = string(enums.UserRoleAdmin)
	roleManager = string(enums.UserRoleManager)
	roleVendor  = string(enums.UserRoleVendor)
	roleBuyer   = string(enums.UserRoleBuyer)
)

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	// A nil *redis.Client must not end up behind a non-nil interface.
	var idemStore pkgredis.IdempotencyStore
	readiness := map[string]controllers.Pinger{}
	if deps.DB != nil {
		readiness["database"] = deps.DB
	}
	if deps.Redis != nil {
		idemStore = deps.Redis
		readiness["redis"] = deps.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.Idempotency(idemStore, logg)).Post("/register", controllers.Register(deps.Users, logg))
		r.Post("/login", controllers.Login(deps.Users, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Get("/me", controllers.Me(deps.Users, logg))

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", controllers.SessionList(deps.Sessions, logg))
			r.Get("/{sessionID}", controllers.SessionGet(deps.Sessions, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, roleAdmin, roleManager))
				r.Post("/", controllers.SessionCreate(deps.Sessions, logg))
				r.Patch("/{sessionID}", controllers.SessionUpdate(deps.Sessions, logg))
				r.Post("/{sessionID}/close", controllers.SessionClose(deps.Sessions, logg))
				r.Get("/{sessionID}/balances", controllers.BalanceListSession(deps.Balances, logg))
				r.Get("/{sessionID}/reports/daily", controllers.ReportSalesByDay(deps.Reports, logg))
				r.Get("/{sessionID}/reports/hourly", controllers.ReportSalesByHour(deps.Reports, logg))
				r.Get("/{sessionID}/reports/totals", controllers.ReportSessionTotals(deps.Reports, logg))
			})
		})

		r.Route("/deposits", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, roleAdmin, roleManager, roleVendor))
			r.Post("/", controllers.DepositCreate(deps.Deposits, logg))
			r.Get("/", controllers.DepositListMine(deps.Deposits, logg))
			r.Get("/{depositID}", controllers.DepositGet(deps.Deposits, logg))
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/", controllers.ItemList(deps.Deposits, logg))
			r.Get("/{itemID}", controllers.ItemGet(deps.Deposits, logg))
			r.Get("/{itemID}/purchase", controllers.PurchaseForItem(deps.Sales, logg))
			r.With(middleware.RequireRole(logg, roleAdmin, roleManager, roleVendor)).
				Post("/{itemID}/reclaim", controllers.ItemReclaim(deps.Deposits, logg))
		})

		r.Route("/sales", func(r chi.Router) {
			r.With(middleware.RequireRole(logg, roleAdmin, roleManager, roleBuyer)).
				Post("/", controllers.Sell(deps.Sales, logg))
			r.Get("/", controllers.PurchaseList(deps.Sales, logg))
		})

		r.Route("/balances", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, roleAdmin, roleManager))
			r.Get("/{vendorID}/{sessionID}", controllers.BalanceGet(deps.Balances, logg))
			r.Post("/{vendorID}/{sessionID}/settle", controllers.BalanceSettle(deps.Balances, logg))
		})

		r.Route("/promos", func(r chi.Router) {
			r.Get("/", controllers.PromoList(deps.Promos, logg))
			r.Get("/{label}", controllers.PromoGet(deps.Promos, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, roleAdmin, roleManager))
				r.Post("/", controllers.PromoCreate(deps.Promos, logg))
				r.Patch("/{label}", controllers.PromoUpdate(deps.Promos, logg))
				r.Delete("/{label}", controllers.PromoDelete(deps.Promos, logg))
			})
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/editors", controllers.EditorList(deps.Catalog, logg))
			r.Get("/editors/{editorID}", controllers.EditorGet(deps.Catalog, logg))
			r.Get("/titles", controllers.TitleList(deps.Catalog, logg))
			r.Get("/titles/{titleID}", controllers.TitleGet(deps.Catalog, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, roleAdmin, roleManager))
				r.Post("/editors", controllers.EditorCreate(deps.Catalog, logg))
				r.Post("/titles", controllers.TitleCreate(deps.Catalog, logg))
			})
		})
	})

	return r
}
