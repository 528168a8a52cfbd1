package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/floorops/floorops-backend/api/controllers"
	"github.com/floorops/floorops-backend/api/middleware"
	"github.com/floorops/floorops-backend/internal/auth"
	"github.com/floorops/floorops-backend/internal/floor"
	"github.com/floorops/floorops-backend/internal/merge"
	"github.com/floorops/floorops-backend/internal/orders"
	"github.com/floorops/floorops-backend/internal/reservations"
	"github.com/floorops/floorops-backend/internal/sessions"
	"github.com/floorops/floorops-backend/pkg/config"
	"github.com/floorops/floorops-backend/pkg/logger"
	"github.com/floorops/floorops-backend/pkg/redis"
)

// Dependencies carries every service and client the router wires into
// its handlers.
type Dependencies struct {
	Config       *config.Config
	Logger       *logger.Logger
	Redis        *redis.Client
	DBPinger     controllers.Pinger
	Auth         auth.Service
	Floor        floor.Service
	Merge        merge.Service
	Sessions     sessions.Service
	Orders       orders.Service
	Reservations reservations.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DBPinger,
			"redis": deps.Redis,
		}))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/login", controllers.AuthLogin(deps.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(
			middleware.Auth(cfg.JWT, logg),
			middleware.Idempotency(deps.Redis, logg),
		)

		r.Route("/tables", func(r chi.Router) {
			r.Get("/", controllers.TablesList(deps.Floor, logg))
			r.Get("/{tableID}", controllers.TableGet(deps.Floor, logg))
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", controllers.SessionsListActive(deps.Sessions, logg))
			r.Post("/", controllers.SessionOpen(deps.Sessions, logg))
			r.Get("/{sessionID}", controllers.SessionGet(deps.Sessions, logg))
			r.Post("/{sessionID}/close", controllers.SessionClose(deps.Sessions, logg))
			r.Get("/{sessionID}/orders", controllers.OrdersForSession(deps.Orders, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderAdd(deps.Orders, logg))
			r.Post("/{orderID}/settle", controllers.OrderSettle(deps.Orders, logg))
		})

		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", controllers.ReservationsUpcoming(deps.Reservations, logg))
			r.Post("/", controllers.ReservationCreate(deps.Reservations, logg))
			r.Post("/{reservationID}/check-in", controllers.ReservationCheckIn(deps.Reservations, logg))
			r.Post("/{reservationID}/cancel", controllers.ReservationCancel(deps.Reservations, logg))
		})

		r.Route("/merges", func(r chi.Router) {
			r.Get("/candidates", controllers.MergeCandidates(deps.Merge, logg))
			r.Post("/classify", controllers.MergeClassify(deps.Merge, logg))
			r.Get("/history", controllers.MergeHistory(deps.Merge, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireMergeRole(logg))
				r.Post("/execute", controllers.MergeExecute(deps.Merge, logg))
				r.Post("/unmerge", controllers.MergeUnmerge(deps.Merge, logg))
			})
		})
	})

	return r
}
