package router

import (
	"database/sql"
	"net/http"

	mem "granjas-del-carmen/internal/adapters/storage/memory"
	pg "granjas-del-carmen/internal/adapters/storage/postgres"
	"granjas-del-carmen/internal/domain/animals"
	"granjas-del-carmen/internal/domain/events"
	"granjas-del-carmen/internal/domain/sales"
	"granjas-del-carmen/internal/domain/users"
	"granjas-del-carmen/internal/middleware"
	"granjas-del-carmen/internal/platform/metrics"
	"granjas-del-carmen/internal/ports/auth"

	"granjas-del-carmen/internal/adapters/auth/auth0"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "granjas-del-carmen/docs"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)
	Auth0Client  *auth0.Client     // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Logger  zerolog.Logger
	Metrics *metrics.Metrics

	AllowedOrigins []string
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(middleware.Metrics(m))

	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	r.Get("/swagger/*", httpSwagger.Handler())

	var (
		usersRepo   users.Repository
		animalsRepo animals.Repository
		salesRepo   sales.Repository
		eventsRepo  events.Repository
	)

	if opts.DB != nil {
		usersRepo = pg.NewUsersRepo(opts.DB)
		animalsRepo = pg.NewAnimalsRepo(opts.DB)
		salesRepo = pg.NewSalesRepo(opts.DB)
		eventsRepo = pg.NewEventsRepo(opts.DB)
	} else {
		memAnimals := mem.NewAnimalsRepo()
		usersRepo = mem.NewUsersRepo()
		animalsRepo = memAnimals
		salesRepo = mem.NewSalesRepo(memAnimals)
		eventsRepo = mem.NewEventsRepo()
	}

	// Services por módulo
	usersSvc := users.NewService(usersRepo)
	animalsSvc := animals.NewService(animalsRepo)
	salesSvc := sales.NewService(salesRepo, animalsRepo)
	eventsSvc := events.NewService(eventsRepo)

	// El rol sale de nuestra tabla users, no del token del IdP
	r.Group(func(api chi.Router) {
		api.Use(middleware.AuthContext(opts.AuthVerifier, usersSvc))

		api.Route("/api/v1", func(v1 chi.Router) {
			users.RegisterRoutes(v1, usersSvc)
			users.RegisterAuthRoutes(v1, usersSvc, opts.Auth0Client)
			animals.RegisterRoutes(v1, animalsSvc, events.NewSlaughterRecorder(eventsSvc))
			sales.RegisterRoutes(v1, salesSvc, m)
			events.RegisterRoutes(v1, eventsSvc, animalsSvc)
		})
	})

	return r
}
