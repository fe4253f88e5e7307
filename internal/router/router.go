package router

import (
	"database/sql"
	"net/http"
	"time"

	mem "medication-tracker/internal/adapters/storage/memory"
	pg "medication-tracker/internal/adapters/storage/postgres"
	"medication-tracker/internal/domain/calendar"
	"medication-tracker/internal/domain/catalog"
	"medication-tracker/internal/domain/medications"
	"medication-tracker/internal/domain/users"
	"medication-tracker/internal/middleware"
	"medication-tracker/internal/platform/logger"
	"medication-tracker/internal/ports/auth"

	_ "medication-tracker/internal/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Logger              logger.Logger
	Location            *time.Location
	AdherenceWindowDays int
	ExportDays          int

	// Now fija el reloj de los servicios (tests).
	Now func() time.Time
}

// Services agrupa los servicios de dominio; cmd/api los comparte entre el
// router y el scanner.
type Services struct {
	Users       *users.Service
	Catalog     *catalog.Service
	Medications *medications.Service
	Calendar    *calendar.Service
}

func NewServices(opts Options) *Services {
	var (
		userRepo    users.Repository
		catalogRepo catalog.Repository
		medRepo     medications.Repository
	)
	if opts.DB != nil {
		userRepo = pg.NewUsersRepo(opts.DB)
		catalogRepo = pg.NewCatalogRepo(opts.DB)
		medRepo = pg.NewMedicationsRepo(opts.DB)
	} else {
		userRepo = mem.NewUserRepo()
		catalogRepo = mem.NewCatalogRepo()
		medRepo = mem.NewMedicationRepo()
	}

	usersSvc := users.NewService(userRepo)
	catalogSvc := catalog.NewService(catalogRepo)
	medsSvc := medications.NewService(medRepo, usersSvc, catalogLookup{svc: catalogSvc}, medications.Options{
		Location:            opts.Location,
		AdherenceWindowDays: opts.AdherenceWindowDays,
		Logger:              opts.Logger,
		Now:                 opts.Now,
	})

	return &Services{
		Users:       usersSvc,
		Catalog:     catalogSvc,
		Medications: medsSvc,
		Calendar:    calendar.NewService(medsSvc, usersSvc, opts.ExportDays, opts.Logger),
	}
}

// NewRouter arma servicios propios; para compartirlos usar Mount.
func NewRouter(opts Options) http.Handler {
	return Mount(NewServices(opts), opts)
}

func Mount(svcs *Services, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Rutas por módulo
	users.RegisterRoutes(r, svcs.Users)
	catalog.RegisterRoutes(r, svcs.Catalog)
	medications.RegisterRoutes(r, svcs.Medications)
	calendar.RegisterRoutes(r, svcs.Calendar)

	return r
}
