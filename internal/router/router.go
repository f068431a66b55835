package router

import (
	"database/sql"
	"net/http"
	"os"
	"time"

	_ "cad-care-tracker/docs"
	mem "cad-care-tracker/internal/adapters/storage/memory"
	pg "cad-care-tracker/internal/adapters/storage/postgres"
	"cad-care-tracker/internal/domain/caregivers"
	"cad-care-tracker/internal/domain/catalog"
	"cad-care-tracker/internal/domain/exercises"
	"cad-care-tracker/internal/domain/patients"
	"cad-care-tracker/internal/domain/symptoms"
	"cad-care-tracker/internal/domain/vitals"
	"cad-care-tracker/internal/middleware"
	"cad-care-tracker/internal/platform/logger"
	"cad-care-tracker/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Logger logger.Logger // puede ser nil
}

// Services expone los services armados por NewRouter, para que main pueda
// correr tareas de arranque (ej. importar el catálogo desde drugref).
type Services struct {
	Catalog *catalog.Service
}

func NewRouter(opts Options) (http.Handler, Services) {
	r := chi.NewRouter()

	log := opts.Logger
	if log == nil {
		log = logger.NewFromEnv()
	}

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	var (
		catalogRepo  catalog.Repository
		patientsRepo patients.Repository
		vitalsRepo   vitals.Repository
		symptomsRepo symptoms.Repository
		grantsRepo   caregivers.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			} else {
				log.Error("postgres open failed, falling back to memory", map[string]any{"error": err.Error()})
			}
		}
	}

	if db != nil {
		catalogRepo = pg.NewCatalogRepo(db)
		patientsRepo = pg.NewPatientsRepo(db)
		vitalsRepo = pg.NewVitalsRepo(db)
		symptomsRepo = pg.NewSymptomsRepo(db)
		grantsRepo = pg.NewCaregiversRepo(db)
	} else {
		catalogRepo = mem.NewSeededCatalogRepo(time.Now())
		patientsRepo = mem.NewPatientRepo()
		vitalsRepo = mem.NewVitalsRepo()
		symptomsRepo = mem.NewSymptomsRepo()
		grantsRepo = mem.NewCaregiversRepo()
	}

	// La biblioteca de ejercicios es contenido curado, siempre seeded
	exercisesRepo := mem.NewSeededExercisesRepo(time.Now())

	// Services por módulo
	catalogSvc := catalog.NewService(catalogRepo)
	patientsSvc := patients.NewService(patientsRepo, catalogSvc)
	vitalsSvc := vitals.NewService(vitalsRepo)
	symptomsSvc := symptoms.NewService(symptomsRepo)
	grantsSvc := caregivers.NewService(grantsRepo)
	exercisesSvc := exercises.NewService(exercisesRepo)

	// Rutas por módulo
	catalog.RegisterRoutes(r, catalogSvc)
	patients.RegisterRoutes(r, patientsSvc, grantsSvc, log)
	vitals.RegisterRoutes(r, vitalsSvc, patientsSvc, grantsSvc)
	symptoms.RegisterRoutes(r, symptomsSvc, patientsSvc, grantsSvc)
	caregivers.RegisterRoutes(r, grantsSvc, patientsSvc)
	exercises.RegisterRoutes(r, exercisesSvc)

	return r, Services{Catalog: catalogSvc}
}
