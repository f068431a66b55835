package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"cad-care-tracker/internal/adapters/auth/jwtauth"
	"cad-care-tracker/internal/adapters/auth/sessionsvc"
	"cad-care-tracker/internal/adapters/catalog/drugref"
	"cad-care-tracker/internal/platform/logger"
	"cad-care-tracker/internal/ports/auth"
	"cad-care-tracker/internal/ports/catalogsource"
	"cad-care-tracker/internal/router"

	"github.com/joho/godotenv"
)

// @title CAD Care Tracker API
// @version 1.0
// @description Backend de seguimiento para pacientes con enfermedad arterial coronaria.
// @BasePath /
func main() {
	// .env es opcional; en prod las vars vienen del entorno
	_ = godotenv.Load()

	log := logger.NewFromEnv()

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	verifier := buildVerifier(log)

	handler, services := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		Logger:       log,
	})

	seedCatalog(services, log)

	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info("starting server", map[string]any{"addr": addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

// buildVerifier elige el verificador de sesiones según env:
// - SESSION_BASE_URL + SESSION_API_KEY: delega al proveedor de sesiones
// - AUTH_JWT_SECRET: verifica JWT HS256 localmente
// - nada: modo dev (header X-Debug-User-ID)
func buildVerifier(log logger.Logger) auth.AuthVerifier {
	if baseURL := os.Getenv("SESSION_BASE_URL"); baseURL != "" {
		client, err := sessionsvc.NewClient(sessionsvc.Config{
			BaseURL: baseURL,
			APIKey:  os.Getenv("SESSION_API_KEY"),
			Timeout: 5 * time.Second,
		})
		if err != nil {
			log.Error("session service client init failed", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		log.Info("auth: session service verifier", map[string]any{"base_url": baseURL})
		return sessionsvc.NewVerifier(client)
	}

	if secret := os.Getenv("AUTH_JWT_SECRET"); secret != "" {
		v, err := jwtauth.NewVerifier(secret)
		if err != nil {
			log.Error("jwt verifier init failed", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		log.Info("auth: local jwt verifier", nil)
		return v
	}

	log.Warn("auth: dev mode, requests authenticate via X-Debug-User-ID", nil)
	return nil
}

// seedCatalog importa el catálogo de medicamentos desde drugref si está
// configurado. Si falla no abortamos: el repo puede tener data previa
// (postgres) o el seed de dev (memory).
func seedCatalog(services router.Services, log logger.Logger) {
	baseURL := os.Getenv("DRUGREF_BASE_URL")
	if baseURL == "" {
		return
	}

	client, err := drugref.NewClient(drugref.Config{
		BaseURL: baseURL,
		APIKey:  os.Getenv("DRUGREF_API_KEY"),
		Timeout: 10 * time.Second,
	})
	if err != nil {
		log.Error("drugref client init failed", map[string]any{"error": err.Error()})
		return
	}

	var source catalogsource.Source = client

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	entries, err := source.FetchMedicines(ctx)
	if err != nil {
		log.Error("drugref fetch failed", map[string]any{"error": err.Error()})
		return
	}

	n, err := services.Catalog.Import(ctx, entries)
	if err != nil {
		log.Error("catalog import failed", map[string]any{"error": err.Error()})
		return
	}
	log.Info("catalog imported from drugref", map[string]any{"medicines": n})
}
