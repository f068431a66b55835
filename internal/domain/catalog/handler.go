package catalog

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"cad-care-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/medicines", func(mr chi.Router) {
		mr.Get("/", listMedicinesHandler(svc))
		mr.Post("/", createMedicineHandler(svc))
		mr.Get("/{medicineID}", getMedicineHandler(svc))
	})
}

type createMedicineRequest struct {
	Name          string  `json:"name"`
	Dose          float64 `json:"dose"`
	DoseUnit      string  `json:"dose_unit" enums:"mg,mcg,g,ml,IU,mEq"`
	ClinicalNotes string  `json:"clinical_notes"`
}

// medicineResponse representa una entrada del catálogo devuelta por la API.
type medicineResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Dose          float64   `json:"dose"`
	DoseUnit      string    `json:"dose_unit"`
	ClinicalNotes string    `json:"clinical_notes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// listMedicinesHandler godoc
// @Summary Listar catálogo de medicamentos
// @Description Devuelve el catálogo completo de medicamentos prescribibles. Se usa como snapshot al abrir una sesión de edición de schedules.
// @Tags medicines
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {array} medicineResponse
// @Failure 401 {string} string "unauthorized"
// @Router /medicines [get]
func listMedicinesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.Snapshot(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]medicineResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toMedicineResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func createMedicineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createMedicineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		e, err := svc.Create(r.Context(), CreateInput{
			Name:          req.Name,
			Dose:          req.Dose,
			DoseUnit:      req.DoseUnit,
			ClinicalNotes: req.ClinicalNotes,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toMedicineResponse(e))
	}
}

func getMedicineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		e, err := svc.GetByID(r.Context(), chi.URLParam(r, "medicineID"))
		if err != nil {
			http.Error(w, "medicine not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, toMedicineResponse(e))
	}
}

func toMedicineResponse(e Entry) medicineResponse {
	return medicineResponse{
		ID:            e.ID,
		Name:          e.Name,
		Dose:          e.Dose,
		DoseUnit:      string(e.DoseUnit),
		ClinicalNotes: e.ClinicalNotes,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// writeJSON duplicado a propósito por módulo (misma convención que el resto
// de handlers) para no crear helpers compartidos prematuros.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
