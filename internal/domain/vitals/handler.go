package vitals

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cad-care-tracker/internal/domain/caregivers"
	"cad-care-tracker/internal/domain/patients"
	"cad-care-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, patientsSvc *patients.Service, grantsSvc *caregivers.Service) {
	r.Route("/patients/{patientID}/vitals", func(vr chi.Router) {
		vr.Post("/", createVitalHandler(svc, patientsSvc, grantsSvc))
		vr.Get("/", listVitalsHandler(svc, patientsSvc, grantsSvc))
	})
}

// createVitalRequest es el cuerpo para registrar una medición.
type createVitalRequest struct {
	Type         VitalType    `json:"type" enums:"blood_pressure,blood_sugar,weight,height"`
	Systolic     int          `json:"systolic"`      // solo blood_pressure
	Diastolic    int          `json:"diastolic"`     // solo blood_pressure
	Value        float64      `json:"value"`         // resto de tipos
	Unit         string       `json:"unit"`          // opcional, default por tipo
	SugarContext SugarContext `json:"sugar_context"` // solo blood_sugar
	MeasuredAt   string       `json:"measured_at"`   // RFC3339
	Notes        string       `json:"notes"`
}

type vitalResponse struct {
	ID               string       `json:"id"`
	PatientID        string       `json:"patient_id"`
	Type             VitalType    `json:"type"`
	Systolic         int          `json:"systolic,omitempty"`
	Diastolic        int          `json:"diastolic,omitempty"`
	Value            float64      `json:"value,omitempty"`
	Unit             string       `json:"unit"`
	SugarContext     SugarContext `json:"sugar_context,omitempty"`
	MeasuredAt       time.Time    `json:"measured_at"`
	RecordedAt       time.Time    `json:"recorded_at"`
	RecordedByUserID string       `json:"recorded_by_user_id"`
	Notes            string       `json:"notes"`
}

// createVitalHandler godoc
// @Summary Registrar medición de signo vital
// @Description Registra una medición (presión, glucosa, peso o talla) para el paciente. El dueño siempre puede registrar. Un cuidador necesita un grant activo con scope `vitals:create`. Autenticación: `X-Debug-User-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags vitals
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param patientID path string true "ID del paciente"
// @Param payload body createVitalRequest true "Medición; measured_at en formato RFC3339"
// @Success 201 {object} vitalResponse
// @Failure 400 {string} string "invalid json / measured_at inválido / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "patient not found"
// @Router /patients/{patientID}/vitals [post]
func createVitalHandler(svc *Service, patientsSvc *patients.Service, grantsSvc *caregivers.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		patientID := chi.URLParam(r, "patientID")
		p, err := patientsSvc.GetByID(r.Context(), patientID)
		if err != nil {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}

		// Permisos:
		// - Owner: siempre permitido
		// - Cuidador: requiere grant activo con ScopeVitalsCreate
		if p.OwnerUserID != claims.UserID {
			g, err := grantsSvc.GetActiveGrant(r.Context(), patientID, claims.UserID)
			if err != nil || !caregivers.HasScope(g, caregivers.ScopeVitalsCreate) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
		}

		var req createVitalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		t, err := time.Parse(time.RFC3339, req.MeasuredAt)
		if err != nil {
			http.Error(w, "measured_at must be RFC3339", http.StatusBadRequest)
			return
		}

		rd, err := svc.Create(r.Context(), patientID, claims.UserID, CreateInput{
			Type:         req.Type,
			Systolic:     req.Systolic,
			Diastolic:    req.Diastolic,
			Value:        req.Value,
			Unit:         req.Unit,
			SugarContext: req.SugarContext,
			MeasuredAt:   t,
			Notes:        req.Notes,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toVitalResponse(rd))
	}
}

// listVitalsHandler godoc
// @Summary Listar mediciones de un paciente
// @Description Lista las mediciones del paciente. El dueño siempre puede verlas. Un cuidador necesita un grant activo con scope `vitals:read`. Permite filtrar por tipos y rango de fechas.
// @Tags vitals
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param patientID path string true "ID del paciente"
// @Param limit query int false "Máximo de mediciones a devolver (1-200). Por defecto 50"
// @Param types query string false "Lista CSV de tipos a incluir (ej: blood_pressure,blood_sugar)"
// @Param from query string false "Fecha/hora mínima measured_at (RFC3339)"
// @Param to query string false "Fecha/hora máxima measured_at (RFC3339)"
// @Success 200 {array} vitalResponse
// @Failure 400 {string} string "Parámetros de filtro inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "patient not found"
// @Failure 500 {string} string "internal error"
// @Router /patients/{patientID}/vitals [get]
func listVitalsHandler(svc *Service, patientsSvc *patients.Service, grantsSvc *caregivers.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		patientID := chi.URLParam(r, "patientID")
		p, err := patientsSvc.GetByID(r.Context(), patientID)
		if err != nil {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}

		if p.OwnerUserID != claims.UserID {
			g, err := grantsSvc.GetActiveGrant(r.Context(), patientID, claims.UserID)
			if err != nil || !caregivers.HasScope(g, caregivers.ScopeVitalsRead) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
		}

		filter, err := parseListFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := svc.ListByPatient(r.Context(), patientID, filter)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]vitalResponse, 0, len(items))
		for _, rd := range items {
			out = append(out, toVitalResponse(rd))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	filter := ListFilter{Limit: limit}

	// types=blood_pressure,weight
	if v := strings.TrimSpace(r.URL.Query().Get("types")); v != "" {
		parts := strings.Split(v, ",")
		out := make([]VitalType, 0, len(parts))
		for _, p := range parts {
			t := VitalType(strings.TrimSpace(p))
			if t == "" {
				continue
			}
			if !IsValidVitalType(t) {
				return ListFilter{}, errors.New("unknown vital type: " + string(t))
			}
			out = append(out, t)
		}
		if len(out) > 0 {
			filter.Types = out
		}
	}

	// from/to RFC3339
	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("from must be RFC3339")
		}
		filter.From = &t
	}
	if v := strings.TrimSpace(r.URL.Query().Get("to")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("to must be RFC3339")
		}
		filter.To = &t
	}

	return filter, nil
}

func toVitalResponse(rd Reading) vitalResponse {
	return vitalResponse{
		ID:               rd.ID,
		PatientID:        rd.PatientID,
		Type:             rd.Type,
		Systolic:         rd.Systolic,
		Diastolic:        rd.Diastolic,
		Value:            rd.Value,
		Unit:             rd.Unit,
		SugarContext:     rd.SugarContext,
		MeasuredAt:       rd.MeasuredAt,
		RecordedAt:       rd.RecordedAt,
		RecordedByUserID: rd.RecordedByUserID,
		Notes:            rd.Notes,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
