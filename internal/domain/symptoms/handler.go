package symptoms

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
	r.Route("/patients/{patientID}/symptoms", func(sr chi.Router) {
		sr.Post("/", createSymptomHandler(svc, patientsSvc, grantsSvc))
		sr.Get("/", listSymptomsHandler(svc, patientsSvc, grantsSvc))

		// Anular (void) un sintoma mal cargado (owner o cuidador con symptoms:void)
		sr.Post("/{symptomID}/void", voidSymptomHandler(svc, patientsSvc, grantsSvc))
	})
}

type createSymptomRequest struct {
	Name       string   `json:"name"`
	Severity   Severity `json:"severity" enums:"mild,moderate,severe"`
	OccurredAt string   `json:"occurred_at"` // RFC3339
	Notes      string   `json:"notes"`
}

type symptomResponse struct {
	ID               string     `json:"id"`
	PatientID        string     `json:"patient_id"`
	Name             string     `json:"name"`
	Severity         Severity   `json:"severity"`
	OccurredAt       time.Time  `json:"occurred_at"`
	RecordedAt       time.Time  `json:"recorded_at"`
	RecordedByUserID string     `json:"recorded_by_user_id"`
	Notes            string     `json:"notes"`
	Status           Status     `json:"status"`
	VoidedAt         *time.Time `json:"voided_at,omitempty"`
}

// createSymptomHandler godoc
// @Summary Reportar síntoma
// @Description Registra un síntoma del paciente. El dueño siempre puede reportar. Un cuidador necesita un grant activo con scope `symptoms:create`. Autenticación: `X-Debug-User-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags symptoms
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param patientID path string true "ID del paciente"
// @Param payload body createSymptomRequest true "Síntoma; occurred_at en formato RFC3339"
// @Success 201 {object} symptomResponse
// @Failure 400 {string} string "invalid json / occurred_at inválido / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "patient not found"
// @Router /patients/{patientID}/symptoms [post]
func createSymptomHandler(svc *Service, patientsSvc *patients.Service, grantsSvc *caregivers.Service) http.HandlerFunc {
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
		// - Cuidador: requiere grant activo con ScopeSymptomsCreate
		if p.OwnerUserID != claims.UserID {
			g, err := grantsSvc.GetActiveGrant(r.Context(), patientID, claims.UserID)
			if err != nil || !caregivers.HasScope(g, caregivers.ScopeSymptomsCreate) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
		}

		var req createSymptomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		t, err := time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			http.Error(w, "occurred_at must be RFC3339", http.StatusBadRequest)
			return
		}

		e, err := svc.Create(r.Context(), patientID, claims.UserID, CreateInput{
			Name:       req.Name,
			Severity:   req.Severity,
			OccurredAt: t,
			Notes:      req.Notes,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toSymptomResponse(e))
	}
}

// listSymptomsHandler godoc
// @Summary Listar síntomas de un paciente
// @Description Lista los síntomas reportados del paciente. El dueño siempre puede verlos. Un cuidador necesita un grant activo con scope `symptoms:read`. Por defecto excluye los anulados.
// @Tags symptoms
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param patientID path string true "ID del paciente"
// @Param limit query int false "Máximo de síntomas a devolver (1-200). Por defecto 50"
// @Param severities query string false "Lista CSV de severidades (ej: moderate,severe)"
// @Param from query string false "Fecha/hora mínima occurred_at (RFC3339)"
// @Param to query string false "Fecha/hora máxima occurred_at (RFC3339)"
// @Param q query string false "Texto de búsqueda libre en nombre/notas"
// @Param include_voided query bool false "Incluir síntomas anulados"
// @Success 200 {array} symptomResponse
// @Failure 400 {string} string "Parámetros de filtro inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "patient not found"
// @Failure 500 {string} string "internal error"
// @Router /patients/{patientID}/symptoms [get]
func listSymptomsHandler(svc *Service, patientsSvc *patients.Service, grantsSvc *caregivers.Service) http.HandlerFunc {
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
			if err != nil || !caregivers.HasScope(g, caregivers.ScopeSymptomsRead) {
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

		out := make([]symptomResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toSymptomResponse(e))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

// voidSymptomHandler godoc
// @Summary Anular (void) un síntoma
// @Description Anula un síntoma mal cargado. El registro se conserva con status voided. El dueño siempre puede anular. Un cuidador necesita un grant activo con scope `symptoms:void`.
// @Tags symptoms
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param patientID path string true "ID del paciente"
// @Param symptomID path string true "ID del síntoma"
// @Success 200 {object} symptomResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "symptom not found"
// @Failure 500 {string} string "internal error"
// @Router /patients/{patientID}/symptoms/{symptomID}/void [post]
func voidSymptomHandler(svc *Service, patientsSvc *patients.Service, grantsSvc *caregivers.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		patientID := chi.URLParam(r, "patientID")
		symptomID := chi.URLParam(r, "symptomID")

		p, err := patientsSvc.GetByID(r.Context(), patientID)
		if err != nil {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}

		// Permisos (primero, para no filtrar si existe el sintoma)
		if p.OwnerUserID != claims.UserID {
			g, err := grantsSvc.GetActiveGrant(r.Context(), patientID, claims.UserID)
			if err != nil || !caregivers.HasScope(g, caregivers.ScopeSymptomsVoid) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
		}

		// Sintoma existe y pertenece al paciente
		e, err := svc.GetByID(r.Context(), symptomID)
		if err != nil || strings.TrimSpace(e.ID) == "" || e.PatientID != patientID {
			http.Error(w, "symptom not found", http.StatusNotFound)
			return
		}

		updated, err := svc.Void(r.Context(), symptomID)
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "not found") {
				http.Error(w, "symptom not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toSymptomResponse(updated))
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

	// severities=moderate,severe
	if v := strings.TrimSpace(r.URL.Query().Get("severities")); v != "" {
		parts := strings.Split(v, ",")
		out := make([]Severity, 0, len(parts))
		for _, p := range parts {
			sv := Severity(strings.TrimSpace(p))
			if sv == "" {
				continue
			}
			if !IsValidSeverity(sv) {
				return ListFilter{}, errors.New("unknown severity: " + string(sv))
			}
			out = append(out, sv)
		}
		if len(out) > 0 {
			filter.Severities = out
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

	// q
	if v := strings.TrimSpace(r.URL.Query().Get("q")); v != "" {
		filter.Query = v
	}

	if v := strings.TrimSpace(r.URL.Query().Get("include_voided")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return ListFilter{}, errors.New("include_voided must be a boolean")
		}
		filter.IncludeVoided = b
	}

	return filter, nil
}

func toSymptomResponse(e Entry) symptomResponse {
	return symptomResponse{
		ID:               e.ID,
		PatientID:        e.PatientID,
		Name:             e.Name,
		Severity:         e.Severity,
		OccurredAt:       e.OccurredAt,
		RecordedAt:       e.RecordedAt,
		RecordedByUserID: e.RecordedByUserID,
		Notes:            e.Notes,
		Status:           e.Status,
		VoidedAt:         e.VoidedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
