package patients

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"cad-care-tracker/internal/domain/caregivers"
	"cad-care-tracker/internal/domain/schedule"
	"cad-care-tracker/internal/middleware"
	"cad-care-tracker/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, grantsSvc *caregivers.Service, log logger.Logger) {
	r.Route("/patients", func(pr chi.Router) {
		pr.Post("/", createPatientHandler(svc, log))
		pr.Get("/", listPatientsHandler(svc))

		// Ficha del paciente (owner o cuidador con patient:read)
		pr.Get("/{patientID}", getPatientHandler(svc, grantsSvc))

		// Actualizar ficha (owner o cuidador con patient:edit)
		pr.Patch("/{patientID}", updatePatientHandler(svc, grantsSvc, log))
	})

	// Fichas compartidas conmigo (cuidador)
	r.Get("/me/patients", listMySharedPatientsHandler(svc, grantsSvc))
}

// createPatientRequest es el cuerpo para registrar un paciente.
// medicines lleva schedules en formato wire (ver schedule.Wire); el decode es
// tolerante con los shapes legacy del servicio histórico.
type createPatientRequest struct {
	Name                string            `json:"name"`
	UHIDNumber          string            `json:"uhid_number"`
	Gender              string            `json:"gender" enums:"male,female,other"`
	Age                 int               `json:"age"`
	Phone               string            `json:"phone"`
	Email               string            `json:"email"`
	Address             string            `json:"address"`
	FollowUpDate        string            `json:"follow_up_date"` // YYYY-MM-DD opcional
	ExerciseTimeMinutes int               `json:"exercise_time_minutes"`
	Medicines           []json.RawMessage `json:"medicines"`
}

// patientResponse representa una ficha devuelta por la API. Los schedules
// salen siempre en la forma wire canónica.
type patientResponse struct {
	ID                  string          `json:"id"`
	OwnerUserID         string          `json:"owner_user_id"`
	Name                string          `json:"name"`
	UHIDNumber          string          `json:"uhid_number"`
	Gender              string          `json:"gender"`
	Age                 int             `json:"age"`
	Phone               string          `json:"phone"`
	Email               string          `json:"email"`
	Address             string          `json:"address"`
	FollowUpDate        *time.Time      `json:"follow_up_date,omitempty"`
	ExerciseTimeMinutes int             `json:"exercise_time_minutes"`
	Medicines           []schedule.Wire `json:"medicines"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

type updatePatientRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	Name                *string `json:"name"`
	Gender              *string `json:"gender"`
	Age                 *int    `json:"age"`
	Phone               *string `json:"phone"`
	Email               *string `json:"email"`
	Address             *string `json:"address"`
	ExerciseTimeMinutes *int    `json:"exercise_time_minutes"`
	// follow_up_date y medicines se manejan aparte vía raw map para
	// distinguir "ausente" de "null" (ver updatePatientHandler).
}

type sharedPatientResponse struct {
	Patient patientResponse     `json:"patient"`
	Grant   sharedGrantSummary  `json:"grant"`
	Scopes  []caregivers.Scope  `json:"scopes"` // redundante pero útil para UI
}

type sharedGrantSummary struct {
	ID     string            `json:"id"`
	Status caregivers.Status `json:"status"`
}

// createPatientHandler godoc
// @Summary Registrar paciente
// @Description Crea la ficha de un paciente CAD con sus schedules de medicación. Cada schedule se valida contra el catálogo (referencia resoluble, frecuencia >= 1, tomas == frecuencia); el primer schedule inválido rechaza con 400 indicando el índice. UHID duplicado rechaza con 409.
// @Tags patients
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body createPatientRequest true "Datos del paciente; medicines en formato wire"
// @Success 201 {object} patientResponse
// @Failure 400 {string} string "invalid json / schedule inválido / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 409 {string} string "uhid already registered"
// @Router /patients [post]
func createPatientHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createPatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var followUp *time.Time
		if strings.TrimSpace(req.FollowUpDate) != "" {
			t, err := time.Parse("2006-01-02", req.FollowUpDate)
			if err != nil {
				http.Error(w, "follow_up_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			followUp = &t
		}

		medicines, err := decodeWireSchedules(req.Medicines, log)
		if err != nil {
			http.Error(w, "invalid medicines payload", http.StatusBadRequest)
			return
		}

		p, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			Name:                req.Name,
			UHIDNumber:          req.UHIDNumber,
			Gender:              req.Gender,
			Age:                 req.Age,
			Phone:               req.Phone,
			Email:               req.Email,
			Address:             req.Address,
			FollowUpDate:        followUp,
			ExerciseTimeMinutes: req.ExerciseTimeMinutes,
			Medicines:           medicines,
		})
		if err != nil {
			writePatientError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPatientResponse(p))
	}
}

func listPatientsHandler(svc *Service) http.HandlerFunc {
	// Owner-only (las compartidas van por /me/patients)
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByOwner(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]patientResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPatientResponse(p))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func getPatientHandler(svc *Service, grantsSvc *caregivers.Service) http.HandlerFunc {
	// Owner bypass, cuidador requiere patient:read
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		patientID := chi.URLParam(r, "patientID")
		p, err := svc.GetByID(r.Context(), patientID)
		if err != nil {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}

		if p.OwnerUserID != claims.UserID {
			g, err := grantsSvc.GetActiveGrant(r.Context(), patientID, claims.UserID)
			if err != nil || !caregivers.HasScope(g, caregivers.ScopePatientRead) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
		}

		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

// updatePatientHandler aplica permisos:
// - owner bypass
// - cuidador requiere grant activo + scope patient:edit
func updatePatientHandler(svc *Service, grantsSvc *caregivers.Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		patientID := chi.URLParam(r, "patientID")
		current, err := svc.GetByID(r.Context(), patientID)
		if err != nil {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}

		if current.OwnerUserID != claims.UserID {
			g, err := grantsSvc.GetActiveGrant(r.Context(), patientID, claims.UserID)
			if err != nil || !caregivers.HasScope(g, caregivers.ScopePatientEdit) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
		}

		// Para follow_up_date: null y medicines: [] necesitamos detectar
		// presencia del campo, así que decodificamos a raw map primero.
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var req updatePatientRequest
		{
			b, _ := json.Marshal(raw)
			if err := json.Unmarshal(b, &req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}

		followUp := OptionalDate{}
		if v, exists := raw["follow_up_date"]; exists {
			followUp.Set = true
			if string(v) != "null" {
				var s string
				if err := json.Unmarshal(v, &s); err != nil {
					http.Error(w, "follow_up_date must be YYYY-MM-DD or null", http.StatusBadRequest)
					return
				}
				t, err := time.Parse("2006-01-02", s)
				if err != nil {
					http.Error(w, "follow_up_date must be YYYY-MM-DD or null", http.StatusBadRequest)
					return
				}
				followUp.Value = &t
			}
		}

		var medicines *[]*schedule.Schedule
		if v, exists := raw["medicines"]; exists {
			if string(v) == "null" {
				empty := make([]*schedule.Schedule, 0)
				medicines = &empty
			} else {
				var rawMeds []json.RawMessage
				if err := json.Unmarshal(v, &rawMeds); err != nil {
					http.Error(w, "invalid medicines payload", http.StatusBadRequest)
					return
				}
				decoded, err := decodeWireSchedules(rawMeds, log)
				if err != nil {
					http.Error(w, "invalid medicines payload", http.StatusBadRequest)
					return
				}
				medicines = &decoded
			}
		}

		updated, err := svc.UpdateProfile(r.Context(), patientID, UpdateInput{
			Name:                req.Name,
			Gender:              req.Gender,
			Age:                 req.Age,
			Phone:               req.Phone,
			Email:               req.Email,
			Address:             req.Address,
			FollowUpDate:        followUp,
			ExerciseTimeMinutes: req.ExerciseTimeMinutes,
			Medicines:           medicines,
		})
		if err != nil {
			writePatientError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPatientResponse(updated))
	}
}

func listMySharedPatientsHandler(svc *Service, grantsSvc *caregivers.Service) http.HandlerFunc {
	// Devuelve fichas compartidas conmigo (grants active con patient:read)
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		grants, err := grantsSvc.ListByCaregiver(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		seen := map[string]struct{}{}
		out := make([]sharedPatientResponse, 0)

		for _, g := range grants {
			if g.Status != caregivers.StatusActive {
				continue
			}
			if !caregivers.HasScope(g, caregivers.ScopePatientRead) {
				continue
			}
			if _, ok := seen[g.PatientID]; ok {
				continue
			}
			seen[g.PatientID] = struct{}{}

			p, err := svc.GetByID(r.Context(), g.PatientID)
			if err != nil {
				// tolera grants huérfanos
				continue
			}

			out = append(out, sharedPatientResponse{
				Patient: toPatientResponse(p),
				Grant: sharedGrantSummary{
					ID:     g.ID,
					Status: g.Status,
				},
				Scopes: g.Scopes,
			})
		}

		writeJSON(w, http.StatusOK, out)
	}
}

// decodeWireSchedules decodifica schedules wire con postura tolerante y
// loggea cada fallback aplicado (WireDecodeFallback) sin cortar el flujo.
func decodeWireSchedules(rawMeds []json.RawMessage, log logger.Logger) ([]*schedule.Schedule, error) {
	out := make([]*schedule.Schedule, 0, len(rawMeds))
	for i, rawMed := range rawMeds {
		s, warns, err := schedule.FromWire(rawMed)
		if err != nil {
			return nil, err
		}
		if len(warns) > 0 && log != nil {
			fields := make([]string, 0, len(warns))
			for _, wrn := range warns {
				fields = append(fields, wrn.String())
			}
			log.Warn("schedule wire decode fallbacks applied", map[string]any{
				"medicine_index": i,
				"fallbacks":      fields,
			})
		}
		out = append(out, s)
	}
	return out, nil
}

func writePatientError(w http.ResponseWriter, err error) {
	var schedErr *ScheduleValidationError
	switch {
	case errors.As(err, &schedErr):
		http.Error(w, schedErr.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrDuplicateUHID):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "patient not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toPatientResponse(p Patient) patientResponse {
	medicines := make([]schedule.Wire, 0, len(p.Medicines))
	for _, m := range p.Medicines {
		medicines = append(medicines, schedule.ToWire(m))
	}

	return patientResponse{
		ID:                  p.ID,
		OwnerUserID:         p.OwnerUserID,
		Name:                p.Name,
		UHIDNumber:          p.UHIDNumber,
		Gender:              string(p.Gender),
		Age:                 p.Age,
		Phone:               p.Phone,
		Email:               p.Email,
		Address:             p.Address,
		FollowUpDate:        p.FollowUpDate,
		ExerciseTimeMinutes: p.ExerciseTimeMinutes,
		Medicines:           medicines,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
