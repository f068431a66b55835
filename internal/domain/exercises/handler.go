package exercises

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"cad-care-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/exercises", func(er chi.Router) {
		er.Get("/", listExercisesHandler(svc))
		er.Get("/{exerciseID}", getExerciseHandler(svc))
	})
}

type exerciseResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	VideoURL        string    `json:"video_url"`
	DurationMinutes int       `json:"duration_minutes"`
	Intensity       Intensity `json:"intensity"`
	CreatedAt       time.Time `json:"created_at"`
}

// listExercisesHandler godoc
// @Summary Listar biblioteca de ejercicios
// @Description Lista los videos de rehabilitación cardíaca disponibles. Visible para cualquier usuario autenticado.
// @Tags exercises
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {array} exerciseResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "internal error"
// @Router /exercises [get]
func listExercisesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.List(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]exerciseResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toExerciseResponse(e))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

// getExerciseHandler godoc
// @Summary Detalle de un ejercicio
// @Description Devuelve un video de la biblioteca por ID.
// @Tags exercises
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param exerciseID path string true "ID del ejercicio"
// @Success 200 {object} exerciseResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "exercise not found"
// @Router /exercises/{exerciseID} [get]
func getExerciseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id := chi.URLParam(r, "exerciseID")
		e, err := svc.GetByID(r.Context(), id)
		if err != nil {
			http.Error(w, "exercise not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, toExerciseResponse(e))
	}
}

func toExerciseResponse(e Exercise) exerciseResponse {
	return exerciseResponse{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		VideoURL:        e.VideoURL,
		DurationMinutes: e.DurationMinutes,
		Intensity:       e.Intensity,
		CreatedAt:       e.CreatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
