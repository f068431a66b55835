package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"cad-care-tracker/internal/domain/exercises"
)

type exercisesRepo struct {
	mu   sync.RWMutex
	byID map[string]exercises.Exercise
}

// NewSeededExercisesRepo precarga la biblioteca de rehabilitación.
// El contenido lo cura el equipo clínico; no hay endpoint de escritura.
func NewSeededExercisesRepo(now time.Time) exercises.Repository {
	r := &exercisesRepo{byID: make(map[string]exercises.Exercise)}

	seed := []exercises.Exercise{
		{
			ID:              "ex-walk-10",
			Title:           "Caminata guiada de 10 minutos",
			Description:     "Caminata en terreno plano con control de ritmo respiratorio.",
			VideoURL:        "https://videos.cad-care.example/ex-walk-10.mp4",
			DurationMinutes: 10,
			Intensity:       exercises.IntensityLow,
		},
		{
			ID:              "ex-breathing-5",
			Title:           "Respiración diafragmática",
			Description:     "Ejercicio de respiración para reducir la frecuencia cardíaca en reposo.",
			VideoURL:        "https://videos.cad-care.example/ex-breathing-5.mp4",
			DurationMinutes: 5,
			Intensity:       exercises.IntensityLow,
		},
		{
			ID:              "ex-cycle-15",
			Title:           "Bicicleta estática suave",
			Description:     "Pedaleo sin resistencia, quince minutos con pausas.",
			VideoURL:        "https://videos.cad-care.example/ex-cycle-15.mp4",
			DurationMinutes: 15,
			Intensity:       exercises.IntensityModerate,
		},
		{
			ID:              "ex-stretch-8",
			Title:           "Estiramientos de miembros superiores",
			Description:     "Rutina de estiramiento post-caminata.",
			VideoURL:        "https://videos.cad-care.example/ex-stretch-8.mp4",
			DurationMinutes: 8,
			Intensity:       exercises.IntensityLow,
		},
	}

	for _, e := range seed {
		e.CreatedAt = now
		r.byID[e.ID] = e
	}
	return r
}

func (r *exercisesRepo) List(ctx context.Context) ([]exercises.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]exercises.Exercise, 0, len(r.byID))
	for _, e := range r.byID {
		out = append(out, e)
	}

	// Orden estable por titulo
	sort.Slice(out, func(i, j int) bool {
		return out[i].Title < out[j].Title
	})

	return out, nil
}

func (r *exercisesRepo) GetByID(ctx context.Context, id string) (exercises.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return exercises.Exercise{}, ErrNotFound
	}
	return e, nil
}
