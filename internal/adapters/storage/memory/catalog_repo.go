package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"cad-care-tracker/internal/domain/catalog"
)

type catalogRepo struct {
	mu   sync.RWMutex
	byID map[string]catalog.Entry
}

func NewCatalogRepo() catalog.Repository {
	return &catalogRepo{
		byID: make(map[string]catalog.Entry),
	}
}

// NewSeededCatalogRepo precarga los medicamentos CAD más comunes para que
// el modo dev funcione sin fuente externa (drugref) configurada.
func NewSeededCatalogRepo(now time.Time) catalog.Repository {
	r := &catalogRepo{byID: make(map[string]catalog.Entry)}

	seed := []catalog.Entry{
		{ID: "1", Name: "Aspirin", Dose: 75, DoseUnit: catalog.UnitMg, ClinicalNotes: "Antiagregante plaquetario"},
		{ID: "2", Name: "Atorvastatin", Dose: 10, DoseUnit: catalog.UnitMg, ClinicalNotes: "Estatina"},
		{ID: "3", Name: "Metoprolol", Dose: 25, DoseUnit: catalog.UnitMg, ClinicalNotes: "Betabloqueante"},
		{ID: "4", Name: "Ramipril", Dose: 2.5, DoseUnit: catalog.UnitMg, ClinicalNotes: "IECA"},
		{ID: "5", Name: "Clopidogrel", Dose: 75, DoseUnit: catalog.UnitMg, ClinicalNotes: "Antiagregante plaquetario"},
		{ID: "6", Name: "Isosorbide Mononitrate", Dose: 20, DoseUnit: catalog.UnitMg, ClinicalNotes: "Nitrato"},
		{ID: "7", Name: "Metformin", Dose: 500, DoseUnit: catalog.UnitMg, ClinicalNotes: "Antidiabético"},
	}

	for _, e := range seed {
		e.CreatedAt = now
		e.UpdatedAt = now
		r.byID[e.ID] = e
	}
	return r
}

func (r *catalogRepo) Create(ctx context.Context, e catalog.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(e.ID) == "" {
		return errors.New("medicine id required")
	}
	if _, exists := r.byID[e.ID]; exists {
		return errors.New("medicine already exists")
	}
	r.byID[e.ID] = e
	return nil
}

func (r *catalogRepo) Upsert(ctx context.Context, e catalog.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(e.ID) == "" {
		return errors.New("medicine id required")
	}
	if existing, ok := r.byID[e.ID]; ok {
		// conserva created_at original
		e.CreatedAt = existing.CreatedAt
	}
	r.byID[e.ID] = e
	return nil
}

func (r *catalogRepo) GetByID(ctx context.Context, id string) (catalog.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return catalog.Entry{}, ErrNotFound
	}
	return e, nil
}

func (r *catalogRepo) List(ctx context.Context) ([]catalog.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]catalog.Entry, 0, len(r.byID))
	for _, e := range r.byID {
		out = append(out, e)
	}

	// Orden estable por nombre
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})

	return out, nil
}
