package memory

import (
	"context"
	"errors"
	"sync"

	"cad-care-tracker/internal/domain/caregivers"
)

type grantRepo struct {
	mu   sync.RWMutex
	byID map[string]caregivers.Grant
}

func NewCaregiversRepo() caregivers.Repository {
	return &grantRepo{
		byID: make(map[string]caregivers.Grant),
	}
}

func (r *grantRepo) Create(ctx context.Context, g caregivers.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g.ID == "" {
		return errors.New("grant id required")
	}
	if _, exists := r.byID[g.ID]; exists {
		return errors.New("grant already exists")
	}
	r.byID[g.ID] = g
	return nil
}

func (r *grantRepo) Update(ctx context.Context, g caregivers.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g.ID == "" {
		return errors.New("grant id required")
	}
	if _, exists := r.byID[g.ID]; !exists {
		return ErrNotFound
	}
	r.byID[g.ID] = g
	return nil
}

func (r *grantRepo) GetByID(ctx context.Context, id string) (caregivers.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.byID[id]
	if !ok {
		return caregivers.Grant{}, ErrNotFound
	}
	return g, nil
}

func (r *grantRepo) ListByPatient(ctx context.Context, patientID string) ([]caregivers.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]caregivers.Grant, 0)
	for _, g := range r.byID {
		if g.PatientID == patientID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *grantRepo) ListByCaregiver(ctx context.Context, caregiverUserID string) ([]caregivers.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]caregivers.Grant, 0)
	for _, g := range r.byID {
		if g.CaregiverUserID == caregiverUserID {
			out = append(out, g)
		}
	}
	return out, nil
}

// Defensivo: si por data sucia existieran múltiples grants activos,
// devolvemos el más reciente por UpdatedAt (y en empate, por CreatedAt).
func (r *grantRepo) GetActiveGrant(ctx context.Context, patientID, caregiverUserID string) (caregivers.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var winner caregivers.Grant
	has := false

	for _, g := range r.byID {
		if g.PatientID != patientID {
			continue
		}
		if g.CaregiverUserID != caregiverUserID {
			continue
		}
		if g.Status != caregivers.StatusActive {
			continue
		}

		if !has {
			winner = g
			has = true
			continue
		}

		if g.UpdatedAt.After(winner.UpdatedAt) {
			winner = g
			continue
		}
		if g.UpdatedAt.Equal(winner.UpdatedAt) {
			if g.CreatedAt.After(winner.CreatedAt) {
				winner = g
			}
		}
	}

	if !has {
		return caregivers.Grant{}, ErrNotFound
	}
	return winner, nil
}
