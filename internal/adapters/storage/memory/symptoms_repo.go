package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"cad-care-tracker/internal/domain/symptoms"
)

type symptomsRepo struct {
	mu   sync.RWMutex
	byID map[string]symptoms.Entry
}

func NewSymptomsRepo() symptoms.Repository {
	return &symptomsRepo{
		byID: make(map[string]symptoms.Entry),
	}
}

func (r *symptomsRepo) Create(ctx context.Context, e symptoms.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" {
		return errors.New("symptom id required")
	}
	if _, exists := r.byID[e.ID]; exists {
		return errors.New("symptom already exists")
	}

	r.byID[e.ID] = e
	return nil
}

func (r *symptomsRepo) GetByID(ctx context.Context, id string) (symptoms.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return symptoms.Entry{}, ErrNotFound
	}
	return e, nil
}

func (r *symptomsRepo) ListByPatient(ctx context.Context, patientID string, filter symptoms.ListFilter) ([]symptoms.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	out := make([]symptoms.Entry, 0)

	for _, e := range r.byID {
		if e.PatientID != patientID {
			continue
		}
		if !filter.IncludeVoided && e.Status == symptoms.StatusVoided {
			continue
		}

		// Severity filter
		if len(filter.Severities) > 0 {
			ok := false
			for _, sv := range filter.Severities {
				if e.Severity == sv {
					ok = true
					break
				}
			}
			if !ok {
				continue
			}
		}

		// Date filters (occurred_at)
		if filter.From != nil {
			if e.OccurredAt.Before((*filter.From).Add(-1 * time.Nanosecond)) {
				continue
			}
		}
		if filter.To != nil {
			if e.OccurredAt.After(*filter.To) {
				continue
			}
		}

		// Query filter
		if q := strings.TrimSpace(filter.Query); q != "" {
			hay := strings.ToLower(e.Name + " " + e.Notes)
			if !strings.Contains(hay, strings.ToLower(q)) {
				continue
			}
		}

		out = append(out, e)
	}

	// Orden por occurred_at desc (más reciente primero)
	sort.Slice(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})

	if len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (r *symptomsRepo) Void(ctx context.Context, id string, voidedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	e.Status = symptoms.StatusVoided
	e.VoidedAt = &voidedAt
	r.byID[id] = e
	return nil
}
