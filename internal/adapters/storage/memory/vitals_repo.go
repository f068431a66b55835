package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"cad-care-tracker/internal/domain/vitals"
)

type vitalsRepo struct {
	mu   sync.RWMutex
	byID map[string]vitals.Reading
}

func NewVitalsRepo() vitals.Repository {
	return &vitalsRepo{
		byID: make(map[string]vitals.Reading),
	}
}

func (r *vitalsRepo) Create(ctx context.Context, rd vitals.Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rd.ID == "" {
		return errors.New("reading id required")
	}
	if _, exists := r.byID[rd.ID]; exists {
		return errors.New("reading already exists")
	}

	r.byID[rd.ID] = rd
	return nil
}

func (r *vitalsRepo) GetByID(ctx context.Context, id string) (vitals.Reading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rd, ok := r.byID[id]
	if !ok {
		return vitals.Reading{}, ErrNotFound
	}
	return rd, nil
}

func (r *vitalsRepo) ListByPatient(ctx context.Context, patientID string, filter vitals.ListFilter) ([]vitals.Reading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	out := make([]vitals.Reading, 0)

	for _, rd := range r.byID {
		if rd.PatientID != patientID {
			continue
		}

		// Type filter
		if len(filter.Types) > 0 {
			ok := false
			for _, t := range filter.Types {
				if rd.Type == t {
					ok = true
					break
				}
			}
			if !ok {
				continue
			}
		}

		// Date filters (measured_at)
		if filter.From != nil {
			if rd.MeasuredAt.Before((*filter.From).Add(-1 * time.Nanosecond)) {
				continue
			}
		}
		if filter.To != nil {
			if rd.MeasuredAt.After(*filter.To) {
				continue
			}
		}

		out = append(out, rd)
	}

	// Orden por measured_at desc (más reciente primero)
	sort.Slice(out, func(i, j int) bool {
		return out[i].MeasuredAt.After(out[j].MeasuredAt)
	})

	if len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}
