package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	Name          string
	Dose          float64
	DoseUnit      string
	ClinicalNotes string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Entry, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Entry{}, ErrInvalidInput
	}
	if in.Dose <= 0 {
		return Entry{}, ErrInvalidInput
	}
	unit := DoseUnit(strings.TrimSpace(in.DoseUnit))
	if !IsValidDoseUnit(unit) {
		return Entry{}, ErrInvalidInput
	}

	now := s.now()
	e := Entry{
		ID:            uuid.NewString(),
		Name:          name,
		Dose:          in.Dose,
		DoseUnit:      unit,
		ClinicalNotes: strings.TrimSpace(in.ClinicalNotes),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Entry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Entry{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

// Snapshot devuelve el catálogo completo para abrir una sesión de edición de
// schedules. El editor lo trata como snapshot read-only (sin refresh en vivo).
func (s *Service) Snapshot(ctx context.Context) ([]Entry, error) {
	return s.repo.List(ctx)
}

// Import hace upsert de entradas traídas de una fuente externa (drugref).
// IDs vacíos se descartan; el resto se pisa tal cual (la fuente manda).
func (s *Service) Import(ctx context.Context, entries []Entry) (int, error) {
	imported := 0
	now := s.now()
	for _, e := range entries {
		if strings.TrimSpace(e.ID) == "" || strings.TrimSpace(e.Name) == "" {
			continue
		}
		if !IsValidDoseUnit(e.DoseUnit) {
			continue
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		e.UpdatedAt = now
		if err := s.repo.Upsert(ctx, e); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}
