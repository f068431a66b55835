package symptoms

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
	Name       string
	Severity   Severity
	OccurredAt time.Time
	Notes      string
}

func (s *Service) Create(ctx context.Context, patientID, recordedBy string, in CreateInput) (Entry, error) {
	if strings.TrimSpace(patientID) == "" {
		return Entry{}, ErrInvalidInput
	}
	if strings.TrimSpace(recordedBy) == "" {
		return Entry{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" {
		return Entry{}, ErrInvalidInput
	}
	if !IsValidSeverity(in.Severity) {
		return Entry{}, ErrInvalidInput
	}
	if in.OccurredAt.IsZero() {
		return Entry{}, ErrInvalidInput
	}

	e := Entry{
		ID:               uuid.NewString(),
		PatientID:        patientID,
		Name:             strings.TrimSpace(in.Name),
		Severity:         in.Severity,
		OccurredAt:       in.OccurredAt,
		RecordedAt:       s.now(),
		RecordedByUserID: recordedBy,
		Notes:            strings.TrimSpace(in.Notes),
		Status:           StatusActive,
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

func (s *Service) ListByPatient(ctx context.Context, patientID string, filter ListFilter) ([]Entry, error) {
	return s.repo.ListByPatient(ctx, patientID, filter)
}

// Void marca el síntoma como voided (no se borra). Idempotente.
func (s *Service) Void(ctx context.Context, id string) (Entry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Entry{}, ErrInvalidInput
	}

	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if e.Status == StatusVoided {
		return e, nil
	}

	if err := s.repo.Void(ctx, id, s.now()); err != nil {
		return Entry{}, err
	}
	return s.repo.GetByID(ctx, id)
}
