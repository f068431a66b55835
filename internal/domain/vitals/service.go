package vitals

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

// Unidades por defecto cuando el cliente no las envía.
var defaultUnits = map[VitalType]string{
	TypeBloodSugar: "mg/dL",
	TypeWeight:     "kg",
	TypeHeight:     "cm",
}

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
	Type         VitalType
	Systolic     int
	Diastolic    int
	Value        float64
	Unit         string
	SugarContext SugarContext
	MeasuredAt   time.Time
	Notes        string
}

func (s *Service) Create(ctx context.Context, patientID, recordedBy string, in CreateInput) (Reading, error) {
	if strings.TrimSpace(patientID) == "" {
		return Reading{}, ErrInvalidInput
	}
	if strings.TrimSpace(recordedBy) == "" {
		return Reading{}, ErrInvalidInput
	}
	if !IsValidVitalType(in.Type) {
		return Reading{}, ErrInvalidInput
	}
	if in.MeasuredAt.IsZero() {
		return Reading{}, ErrInvalidInput
	}

	rd := Reading{
		ID:               uuid.NewString(),
		PatientID:        patientID,
		Type:             in.Type,
		MeasuredAt:       in.MeasuredAt,
		RecordedAt:       s.now(),
		RecordedByUserID: recordedBy,
		Notes:            strings.TrimSpace(in.Notes),
	}

	switch in.Type {
	case TypeBloodPressure:
		// Presión arterial va como par sistólica/diastólica en mmHg
		if in.Systolic <= 0 || in.Diastolic <= 0 || in.Systolic <= in.Diastolic {
			return Reading{}, ErrInvalidInput
		}
		rd.Systolic = in.Systolic
		rd.Diastolic = in.Diastolic
		rd.Unit = "mmHg"

	case TypeBloodSugar:
		if in.Value <= 0 {
			return Reading{}, ErrInvalidInput
		}
		sc := in.SugarContext
		if sc == "" {
			sc = SugarRandom
		}
		switch sc {
		case SugarFasting, SugarPostprandial, SugarRandom:
		default:
			return Reading{}, ErrInvalidInput
		}
		rd.Value = in.Value
		rd.Unit = unitOrDefault(in.Unit, in.Type)
		rd.SugarContext = sc

	default: // weight, height
		if in.Value <= 0 {
			return Reading{}, ErrInvalidInput
		}
		rd.Value = in.Value
		rd.Unit = unitOrDefault(in.Unit, in.Type)
	}

	if err := s.repo.Create(ctx, rd); err != nil {
		return Reading{}, err
	}
	return rd, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Reading, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Reading{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID string, filter ListFilter) ([]Reading, error) {
	return s.repo.ListByPatient(ctx, patientID, filter)
}

func unitOrDefault(unit string, t VitalType) string {
	unit = strings.TrimSpace(unit)
	if unit != "" {
		return unit
	}
	return defaultUnits[t]
}
