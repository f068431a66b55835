package patients

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cad-care-tracker/internal/domain/catalog"
	"cad-care-tracker/internal/domain/schedule"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")

	// ErrDuplicateUHID: el número hospitalario ya pertenece a otro paciente.
	// Los repos lo devuelven tal cual para que el handler mapee a 409.
	ErrDuplicateUHID = errors.New("uhid already registered")
)

// ScheduleValidationError identifica el primer schedule inválido del payload.
// Se devuelve como error tipado para feedback a nivel de campo en el cliente.
type ScheduleValidationError struct {
	Index int
	Issue schedule.ValidationIssue
}

func (e *ScheduleValidationError) Error() string {
	return fmt.Sprintf("medicine %d: %s", e.Index, e.Issue)
}

// CatalogProvider entrega el snapshot de catálogo contra el que se validan
// las referencias de medicamentos. Lo implementa catalog.Service.
type CatalogProvider interface {
	Snapshot(ctx context.Context) ([]catalog.Entry, error)
}

type Service struct {
	repo    Repository
	catalog CatalogProvider
	now     func() time.Time
}

func NewService(repo Repository, catalogProvider CatalogProvider) *Service {
	return &Service{
		repo:    repo,
		catalog: catalogProvider,
		now:     time.Now,
	}
}

type CreateInput struct {
	Name                string
	UHIDNumber          string
	Gender              string
	Age                 int
	Phone               string
	Email               string
	Address             string
	FollowUpDate        *time.Time
	ExerciseTimeMinutes int
	Medicines           []*schedule.Schedule
}

func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Patient, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return Patient{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" {
		return Patient{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.UHIDNumber) == "" {
		return Patient{}, ErrInvalidInput
	}
	if in.Age < 0 || in.Age > 130 {
		return Patient{}, ErrInvalidInput
	}
	gender, ok := normalizeGender(in.Gender)
	if !ok {
		return Patient{}, ErrInvalidInput
	}
	if in.ExerciseTimeMinutes < 0 {
		return Patient{}, ErrInvalidInput
	}

	if err := s.validateSchedules(ctx, in.Medicines); err != nil {
		return Patient{}, err
	}

	now := s.now()
	p := Patient{
		ID:                  uuid.NewString(),
		OwnerUserID:         ownerUserID,
		Name:                strings.TrimSpace(in.Name),
		UHIDNumber:          strings.TrimSpace(in.UHIDNumber),
		Gender:              gender,
		Age:                 in.Age,
		Phone:               strings.TrimSpace(in.Phone),
		Email:               strings.TrimSpace(in.Email),
		Address:             strings.TrimSpace(in.Address),
		FollowUpDate:        in.FollowUpDate,
		ExerciseTimeMinutes: in.ExerciseTimeMinutes,
		Medicines:           in.Medicines,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Patient{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Patient, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Patient{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Patient, error) {
	return s.repo.ListByOwner(ctx, ownerUserID)
}

// OwnerOf expone el ownerUserID de un paciente.
// Se usa para evitar ciclos de imports entre módulos (patients <-> caregivers).
func (s *Service) OwnerOf(ctx context.Context, patientID string) (string, error) {
	p, err := s.GetByID(ctx, patientID)
	if err != nil {
		return "", err
	}
	return p.OwnerUserID, nil
}

// OptionalDate permite distinguir "no enviado" de "enviado null" en PATCH.
type OptionalDate struct {
	Set   bool
	Value *time.Time
}

type UpdateInput struct {
	// Punteros para PATCH real: nil = no tocar.
	Name                *string
	Gender              *string
	Age                 *int
	Phone               *string
	Email               *string
	Address             *string
	FollowUpDate        OptionalDate
	ExerciseTimeMinutes *int

	// nil = no tocar; no-nil = reemplaza la lista completa de schedules.
	Medicines *[]*schedule.Schedule
}

func (s *Service) UpdateProfile(ctx context.Context, patientID string, in UpdateInput) (Patient, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return Patient{}, ErrInvalidInput
	}

	p, err := s.repo.GetByID(ctx, patientID)
	if err != nil {
		return Patient{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Patient{}, ErrInvalidInput
		}
		p.Name = name
	}
	if in.Gender != nil {
		gender, ok := normalizeGender(*in.Gender)
		if !ok {
			return Patient{}, ErrInvalidInput
		}
		p.Gender = gender
	}
	if in.Age != nil {
		if *in.Age < 0 || *in.Age > 130 {
			return Patient{}, ErrInvalidInput
		}
		p.Age = *in.Age
	}
	if in.Phone != nil {
		p.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Email != nil {
		p.Email = strings.TrimSpace(*in.Email)
	}
	if in.Address != nil {
		p.Address = strings.TrimSpace(*in.Address)
	}
	if in.FollowUpDate.Set {
		p.FollowUpDate = in.FollowUpDate.Value
	}
	if in.ExerciseTimeMinutes != nil {
		if *in.ExerciseTimeMinutes < 0 {
			return Patient{}, ErrInvalidInput
		}
		p.ExerciseTimeMinutes = *in.ExerciseTimeMinutes
	}
	if in.Medicines != nil {
		if err := s.validateSchedules(ctx, *in.Medicines); err != nil {
			return Patient{}, err
		}
		p.Medicines = *in.Medicines
	}

	// Nota: UHID no es editable por PATCH; corregirlo es un flujo
	// administrativo del sistema hospitalario, no de esta API.

	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return Patient{}, err
	}
	return p, nil
}

// validateSchedules valida cada schedule contra el snapshot de catálogo y
// devuelve el primer error (sin agregación: feedback campo a campo por índice).
func (s *Service) validateSchedules(ctx context.Context, medicines []*schedule.Schedule) error {
	if len(medicines) == 0 {
		return nil
	}

	entries, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("load catalog snapshot: %w", err)
	}

	for i, m := range medicines {
		if m == nil {
			return &ScheduleValidationError{Index: i, Issue: schedule.IssueMissingMedicineReference}
		}
		if r := m.Validate(entries); !r.OK() {
			return &ScheduleValidationError{Index: i, Issue: r.Issue}
		}
	}
	return nil
}

func normalizeGender(raw string) (Gender, bool) {
	g := Gender(strings.ToLower(strings.TrimSpace(raw)))
	switch g {
	case "":
		// opcional: data vieja sin género
		return GenderOther, true
	case GenderMale, GenderFemale, GenderOther:
		return g, true
	default:
		return "", false
	}
}
