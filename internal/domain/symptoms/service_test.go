package symptoms

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testRepo struct {
	byID map[string]Entry
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Entry{}}
}

func (r *testRepo) Create(ctx context.Context, e Entry) error {
	r.byID[e.ID] = e
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Entry, error) {
	e, ok := r.byID[id]
	if !ok {
		return Entry{}, errors.New("not found")
	}
	return e, nil
}

func (r *testRepo) ListByPatient(ctx context.Context, patientID string, filter ListFilter) ([]Entry, error) {
	out := []Entry{}
	for _, e := range r.byID {
		if e.PatientID != patientID {
			continue
		}
		if !filter.IncludeVoided && e.Status == StatusVoided {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *testRepo) Void(ctx context.Context, id string, voidedAt time.Time) error {
	e, ok := r.byID[id]
	if !ok {
		return errors.New("not found")
	}
	e.Status = StatusVoided
	e.VoidedAt = &voidedAt
	r.byID[id] = e
	return nil
}

func fixedNow() time.Time {
	return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
}

func newTestService() (*Service, *testRepo) {
	repo := newTestRepo()
	svc := NewService(repo)
	svc.now = fixedNow
	return svc, repo
}

func TestCreateSymptom_OK(t *testing.T) {
	svc, _ := newTestService()

	e, err := svc.Create(context.Background(), "patient-1", "user-1", CreateInput{
		Name:       "  chest pain  ",
		Severity:   SeveritySevere,
		OccurredAt: time.Date(2025, 6, 15, 6, 0, 0, 0, time.UTC),
		Notes:      "durante caminata",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e.Name != "chest pain" {
		t.Fatalf("esperaba nombre trimmeado, got %q", e.Name)
	}
	if e.Status != StatusActive {
		t.Fatalf("esperaba status active, got %q", e.Status)
	}
	if !e.RecordedAt.Equal(fixedNow()) {
		t.Fatal("RecordedAt no viene del reloj inyectado")
	}
}

func TestCreateSymptom_InvalidInput(t *testing.T) {
	svc, _ := newTestService()

	occurred := time.Date(2025, 6, 15, 6, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		in   CreateInput
	}{
		{"sin nombre", CreateInput{Severity: SeverityMild, OccurredAt: occurred}},
		{"severidad invalida", CreateInput{Name: "fatigue", Severity: "extreme", OccurredAt: occurred}},
		{"sin fecha", CreateInput{Name: "fatigue", Severity: SeverityMild}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), "patient-1", "user-1", tc.in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("esperaba ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestVoidSymptom_PreservesRecordAndIsIdempotent(t *testing.T) {
	svc, repo := newTestService()

	e, err := svc.Create(context.Background(), "patient-1", "user-1", CreateInput{
		Name:       "dizziness",
		Severity:   SeverityModerate,
		OccurredAt: time.Date(2025, 6, 15, 6, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	voided, err := svc.Void(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("Void: %v", err)
	}
	if voided.Status != StatusVoided {
		t.Fatalf("esperaba status voided, got %q", voided.Status)
	}
	if voided.VoidedAt == nil || !voided.VoidedAt.Equal(fixedNow()) {
		t.Fatal("VoidedAt no quedo seteado con el reloj inyectado")
	}

	// El registro sigue existiendo
	if _, err := repo.GetByID(context.Background(), e.ID); err != nil {
		t.Fatal("void no debe borrar el registro")
	}

	// Segundo void: no-op, mismo resultado
	again, err := svc.Void(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("Void idempotente: %v", err)
	}
	if !again.VoidedAt.Equal(*voided.VoidedAt) {
		t.Fatal("un segundo void no debe mover VoidedAt")
	}
}

func TestListByPatient_ExcludesVoidedByDefault(t *testing.T) {
	svc, _ := newTestService()

	occurred := time.Date(2025, 6, 15, 6, 0, 0, 0, time.UTC)

	keep, _ := svc.Create(context.Background(), "patient-1", "user-1", CreateInput{Name: "fatigue", Severity: SeverityMild, OccurredAt: occurred})
	drop, _ := svc.Create(context.Background(), "patient-1", "user-1", CreateInput{Name: "typo entry", Severity: SeverityMild, OccurredAt: occurred})

	if _, err := svc.Void(context.Background(), drop.ID); err != nil {
		t.Fatalf("Void: %v", err)
	}

	items, err := svc.ListByPatient(context.Background(), "patient-1", ListFilter{Limit: 50})
	if err != nil {
		t.Fatalf("ListByPatient: %v", err)
	}
	if len(items) != 1 || items[0].ID != keep.ID {
		t.Fatalf("esperaba solo el sintoma activo, got %d items", len(items))
	}

	all, err := svc.ListByPatient(context.Background(), "patient-1", ListFilter{Limit: 50, IncludeVoided: true})
	if err != nil {
		t.Fatalf("ListByPatient include_voided: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("esperaba 2 items con include_voided, got %d", len(all))
	}
}
