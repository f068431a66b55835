package patients

import (
	"context"
	"errors"
	"testing"
	"time"

	"cad-care-tracker/internal/domain/catalog"
	"cad-care-tracker/internal/domain/schedule"
)

type testRepo struct {
	byID map[string]Patient
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Patient{}}
}

func (r *testRepo) Create(ctx context.Context, p Patient) error {
	for _, existing := range r.byID {
		if existing.UHIDNumber == p.UHIDNumber {
			return ErrDuplicateUHID
		}
	}
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) Update(ctx context.Context, p Patient) error {
	if _, ok := r.byID[p.ID]; !ok {
		return ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Patient, error) {
	p, ok := r.byID[id]
	if !ok {
		return Patient{}, ErrNotFound
	}
	return p, nil
}

func (r *testRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]Patient, error) {
	out := []Patient{}
	for _, p := range r.byID {
		if p.OwnerUserID == ownerUserID {
			out = append(out, p)
		}
	}
	return out, nil
}

type testCatalog struct {
	entries []catalog.Entry
	err     error
}

func (c *testCatalog) Snapshot(ctx context.Context) ([]catalog.Entry, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.entries, nil
}

func fixedNow() time.Time {
	return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
}

func newTestService(entries []catalog.Entry) (*Service, *testRepo) {
	repo := newTestRepo()
	svc := NewService(repo, &testCatalog{entries: entries})
	svc.now = fixedNow
	return svc, repo
}

func aspirinCatalog() []catalog.Entry {
	return []catalog.Entry{
		{ID: "7", Name: "Aspirin", Dose: 75, DoseUnit: catalog.UnitMg},
		{ID: "12", Name: "Atorvastatin", Dose: 10, DoseUnit: catalog.UnitMg},
	}
}

func TestCreatePatient_OK(t *testing.T) {
	svc, repo := newTestService(aspirinCatalog())

	med := schedule.New("7")

	p, err := svc.Create(context.Background(), "user-1", CreateInput{
		Name:       "  Ravi Kumar  ",
		UHIDNumber: "UHID-001",
		Gender:     "Male",
		Age:        58,
		Medicines:  []*schedule.Schedule{med},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Name != "Ravi Kumar" {
		t.Fatalf("esperaba nombre trimmeado, got %q", p.Name)
	}
	if p.Gender != GenderMale {
		t.Fatalf("esperaba genero male, got %q", p.Gender)
	}
	if !p.CreatedAt.Equal(fixedNow()) || !p.UpdatedAt.Equal(fixedNow()) {
		t.Fatalf("timestamps no vienen del reloj inyectado")
	}
	if _, err := repo.GetByID(context.Background(), p.ID); err != nil {
		t.Fatalf("el paciente no quedo persistido: %v", err)
	}
}

func TestCreatePatient_InvalidInput(t *testing.T) {
	svc, _ := newTestService(aspirinCatalog())

	cases := []struct {
		name string
		in   CreateInput
	}{
		{"sin nombre", CreateInput{UHIDNumber: "U-1"}},
		{"sin uhid", CreateInput{Name: "Ravi"}},
		{"edad negativa", CreateInput{Name: "Ravi", UHIDNumber: "U-1", Age: -1}},
		{"edad imposible", CreateInput{Name: "Ravi", UHIDNumber: "U-1", Age: 131}},
		{"genero invalido", CreateInput{Name: "Ravi", UHIDNumber: "U-1", Gender: "robot"}},
		{"ejercicio negativo", CreateInput{Name: "Ravi", UHIDNumber: "U-1", ExerciseTimeMinutes: -5}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), "user-1", tc.in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("esperaba ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestCreatePatient_DuplicateUHID(t *testing.T) {
	svc, _ := newTestService(aspirinCatalog())

	if _, err := svc.Create(context.Background(), "user-1", CreateInput{Name: "Ravi", UHIDNumber: "UHID-001"}); err != nil {
		t.Fatalf("primer Create: %v", err)
	}

	_, err := svc.Create(context.Background(), "user-2", CreateInput{Name: "Meera", UHIDNumber: "UHID-001"})
	if !errors.Is(err, ErrDuplicateUHID) {
		t.Fatalf("esperaba ErrDuplicateUHID, got %v", err)
	}
}

func TestCreatePatient_ScheduleValidation_FirstFailureIndexed(t *testing.T) {
	svc, _ := newTestService(aspirinCatalog())

	good := schedule.New("7")
	bad := schedule.New("999") // no resuelve en catalogo

	_, err := svc.Create(context.Background(), "user-1", CreateInput{
		Name:       "Ravi",
		UHIDNumber: "UHID-001",
		Medicines:  []*schedule.Schedule{good, bad},
	})

	var schedErr *ScheduleValidationError
	if !errors.As(err, &schedErr) {
		t.Fatalf("esperaba ScheduleValidationError, got %v", err)
	}
	if schedErr.Index != 1 {
		t.Fatalf("esperaba indice 1, got %d", schedErr.Index)
	}
	if schedErr.Issue != schedule.IssueMissingMedicineReference {
		t.Fatalf("esperaba missing_medicine_reference, got %s", schedErr.Issue)
	}
}

func TestCreatePatient_CatalogUnavailable(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, &testCatalog{err: errors.New("db down")})
	svc.now = fixedNow

	_, err := svc.Create(context.Background(), "user-1", CreateInput{
		Name:       "Ravi",
		UHIDNumber: "UHID-001",
		Medicines:  []*schedule.Schedule{schedule.New("7")},
	})
	if err == nil {
		t.Fatal("esperaba error cuando el catalogo no carga")
	}

	// Sin medicines no hay validacion, asi que el create pasa
	if _, err := svc.Create(context.Background(), "user-1", CreateInput{Name: "Ravi", UHIDNumber: "UHID-002"}); err != nil {
		t.Fatalf("Create sin medicines no deberia tocar el catalogo: %v", err)
	}
}

func TestUpdateProfile_PartialPatch(t *testing.T) {
	svc, _ := newTestService(aspirinCatalog())

	p, err := svc.Create(context.Background(), "user-1", CreateInput{
		Name:       "Ravi",
		UHIDNumber: "UHID-001",
		Age:        58,
		Phone:      "9876543210",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	newAge := 59
	updated, err := svc.UpdateProfile(context.Background(), p.ID, UpdateInput{Age: &newAge})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.Age != 59 {
		t.Fatalf("esperaba edad 59, got %d", updated.Age)
	}
	if updated.Name != "Ravi" || updated.Phone != "9876543210" {
		t.Fatal("campos no enviados no deben cambiar")
	}
	if updated.UHIDNumber != "UHID-001" {
		t.Fatal("UHID no debe cambiar por PATCH")
	}
}

func TestUpdateProfile_FollowUpDate_SetAndClear(t *testing.T) {
	svc, _ := newTestService(aspirinCatalog())

	p, _ := svc.Create(context.Background(), "user-1", CreateInput{Name: "Ravi", UHIDNumber: "UHID-001"})

	visit := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	updated, err := svc.UpdateProfile(context.Background(), p.ID, UpdateInput{
		FollowUpDate: OptionalDate{Set: true, Value: &visit},
	})
	if err != nil {
		t.Fatalf("UpdateProfile set: %v", err)
	}
	if updated.FollowUpDate == nil || !updated.FollowUpDate.Equal(visit) {
		t.Fatal("follow_up_date no quedo seteado")
	}

	// Campo ausente: no tocar
	updated, err = svc.UpdateProfile(context.Background(), p.ID, UpdateInput{})
	if err != nil {
		t.Fatalf("UpdateProfile noop: %v", err)
	}
	if updated.FollowUpDate == nil {
		t.Fatal("PATCH sin follow_up_date no debe borrarlo")
	}

	// null explicito: limpiar
	updated, err = svc.UpdateProfile(context.Background(), p.ID, UpdateInput{
		FollowUpDate: OptionalDate{Set: true, Value: nil},
	})
	if err != nil {
		t.Fatalf("UpdateProfile clear: %v", err)
	}
	if updated.FollowUpDate != nil {
		t.Fatal("follow_up_date null debe limpiar el campo")
	}
}

func TestUpdateProfile_ReplaceMedicines(t *testing.T) {
	svc, _ := newTestService(aspirinCatalog())

	first := schedule.New("7")
	p, err := svc.Create(context.Background(), "user-1", CreateInput{
		Name:       "Ravi",
		UHIDNumber: "UHID-001",
		Medicines:  []*schedule.Schedule{first},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	replacement := []*schedule.Schedule{schedule.New("12")}
	updated, err := svc.UpdateProfile(context.Background(), p.ID, UpdateInput{Medicines: &replacement})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if len(updated.Medicines) != 1 || updated.Medicines[0].MedicineID != "12" {
		t.Fatal("medicines debe reemplazar la lista completa")
	}

	// Lista invalida rechaza y no persiste
	invalid := []*schedule.Schedule{schedule.New("")}
	if _, err := svc.UpdateProfile(context.Background(), p.ID, UpdateInput{Medicines: &invalid}); err == nil {
		t.Fatal("esperaba error con medicine sin referencia")
	}
	got, _ := svc.GetByID(context.Background(), p.ID)
	if len(got.Medicines) != 1 || got.Medicines[0].MedicineID != "12" {
		t.Fatal("un PATCH fallido no debe alterar lo persistido")
	}
}

func TestUpdateProfile_NotFound(t *testing.T) {
	svc, _ := newTestService(aspirinCatalog())

	name := "X"
	if _, err := svc.UpdateProfile(context.Background(), "no-such", UpdateInput{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("esperaba ErrNotFound, got %v", err)
	}
}

func TestOwnerOf(t *testing.T) {
	svc, _ := newTestService(aspirinCatalog())

	p, _ := svc.Create(context.Background(), "user-1", CreateInput{Name: "Ravi", UHIDNumber: "UHID-001"})

	owner, err := svc.OwnerOf(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("OwnerOf: %v", err)
	}
	if owner != "user-1" {
		t.Fatalf("esperaba user-1, got %q", owner)
	}
}
