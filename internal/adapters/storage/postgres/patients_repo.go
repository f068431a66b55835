package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"cad-care-tracker/internal/domain/patients"
	"cad-care-tracker/internal/domain/schedule"

	"github.com/jackc/pgx/v5/pgconn"
)

type PatientsRepo struct {
	db *sql.DB
}

func NewPatientsRepo(db *sql.DB) *PatientsRepo {
	return &PatientsRepo{db: db}
}

func (r *PatientsRepo) Create(ctx context.Context, p patients.Patient) error {
	meds, err := medicinesToJSON(p.Medicines)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO patients (
			id, owner_user_id,
			name, uhid_number, gender, age,
			phone, email, address,
			follow_up_date, exercise_time_minutes,
			medicines,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		p.ID,
		p.OwnerUserID,
		p.Name,
		p.UHIDNumber,
		string(p.Gender),
		p.Age,
		p.Phone,
		p.Email,
		p.Address,
		toNullDate(p.FollowUpDate),
		p.ExerciseTimeMinutes,
		meds,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return patients.ErrDuplicateUHID
	}
	return err
}

func (r *PatientsRepo) Update(ctx context.Context, p patients.Patient) error {
	meds, err := medicinesToJSON(p.Medicines)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE patients
		SET
			name = $2,
			gender = $3,
			age = $4,
			phone = $5,
			email = $6,
			address = $7,
			follow_up_date = $8,
			exercise_time_minutes = $9,
			medicines = $10,
			updated_at = $11
		WHERE id = $1
	`,
		p.ID,
		p.Name,
		string(p.Gender),
		p.Age,
		p.Phone,
		p.Email,
		p.Address,
		toNullDate(p.FollowUpDate),
		p.ExerciseTimeMinutes,
		meds,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return patients.ErrNotFound
	}
	return nil
}

func (r *PatientsRepo) GetByID(ctx context.Context, id string) (patients.Patient, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return patients.Patient{}, patients.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, owner_user_id,
			name, uhid_number, gender, age,
			phone, email, address,
			follow_up_date, exercise_time_minutes,
			medicines,
			created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)

	p, err := scanPatient(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return patients.Patient{}, patients.ErrNotFound
		}
		return patients.Patient{}, err
	}
	return p, nil
}

func (r *PatientsRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]patients.Patient, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, owner_user_id,
			name, uhid_number, gender, age,
			phone, email, address,
			follow_up_date, exercise_time_minutes,
			medicines,
			created_at, updated_at
		FROM patients
		WHERE owner_user_id = $1
		ORDER BY created_at ASC
	`, ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]patients.Patient, 0)
	for rows.Next() {
		p, err := scanPatient(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

func scanPatient(scan func(dest ...any) error) (patients.Patient, error) {
	var p patients.Patient
	var gender string
	var followUp sql.NullTime
	var meds []byte

	if err := scan(
		&p.ID,
		&p.OwnerUserID,
		&p.Name,
		&p.UHIDNumber,
		&gender,
		&p.Age,
		&p.Phone,
		&p.Email,
		&p.Address,
		&followUp,
		&p.ExerciseTimeMinutes,
		&meds,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return patients.Patient{}, err
	}

	p.Gender = patients.Gender(gender)
	if followUp.Valid {
		t := followUp.Time
		p.FollowUpDate = &t
	}

	medicines, err := medicinesFromJSON(meds)
	if err != nil {
		return patients.Patient{}, err
	}
	p.Medicines = medicines

	return p, nil
}

// medicinesToJSON serializa los schedules a la forma wire canónica (JSONB).
func medicinesToJSON(meds []*schedule.Schedule) ([]byte, error) {
	out := make([]schedule.Wire, 0, len(meds))
	for _, m := range meds {
		out = append(out, schedule.ToWire(m))
	}
	return json.Marshal(out)
}

// medicinesFromJSON reconstruye schedules desde JSONB. La columna siempre se
// escribe canónica, así que un fallback acá indicaría data corrupta a mano.
func medicinesFromJSON(raw []byte) ([]*schedule.Schedule, error) {
	if len(raw) == 0 {
		return []*schedule.Schedule{}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}

	out := make([]*schedule.Schedule, 0, len(items))
	for _, item := range items {
		s, _, err := schedule.FromWire(item)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// follow_up_date es DATE, lo pasamos como NullTime para simplificar
func toNullDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
