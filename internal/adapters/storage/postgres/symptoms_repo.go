package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"cad-care-tracker/internal/domain/symptoms"
)

type SymptomsRepo struct {
	db *sql.DB
}

func NewSymptomsRepo(db *sql.DB) *SymptomsRepo {
	return &SymptomsRepo{db: db}
}

func (r *SymptomsRepo) Create(ctx context.Context, e symptoms.Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO symptom_entries (
			id, patient_id,
			name, severity,
			occurred_at, recorded_at,
			recorded_by_user_id, notes,
			status, voided_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		e.ID,
		e.PatientID,
		e.Name,
		string(e.Severity),
		e.OccurredAt,
		e.RecordedAt,
		e.RecordedByUserID,
		e.Notes,
		string(e.Status),
		toNullTime(e.VoidedAt),
	)
	return err
}

func (r *SymptomsRepo) GetByID(ctx context.Context, id string) (symptoms.Entry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return symptoms.Entry{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, patient_id,
			name, severity,
			occurred_at, recorded_at,
			recorded_by_user_id, notes,
			status, voided_at
		FROM symptom_entries
		WHERE id = $1
	`, id)

	e, err := scanSymptom(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return symptoms.Entry{}, ErrNotFound
		}
		return symptoms.Entry{}, err
	}
	return e, nil
}

func (r *SymptomsRepo) ListByPatient(ctx context.Context, patientID string, filter symptoms.ListFilter) ([]symptoms.Entry, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, nil
	}

	sb := strings.Builder{}
	sb.WriteString(`
		SELECT
			id, patient_id,
			name, severity,
			occurred_at, recorded_at,
			recorded_by_user_id, notes,
			status, voided_at
		FROM symptom_entries
		WHERE patient_id = $1
	`)

	args := []any{patientID}
	argN := 2

	if !filter.IncludeVoided {
		sb.WriteString(" AND status = 'active'")
	}

	if len(filter.Severities) > 0 {
		placeholders := make([]string, 0, len(filter.Severities))
		for _, sv := range filter.Severities {
			placeholders = append(placeholders, fmt.Sprintf("$%d", argN))
			args = append(args, string(sv))
			argN++
		}
		sb.WriteString(" AND severity IN (" + strings.Join(placeholders, ",") + ")")
	}

	if filter.From != nil {
		sb.WriteString(fmt.Sprintf(" AND occurred_at >= $%d", argN))
		args = append(args, *filter.From)
		argN++
	}
	if filter.To != nil {
		sb.WriteString(fmt.Sprintf(" AND occurred_at <= $%d", argN))
		args = append(args, *filter.To)
		argN++
	}

	// q: búsqueda simple en name + notes
	if strings.TrimSpace(filter.Query) != "" {
		sb.WriteString(fmt.Sprintf(" AND (name ILIKE $%d OR notes ILIKE $%d)", argN, argN))
		args = append(args, "%"+strings.TrimSpace(filter.Query)+"%")
		argN++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	sb.WriteString(" ORDER BY occurred_at DESC")
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", argN))
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]symptoms.Entry, 0)
	for rows.Next() {
		e, err := scanSymptom(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}

	return out, rows.Err()
}

func (r *SymptomsRepo) Void(ctx context.Context, id string, voidedAt time.Time) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNotFound
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE symptom_entries
		SET status = 'voided', voided_at = $2
		WHERE id = $1
	`, id, voidedAt)
	if err != nil {
		return err
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSymptom(scan func(dest ...any) error) (symptoms.Entry, error) {
	var e symptoms.Entry
	var severity, status string
	var voidedAt sql.NullTime

	if err := scan(
		&e.ID,
		&e.PatientID,
		&e.Name,
		&severity,
		&e.OccurredAt,
		&e.RecordedAt,
		&e.RecordedByUserID,
		&e.Notes,
		&status,
		&voidedAt,
	); err != nil {
		return symptoms.Entry{}, err
	}

	e.Severity = symptoms.Severity(severity)
	e.Status = symptoms.Status(status)
	if voidedAt.Valid {
		t := voidedAt.Time
		e.VoidedAt = &t
	}

	return e, nil
}
