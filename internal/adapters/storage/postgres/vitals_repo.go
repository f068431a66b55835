package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"cad-care-tracker/internal/domain/vitals"
)

type VitalsRepo struct {
	db *sql.DB
}

func NewVitalsRepo(db *sql.DB) *VitalsRepo {
	return &VitalsRepo{db: db}
}

func (r *VitalsRepo) Create(ctx context.Context, rd vitals.Reading) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vital_readings (
			id, patient_id,
			type, systolic, diastolic, value, unit, sugar_context,
			measured_at, recorded_at,
			recorded_by_user_id, notes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		rd.ID,
		rd.PatientID,
		string(rd.Type),
		rd.Systolic,
		rd.Diastolic,
		rd.Value,
		rd.Unit,
		string(rd.SugarContext),
		rd.MeasuredAt,
		rd.RecordedAt,
		rd.RecordedByUserID,
		rd.Notes,
	)
	return err
}

func (r *VitalsRepo) GetByID(ctx context.Context, id string) (vitals.Reading, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return vitals.Reading{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, patient_id,
			type, systolic, diastolic, value, unit, sugar_context,
			measured_at, recorded_at,
			recorded_by_user_id, notes
		FROM vital_readings
		WHERE id = $1
	`, id)

	var rd vitals.Reading
	var typ, sugarCtx string
	if err := row.Scan(
		&rd.ID,
		&rd.PatientID,
		&typ,
		&rd.Systolic,
		&rd.Diastolic,
		&rd.Value,
		&rd.Unit,
		&sugarCtx,
		&rd.MeasuredAt,
		&rd.RecordedAt,
		&rd.RecordedByUserID,
		&rd.Notes,
	); err != nil {
		if err == sql.ErrNoRows {
			return vitals.Reading{}, ErrNotFound
		}
		return vitals.Reading{}, err
	}

	rd.Type = vitals.VitalType(typ)
	rd.SugarContext = vitals.SugarContext(sugarCtx)

	return rd, nil
}

func (r *VitalsRepo) ListByPatient(ctx context.Context, patientID string, filter vitals.ListFilter) ([]vitals.Reading, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, nil
	}

	sb := strings.Builder{}
	sb.WriteString(`
		SELECT
			id, patient_id,
			type, systolic, diastolic, value, unit, sugar_context,
			measured_at, recorded_at,
			recorded_by_user_id, notes
		FROM vital_readings
		WHERE patient_id = $1
	`)

	args := []any{patientID}
	argN := 2

	if len(filter.Types) > 0 {
		placeholders := make([]string, 0, len(filter.Types))
		for _, t := range filter.Types {
			placeholders = append(placeholders, fmt.Sprintf("$%d", argN))
			args = append(args, string(t))
			argN++
		}
		sb.WriteString(" AND type IN (" + strings.Join(placeholders, ",") + ")")
	}

	if filter.From != nil {
		sb.WriteString(fmt.Sprintf(" AND measured_at >= $%d", argN))
		args = append(args, *filter.From)
		argN++
	}
	if filter.To != nil {
		sb.WriteString(fmt.Sprintf(" AND measured_at <= $%d", argN))
		args = append(args, *filter.To)
		argN++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	sb.WriteString(" ORDER BY measured_at DESC")
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", argN))
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]vitals.Reading, 0)
	for rows.Next() {
		var rd vitals.Reading
		var typ, sugarCtx string

		if err := rows.Scan(
			&rd.ID,
			&rd.PatientID,
			&typ,
			&rd.Systolic,
			&rd.Diastolic,
			&rd.Value,
			&rd.Unit,
			&sugarCtx,
			&rd.MeasuredAt,
			&rd.RecordedAt,
			&rd.RecordedByUserID,
			&rd.Notes,
		); err != nil {
			return nil, err
		}

		rd.Type = vitals.VitalType(typ)
		rd.SugarContext = vitals.SugarContext(sugarCtx)

		out = append(out, rd)
	}

	return out, rows.Err()
}
