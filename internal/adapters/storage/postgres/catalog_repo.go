package postgres

import (
	"context"
	"database/sql"
	"strings"

	"cad-care-tracker/internal/domain/catalog"
)

type CatalogRepo struct {
	db *sql.DB
}

func NewCatalogRepo(db *sql.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

func (r *CatalogRepo) Create(ctx context.Context, e catalog.Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medicines (
			id, name, dose, dose_unit, clinical_notes,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		e.ID,
		e.Name,
		e.Dose,
		string(e.DoseUnit),
		e.ClinicalNotes,
		e.CreatedAt,
		e.UpdatedAt,
	)
	return err
}

func (r *CatalogRepo) Upsert(ctx context.Context, e catalog.Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medicines (
			id, name, dose, dose_unit, clinical_notes,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			dose = EXCLUDED.dose,
			dose_unit = EXCLUDED.dose_unit,
			clinical_notes = EXCLUDED.clinical_notes,
			updated_at = EXCLUDED.updated_at
	`,
		e.ID,
		e.Name,
		e.Dose,
		string(e.DoseUnit),
		e.ClinicalNotes,
		e.CreatedAt,
		e.UpdatedAt,
	)
	return err
}

func (r *CatalogRepo) GetByID(ctx context.Context, id string) (catalog.Entry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return catalog.Entry{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, dose, dose_unit, clinical_notes, created_at, updated_at
		FROM medicines
		WHERE id = $1
	`, id)

	var e catalog.Entry
	var unit string
	if err := row.Scan(
		&e.ID,
		&e.Name,
		&e.Dose,
		&unit,
		&e.ClinicalNotes,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return catalog.Entry{}, ErrNotFound
		}
		return catalog.Entry{}, err
	}

	e.DoseUnit = catalog.DoseUnit(unit)
	return e, nil
}

func (r *CatalogRepo) List(ctx context.Context) ([]catalog.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, dose, dose_unit, clinical_notes, created_at, updated_at
		FROM medicines
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]catalog.Entry, 0)
	for rows.Next() {
		var e catalog.Entry
		var unit string
		if err := rows.Scan(
			&e.ID,
			&e.Name,
			&e.Dose,
			&unit,
			&e.ClinicalNotes,
			&e.CreatedAt,
			&e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		e.DoseUnit = catalog.DoseUnit(unit)
		out = append(out, e)
	}

	return out, rows.Err()
}
