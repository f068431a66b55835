package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"cad-care-tracker/internal/domain/caregivers"
)

type CaregiversRepo struct {
	db *sql.DB
}

func NewCaregiversRepo(db *sql.DB) *CaregiversRepo {
	return &CaregiversRepo{db: db}
}

func (r *CaregiversRepo) Create(ctx context.Context, g caregivers.Grant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO caregiver_grants (
			id, patient_id, owner_user_id, caregiver_user_id,
			scopes, status,
			created_at, updated_at, revoked_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		g.ID,
		g.PatientID,
		g.OwnerUserID,
		g.CaregiverUserID,
		scopesToTextArray(g.Scopes),
		string(g.Status),
		g.CreatedAt,
		g.UpdatedAt,
		toNullTime(g.RevokedAt),
	)
	return err
}

func (r *CaregiversRepo) Update(ctx context.Context, g caregivers.Grant) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE caregiver_grants
		SET
			scopes = $2,
			status = $3,
			updated_at = $4,
			revoked_at = $5
		WHERE id = $1
	`,
		g.ID,
		scopesToTextArray(g.Scopes),
		string(g.Status),
		g.UpdatedAt,
		toNullTime(g.RevokedAt),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CaregiversRepo) GetByID(ctx context.Context, id string) (caregivers.Grant, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return caregivers.Grant{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, patient_id, owner_user_id, caregiver_user_id,
			scopes, status,
			created_at, updated_at, revoked_at
		FROM caregiver_grants
		WHERE id = $1
	`, id)

	g, err := scanGrant(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return caregivers.Grant{}, ErrNotFound
		}
		return caregivers.Grant{}, err
	}
	return g, nil
}

func (r *CaregiversRepo) ListByPatient(ctx context.Context, patientID string) ([]caregivers.Grant, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, patient_id, owner_user_id, caregiver_user_id,
			scopes, status,
			created_at, updated_at, revoked_at
		FROM caregiver_grants
		WHERE patient_id = $1
		ORDER BY created_at ASC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectGrants(rows)
}

func (r *CaregiversRepo) ListByCaregiver(ctx context.Context, caregiverUserID string) ([]caregivers.Grant, error) {
	caregiverUserID = strings.TrimSpace(caregiverUserID)
	if caregiverUserID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, patient_id, owner_user_id, caregiver_user_id,
			scopes, status,
			created_at, updated_at, revoked_at
		FROM caregiver_grants
		WHERE caregiver_user_id = $1
		ORDER BY updated_at DESC
	`, caregiverUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectGrants(rows)
}

func (r *CaregiversRepo) GetActiveGrant(ctx context.Context, patientID, caregiverUserID string) (caregivers.Grant, error) {
	patientID = strings.TrimSpace(patientID)
	caregiverUserID = strings.TrimSpace(caregiverUserID)
	if patientID == "" || caregiverUserID == "" {
		return caregivers.Grant{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, patient_id, owner_user_id, caregiver_user_id,
			scopes, status,
			created_at, updated_at, revoked_at
		FROM caregiver_grants
		WHERE patient_id = $1
		  AND caregiver_user_id = $2
		  AND status = 'active'
		ORDER BY updated_at DESC
		LIMIT 1
	`, patientID, caregiverUserID)

	g, err := scanGrant(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return caregivers.Grant{}, ErrNotFound
		}
		return caregivers.Grant{}, err
	}
	return g, nil
}

func scanGrant(scan func(dest ...any) error) (caregivers.Grant, error) {
	var g caregivers.Grant
	var status string
	var scopes []string
	var revokedAt sql.NullTime

	if err := scan(
		&g.ID,
		&g.PatientID,
		&g.OwnerUserID,
		&g.CaregiverUserID,
		&scopes,
		&status,
		&g.CreatedAt,
		&g.UpdatedAt,
		&revokedAt,
	); err != nil {
		return caregivers.Grant{}, err
	}

	g.Status = caregivers.Status(status)
	g.Scopes = textArrayToScopes(scopes)
	if revokedAt.Valid {
		t := revokedAt.Time
		g.RevokedAt = &t
	}

	return g, nil
}

func collectGrants(rows *sql.Rows) ([]caregivers.Grant, error) {
	out := make([]caregivers.Grant, 0)
	for rows.Next() {
		g, err := scanGrant(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// helpers
func scopesToTextArray(in []caregivers.Scope) []string {
	if len(in) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, string(s))
	}
	return out
}

func textArrayToScopes(in []string) []caregivers.Scope {
	if len(in) == 0 {
		return []caregivers.Scope{}
	}
	out := make([]caregivers.Scope, 0, len(in))
	for _, s := range in {
		out = append(out, caregivers.Scope(s))
	}
	return out
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
