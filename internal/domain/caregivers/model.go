package caregivers

import "time"

// Scope define qué puede hacer un cuidador sobre la ficha de un paciente.
type Scope string

const (
	ScopePatientRead    Scope = "patient:read"
	ScopePatientEdit    Scope = "patient:edit"
	ScopeVitalsRead     Scope = "vitals:read"
	ScopeVitalsCreate   Scope = "vitals:create"
	ScopeSymptomsRead   Scope = "symptoms:read"
	ScopeSymptomsCreate Scope = "symptoms:create"
	ScopeSymptomsVoid   Scope = "symptoms:void"
)

type Status string

const (
	StatusInvited Status = "invited"
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
)

// Grant representa el acceso de un cuidador a la ficha de un paciente.
type Grant struct {
	ID string

	PatientID string

	OwnerUserID     string // quien comparte la ficha
	CaregiverUserID string // cuidador delegado

	Scopes []Scope
	Status Status

	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
