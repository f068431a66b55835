package catalog

import "time"

// DoseUnit define las unidades de dosis soportadas por el catálogo.
// @Enum mg, mcg, g, ml, IU, mEq
type DoseUnit string

const (
	UnitMg  DoseUnit = "mg"
	UnitMcg DoseUnit = "mcg"
	UnitG   DoseUnit = "g"
	UnitMl  DoseUnit = "ml"
	UnitIU  DoseUnit = "IU"
	UnitMEq DoseUnit = "mEq"
)

// IsValidDoseUnit valida contra el set cerrado de unidades.
func IsValidDoseUnit(u DoseUnit) bool {
	switch u {
	case UnitMg, UnitMcg, UnitG, UnitMl, UnitIU, UnitMEq:
		return true
	default:
		return false
	}
}

// Entry representa un medicamento prescribible del catálogo.
// Es read-only para el flujo de schedules: los pacientes lo referencian por ID.
type Entry struct {
	ID   string
	Name string

	Dose     float64
	DoseUnit DoseUnit

	// Notas clínicas del medicamento en sí (no confundir con las notas
	// por-paciente que viven en el schedule).
	ClinicalNotes string

	CreatedAt time.Time
	UpdatedAt time.Time
}
