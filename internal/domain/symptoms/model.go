package symptoms

import "time"

// Severity gradúa el síntoma reportado.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

func IsValidSeverity(s Severity) bool {
	switch s {
	case SeverityMild, SeverityModerate, SeveritySevere:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusActive Status = "active"
	StatusVoided Status = "voided"
)

// Entry es un síntoma reportado por el paciente o su cuidador.
// Los registros nunca se borran: se anulan (void) para conservar historial.
type Entry struct {
	ID        string
	PatientID string

	Name     string
	Severity Severity

	OccurredAt time.Time
	RecordedAt time.Time

	RecordedByUserID string
	Notes            string

	Status   Status
	VoidedAt *time.Time
}
