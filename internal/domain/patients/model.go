package patients

import (
	"time"

	"cad-care-tracker/internal/domain/schedule"
)

// Gender define el género registrado del paciente.
// @Enum male, female, other
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Patient representa la ficha de un paciente CAD registrada en el sistema.
type Patient struct {
	ID          string
	OwnerUserID string // usuario (cuidador o el propio paciente) que creó la ficha

	Name       string
	UHIDNumber string // ID hospitalario, único por paciente
	Gender     Gender
	Age        int

	Phone   string
	Email   string
	Address string

	FollowUpDate        *time.Time
	ExerciseTimeMinutes int

	// Medicamentos recetados con su schedule de tomas.
	Medicines []*schedule.Schedule

	CreatedAt time.Time
	UpdatedAt time.Time
}
