package vitals

import "time"

// VitalType define los tipos de medición soportados.
type VitalType string

const (
	TypeBloodPressure VitalType = "blood_pressure"
	TypeBloodSugar    VitalType = "blood_sugar"
	TypeWeight        VitalType = "weight"
	TypeHeight        VitalType = "height"
)

func IsValidVitalType(t VitalType) bool {
	switch t {
	case TypeBloodPressure, TypeBloodSugar, TypeWeight, TypeHeight:
		return true
	default:
		return false
	}
}

// SugarContext indica cuándo se tomó la glucosa (solo blood_sugar).
type SugarContext string

const (
	SugarFasting      SugarContext = "fasting"
	SugarPostprandial SugarContext = "postprandial"
	SugarRandom       SugarContext = "random"
)

// Reading es una medición de signo vital del paciente.
// Para blood_pressure aplican Systolic/Diastolic; para el resto, Value+Unit.
type Reading struct {
	ID        string
	PatientID string

	Type VitalType

	Systolic  int
	Diastolic int

	Value float64
	Unit  string

	SugarContext SugarContext

	MeasuredAt time.Time
	RecordedAt time.Time

	RecordedByUserID string
	Notes            string
}
