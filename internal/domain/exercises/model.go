package exercises

import "time"

// Intensity clasifica el esfuerzo del ejercicio de rehabilitación cardíaca.
type Intensity string

const (
	IntensityLow      Intensity = "low"
	IntensityModerate Intensity = "moderate"
)

// Exercise es un video de la biblioteca de rehabilitación.
// El contenido es curado por el equipo clínico; la API solo lo sirve.
type Exercise struct {
	ID              string
	Title           string
	Description     string
	VideoURL        string
	DurationMinutes int
	Intensity       Intensity
	CreatedAt       time.Time
}
