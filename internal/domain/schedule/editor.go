package schedule

import (
	"errors"
	"time"

	"cad-care-tracker/internal/domain/catalog"
)

var (
	// ErrCatalogUnavailable: no hay catálogo cargado; el caller debe
	// re-fetchear el catálogo antes de agregar medicamentos.
	ErrCatalogUnavailable = errors.New("catalog not loaded")

	// ErrIndexOutOfRange señala un bug del caller (referenciar una toma que
	// ya no existe tras un cambio de frecuencia). Nunca corrompe estado.
	ErrIndexOutOfRange = errors.New("dose index out of range")

	// ErrInvalidFrequency: la frecuencia debe ser >= 1.
	ErrInvalidFrequency = errors.New("frequency must be >= 1")
)

// Editor mantiene la lista de borradores de schedules de UN paciente durante
// una sesión de edición. Opera sobre un snapshot inmutable del catálogo
// (sin refresh en vivo) y nunca hace I/O: persistir o descartar es del caller.
type Editor struct {
	entries []catalog.Entry
	drafts  []*Schedule
	now     func() time.Time
}

// NewEditor crea un editor sobre el snapshot de catálogo dado.
func NewEditor(entries []catalog.Entry) *Editor {
	return &Editor{
		entries: entries,
		now:     time.Now,
	}
}

// Catalog devuelve el snapshot con el que se abrió la sesión.
func (e *Editor) Catalog() []catalog.Entry { return e.entries }

// Drafts devuelve la lista de borradores actual.
func (e *Editor) Drafts() []*Schedule { return e.drafts }

// Add crea un borrador nuevo y lo agrega a la lista:
// medicamento = primera entrada del catálogo, frecuencia 1, una toma "ahora",
// sin días activos. Si el catálogo está vacío se rechaza con
// ErrCatalogUnavailable en vez de producir una referencia indefinida.
func (e *Editor) Add() (*Schedule, error) {
	if len(e.entries) == 0 {
		return nil, ErrCatalogUnavailable
	}
	s := newSchedule(e.entries[0].ID, e.now)
	e.drafts = append(e.drafts, s)
	return s, nil
}

// Adopt agrega un borrador ya construido (p.ej. deserializado de wire) a la
// sesión, inyectándole el reloj del editor.
func (e *Editor) Adopt(s *Schedule) {
	if s == nil {
		return
	}
	s.now = e.now
	e.drafts = append(e.drafts, s)
}

// Remove saca el borrador en index. Index fuera de rango es no-op silencioso:
// la UI solo debería pasar índices válidos y esto es robustez menor, no error.
func (e *Editor) Remove(index int) {
	if index < 0 || index >= len(e.drafts) {
		return
	}
	e.drafts = append(e.drafts[:index], e.drafts[index+1:]...)
}

// Validate valida todos los borradores contra el snapshot de la sesión.
func (e *Editor) Validate() []ValidationResult {
	out := make([]ValidationResult, 0, len(e.drafts))
	for _, s := range e.drafts {
		out = append(out, s.Validate(e.entries))
	}
	return out
}

// SetFrequency redimensiona doseTimes a n tomas:
//   - crecer: agrega tomas al final con la hora actual;
//   - achicar: trunca desde el final. Se truncan las tomas de mayor índice
//     para que la hora de la toma #1 nunca se reasigne en silencio a la que
//     era de la toma #2.
func (s *Schedule) SetFrequency(n int) error {
	if n < 1 {
		return ErrInvalidFrequency
	}
	switch {
	case n > len(s.doseTimes):
		for len(s.doseTimes) < n {
			s.doseTimes = append(s.doseTimes, s.nowDose())
		}
	case n < len(s.doseTimes):
		s.doseTimes = s.doseTimes[:n]
	}
	s.frequency = n
	return nil
}

// SetDoseTime fija la hora de la toma i. Fuera de rango devuelve
// ErrIndexOutOfRange sin tocar nada: es señal de desync de estado del caller.
func (s *Schedule) SetDoseTime(i int, t DoseTime) error {
	if i < 0 || i >= len(s.doseTimes) {
		return ErrIndexOutOfRange
	}
	if !t.Valid() {
		return ErrIndexOutOfRange
	}
	s.doseTimes[i] = t
	return nil
}

// ToggleWeekday agrega el día si no está, lo saca si está.
// Doble toggle es no-op.
func (s *Schedule) ToggleWeekday(d Weekday) {
	if !d.Valid() {
		return
	}
	if s.days == nil {
		s.days = make(map[Weekday]struct{})
	}
	if _, ok := s.days[d]; ok {
		delete(s.days, d)
		return
	}
	s.days[d] = struct{}{}
}

// ValidationIssue identifica la primera regla que falla al validar.
type ValidationIssue string

const (
	IssueMissingMedicineReference ValidationIssue = "missing_medicine_reference"
	IssueInvalidFrequency         ValidationIssue = "invalid_frequency"
	IssueDoseTimeCountMismatch    ValidationIssue = "dose_time_count_mismatch"
)

// ValidationWarning es una observación que no bloquea el submit.
type ValidationWarning string

// WarnNoActiveDays: schedule sin ningún día activo ("nunca se administra").
// Queda como warning y no como error: puede ser un medicamento "a demanda".
const WarnNoActiveDays ValidationWarning = "no_active_days"

// ValidationResult es el resultado tipado de Validate. Los fallos de
// validación son estados esperados de input de usuario, no excepciones:
// siempre se devuelven como data.
type ValidationResult struct {
	Issue    ValidationIssue
	Warnings []ValidationWarning
}

// OK indica que el borrador es válido para submit (ignora warnings).
func (r ValidationResult) OK() bool { return r.Issue == "" }

// Validate chequea, en orden: referencia de medicamento presente y resoluble
// contra el catálogo; frecuencia >= 1; len(doseTimes) == frequency.
// Devuelve el primer chequeo que falla, sin agregar múltiples errores.
//
// El mismatch de conteo no debería dispararse nunca si se usan los mutators:
// existe para atrapar corrupción de estado por construcción directa.
func (s *Schedule) Validate(entries []catalog.Entry) ValidationResult {
	var r ValidationResult

	if s.MedicineID == "" || !s.resolves(entries) {
		r.Issue = IssueMissingMedicineReference
		return r
	}
	if s.frequency < 1 {
		r.Issue = IssueInvalidFrequency
		return r
	}
	if len(s.doseTimes) != s.frequency {
		r.Issue = IssueDoseTimeCountMismatch
		return r
	}

	if len(s.days) == 0 {
		r.Warnings = append(r.Warnings, WarnNoActiveDays)
	}
	return r
}
