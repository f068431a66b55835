package schedule

import (
	"sort"
	"time"

	"cad-care-tracker/internal/domain/catalog"
)

// Weekday usa la convención del flujo de alta: 0=domingo .. 6=sábado.
// Los códigos de 3 letras ("Mon", "Tue", ...) solo existen en el adapter de wire.
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayAbbrevs = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Valid indica si el código está en el rango 0..6.
func (d Weekday) Valid() bool {
	return d >= Sunday && d <= Saturday
}

// Abbrev devuelve el código de 3 letras para display / formato legacy.
func (d Weekday) Abbrev() string {
	if !d.Valid() {
		return ""
	}
	return weekdayAbbrevs[d]
}

// DoseTime es una hora de pared (timezone-naive) de una toma.
type DoseTime struct {
	Hour   int // 0..23
	Minute int // 0..59
}

// Valid indica si la hora está en rango.
func (t DoseTime) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

// Schedule es el borrador en memoria de un medicamento recetado:
// referencia al catálogo + frecuencia diaria + horas de toma + días activos.
//
// frequency y doseTimes son privados a propósito: el invariante
// len(doseTimes) == frequency solo se puede tocar vía SetFrequency/SetDoseTime,
// nunca por mutación directa de campos.
type Schedule struct {
	MedicineID string
	Notes      string

	frequency int
	doseTimes []DoseTime
	days      map[Weekday]struct{}

	now func() time.Time
}

// New crea un borrador con los defaults del flujo de alta:
// frecuencia 1 y una única toma a la hora actual.
func New(medicineID string) *Schedule {
	return newSchedule(medicineID, time.Now)
}

func newSchedule(medicineID string, now func() time.Time) *Schedule {
	if now == nil {
		now = time.Now
	}
	s := &Schedule{
		MedicineID: medicineID,
		frequency:  1,
		days:       make(map[Weekday]struct{}),
		now:        now,
	}
	s.doseTimes = []DoseTime{s.nowDose()}
	return s
}

func (s *Schedule) nowDose() DoseTime {
	t := s.nowFn()()
	return DoseTime{Hour: t.Hour(), Minute: t.Minute()}
}

func (s *Schedule) nowFn() func() time.Time {
	if s.now == nil {
		return time.Now
	}
	return s.now
}

// Frequency devuelve las tomas por día.
func (s *Schedule) Frequency() int { return s.frequency }

// DoseTimes devuelve una copia de las horas de toma, ordenadas por índice de
// toma (1ra, 2da, ...), NO por valor horario: la toma #1 puede ser más tarde
// que la #2 y eso es decisión del usuario.
func (s *Schedule) DoseTimes() []DoseTime {
	out := make([]DoseTime, len(s.doseTimes))
	copy(out, s.doseTimes)
	return out
}

// ActiveWeekdays devuelve los días activos en orden canónico de semana
// (Sun..Sat). Internamente es un set; el orden es solo de presentación.
func (s *Schedule) ActiveWeekdays() []Weekday {
	out := make([]Weekday, 0, len(s.days))
	for d := range s.days {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HasWeekday indica si el día está activo.
func (s *Schedule) HasWeekday(d Weekday) bool {
	_, ok := s.days[d]
	return ok
}

// Equal compara campo a campo (ignora el reloj inyectado).
func (s *Schedule) Equal(o *Schedule) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.MedicineID != o.MedicineID || s.Notes != o.Notes || s.frequency != o.frequency {
		return false
	}
	if len(s.doseTimes) != len(o.doseTimes) {
		return false
	}
	for i := range s.doseTimes {
		if s.doseTimes[i] != o.doseTimes[i] {
			return false
		}
	}
	if len(s.days) != len(o.days) {
		return false
	}
	for d := range s.days {
		if _, ok := o.days[d]; !ok {
			return false
		}
	}
	return true
}

// resolves indica si MedicineID apunta a una entrada del snapshot de catálogo.
func (s *Schedule) resolves(entries []catalog.Entry) bool {
	for _, e := range entries {
		if e.ID == s.MedicineID {
			return true
		}
	}
	return false
}
