package schedule

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Wire es la forma JSON canónica de un schedule tal como se intercambia con
// clientes y persistencia:
//
//	{ "medicineId": "...", "frequency": 2,
//	  "medicineTimes": ["08:00","20:00"], "medicineDays": [1,3] }
//
// Canónico: frequency como entero, horas como "HH:MM", días como códigos
// 0..6 (domingo=0). El histórico del servicio tiene drift (frequency como
// label "Once daily", horas como datetime ISO, días como "Mon"/"Tue",
// medicineDays null o ausente); todo eso se tolera SOLO en FromWire.
type Wire struct {
	MedicineID    string   `json:"medicineId"`
	Frequency     int      `json:"frequency"`
	MedicineTimes []string `json:"medicineTimes"`
	MedicineDays  []int    `json:"medicineDays"`
	Notes         string   `json:"notes,omitempty"`
}

// DecodeWarning registra un fallback aplicado durante FromWire. No es un
// error: el caller decide loggearlo (nivel warn) sin cortar el flujo.
type DecodeWarning struct {
	Field   string
	Raw     string
	Applied string
}

func (w DecodeWarning) String() string {
	return fmt.Sprintf("%s: %q -> %s", w.Field, w.Raw, w.Applied)
}

// Tabla única int<->label para la representación descriptiva de frecuencia.
// El entero es el canónico; los labels existen solo para display y decode
// de payloads legacy.
var frequencyLabels = map[int]string{
	1: "Once daily",
	2: "Twice daily",
	3: "Three times daily",
	4: "Four times daily",
}

var frequencyByLabel = map[string]int{
	"once daily":        1,
	"twice daily":       2,
	"thrice daily":      3,
	"three times daily": 3,
	"four times daily":  4,
}

// FrequencyLabel devuelve el label descriptivo para n tomas/día.
func FrequencyLabel(n int) string {
	if l, ok := frequencyLabels[n]; ok {
		return l
	}
	return fmt.Sprintf("%d times daily", n)
}

// ParseFrequencyLabel mapea un label descriptivo a su entero canónico.
func ParseFrequencyLabel(s string) (int, bool) {
	n, ok := frequencyByLabel[strings.ToLower(strings.TrimSpace(s))]
	return n, ok
}

// ToWire serializa a la forma canónica.
func ToWire(s *Schedule) Wire {
	times := make([]string, 0, len(s.doseTimes))
	for _, t := range s.doseTimes {
		times = append(times, fmt.Sprintf("%02d:%02d", t.Hour, t.Minute))
	}

	days := make([]int, 0, len(s.days))
	for _, d := range s.ActiveWeekdays() {
		days = append(days, int(d))
	}

	return Wire{
		MedicineID:    s.MedicineID,
		Frequency:     s.frequency,
		MedicineTimes: times,
		MedicineDays:  days,
		Notes:         s.Notes,
	}
}

// rawWire refleja el payload sin asumir tipos: el servicio histórico no
// garantiza haber validado su propia data guardada.
type rawWire struct {
	MedicineID    json.RawMessage   `json:"medicineId"`
	Frequency     json.RawMessage   `json:"frequency"`
	MedicineTimes []json.RawMessage `json:"medicineTimes"`
	MedicineDays  []json.RawMessage `json:"medicineDays"`
	Notes         string            `json:"notes"`
}

// FromWire deserializa un schedule con postura tolerante:
//   - medicineId numérico o string (se normaliza a string);
//   - frequency entero o label descriptivo;
//   - horas "HH:MM" o datetime ISO-8601 (solo importa la hora del día);
//     si no parsea, cae a medianoche en vez de fallar;
//   - medicineDays ausente/null => set vacío, nunca error; códigos enteros
//     o abreviaturas de 3 letras; duplicados se deduplican.
//
// Cada fallback queda registrado en el slice de warnings. Solo un JSON
// estructuralmente inválido (no-objeto) devuelve error.
func FromWire(data []byte) (*Schedule, []DecodeWarning, error) {
	var raw rawWire
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("schedule wire: %w", err)
	}

	var warns []DecodeWarning
	s := &Schedule{
		Notes: strings.TrimSpace(raw.Notes),
		days:  make(map[Weekday]struct{}),
		now:   time.Now,
	}

	s.MedicineID = decodeMedicineID(raw.MedicineID, &warns)

	// Horas de toma: índice por índice, con fallback a 00:00.
	s.doseTimes = make([]DoseTime, 0, len(raw.MedicineTimes))
	for i, rt := range raw.MedicineTimes {
		t, ok := parseDoseTime(rt)
		if !ok {
			warns = append(warns, DecodeWarning{
				Field:   fmt.Sprintf("medicineTimes[%d]", i),
				Raw:     string(rt),
				Applied: "midnight fallback",
			})
			t = DoseTime{}
		}
		s.doseTimes = append(s.doseTimes, t)
	}

	s.frequency = decodeFrequency(raw.Frequency, len(s.doseTimes), &warns)

	// Reconciliar el invariante len(doseTimes) == frequency también en datos
	// históricos: pad con medianoche o truncado de cola, con warning.
	if len(s.doseTimes) != s.frequency {
		warns = append(warns, DecodeWarning{
			Field:   "medicineTimes",
			Raw:     fmt.Sprintf("%d entries for frequency %d", len(s.doseTimes), s.frequency),
			Applied: "resized to frequency",
		})
		for len(s.doseTimes) < s.frequency {
			s.doseTimes = append(s.doseTimes, DoseTime{})
		}
		s.doseTimes = s.doseTimes[:s.frequency]
	}

	for i, rd := range raw.MedicineDays {
		d, ok := parseWeekdayToken(rd)
		if !ok {
			warns = append(warns, DecodeWarning{
				Field:   fmt.Sprintf("medicineDays[%d]", i),
				Raw:     string(rd),
				Applied: "skipped",
			})
			continue
		}
		s.days[d] = struct{}{}
	}

	return s, warns, nil
}

func decodeMedicineID(raw json.RawMessage, warns *[]DecodeWarning) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return strings.TrimSpace(asString)
	}

	// Payloads viejos mandan el id numérico.
	var asNumber json.Number
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return asNumber.String()
	}

	*warns = append(*warns, DecodeWarning{
		Field:   "medicineId",
		Raw:     string(raw),
		Applied: "empty reference",
	})
	return ""
}

func decodeFrequency(raw json.RawMessage, timesLen int, warns *[]DecodeWarning) int {
	fallback := func(reason string) int {
		n := timesLen
		if n < 1 {
			n = 1
		}
		*warns = append(*warns, DecodeWarning{
			Field:   "frequency",
			Raw:     string(raw),
			Applied: fmt.Sprintf("%s, defaulted to %d", reason, n),
		})
		return n
	}

	if len(raw) == 0 || string(raw) == "null" {
		return fallback("missing")
	}

	var asInt int
	if err := json.Unmarshal(raw, &asInt); err == nil {
		if asInt < 1 {
			return fallback("out of range")
		}
		return asInt
	}

	// Flujo de edición legacy: "Once daily", "Twice daily", ...
	var asLabel string
	if err := json.Unmarshal(raw, &asLabel); err == nil {
		if n, ok := ParseFrequencyLabel(asLabel); ok {
			return n
		}
		return fallback("unknown label")
	}

	return fallback("unparsable")
}

// Formatos aceptados para una hora de toma. El histórico guarda datetimes
// ISO completos de los que solo la hora del día es significativa.
var doseTimeLayouts = []string{
	"15:04",
	"15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseDoseTime(raw json.RawMessage) (DoseTime, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return DoseTime{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range doseTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DoseTime{Hour: t.Hour(), Minute: t.Minute()}, true
		}
	}
	return DoseTime{}, false
}

func parseWeekdayToken(raw json.RawMessage) (Weekday, bool) {
	var asInt int
	if err := json.Unmarshal(raw, &asInt); err == nil {
		d := Weekday(asInt)
		return d, d.Valid()
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err != nil {
		return 0, false
	}
	asString = strings.ToLower(strings.TrimSpace(asString))
	if len(asString) < 3 {
		return 0, false
	}
	// "Mon" del flujo de edición, pero también nombres completos.
	prefix := asString[:3]
	for i, abbrev := range weekdayAbbrevs {
		if strings.ToLower(abbrev) == prefix {
			return Weekday(i), true
		}
	}
	return 0, false
}
