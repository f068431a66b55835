package schedule

import (
	"encoding/json"
	"testing"
)

func TestFromWire_RoundTrip(t *testing.T) {
	e := newTestEditor(t)
	s, _ := e.Add()
	_ = s.SetFrequency(3)
	_ = s.SetDoseTime(0, DoseTime{Hour: 22, Minute: 30}) // toma #1 más tarde que #2: se preserva el orden por índice
	_ = s.SetDoseTime(1, DoseTime{Hour: 7, Minute: 0})
	_ = s.SetDoseTime(2, DoseTime{Hour: 13, Minute: 15})
	s.ToggleWeekday(Tuesday)
	s.ToggleWeekday(Saturday)
	s.Notes = "after meals"

	b, err := json.Marshal(ToWire(s))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, warns, err := FromWire(b)
	if err != nil {
		t.Fatalf("from wire: %v", err)
	}
	if len(warns) != 0 {
		t.Fatalf("canonical payload must decode without fallbacks, got %v", warns)
	}
	if !got.Equal(s) {
		t.Fatalf("round trip mismatch:\n in: %+v\nout: %+v", ToWire(s), ToWire(got))
	}
}

func TestFromWire_DescriptiveFrequencyLabel(t *testing.T) {
	// Flujo de edición legacy: frequency como label descriptivo.
	payload := []byte(`{
		"medicineId": "7",
		"frequency": "Twice daily",
		"medicineTimes": ["08:00", "20:00"],
		"medicineDays": ["Mon", "Wed"]
	}`)

	s, warns, err := FromWire(payload)
	if err != nil {
		t.Fatalf("from wire: %v", err)
	}
	if len(warns) != 0 {
		t.Fatalf("known label must not apply fallbacks, got %v", warns)
	}
	if s.Frequency() != 2 {
		t.Fatalf("expected frequency 2 from label, got %d", s.Frequency())
	}
	if !s.HasWeekday(Monday) || !s.HasWeekday(Wednesday) || len(s.ActiveWeekdays()) != 2 {
		t.Fatalf("expected {Mon, Wed}, got %v", s.ActiveWeekdays())
	}

	// Re-encode canónico: entero y códigos 0..6.
	w := ToWire(s)
	if w.Frequency != 2 {
		t.Fatalf("canonical re-encode must be the integer, got %d", w.Frequency)
	}
	if len(w.MedicineDays) != 2 || w.MedicineDays[0] != 1 || w.MedicineDays[1] != 3 {
		t.Fatalf("expected canonical day codes [1 3], got %v", w.MedicineDays)
	}
}

func TestFromWire_TolerantDecode(t *testing.T) {
	// Caso del histórico: hora no parseable, id numérico, days null.
	payload := []byte(`{
		"medicineId": 5,
		"frequency": 2,
		"medicineTimes": ["not-a-date", "08:30"],
		"medicineDays": null
	}`)

	s, warns, err := FromWire(payload)
	if err != nil {
		t.Fatalf("tolerant decode must not fail: %v", err)
	}

	if s.MedicineID != "5" {
		t.Fatalf("numeric id must normalize to string, got %q", s.MedicineID)
	}

	times := s.DoseTimes()
	if len(times) != 2 {
		t.Fatalf("expected 2 dose slots, got %d", len(times))
	}
	if times[0] != (DoseTime{}) {
		t.Fatalf("unparsable time must fall back to midnight, got %v", times[0])
	}
	if times[1] != (DoseTime{Hour: 8, Minute: 30}) {
		t.Fatalf("expected 08:30, got %v", times[1])
	}

	if len(s.ActiveWeekdays()) != 0 {
		t.Fatalf("null medicineDays must normalize to empty set")
	}

	if len(warns) != 1 {
		t.Fatalf("expected exactly the midnight fallback warning, got %v", warns)
	}
}

func TestFromWire_ISODatetimeTimes(t *testing.T) {
	payload := []byte(`{
		"medicineId": "7",
		"frequency": 2,
		"medicineTimes": ["2024-11-02T08:00:00Z", "2024-11-02T20:15:00+05:30"]
	}`)

	s, warns, err := FromWire(payload)
	if err != nil {
		t.Fatalf("from wire: %v", err)
	}
	if len(warns) != 0 {
		t.Fatalf("ISO datetimes are a supported legacy shape, got %v", warns)
	}

	times := s.DoseTimes()
	if times[0] != (DoseTime{Hour: 8, Minute: 0}) {
		t.Fatalf("expected 08:00, got %v", times[0])
	}
	// Solo importa la hora de pared tal cual viene, sin conversión de zona.
	if times[1] != (DoseTime{Hour: 20, Minute: 15}) {
		t.Fatalf("expected 20:15, got %v", times[1])
	}
}

func TestFromWire_AbsentDaysAndCountMismatch(t *testing.T) {
	payload := []byte(`{
		"medicineId": "12",
		"frequency": 3,
		"medicineTimes": ["08:00"]
	}`)

	s, warns, err := FromWire(payload)
	if err != nil {
		t.Fatalf("from wire: %v", err)
	}

	// Ausente => set vacío, sin warning por eso.
	if len(s.ActiveWeekdays()) != 0 {
		t.Fatalf("absent medicineDays must normalize to empty set")
	}

	// El invariante se reconcilia con padding a medianoche, con warning.
	if s.Frequency() != 3 || len(s.DoseTimes()) != 3 {
		t.Fatalf("invariant must hold after decode: freq=%d times=%d", s.Frequency(), len(s.DoseTimes()))
	}
	if len(warns) != 1 {
		t.Fatalf("expected resize warning, got %v", warns)
	}
}

func TestFromWire_InvalidDayTokensSkipped(t *testing.T) {
	payload := []byte(`{
		"medicineId": "7",
		"frequency": 1,
		"medicineTimes": ["09:00"],
		"medicineDays": [1, 9, "xx", "friday", 1]
	}`)

	s, warns, err := FromWire(payload)
	if err != nil {
		t.Fatalf("from wire: %v", err)
	}

	got := s.ActiveWeekdays()
	want := []Weekday{Monday, Friday}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v (dedup + skip invalid), got %v", want, got)
	}
	if len(warns) != 2 {
		t.Fatalf("expected warnings for the two invalid tokens, got %v", warns)
	}
}

func TestFrequencyLabelTable(t *testing.T) {
	cases := map[int]string{
		1: "Once daily",
		2: "Twice daily",
		3: "Three times daily",
		4: "Four times daily",
	}
	for n, label := range cases {
		if got := FrequencyLabel(n); got != label {
			t.Fatalf("label for %d: expected %q, got %q", n, label, got)
		}
		back, ok := ParseFrequencyLabel(label)
		if !ok || back != n {
			t.Fatalf("label %q must map back to %d, got %d (%v)", label, n, back, ok)
		}
	}

	// "Thrice daily" es un alias legacy de 3.
	if n, ok := ParseFrequencyLabel("thrice daily"); !ok || n != 3 {
		t.Fatalf("expected thrice daily => 3, got %d (%v)", n, ok)
	}
	if got := FrequencyLabel(6); got != "6 times daily" {
		t.Fatalf("out-of-table labels are synthesized, got %q", got)
	}
}
