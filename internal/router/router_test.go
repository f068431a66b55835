package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cad-care-tracker/internal/domain/caregivers"
	"cad-care-tracker/internal/router"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	handler, _ := router.NewRouter(router.Options{AuthVerifier: nil})
	return httptest.NewServer(handler)
}

func TestHTTP_EndToEnd_CaregiverScopes(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	ownerID := "owner-1"
	caregiverID := "caregiver-1"

	// 1) Owner registra paciente con un schedule de Aspirin (seed id "1")
	patientID := createPatient(t, ts.URL, ownerID, map[string]any{
		"name":        "Ravi Kumar",
		"uhid_number": "UHID-2025-001",
		"gender":      "male",
		"age":         58,
		"medicines": []map[string]any{
			{
				"medicineId":    "1",
				"frequency":     2,
				"medicineTimes": []string{"08:00", "20:00"},
				"medicineDays":  []int{1, 3},
			},
		},
	})

	// 2) Cuidador NO puede ver la ficha aún
	{
		st, _ := doReq(t, ts.URL, "GET", "/patients/"+patientID, caregiverID, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 before grant, got %d", st)
		}
	}

	// 3) Owner invita cuidador con los scopes necesarios
	grantID := inviteGrant(t, ts.URL, ownerID, patientID, caregiverID, []string{
		string(caregivers.ScopePatientRead),
		string(caregivers.ScopePatientEdit),
		string(caregivers.ScopeVitalsRead),
		string(caregivers.ScopeVitalsCreate),
		string(caregivers.ScopeSymptomsRead),
		string(caregivers.ScopeSymptomsCreate),
		string(caregivers.ScopeSymptomsVoid),
	})

	// 4) Cuidador ve su invitación
	{
		st, body := doReq(t, ts.URL, "GET", "/me/grants", caregiverID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 listing my grants, got %d body=%s", st, string(body))
		}
	}

	// 5) Cuidador acepta
	{
		st, body := doReq(t, ts.URL, "POST", "/grants/"+grantID+"/accept", caregiverID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 accept grant, got %d body=%s", st, string(body))
		}
	}

	// 6) Cuidador ya puede ver la ficha, con schedules en forma wire canónica
	{
		st, body := doReq(t, ts.URL, "GET", "/patients/"+patientID, caregiverID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get patient by caregiver, got %d body=%s", st, string(body))
		}

		var resp struct {
			Medicines []struct {
				MedicineID    string   `json:"medicineId"`
				Frequency     int      `json:"frequency"`
				MedicineTimes []string `json:"medicineTimes"`
				MedicineDays  []int    `json:"medicineDays"`
			} `json:"medicines"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			t.Fatalf("unmarshal patient: %v", err)
		}
		if len(resp.Medicines) != 1 {
			t.Fatalf("expected 1 medicine, got %d", len(resp.Medicines))
		}
		m := resp.Medicines[0]
		if m.MedicineID != "1" || m.Frequency != 2 {
			t.Fatalf("unexpected schedule: %+v", m)
		}
		if len(m.MedicineTimes) != 2 || m.MedicineTimes[0] != "08:00" || m.MedicineTimes[1] != "20:00" {
			t.Fatalf("unexpected times: %v", m.MedicineTimes)
		}
		if len(m.MedicineDays) != 2 || m.MedicineDays[0] != 1 || m.MedicineDays[1] != 3 {
			t.Fatalf("unexpected days: %v", m.MedicineDays)
		}
	}

	// 7) Cuidador puede editar la ficha (PATCH)
	{
		st, body := doReq(t, ts.URL, "PATCH", "/patients/"+patientID, caregiverID, map[string]any{
			"exercise_time_minutes": 30,
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 patch patient by caregiver, got %d body=%s", st, string(body))
		}
	}

	// 8) Cuidador registra una medición
	{
		st, body := doReq(t, ts.URL, "POST", "/patients/"+patientID+"/vitals", caregiverID, map[string]any{
			"type":        "blood_pressure",
			"systolic":    130,
			"diastolic":   85,
			"measured_at": time.Now().UTC().Format(time.RFC3339),
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 create vital by caregiver, got %d body=%s", st, string(body))
		}
	}

	// 9) Cuidador reporta un síntoma y luego lo anula
	symptomID := createSymptom(t, ts.URL, caregiverID, patientID, map[string]any{
		"name":        "dizziness",
		"severity":    "moderate",
		"occurred_at": time.Now().UTC().Format(time.RFC3339),
	})
	{
		st, body := doReq(t, ts.URL, "POST", "/patients/"+patientID+"/symptoms/"+symptomID+"/void", caregiverID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 void symptom by caregiver, got %d body=%s", st, string(body))
		}
	}

	// 10) Owner revoca grant
	{
		st, body := doReq(t, ts.URL, "POST", "/grants/"+grantID+"/revoke", ownerID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 revoke grant by owner, got %d body=%s", st, string(body))
		}
	}

	// 11) Cuidador pierde acceso inmediatamente
	{
		st, _ := doReq(t, ts.URL, "GET", "/patients/"+patientID, caregiverID, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 get patient after revoke, got %d", st)
		}
	}
	{
		st, _ := doReq(t, ts.URL, "GET", "/patients/"+patientID+"/vitals", caregiverID, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 list vitals after revoke, got %d", st)
		}
	}
	{
		st, _ := doReq(t, ts.URL, "POST", "/patients/"+patientID+"/symptoms", caregiverID, map[string]any{
			"name":        "should fail",
			"severity":    "mild",
			"occurred_at": time.Now().UTC().Format(time.RFC3339),
		})
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 create symptom after revoke, got %d", st)
		}
	}
}

func TestHTTP_CreatePatient_TolerantScheduleDecode(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	// Payload con shapes legacy: id numérico, frecuencia como texto,
	// abreviaturas de días. Debe aceptarse y normalizarse.
	patientID := createPatient(t, ts.URL, "owner-1", map[string]any{
		"name":        "Meera Nair",
		"uhid_number": "UHID-2025-002",
		"medicines": []map[string]any{
			{
				"medicineId":    5,
				"frequency":     "Twice daily",
				"medicineTimes": []string{"08:30", "2025-01-15T21:00:00"},
				"medicineDays":  []any{"Mon", "Wed", 5},
			},
		},
	})

	st, body := doReq(t, ts.URL, "GET", "/patients/"+patientID, "owner-1", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", st, string(body))
	}

	var resp struct {
		Medicines []struct {
			MedicineID    string   `json:"medicineId"`
			Frequency     int      `json:"frequency"`
			MedicineTimes []string `json:"medicineTimes"`
			MedicineDays  []int    `json:"medicineDays"`
		} `json:"medicines"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal patient: %v", err)
	}
	if len(resp.Medicines) != 1 {
		t.Fatalf("expected 1 medicine, got %d", len(resp.Medicines))
	}
	m := resp.Medicines[0]
	if m.MedicineID != "5" {
		t.Fatalf("numeric medicineId should normalize to string, got %q", m.MedicineID)
	}
	if m.Frequency != 2 {
		t.Fatalf("descriptive frequency should normalize to 2, got %d", m.Frequency)
	}
	if len(m.MedicineTimes) != 2 || m.MedicineTimes[0] != "08:30" || m.MedicineTimes[1] != "21:00" {
		t.Fatalf("unexpected normalized times: %v", m.MedicineTimes)
	}
	if len(m.MedicineDays) != 3 || m.MedicineDays[0] != 1 || m.MedicineDays[1] != 3 || m.MedicineDays[2] != 5 {
		t.Fatalf("unexpected normalized days: %v", m.MedicineDays)
	}
}

func TestHTTP_CreatePatient_RejectsBadScheduleAndDuplicateUHID(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	ownerID := "owner-1"

	// Referencia no resoluble en catálogo => 400
	{
		st, body := doReq(t, ts.URL, "POST", "/patients", ownerID, map[string]any{
			"name":        "Ravi",
			"uhid_number": "UHID-X-1",
			"medicines": []map[string]any{
				{"medicineId": "999", "frequency": 1, "medicineTimes": []string{"08:00"}},
			},
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 for unresolvable medicine, got %d body=%s", st, string(body))
		}
	}

	createPatient(t, ts.URL, ownerID, map[string]any{
		"name":        "Ravi",
		"uhid_number": "UHID-X-2",
	})

	// Mismo UHID otra vez => 409
	{
		st, _ := doReq(t, ts.URL, "POST", "/patients", "owner-2", map[string]any{
			"name":        "Otro",
			"uhid_number": "UHID-X-2",
		})
		if st != http.StatusConflict {
			t.Fatalf("expected 409 for duplicate uhid, got %d", st)
		}
	}
}

func TestHTTP_InviteGrant_RejectsUnknownScope(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	ownerID := "owner-1"
	caregiverID := "caregiver-1"

	patientID := createPatient(t, ts.URL, ownerID, map[string]any{
		"name":        "Ravi",
		"uhid_number": "UHID-S-1",
	})

	// scope inválido => 400
	st, _ := doReq(t, ts.URL, "POST", "/patients/"+patientID+"/grants", ownerID, map[string]any{
		"caregiver_user_id": caregiverID,
		"scopes":            []string{"vitals:read", "vitals:unknown"},
	})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown scope, got %d", st)
	}
}

func TestHTTP_ExerciseLibrary(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	st, body := doReq(t, ts.URL, "GET", "/exercises", "user-1", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 listing exercises, got %d", st)
	}

	var items []struct {
		ID       string `json:"id"`
		VideoURL string `json:"video_url"`
	}
	if err := json.Unmarshal(body, &items); err != nil {
		t.Fatalf("unmarshal exercises: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("exercise library should come seeded")
	}

	st, _ = doReq(t, ts.URL, "GET", "/exercises/"+items[0].ID, "user-1", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 get exercise, got %d", st)
	}

	// Sin autenticación => 401
	st, _ = doReq(t, ts.URL, "GET", "/exercises", "", nil)
	if st != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", st)
	}
}

func createPatient(t *testing.T, baseURL, userID string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/patients", userID, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create patient, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create patient: missing id body=%s", string(body))
	}
	return resp.ID
}

func inviteGrant(t *testing.T, baseURL, ownerID, patientID, caregiverID string, scopes []string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/patients/"+patientID+"/grants", ownerID, map[string]any{
		"caregiver_user_id": caregiverID,
		"scopes":            scopes,
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 invite grant, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("invite grant: missing id body=%s", string(body))
	}
	return resp.ID
}

func createSymptom(t *testing.T, baseURL, userID, patientID string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/patients/"+patientID+"/symptoms", userID, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create symptom, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create symptom: missing id body=%s", string(body))
	}
	return resp.ID
}

func doReq(t *testing.T, baseURL, method, path, debugUserID string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
