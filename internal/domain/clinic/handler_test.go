package clinic

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medisys/hms/internal/platform/auth"
)

func request(e *echo.Echo, method, target, body string, p auth.Principal) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithPrincipal(req.Context(), p))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func serve(e *echo.Echo, fn echo.HandlerFunc, c echo.Context, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	if err := fn(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestHandler_CreatePatient(t *testing.T) {
	f := newFixture()
	h, e := NewHandler(f.svc), echo.New()

	body := `{"userId":"` + patient.UserID.String() + `","gender":"male","birthDate":"1990-04-02T00:00:00Z"}`
	c, rec := request(e, http.MethodPost, "/api/v1/patients", body, doctor)
	serve(e, h.CreatePatient, c, rec)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	c, rec = request(e, http.MethodPost, "/api/v1/patients", body, doctor)
	if serve(e, h.CreatePatient, c, rec).Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate record, got %d", rec.Code)
	}

	c, rec = request(e, http.MethodPost, "/api/v1/patients", `{"userId":"`+uuid.NewString()+`","bloodType":"Z"}`, doctor)
	if serve(e, h.CreatePatient, c, rec).Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid blood type, got %d", rec.Code)
	}
}

func TestHandler_MyPatientRecord(t *testing.T) {
	f := newFixture()
	h, e := NewHandler(f.svc), echo.New()
	pt := &Patient{UserID: patient.UserID, Phone: "0600"}
	f.patients.Create(nil, pt)
	pt.UserName = "Marie Curie"

	c, rec := request(e, http.MethodGet, "/api/v1/patients/me", "", patient)
	serve(e, h.MyPatientRecord, c, rec)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var view PatientView
	json.Unmarshal(rec.Body.Bytes(), &view)
	if view.ID != pt.ID || view.UserName != "Marie Curie" {
		t.Errorf("unexpected view: %+v", view)
	}

	c, rec = request(e, http.MethodGet, "/api/v1/patients/me", "", doctor)
	if serve(e, h.MyPatientRecord, c, rec).Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_ListDoctors(t *testing.T) {
	f := newFixture()
	h, e := NewHandler(f.svc), echo.New()
	hid := uuid.New()
	d := &Doctor{UserID: uuid.New(), Specialty: "cardiology", HospitalID: &hid}
	f.doctors.Create(nil, d)
	d.UserName = "Dr House"
	d.UserRole = "DOCTOR"

	c, rec := request(e, http.MethodGet, "/api/v1/doctors?page=1&perPage=5&specialty=cardiology", "", patient)
	serve(e, h.ListDoctors, c, rec)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data    []map[string]any `json:"data"`
		Total   int              `json:"total"`
		PerPage int              `json:"perPage"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || resp.PerPage != 5 || resp.Data[0]["userName"] != "Dr House" {
		t.Errorf("unexpected response: %s", rec.Body.String())
	}

	c, rec = request(e, http.MethodGet, "/api/v1/doctors?hospitalId=abc", "", admin)
	if serve(e, h.ListDoctors, c, rec).Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed hospitalId, got %d", rec.Code)
	}
}

func TestHandler_DeleteDoctor(t *testing.T) {
	f := newFixture()
	h, e := NewHandler(f.svc), echo.New()
	hid := uuid.New()
	d := &Doctor{UserID: uuid.New(), Specialty: "x", HospitalID: &hid}
	f.doctors.Create(nil, d)

	tests := []struct {
		name string
		p    auth.Principal
		id   string
		want int
	}{
		{"bad id", admin, "nope", http.StatusBadRequest},
		{"missing", admin, uuid.NewString(), http.StatusNotFound},
		{"other hospital", director(uuid.New()), d.ID.String(), http.StatusForbidden},
		{"owner", director(hid), d.ID.String(), http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := request(e, http.MethodDelete, "/", "", tt.p)
			c.SetParamNames("id")
			c.SetParamValues(tt.id)
			if serve(e, h.DeleteDoctor, c, rec).Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}
