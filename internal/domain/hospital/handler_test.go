package hospital

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medisys/hms/internal/platform/auth"
)

func newTestHandler() (*Handler, *fixture, *echo.Echo) {
	f := newFixture()
	return NewHandler(f.svc), f, echo.New()
}

func serve(e *echo.Echo, fn echo.HandlerFunc, c echo.Context, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	if err := fn(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func request(e *echo.Echo, method, target, body string, p auth.Principal) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithPrincipal(req.Context(), p))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_CreateHospital(t *testing.T) {
	h, _, e := newTestHandler()

	c, rec := request(e, http.MethodPost, "/api/v1/hospitals", `{"name":"Clinique du Parc","city":"Lyon"}`, admin)
	serve(e, h.CreateHospital, c, rec)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var hosp Hospital
	json.Unmarshal(rec.Body.Bytes(), &hosp)
	if hosp.Name != "Clinique du Parc" || hosp.Status != StatusActive {
		t.Errorf("unexpected hospital: %+v", hosp)
	}

	c, rec = request(e, http.MethodPost, "/api/v1/hospitals", `{"city":"Lyon"}`, admin)
	if serve(e, h.CreateHospital, c, rec).Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing name, got %d", rec.Code)
	}
}

func TestHandler_GetHospital(t *testing.T) {
	h, f, e := newTestHandler()
	hosp := &Hospital{Name: "A", City: "Lyon"}
	f.svc.CreateHospital(nil, admin, hosp)

	tests := []struct {
		id   string
		want int
	}{
		{hosp.ID.String(), http.StatusOK},
		{uuid.NewString(), http.StatusNotFound},
		{"nope", http.StatusBadRequest},
	}
	for _, tt := range tests {
		c, rec := request(e, http.MethodGet, "/", "", admin)
		c.SetParamNames("id")
		c.SetParamValues(tt.id)
		if serve(e, h.GetHospital, c, rec).Code != tt.want {
			t.Errorf("id %s: expected %d, got %d", tt.id, tt.want, rec.Code)
		}
	}
}

func TestHandler_ListServices(t *testing.T) {
	h, f, e := newTestHandler()
	hid := uuid.New()
	f.services.services[uuid.New()] = &MedicalService{HospitalID: hid, HospitalName: "Clinique du Parc", Name: "MRI"}

	c, rec := request(e, http.MethodGet, "/api/v1/services?page=1&perPage=5&hospital.city=Lyon", "", admin)
	serve(e, h.ListServices, c, rec)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Data      []map[string]interface{} `json:"data"`
		Total     int                      `json:"total"`
		Page      int                      `json:"page"`
		PerPage   int                      `json:"perPage"`
		PageCount int                      `json:"pageCount"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Total != 1 || body.PerPage != 5 || body.PageCount != 1 || len(body.Data) != 1 {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if body.Data[0]["hospitalName"] != "Clinique du Parc" {
		t.Errorf("expected flattened hospital name: %v", body.Data[0])
	}
}

func TestHandler_ListServices_BadRequest(t *testing.T) {
	h, _, e := newTestHandler()
	for _, target := range []string{
		"/api/v1/services?page=0",
		"/api/v1/services?hospitalId=42",
	} {
		c, rec := request(e, http.MethodGet, target, "", admin)
		if serve(e, h.ListServices, c, rec).Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestHandler_WriteServiceReturnsHospitalName(t *testing.T) {
	h, f, e := newTestHandler()
	hid := uuid.New()
	f.services.names[hid] = "Clinique du Parc"

	c, rec := request(e, http.MethodPost, "/api/v1/services", `{"hospitalId":"`+hid.String()+`","name":"MRI","priceCents":12000}`, admin)
	serve(e, h.CreateService, c, rec)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created ServiceView
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.HospitalName != "Clinique du Parc" {
		t.Errorf("create: expected hospital name, got %q", created.HospitalName)
	}

	c, rec = request(e, http.MethodPut, "/", `{"hospitalId":"`+hid.String()+`","name":"CT scan"}`, admin)
	c.SetParamNames("id")
	c.SetParamValues(created.ID.String())
	serve(e, h.UpdateService, c, rec)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated ServiceView
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatal(err)
	}
	if updated.HospitalName != "Clinique du Parc" || updated.Name != "CT scan" {
		t.Errorf("update: unexpected view %+v", updated)
	}
}

func TestHandler_DeleteService_Forbidden(t *testing.T) {
	h, f, e := newTestHandler()
	ms := &MedicalService{HospitalID: uuid.New(), Name: "MRI"}
	f.svc.CreateService(nil, admin, ms)

	c, rec := request(e, http.MethodDelete, "/", "", director(uuid.New()))
	c.SetParamNames("id")
	c.SetParamValues(ms.ID.String())
	if serve(e, h.DeleteService, c, rec).Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestHandler_ImportHospitals(t *testing.T) {
	h, f, e := newTestHandler()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, _ := w.CreateFormFile("file", "hospitals.csv")
	part.Write([]byte("name,city\nNord,Paris\nSud,Marseille\nSud,marseille\n"))
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/hospitals/import", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req = req.WithContext(auth.WithPrincipal(req.Context(), admin))
	rec := httptest.NewRecorder()
	serve(e, h.ImportHospitals, e.NewContext(req, rec), rec)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var report struct {
		Imported   int `json:"imported"`
		Duplicates []struct {
			Line int `json:"line"`
		} `json:"duplicates"`
	}
	json.Unmarshal(rec.Body.Bytes(), &report)
	if report.Imported != 2 || len(report.Duplicates) != 1 || report.Duplicates[0].Line != 4 {
		t.Errorf("unexpected report: %s", rec.Body.String())
	}
	if len(f.hospitals.hospitals) != 2 {
		t.Errorf("expected 2 stored hospitals, got %d", len(f.hospitals.hospitals))
	}
}

func TestHandler_ImportHospitals_MissingFile(t *testing.T) {
	h, _, e := newTestHandler()
	c, rec := request(e, http.MethodPost, "/api/v1/hospitals/import", "", admin)
	if serve(e, h.ImportHospitals, c, rec).Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
