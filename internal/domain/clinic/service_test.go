package clinic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medisys/hms/internal/platform/auth"
	"github.com/medisys/hms/internal/platform/db"
	"github.com/medisys/hms/internal/platform/listquery"
)

// -- Mock Repositories --

type mockPatientRepo struct {
	patients map[uuid.UUID]*Patient
	listed   bool
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	for _, existing := range m.patients {
		if existing.UserID == p.UserID {
			return db.ErrConflict
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPatientRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*Patient, error) {
	for _, p := range m.patients {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *mockPatientRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.patients[p.ID]; !ok {
		return db.ErrNotFound
	}
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.patients[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.patients, id)
	return nil
}

func (m *mockPatientRepo) List(_ context.Context, q listquery.Query, scope listquery.Predicate) (*listquery.Page[*Patient], error) {
	m.listed = true
	items := make([]*Patient, 0, len(m.patients))
	for _, p := range m.patients {
		items = append(items, p)
	}
	return &listquery.Page[*Patient]{Items: items, Total: len(items)}, nil
}

type mockDoctorRepo struct {
	doctors   map[uuid.UUID]*Doctor
	lastScope listquery.Predicate
	listed    bool
}

func newMockDoctorRepo() *mockDoctorRepo {
	return &mockDoctorRepo{doctors: make(map[uuid.UUID]*Doctor)}
}

func (m *mockDoctorRepo) Create(_ context.Context, d *Doctor) error {
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	m.doctors[d.ID] = d
	return nil
}

func (m *mockDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *mockDoctorRepo) Update(_ context.Context, d *Doctor) error {
	if _, ok := m.doctors[d.ID]; !ok {
		return db.ErrNotFound
	}
	m.doctors[d.ID] = d
	return nil
}

func (m *mockDoctorRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.doctors, id)
	return nil
}

func (m *mockDoctorRepo) List(_ context.Context, q listquery.Query, scope listquery.Predicate) (*listquery.Page[*Doctor], error) {
	m.listed = true
	m.lastScope = scope
	items := make([]*Doctor, 0, len(m.doctors))
	for _, d := range m.doctors {
		items = append(items, d)
	}
	return &listquery.Page[*Doctor]{Items: items, Total: len(items)}, nil
}

// -- Helpers --

type fixture struct {
	svc      *Service
	patients *mockPatientRepo
	doctors  *mockDoctorRepo
}

func newFixture() *fixture {
	f := &fixture{patients: newMockPatientRepo(), doctors: newMockDoctorRepo()}
	f.svc = NewService(f.patients, f.doctors)
	return f
}

var (
	admin   = auth.Principal{UserID: uuid.New(), Role: auth.RoleAdmin}
	doctor  = auth.Principal{UserID: uuid.New(), Role: auth.RoleDoctor}
	patient = auth.Principal{UserID: uuid.New(), Role: auth.RolePatient}
)

func director(hospitalID uuid.UUID) auth.Principal {
	return auth.Principal{UserID: uuid.New(), Role: auth.RoleDirector, HospitalID: &hospitalID}
}

func chief(hospitalID uuid.UUID) auth.Principal {
	return auth.Principal{UserID: uuid.New(), Role: auth.RoleChiefDoctor, HospitalID: &hospitalID}
}

func page() listquery.Query { return listquery.Query{Page: 1, PerPage: 10} }

// -- Patient Tests --

func TestCreatePatient(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	pt := &Patient{UserID: patient.UserID, Gender: " female ", BloodType: "ab+"}
	if err := f.svc.CreatePatient(ctx, doctor, pt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pt.Gender != "FEMALE" || pt.BloodType != "AB+" {
		t.Errorf("values not normalized: %+v", pt)
	}

	if err := f.svc.CreatePatient(ctx, patient, &Patient{UserID: uuid.New()}); !errors.Is(err, auth.ErrForbidden) {
		t.Errorf("patients may not create records, got %v", err)
	}
	if err := f.svc.CreatePatient(ctx, director(uuid.New()), &Patient{UserID: uuid.New()}); !errors.Is(err, auth.ErrForbidden) {
		t.Errorf("directors are not clinical staff, got %v", err)
	}
	if err := f.svc.CreatePatient(ctx, doctor, &Patient{UserID: patient.UserID}); !errors.Is(err, db.ErrConflict) {
		t.Errorf("expected conflict for second record of the same user, got %v", err)
	}
}

func TestPatient_Validate(t *testing.T) {
	future := time.Now().Add(48 * time.Hour)
	tests := []struct {
		name string
		p    Patient
	}{
		{"no user", Patient{}},
		{"bad gender", Patient{UserID: uuid.New(), Gender: "x"}},
		{"bad blood type", Patient{UserID: uuid.New(), BloodType: "C+"}},
		{"future birth", Patient{UserID: uuid.New(), BirthDate: &future}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.p.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestGetPatient_Visibility(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	pt := &Patient{UserID: patient.UserID}
	f.svc.CreatePatient(ctx, doctor, pt)

	if _, err := f.svc.GetPatient(ctx, patient, pt.ID); err != nil {
		t.Errorf("patient should read own record: %v", err)
	}
	if _, err := f.svc.GetPatient(ctx, chief(uuid.New()), pt.ID); err != nil {
		t.Errorf("chief doctor should read any patient: %v", err)
	}
	other := auth.Principal{UserID: uuid.New(), Role: auth.RolePatient}
	if _, err := f.svc.GetPatient(ctx, other, pt.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Errorf("expected forbidden for another patient, got %v", err)
	}

	mine, err := f.svc.MyPatientRecord(ctx, patient)
	if err != nil || mine.ID != pt.ID {
		t.Errorf("unexpected own record: %+v, %v", mine, err)
	}
	if _, err := f.svc.MyPatientRecord(ctx, other); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUpdatePatient_KeepsUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	pt := &Patient{UserID: patient.UserID}
	f.svc.CreatePatient(ctx, doctor, pt)

	upd := &Patient{ID: pt.ID, UserID: uuid.New(), Phone: " 0600 "}
	if err := f.svc.UpdatePatient(ctx, doctor, upd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upd.UserID != patient.UserID || upd.Phone != "0600" {
		t.Errorf("unexpected update: %+v", upd)
	}
	if err := f.svc.UpdatePatient(ctx, doctor, &Patient{ID: uuid.New()}); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestDeletePatient_AdminOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	pt := &Patient{UserID: patient.UserID}
	f.svc.CreatePatient(ctx, doctor, pt)

	if err := f.svc.DeletePatient(ctx, doctor, pt.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
	if err := f.svc.DeletePatient(ctx, admin, pt.ID); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestListPatients(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.ListPatients(ctx, patient, page()); !errors.Is(err, auth.ErrForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
	if _, err := f.svc.ListPatients(ctx, doctor, listquery.Query{Page: 0, PerPage: 10}); !errors.Is(err, listquery.ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got %v", err)
	}
	if f.patients.listed {
		t.Error("repository should not be queried for rejected requests")
	}
	if _, err := f.svc.ListPatients(ctx, admin, page()); err != nil || !f.patients.listed {
		t.Errorf("admin list failed: %v", err)
	}
}

func TestListPatients_ActiveFilterMustBeBoolean(t *testing.T) {
	f := newFixture()
	q := page()
	q.Filters = listquery.Filters{"user.active": {"sometimes"}}

	if _, err := f.svc.ListPatients(context.Background(), doctor, q); !errors.Is(err, listquery.ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got %v", err)
	}
	if f.patients.listed {
		t.Error("repository should not be queried for rejected filters")
	}
}

// -- Doctor Tests --

func TestCreateDoctor_Ownership(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	hid := uuid.New()

	d := &Doctor{UserID: uuid.New(), Specialty: " cardiology "}
	if err := f.svc.CreateDoctor(ctx, director(hid), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.HospitalID == nil || *d.HospitalID != hid || d.Specialty != "cardiology" {
		t.Errorf("unexpected doctor: %+v", d)
	}

	other := uuid.New()
	err := f.svc.CreateDoctor(ctx, director(hid), &Doctor{UserID: uuid.New(), Specialty: "x", HospitalID: &other})
	if !errors.Is(err, auth.ErrForbidden) {
		t.Errorf("expected forbidden for another hospital, got %v", err)
	}
	if err := f.svc.CreateDoctor(ctx, admin, &Doctor{UserID: uuid.New()}); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for missing specialty, got %v", err)
	}
	if err := f.svc.CreateDoctor(ctx, admin, &Doctor{UserID: uuid.New(), Specialty: "x"}); err != nil {
		t.Errorf("admin may create unattached doctors: %v", err)
	}
}

func TestUpdateDoctor_CannotMoveAcrossHospitals(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	hid := uuid.New()
	d := &Doctor{UserID: uuid.New(), Specialty: "x", HospitalID: &hid}
	f.svc.CreateDoctor(ctx, admin, d)

	other := uuid.New()
	err := f.svc.UpdateDoctor(ctx, director(hid), &Doctor{ID: d.ID, Specialty: "y", HospitalID: &other})
	if !errors.Is(err, auth.ErrForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
	upd := &Doctor{ID: d.ID, Specialty: "y", HospitalID: &hid}
	if err := f.svc.UpdateDoctor(ctx, director(hid), upd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upd.UserID != d.UserID {
		t.Errorf("user must be preserved, got %v", upd.UserID)
	}
	if err := f.svc.DeleteDoctor(ctx, director(other), d.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Errorf("expected forbidden delete, got %v", err)
	}
	if err := f.svc.DeleteDoctor(ctx, director(hid), d.ID); err != nil {
		t.Errorf("unexpected delete error: %v", err)
	}
}

func TestGetDoctor_HospitalScope(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	hid := uuid.New()
	d := &Doctor{UserID: uuid.New(), Specialty: "x", HospitalID: &hid}
	f.svc.CreateDoctor(ctx, admin, d)

	if _, err := f.svc.GetDoctor(ctx, chief(hid), d.ID); err != nil {
		t.Errorf("same hospital: %v", err)
	}
	if _, err := f.svc.GetDoctor(ctx, chief(uuid.New()), d.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
	if _, err := f.svc.GetDoctor(ctx, patient, d.ID); err != nil {
		t.Errorf("patients may look up doctors: %v", err)
	}
}

func TestListDoctors_Scope(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	hid := uuid.New()

	if _, err := f.svc.ListDoctors(ctx, patient, page()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.doctors.lastScope.IsEmpty() {
		t.Error("patients see doctors of every hospital")
	}

	if _, err := f.svc.ListDoctors(ctx, director(hid), page()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sb := listquery.NewSelect(listquery.Postgres, DoctorSchema)
	f.doctors.lastScope.Apply(sb)
	if got := sb.CountArgs(); len(got) != 1 || got[0] != hid.String() {
		t.Errorf("expected scope on hospital %s, got %v", hid, got)
	}

	q := page()
	q.Filters = listquery.Filters{"hospitalId": {"not-a-uuid"}}
	if _, err := f.svc.ListDoctors(ctx, admin, q); !errors.Is(err, listquery.ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got %v", err)
	}

	unattached := auth.Principal{UserID: uuid.New(), Role: auth.RoleChiefDoctor}
	if _, err := f.svc.ListDoctors(ctx, unattached, page()); !errors.Is(err, auth.ErrForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
}
