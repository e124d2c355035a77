package sandbox

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medisys/hms/internal/domain/clinic"
	"github.com/medisys/hms/internal/domain/hospital"
	"github.com/medisys/hms/internal/domain/notification"
	"github.com/medisys/hms/internal/domain/user"
	"github.com/medisys/hms/internal/platform/auth"
	"github.com/medisys/hms/internal/platform/db"
)

func smallConfig() SeedConfig {
	cfg := DefaultSeedConfig()
	cfg.Hospitals = 2
	cfg.ServicesPerHospital = 3
	cfg.DoctorsPerHospital = 1
	cfg.PatientsPerHospital = 2
	return cfg
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := Generate(smallConfig())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, _ := Generate(smallConfig())

	if a.Hospitals[1].Hospital.Name != b.Hospitals[1].Hospital.Name ||
		a.Hospitals[0].Patients[1].Account.User.Name != b.Hospitals[0].Patients[1].Account.User.Name {
		t.Error("same seed must produce the same data")
	}

	other := smallConfig()
	other.Seed = 7
	c, _ := Generate(other)
	same := true
	for i := range a.Hospitals {
		if a.Hospitals[i].Hospital.Name != c.Hospitals[i].Hospital.Name || a.Hospitals[i].Hospital.Address != c.Hospitals[i].Hospital.Address {
			same = false
		}
	}
	if same {
		t.Error("different seeds should produce different data")
	}
}

func TestGenerate_Shape(t *testing.T) {
	ds, err := Generate(smallConfig())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(ds.Hospitals) != 2 || ds.Accounts() != 1+2*(2+1+2) {
		t.Fatalf("unexpected size: %d hospitals, %d accounts", len(ds.Hospitals), ds.Accounts())
	}
	if ds.Admin.User.Role != auth.RoleAdmin {
		t.Errorf("unexpected admin role %s", ds.Admin.User.Role)
	}

	emails := map[string]bool{}
	for _, h := range ds.Hospitals {
		if err := h.Hospital.Validate(); err != nil {
			t.Errorf("invalid hospital: %v", err)
		}
		if len(h.Services) != 3 {
			t.Errorf("expected 3 services, got %d", len(h.Services))
		}
		if h.Director.User.Role != auth.RoleDirector || h.Chief.User.Role != auth.RoleChiefDoctor {
			t.Error("unexpected staff roles")
		}
		for _, p := range h.Patients {
			if p.Account.User.Role != auth.RolePatient || p.Patient.BirthDate == nil {
				t.Errorf("unexpected patient seed: %+v", p.Patient)
			}
		}
		for _, a := range []Account{h.Director, h.Chief, h.Doctors[0].Account, h.Patients[0].Account} {
			if emails[a.User.Email] {
				t.Errorf("duplicate email %s", a.User.Email)
			}
			emails[a.User.Email] = true
		}
	}
}

func TestGenerate_InvalidConfig(t *testing.T) {
	tests := []func(*SeedConfig){
		func(c *SeedConfig) { c.Hospitals = 0 },
		func(c *SeedConfig) { c.PatientsPerHospital = -1 },
		func(c *SeedConfig) { c.Password = "short" },
	}
	for i, mutate := range tests {
		cfg := smallConfig()
		mutate(&cfg)
		if _, err := Generate(cfg); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

// -- Mock stores --
//
// Each mock embeds its interface and only implements Create.

type hospitalStore struct {
	hospital.HospitalRepository
	created []*hospital.Hospital
}

func (m *hospitalStore) Create(_ context.Context, h *hospital.Hospital) error {
	h.ID = uuid.New()
	m.created = append(m.created, h)
	return nil
}

type serviceStore struct {
	hospital.ServiceRepository
	created []*hospital.MedicalService
}

func (m *serviceStore) Create(_ context.Context, s *hospital.MedicalService) error {
	s.ID = uuid.New()
	m.created = append(m.created, s)
	return nil
}

type userStore struct {
	user.Repository
	byEmail map[string]*user.User
}

func (m *userStore) Create(_ context.Context, u *user.User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return db.ErrConflict
	}
	u.ID = uuid.New()
	m.byEmail[u.Email] = u
	return nil
}

type patientStore struct {
	clinic.PatientRepository
	created []*clinic.Patient
}

func (m *patientStore) Create(_ context.Context, p *clinic.Patient) error {
	p.ID = uuid.New()
	m.created = append(m.created, p)
	return nil
}

type doctorStore struct {
	clinic.DoctorRepository
	created []*clinic.Doctor
}

func (m *doctorStore) Create(_ context.Context, d *clinic.Doctor) error {
	d.ID = uuid.New()
	m.created = append(m.created, d)
	return nil
}

type notificationStore struct {
	notification.Repository
	created []*notification.Notification
}

func (m *notificationStore) Create(_ context.Context, n *notification.Notification) error {
	n.ID = uuid.New()
	m.created = append(m.created, n)
	return nil
}

type mocks struct {
	hospitals     *hospitalStore
	services      *serviceStore
	users         *userStore
	patients      *patientStore
	doctors       *doctorStore
	notifications *notificationStore
}

func newMocks() (*mocks, Stores) {
	m := &mocks{
		hospitals:     &hospitalStore{},
		services:      &serviceStore{},
		users:         &userStore{byEmail: map[string]*user.User{}},
		patients:      &patientStore{},
		doctors:       &doctorStore{},
		notifications: &notificationStore{},
	}
	return m, Stores{
		Hospitals:     m.hospitals,
		Services:      m.services,
		Users:         m.users,
		Patients:      m.patients,
		Doctors:       m.doctors,
		Notifications: m.notifications,
	}
}

func TestSeeder_Store(t *testing.T) {
	m, stores := newMocks()
	ds, _ := Generate(smallConfig())

	res, err := NewSeeder(stores, nil, zerolog.Nop()).Store(context.Background(), ds)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if res.Hospitals != 2 || res.Services != 6 || res.Users != 11 || res.Doctors != 2 || res.Patients != 4 || res.Notifications != 11 {
		t.Errorf("unexpected result: %+v", res)
	}

	for _, h := range ds.Hospitals {
		hid := h.Hospital.ID
		for _, s := range h.Services {
			if s.HospitalID != hid {
				t.Error("service not attached to its hospital")
			}
		}
		if h.Director.User.HospitalID == nil || *h.Director.User.HospitalID != hid {
			t.Error("director not attached to its hospital")
		}
		d := h.Doctors[0]
		if d.Doctor.UserID != d.Account.User.ID || *d.Doctor.HospitalID != hid {
			t.Errorf("doctor keys not set: %+v", d.Doctor)
		}
		p := h.Patients[0]
		if p.Patient.UserID != p.Account.User.ID || p.Account.User.HospitalID != nil {
			t.Errorf("patient keys not set: %+v", p.Patient)
		}
	}

	admin := m.users.byEmail["admin@hms.local"]
	if admin == nil || auth.CheckPassword(admin.PasswordHash, "changeme123") != nil {
		t.Error("admin password not hashed correctly")
	}
	if m.notifications.created[0].UserID != admin.ID || m.notifications.created[0].Type != notification.TypeSystem {
		t.Errorf("unexpected welcome notification: %+v", m.notifications.created[0])
	}
}

func TestSeeder_StoreAbortsInTransaction(t *testing.T) {
	_, stores := newMocks()
	ds, _ := Generate(smallConfig())
	ds.Hospitals[1].Chief.User.Email = ds.Hospitals[0].Director.User.Email

	calls := 0
	tx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		calls++
		return fn(ctx)
	}
	_, err := NewSeeder(stores, tx, zerolog.Nop()).Store(context.Background(), ds)
	if !errors.Is(err, db.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected one transaction, got %d", calls)
	}
	if !strings.Contains(err.Error(), ds.Hospitals[1].Hospital.Name) {
		t.Errorf("error should name the hospital: %v", err)
	}
}
