package clinic

import (
	"context"

	"github.com/google/uuid"

	"github.com/medisys/hms/internal/platform/auth"
	"github.com/medisys/hms/internal/platform/db"
	"github.com/medisys/hms/internal/platform/listquery"
)

type Service struct {
	patients PatientRepository
	doctors  DoctorRepository
}

func NewService(patients PatientRepository, doctors DoctorRepository) *Service {
	return &Service{patients: patients, doctors: doctors}
}

// clinical reports whether p works with patient records.
func clinical(p auth.Principal) bool {
	return p.HasRole(auth.RoleChiefDoctor, auth.RoleDoctor)
}

// -- Patient --

func (s *Service) CreatePatient(ctx context.Context, p auth.Principal, pt *Patient) error {
	if !clinical(p) {
		return auth.ErrForbidden
	}
	if err := pt.Validate(); err != nil {
		return err
	}
	return s.patients.Create(ctx, pt)
}

// GetPatient returns a patient record. Patients may read their own.
func (s *Service) GetPatient(ctx context.Context, p auth.Principal, id uuid.UUID) (*Patient, error) {
	pt, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !clinical(p) && pt.UserID != p.UserID {
		return nil, auth.ErrForbidden
	}
	return pt, nil
}

// MyPatientRecord returns the patient record linked to the caller.
func (s *Service) MyPatientRecord(ctx context.Context, p auth.Principal) (*Patient, error) {
	return s.patients.GetByUserID(ctx, p.UserID)
}

func (s *Service) UpdatePatient(ctx context.Context, p auth.Principal, pt *Patient) error {
	if !clinical(p) {
		return auth.ErrForbidden
	}
	current, err := s.patients.GetByID(ctx, pt.ID)
	if err != nil {
		return err
	}
	pt.UserID = current.UserID
	if err := pt.Validate(); err != nil {
		return err
	}
	return s.patients.Update(ctx, pt)
}

func (s *Service) DeletePatient(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	if !p.IsAdmin() {
		return auth.ErrForbidden
	}
	return s.patients.Delete(ctx, id)
}

// ListPatients returns one page of patients. Clinical staff see every
// patient regardless of hospital.
func (s *Service) ListPatients(ctx context.Context, p auth.Principal, q listquery.Query) (*listquery.Page[*Patient], error) {
	if !clinical(p) {
		return nil, auth.ErrForbidden
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := db.CheckBoolFilters(q.Filters, "user.active"); err != nil {
		return nil, err
	}
	return s.patients.List(ctx, q, listquery.Predicate{})
}

// -- Doctor --

func canStaff(p auth.Principal, hospitalID *uuid.UUID) bool {
	if p.IsAdmin() {
		return true
	}
	return p.Role == auth.RoleDirector && hospitalID != nil && p.InHospital(*hospitalID)
}

func (s *Service) CreateDoctor(ctx context.Context, p auth.Principal, d *Doctor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.HospitalID == nil && p.Role == auth.RoleDirector {
		d.HospitalID = p.HospitalID
	}
	if !canStaff(p, d.HospitalID) {
		return auth.ErrForbidden
	}
	return s.doctors.Create(ctx, d)
}

func (s *Service) GetDoctor(ctx context.Context, p auth.Principal, id uuid.UUID) (*Doctor, error) {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	hid, restricted, err := p.HospitalScope()
	if err != nil {
		return nil, err
	}
	if restricted && (d.HospitalID == nil || *d.HospitalID != hid) {
		return nil, auth.ErrForbidden
	}
	return d, nil
}

func (s *Service) UpdateDoctor(ctx context.Context, p auth.Principal, d *Doctor) error {
	current, err := s.doctors.GetByID(ctx, d.ID)
	if err != nil {
		return err
	}
	d.UserID = current.UserID
	if err := d.Validate(); err != nil {
		return err
	}
	if !canStaff(p, current.HospitalID) || !canStaff(p, d.HospitalID) {
		return auth.ErrForbidden
	}
	return s.doctors.Update(ctx, d)
}

func (s *Service) DeleteDoctor(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	current, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canStaff(p, current.HospitalID) {
		return auth.ErrForbidden
	}
	return s.doctors.Delete(ctx, id)
}

// ListDoctors returns one page of doctors. Directors and chief doctors
// only see doctors of their own hospital.
func (s *Service) ListDoctors(ctx context.Context, p auth.Principal, q listquery.Query) (*listquery.Page[*Doctor], error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := db.CheckUUIDFilters(q.Filters, "hospitalId"); err != nil {
		return nil, err
	}

	var scope listquery.Predicate
	hid, restricted, err := p.HospitalScope()
	if err != nil {
		return nil, err
	}
	if restricted {
		if scope, err = db.Scope(DoctorSchema, "hospitalId", hid); err != nil {
			return nil, err
		}
	}
	return s.doctors.List(ctx, q, scope)
}
