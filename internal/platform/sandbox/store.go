package sandbox

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medisys/hms/internal/domain/clinic"
	"github.com/medisys/hms/internal/domain/hospital"
	"github.com/medisys/hms/internal/domain/notification"
	"github.com/medisys/hms/internal/domain/user"
	"github.com/medisys/hms/internal/platform/auth"
	"github.com/medisys/hms/internal/platform/db"
)

// Stores are the repositories a data set is written to.
type Stores struct {
	Hospitals     hospital.HospitalRepository
	Services      hospital.ServiceRepository
	Users         user.Repository
	Patients      clinic.PatientRepository
	Doctors       clinic.DoctorRepository
	Notifications notification.Repository
}

// SeedResult summarizes a stored data set.
type SeedResult struct {
	Hospitals     int           `json:"hospitals"`
	Services      int           `json:"services"`
	Users         int           `json:"users"`
	Doctors       int           `json:"doctors"`
	Patients      int           `json:"patients"`
	Notifications int           `json:"notifications"`
	Duration      time.Duration `json:"duration"`
}

type Seeder struct {
	stores Stores
	tx     db.TxFunc
	logger zerolog.Logger
	hashes map[string]string
}

func NewSeeder(stores Stores, tx db.TxFunc, logger zerolog.Logger) *Seeder {
	if tx == nil {
		tx = db.NoTx
	}
	return &Seeder{stores: stores, tx: tx, logger: logger, hashes: make(map[string]string)}
}

// Store writes ds in one transaction. An account whose email is already
// taken aborts the whole run.
func (s *Seeder) Store(ctx context.Context, ds *Dataset) (*SeedResult, error) {
	start := time.Now()
	res := &SeedResult{}
	err := s.tx(ctx, func(ctx context.Context) error {
		*res = SeedResult{}
		if err := s.createAccount(ctx, ds.Admin, nil, res); err != nil {
			return err
		}
		for _, h := range ds.Hospitals {
			if err := s.storeHospital(ctx, h, res); err != nil {
				return fmt.Errorf("hospital %q: %w", h.Hospital.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Duration = time.Since(start)
	s.logger.Info().Int("hospitals", res.Hospitals).Int("users", res.Users).
		Int("patients", res.Patients).Dur("duration", res.Duration).Msg("sandbox data stored")
	return res, nil
}

func (s *Seeder) storeHospital(ctx context.Context, h HospitalSeed, res *SeedResult) error {
	if err := s.stores.Hospitals.Create(ctx, h.Hospital); err != nil {
		return err
	}
	res.Hospitals++
	hid := h.Hospital.ID

	for _, ms := range h.Services {
		ms.HospitalID = hid
		if err := s.stores.Services.Create(ctx, ms); err != nil {
			return fmt.Errorf("service %q: %w", ms.Name, err)
		}
		res.Services++
	}

	for _, a := range []Account{h.Director, h.Chief} {
		if err := s.createAccount(ctx, a, &hid, res); err != nil {
			return err
		}
	}
	for _, d := range h.Doctors {
		if err := s.createAccount(ctx, d.Account, &hid, res); err != nil {
			return err
		}
		d.Doctor.UserID = d.Account.User.ID
		d.Doctor.HospitalID = &hid
		if err := s.stores.Doctors.Create(ctx, d.Doctor); err != nil {
			return fmt.Errorf("doctor %s: %w", d.Account.User.Email, err)
		}
		res.Doctors++
	}
	for _, p := range h.Patients {
		if err := s.createAccount(ctx, p.Account, nil, res); err != nil {
			return err
		}
		p.Patient.UserID = p.Account.User.ID
		if err := s.stores.Patients.Create(ctx, p.Patient); err != nil {
			return fmt.Errorf("patient %s: %w", p.Account.User.Email, err)
		}
		res.Patients++
	}
	return nil
}

func (s *Seeder) createAccount(ctx context.Context, a Account, hospitalID *uuid.UUID, res *SeedResult) error {
	hash, ok := s.hashes[a.Password]
	if !ok {
		var err error
		if hash, err = auth.HashPassword(a.Password); err != nil {
			return err
		}
		s.hashes[a.Password] = hash
	}
	u := a.User
	u.PasswordHash = hash
	u.HospitalID = hospitalID
	if err := s.stores.Users.Create(ctx, u); err != nil {
		return fmt.Errorf("user %s: %w", u.Email, err)
	}
	res.Users++

	welcome := &notification.Notification{
		UserID:  u.ID,
		Type:    notification.TypeSystem,
		Title:   "Welcome",
		Message: fmt.Sprintf("Your %s account is ready.", u.Role),
	}
	if err := s.stores.Notifications.Create(ctx, welcome); err != nil {
		return fmt.Errorf("notification for %s: %w", u.Email, err)
	}
	res.Notifications++
	return nil
}
