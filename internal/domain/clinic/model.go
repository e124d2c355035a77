package clinic

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalid marks validation failures.
var ErrInvalid = errors.New("invalid clinic data")

var (
	genders    = []string{"MALE", "FEMALE", "OTHER"}
	bloodTypes = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}
)

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// Patient maps to the patients table. The User* fields come from the
// linked account on reads.
type Patient struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"userId"`
	Gender     string     `json:"gender"`
	BloodType  string     `json:"bloodType"`
	Phone      string     `json:"phone"`
	BirthDate  *time.Time `json:"birthDate,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	UserName   string     `json:"-"`
	UserEmail  string     `json:"-"`
	UserActive bool       `json:"-"`
}

func (p *Patient) Validate() error {
	p.Gender = strings.ToUpper(strings.TrimSpace(p.Gender))
	p.BloodType = strings.ToUpper(strings.TrimSpace(p.BloodType))
	p.Phone = strings.TrimSpace(p.Phone)
	if p.UserID == uuid.Nil {
		return fmt.Errorf("%w: userId is required", ErrInvalid)
	}
	if p.Gender != "" && !oneOf(p.Gender, genders) {
		return fmt.Errorf("%w: gender must be one of %s", ErrInvalid, strings.Join(genders, ", "))
	}
	if p.BloodType != "" && !oneOf(p.BloodType, bloodTypes) {
		return fmt.Errorf("%w: bloodType must be one of %s", ErrInvalid, strings.Join(bloodTypes, ", "))
	}
	if p.BirthDate != nil && p.BirthDate.After(time.Now()) {
		return fmt.Errorf("%w: birthDate is in the future", ErrInvalid)
	}
	return nil
}

// PatientView is the list representation of a patient.
type PatientView struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"userId"`
	UserName   string     `json:"userName"`
	UserEmail  string     `json:"userEmail"`
	UserActive bool       `json:"userActive"`
	Gender     string     `json:"gender"`
	BloodType  string     `json:"bloodType"`
	Phone      string     `json:"phone"`
	BirthDate  *time.Time `json:"birthDate,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func PatientToView(p *Patient) PatientView {
	return PatientView{
		ID:         p.ID,
		UserID:     p.UserID,
		UserName:   p.UserName,
		UserEmail:  p.UserEmail,
		UserActive: p.UserActive,
		Gender:     p.Gender,
		BloodType:  p.BloodType,
		Phone:      p.Phone,
		BirthDate:  p.BirthDate,
		CreatedAt:  p.CreatedAt,
	}
}

// Doctor maps to the doctors table.
type Doctor struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"userId"`
	HospitalID *uuid.UUID `json:"hospitalId,omitempty"`
	Specialty  string     `json:"specialty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	UserName   string     `json:"-"`
	UserEmail  string     `json:"-"`
	UserRole   string     `json:"-"`
}

func (d *Doctor) Validate() error {
	d.Specialty = strings.TrimSpace(d.Specialty)
	if d.UserID == uuid.Nil {
		return fmt.Errorf("%w: userId is required", ErrInvalid)
	}
	if d.Specialty == "" {
		return fmt.Errorf("%w: specialty is required", ErrInvalid)
	}
	return nil
}

// DoctorView is the list representation of a doctor.
type DoctorView struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"userId"`
	UserName   string     `json:"userName"`
	UserEmail  string     `json:"userEmail"`
	UserRole   string     `json:"userRole"`
	HospitalID *uuid.UUID `json:"hospitalId,omitempty"`
	Specialty  string     `json:"specialty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func DoctorToView(d *Doctor) DoctorView {
	return DoctorView{
		ID:         d.ID,
		UserID:     d.UserID,
		UserName:   d.UserName,
		UserEmail:  d.UserEmail,
		UserRole:   d.UserRole,
		HospitalID: d.HospitalID,
		Specialty:  d.Specialty,
		CreatedAt:  d.CreatedAt,
	}
}
