package hospital

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalid marks validation failures.
var ErrInvalid = errors.New("invalid hospital data")

const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// Hospital maps to the hospitals table.
type Hospital struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Normalize trims free text and applies the default status.
func (h *Hospital) Normalize() {
	h.Name = strings.TrimSpace(h.Name)
	h.City = strings.TrimSpace(h.City)
	h.Address = strings.TrimSpace(h.Address)
	h.Phone = strings.TrimSpace(h.Phone)
	h.Status = strings.ToUpper(strings.TrimSpace(h.Status))
	if h.Status == "" {
		h.Status = StatusActive
	}
}

func (h *Hospital) Validate() error {
	if h.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if h.City == "" {
		return fmt.Errorf("%w: city is required", ErrInvalid)
	}
	if h.Status != StatusActive && h.Status != StatusInactive {
		return fmt.Errorf("%w: status must be %s or %s", ErrInvalid, StatusActive, StatusInactive)
	}
	return nil
}

// MedicalService is a service offered by a hospital. HospitalName is
// filled on reads.
type MedicalService struct {
	ID           uuid.UUID `json:"id"`
	HospitalID   uuid.UUID `json:"hospitalId"`
	HospitalName string    `json:"-"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	PriceCents   int64     `json:"priceCents"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (s *MedicalService) Validate() error {
	s.Name = strings.TrimSpace(s.Name)
	s.Description = strings.TrimSpace(s.Description)
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if s.HospitalID == uuid.Nil {
		return fmt.Errorf("%w: hospitalId is required", ErrInvalid)
	}
	if s.PriceCents < 0 {
		return fmt.Errorf("%w: priceCents must not be negative", ErrInvalid)
	}
	return nil
}

// ServiceView is the list representation of a service.
type ServiceView struct {
	ID           uuid.UUID `json:"id"`
	HospitalID   uuid.UUID `json:"hospitalId"`
	HospitalName string    `json:"hospitalName"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	PriceCents   int64     `json:"priceCents"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ToView flattens s for list responses.
func ToView(s *MedicalService) ServiceView {
	return ServiceView{
		ID:           s.ID,
		HospitalID:   s.HospitalID,
		HospitalName: s.HospitalName,
		Name:         s.Name,
		Description:  s.Description,
		PriceCents:   s.PriceCents,
		CreatedAt:    s.CreatedAt,
	}
}
