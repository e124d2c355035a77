package hospital

import (
	"context"

	"github.com/google/uuid"

	"github.com/medisys/hms/internal/platform/listquery"
)

// HospitalRepository defines the persistence interface for hospitals.
type HospitalRepository interface {
	Create(ctx context.Context, h *Hospital) error
	GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error)
	Update(ctx context.Context, h *Hospital) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q listquery.Query, scope listquery.Predicate) (*listquery.Page[*Hospital], error)
	ExistsByNameCity(ctx context.Context, name, city string) (bool, error)
}

// ServiceRepository defines the persistence interface for medical services.
type ServiceRepository interface {
	Create(ctx context.Context, s *MedicalService) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicalService, error)
	Update(ctx context.Context, s *MedicalService) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q listquery.Query, scope listquery.Predicate) (*listquery.Page[*MedicalService], error)
}
