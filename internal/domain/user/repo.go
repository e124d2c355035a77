package user

import (
	"context"

	"github.com/google/uuid"

	"github.com/medisys/hms/internal/platform/listquery"
)

// Repository defines the persistence interface for users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	SetPassword(ctx context.Context, id uuid.UUID, hash string) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q listquery.Query, scope listquery.Predicate) (*listquery.Page[*User], error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
