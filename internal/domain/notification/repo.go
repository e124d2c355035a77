package notification

import (
	"context"

	"github.com/google/uuid"

	"github.com/medisys/hms/internal/platform/listquery"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q listquery.Query, scope listquery.Predicate) (*listquery.Page[*Notification], error)
}
