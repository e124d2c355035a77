package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medisys/hms/internal/platform/auth"
	"github.com/medisys/hms/internal/platform/db"
	"github.com/medisys/hms/internal/platform/listquery"
)

// EventCreated is the live event type pushed when a notification is stored.
const EventCreated = "notification.created"

// Publisher pushes live events to a user's open connections.
type Publisher interface {
	Publish(ctx context.Context, userID uuid.UUID, eventType string, payload any) error
}

type Service struct {
	repo      Repository
	publisher Publisher
	logger    zerolog.Logger
}

// NewService builds the service. publisher may be nil, in which case
// notifications are only stored.
func NewService(repo Repository, publisher Publisher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, publisher: publisher, logger: logger}
}

// Send stores a notification for its recipient. Only admins may address
// arbitrary users.
func (s *Service) Send(ctx context.Context, p auth.Principal, n *Notification) error {
	if !p.IsAdmin() {
		return auth.ErrForbidden
	}
	if err := n.Validate(); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.logger.Debug().Str("notification_id", n.ID.String()).Str("user_id", n.UserID.String()).
		Str("type", n.Type).Msg("notification stored")
	s.push(ctx, n)
	return nil
}

// push delivers n live. Delivery failures never fail the send; the
// notification is already stored.
func (s *Service) push(ctx context.Context, n *Notification) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, n.UserID, EventCreated, n); err != nil {
		s.logger.Warn().Err(err).Str("notification_id", n.ID.String()).Msg("live delivery failed")
	}
}

// owned loads a notification the caller may act on. Other users'
// notifications are reported as missing.
func (s *Service) owned(ctx context.Context, p auth.Principal, id uuid.UUID) (*Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && n.UserID != p.UserID {
		return nil, db.ErrNotFound
	}
	return n, nil
}

func (s *Service) Get(ctx context.Context, p auth.Principal, id uuid.UUID) (*Notification, error) {
	return s.owned(ctx, p, id)
}

func (s *Service) MarkRead(ctx context.Context, p auth.Principal, id uuid.UUID) (*Notification, error) {
	n, err := s.owned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if n.Read {
		return n, nil
	}
	if err := s.repo.MarkRead(ctx, id); err != nil {
		return nil, err
	}
	n.Read = true
	return n, nil
}

// MarkAllRead marks every unread notification of the caller and returns
// how many changed.
func (s *Service) MarkAllRead(ctx context.Context, p auth.Principal) (int64, error) {
	return s.repo.MarkAllRead(ctx, p.UserID)
}

func (s *Service) UnreadCount(ctx context.Context, p auth.Principal) (int, error) {
	return s.repo.CountUnread(ctx, p.UserID)
}

func (s *Service) Delete(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	if _, err := s.owned(ctx, p, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// List returns one page of notifications. Everyone except admins is
// confined to their own.
func (s *Service) List(ctx context.Context, p auth.Principal, q listquery.Query) (*listquery.Page[*Notification], error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := db.CheckUUIDFilters(q.Filters, "userId"); err != nil {
		return nil, err
	}
	if err := db.CheckBoolFilters(q.Filters, "read"); err != nil {
		return nil, err
	}
	var scope listquery.Predicate
	if !p.IsAdmin() {
		var err error
		if scope, err = db.Scope(Schema, "userId", p.UserID); err != nil {
			return nil, err
		}
	}
	return s.repo.List(ctx, q, scope)
}
