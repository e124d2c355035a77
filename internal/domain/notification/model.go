package notification

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalid marks validation failures.
var ErrInvalid = errors.New("invalid notification")

const (
	TypeInfo        = "INFO"
	TypeAlert       = "ALERT"
	TypeAppointment = "APPOINTMENT"
	TypeReport      = "REPORT"
	TypeSystem      = "SYSTEM"
)

var types = []string{TypeInfo, TypeAlert, TypeAppointment, TypeReport, TypeSystem}

// Notification maps to the notifications table.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

func (n *Notification) Validate() error {
	n.Type = strings.ToUpper(strings.TrimSpace(n.Type))
	n.Title = strings.TrimSpace(n.Title)
	if n.Type == "" {
		n.Type = TypeInfo
	}
	if n.UserID == uuid.Nil {
		return fmt.Errorf("%w: userId is required", ErrInvalid)
	}
	if n.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	for _, t := range types {
		if n.Type == t {
			return nil
		}
	}
	return fmt.Errorf("%w: type must be one of %s", ErrInvalid, strings.Join(types, ", "))
}
