package user

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medisys/hms/internal/platform/auth"
)

// ErrInvalid marks validation failures.
var ErrInvalid = errors.New("invalid user data")

// User maps to the users table.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         auth.Role  `json:"role"`
	HospitalID   *uuid.UUID `json:"hospitalId,omitempty"`
	HospitalName string     `json:"hospitalName,omitempty"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Principal returns the identity carried in tokens issued to u.
func (u *User) Principal() auth.Principal {
	return auth.Principal{UserID: u.ID, Role: u.Role, HospitalID: u.HospitalID}
}

// Input is the writable part of a user.
type Input struct {
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Password   string     `json:"password,omitempty"`
	Role       string     `json:"role"`
	HospitalID *uuid.UUID `json:"hospitalId,omitempty"`
	Active     *bool      `json:"active,omitempty"`
}

// Apply validates in and copies it onto u. The password is left to the
// caller.
func (in Input) Apply(u *User) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return err
	}
	role, err := auth.ParseRole(in.Role)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	u.Name, u.Email, u.Role, u.HospitalID = name, email, role, in.HospitalID
	if in.Active != nil {
		u.Active = *in.Active
	}
	return nil
}

func normalizeEmail(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", fmt.Errorf("%w: invalid email %q", ErrInvalid, s)
	}
	return s, nil
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries an issued token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user"`
}
