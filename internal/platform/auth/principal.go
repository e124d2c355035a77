package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Role is a user's application role.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleDirector    Role = "DIRECTOR"
	RoleChiefDoctor Role = "CHIEF_DOCTOR"
	RoleDoctor      Role = "DOCTOR"
	RolePatient     Role = "PATIENT"
)

// Roles lists every role in descending order of privilege.
var Roles = []Role{RoleAdmin, RoleDirector, RoleChiefDoctor, RoleDoctor, RolePatient}

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Roles {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Principal is the authenticated caller. Handlers extract it once and pass
// it to services explicitly.
type Principal struct {
	UserID     uuid.UUID
	Role       Role
	HospitalID *uuid.UUID
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// HasRole reports whether p holds one of roles. Admins hold every role.
func (p Principal) HasRole(roles ...Role) bool {
	if p.IsAdmin() {
		return true
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// InHospital reports whether p belongs to hospital id.
func (p Principal) InHospital(id uuid.UUID) bool {
	return p.HospitalID != nil && *p.HospitalID == id
}

// ErrForbidden is returned by services when the caller may not act on a
// record.
var ErrForbidden = errors.New("forbidden")

// HospitalBound reports whether p's reads are confined to its hospital.
func (p Principal) HospitalBound() bool {
	return p.Role == RoleDirector || p.Role == RoleChiefDoctor
}

// HospitalScope returns the hospital p is confined to. restricted is false
// for callers who see every hospital. A hospital-bound caller without a
// hospital gets ErrForbidden.
func (p Principal) HospitalScope() (id uuid.UUID, restricted bool, err error) {
	if !p.HospitalBound() {
		return uuid.Nil, false, nil
	}
	if p.HospitalID == nil {
		return uuid.Nil, true, fmt.Errorf("%w: %s is not attached to a hospital", ErrForbidden, p.Role)
	}
	return *p.HospitalID, true, nil
}

const principalKey contextKey = "principal"

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal set by the auth middleware.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
