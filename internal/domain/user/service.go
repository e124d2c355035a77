package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medisys/hms/internal/platform/auth"
	"github.com/medisys/hms/internal/platform/db"
	"github.com/medisys/hms/internal/platform/importer"
	"github.com/medisys/hms/internal/platform/listquery"
	"github.com/medisys/hms/internal/platform/telemetry"
)

type Service struct {
	repo   Repository
	jwt    auth.JWTConfig
	tx     db.TxFunc
	logger zerolog.Logger
}

func NewService(repo Repository, jwt auth.JWTConfig, tx db.TxFunc, logger zerolog.Logger) *Service {
	if tx == nil {
		tx = db.NoTx
	}
	return &Service{repo: repo, jwt: jwt, tx: tx, logger: logger}
}

// Login verifies credentials and issues a token. Unknown emails, inactive
// accounts and wrong passwords all yield auth.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, db.ErrNotFound) {
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, auth.ErrInvalidCredentials
	}

	token, expires, err := auth.IssueToken(s.jwt, u.Principal())
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", u.ID.String()).Str("role", string(u.Role)).Msg("user logged in")
	return &LoginResponse{Token: token, ExpiresAt: expires, User: u}, nil
}

// grantable reports whether p may assign role within hospitalID.
// Directors staff their own hospital with clinical roles and patients.
func grantable(p auth.Principal, role auth.Role, hospitalID *uuid.UUID) bool {
	if p.IsAdmin() {
		return true
	}
	if p.Role != auth.RoleDirector || hospitalID == nil || !p.InHospital(*hospitalID) {
		return false
	}
	return role == auth.RoleChiefDoctor || role == auth.RoleDoctor || role == auth.RolePatient
}

func (s *Service) CreateUser(ctx context.Context, p auth.Principal, in Input) (*User, error) {
	u := &User{Active: true}
	if err := in.Apply(u); err != nil {
		return nil, err
	}
	if p.Role == auth.RoleDirector && u.HospitalID == nil {
		u.HospitalID = p.HospitalID
	}
	if !grantable(p, u.Role, u.HospitalID) {
		return nil, auth.ErrForbidden
	}
	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// visible reports whether p may read u.
func visible(p auth.Principal, u *User) bool {
	if p.IsAdmin() || p.UserID == u.ID {
		return true
	}
	if !p.HospitalBound() {
		return false
	}
	return u.HospitalID != nil && p.InHospital(*u.HospitalID)
}

func (s *Service) GetUser(ctx context.Context, p auth.Principal, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visible(p, u) {
		return nil, auth.ErrForbidden
	}
	return u, nil
}

// Me returns the caller's own account.
func (s *Service) Me(ctx context.Context, p auth.Principal) (*User, error) {
	return s.repo.GetByID(ctx, p.UserID)
}

func (s *Service) UpdateUser(ctx context.Context, p auth.Principal, id uuid.UUID, in Input) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !grantable(p, u.Role, u.HospitalID) {
		return nil, auth.ErrForbidden
	}
	if err := in.Apply(u); err != nil {
		return nil, err
	}
	if p.Role == auth.RoleDirector && u.HospitalID == nil {
		u.HospitalID = p.HospitalID
	}
	if !grantable(p, u.Role, u.HospitalID) {
		return nil, auth.ErrForbidden
	}

	err = s.tx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, u); err != nil {
			return err
		}
		if in.Password == "" {
			return nil
		}
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return err
		}
		return s.repo.SetPassword(ctx, u.ID, hash)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) DeleteUser(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	if !p.IsAdmin() {
		return auth.ErrForbidden
	}
	if p.UserID == id {
		return fmt.Errorf("%w: cannot delete your own account", ErrInvalid)
	}
	return s.repo.Delete(ctx, id)
}

// ListUsers returns one page of users. Directors and chief doctors only see
// users attached to their own hospital.
func (s *Service) ListUsers(ctx context.Context, p auth.Principal, q listquery.Query) (*listquery.Page[*User], error) {
	if !p.HasRole(auth.RoleDirector, auth.RoleChiefDoctor) {
		return nil, auth.ErrForbidden
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := db.CheckUUIDFilters(q.Filters, "hospitalId"); err != nil {
		return nil, err
	}
	if err := db.CheckBoolFilters(q.Filters, "active"); err != nil {
		return nil, err
	}

	var scope listquery.Predicate
	hid, restricted, err := p.HospitalScope()
	if err != nil {
		return nil, err
	}
	if restricted {
		if scope, err = db.Scope(Schema, "hospitalId", hid); err != nil {
			return nil, err
		}
	}
	return s.repo.List(ctx, q, scope)
}

var userImporter = importer.MustNew(importer.Config{
	Entity: "user",
	Schema: `{
		"type": "object",
		"required": ["name", "email", "role"],
		"properties": {
			"name": {"type": "string", "minLength": 1, "maxLength": 255},
			"email": {"type": "string", "format": "email"},
			"role": {"enum": ["ADMIN", "DIRECTOR", "CHIEF_DOCTOR", "DOCTOR", "PATIENT"]},
			"hospitalId": {"type": "string", "format": "uuid"},
			"password": {"type": "string", "minLength": 8},
			"active": {"type": "boolean"}
		}
	}`,
	Keys:  []string{"email"},
	Kinds: map[string]importer.Kind{"active": importer.Boolean},
})

// ImportUsers checks records and, unless dryRun, creates every accepted
// user in one transaction. Rows without a password get an account that
// cannot log in until one is set.
func (s *Service) ImportUsers(ctx context.Context, p auth.Principal, records []importer.Record, dryRun bool) (*importer.Report, error) {
	if !p.IsAdmin() {
		return nil, auth.ErrForbidden
	}
	for i := range records {
		if role, ok := records[i].Fields["role"]; ok {
			records[i].Fields["role"] = strings.ToUpper(role)
		}
	}
	exists := func(ctx context.Context, row importer.Row) (bool, error) {
		return s.repo.ExistsByEmail(ctx, strings.ToLower(row.String("email")))
	}
	report, err := userImporter.Check(ctx, records, exists)
	if err != nil {
		return nil, err
	}
	report.DryRun = dryRun

	if !dryRun && len(report.Accepted) > 0 {
		start := time.Now()
		err := s.tx(ctx, func(ctx context.Context) error {
			for _, row := range report.Accepted {
				if err := s.createImported(ctx, row); err != nil {
					return fmt.Errorf("import line %d: %w", row.Line, err)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		report.Imported = len(report.Accepted)
		s.logger.Debug().Dur("duration", time.Since(start)).Int("rows", report.Imported).Msg("user import stored")
	}

	telemetry.ObserveImport(report.Entity, report.Imported, len(report.Rejected), len(report.Duplicates))
	s.logger.Info().
		Str("entity", report.Entity).
		Int("total", report.Total).
		Int("imported", report.Imported).
		Int("rejected", len(report.Rejected)).
		Int("duplicates", len(report.Duplicates)).
		Bool("dry_run", dryRun).
		Msg("import finished")
	return report, nil
}

func (s *Service) createImported(ctx context.Context, row importer.Row) error {
	u := &User{
		Name:   strings.TrimSpace(row.String("name")),
		Email:  strings.ToLower(row.String("email")),
		Role:   auth.Role(row.String("role")),
		Active: true,
	}
	if active, ok := row.Bool("active"); ok {
		u.Active = active
	}
	if raw := row.String("hospitalId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("%w: hospitalId: %v", ErrInvalid, err)
		}
		u.HospitalID = &id
	}
	if pw := row.String("password"); pw != "" {
		hash, err := auth.HashPassword(pw)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
	}
	return s.repo.Create(ctx, u)
}
