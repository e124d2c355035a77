package hospital

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medisys/hms/internal/platform/auth"
	"github.com/medisys/hms/internal/platform/db"
	"github.com/medisys/hms/internal/platform/importer"
	"github.com/medisys/hms/internal/platform/listquery"
	"github.com/medisys/hms/internal/platform/telemetry"
)

type Service struct {
	hospitals HospitalRepository
	services  ServiceRepository
	tx        db.TxFunc
	logger    zerolog.Logger
}

func NewService(hospitals HospitalRepository, services ServiceRepository, tx db.TxFunc, logger zerolog.Logger) *Service {
	if tx == nil {
		tx = db.NoTx
	}
	return &Service{hospitals: hospitals, services: services, tx: tx, logger: logger}
}

// -- Hospital --

func (s *Service) CreateHospital(ctx context.Context, p auth.Principal, h *Hospital) error {
	if !p.IsAdmin() {
		return auth.ErrForbidden
	}
	h.Normalize()
	if err := h.Validate(); err != nil {
		return err
	}
	return s.hospitals.Create(ctx, h)
}

func (s *Service) GetHospital(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return s.hospitals.GetByID(ctx, id)
}

func (s *Service) UpdateHospital(ctx context.Context, p auth.Principal, h *Hospital) error {
	if !p.IsAdmin() && !(p.Role == auth.RoleDirector && p.InHospital(h.ID)) {
		return auth.ErrForbidden
	}
	h.Normalize()
	if err := h.Validate(); err != nil {
		return err
	}
	return s.hospitals.Update(ctx, h)
}

func (s *Service) DeleteHospital(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	if !p.IsAdmin() {
		return auth.ErrForbidden
	}
	return s.hospitals.Delete(ctx, id)
}

// ListHospitals returns one page of the hospital directory. Every
// authenticated caller sees every hospital.
func (s *Service) ListHospitals(ctx context.Context, q listquery.Query) (*listquery.Page[*Hospital], error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return s.hospitals.List(ctx, q, listquery.Predicate{})
}

// -- Medical service --

// canManage reports whether p may change the services of hospitalID.
func canManage(p auth.Principal, hospitalID uuid.UUID) bool {
	return p.IsAdmin() || (p.Role == auth.RoleDirector && p.InHospital(hospitalID))
}

func (s *Service) CreateService(ctx context.Context, p auth.Principal, ms *MedicalService) error {
	if err := ms.Validate(); err != nil {
		return err
	}
	if !canManage(p, ms.HospitalID) {
		return auth.ErrForbidden
	}
	if err := s.services.Create(ctx, ms); err != nil {
		return err
	}
	return s.reloadService(ctx, ms)
}

// reloadService refreshes ms from storage so joined columns such as
// HospitalName are filled after a write.
func (s *Service) reloadService(ctx context.Context, ms *MedicalService) error {
	stored, err := s.services.GetByID(ctx, ms.ID)
	if err != nil {
		return err
	}
	*ms = *stored
	return nil
}

func (s *Service) GetService(ctx context.Context, p auth.Principal, id uuid.UUID) (*MedicalService, error) {
	ms, err := s.services.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if hid, restricted, err := p.HospitalScope(); err != nil {
		return nil, err
	} else if restricted && hid != ms.HospitalID {
		return nil, auth.ErrForbidden
	}
	return ms, nil
}

func (s *Service) UpdateService(ctx context.Context, p auth.Principal, ms *MedicalService) error {
	if err := ms.Validate(); err != nil {
		return err
	}
	current, err := s.services.GetByID(ctx, ms.ID)
	if err != nil {
		return err
	}
	if !canManage(p, current.HospitalID) || !canManage(p, ms.HospitalID) {
		return auth.ErrForbidden
	}
	if err := s.services.Update(ctx, ms); err != nil {
		return err
	}
	return s.reloadService(ctx, ms)
}

func (s *Service) DeleteService(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	current, err := s.services.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(p, current.HospitalID) {
		return auth.ErrForbidden
	}
	return s.services.Delete(ctx, id)
}

// ListServices returns one page of services. Directors and chief doctors
// only see the services of their own hospital.
func (s *Service) ListServices(ctx context.Context, p auth.Principal, q listquery.Query) (*listquery.Page[*MedicalService], error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := db.CheckUUIDFilters(q.Filters, "hospitalId"); err != nil {
		return nil, err
	}
	scope := listquery.Predicate{}
	hid, restricted, err := p.HospitalScope()
	if err != nil {
		return nil, err
	}
	if restricted {
		if scope, err = db.Scope(ServiceSchema, "hospitalId", hid); err != nil {
			return nil, err
		}
	}
	return s.services.List(ctx, q, scope)
}

// -- Import --

var hospitalImporter = importer.MustNew(importer.Config{
	Entity: "hospital",
	Schema: `{
		"type": "object",
		"required": ["name", "city"],
		"properties": {
			"name": {"type": "string", "minLength": 1, "maxLength": 255},
			"city": {"type": "string", "minLength": 1, "maxLength": 120},
			"address": {"type": "string"},
			"phone": {"type": "string", "pattern": "^[+0-9 ().-]{4,40}$"},
			"status": {"enum": ["ACTIVE", "INACTIVE", "active", "inactive"]}
		}
	}`,
	Keys: []string{"name", "city"},
})

// ImportHospitals checks records and, unless dryRun, creates every accepted
// hospital in one transaction.
func (s *Service) ImportHospitals(ctx context.Context, p auth.Principal, records []importer.Record, dryRun bool) (*importer.Report, error) {
	if !p.IsAdmin() {
		return nil, auth.ErrForbidden
	}
	exists := func(ctx context.Context, row importer.Row) (bool, error) {
		return s.hospitals.ExistsByNameCity(ctx, row.String("name"), row.String("city"))
	}
	report, err := hospitalImporter.Check(ctx, records, exists)
	if err != nil {
		return nil, err
	}
	report.DryRun = dryRun

	if !dryRun && len(report.Accepted) > 0 {
		err := s.tx(ctx, func(ctx context.Context) error {
			for _, row := range report.Accepted {
				h := &Hospital{
					Name:    row.String("name"),
					City:    row.String("city"),
					Address: row.String("address"),
					Phone:   row.String("phone"),
					Status:  row.String("status"),
				}
				h.Normalize()
				if err := s.hospitals.Create(ctx, h); err != nil {
					return fmt.Errorf("import line %d: %w", row.Line, err)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		report.Imported = len(report.Accepted)
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
