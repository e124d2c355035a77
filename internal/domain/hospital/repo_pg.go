package hospital

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medisys/hms/internal/platform/db"
	"github.com/medisys/hms/internal/platform/listquery"
)

const hospitalColumns = `id, name, city, address, phone, status, created_at, updated_at`

type hospitalRepoPG struct {
	pool   db.Querier
	lister *db.Lister
}

func NewHospitalRepo(pool db.Querier, lister *db.Lister) HospitalRepository {
	return &hospitalRepoPG{pool: pool, lister: lister}
}

func (r *hospitalRepoPG) Create(ctx context.Context, h *Hospital) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO hospitals (name, city, address, phone, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		h.Name, h.City, h.Address, h.Phone, h.Status,
	).Scan(&h.ID, &h.CreatedAt, &h.UpdatedAt)
	return db.Classify(err)
}

func (r *hospitalRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	row := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+hospitalColumns+` FROM hospitals WHERE id = $1`, id)
	h, err := scanHospital(row)
	return h, db.Classify(err)
}

func (r *hospitalRepoPG) Update(ctx context.Context, h *Hospital) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE hospitals SET name = $2, city = $3, address = $4, phone = $5, status = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		h.ID, h.Name, h.City, h.Address, h.Phone, h.Status,
	).Scan(&h.CreatedAt, &h.UpdatedAt)
	return db.Classify(err)
}

func (r *hospitalRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM hospitals WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *hospitalRepoPG) List(ctx context.Context, q listquery.Query, scope listquery.Predicate) (*listquery.Page[*Hospital], error) {
	return db.ListPage(ctx, r.lister, HospitalSchema, q, scope, scanHospital)
}

func (r *hospitalRepoPG) ExistsByNameCity(ctx context.Context, name, city string) (bool, error) {
	var exists bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM hospitals WHERE LOWER(name) = LOWER($1) AND LOWER(city) = LOWER($2))`,
		name, city,
	).Scan(&exists)
	return exists, err
}

func scanHospital(row pgx.Row) (*Hospital, error) {
	var h Hospital
	err := row.Scan(&h.ID, &h.Name, &h.City, &h.Address, &h.Phone, &h.Status, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

const serviceColumns = `s.id, s.hospital_id, COALESCE(hj.name, ''), s.name, s.description, s.price_cents, s.created_at, s.updated_at`

type serviceRepoPG struct {
	pool   db.Querier
	lister *db.Lister
}

func NewServiceRepo(pool db.Querier, lister *db.Lister) ServiceRepository {
	return &serviceRepoPG{pool: pool, lister: lister}
}

func (r *serviceRepoPG) Create(ctx context.Context, s *MedicalService) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO services (hospital_id, name, description, price_cents)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		s.HospitalID, s.Name, s.Description, s.PriceCents,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return db.Classify(err)
}

func (r *serviceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicalService, error) {
	row := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT `+serviceColumns+` FROM services s
		LEFT JOIN hospitals hj ON hj.id = s.hospital_id
		WHERE s.id = $1`, id)
	s, err := scanService(row)
	return s, db.Classify(err)
}

func (r *serviceRepoPG) Update(ctx context.Context, s *MedicalService) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE services SET hospital_id = $2, name = $3, description = $4, price_cents = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		s.ID, s.HospitalID, s.Name, s.Description, s.PriceCents,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	return db.Classify(err)
}

func (r *serviceRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *serviceRepoPG) List(ctx context.Context, q listquery.Query, scope listquery.Predicate) (*listquery.Page[*MedicalService], error) {
	return db.ListPage(ctx, r.lister, ServiceSchema, q, scope, scanService)
}

func scanService(row pgx.Row) (*MedicalService, error) {
	var s MedicalService
	err := row.Scan(&s.ID, &s.HospitalID, &s.HospitalName, &s.Name, &s.Description, &s.PriceCents, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
