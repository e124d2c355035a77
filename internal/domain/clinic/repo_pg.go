package clinic

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medisys/hms/internal/platform/db"
	"github.com/medisys/hms/internal/platform/listquery"
)

// -- Patient Repository --

const patientSelect = `SELECT p.id, p.user_id, p.gender, p.blood_type, p.phone, p.birth_date, p.created_at, p.updated_at,
	uj.name, uj.email, uj.active
	FROM patients p JOIN users uj ON uj.id = p.user_id`

type patientRepoPG struct {
	pool   db.Querier
	lister *db.Lister
}

func NewPatientRepo(pool db.Querier, lister *db.Lister) PatientRepository {
	return &patientRepoPG{pool: pool, lister: lister}
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO patients (user_id, gender, blood_type, phone, birth_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		p.UserID, p.Gender, p.BloodType, p.Phone, p.BirthDate,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return db.Classify(err)
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(db.Conn(ctx, r.pool).QueryRow(ctx, patientSelect+` WHERE p.id = $1`, id))
	return p, db.Classify(err)
}

func (r *patientRepoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*Patient, error) {
	p, err := scanPatient(db.Conn(ctx, r.pool).QueryRow(ctx, patientSelect+` WHERE p.user_id = $1`, userID))
	return p, db.Classify(err)
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE patients SET gender = $2, blood_type = $3, phone = $4, birth_date = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING user_id, created_at, updated_at`,
		p.ID, p.Gender, p.BloodType, p.Phone, p.BirthDate,
	).Scan(&p.UserID, &p.CreatedAt, &p.UpdatedAt)
	return db.Classify(err)
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) List(ctx context.Context, q listquery.Query, scope listquery.Predicate) (*listquery.Page[*Patient], error) {
	return db.ListPage(ctx, r.lister, PatientSchema, q, scope, scanPatient)
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.UserID, &p.Gender, &p.BloodType, &p.Phone, &p.BirthDate, &p.CreatedAt, &p.UpdatedAt,
		&p.UserName, &p.UserEmail, &p.UserActive)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// -- Doctor Repository --

const doctorSelect = `SELECT d.id, d.user_id, d.hospital_id, d.specialty, d.created_at, d.updated_at,
	uj.name, uj.email, uj.role
	FROM doctors d JOIN users uj ON uj.id = d.user_id`

type doctorRepoPG struct {
	pool   db.Querier
	lister *db.Lister
}

func NewDoctorRepo(pool db.Querier, lister *db.Lister) DoctorRepository {
	return &doctorRepoPG{pool: pool, lister: lister}
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO doctors (user_id, hospital_id, specialty)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		d.UserID, d.HospitalID, d.Specialty,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	return db.Classify(err)
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := scanDoctor(db.Conn(ctx, r.pool).QueryRow(ctx, doctorSelect+` WHERE d.id = $1`, id))
	return d, db.Classify(err)
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE doctors SET hospital_id = $2, specialty = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING user_id, created_at, updated_at`,
		d.ID, d.HospitalID, d.Specialty,
	).Scan(&d.UserID, &d.CreatedAt, &d.UpdatedAt)
	return db.Classify(err)
}

func (r *doctorRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *doctorRepoPG) List(ctx context.Context, q listquery.Query, scope listquery.Predicate) (*listquery.Page[*Doctor], error) {
	return db.ListPage(ctx, r.lister, DoctorSchema, q, scope, scanDoctor)
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.UserID, &d.HospitalID, &d.Specialty, &d.CreatedAt, &d.UpdatedAt,
		&d.UserName, &d.UserEmail, &d.UserRole)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
