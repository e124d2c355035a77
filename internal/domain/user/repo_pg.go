package user

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medisys/hms/internal/platform/auth"
	"github.com/medisys/hms/internal/platform/db"
	"github.com/medisys/hms/internal/platform/listquery"
)

const userColumns = `u.id, u.name, u.email, u.role, u.hospital_id, COALESCE(hj.name, ''), u.active, u.created_at, u.updated_at`

const userFrom = ` FROM users u LEFT JOIN hospitals hj ON hj.id = u.hospital_id`

type repoPG struct {
	pool   db.Querier
	lister *db.Lister
}

func NewRepo(pool db.Querier, lister *db.Lister) Repository {
	return &repoPG{pool: pool, lister: lister}
}

func (r *repoPG) Create(ctx context.Context, u *User) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, role, hospital_id, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		u.Name, u.Email, u.PasswordHash, string(u.Role), u.HospitalID, u.Active,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return db.Classify(err)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getOne(ctx, `WHERE u.id = $1`, id)
}

// GetByEmail also loads the password hash for login.
func (r *repoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	var hash string
	row := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+userColumns+`, u.password_hash`+userFrom+` WHERE u.email = $1`, email)
	u, err := scanUser(row, &hash)
	if err != nil {
		return nil, db.Classify(err)
	}
	u.PasswordHash = hash
	return u, nil
}

func (r *repoPG) getOne(ctx context.Context, where string, args ...interface{}) (*User, error) {
	u, err := scanUser(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+userColumns+userFrom+` `+where, args...))
	return u, db.Classify(err)
}

func (r *repoPG) Update(ctx context.Context, u *User) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE users SET name = $2, email = $3, role = $4, hospital_id = $5, active = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		u.ID, u.Name, u.Email, string(u.Role), u.HospitalID, u.Active,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	return db.Classify(err)
}

func (r *repoPG) SetPassword(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, q listquery.Query, scope listquery.Predicate) (*listquery.Page[*User], error) {
	return db.ListPage(ctx, r.lister, Schema, q, scope, func(row pgx.Row) (*User, error) {
		return scanUser(row)
	})
}

func (r *repoPG) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

func scanUser(row pgx.Row, extra ...interface{}) (*User, error) {
	var (
		u    User
		role string
	)
	dest := append([]interface{}{
		&u.ID, &u.Name, &u.Email, &role, &u.HospitalID, &u.HospitalName, &u.Active, &u.CreatedAt, &u.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	u.Role = auth.Role(role)
	return &u, nil
}
