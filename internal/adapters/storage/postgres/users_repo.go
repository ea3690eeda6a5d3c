package postgres

import (
	"context"
	"database/sql"
	"strings"

	"granjas-del-carmen/internal/domain/users"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

const userColumns = `
	id, subject,
	email, name, phone, address, picture,
	role, active,
	created_at, updated_at
`

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			id, subject,
			email, name, phone, address, picture,
			role, active,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		u.ID,
		u.Subject,
		u.Email,
		u.Name,
		u.Phone,
		u.Address,
		u.Picture,
		string(u.Role),
		u.Active,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return users.ErrDuplicate
	}
	return err
}

func (r *UsersRepo) Update(ctx context.Context, u users.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET
			subject = $2,
			email = $3,
			name = $4,
			phone = $5,
			address = $6,
			picture = $7,
			role = $8,
			active = $9,
			updated_at = $10
		WHERE id = $1
	`,
		u.ID,
		u.Subject,
		u.Email,
		u.Name,
		u.Phone,
		u.Address,
		u.Picture,
		string(u.Role),
		u.Active,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return users.ErrDuplicate
		}
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return users.User{}, users.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UsersRepo) GetBySubject(ctx context.Context, subject string) (users.User, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return users.User{}, users.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE subject = $1`, subject)
	return scanUser(row)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return users.User{}, users.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *UsersRepo) List(ctx context.Context) ([]users.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (users.User, error) {
	var u users.User
	var role string
	if err := row.Scan(
		&u.ID,
		&u.Subject,
		&u.Email,
		&u.Name,
		&u.Phone,
		&u.Address,
		&u.Picture,
		&role,
		&u.Active,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, err
	}
	u.Role = users.Role(role)
	return u, nil
}
