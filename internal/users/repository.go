package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"mkulima/internal/database"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists is returned when the email is already registered
	ErrEmailExists = errors.New("email already registered")
)

// Repository handles all database operations on the users table.
type Repository interface {
	List(ctx context.Context) ([]User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) (*User, error)
	Update(ctx context.Context, id int64, upd UpdateUserRequest) (*User, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db database.Service
}

// NewRepository creates a postgres-backed users repository
func NewRepository(db database.Service) Repository {
	return &repository{db: db}
}

// List returns all users ordered by id, oldest account first.
func (r *repository) List(ctx context.Context) ([]User, error) {
	const q = `
		SELECT id, name, email, phone, role
		FROM users
		ORDER BY id ASC
	`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *repository) GetByID(ctx context.Context, id int64) (*User, error) {
	const q = `
		SELECT id, name, email, phone, role, password_hash
		FROM users
		WHERE id = $1
	`

	var u User
	err := r.db.QueryRow(ctx, q, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetByEmail looks up a user by normalized email. Email comparison is
// case-insensitive because addresses are lowercased on every write.
func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	const q = `
		SELECT id, name, email, phone, role, password_hash
		FROM users
		WHERE email = $1
	`

	var u User
	err := r.db.QueryRow(ctx, q, normalizeEmail(email)).
		Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

func (r *repository) Create(ctx context.Context, u *User) (*User, error) {
	const q = `
		INSERT INTO users (name, email, phone, role, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	created := *u
	created.Email = normalizeEmail(u.Email)

	err := r.db.QueryRow(ctx, q, created.Name, created.Email, created.Phone, created.Role, created.PasswordHash).
		Scan(&created.ID)
	if isUniqueViolation(err) {
		return nil, ErrEmailExists
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &created, nil
}

// Update applies the non-nil fields of upd and returns the fresh row.
func (r *repository) Update(ctx context.Context, id int64, upd UpdateUserRequest) (*User, error) {
	set := []string{}
	args := []any{}
	arg := 1

	if upd.Name != nil {
		set = append(set, fmt.Sprintf("name = $%d", arg))
		args = append(args, *upd.Name)
		arg++
	}
	if upd.Email != nil {
		set = append(set, fmt.Sprintf("email = $%d", arg))
		args = append(args, normalizeEmail(*upd.Email))
		arg++
	}
	if upd.Phone != nil {
		set = append(set, fmt.Sprintf("phone = $%d", arg))
		args = append(args, *upd.Phone)
		arg++
	}
	if upd.Role != nil {
		set = append(set, fmt.Sprintf("role = $%d", arg))
		args = append(args, *upd.Role)
		arg++
	}

	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	q := fmt.Sprintf(`
		UPDATE users
		SET %s
		WHERE id = $%d
		RETURNING id, name, email, phone, role, password_hash
	`, strings.Join(set, ", "), arg)
	args = append(args, id)

	var u User
	err := r.db.QueryRow(ctx, q, args...).
		Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if isUniqueViolation(err) {
		return nil, ErrEmailExists
	}
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &u, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM users WHERE id = $1`

	res, err := r.db.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// isUniqueViolation checks for a postgres unique constraint error
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
