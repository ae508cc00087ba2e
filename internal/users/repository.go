package users

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/appbox-io/appbox/internal/apperror"
	"github.com/appbox-io/appbox/internal/security"
)

// ErrNotFound indicates the requested account does not exist.
var ErrNotFound = errors.New("users: not found")

// Repository defines persistence operations for accounts.
type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	UpdateAvatar(ctx context.Context, id int64, url string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const uniqueViolation = "23505"

// Create inserts a new account. A unique constraint violation on the email
// surfaces as the duplicate-username taxonomy error.
func (r *PGRepository) Create(ctx context.Context, user *User) (*User, error) {
	const query = `
		INSERT INTO users (email, nickname, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id, created_at, updated_at`
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx, query, user.Email, user.Nickname, user.PasswordHash, string(user.Role), now)
	created := *user
	if err := row.Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, apperror.New(apperror.KindDuplicateUsername)
		}
		return nil, err
	}
	return &created, nil
}

// FindByEmail fetches an account by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	const query = `
		SELECT id, email, nickname, password_hash, role, COALESCE(avatar_url, ''), created_at, updated_at
		FROM users WHERE email = $1`
	var (
		user User
		role string
	)
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.Nickname, &user.PasswordHash,
		&role, &user.AvatarURL, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	user.Role = security.Role(role)
	return &user, nil
}

// List returns all accounts ordered by email.
func (r *PGRepository) List(ctx context.Context) ([]User, error) {
	const query = `
		SELECT id, email, nickname, role, COALESCE(avatar_url, ''), created_at, updated_at
		FROM users ORDER BY email`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var (
			user User
			role string
		)
		if err := rows.Scan(&user.ID, &user.Email, &user.Nickname, &role, &user.AvatarURL, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		user.Role = security.Role(role)
		out = append(out, user)
	}
	return out, rows.Err()
}

// UpdatePassword replaces the stored password hash.
func (r *PGRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAvatar stores the uploaded avatar URL.
func (r *PGRepository) UpdateAvatar(ctx context.Context, id int64, url string) error {
	const query = `UPDATE users SET avatar_url = $2, updated_at = now() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, url)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
