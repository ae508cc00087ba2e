package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository records issued refresh tokens for auditing and cleanup.
type Repository interface {
	RecordToken(ctx context.Context, id, subject string, expiresAt time.Time) error
	DeleteTokens(ctx context.Context, subject string) error
	PurgeExpired(ctx context.Context) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// RecordToken persists the issuance of a refresh token.
func (r *PGRepository) RecordToken(ctx context.Context, id, subject string, expiresAt time.Time) error {
	const query = `
		INSERT INTO refresh_tokens (id, subject, issued_at, expires_at)
		VALUES ($1, $2, now(), $3)`
	_, err := r.pool.Exec(ctx, query, id, subject, expiresAt.UTC())
	return err
}

// DeleteTokens removes every recorded token for a subject.
func (r *PGRepository) DeleteTokens(ctx context.Context, subject string) error {
	const query = `DELETE FROM refresh_tokens WHERE subject = $1`
	_, err := r.pool.Exec(ctx, query, subject)
	return err
}

// PurgeExpired deletes records whose validity window has passed and
// returns how many were removed.
func (r *PGRepository) PurgeExpired(ctx context.Context) (int64, error) {
	const query = `DELETE FROM refresh_tokens WHERE expires_at < now()`
	tag, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PGRepository)(nil)
