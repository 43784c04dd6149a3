package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const idempotencySchema = `
CREATE TABLE IF NOT EXISTS request_idempotency (
    key_hash   TEXT PRIMARY KEY,
    response   TEXT        NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL
)`

// IdempotencyRepo stores replayable responses when Redis is not configured.
// Keys arrive already hashed from the middleware.
type IdempotencyRepo struct {
	pool *pgxpool.Pool
}

func NewIdempotencyRepo(pool *pgxpool.Pool) *IdempotencyRepo {
	return &IdempotencyRepo{pool: pool}
}

func (r *IdempotencyRepo) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, idempotencySchema)
	return err
}

func (r *IdempotencyRepo) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var response string
	err := r.pool.QueryRow(ctx,
		`SELECT response FROM request_idempotency WHERE key_hash = $1 AND expires_at > now()`, key,
	).Scan(&response)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return response, nil
}

// Set keeps the first response stored for a key until it expires.
func (r *IdempotencyRepo) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	const q = `
INSERT INTO request_idempotency (key_hash, response, expires_at)
VALUES ($1, $2, $3)
ON CONFLICT (key_hash) DO UPDATE SET response = EXCLUDED.response, expires_at = EXCLUDED.expires_at
WHERE request_idempotency.expires_at < now()`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, key, value, time.Now().Add(ttl))
	return err
}

func (r *IdempotencyRepo) CleanupExpired(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, `DELETE FROM request_idempotency WHERE expires_at < now()`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
