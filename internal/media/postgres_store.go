package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const foreignKeyViolation = "23503"

// PostgresStore keeps files in the spiel_media table.
type PostgresStore struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresStore(pool *pgxpool.Pool, timeout time.Duration) *PostgresStore {
	return &PostgresStore{pool: pool, timeout: timeout}
}

func (s *PostgresStore) Put(ctx context.Context, id, contentType string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read media: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err = s.pool.Exec(ctx, `
		INSERT INTO spiel_media (spiel_id, content_type, data, size, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (spiel_id) DO UPDATE
		SET content_type = EXCLUDED.content_type,
		    data = EXCLUDED.data,
		    size = EXCLUDED.size,
		    updated_at = NOW()`,
		id, contentType, data, int64(len(data)))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Object, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		o    Object
		data []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT content_type, data, size, updated_at FROM spiel_media WHERE spiel_id = $1`, id,
	).Scan(&o.ContentType, &data, &o.Size, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Body = io.NopCloser(bytes.NewReader(data))
	return &o, nil
}
