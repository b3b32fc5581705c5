package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBlacklist stores revoked ids in the token_blacklist table. Expired
// rows are pruned on every Add.
type PostgresBlacklist struct {
	db *pgxpool.Pool
}

func NewPostgresBlacklist(db *pgxpool.Pool) *PostgresBlacklist {
	return &PostgresBlacklist{db: db}
}

func (b *PostgresBlacklist) Add(ctx context.Context, jti string, expiresAt time.Time) error {
	return b.AddFor(ctx, jti, "", expiresAt)
}

// AddFor records the owner of the token as well.
func (b *PostgresBlacklist) AddFor(ctx context.Context, jti, username string, expiresAt time.Time) error {
	if err := b.CleanupExpired(ctx); err != nil {
		return err
	}
	const query = `
	INSERT INTO token_blacklist (jti, username, expires_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (jti) DO NOTHING
	`
	if _, err := b.db.Exec(ctx, query, jti, username, expiresAt); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

func (b *PostgresBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	const query = `
	SELECT EXISTS(
		SELECT 1 FROM token_blacklist
		WHERE jti = $1 AND expires_at > now()
	)
	`
	var exists bool
	if err := b.db.QueryRow(ctx, query, jti).Scan(&exists); err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return exists, nil
}

func (b *PostgresBlacklist) CleanupExpired(ctx context.Context) error {
	const query = `DELETE FROM token_blacklist WHERE expires_at < now()`
	_, err := b.db.Exec(ctx, query)
	return err
}
