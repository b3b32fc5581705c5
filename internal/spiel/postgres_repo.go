package spiel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Repository = (*PostgresRepo)(nil)

const (
	uniqueViolation   = "23505"
	titelConstraint   = "spiele_titel_key"
	isbnConstraint    = "spiele_isbn_key"
	spielSelectColumn = `id::text, titel, rating, art, verlag, preis, rabatt, lieferbar, datum,
		isbn, homepage, schlagwoerter, autoren, version, created_at, updated_at`
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type PostgresRepo struct {
	pool    *pgxpool.Pool
	db      querier
	timeout time.Duration
}

// OpenPostgres connects to dsn and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string, timeout time.Duration) (*PostgresRepo, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return NewPostgresRepo(pool, timeout), nil
}

func NewPostgresRepo(pool *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{pool: pool, db: pool, timeout: timeout}
}

// Pool exposes the underlying pool for components sharing the connection.
func (r *PostgresRepo) Pool() *pgxpool.Pool {
	return r.pool
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) FindByID(ctx context.Context, id string) (*Spiel, error) {
	return r.findOne(ctx, "id = $1", id)
}

func (r *PostgresRepo) FindByTitel(ctx context.Context, titel string) (*Spiel, error) {
	return r.findOne(ctx, "titel = $1", titel)
}

func (r *PostgresRepo) FindByISBN(ctx context.Context, isbn string) (*Spiel, error) {
	return r.findOne(ctx, "isbn = $1", isbn)
}

func (r *PostgresRepo) findOne(ctx context.Context, where string, arg any) (*Spiel, error) {
	query := "SELECT " + spielSelectColumn + " FROM spiele WHERE " + where + " LIMIT 1"

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	s, err := scanSpiel(r.db.QueryRow(timeoutCtx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func (r *PostgresRepo) Find(ctx context.Context, q Query) ([]Spiel, error) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if q.Titel != "" {
		clauses = append(clauses, fmt.Sprintf("position(lower($%d) in lower(titel)) > 0", argn))
		args = append(args, q.Titel)
		argn++
	}

	if kws := q.Schlagwoerter(); len(kws) > 0 {
		clauses = append(clauses, fmt.Sprintf("schlagwoerter && $%d", argn))
		args = append(args, kws)
		argn++
	}

	if q.Art != "" {
		clauses = append(clauses, fmt.Sprintf("art = $%d", argn))
		args = append(args, string(q.Art))
		argn++
	}

	if q.Verlag != "" {
		clauses = append(clauses, fmt.Sprintf("verlag = $%d", argn))
		args = append(args, string(q.Verlag))
		argn++
	}

	if q.ISBN != "" {
		clauses = append(clauses, fmt.Sprintf("isbn = $%d", argn))
		args = append(args, q.ISBN)
		argn++
	}

	query := "SELECT " + spielSelectColumn + " FROM spiele WHERE " + strings.Join(clauses, " AND ") + " ORDER BY titel ASC, id ASC"

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Spiel{}
	for rows.Next() {
		s, err := scanSpiel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Insert(ctx context.Context, s *Spiel) error {
	const query = `
		INSERT INTO spiele (id, titel, rating, art, verlag, preis, rabatt, lieferbar, datum,
		                    isbn, homepage, schlagwoerter, autoren, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 0, NOW(), NOW())
		RETURNING version, created_at, updated_at
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query,
		s.ID, s.Titel, s.Rating, string(s.Art), string(s.Verlag), s.Preis, s.Rabatt, s.Lieferbar, s.Datum,
		s.ISBN, s.Homepage, nonNilStrings(s.Schlagwoerter), nonNilAutoren(s.Autoren),
	).Scan(&s.Version, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return mapUniqueViolation(err, s)
	}
	return nil
}

func (r *PostgresRepo) ReplaceByID(ctx context.Context, s *Spiel, version int) (*Spiel, error) {
	query := `
		UPDATE spiele SET
			titel = $3, rating = $4, art = $5, verlag = $6, preis = $7, rabatt = $8,
			lieferbar = $9, datum = $10, homepage = $11, schlagwoerter = $12, autoren = $13,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING ` + spielSelectColumn

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	out, err := scanSpiel(r.db.QueryRow(timeoutCtx, query,
		s.ID, version, s.Titel, s.Rating, string(s.Art), string(s.Verlag), s.Preis, s.Rabatt,
		s.Lieferbar, s.Datum, s.Homepage, nonNilStrings(s.Schlagwoerter), nonNilAutoren(s.Autoren),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapUniqueViolation(err, s)
	}
	return out, nil
}

func (r *PostgresRepo) RemoveByID(ctx context.Context, id string) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	_, err := r.db.Exec(timeoutCtx, `DELETE FROM spiele WHERE id = $1`, id)
	return err
}

func (r *PostgresRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &PostgresRepo{db: tx, timeout: r.timeout}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapUniqueViolation(fmt.Errorf("commit tx: %w", err), nil)
	}
	return nil
}

func (r *PostgresRepo) Ping(ctx context.Context) error {
	if r.pool == nil {
		return nil
	}
	return r.pool.Ping(ctx)
}

func (r *PostgresRepo) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

func scanSpiel(row pgx.Row) (*Spiel, error) {
	var (
		s           Spiel
		art, verlag string
		keywords    []string
	)
	err := row.Scan(
		&s.ID, &s.Titel, &s.Rating, &art, &verlag, &s.Preis, &s.Rabatt, &s.Lieferbar, &s.Datum,
		&s.ISBN, &s.Homepage, &keywords, &s.Autoren, &s.Version, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Art = Art(art)
	s.Verlag = Verlag(verlag)
	if len(keywords) > 0 {
		s.Schlagwoerter = keywords
	}
	if len(s.Autoren) == 0 {
		s.Autoren = nil
	}
	return &s, nil
}

func mapUniqueViolation(err error, s *Spiel) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	var titel, isbn string
	if s != nil {
		titel, isbn = s.Titel, s.ISBN
	}
	switch pgErr.ConstraintName {
	case titelConstraint:
		return newTitelExistsError(titel)
	case isbnConstraint:
		return newIsbnExistsError(isbn)
	default:
		return err
	}
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nonNilAutoren(v []Autor) []Autor {
	if v == nil {
		return []Autor{}
	}
	return v
}
