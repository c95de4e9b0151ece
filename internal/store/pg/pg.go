// Package pg implementa el Store de usuarios sobre PostgreSQL (pgx).
//
// Esquema esperado:
//
//	CREATE TABLE users (
//	    username      TEXT PRIMARY KEY,
//	    password_hash TEXT NOT NULL,
//	    attributes    JSONB NOT NULL DEFAULT '{}'
//	);
package pg

import (
	"context"
	"errors"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/authbridge/internal/store"
)

// Store implementa store.Store sobre un pool pgx.
type Store struct{ pool *pgxpool.Pool }

// New abre un pool contra el DSN dado y verifica la conexión.
func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close cierra el pool subyacente (idempotente).
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*store.User, error) {
	var (
		hash  string
		attrs map[string]string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT password_hash, attributes FROM users WHERE username = $1`,
		username,
	).Scan(&hash, &attrs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u := store.NewUser(username, hash)
	// JSONB no preserva orden; lo fijamos alfabéticamente.
	names := make([]string, 0, len(attrs))
	for k := range attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		u.SetAttribute(k, attrs[k])
	}
	return u, nil
}
