// Package postgres implements internal/store.Store against PostgreSQL using
// database/sql with the pgx/v5 stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/cidrfence/cidrfence/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and
// verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres-backed store directly over an existing
// *sql.DB, letting callers share a pool across the API, worker, and
// scheduler binaries.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Users() store.Users { return &users{db: s.db} }
func (s *pgStore) Lists() store.Lists { return &lists{db: s.db} }
func (s *pgStore) Cidrs() store.Cidrs { return &cidrs{db: s.db} }
func (s *pgStore) Queue() store.Queue { return &queue{db: s.db} }

// HealthPing implements health.HealthPinger for a Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Bootstrap verifies that Postgres is reachable and the schema is current,
// applying any pending migrations.
func Bootstrap(ctx context.Context, dsn string) error {
	if dsn == "" {
		return nil
	}
	db, err := Open(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return err
	}
	return RunMigrations(db)
}
