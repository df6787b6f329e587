// Package pgstore stores plans in PostgreSQL.
package pgstore

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhisek/weekplan/internal/persist"
	"github.com/abhisek/weekplan/internal/plan"
)

//go:embed migrations/*.sql
var migrations embed.FS

var _ persist.PlanStore = (*Store)(nil)

// Store wraps a pgxpool.Pool.
type Store struct {
	Pool *pgxpool.Pool
}

// New creates a Store with a connection pool.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Store{Pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	s.Pool.Close()
}

// RunMigrations applies all pending embedded migrations.
func RunMigrations(dsn string) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("opening migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Load returns the stored plan, wrapping plan.ErrNotFound when missing.
func (s *Store) Load(ctx context.Context, planID string) (*plan.Plan, error) {
	var doc []byte
	err := s.Pool.QueryRow(ctx, `SELECT document FROM plans WHERE id = $1`, planID).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("loading plan %s: %w", planID, plan.ErrNotFound)
		}
		return nil, fmt.Errorf("loading plan %s: %w", planID, err)
	}
	p, err := plan.Decode(doc)
	if err != nil {
		return nil, fmt.Errorf("decoding plan %s: %w", planID, err)
	}
	return p, nil
}

// Save upserts p unless a newer version is stored and records the
// revision when it was written. The stored version is returned.
func (s *Store) Save(ctx context.Context, planID string, p *plan.Plan) (persist.SaveResult, error) {
	doc, err := plan.Encode(p)
	if err != nil {
		return persist.SaveResult{}, fmt.Errorf("encoding plan %s: %w", planID, err)
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return persist.SaveResult{}, fmt.Errorf("beginning save: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO plans (id, client_id, name, version, document, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (id) DO UPDATE SET
		   client_id = EXCLUDED.client_id,
		   name = EXCLUDED.name,
		   version = EXCLUDED.version,
		   document = EXCLUDED.document,
		   updated_at = EXCLUDED.updated_at
		 WHERE plans.version < EXCLUDED.version`,
		planID, p.ClientID, p.Name, p.Version, doc)
	if err != nil {
		return persist.SaveResult{}, fmt.Errorf("saving plan %s: %w", planID, err)
	}

	var (
		stored  int64
		savedAt time.Time
	)
	err = tx.QueryRow(ctx, `SELECT version, updated_at FROM plans WHERE id = $1`, planID).Scan(&stored, &savedAt)
	if err != nil {
		return persist.SaveResult{}, fmt.Errorf("reading back plan %s: %w", planID, err)
	}

	if stored == p.Version {
		_, err = tx.Exec(ctx,
			`INSERT INTO plan_revisions (plan_id, version, document)
			 VALUES ($1, $2, $3)
			 ON CONFLICT DO NOTHING`,
			planID, p.Version, doc)
		if err != nil {
			return persist.SaveResult{}, fmt.Errorf("saving revision %s v%d: %w", planID, p.Version, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return persist.SaveResult{}, fmt.Errorf("committing save: %w", err)
	}
	return persist.SaveResult{Version: stored, SavedAt: savedAt}, nil
}

// Summary describes a stored plan.
type Summary struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"clientId"`
	Name      string    `json:"name"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// List returns the plans of a client, or all plans when clientID is empty,
// most recently updated first.
func (s *Store) List(ctx context.Context, clientID string) ([]Summary, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, client_id, name, version, updated_at FROM plans
		 WHERE $1 = '' OR client_id = $1
		 ORDER BY updated_at DESC, id`, clientID)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.ClientID, &sum.Name, &sum.Version, &sum.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes a plan and, by cascade, its revisions.
func (s *Store) Delete(ctx context.Context, planID string) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM plans WHERE id = $1`, planID)
	if err != nil {
		return fmt.Errorf("deleting plan %s: %w", planID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting plan %s: %w", planID, plan.ErrNotFound)
	}
	return nil
}
