package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/weekplan/internal/persist"
	"github.com/abhisek/weekplan/internal/plan"
)

var _ persist.PlanStore = (*Store)(nil)

// Summary describes a stored plan without its document.
type Summary struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"clientId"`
	Name      string    `json:"name"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Revision is one saved version of a plan.
type Revision struct {
	Version int64     `json:"version"`
	SavedAt time.Time `json:"savedAt"`
}

// Load returns the stored plan. It wraps plan.ErrNotFound when the plan
// does not exist.
func (s *Store) Load(ctx context.Context, planID string) (*plan.Plan, error) {
	q, args := s.sb.Select("document").
		From(s.sb.Table("plans")).
		Where(entsql.EQ("id", planID)).
		Query()

	var doc string
	if err := s.queryRow(ctx, q, args).Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("load plan %s: %w", planID, plan.ErrNotFound)
		}
		return nil, fmt.Errorf("load plan %s: %w", planID, err)
	}
	p, err := plan.Decode([]byte(doc))
	if err != nil {
		return nil, fmt.Errorf("decode plan %s: %w", planID, err)
	}
	return p, nil
}

// Save writes p unless a newer version is already stored; the stored
// version is returned either way. Each version actually written is also
// kept as a revision.
func (s *Store) Save(ctx context.Context, planID string, p *plan.Plan) (persist.SaveResult, error) {
	doc, err := plan.Encode(p)
	if err != nil {
		return persist.SaveResult{}, fmt.Errorf("encode plan %s: %w", planID, err)
	}
	now := s.now().UTC()
	stamp := now.Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persist.SaveResult{}, fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	q, args := s.sb.Insert("plans").
		Columns("id", "client_id", "name", "version", "document", "updated_at").
		Values(planID, p.ClientID, p.Name, p.Version, string(doc), stamp).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWithNewValues(),
			entsql.UpdateWhere(entsql.ExprP("excluded.version > plans.version")),
		).
		Query()
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return persist.SaveResult{}, fmt.Errorf("save plan %s: %w", planID, err)
	}

	q, args = s.sb.Select("version").
		From(s.sb.Table("plans")).
		Where(entsql.EQ("id", planID)).
		Query()
	var stored int64
	if err := tx.QueryRowContext(ctx, q, args...).Scan(&stored); err != nil {
		return persist.SaveResult{}, fmt.Errorf("read back plan %s: %w", planID, err)
	}

	// A refused stale save leaves no revision behind.
	if stored == p.Version {
		q, args = s.sb.Insert("plan_revisions").
			Columns("plan_id", "version", "saved_at", "document").
			Values(planID, p.Version, stamp, string(doc)).
			OnConflict(entsql.ConflictColumns("plan_id", "version"), entsql.DoNothing()).
			Query()
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return persist.SaveResult{}, fmt.Errorf("save revision %s v%d: %w", planID, p.Version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return persist.SaveResult{}, fmt.Errorf("commit save: %w", err)
	}
	return persist.SaveResult{Version: stored, SavedAt: now}, nil
}

// List returns all stored plans, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	q, args := s.sb.Select("id", "client_id", "name", "version", "updated_at").
		From(s.sb.Table("plans")).
		OrderBy(entsql.Desc("updated_at"), "id").
		Query()
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum   Summary
			stamp string
		)
		if err := rows.Scan(&sum.ID, &sum.ClientID, &sum.Name, &sum.Version, &stamp); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		sum.UpdatedAt, _ = time.Parse(time.RFC3339Nano, stamp)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes a plan and its revisions.
func (s *Store) Delete(ctx context.Context, planID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	// Pragmas only reach the first pooled connection, so the cascade is
	// not relied upon.
	q, args := s.sb.Delete("plan_revisions").Where(entsql.EQ("plan_id", planID)).Query()
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("delete revisions %s: %w", planID, err)
	}
	q, args = s.sb.Delete("plans").Where(entsql.EQ("id", planID)).Query()
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("delete plan %s: %w", planID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete plan %s: %w", planID, plan.ErrNotFound)
	}
	return tx.Commit()
}

// Revisions lists saved versions of a plan, newest first. limit <= 0
// returns all.
func (s *Store) Revisions(ctx context.Context, planID string, limit int) ([]Revision, error) {
	sel := s.sb.Select("version", "saved_at").
		From(s.sb.Table("plan_revisions")).
		Where(entsql.EQ("plan_id", planID)).
		OrderBy(entsql.Desc("version"))
	if limit > 0 {
		sel.Limit(limit)
	}
	q, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	var out []Revision
	for rows.Next() {
		var (
			r     Revision
			stamp string
		)
		if err := rows.Scan(&r.Version, &stamp); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		r.SavedAt, _ = time.Parse(time.RFC3339Nano, stamp)
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadRevision returns the plan as saved at version.
func (s *Store) LoadRevision(ctx context.Context, planID string, version int64) (*plan.Plan, error) {
	q, args := s.sb.Select("document").
		From(s.sb.Table("plan_revisions")).
		Where(entsql.And(entsql.EQ("plan_id", planID), entsql.EQ("version", version))).
		Query()
	var doc string
	if err := s.queryRow(ctx, q, args).Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("load plan %s v%d: %w", planID, version, plan.ErrNotFound)
		}
		return nil, fmt.Errorf("load plan %s v%d: %w", planID, version, err)
	}
	return plan.Decode([]byte(doc))
}

// Prune deletes all but the keep most recent revisions of a plan.
func (s *Store) Prune(ctx context.Context, planID string, keep int) error {
	q, args := s.sb.Select("version").
		From(s.sb.Table("plan_revisions")).
		Where(entsql.EQ("plan_id", planID)).
		OrderBy(entsql.Desc("version")).
		Offset(keep).
		Limit(1).
		Query()
	var threshold int64
	if err := s.queryRow(ctx, q, args).Scan(&threshold); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil // fewer than keep revisions exist
		}
		return fmt.Errorf("query revisions for prune: %w", err)
	}

	q, args = s.sb.Delete("plan_revisions").
		Where(entsql.And(entsql.EQ("plan_id", planID), entsql.LTE("version", threshold))).
		Query()
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("prune revisions: %w", err)
	}
	return nil
}
