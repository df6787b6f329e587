package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/weekplan/internal/config"
	"github.com/abhisek/weekplan/internal/persist"
	"github.com/abhisek/weekplan/internal/pgstore"
	"github.com/abhisek/weekplan/internal/screens/history"
	"github.com/abhisek/weekplan/internal/store"
)

// planSummary is a stored plan as listed by the CLI.
type planSummary struct {
	ID        string
	ClientID  string
	Name      string
	Version   int64
	UpdatedAt time.Time
}

// backend is the plan store selected by the config.
type backend interface {
	persist.PlanStore
	List(ctx context.Context, clientID string) ([]planSummary, error)
	Delete(ctx context.Context, planID string) error
	// Revisions returns nil when the store keeps no revision log the
	// CLI can browse.
	Revisions(planID string) history.RevisionLister
	Close()
}

// openBackend opens the configured store. PostgreSQL migrations run first.
func openBackend(ctx context.Context, c *config.Config) (backend, error) {
	switch c.Store.Driver {
	case config.DriverPostgres:
		if err := pgstore.RunMigrations(c.Store.DSN); err != nil {
			return nil, err
		}
		st, err := pgstore.New(ctx, c.Store.DSN)
		if err != nil {
			return nil, err
		}
		logger.Debug("store opened", "driver", c.Store.Driver)
		return pgBackend{st}, nil
	default:
		path := c.Store.Path
		if path == "" {
			p, err := store.DefaultDBPath()
			if err != nil {
				return nil, fmt.Errorf("resolve DB path: %w", err)
			}
			path = p
		}
		st, err := store.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		logger.Debug("store opened", "driver", config.DriverSQLite, "path", path)
		return sqliteBackend{st}, nil
	}
}

type sqliteBackend struct {
	*store.Store
}

func (b sqliteBackend) List(ctx context.Context, clientID string) ([]planSummary, error) {
	all, err := b.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []planSummary
	for _, s := range all {
		if clientID != "" && s.ClientID != clientID {
			continue
		}
		out = append(out, planSummary(s))
	}
	return out, nil
}

func (b sqliteBackend) Revisions(planID string) history.RevisionLister {
	return func(ctx context.Context, limit int) ([]store.Revision, error) {
		return b.Store.Revisions(ctx, planID, limit)
	}
}

func (b sqliteBackend) Close() {
	if err := b.Store.Close(); err != nil {
		logger.Warn("close store", "error", err)
	}
}

type pgBackend struct {
	*pgstore.Store
}

func (b pgBackend) List(ctx context.Context, clientID string) ([]planSummary, error) {
	all, err := b.Store.List(ctx, clientID)
	if err != nil {
		return nil, err
	}
	out := make([]planSummary, len(all))
	for i, s := range all {
		out[i] = planSummary(s)
	}
	return out, nil
}

func (pgBackend) Revisions(string) history.RevisionLister {
	return nil
}
