// Package persist debounces plan snapshots into a store, tracks the sync
// status shown to the user and retries failed saves with backoff.
package persist

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/abhisek/weekplan/internal/plan"
)

// PlanStore loads and saves whole plans. Load wraps plan.ErrNotFound when
// the plan does not exist.
type PlanStore interface {
	Load(ctx context.Context, planID string) (*plan.Plan, error)
	Save(ctx context.Context, planID string, p *plan.Plan) (SaveResult, error)
}

// SaveResult is returned by a successful save.
type SaveResult struct {
	Version int64     `json:"version"`
	SavedAt time.Time `json:"savedAt"`
}

// SaveError wraps a failed save attempt.
type SaveError struct {
	PlanID  string
	Version int64
	Attempt int
	Err     error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save plan %s v%d (attempt %d): %v", e.PlanID, e.Version, e.Attempt+1, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// Status is the sync indicator.
type Status string

const (
	StatusSaved  Status = "guardado"
	StatusSaving Status = "guardando"
	StatusError  Status = "error"
)

// SyncState is a snapshot of the coordinator's status.
type SyncState struct {
	Status           Status    `json:"status"`
	LastSavedVersion int64     `json:"lastSavedVersion"`
	LastSavedAt      time.Time `json:"lastSavedAt,omitzero"`
	PendingVersion   int64     `json:"pendingVersion"`
	Attempt          int       `json:"attempt"`
	NeedsManualRetry bool      `json:"needsManualRetry"`
	LastError        string    `json:"lastError,omitempty"`
	Err              error     `json:"-"`
}

// Dirty reports whether a newer version than the saved one exists.
func (s SyncState) Dirty() bool {
	return s.PendingVersion > s.LastSavedVersion
}

// RetryConfig controls automatic retries after a failed save.
type RetryConfig struct {
	MaxRetries  int           `yaml:"max_retries"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Multiplier  float64       `yaml:"multiplier"`
	Jitter      bool          `yaml:"jitter"`
}

// DefaultRetryConfig returns five retries starting at 2s, doubling up to
// 30s, with jitter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:  5,
		InitialWait: 2 * time.Second,
		MaxWait:     30 * time.Second,
		Multiplier:  2.0,
		Jitter:      true,
	}
}

// backoff returns the wait before retry number attempt (0-based).
func (r RetryConfig) backoff(attempt int) time.Duration {
	wait := float64(r.InitialWait) * math.Pow(r.Multiplier, float64(attempt))
	if wait > float64(r.MaxWait) {
		wait = float64(r.MaxWait)
	}
	if r.Jitter {
		// ±20%
		wait += wait * 0.2 * (2*rand.Float64() - 1)
	}
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}

// Config holds coordinator timings.
type Config struct {
	Debounce    time.Duration `yaml:"debounce"`
	SaveTimeout time.Duration `yaml:"save_timeout"`
	Retry       RetryConfig   `yaml:"retry"`
}

// DefaultConfig returns an 800ms debounce and a 10s save timeout.
func DefaultConfig() Config {
	return Config{
		Debounce:    800 * time.Millisecond,
		SaveTimeout: 10 * time.Second,
		Retry:       DefaultRetryConfig(),
	}
}
