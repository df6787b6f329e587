package server

import (
	"context"
	"errors"
	"sync"

	"github.com/abhisek/weekplan/internal/editor"
)

// OpenFunc loads a plan and wraps it in an editor. It wraps
// plan.ErrNotFound when the plan does not exist.
type OpenFunc func(ctx context.Context, planID string) (*editor.Editor, error)

// Registry keeps one editor per plan, opened on first use.
type Registry struct {
	open OpenFunc

	mu      sync.Mutex
	editors map[string]*editor.Editor
}

// NewRegistry creates a registry that opens editors with open.
func NewRegistry(open OpenFunc) *Registry {
	return &Registry{open: open, editors: make(map[string]*editor.Editor)}
}

// Get returns the editor for planID, opening it if needed.
func (r *Registry) Get(ctx context.Context, planID string) (*editor.Editor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ed, ok := r.editors[planID]; ok {
		return ed, nil
	}
	ed, err := r.open(ctx, planID)
	if err != nil {
		return nil, err
	}
	r.editors[planID] = ed
	return ed, nil
}

// Add registers an already open editor.
func (r *Registry) Add(planID string, ed *editor.Editor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.editors[planID] = ed
}

// Close flushes and closes every open editor.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	eds := r.editors
	r.editors = make(map[string]*editor.Editor)
	r.mu.Unlock()

	var errs []error
	for _, ed := range eds {
		errs = append(errs, ed.Close(ctx))
	}
	return errors.Join(errs...)
}
