// Package catalog provides the read-only exercise catalog the editor draws
// exercise references and slot defaults from.
package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

// Defaults prefill a new exercise slot.
type Defaults struct {
	Series int     `yaml:"series" json:"series"`
	Reps   int     `yaml:"reps" json:"repeticiones"`
	Weight float64 `yaml:"weight" json:"peso"`
	Rest   int     `yaml:"rest" json:"descanso"`
}

// ExerciseSummary is one catalog entry.
type ExerciseSummary struct {
	Ref       string   `yaml:"ref" json:"ref"`
	Name      string   `yaml:"name" json:"name"`
	Muscle    string   `yaml:"muscle" json:"muscle"`
	Equipment string   `yaml:"equipment" json:"equipment"`
	Defaults  Defaults `yaml:"defaults" json:"defaults"`
}

// Filters narrow a search. Empty fields match everything; Limit <= 0 means
// no limit.
type Filters struct {
	Muscle    string
	Equipment string
	Limit     int
}

// Catalog is the searchable exercise catalog.
type Catalog interface {
	Search(ctx context.Context, query string, f Filters) ([]ExerciseSummary, error)
	Get(ref string) (ExerciseSummary, bool)
}

// Memory is an immutable in-memory catalog.
type Memory struct {
	byRef map[string]ExerciseSummary
	all   []ExerciseSummary // sorted by name
}

type seedFile struct {
	Exercises []ExerciseSummary `yaml:"exercises"`
}

// Default returns the catalog built from the embedded seed.
func Default() (*Memory, error) {
	return Parse(seedYAML)
}

// Parse builds a catalog from a YAML document with an `exercises` list.
func Parse(data []byte) (*Memory, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(f.Exercises)
}

// New builds a catalog from entries. Refs must be unique and non-empty.
func New(entries []ExerciseSummary) (*Memory, error) {
	m := &Memory{byRef: make(map[string]ExerciseSummary, len(entries))}
	for _, e := range entries {
		if e.Ref == "" {
			return nil, fmt.Errorf("catalog entry %q has no ref", e.Name)
		}
		if _, dup := m.byRef[e.Ref]; dup {
			return nil, fmt.Errorf("duplicate catalog ref %q", e.Ref)
		}
		m.byRef[e.Ref] = e
		m.all = append(m.all, e)
	}
	sort.Slice(m.all, func(i, j int) bool {
		if m.all[i].Name != m.all[j].Name {
			return m.all[i].Name < m.all[j].Name
		}
		return m.all[i].Ref < m.all[j].Ref
	})
	return m, nil
}

// Get returns the entry for ref.
func (m *Memory) Get(ref string) (ExerciseSummary, bool) {
	e, ok := m.byRef[ref]
	return e, ok
}

// Len returns the number of entries.
func (m *Memory) Len() int { return len(m.all) }

// Search matches query case-insensitively against ref and name. Results are
// ordered by name.
func (m *Memory) Search(ctx context.Context, query string, f Filters) ([]ExerciseSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	var out []ExerciseSummary
	for _, e := range m.all {
		if f.Muscle != "" && !strings.EqualFold(e.Muscle, f.Muscle) {
			continue
		}
		if f.Equipment != "" && !strings.EqualFold(e.Equipment, f.Equipment) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(e.Ref), q) && !strings.Contains(strings.ToLower(e.Name), q) {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}
