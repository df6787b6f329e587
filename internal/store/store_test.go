package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abhisek/weekplan/internal/plan"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testPlan(version int64) *plan.Plan {
	p := plan.Scaffold("plan-1", 2, []int{0, 2, 4}, plan.DefaultTemplate)
	p.Name = "Fuerza base"
	p.ClientID = "cliente-7"
	p.Version = version
	return p
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so we skip journal_mode here. It is tested with file-based DBs.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestWALOnFileDatabase(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "weekplan.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	var mode string
	if err := s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestLoadMissingPlan(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Load(context.Background(), "nope")
	if !errors.Is(err, plan.ErrNotFound) {
		t.Fatalf("load missing: got %v, want ErrNotFound", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := testPlan(3)
	sess := p.SessionAt(plan.Location{Week: 1, Day: 2, Slot: "manana"})
	sess.Insert(0, &plan.ExerciseSlot{ID: "x1", ExerciseRef: "sentadilla", Series: 4, Reps: 6, Weight: 80, Rest: 120})

	res, err := s.Save(ctx, p.ID, p)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if res.Version != 3 {
		t.Errorf("saved version = %d, want 3", res.Version)
	}

	got, err := s.Load(ctx, p.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Version != 3 || got.Name != "Fuerza base" || got.ClientID != "cliente-7" {
		t.Errorf("loaded header = %+v", got)
	}
	sl, i, ok := got.FindSlot("x1")
	if !ok {
		t.Fatal("exercise slot x1 missing after round trip")
	}
	if sl.Exercises[i].Weight != 80 {
		t.Errorf("peso = %v, want 80", sl.Exercises[i].Weight)
	}
}

func TestOlderVersionDoesNotOverwrite(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	newer := testPlan(5)
	newer.Name = "v5"
	if _, err := s.Save(ctx, newer.ID, newer); err != nil {
		t.Fatalf("save v5: %v", err)
	}

	older := testPlan(4)
	older.Name = "v4"
	res, err := s.Save(ctx, older.ID, older)
	if err != nil {
		t.Fatalf("save v4: %v", err)
	}
	if res.Version != 5 {
		t.Errorf("stale save reported version %d, want stored 5", res.Version)
	}

	got, err := s.Load(ctx, newer.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Name != "v5" {
		t.Errorf("name = %q, want v5", got.Name)
	}

	revs, err := s.Revisions(ctx, newer.ID, 0)
	if err != nil {
		t.Fatalf("revisions: %v", err)
	}
	if len(revs) != 1 || revs[0].Version != 5 {
		t.Errorf("revisions = %+v, want only v5", revs)
	}
	if _, err := s.LoadRevision(ctx, newer.ID, 4); !errors.Is(err, plan.ErrNotFound) {
		t.Errorf("LoadRevision(v4) err = %v, want ErrNotFound", err)
	}
}

func TestListAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		s.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		p := testPlan(1)
		p.ID = id
		if _, err := s.Save(ctx, id, p); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].ID != "c" || list[2].ID != "a" {
		t.Fatalf("list order = %+v, want c, b, a", list)
	}

	if err := s.Delete(ctx, "b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "b"); !errors.Is(err, plan.ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
	revs, err := s.Revisions(ctx, "b", 0)
	if err != nil {
		t.Fatalf("revisions: %v", err)
	}
	if len(revs) != 0 {
		t.Errorf("revisions of deleted plan = %d, want 0", len(revs))
	}
}

func TestRevisionsAndPrune(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for v := int64(1); v <= 7; v++ {
		p := testPlan(v)
		if _, err := s.Save(ctx, p.ID, p); err != nil {
			t.Fatalf("save v%d: %v", v, err)
		}
	}

	revs, err := s.Revisions(ctx, "plan-1", 3)
	if err != nil {
		t.Fatalf("revisions: %v", err)
	}
	if len(revs) != 3 || revs[0].Version != 7 {
		t.Fatalf("revisions = %+v, want newest 3", revs)
	}

	old, err := s.LoadRevision(ctx, "plan-1", 2)
	if err != nil {
		t.Fatalf("load revision: %v", err)
	}
	if old.Version != 2 {
		t.Errorf("revision version = %d, want 2", old.Version)
	}

	if err := s.Prune(ctx, "plan-1", 5); err != nil {
		t.Fatalf("prune: %v", err)
	}
	revs, err = s.Revisions(ctx, "plan-1", 0)
	if err != nil {
		t.Fatalf("revisions: %v", err)
	}
	if len(revs) != 5 {
		t.Errorf("remaining revisions = %d, want 5", len(revs))
	}
	if _, err := s.LoadRevision(ctx, "plan-1", 2); !errors.Is(err, plan.ErrNotFound) {
		t.Errorf("pruned revision: got %v, want ErrNotFound", err)
	}

	// Fewer than keep is a no-op.
	if err := s.Prune(ctx, "plan-1", 10); err != nil {
		t.Fatalf("prune no-op: %v", err)
	}
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()

	t.Run("env override", func(t *testing.T) {
		want := filepath.Join(dir, "custom", "plans.db")
		t.Setenv("WEEKPLAN_DB", want)
		got, err := DefaultDBPath()
		if err != nil {
			t.Fatalf("DefaultDBPath: %v", err)
		}
		if got != want {
			t.Errorf("path = %q, want %q", got, want)
		}
	})

	t.Run("xdg data home", func(t *testing.T) {
		t.Setenv("WEEKPLAN_DB", "")
		t.Setenv("XDG_DATA_HOME", dir)
		got, err := DefaultDBPath()
		if err != nil {
			t.Fatalf("DefaultDBPath: %v", err)
		}
		if want := filepath.Join(dir, "weekplan", "weekplan.db"); got != want {
			t.Errorf("path = %q, want %q", got, want)
		}
	})
}
