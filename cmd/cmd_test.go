package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/weekplan/internal/plan"
)

func TestParseDays(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"0,2,4", []int{0, 2, 4}, false},
		{" 1 , 6 ", []int{1, 6}, false},
		{"lun,mie,vie", []int{0, 2, 4}, false},
		{"mar,sab,dom", []int{1, 5, 6}, false},
		{"", nil, false},
		{"7", nil, true},
		{"-1", nil, true},
		{"xx", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDays(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// runCLI executes the root command against a private config and database.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	base := []string{
		"--config", filepath.Join(dir, "config.yaml"),
		"--db", filepath.Join(dir, "weekplan.db"),
		"--log-level", "error",
	}
	rootCmd.SetArgs(append(base, args...))
	err := rootCmd.ExecuteContext(t.Context())
	return buf.String(), err
}

func TestPlanLifecycle(t *testing.T) {
	for _, k := range []string{"WEEKPLAN_STORE_DRIVER", "WEEKPLAN_STORE_DSN", "WEEKPLAN_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()

	_, err := runCLI(t, dir, "new", "p1", "--weeks", "2", "--days", "0,2", "--name", "Fuerza", "--client", "ana")
	require.NoError(t, err)

	_, err = runCLI(t, dir, "new", "p1", "--weeks", "2", "--days", "0,2", "--name", "Fuerza", "--client", "ana")
	require.ErrorContains(t, err, "already exists")

	out, err := runCLI(t, dir, "export", "p1", "-o", "-")
	require.NoError(t, err)
	p, err := plan.Decode([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "Fuerza", p.Name)
	assert.Equal(t, int64(1), p.Version)
	require.Len(t, p.Weeks, 2)
	for _, w := range p.Weeks {
		assert.Len(t, w.Days[0].Sessions, 1)
		assert.Len(t, w.Days[1].Sessions, 0)
		assert.Len(t, w.Days[2].Sessions, 1)
	}

	// Empty sessions only raise info alerts.
	_, err = runCLI(t, dir, "validate", "p1")
	require.NoError(t, err)

	file := filepath.Join(dir, "p1.json")
	require.NoError(t, os.WriteFile(file, []byte(out), 0o644))
	_, err = runCLI(t, dir, "import", file, "--id", "p2")
	require.NoError(t, err)

	out, err = runCLI(t, dir, "list", "--client", "ana")
	require.NoError(t, err)
	assert.Contains(t, out, "p1")
	assert.Contains(t, out, "p2")

	out, err = runCLI(t, dir, "revisions", "p1", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "VERSION")

	_, err = runCLI(t, dir, "delete", "p2")
	require.NoError(t, err)
	out, err = runCLI(t, dir, "list", "--client", "")
	require.NoError(t, err)
	assert.Contains(t, out, "p1")
	assert.NotContains(t, out, "p2")

	_, err = runCLI(t, dir, "delete", "p2")
	assert.ErrorIs(t, err, plan.ErrNotFound)
}

func TestCatalogSearch(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "catalog", "sentadilla", "--limit", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "REF")
	assert.Contains(t, out, "sentadilla")
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, []string{"ID", "NAME"}, [][]string{{"p1", "Fuerza"}, {"p2", "Hipertrofia"}}))
	out := buf.String()
	for _, want := range []string{"ID", "NAME", "p1", "Fuerza", "Hipertrofia", "╭"} {
		assert.Contains(t, out, want)
	}
}
