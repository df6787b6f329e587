package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/weekplan/internal/app"
	"github.com/abhisek/weekplan/internal/catalog"
	"github.com/abhisek/weekplan/internal/editor"
	"github.com/abhisek/weekplan/internal/persist"
)

// closeTimeout bounds the final flush when an editor shuts down.
const closeTimeout = 15 * time.Second

var editCmd = &cobra.Command{
	Use:   "edit <plan-id>",
	Short: "Open a plan in the interactive editor",
	Args:  requireArgs(1, "edit <plan-id>"),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id := args[0]

		// The TUI owns the terminal, so logs go to a file or nowhere.
		log := slog.New(slog.NewTextHandler(io.Discard, nil))
		if path, _ := cmd.Flags().GetString("log-file"); path != "" {
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer f.Close()
			level, _ := cfg.Log.SlogLevel()
			log = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
		}
		logger = log

		b, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		cat, err := catalog.Default()
		if err != nil {
			return err
		}
		ed, err := openEditor(ctx, b, cat, id, log)
		if err != nil {
			return err
		}

		runErr := app.Run(ed, cat, b.Revisions(id))

		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		if err := ed.Close(closeCtx); err != nil {
			PrintError("final save failed: " + err.Error())
			if runErr == nil {
				runErr = err
			}
		}
		return runErr
	},
}

// openEditor loads planID from b and wraps it in an editor that autosaves
// back to b.
func openEditor(ctx context.Context, b persist.PlanStore, cat catalog.Catalog, planID string, log *slog.Logger) (*editor.Editor, error) {
	p, err := b.Load(ctx, planID)
	if err != nil {
		return nil, err
	}
	sync := persist.New(b, planID, cfg.Persist,
		persist.WithLogger(log.With("plan", planID)),
		persist.WithSavedVersion(p.Version),
	)
	log.Info("plan opened", "plan", planID, "version", p.Version)
	return editor.New(p, editor.Options{
		Catalog:        cat,
		Validation:     cfg.Validation,
		MaxHistory:     cfg.Editor.MaxHistory,
		CoalesceWindow: cfg.Editor.CoalesceWindow,
		Sync:           sync,
		Logger:         log.With("plan", planID),
	}), nil
}

func init() {
	editCmd.Flags().String("log-file", "", "Write logs to this file while the editor runs")
}
