package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/weekplan/internal/config"
	"github.com/abhisek/weekplan/internal/store"
)

var revisionsCmd = &cobra.Command{
	Use:   "revisions <plan-id>",
	Short: "List, restore or prune saved versions of a plan",
	Long: `List saved versions of a plan, newest first. --restore saves the chosen
revision as a new version; --prune keeps only the newest N revisions.
Revisions are browsable on the SQLite store only.`,
	Args: requireArgs(1, "revisions <plan-id>"),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id := args[0]
		if cfg.Store.Driver == config.DriverPostgres {
			return fmt.Errorf("revisions needs the sqlite store")
		}

		b, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.Close()
		st := b.(sqliteBackend).Store

		if v, _ := cmd.Flags().GetInt64("restore"); v > 0 {
			return restoreRevision(cmd, st, id, v)
		}
		if keep, _ := cmd.Flags().GetInt("prune"); keep > 0 {
			if err := st.Prune(ctx, id, keep); err != nil {
				return err
			}
			PrintSuccess(fmt.Sprintf("Kept the newest %d revisions of %s", keep, id))
			return nil
		}

		limit, _ := cmd.Flags().GetInt("limit")
		revs, err := st.Revisions(ctx, id, limit)
		if err != nil {
			return err
		}
		if len(revs) == 0 {
			PrintWarning("No revisions for " + id)
			return nil
		}
		rows := make([][]string, len(revs))
		for i, r := range revs {
			rows[i] = []string{strconv.FormatInt(r.Version, 10), r.SavedAt.Local().Format("2006-01-02 15:04:05")}
		}
		return writeTable(cmd.OutOrStdout(), []string{"VERSION", "SAVED"}, rows)
	},
}

// restoreRevision saves an old revision on top of the current version so
// the restore itself is a new revision.
func restoreRevision(cmd *cobra.Command, st *store.Store, id string, version int64) error {
	ctx := cmd.Context()
	cur, err := st.Load(ctx, id)
	if err != nil {
		return err
	}
	old, err := st.LoadRevision(ctx, id, version)
	if err != nil {
		return err
	}
	old.Version = cur.Version + 1
	res, err := st.Save(ctx, id, old)
	if err != nil {
		return err
	}
	PrintSuccess(fmt.Sprintf("Restored %s v%d as v%d", id, version, res.Version))
	return nil
}

func init() {
	revisionsCmd.Flags().Int("limit", 20, "Number of revisions to list (0 for all)")
	revisionsCmd.Flags().Int64("restore", 0, "Restore this revision as a new version")
	revisionsCmd.Flags().Int("prune", 0, "Keep only the newest N revisions")
}
