package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/weekplan/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog [query]",
	Short: "Search the exercise catalog",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Default()
		if err != nil {
			return err
		}
		var f catalog.Filters
		f.Muscle, _ = cmd.Flags().GetString("muscle")
		f.Equipment, _ = cmd.Flags().GetString("equipment")
		f.Limit, _ = cmd.Flags().GetInt("limit")

		results, err := cat.Search(cmd.Context(), strings.Join(args, " "), f)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			PrintWarning("No exercises match")
			return nil
		}

		rows := make([][]string, len(results))
		for i, e := range results {
			d := e.Defaults
			rows[i] = []string{e.Ref, e.Name, e.Muscle, e.Equipment, fmt.Sprintf("%dx%d %s %ds", d.Series, d.Reps, kg(d.Weight), d.Rest)}
		}
		return writeTable(cmd.OutOrStdout(), []string{"REF", "NAME", "MUSCLE", "EQUIPMENT", "DEFAULTS"}, rows)
	},
}

func init() {
	catalogCmd.Flags().String("muscle", "", "Only exercises for this muscle group")
	catalogCmd.Flags().String("equipment", "", "Only exercises using this equipment")
	catalogCmd.Flags().Int("limit", 0, "Maximum results (0 for all)")
}
