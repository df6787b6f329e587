package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/weekplan/internal/catalog"
	"github.com/abhisek/weekplan/internal/plan"
	"github.com/abhisek/weekplan/internal/validation"
)

var newCmd = &cobra.Command{
	Use:   "new <plan-id>",
	Short: "Create an empty plan",
	Long: `Create a plan with the given number of weeks and one empty session on each
training day. Days are 0 (Monday) to 6 (Sunday) or short names: lun,mie,vie.`,
	Args: requireArgs(1, "new <plan-id>"),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id := args[0]

		weeks, _ := cmd.Flags().GetInt("weeks")
		if weeks < 1 {
			return fmt.Errorf("--weeks must be at least 1")
		}
		daysFlag, _ := cmd.Flags().GetString("days")
		days, err := parseDays(daysFlag)
		if err != nil {
			return err
		}

		tmpl := plan.DefaultTemplate
		if v, _ := cmd.Flags().GetString("slot"); v != "" {
			tmpl.Slot = v
		}
		if v, _ := cmd.Flags().GetString("hora"); v != "" {
			if _, err := plan.ParseHora(v); err != nil {
				return err
			}
			tmpl.Hora = v
		}
		if v, _ := cmd.Flags().GetInt("duracion"); v > 0 {
			tmpl.Duracion = v
		}

		b, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		if _, err := b.Load(ctx, id); err == nil {
			return fmt.Errorf("plan %s already exists", id)
		} else if !errors.Is(err, plan.ErrNotFound) {
			return err
		}

		p := plan.Scaffold(id, weeks, days, tmpl)
		p.Name, _ = cmd.Flags().GetString("name")
		p.ClientID, _ = cmd.Flags().GetString("client")
		p.Version = 1
		if _, err := b.Save(ctx, id, p); err != nil {
			return err
		}
		PrintSuccess(fmt.Sprintf("Created plan %s: %d weeks, %d training days", id, weeks, len(days)))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored plans",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, _ := cmd.Flags().GetString("client")

		b, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		plans, err := b.List(ctx, client)
		if err != nil {
			return err
		}
		if len(plans) == 0 {
			PrintWarning("No plans stored yet. Create one with: weekplan new <plan-id>")
			return nil
		}

		rows := make([][]string, len(plans))
		for i, p := range plans {
			rows[i] = []string{p.ID, p.Name, p.ClientID, strconv.FormatInt(p.Version, 10), p.UpdatedAt.Local().Format("2006-01-02 15:04")}
		}
		return writeTable(cmd.OutOrStdout(), []string{"ID", "NAME", "CLIENT", "VERSION", "UPDATED"}, rows)
	},
}

var showCmd = &cobra.Command{
	Use:   "show <plan-id>",
	Short: "Print a plan and its alerts",
	Args:  requireArgs(1, "show <plan-id>"),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		b, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		p, err := b.Load(ctx, args[0])
		if err != nil {
			return err
		}
		cat, err := catalog.Default()
		if err != nil {
			return err
		}

		PrintSection(planTitle(p))
		PrintLabelValue("Version", strconv.FormatInt(p.Version, 10))
		if p.ClientID != "" {
			PrintLabelValue("Client", p.ClientID)
		}
		writePlan(cmd.OutOrStdout(), p, cat)

		alerts := validation.New(cfg.Validation).Evaluate(p)
		if len(alerts) > 0 {
			PrintSection(fmt.Sprintf("Alerts (%d)", len(alerts)))
			writeAlerts(cmd.OutOrStdout(), alerts)
		}
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [plan-id]",
	Short: "Run the coaching rules against a plan",
	Long: `Run the coaching rules against a stored plan, or against a JSON document
with --file. Exits non-zero when any error-severity alert is raised.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		file, _ := cmd.Flags().GetString("file")

		var p *plan.Plan
		switch {
		case file != "":
			raw, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			if p, err = plan.Decode(raw); err != nil {
				return err
			}
		case len(args) == 1:
			b, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()
			if p, err = b.Load(ctx, args[0]); err != nil {
				return err
			}
		default:
			return fmt.Errorf("usage: weekplan validate <plan-id> | --file <plan.json>")
		}

		alerts := validation.New(cfg.Validation).Evaluate(p)
		if len(alerts) == 0 {
			PrintSuccess("No alerts")
			return nil
		}
		writeAlerts(cmd.OutOrStdout(), alerts)

		errs := 0
		for _, a := range alerts {
			if a.Severity == validation.SeverityError {
				errs++
			}
		}
		if errs > 0 {
			return fmt.Errorf("%d blocking alerts", errs)
		}
		PrintWarning(fmt.Sprintf("%d alerts, none blocking", len(alerts)))
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a plan from a JSON document",
	Args:  requireArgs(1, "import <file>"),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		if err := plan.ValidateJSON(raw); err != nil {
			return err
		}
		p, err := plan.Decode(raw)
		if err != nil {
			return err
		}
		if id, _ := cmd.Flags().GetString("id"); id != "" {
			p.ID = id
		}

		b, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		// An import must win over whatever is stored under the same id.
		if cur, err := b.Load(ctx, p.ID); err == nil && cur.Version >= p.Version {
			p.Version = cur.Version + 1
		}
		if p.Version < 1 {
			p.Version = 1
		}
		res, err := b.Save(ctx, p.ID, p)
		if err != nil {
			return err
		}
		PrintSuccess(fmt.Sprintf("Imported plan %s at version %d", p.ID, res.Version))
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <plan-id>",
	Short: "Write a plan as JSON",
	Args:  requireArgs(1, "export <plan-id>"),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		b, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		p, err := b.Load(ctx, args[0])
		if err != nil {
			return err
		}
		doc, err := plan.Encode(p)
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("output")
		if out == "" || out == "-" {
			_, err := cmd.OutOrStdout().Write(append(doc, '\n'))
			return err
		}
		if err := os.WriteFile(out, append(doc, '\n'), 0o644); err != nil {
			return err
		}
		PrintSuccess("Wrote " + out)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <plan-id>",
	Short: "Delete a plan and its revisions",
	Args:  requireArgs(1, "delete <plan-id>"),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		b, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		if err := b.Delete(ctx, args[0]); err != nil {
			return err
		}
		PrintSuccess("Deleted plan " + args[0])
		return nil
	},
}

func planTitle(p *plan.Plan) string {
	if p.Name != "" {
		return fmt.Sprintf("%s (%s)", p.Name, p.ID)
	}
	return p.ID
}

func init() {
	newCmd.Flags().Int("weeks", 4, "Number of weeks")
	newCmd.Flags().String("days", "0,2,4", "Training days, 0 (Monday) to 6 (Sunday)")
	newCmd.Flags().String("name", "", "Plan name")
	newCmd.Flags().String("client", "", "Client id")
	newCmd.Flags().String("slot", "", "Session slot name (default manana)")
	newCmd.Flags().String("hora", "", "Session start time HH:MM (default 07:00)")
	newCmd.Flags().Int("duracion", 0, "Session duration in minutes (default 60)")

	listCmd.Flags().String("client", "", "Only list plans of this client")

	validateCmd.Flags().String("file", "", "Validate a JSON plan document instead of a stored plan")

	importCmd.Flags().String("id", "", "Store under this id instead of the document's")

	exportCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
}
