package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/abhisek/weekplan/internal/catalog"
	"github.com/abhisek/weekplan/internal/plan"
	"github.com/abhisek/weekplan/internal/validation"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
	labelColor   = color.New(color.FgWhite, color.Bold)
	dimColor     = color.New(color.FgHiBlack)
)

var dayNames = [plan.DaysPerWeek]string{"Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado", "Domingo"}

// PrintSection prints a section header
func PrintSection(title string) {
	fmt.Println()
	_, _ = headerColor.Printf("▸ %s\n", title)
}

// PrintSuccess prints a success message with a checkmark
func PrintSuccess(msg string) {
	_, _ = successColor.Printf("✓ %s\n", msg)
}

// PrintWarning prints a warning message with a warning symbol
func PrintWarning(msg string) {
	_, _ = warningColor.Printf("⚠ %s\n", msg)
}

// PrintError prints an error message to stderr
func PrintError(msg string) {
	_, _ = errorColor.Fprintf(os.Stderr, "✗ %s\n", msg)
}

// PrintLabelValue prints a label-value pair
func PrintLabelValue(label, value string) {
	_, _ = labelColor.Printf("  %s: ", label)
	fmt.Println(value)
}

func statusColor(s plan.Status) *color.Color {
	switch s {
	case plan.StatusDone:
		return successColor
	case plan.StatusInProgress:
		return infoColor
	case plan.StatusCancelled:
		return dimColor
	}
	return labelColor
}

func severityColor(s validation.Severity) *color.Color {
	switch s {
	case validation.SeverityError:
		return errorColor
	case validation.SeverityWarn:
		return warningColor
	}
	return infoColor
}

// writePlan renders the plan week by week. Exercise names come from cat
// when it knows the ref.
func writePlan(w io.Writer, p *plan.Plan, cat catalog.Catalog) {
	for _, week := range p.Weeks {
		fmt.Fprintln(w)
		headerColor.Fprintf(w, "Semana %d\n", week.Index+1)
		for _, day := range week.Days {
			sessions := day.Ordered()
			if len(sessions) == 0 {
				continue
			}
			fmt.Fprintf(w, "  %s\n", dayNames[day.Index])
			for _, s := range sessions {
				statusColor(s.Estado).Fprintf(w, "    %s %-8s %3d min  [%s]\n", s.Hora, s.Slot, s.Duracion, s.Estado)
				for _, ex := range s.Exercises {
					mark := " "
					if ex.Done {
						mark = "✓"
					}
					fmt.Fprintf(w, "      %s %d. %-28s %dx%d  %s  %ds\n",
						mark, ex.Order+1, exerciseName(cat, ex.ExerciseRef), ex.Series, ex.Reps, kg(ex.Weight), ex.Rest)
				}
			}
		}
	}
}

// writeAlerts prints alerts one per line, severity first.
func writeAlerts(w io.Writer, alerts []validation.Alert) {
	for _, a := range alerts {
		severityColor(a.Severity).Fprintf(w, "  %-5s ", a.Severity)
		fmt.Fprintf(w, "%-22s %s", a.Rule, a.Message)
		if a.Fixable() {
			dimColor.Fprintf(w, "  (fix: %s)", a.FixLabel)
		}
		fmt.Fprintln(w)
	}
}

func exerciseName(cat catalog.Catalog, ref string) string {
	if cat != nil {
		if ex, ok := cat.Get(ref); ok {
			return ex.Name
		}
	}
	return ref
}

func kg(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "kg"
}

// parseDays parses "0,2,4" or "lun,mie,vie" into day indexes.
func parseDays(s string) ([]int, error) {
	var out []int
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		if n, err := strconv.Atoi(part); err == nil {
			if n < 0 || n >= plan.DaysPerWeek {
				return nil, fmt.Errorf("day %d out of range 0-6", n)
			}
			out = append(out, n)
			continue
		}
		found := false
		for i, name := range dayNames {
			if strings.HasPrefix(strings.ToLower(stripAccents(name)), stripAccents(part)) && len(part) >= 2 {
				out = append(out, i)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown day %q", part)
		}
	}
	return out, nil
}

func stripAccents(s string) string {
	return strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "Á", "A", "É", "E").Replace(s)
}
