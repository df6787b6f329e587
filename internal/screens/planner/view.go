package planner

import (
	"fmt"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/weekplan/internal/plan"
	"github.com/abhisek/weekplan/internal/ui/theme"
)

// footerLines is the space kept under the grid for alerts and notices.
const footerLines = 3

func (s *PlannerScreen) View(width, height int) string {
	colWidth := max(width/plan.DaysPerWeek, 10)
	colHeight := max(height-footerLines-2, 3)

	cols := make([]string, plan.DaysPerWeek)
	for d := range plan.DaysPerWeek {
		cols[d] = s.renderDay(d, colWidth, colHeight)
	}
	grid := lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	return lipgloss.JoinVertical(lipgloss.Left, grid, s.renderStatus(width))
}

func (s *PlannerScreen) renderDay(d, width, height int) string {
	inner := max(width-4, 4) // border and padding
	line := lipgloss.NewStyle().MaxWidth(inner)

	var load float64
	day := s.state.Model.Day(s.week, d)
	if day != nil {
		for _, sess := range day.Sessions {
			for _, ex := range sess.Exercises {
				load += ex.Load()
			}
		}
	}

	title := dayNames[d]
	if load > 0 {
		title += " " + formatLoad(load)
	}
	lines := []string{theme.Title.Render(title), ""}

	rows := s.rows(s.week, d)
	if len(rows) == 0 {
		lines = append(lines, theme.Hint.Render("descanso"))
	}
	for i, r := range rows {
		text, style := s.rowText(r)
		if d == s.day && i == s.row {
			style = theme.Selected
			text = "▸" + text
		} else {
			text = " " + text
		}
		if r.slot < 0 && i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, line.Render(style.Render(text)))
	}

	frame := theme.Column
	if d == s.day {
		frame = theme.ColumnActive
	}
	return frame.Width(width).Height(height).Render(strings.Join(lines, "\n"))
}

func (s *PlannerScreen) rowText(r row) (string, lipgloss.Style) {
	if r.slot < 0 {
		sess := r.session
		text := fmt.Sprintf("%s %s", sess.Hora, sess.Slot)
		if sess.Estado == plan.StatusCancelled {
			return text, theme.Cancelled
		}
		return text, lipgloss.NewStyle().Bold(true).Foreground(theme.StatusColor(string(sess.Estado)))
	}

	ex := r.exercise()
	text := fmt.Sprintf(" %s %dx%d %s", s.exerciseName(ex.ExerciseRef), ex.Series, ex.Reps, formatKg(ex.Weight))
	if ex.Done {
		return "✓" + text, theme.Done
	}
	if r.session.Estado == plan.StatusCancelled {
		return " " + text, theme.Cancelled
	}
	return " " + text, theme.Body
}

func (s *PlannerScreen) renderStatus(width int) string {
	var lines []string

	if n := len(s.state.Alerts); n > 0 {
		a := s.state.Alerts[0]
		text := fmt.Sprintf("⚠ %d alertas · %s", n, a.Message)
		if a.Fixable() {
			text += " (f: " + a.FixLabel + ")"
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.SeverityColor(string(a.Severity))).Render(text))
	}
	if n := len(s.state.Notices); n > 0 {
		lines = append(lines, theme.Notice.Render("✗ "+s.state.Notices[n-1].Message+" (d: descartar)"))
	}
	if s.state.Sync.NeedsManualRetry {
		lines = append(lines, theme.Notice.Render("no se pudo guardar: "+s.state.Sync.LastError+" (r: reintentar)"))
	}
	if s.status != "" {
		lines = append(lines, theme.Hint.Render(s.status))
	}
	if len(lines) > footerLines {
		lines = lines[:footerLines]
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(strings.Join(lines, "\n"))
}

func formatKg(kg float64) string {
	return strconv.FormatFloat(kg, 'f', -1, 64) + "kg"
}

// formatLoad renders a daily load in tonnes once it passes 1000 kg.
func formatLoad(kg float64) string {
	if kg >= 1000 {
		return strconv.FormatFloat(kg/1000, 'f', 1, 64) + "t"
	}
	return strconv.FormatFloat(kg, 'f', 0, 64) + "kg"
}
