package cmd

import (
	"io"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/abhisek/weekplan/internal/ui/theme"
)

var (
	tableHeader = lipgloss.NewStyle().Bold(true).Foreground(theme.Primary).Padding(0, 1)
	tableCell   = lipgloss.NewStyle().Foreground(theme.Text).Padding(0, 1)
	tableKey    = tableCell.Foreground(theme.Secondary)
)

// writeTable renders rows under headers. The first column holds the id
// and is highlighted.
func writeTable(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeader
			case col == 0:
				return tableKey
			}
			return tableCell
		}).
		Headers(headers...).
		Rows(rows...)
	// Fprintln downsamples colors to what w supports.
	_, err := lipgloss.Fprintln(w, t.String())
	return err
}
