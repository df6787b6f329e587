package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Color palette, dark background with high-contrast accents
var (
	Primary   = lipgloss.Color("#8B5CF6") // Vivid Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Warning   = lipgloss.Color("#EAB308") // Amber
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	BgDark    = lipgloss.Color("#0F172A") // Deep Navy
	BgCard    = lipgloss.Color("#1E293B") // Dark Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Align(lipgloss.Center)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim).
			Align(lipgloss.Center)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// Layout
var (
	Header = lipgloss.NewStyle().
		Background(BgCard).
		Padding(0, 2)

	Footer = lipgloss.NewStyle().
		Background(BgCard).
		Padding(0, 2)

	Card = lipgloss.NewStyle().
		Background(BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)

	// Column frames one day of the week grid.
	Column = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)

	ColumnActive = Column.
			BorderForeground(Primary)
)

// States
var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	Done = lipgloss.NewStyle().
		Foreground(Success)

	Cancelled = lipgloss.NewStyle().
			Foreground(TextDim).
			Strikethrough(true)

	Notice = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)
)

// StatusColor maps a session status or a sync status to a color.
func StatusColor(status string) color.Color {
	switch status {
	case "completado", "guardado":
		return Success
	case "en-progreso", "guardando":
		return Secondary
	case "cancelado":
		return TextDim
	case "error":
		return Error
	}
	return Text
}

// SeverityColor maps an alert severity to a color.
func SeverityColor(severity string) color.Color {
	switch severity {
	case "error":
		return Error
	case "warn":
		return Warning
	}
	return Secondary
}
