package render

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#FF8C42")
	warm   = lipgloss.Color("#FFB84D")
	muted  = lipgloss.Color("#6B7280")
	danger = lipgloss.Color("#FF4757")

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1).
			MarginBottom(1)

	FocusedCardStyle = CardStyle.
				BorderForeground(accent)

	SheetNameStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	MetaStyle = lipgloss.NewStyle().
			Foreground(muted)

	LabelStyle = lipgloss.NewStyle().
			Foreground(warm)

	PendingStyle = lipgloss.NewStyle().
			Foreground(muted).
			Italic(true)

	FailedStyle = lipgloss.NewStyle().
			Foreground(danger).
			Bold(true)

	DoneStyle = lipgloss.NewStyle().
			Foreground(warm).
			Bold(true)

	TableHeaderStyle = lipgloss.NewStyle().
				Foreground(accent).
				Bold(true).
				Padding(0, 1)

	TableCellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	IndexCellStyle = TableCellStyle.
			Foreground(muted)

	JSONStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			PaddingLeft(2)

	HintStyle = lipgloss.NewStyle().
			Foreground(muted)
)
