package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nconklindev/sheetjson/internal/export"
)

// Render draws every card top to bottom. It always redraws everything.
func Render(v View, width int) string {
	if len(v.Cards) == 0 {
		return MetaStyle.Render("No sheets loaded.")
	}

	cards := make([]string, 0, len(v.Cards))
	for _, c := range v.Cards {
		cards = append(cards, RenderCard(c, width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func RenderCard(c Card, width int) string {
	var s strings.Builder

	check := "[ ]"
	if c.Selected {
		check = "[x]"
	}
	s.WriteString(fmt.Sprintf("%s %s  ", check, SheetNameStyle.Render(c.Name)))
	s.WriteString(MetaStyle.Render(fmt.Sprintf("~%d rows · %d cols (preview: first rows, up to 50 cols)", c.RowCount, c.ColCount)))
	s.WriteString("\n\n")

	s.WriteString(renderTable(c.Table, width-6))
	s.WriteString("\n\n")

	switch c.Status {
	case StatusPending:
		s.WriteString(PendingStyle.Render("Not analyzed yet"))
	case StatusFailed:
		s.WriteString(FailedStyle.Render("Analysis failed: " + c.StatusMessage))
	case StatusDone:
		s.WriteString(DoneStyle.Render("Analysis complete, adjust the fields below if needed"))
	}
	s.WriteString("\n")

	cols := c.Columns
	if cols == "" {
		cols = HintStyle.Render("(empty: list literal or comma separated)")
	}
	s.WriteString(LabelStyle.Render("Columns: "))
	s.WriteString(cols)
	s.WriteString("\n")
	s.WriteString(LabelStyle.Render("Data start row: "))
	s.WriteString(fmt.Sprintf("%d", c.DataStartRow))

	if c.Downloadable {
		s.WriteString("\n\n")
		shown := c.RecordCount
		if shown > export.PreviewLimit {
			shown = export.PreviewLimit
		}
		s.WriteString(LabelStyle.Render(fmt.Sprintf("JSON preview (%d of %d records):", shown, c.RecordCount)))
		s.WriteString("\n")
		s.WriteString(JSONStyle.Render(c.JSONPreview))
		s.WriteString("\n")
		s.WriteString(HintStyle.Render(fmt.Sprintf("d: download %s", c.FileName)))
	}

	style := CardStyle
	if c.Focused {
		style = FocusedCardStyle
	}
	if width > 0 {
		style = style.Width(width - 2)
	}
	return style.Render(s.String())
}

func renderTable(t Table, width int) string {
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(MetaStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case col == 0:
				return IndexCellStyle
			default:
				return TableCellStyle
			}
		}).
		Headers(t.Header...).
		Rows(t.Rows...)
	if width > 0 {
		tbl = tbl.Width(width)
	}
	return tbl.String()
}
