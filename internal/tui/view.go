package tui

import (
	"fmt"
	"strings"

	"github.com/Sternrassler/artic-select/pkg/session"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	countStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusStyle = lipgloss.NewStyle().Italic(true)
)

const (
	checkedBox   = "[x]"
	uncheckedBox = "[ ]"
)

func checkbox(on bool) string {
	if on {
		return checkedBox
	}
	return uncheckedBox
}

// columns returns the table header. The first header cell mirrors whether the
// whole page is checked.
func columns(allChecked bool) []table.Column {
	return []table.Column{
		{Title: checkbox(allChecked), Width: 3},
		{Title: "Title", Width: 28},
		{Title: "Place of Origin", Width: 16},
		{Title: "Artist", Width: 28},
		{Title: "Inscriptions", Width: 20},
		{Title: "Start", Width: 6},
		{Title: "End", Width: 6},
	}
}

func tableRows(rows []session.Row) []table.Row {
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		out[i] = append(table.Row{checkbox(r.Selected)}, r.Artwork.Columns()...)
	}
	return out
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	title := "Artworks"
	if last := m.session.TotalPages(); last > 0 {
		title = fmt.Sprintf("Artworks  page %d of %d", m.session.Page(), last)
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(countStyle.Render(fmt.Sprintf("Selected: %d rows", m.session.SelectedCount())))
	if sum := m.session.Summary(); sum.BulkLimit > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  (first %d)", sum.BulkLimit)))
	}
	b.WriteString("\n\n")

	switch {
	case m.session.Loading() && len(m.session.Current().Records) == 0:
		b.WriteString(mutedStyle.Render(fmt.Sprintf("Loading page %d...", m.session.Page())))
		b.WriteString("\n")
	case m.session.Err() != nil:
		b.WriteString(errorStyle.Render("Could not load page: " + m.session.Err().Error()))
		b.WriteString("\n")
	case len(m.session.Current().Records) == 0:
		b.WriteString(mutedStyle.Render("No artworks"))
		b.WriteString("\n")
	default:
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}

	report := m.session.Report()
	if m.session.Loading() && len(m.session.Current().Records) > 0 {
		report += fmt.Sprintf("  loading page %d...", m.session.Page())
	}
	b.WriteString(mutedStyle.Render(report))
	b.WriteString("\n")

	if m.bulkMode {
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.bulkMode {
		b.WriteString(m.help.View(bulkHelp{m.keys}))
	} else {
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}
