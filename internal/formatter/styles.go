package formatter

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// Palette is a small stylesheet of named [lipgloss.Style] values used by styled text output.
type Palette struct {
	title  lipgloss.Style
	header lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	muted  lipgloss.Style
}

func NewPalette(title, ok, err, warn, muted string) *Palette {
	return &Palette{
		title:  NewBold(title).MarginBottom(1),
		header: NewBold(warn).Padding(0, 1),
		ok:     NewBold(ok),
		err:    NewBold(err),
		muted:  NewEm(muted),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// Title renders s as a heading.
func Title(s string) string { return styles.title.Render(s) }

// OK renders a success message.
func OK(s string) string { return styles.ok.Render(s) }

// Err renders a failure message.
func Err(s string) string { return styles.err.Render(s) }

// Muted renders secondary text such as hints.
func Muted(s string) string { return styles.muted.Render(s) }

func (p *Palette) table(t Table) *table.Table {
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(p.muted).
		Headers(t.Headers...).
		Rows(t.Rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.header
			}
			return cell
		})
}
