package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	xansi "github.com/charmbracelet/x/ansi"
)

// rowItem is a single list row for either view. Everything the
// delegate needs is precomputed so Render stays allocation-light.
type rowItem struct {
	id       string
	title    string
	meta     string
	pinned   bool
	done     bool
	grabbed  bool
	inflight bool
}

func (r rowItem) FilterValue() string { return r.title }

// rowDelegate renders one compact line per item. Width is clamped with
// x/ansi so styled runes do not push rows past the terminal edge.
type rowDelegate struct {
	th theme
}

func (d rowDelegate) Height() int                             { return 1 }
func (d rowDelegate) Spacing() int                            { return 0 }
func (d rowDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d rowDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	row, ok := item.(rowItem)
	if !ok {
		return
	}

	cursor := "  "
	if index == m.Index() {
		cursor = "> "
	}

	marker := "  "
	switch {
	case row.grabbed:
		marker = "◆ "
	case row.pinned:
		marker = "★ "
	}

	title := row.title
	if row.meta != "" {
		title = fmt.Sprintf("%s  %s", title, row.meta)
	}
	if row.inflight {
		title += " …"
	}

	width := m.Width() - xansi.StringWidth(cursor) - xansi.StringWidth(marker)
	if width > 0 && xansi.StringWidth(title) > width {
		title = xansi.Cut(title, 0, width-1) + "…"
	}

	style := d.th.normal
	switch {
	case row.grabbed:
		style = d.th.grabbed
	case index == m.Index():
		style = d.th.selected
	case row.done:
		style = d.th.done
	case row.inflight:
		style = d.th.inflight
	}

	markerStyle := d.th.normal
	if row.pinned && !row.grabbed {
		markerStyle = d.th.pinned
	}

	fmt.Fprint(w, cursor+markerStyle.Render(marker)+style.Render(title))
}
