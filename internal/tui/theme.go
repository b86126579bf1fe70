package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

type theme struct {
	title    lipgloss.Style
	guild    lipgloss.Style
	sortMode lipgloss.Style
	help     lipgloss.Style
	note     lipgloss.Style
	errNote  lipgloss.Style
	pinned   lipgloss.Style
	grabbed  lipgloss.Style
	selected lipgloss.Style
	normal   lipgloss.Style
	done     lipgloss.Style
	inflight lipgloss.Style
}

// applyColorProfile pins lipgloss to termenv's detected profile.
// CLICOLOR/CLICOLOR_FORCE are respected, which matters for scripted runs.
func applyColorProfile() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.ColorProfile())
}

func newTheme() theme {
	dark := termenv.HasDarkBackground()
	accent := lipgloss.Color("63")
	dim := lipgloss.Color("242")
	if !dark {
		dim = lipgloss.Color("245")
	}
	return theme{
		title:    lipgloss.NewStyle().Bold(true),
		guild:    lipgloss.NewStyle().Foreground(accent).Bold(true),
		sortMode: lipgloss.NewStyle().Foreground(dim),
		help:     lipgloss.NewStyle().Foreground(dim),
		note:     lipgloss.NewStyle().Foreground(dim),
		errNote:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		pinned:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		grabbed:  lipgloss.NewStyle().Foreground(accent).Bold(true),
		selected: lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("236")).Bold(true),
		normal:   lipgloss.NewStyle(),
		done:     lipgloss.NewStyle().Foreground(dim).Strikethrough(true),
		inflight: lipgloss.NewStyle().Foreground(accent),
	}
}
