// Package ui renders the rhythm pattern as a single status line on the
// terminal. It implements the host.Display collaborator: the engine decides
// when to refresh, this package only draws.
package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/jamloop/jamloop/pkg/host"
	"github.com/jamloop/jamloop/pkg/rhythm"
)

// Cursor reports the sequencer position to highlight. May be nil.
type Cursor interface {
	Position() int
}

// PatternView draws the current pattern, tempo and device banner. The line
// is redrawn in place with a carriage return, so it plays nicely with slog
// output going to stderr.
type PatternView struct {
	spec   *rhythm.Spec
	cursor Cursor
	out    io.Writer
	banner string

	bannerStyle lipgloss.Style
	hitStyle    lipgloss.Style
	restStyle   lipgloss.Style
	cursorStyle lipgloss.Style
	tempoStyle  lipgloss.Style
}

var _ host.Display = (*PatternView)(nil)

func New(spec *rhythm.Spec, out io.Writer) *PatternView {
	return &PatternView{
		spec:        spec,
		out:         out,
		bannerStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81")),
		hitStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
		restStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		cursorStyle: lipgloss.NewStyle().Reverse(true),
		tempoStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
	}
}

// SetBanner sets the device label shown in front of the pattern.
func (v *PatternView) SetBanner(s string) { v.banner = s }

// SetCursor attaches a sequencer position source.
func (v *PatternView) SetCursor(c Cursor) { v.cursor = c }

// Refresh redraws the status line.
func (v *PatternView) Refresh() {
	fmt.Fprint(v.out, "\r\033[K"+v.Render())
}

// Render returns the status line without writing it.
func (v *PatternView) Render() string {
	pat := v.spec.Pattern()
	pos := -1
	if v.cursor != nil && len(pat) > 0 {
		// The engine cursor points one past the step it just played.
		pos = (v.cursor.Position() + len(pat) - 1) % len(pat)
	}

	line := ""
	if v.banner != "" {
		line += v.bannerStyle.Render(v.banner) + " "
	}
	for i, s := range pat {
		cell := "·"
		style := v.restStyle
		if s == rhythm.Hit {
			cell = "●"
			style = v.hitStyle
		}
		if i == pos {
			style = v.cursorStyle
		}
		line += style.Render(cell)
	}
	line += " " + v.tempoStyle.Render(fmt.Sprintf("%d bpm", v.spec.BPM()))
	return line
}
