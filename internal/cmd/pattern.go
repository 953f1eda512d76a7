package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/jamloop/jamloop/pkg/rhythm"
)

type Pattern struct {
	Beats int `help:"Pattern length in beats (omit for the full table)" default:"0"`
	Hits  int `help:"Hits to distribute" default:"0"`
	Shift int `help:"Rotation applied to the pattern" default:"0"`
}

// Run prints Euclidean patterns without touching any device. With --beats
// it prints a single pattern; otherwise a table of every beats/hits
// combination from 3 up to the sequencer maximum.
func (p *Pattern) Run(_ *slog.Logger) error {
	tagStyle := lipgloss.NewStyle().Bold(true)
	hitStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	restStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	render := func(pat rhythm.Pattern) string {
		out := ""
		for _, s := range pat {
			if s == rhythm.Hit {
				out += hitStyle.Render("x")
			} else {
				out += restStyle.Render(".")
			}
		}
		return out
	}

	if p.Beats > 0 {
		fmt.Fprintln(os.Stdout, render(rhythm.Generate(p.Beats, p.Hits, p.Shift)))
		return nil
	}

	for beats := 3; beats <= rhythm.MaxBeats; beats++ {
		for hits := 1; hits <= beats; hits++ {
			tag := fmt.Sprintf("%d/%d", beats, hits)
			fmt.Fprintf(os.Stdout, "%s %s\n",
				tagStyle.Render(fmt.Sprintf("%-5s", tag)),
				render(rhythm.Generate(beats, hits, p.Shift)),
			)
		}
	}
	return nil
}
