package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	`  _           _   _   _          `,
	` | |    __ _ | |_| |_(_) ___ ___ `,
	` | |   / _' || __| __| |/ __/ _ \`,
	` | |__| (_| || |_| |_| | (_|  __/`,
	` |_____\__,_| \__|\__|_|\___\___|`,
}

var bannerColors = []string{"#38bdf8", "#22d3ee", "#2dd4bf", "#34d399", "#4ade80"}

// PrintBanner writes the Lattice banner to w, colored when the terminal
// supports it.
func PrintBanner(w io.Writer) {
	p := termenv.NewOutput(w).ColorProfile()

	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, termenv.String(line).Foreground(p.Color(bannerColors[i])))
	}
	fmt.Fprintln(w)
}
