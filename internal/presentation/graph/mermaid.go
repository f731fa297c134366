package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/block"
)

// Overlay marks blocks to highlight on the graph.
type Overlay struct {
	// Broken holds the indexes of blocks with wiring issues.
	Broken []int
	// Current is the index of the block being activated, or -1.
	Current int
}

// GenerateMermaid produces a Mermaid flowchart of a chain. Solid arrows
// follow the value flow and are labeled with the producing block's output
// types. Dotted arrows link the block exposing a variable to the blocks
// requiring it.
//
// Shapes:
// - Provider (exposes variables): [[Subroutine]]
// - Consumer (requires variables): [/Parallelogram/]
// - Default: [Rectangle]
func GenerateMermaid(blocks []block.Block, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	ids := make([]string, len(blocks))
	for i, b := range blocks {
		ids[i] = fmt.Sprintf("b%d_%s", i, sanitizeMermaidID(b.Name()))

		opener, closer := "[", "]"
		switch {
		case len(b.ExposedVariables()) > 0:
			opener, closer = "[[", "]]"
		case len(b.RequiredVariables()) > 0:
			opener, closer = "[/", "/]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", ids[i], opener, b.Name(), closer)
	}

	for i := 1; i < len(blocks); i++ {
		label := strings.ReplaceAll(blocks[i-1].OutputTypes().Name(), "\"", "'")
		fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", ids[i-1], label, ids[i])
	}

	providers := map[string]int{}
	for j, b := range blocks {
		for _, req := range b.RequiredVariables() {
			if i, ok := providers[req.Name]; ok {
				fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", ids[i], req.Name, ids[j])
			}
		}
		for _, info := range b.ExposedVariables() {
			providers[info.Name] = j
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on light fills regardless of theme.
		sb.WriteString("    classDef broken fill:#ffebee,stroke:#c62828,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[int]bool)
		for _, i := range overlay.Broken {
			if i < 0 || i >= len(ids) || seen[i] {
				continue
			}
			seen[i] = true
			fmt.Fprintf(&sb, "    class %s broken;\n", ids[i])
		}
		if overlay.Current >= 0 && overlay.Current < len(ids) {
			fmt.Fprintf(&sb, "    class %s current;\n", ids[overlay.Current])
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_").Replace(id)
}
