// Package docs renders block descriptions as Markdown.
package docs

import (
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/block"
)

// Markdown documents one block.
func Markdown(info block.Info) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", info.Name)
	if info.Help != "" {
		fmt.Fprintf(&sb, "%s\n\n", info.Help)
	}
	fmt.Fprintf(&sb, "- **Input:** `%s`\n", info.InputTypes)
	fmt.Fprintf(&sb, "- **Output:** `%s`\n", info.OutputTypes)
	fmt.Fprintf(&sb, "- **Hash:** `%s`\n", info.Hash)

	if len(info.Parameters) > 0 {
		sb.WriteString("\n### Parameters\n\n")
		sb.WriteString("| Name | Types | Default | Description |\n")
		sb.WriteString("|---|---|---|---|\n")
		for _, p := range info.Parameters {
			fmt.Fprintf(&sb, "| %s | `%s` | `%s` | %s |\n", p.Name, cell(p.Types), cell(p.Current), cell(p.Help))
		}
	}

	writeVariables(&sb, "Required Variables", info.Required)
	writeVariables(&sb, "Exposed Variables", info.Exposed)
	return sb.String()
}

// Catalog documents every block with a table of contents.
func Catalog(infos []block.Info) string {
	var sb strings.Builder
	sb.WriteString("# Blocks\n\n")
	for _, info := range infos {
		fmt.Fprintf(&sb, "- [%s](#%s)\n", info.Name, anchor(info.Name))
	}
	for _, info := range infos {
		sb.WriteString("\n")
		sb.WriteString(Markdown(info))
	}
	return sb.String()
}

func writeVariables(sb *strings.Builder, title string, vars []block.VariableInfo) {
	if len(vars) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n### %s\n\n", title)
	sb.WriteString("| Name | Type | Description |\n")
	sb.WriteString("|---|---|---|\n")
	for _, v := range vars {
		fmt.Fprintf(sb, "| %s | `%s` | %s |\n", cell(v.Name), cell(v.Type), cell(v.Help))
	}
}

// cell escapes pipes so union types don't split table columns.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// anchor mimics the heading ids generated by common Markdown renderers.
func anchor(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			sb.WriteRune(r)
		case r == ' ':
			sb.WriteRune('-')
		}
	}
	return sb.String()
}
