package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/lattice/internal/presentation/graph"
	"github.com/aretw0/lattice/pkg/chain"
	"github.com/aretw0/lattice/pkg/value"
	"github.com/spf13/cobra"
)

func newGraphCmd(opts *rootOptions) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "graph <chain.yaml>",
		Short: "Export the chain wiring as a Mermaid diagram",
		Long:  `Validates a chain definition and prints a Mermaid flowchart (graph LR). Blocks with wiring issues are highlighted and the issues are reported on stderr.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.runtime()
			if err != nil {
				return err
			}
			defer rt.Close()

			c, err := rt.LoadChain(args[0])
			if err != nil {
				return err
			}
			in, err := parseValue(input)
			if err != nil {
				return fmt.Errorf("invalid input: %w", err)
			}

			overlay := &graph.Overlay{Current: -1}
			var wiring *chain.WiringError
			if err := c.Validate(value.Types{in.Type()}, nil); errors.As(err, &wiring) {
				for _, issue := range wiring.Issues {
					overlay.Broken = append(overlay.Broken, issue.Index)
					fmt.Fprintln(cmd.ErrOrStderr(), issue.Error())
				}
			} else if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(c.Blocks(), overlay))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "The chain input value used to check the first block")
	return cmd
}
