package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/aretw0/lattice/internal/presentation/docs"
	"github.com/aretw0/lattice/internal/presentation/tui"
	"github.com/aretw0/lattice/pkg/block"
	"github.com/spf13/cobra"
)

func newBlocksCmd(opts *rootOptions) *cobra.Command {
	var markdown bool

	cmd := &cobra.Command{
		Use:   "blocks",
		Short: "List the registered blocks",
		Long:  `Lists every built-in block with its accepted input and produced output types. With --markdown the full reference is rendered instead.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.runtime()
			if err != nil {
				return err
			}
			defer rt.Close()

			infos, err := describeAll(rt.Registry())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if markdown {
				return tui.RenderTo(out, docs.Catalog(infos))
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tINPUT\tOUTPUT\tHELP")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.Name, info.InputTypes, info.OutputTypes, info.Help)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&markdown, "markdown", false, "Render the full block reference as markdown")
	return cmd
}

func newDescribeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <block>",
		Short: "Show the parameters and variables of a block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.runtime()
			if err != nil {
				return err
			}
			defer rt.Close()

			b, err := rt.Registry().Create(args[0])
			if err != nil {
				return err
			}
			return tui.RenderTo(cmd.OutOrStdout(), docs.Markdown(block.Describe(b)))
		},
	}
}

func describeAll(reg *block.Registry) ([]block.Info, error) {
	names := reg.List()
	infos := make([]block.Info, 0, len(names))
	for _, name := range names {
		b, err := reg.Create(name)
		if err != nil {
			return nil, err
		}
		infos = append(infos, block.Describe(b))
	}
	return infos, nil
}
