package main

import (
	"fmt"

	"github.com/aretw0/lattice/pkg/block"
	"github.com/spf13/cobra"
)

func newActivateCmd(opts *rootOptions) *cobra.Command {
	var (
		input  string
		params []string
	)

	cmd := &cobra.Command{
		Use:   "activate <block>",
		Short: "Warm up, activate and clean up a single block",
		Long: `Runs one block once in a fresh context and prints its output.

Values are given in wire form ({"kind":"string","value":"abc"}), as plain JSON or as a bare string:

  lattice activate Hash.Sha2-256 --input abc
  lattice activate ToHex --input '{"kind":"int","value":255}'`,
		Args: cobra.ExactArgs(1),
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
			inst := block.NewInstance(b, block.WithHooks(rt.Hooks()))
			for _, flag := range params {
				name, v, err := parseParam(b, flag)
				if err != nil {
					return err
				}
				if err := inst.SetParam(name, v); err != nil {
					return err
				}
			}

			in, err := parseValue(input)
			if err != nil {
				return fmt.Errorf("invalid input: %w", err)
			}

			ctx := rt.NewContext(cmd.Context(), nil)
			err = inst.Warmup(ctx)
			defer inst.Cleanup()
			if err != nil {
				return err
			}
			out, err := inst.Activate(ctx, in)
			if err != nil {
				return err
			}

			text, err := formatValue(out)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "The input value")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "A parameter as Name=<value> (repeatable)")
	return cmd
}
