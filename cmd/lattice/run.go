package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/lattice/pkg/value"
	"github.com/spf13/cobra"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		input    string
		repeat   int
		showVars bool
	)

	cmd := &cobra.Command{
		Use:   "run <chain.yaml>",
		Short: "Validate and run a chain definition",
		Long: `Loads a chain definition, checks its wiring and activates it --repeat times in one warmed context.
The output of every activation is printed on its own line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if repeat < 1 {
				return fmt.Errorf("--repeat must be positive, got %d", repeat)
			}

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
			if err := c.Validate(value.Types{in.Type()}, nil); err != nil {
				return err
			}

			if err := c.Warmup(rt.NewContext(cmd.Context(), nil)); err != nil {
				return err
			}
			defer c.Cleanup()

			out := cmd.OutOrStdout()
			for range repeat {
				result, err := c.Activate(in)
				if err != nil {
					return err
				}
				text, err := formatValue(result)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, text)
			}

			if showVars {
				data, err := json.MarshalIndent(c.Snapshot(), "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "The chain input value")
	cmd.Flags().IntVarP(&repeat, "repeat", "n", 1, "Number of activations")
	cmd.Flags().BoolVar(&showVars, "vars", false, "Print the serializable context variables after the run")
	return cmd
}
