package main

import (
	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/config"
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "lattice",
		Short:         "Lattice runs and inspects processing blocks",
		Long:          `Lattice hosts blocks that exchange tagged values and share state through context variables. Inspect the block catalog, activate single blocks, run chains or expose the registry over HTTP and MCP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a lattice YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format: text or json (overrides config)")

	cmd.AddCommand(
		newBlocksCmd(opts),
		newDescribeCmd(opts),
		newActivateCmd(opts),
		newRunCmd(opts),
		newGraphCmd(opts),
		newDemoCmd(opts),
		newServeCmd(opts),
		newMCPCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig reads the config file and applies the flag overrides.
func (o *rootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	return cfg, cfg.Validate()
}

// runtime creates the lattice runtime for a command.
func (o *rootOptions) runtime(extra ...lattice.Option) (*lattice.Runtime, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return lattice.New(append([]lattice.Option{lattice.WithConfig(cfg)}, extra...)...)
}
