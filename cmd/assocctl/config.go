package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/assockit/internal/config"
	"github.com/joshuapare/assockit/internal/paths"
)

var configFormat string

func init() {
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `The show command prints the configuration assocctl would run with: the
config file, ASSOCCTL_* environment variables, and flags combined.

Example:
  assocctl config show
  assocctl --reg exported.reg config show --format toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}
	show.Flags().StringVarP(&configFormat, "format", "f", config.FormatYAML, "Output format: yaml, toml, json")

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect assocctl configuration",
	}
	cmd.AddCommand(show)
	rootCmd.AddCommand(cmd)
}

func runConfigShow(cmd *cobra.Command) error {
	switch configFormat {
	case config.FormatYAML, config.FormatTOML, config.FormatJSON:
	default:
		return usageError("unknown config format %q", configFormat)
	}
	if f := vp.ConfigFileUsed(); f != "" {
		printVerbose("# from %s\n", f)
	} else {
		printVerbose("# no config file; searched . and %s\n", paths.ConfigDir())
	}
	return encode(cmd.OutOrStdout(), configFormat, cfg)
}
