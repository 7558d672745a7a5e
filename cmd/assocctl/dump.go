package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/assockit/internal/config"
)

var dumpFormat string

func init() {
	cmd := newDumpCmd()
	cmd.Flags().StringVarP(&dumpFormat, "format", "f", "", "Output format: json, yaml, toml (default: the configured format, else json)")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Write the whole association graph",
		Long: `The dump command writes every extension, scheme, handler and app the
scanner found, in JSON, YAML or TOML. It is meant for diffing two
machines or two points in time.

Example:
  assocctl dump > assoc.json
  assocctl dump --format yaml --reg exported.reg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd)
		},
	}
}

func runDump(cmd *cobra.Command) error {
	format := dumpFormat
	if format == "" {
		format = cfg.Output.Format
	}
	switch format {
	case config.FormatJSON, config.FormatYAML, config.FormatTOML:
	case config.FormatText:
		format = config.FormatJSON
	default:
		return usageError("unknown dump format %q", format)
	}

	svc, done, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer done()
	return encode(cmd.OutOrStdout(), format, viewGraph(svc.Graph()))
}
