package main

import (
	"time"

	"github.com/spf13/cobra"
)

var watchCount int

func init() {
	cmd := newWatchCmd()
	cmd.Flags().IntVarP(&watchCount, "count", "n", 0, "Stop after this many rebuilds (0 runs until interrupted)")
	rootCmd.AddCommand(cmd)
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Report association changes as they happen",
		Long: `The watch command keeps the association graph current and prints a line
each time registry changes cause it to be rebuilt. Offline hive files are
watched on disk. Stop it with Ctrl+C.

Example:
  assocctl watch
  assocctl watch --count 1 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd)
		},
	}
}

type watchEvent struct {
	Generation uint64 `json:"generation" yaml:"generation" toml:"generation"`
	Time       string `json:"time" yaml:"time" toml:"time"`
	Extensions int    `json:"extensions" yaml:"extensions" toml:"extensions"`
	Schemes    int    `json:"schemes" yaml:"schemes" toml:"schemes"`
	Handlers   int    `json:"handlers" yaml:"handlers" toml:"handlers"`
	Apps       int    `json:"apps" yaml:"apps" toml:"apps"`
}

func runWatch(cmd *cobra.Command) error {
	ctx := cmd.Context()
	svc, done, err := openService(ctx)
	if err != nil {
		return err
	}
	defer done()

	ch, unsub := svc.Index().Subscribe()
	defer unsub()
	if err := svc.Start(ctx); err != nil {
		return err
	}
	g := svc.Graph()
	first := svc.Index().Generation()
	printVerbose("watching: %d extensions, %d schemes\n", len(g.Extensions), len(g.Schemas))

	seen := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case gen := <-ch:
			g := svc.Index().Snapshot()
			if g == nil || gen <= first {
				continue
			}
			st := g.Stats()
			ev := watchEvent{
				Generation: gen,
				Time:       time.Now().Format(time.RFC3339),
				Extensions: st.Extensions,
				Schemes:    st.Schemas,
				Handlers:   st.Handlers,
				Apps:       st.AppsByID,
			}
			if structured() {
				if err := printStructured(ev); err != nil {
					return err
				}
			} else {
				printInfo("%s rebuilt #%d: %d extensions, %d schemes, %d handlers, %d apps\n",
					ev.Time, ev.Generation, ev.Extensions, ev.Schemes, ev.Handlers, ev.Apps)
			}
			seen++
			if watchCount > 0 && seen >= watchCount {
				return nil
			}
		}
	}
}
