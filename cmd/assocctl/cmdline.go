package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/assockit/assoc/launch"
	"github.com/joshuapare/assockit/internal/cmdline"
)

var cmdlineURIs bool

func init() {
	cmd := newCmdlineCmd()
	cmd.Flags().BoolVar(&cmdlineURIs, "uri", false, "Treat targets as URIs")
	rootCmd.AddCommand(cmd)
}

func newCmdlineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cmdline <command> [targets...]",
		Short: "Show how a shell command line is parsed and expanded",
		Long: `The cmdline command parses a registered command line the way the scanner
and launcher do: it prints the executable (or DLL and entry point for
rundll32), the line with %-macros expanded for the targets, and the
resulting argv. Nothing is started.

Example:
  assocctl cmdline "\"C:\Program Files\App\app.exe\" \"%1\"" C:\a.txt
  assocctl cmdline "rundll32.exe shimgvw.dll,ImageView_Fullscreen %1" x.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCmdline(args[0], args[1:])
		},
	}
}

type cmdlineView struct {
	Command     string    `json:"command" yaml:"command" toml:"command"`
	Executable  string    `json:"executable" yaml:"executable" toml:"executable"`
	DLLFunction string    `json:"dll_function,omitempty" yaml:"dll_function,omitempty" toml:"dll_function,omitempty"`
	Launcher    string    `json:"launcher" yaml:"launcher" toml:"launcher"`
	Runs        []runView `json:"runs,omitempty" yaml:"runs,omitempty" toml:"runs,omitempty"`
}

type runView struct {
	Expanded string   `json:"expanded" yaml:"expanded" toml:"expanded"`
	Argv     []string `json:"argv" yaml:"argv" toml:"argv"`
}

func runCmdline(command string, args []string) error {
	exe := cmdline.ExtractExecutable(command)
	v := cmdlineView{Command: command, Executable: exe.Path, DLLFunction: exe.DLLFunction, Launcher: exe.Launcher}
	if exe.DLLFunction != "" {
		command = cmdline.FixupRundll32(command)
	}

	targets := make([]cmdline.Target, len(args))
	for i, a := range args {
		if cmdlineURIs {
			targets[i] = cmdline.Target{URI: a}
			targets[i].File, _ = launch.PathFromURI(a)
		} else {
			targets[i] = cmdline.Target{File: a, URI: launch.FileURI(a)}
		}
	}
	// One run per spawn the launcher would make.
	for {
		expanded, rest := cmdline.Expand(command, targets, cmdline.Env{})
		argv, err := cmdline.Argv(expanded)
		if err != nil {
			return err
		}
		v.Runs = append(v.Runs, runView{Expanded: expanded, Argv: argv})
		if len(rest) == 0 || len(rest) >= len(targets) {
			break
		}
		targets = rest
	}

	if structured() {
		return printStructured(v)
	}
	printInfo("Executable: %s\n", v.Executable)
	if v.DLLFunction != "" {
		printInfo("Function:   %s\n", v.DLLFunction)
		printInfo("Launcher:   %s\n", v.Launcher)
	}
	for _, r := range v.Runs {
		printInfo("Expanded:   %s\n", r.Expanded)
		printInfo("Argv:       %s\n", joinArgv(r.Argv))
	}
	return nil
}
