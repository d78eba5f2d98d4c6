package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vk/pipebase/internal/app"
	"github.com/vk/pipebase/internal/cli"
	"github.com/vk/pipebase/internal/ctxlog"
	"github.com/vk/pipebase/internal/registry"
)

// main is the entrypoint for the pipetask application.
func main() {
	// Runs log through this logger unless --log-level or --log-format is given.
	ctxlog.Init(ctxlog.New(ctxlog.LevelInfo, ctxlog.FormatText, os.Stderr))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(outW io.Writer, args []string) error {
	ctx := context.Background()

	reg := app.NewRegistry()
	if err := reg.ValidateRegistry(ctx); err != nil {
		return err
	}

	root := newRootCmd(outW, reg)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		var driverErr *app.DriverError
		if errors.As(err, &driverErr) {
			return err
		}
		// Anything else comes from cobra itself: unknown command or flag.
		return &cli.ExitError{Code: cli.ExitCodeUsage, Message: err.Error()}
	}
	return nil
}

func newRootCmd(outW io.Writer, reg *registry.Registry) *cobra.Command {
	root := &cobra.Command{
		Use:           "pipetask",
		Short:         "Run pipeline tasks over repository data.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(outW)

	for _, desc := range reg.CmdLine() {
		desc := desc
		root.AddCommand(&cobra.Command{
			Use:   desc.DefaultName + " <repo-tag> [input-root] [options]",
			Short: desc.Doc,
			// The task parses its own arguments, --id groups included.
			DisableFlagParsing: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := app.ParseAndRun(cmd.Context(), desc, args,
					app.WithRegistry(reg),
					app.WithOutput(cmd.OutOrStdout()),
				)
				return err
			},
		})
	}

	root.AddCommand(&cobra.Command{
		Use:   "tasks",
		Short: "List every registered task.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range reg.Names() {
				desc, err := reg.Lookup(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, desc.DefaultName, desc.Doc)
			}
			return w.Flush()
		},
	})
	return root
}
