package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"biblequest/internal/app"
	"biblequest/internal/cli/formatter"
	"biblequest/internal/devtools"
)

func newEventsCmd(r *runner) *cobra.Command {
	var sync bool
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show locally recorded analytics events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, a *app.App, out io.Writer, fm formatter.Formatter) error {
				evs, err := a.Analytics().LocalEvents(ctx)
				if err != nil {
					return err
				}
				fmt.Fprint(out, fm.Events(evs))
				if !sync {
					return nil
				}
				m, err := a.Analytics().UserMetrics(ctx)
				if err != nil {
					return err
				}
				fmt.Fprint(out, fm.Metrics(m))
				return a.Analytics().SyncUserMetrics(ctx)
			})
		},
	}
	cmd.Flags().BoolVar(&sync, "sync", false, "Send player metrics to the analytics backend")
	return cmd
}

func newDemoCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "demo [scenario]",
		Short: "Load a demo scenario, or list them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.Join(devtools.Names(), "\n"))
				return err
			}
			return r.run(cmd, func(ctx context.Context, a *app.App, out io.Writer, fm formatter.Formatter) error {
				resolved, err := a.ApplyDemo(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Loaded %s\n", fm.Bold(resolved))
				return printStatus(a, out, fm)
			})
		},
	}
}

func newServeCmd(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dev endpoints until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, a *app.App, out io.Writer, fm formatter.Formatter) error {
				fmt.Fprintf(out, "Dev endpoints on http://%s/__dev/ready\n", a.Config().DevHTTP)
				return a.Serve(ctx)
			})
		},
	}
	cmd.Flags().StringVar(&r.flags.devAddr, "addr", "", "Listen address (default from BIBLEQUEST_DEV_HTTP)")
	return cmd
}
