package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"biblequest/internal/app"
	"biblequest/internal/cli/formatter"
)

// Env is what every command needs to open the game. Each invocation opens
// the app, loads saved progress, runs and then flushes on exit.
type Env struct {
	Config  app.Config
	Output  app.Output
	Options []app.Option
}

type flags struct {
	profile string
	backend string
	dataDir string
	content string
	ascii   bool
	dev     bool
	devAddr string
}

// NewRootCmd creates the top-level "biblequest" command and registers all
// subcommands against env.
func NewRootCmd(env *Env) *cobra.Command {
	var f flags
	root := &cobra.Command{
		Use:           "biblequest",
		Short:         "Learn the books of the Bible one tap at a time",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.profile, "profile", "", "Player profile")
	pf.StringVar(&f.backend, "backend", "", "Storage backend: sqlite, postgres or memory")
	pf.StringVar(&f.dataDir, "data-dir", "", "Directory for saved progress")
	pf.StringVar(&f.content, "content", "", "Path to a books table YAML file")
	pf.BoolVar(&f.ascii, "ascii", false, "Plain ASCII output")
	pf.BoolVar(&f.dev, "dev", false, "Enable dev endpoints")

	r := &runner{env: env, flags: &f}
	root.RunE = func(cmd *cobra.Command, args []string) error {
		return r.run(cmd, func(ctx context.Context, a *app.App, out io.Writer, fm formatter.Formatter) error {
			return printStatus(a, out, fm)
		})
	}

	root.AddCommand(
		newStatusCmd(r),
		newBooksCmd(r),
		newBookCmd(r),
		newTapCmd(r),
		newLevelCmd(r),
		newNameCmd(r),
		newResetCmd(r),
		newSettingsCmd(r),
		newNotifyCmd(r),
		newEventsCmd(r),
		newDemoCmd(r),
		newServeCmd(r),
	)
	return root
}

type runner struct {
	env   *Env
	flags *flags
}

func (r *runner) config(cmd *cobra.Command) app.Config {
	cfg := r.env.Config
	fl := cmd.Flags()
	if fl.Changed("profile") {
		cfg.Profile = r.flags.profile
	}
	if fl.Changed("backend") {
		cfg.Backend = r.flags.backend
	}
	if fl.Changed("data-dir") {
		cfg.DataDir = r.flags.dataDir
	}
	if fl.Changed("content") {
		cfg.ContentPath = r.flags.content
	}
	if fl.Changed("ascii") {
		cfg.ASCIIOnly = r.flags.ascii
	}
	if fl.Changed("dev") {
		cfg.Dev = r.flags.dev
	}
	if fl.Changed("addr") {
		cfg.DevHTTP = r.flags.devAddr
	}
	return cfg
}

type action func(ctx context.Context, a *app.App, out io.Writer, fm formatter.Formatter) error

// run opens the app for the duration of one command. Interrupts cancel ctx;
// Close still flushes pending writes.
func (r *runner) run(cmd *cobra.Command, fn action) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := r.config(cmd)
	opts := append([]app.Option(nil), r.env.Options...)
	if r.env.Output != nil {
		opts = append(opts, app.WithOutput(r.env.Output))
	}
	a, err := app.New(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.Start(ctx); err != nil {
		return err
	}
	return fn(ctx, a, cmd.OutOrStdout(), formatter.Formatter{ASCII: a.Config().ASCIIOnly})
}
