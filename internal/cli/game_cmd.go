package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"biblequest/internal/app"
	"biblequest/internal/cli/formatter"
)

func printStatus(a *app.App, out io.Writer, fm formatter.Formatter) error {
	_, err := fmt.Fprint(out, fm.Status(a.Status()))
	return err
}

func newStatusCmd(r *runner) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the player, coins and level progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, a *app.App, out io.Writer, fm formatter.Formatter) error {
				a.ViewScreen(ctx, "status")
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(a.Status())
				}
				return printStatus(a, out, fm)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print status as JSON")
	return cmd
}

func newBooksCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "books",
		Short: "List the books of the current level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, a *app.App, out io.Writer, fm formatter.Formatter) error {
				a.ViewScreen(ctx, "books")
				st := a.Status()
				fmt.Fprintln(out, fm.Header(st.LevelTitle))
				_, err := fmt.Fprint(out, fm.Books(a.Books(), a.Progress().InteractionCap()))
				return err
			})
		},
	}
}

func newTapCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "tap <position>",
		Short: "Tap a book on the current level (1 is the first book)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parsePosition(args[0])
			if err != nil {
				return err
			}
			return r.run(cmd, func(ctx context.Context, a *app.App, out io.Writer, fm formatter.Formatter) error {
				res, err := a.Tap(ctx, pos)
				if err != nil {
					return fmt.Errorf("tap %s: %w", args[0], err)
				}
				_, err = fmt.Fprint(out, fm.Tap(res))
				return err
			})
		},
	}
}

func newBookCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "book <number>",
		Short: "Show where a book sits in the game (1 is Genesis)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("invalid book number %q", args[0])
			}
			return r.run(cmd, func(ctx context.Context, a *app.App, out io.Writer, fm formatter.Formatter) error {
				loc, ok := a.FindBook(n)
				if !ok {
					return fmt.Errorf("no book number %d (want 1 to %d)", n, a.Table().TotalItems())
				}
				_, err := fmt.Fprint(out, fm.BookLocation(loc))
				return err
			})
		},
	}
}

func newLevelCmd(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "level",
		Short: "Move between levels",
	}
	move := func(use, short string, fn func(ctx context.Context, a *app.App) (app.LevelMove, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return r.run(cmd, func(ctx context.Context, a *app.App, out io.Writer, fm formatter.Formatter) error {
					m, err := fn(ctx, a)
					if err != nil {
						return err
					}
					_, err = fmt.Fprint(out, fm.Move(m, a.Table().LevelTitle(m.Level)))
					return err
				})
			},
		}
	}
	cmd.AddCommand(
		move("next", "Go to the next level", func(ctx context.Context, a *app.App) (app.LevelMove, error) {
			return a.NextLevel(ctx)
		}),
		move("prev", "Go back a level", func(ctx context.Context, a *app.App) (app.LevelMove, error) {
			return a.PreviousLevel()
		}),
		&cobra.Command{
			Use:   "goto <level>",
			Short: "Jump to a level (1 is the first level)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				level, err := parsePosition(args[0])
				if err != nil {
					return err
				}
				return r.run(cmd, func(ctx context.Context, a *app.App, out io.Writer, fm formatter.Formatter) error {
					m, err := a.GoToLevel(level)
					if err != nil {
						return fmt.Errorf("level %s: %w", args[0], err)
					}
					_, err = fmt.Fprint(out, fm.Move(m, a.Table().LevelTitle(m.Level)))
					return err
				})
			},
		},
	)
	return cmd
}

func newNameCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "name <player name>",
		Short: "Set the player's name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			return r.run(cmd, func(ctx context.Context, a *app.App, out io.Writer, fm formatter.Formatter) error {
				if err := a.SetPlayerName(ctx, name); err != nil {
					return err
				}
				_, err := fmt.Fprintf(out, "Welcome, %s!\n", fm.Bold(a.Progress().PlayerName()))
				return err
			})
		},
	}
}

func newResetCmd(r *runner) *cobra.Command {
	var all bool
	var level int
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Start the stage again, keeping coins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, a *app.App, out io.Writer, fm formatter.Formatter) error {
				switch {
				case all:
					if err := a.ResetAll(ctx); err != nil {
						return err
					}
					fmt.Fprintln(out, "Progress and coins cleared.")
				case cmd.Flags().Changed("level"):
					if err := a.ResetLevel(ctx, level-1); err != nil {
						return fmt.Errorf("reset level %d: %w", level, err)
					}
					fmt.Fprintf(out, "Level %d cleared.\n", level)
				default:
					if err := a.RestartStage(ctx); err != nil {
						return err
					}
					fmt.Fprintln(out, "Stage restarted. Coins kept.")
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Also clear coins")
	cmd.Flags().IntVar(&level, "level", 0, "Clear a single level (1 is the first level)")
	cmd.MarkFlagsMutuallyExclusive("all", "level")
	return cmd
}

// parsePosition turns a 1-based position into a 0-based index.
func parsePosition(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid position %q: want a number from 1", s)
	}
	return n - 1, nil
}
