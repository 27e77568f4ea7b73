package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"biblequest/internal/app"
	"biblequest/internal/cli/formatter"
	"biblequest/internal/notify"
	"biblequest/internal/settings"
)

func newSettingsCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "settings [<name> <on|off>]",
		Short: "Show or change game settings",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("want no arguments or <name> <on|off>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, a *app.App, out io.Writer, fm formatter.Formatter) error {
				a.ViewScreen(ctx, "settings")
				var s settings.Settings
				var err error
				if len(args) == 2 {
					v, perr := parseToggle(args[1])
					if perr != nil {
						return perr
					}
					s, err = a.Settings().Set(ctx, args[0], v)
				} else {
					s, err = a.Settings().Load(ctx)
				}
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(out, fm.Toggles(settings.Keys(), func(k string) bool {
					v, _ := s.Get(k)
					return v
				}))
				return err
			})
		},
	}
}

var preferenceKeys = []string{"enabled", "dailyReminder", "weeklyChallenge", "achievements", "updates"}

func preferenceField(p *notify.Preferences, key string) (*bool, error) {
	switch key {
	case "enabled":
		return &p.Enabled, nil
	case "dailyReminder":
		return &p.DailyReminder, nil
	case "weeklyChallenge":
		return &p.WeeklyChallenge, nil
	case "achievements":
		return &p.Achievements, nil
	case "updates":
		return &p.Updates, nil
	}
	return nil, fmt.Errorf("unknown preference %q (want one of %s)", key, strings.Join(preferenceKeys, ", "))
}

func newNotifyCmd(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Manage reminders and notification preferences",
	}

	prefs := &cobra.Command{
		Use:   "prefs [<name> <on|off>]",
		Short: "Show or change notification preferences",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("want no arguments or <name> <on|off>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, a *app.App, out io.Writer, fm formatter.Formatter) error {
				p, err := a.Notifications().Preferences(ctx)
				if err != nil {
					return err
				}
				if len(args) == 2 {
					field, err := preferenceField(&p, args[0])
					if err != nil {
						return err
					}
					v, err := parseToggle(args[1])
					if err != nil {
						return err
					}
					*field = v
					if err := a.Notifications().SavePreferences(ctx, p); err != nil {
						return err
					}
				}
				_, err = fmt.Fprint(out, fm.Toggles(preferenceKeys, func(k string) bool {
					field, _ := preferenceField(&p, k)
					return *field
				}))
				return err
			})
		},
	}

	reminder := &cobra.Command{
		Use:   "reminder [HH:MM]",
		Short: "Schedule the daily reminder, or list scheduled reminders",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, a *app.App, out io.Writer, fm formatter.Formatter) error {
				if len(args) == 1 {
					hour, minute, err := parseClock(args[0])
					if err != nil {
						return err
					}
					if _, err := a.Notifications().ScheduleDailyReminder(ctx, hour, minute); err != nil {
						return err
					}
				}
				rs, err := a.Notifications().Scheduled(ctx)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(out, fm.Reminders(rs))
				return err
			})
		},
	}

	cancel := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel every scheduled reminder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, a *app.App, out io.Writer, fm formatter.Formatter) error {
				if err := a.Notifications().CancelAll(ctx); err != nil {
					return err
				}
				_, err := fmt.Fprintln(out, "Reminders cancelled.")
				return err
			})
		},
	}

	register := &cobra.Command{
		Use:   "register <push token>",
		Short: "Register this device for push notifications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, a *app.App, out io.Writer, fm formatter.Formatter) error {
				if err := a.Notifications().RegisterDevice(ctx, args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintln(out, "Device registered.")
				return err
			})
		},
	}

	cmd.AddCommand(prefs, reminder, cancel, register)
	return cmd
}

func parseToggle(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid value %q: want on or off", s)
	}
	return v, nil
}

func parseClock(s string) (int, int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	hour, herr := strconv.Atoi(h)
	minute, merr := strconv.Atoi(m)
	if !ok || herr != nil || merr != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	return hour, minute, nil
}
