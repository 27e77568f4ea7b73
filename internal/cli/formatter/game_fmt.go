package formatter

import (
	"fmt"
	"strings"

	"biblequest/internal/analytics"
	"biblequest/internal/app"
	"biblequest/internal/notify"
	"biblequest/internal/progress"
)

const barWidth = 22

// Status renders the player card and the current level's progress.
func (f Formatter) Status(st app.Status) string {
	var b strings.Builder
	b.WriteString(f.Header("Bible Quest"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Player  %s\n", f.Bold(st.PlayerName))
	fmt.Fprintf(&b, "Wallet  %s\n", f.Coins(st.Coins))
	fmt.Fprintf(&b, "%s of %d  %s\n", progress.LevelLabel(st.CurrentLevel), st.LevelCount, f.Dim(st.LevelTitle))
	fmt.Fprintf(&b, "        %s  %d/%d books\n", f.Progress(st.Progress, barWidth), st.Revealed, st.LevelSize)

	labels := make([]string, 0, len(st.CompletedLevels))
	for _, l := range st.CompletedLevels {
		labels = append(labels, fmt.Sprint(l+1))
	}
	done := "none"
	if len(labels) > 0 {
		done = strings.Join(labels, ", ")
	}
	fmt.Fprintf(&b, "Cleared %s\n", f.Dim(done))
	if st.TotalBooks > 0 {
		fmt.Fprintf(&b, "Found   %d of %d books\n", st.BooksFound, st.TotalBooks)
	}
	if st.StageComplete {
		b.WriteString(f.style(StyleGold, "Every book found. Stage complete!"))
		b.WriteString("\n")
	}
	return b.String()
}

// Books renders the current level's cards. Hidden books show only their
// position; revealed ones show the name and remaining bounces.
func (f Formatter) Books(books []app.BookView, interactionCap int) string {
	var b strings.Builder
	for _, bv := range books {
		if !bv.Revealed {
			fmt.Fprintf(&b, "%3d  %s\n", bv.Index+1, f.Dim("?"))
			continue
		}
		marks := ""
		if interactionCap > 0 {
			used := min(bv.Interactions, interactionCap)
			dot, ring := "●", "○"
			if f.ASCII {
				dot, ring = "*", "."
			}
			marks = strings.Repeat(dot, used) + strings.Repeat(ring, interactionCap-used)
		}
		fmt.Fprintf(&b, "%3d  %-16s %s  %s\n", bv.Index+1, f.Bold(bv.Book.Name), f.Dim(fmt.Sprintf("#%d", bv.Book.Ordinal)), f.Dim(marks))
	}
	return b.String()
}

// BookLocation says where a book sits in the level grid.
func (f Formatter) BookLocation(loc app.BookLocation) string {
	state := f.Dim("not found yet")
	if loc.Revealed {
		state = f.style(StyleGreen, "found")
	}
	return fmt.Sprintf("Book %d is %s: %s, position %d  %s\n",
		loc.Book.Ordinal, f.Bold(loc.Book.Name), progress.LevelLabel(loc.Level), loc.Index+1, state)
}

// Tap describes a tap outcome in one or two lines.
func (f Formatter) Tap(res app.TapResult) string {
	var b strings.Builder
	switch res.Outcome {
	case progress.OutcomeRevealed:
		fmt.Fprintf(&b, "Revealed %s (book %d)\n", f.Bold(res.Book.Name), res.Book.Ordinal)
	case progress.OutcomeBounced:
		fmt.Fprintf(&b, "%s bounced (%d)\n", res.Book.Name, res.Interactions)
	case progress.OutcomeCapped:
		fmt.Fprintf(&b, "%s %s\n", res.Book.Name, f.Dim("is resting"))
	default:
		fmt.Fprintf(&b, "%s: %s\n", res.Book.Name, res.Outcome)
	}
	fmt.Fprintf(&b, "%s  %d/%d\n", f.Progress(float64(res.RevealedCount)/float64(max(res.LevelSize, 1)), barWidth), res.RevealedCount, res.LevelSize)
	if res.LevelCompleted {
		fmt.Fprintf(&b, "%s +%d  %s\n", f.style(StyleGold, "Level complete!"), res.CoinsAwarded, f.Coins(res.Coins))
	}
	if res.StageComplete {
		b.WriteString(f.style(StyleGold, "Every book found. Stage complete!"))
		b.WriteString("\n")
	}
	return b.String()
}

// Move reports a navigation request.
func (f Formatter) Move(m app.LevelMove, title string) string {
	switch {
	case m.Finished:
		return f.style(StyleGold, "Stage finished. Well done!") + "\n"
	case !m.Moved:
		return fmt.Sprintf("Staying on %s\n", progress.LevelLabel(m.Level))
	default:
		return fmt.Sprintf("Now on %s  %s\n", f.Bold(progress.LevelLabel(m.Level)), f.Dim(title))
	}
}

// Toggles renders name/value pairs in the given order.
func (f Formatter) Toggles(keys []string, value func(string) bool) string {
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%-16s %s\n", k, f.OnOff(value(k)))
	}
	return b.String()
}

// Reminders lists scheduled notifications.
func (f Formatter) Reminders(rs []notify.Reminder) string {
	if len(rs) == 0 {
		return f.Dim("No reminders scheduled.") + "\n"
	}
	var b strings.Builder
	for _, r := range rs {
		fmt.Fprintf(&b, "%02d:%02d  %s  %s\n", r.Hour, r.Minute, r.Title, f.Dim(r.ID))
	}
	return b.String()
}

// Events lists locally stored analytics events, oldest first.
func (f Formatter) Events(evs []analytics.Event) string {
	if len(evs) == 0 {
		return f.Dim("No events recorded.") + "\n"
	}
	var b strings.Builder
	for _, ev := range evs {
		fmt.Fprintf(&b, "%s  %s\n", f.Dim(ev.Timestamp), ev.EventName)
	}
	return b.String()
}

// Metrics renders the user metrics summary.
func (f Formatter) Metrics(m analytics.UserMetrics) string {
	var b strings.Builder
	b.WriteString(f.Header("Player metrics"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "User       %s\n", m.UserID)
	fmt.Fprintf(&b, "Installed  %s\n", m.InstallDate)
	fmt.Fprintf(&b, "Last seen  %s\n", m.LastActiveDate)
	fmt.Fprintf(&b, "Sessions   %d\n", m.SessionsCount)
	fmt.Fprintf(&b, "Cleared    %d levels\n", m.GamesCompleted)
	fmt.Fprintf(&b, "Wallet     %s\n", f.Coins(m.Coins))
	return b.String()
}
