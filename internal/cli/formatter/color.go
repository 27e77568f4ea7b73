package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	ColorGold   = lipgloss.Color("#fabd2f")
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGold   = lipgloss.NewStyle().Foreground(ColorGold).Bold(true)
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// Formatter renders game state for the terminal. ASCII drops colour and
// box-drawing glyphs for dumb terminals and pipes.
type Formatter struct {
	ASCII bool
}

func (f Formatter) style(s lipgloss.Style, text string) string {
	if f.ASCII {
		return text
	}
	return s.Render(text)
}

// Header renders an upper-cased section title with an underline.
func (f Formatter) Header(text string) string {
	upper := strings.ToUpper(text)
	rule := "─"
	if f.ASCII {
		rule = "-"
	}
	line := strings.Repeat(rule, len([]rune(upper)))
	return fmt.Sprintf("%s\n%s", f.style(StyleHeader, upper), f.style(StyleDim, line))
}

func (f Formatter) Dim(text string) string  { return f.style(StyleDim, text) }
func (f Formatter) Bold(text string) string { return f.style(StyleBold, text) }

// Coins renders a coin balance.
func (f Formatter) Coins(n int64) string {
	if f.ASCII {
		return fmt.Sprintf("%d coins", n)
	}
	return StyleGold.Render(fmt.Sprintf("● %d coins", n))
}

// OnOff renders a toggle.
func (f Formatter) OnOff(v bool) string {
	if v {
		return f.style(StyleGreen, "on")
	}
	return f.style(StyleRed, "off")
}
