package formatter

import (
	"fmt"
	"strings"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
	filledASCII = "#"
	emptyASCII  = "-"
)

// Progress renders a bar like [████░░░░]  45%.
func (f Formatter) Progress(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	if width < 2 {
		width = 2
	}
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}

	full, empty := filledBlock, emptyBlock
	if f.ASCII {
		full, empty = filledASCII, emptyASCII
	}
	bar := strings.Repeat(full, filled) + strings.Repeat(empty, width-filled)

	style := StyleBlue
	if pct >= 1 {
		style = StyleGreen
	}
	return fmt.Sprintf("[%s] %3.0f%%", f.style(style, bar), pct*100)
}
