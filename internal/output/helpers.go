package output

import (
	"fmt"
	"math"
	"os"
	"strings"

	"golang.org/x/term"
)

// ProgressBar renders percent (0-100) as a fixed width bar.
func ProgressBar(percent float64, width int) string {
	if width <= 0 {
		width = barWidth
	}
	percent = math.Max(0, math.Min(100, percent))
	filled := max(0, min(int(percent/100*float64(width)), width))
	bar := StyleSymbols["bullet"]
	bar += strings.Repeat(StyleSymbols["hline"], filled)
	if filled < width {
		bar += strings.Repeat(" ", width-filled)
	}
	bar += StyleSymbols["bullet"]
	return debugStyle.Render(fmt.Sprintf("%s %.1f%% %s ", bar, percent, StyleSymbols["bullet"]))
}

func getTerminalHeight() int {
	_, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || height <= 0 {
		return 24
	}
	return height
}

// IsTerminal reports whether stdout is attached to a terminal, which live
// redrawing requires.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
