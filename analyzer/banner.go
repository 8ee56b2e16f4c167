package analyzer

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
)

// ANSI color codes
const (
	colorTeal  = "\033[38;5;37m"
	colorDim   = "\033[38;5;66m" // borders
	colorReset = "\033[0m"
)

var bannerArt = []string{
	"▄▀▀ ▄▀▄ █▀▄ ██▀ █▀ █   ▄▀▄ █   █",
	"▀▄▄ ▀▄▀ █▄▀ █▄▄ █▀ █▄▄ ▀▄▀ ▀▄▀▄▀",
}

// BannerOptions contains the information to display in the banner
type BannerOptions struct {
	WorkDir string
	Version string
	Mode    string // e.g. "watch", "serve :8080"
	Oracle  string // backend description, e.g. "q chat"
}

// PrintBanner writes the startup banner to out, adapted to the width of
// the terminal on stdout.
func PrintBanner(out io.Writer, opts BannerOptions) {
	writeBanner(out, opts, getGreeting(time.Now()), getTermWidth())
}

func writeBanner(out io.Writer, opts BannerOptions, greeting string, width int) {
	switch {
	case width >= 60:
		writeFullBanner(out, opts, greeting, width)
	case width >= 40:
		writeCompactBanner(out, opts, greeting)
	default:
		writeMinimalBanner(out, opts, greeting)
	}
}

// getTermWidth returns the terminal width, defaults to 80 if unavailable
func getTermWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return w
}

// getGreeting returns a greeting for the given moment, or "".
func getGreeting(now time.Time) string {
	month, day := now.Month(), now.Day()

	if month == time.January || (month == time.February && day == 1) {
		return fmt.Sprintf("Welcome to %d! Happy New Year!", now.Year())
	}
	if h := now.Hour(); h >= 2 && h < 5 {
		return "It's late, take care of yourself."
	}
	return ""
}

func bannerDetails(opts BannerOptions) []string {
	var lines []string
	if opts.Mode != "" {
		lines = append(lines, opts.Mode)
	}
	if opts.Oracle != "" {
		lines = append(lines, "oracle: "+opts.Oracle)
	}
	return lines
}

// ============== Full Banner (>= 60) ==============

func writeFullBanner(out io.Writer, opts BannerOptions, greeting string, termWidth int) {
	boxWidth := min(termWidth, 64)
	innerWidth := boxWidth - 2

	// content is the visible text, colored the same text with color codes
	line := func(content, colored string) string {
		padding := max(innerWidth-runeWidth(content), 0)
		return colorDim + "│" + colorReset + colored + strings.Repeat(" ", padding) + colorDim + "│" + colorReset
	}
	simpleLine := func(content string) string {
		return line(content, content)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, colorDim+"╭"+strings.Repeat("─", innerWidth)+"╮"+colorReset)
	fmt.Fprintln(out, simpleLine(""))
	for _, art := range bannerArt {
		fmt.Fprintln(out, line("  "+art, "  "+colorTeal+art+colorReset))
	}
	fmt.Fprintln(out, simpleLine(""))
	fmt.Fprintln(out, simpleLine("  "+truncatePath(opts.WorkDir, innerWidth-4)))
	fmt.Fprintln(out, simpleLine("  "+opts.Version))
	for _, d := range bannerDetails(opts) {
		fmt.Fprintln(out, simpleLine("  "+truncatePath(d, innerWidth-4)))
	}
	if greeting != "" {
		fmt.Fprintln(out, simpleLine(""))
		fmt.Fprintln(out, line("  ✨ "+greeting, "  "+colorTeal+"✨ "+greeting+colorReset))
	}
	fmt.Fprintln(out, simpleLine(""))
	fmt.Fprintln(out, colorDim+"╰"+strings.Repeat("─", innerWidth)+"╯"+colorReset)
	fmt.Fprintln(out)
}

// ============== Compact Banner (40-59) ==============

func writeCompactBanner(out io.Writer, opts BannerOptions, greeting string) {
	fmt.Fprintln(out)
	for _, art := range bannerArt {
		fmt.Fprintln(out, "  "+colorTeal+art+colorReset)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  "+opts.WorkDir)
	fmt.Fprintln(out, "  "+opts.Version)
	for _, d := range bannerDetails(opts) {
		fmt.Fprintln(out, "  "+d)
	}
	if greeting != "" {
		fmt.Fprintln(out, "  "+colorTeal+greeting+colorReset)
	}
	fmt.Fprintln(out)
}

// ============== Minimal Banner (< 40) ==============

func writeMinimalBanner(out io.Writer, opts BannerOptions, greeting string) {
	fmt.Fprintf(out, "%scodeflow%s %s\n", colorTeal, colorReset, opts.Version)
	if greeting != "" {
		fmt.Fprintln(out, colorTeal+greeting+colorReset)
	}
}

// ============== Helper Functions ==============

// runeWidth approximates the display width of s. Box-drawing and block
// characters count as one column, other non-ASCII runes as two.
func runeWidth(s string) int {
	width := 0
	for _, r := range s {
		switch {
		case r >= 0x2500 && r <= 0x259F:
			width++
		case r > 127:
			width += 2
		default:
			width++
		}
	}
	return width
}

// truncatePath shortens s to "...suffix" when it exceeds maxWidth.
func truncatePath(s string, maxWidth int) string {
	if runeWidth(s) <= maxWidth {
		return s
	}
	for i := len(s) - 1; i >= 0; i-- {
		sub := "..." + s[i:]
		if runeWidth(sub) <= maxWidth {
			return sub
		}
	}
	return "..."
}
