package analyzer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// startMarker is the line oracles emit at the top of a flow chart. Only the
// first one is kept.
const startMarker = "> START"

// ansiPattern matches ANSI escape sequences, CSI colour codes included.
var ansiPattern = regexp.MustCompile(`\x1B[@-_][0-?]*[ -/]*[@-~]`)

// StripANSI removes terminal escape sequences, leaving all other characters
// in order.
func StripANSI(text string) string {
	return ansiPattern.ReplaceAllString(text, "")
}

// CleanFlowOutput drops blank lines and every "> START" line after the first.
// Other lines pass through verbatim. The result is newline-joined.
func CleanFlowOutput(text string) string {
	var kept []string
	seenStart := false

	for _, line := range splitLines(text) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if trimmed == startMarker {
			if seenStart {
				continue
			}
			seenStart = true
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// splitLines splits at the same boundaries as Python's str.splitlines:
// \n, \r, \r\n, \v, \f, \x1c-\x1e, U+0085, U+2028 and U+2029.
func splitLines(text string) []string {
	var lines []string
	start := 0
	for i, r := range text {
		if i < start {
			continue // the \n of a \r\n pair
		}
		switch r {
		case '\n', '\v', '\f', '\r', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		default:
			continue
		}
		lines = append(lines, text[start:i])
		start = i + utf8.RuneLen(r)
		if r == '\r' && strings.HasPrefix(text[start:], "\n") {
			start++
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}
