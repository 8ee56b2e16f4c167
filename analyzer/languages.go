package analyzer

import (
	"path/filepath"
	"sort"
	"strings"
)

// languages maps a lowercase, dot-prefixed extension to its display name.
// Read-only after init.
var languages = map[string]string{
	".py":    "Python",
	".js":    "JavaScript",
	".ts":    "TypeScript",
	".java":  "Java",
	".cpp":   "C++",
	".c":     "C",
	".cs":    "C#",
	".rb":    "Ruby",
	".php":   "PHP",
	".go":    "Go",
	".rs":    "Rust",
	".sh":    "Shell",
	".swift": "Swift",
	".kt":    "Kotlin",
}

// LanguageFor returns the language of path by its extension, case-insensitively.
func LanguageFor(path string) (string, bool) {
	lang, ok := languages[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// SupportedExtensions returns the known extensions in sorted order.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(languages))
	for ext := range languages {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
