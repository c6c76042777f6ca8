package shared

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// FoldName normalizes a display name for case-insensitive comparison.
//
// Surrounding and repeated whitespace is collapsed before Unicode case folding.
func FoldName(name string) string {
	return folder.String(strings.Join(strings.Fields(name), " "))
}

// SameName reports whether two display names are equal ignoring case and whitespace differences.
func SameName(a, b string) bool {
	return FoldName(a) == FoldName(b)
}

// Slugify converts a display name to a URL slug: lowercase ASCII letters and digits separated by single hyphens.
//
// Diacritics are stripped ("Équilibre" → "equilibre").
func Slugify(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}

	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(stripped) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			hyphen = false
		case b.Len() > 0 && !hyphen:
			b.WriteByte('-')
			hyphen = true
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}

// FormatDuration converts seconds to m:ss, or h:mm:ss for durations of an hour or more.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ProgressBar renders a fixed-width textual bar for a percentage in [0, 100].
func ProgressBar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(percent / 100 * float64(width))
	filled = max(0, min(filled, width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
