package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lehigh-university-libraries/bookmerge/internal/raw"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var wrappingQuotes = [][2]string{
	{`"`, `"`},
	{`'`, `'`},
	{"“", "”"},
	{"‘", "’"},
	{"«", "»"},
}

// Title returns the display form of a title: trimmed, whitespace collapsed,
// wrapping quotes removed. Casing is preserved.
func Title(v raw.Value) string {
	return DisplayText(v.Text())
}

// DisplayText applies display normalization to a string.
func DisplayText(s string) string {
	s = collapseSpace(s)
	for {
		stripped := false
		for _, q := range wrappingQuotes {
			if len(s) >= len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
				s = strings.TrimSpace(s[len(q[0]) : len(s)-len(q[1])])
				stripped = true
			}
		}
		if !stripped {
			return s
		}
	}
}

// MatchTitle returns the comparison form of a title.
func MatchTitle(v raw.Value) string {
	return MatchKey(v.Text())
}

// MatchKey lowercases, strips accents and punctuation, and collapses
// whitespace. Two strings that differ only in those respects share a key.
func MatchKey(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return collapseSpace(b.String())
}

// SplitTitleAndSubtitle derives a subtitle from the title when none was
// supplied. An explicit non-empty subtitle is returned unchanged. Otherwise the
// title is split on its first colon or en dash.
func SplitTitleAndSubtitle(title, subtitle string) (string, string) {
	title = DisplayText(title)
	subtitle = DisplayText(subtitle)
	if title == "" {
		return "", ""
	}
	if subtitle != "" {
		return title, subtitle
	}

	idx := strings.IndexAny(title, ":–")
	if idx < 0 {
		return title, ""
	}
	_, width := utf8.DecodeRuneInString(title[idx:])
	head := strings.TrimSpace(title[:idx])
	tail := strings.TrimSpace(title[idx+width:])
	if head == "" {
		return title, ""
	}
	return head, tail
}

var spaceRun = regexp.MustCompile(`\s+`)

func collapseSpace(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// titleCase upper-cases the first letter of each word and lower-cases the
// rest. Apostrophes, periods and hyphens start a new segment so that
// "o'reilly" and "j.r.r." come out as "O'Reilly" and "J.R.R.".
func titleCase(s string) string {
	caser := cases.Title(language.Und)
	var b strings.Builder
	b.Grow(len(s))
	start := 0
	for i, r := range s {
		switch r {
		case '\'', '’', '.', '-':
			b.WriteString(caser.String(s[start:i]))
			b.WriteRune(r)
			start = i + utf8.RuneLen(r)
		}
	}
	b.WriteString(caser.String(s[start:]))
	return b.String()
}

func isNullText(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "none", "null":
		return true
	}
	return false
}
