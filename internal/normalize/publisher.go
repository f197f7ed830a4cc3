package normalize

import (
	"regexp"
	"strings"

	"github.com/lehigh-university-libraries/bookmerge/internal/raw"
)

// Corporate suffixes, anchored at the end of the name only.
var publisherSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(^|[\s,])(inc|ltd|co)\.?$`),
	regexp.MustCompile(`(?i)(^|[\s,])(press|media)$`),
	regexp.MustCompile(`(?i)(^|[\s,])(and|&)\s*sons$`),
}

// Publisher cleans a publisher name. See CleanPublisher.
func Publisher(v raw.Value) string {
	return CleanPublisher(v.Text())
}

// CleanPublisher strips quotes, collapses whitespace, removes trailing
// corporate suffixes such as "Inc." or "Press" and title-cases the result.
// A suffix that is the entire name is kept. Empty, "nan" and "none" give "".
func CleanPublisher(s string) string {
	if isNullText(s) {
		return ""
	}
	s = strings.ReplaceAll(s, `"`, "")
	s = DisplayText(s)

	for changed := true; changed; {
		changed = false
		for _, re := range publisherSuffixes {
			loc := re.FindStringIndex(s)
			if loc == nil {
				continue
			}
			rest := strings.TrimRight(s[:loc[0]], " ,;")
			if rest == "" {
				continue
			}
			s = rest
			changed = true
		}
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return titleCase(strings.ToLower(s))
}
