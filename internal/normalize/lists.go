package normalize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/lehigh-university-libraries/bookmerge/internal/raw"
)

// Authors normalizes an author field into a sorted set of title-cased names.
// It accepts a real list, a serialized list literal, a ';' or '|' delimited
// string, or a bare name. Unparseable literals are kept as one name.
func Authors(v raw.Value) []string {
	set := make(map[string]struct{})
	for _, part := range splitList(v) {
		name := collapseSpace(part)
		name = strings.TrimSpace(strings.TrimRight(name, ". "))
		if isNullText(name) {
			continue
		}
		set[titleCase(name)] = struct{}{}
	}
	return sortedKeys(set)
}

// Categories normalizes a genre / category field into a sorted set. Case is
// preserved.
func Categories(v raw.Value) []string {
	set := make(map[string]struct{})
	for _, part := range splitList(v) {
		c := strings.TrimSpace(part)
		if isNullText(c) {
			continue
		}
		set[c] = struct{}{}
	}
	return sortedKeys(set)
}

// FirstAuthor returns the first normalized author, or "".
func FirstAuthor(authors []string) string {
	if len(authors) == 0 {
		return ""
	}
	return authors[0]
}

// Union merges two normalized sets into a new sorted set.
func Union(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		set[s] = struct{}{}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func splitList(v raw.Value) []string {
	var parts []string
	for _, item := range v.Items() {
		parts = append(parts, splitItem(item)...)
	}
	return parts
}

func splitItem(s string) []string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		items, ok := parseListLiteral(s)
		if !ok {
			return []string{s}
		}
		var out []string
		for _, item := range items {
			out = append(out, splitDelimited(item)...)
		}
		return out
	}
	return splitDelimited(s)
}

func splitDelimited(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == '|' })
}

var quotedItem = regexp.MustCompile(`'((?:[^'\\]|\\.)*)'|"((?:[^"\\]|\\.)*)"`)

// parseListLiteral reads JSON arrays and the single-quoted list reprs that
// Python-based scrapers write into CSV cells.
func parseListLiteral(s string) ([]string, bool) {
	var decoded []any
	if err := json.Unmarshal([]byte(s), &decoded); err == nil {
		out := make([]string, 0, len(decoded))
		for _, item := range decoded {
			if item == nil {
				continue
			}
			if str, ok := item.(string); ok {
				out = append(out, str)
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		return out, true
	}

	matches := quotedItem.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil, false
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		item := m[1]
		if item == "" {
			item = m[2]
		}
		out = append(out, strings.ReplaceAll(item, `\'`, `'`))
	}
	return out, true
}
