package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/bookmerge/internal/raw"
	"golang.org/x/text/currency"
)

var plainDecimal = regexp.MustCompile(`^\d+(\.\d+)?$`)

// Price parses a non-negative amount written with either a comma or a dot as
// the decimal separator. Currency symbols and spaces are ignored. Anything
// else yields nil.
func Price(v raw.Value) *float64 {
	if f, ok := v.Float(); ok {
		if f < 0 || math.IsInf(f, 0) {
			return nil
		}
		return &f
	}
	return parseDecimal(v.Text())
}

func parseDecimal(s string) *float64 {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '€', '$', '£', '¥':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" {
		return nil
	}

	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0:
		// The later separator is the decimal one.
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		if strings.Count(s, ",") == 1 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	if !plainDecimal.MatchString(s) {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// Currency returns the ISO 4217 code, or "" for anything that is not one.
func Currency(v raw.Value) string {
	s := strings.ToUpper(strings.TrimSpace(v.Text()))
	if len(s) != 3 {
		return ""
	}
	unit, err := currency.ParseISO(s)
	if err != nil {
		return ""
	}
	return unit.String()
}

// Rating parses a rating value with the same separator tolerance as Price.
func Rating(v raw.Value) *float64 {
	return Price(v)
}

// Count parses a non-negative whole number, tolerating thousands separators.
func Count(v raw.Value) *int64 {
	if f, ok := v.Float(); ok {
		if f < 0 || f != math.Trunc(f) || math.IsInf(f, 0) {
			return nil
		}
		n := int64(f)
		return &n
	}
	s := strings.NewReplacer(",", "", ".", "", " ", "", "\u00a0", "").Replace(strings.TrimSpace(v.Text()))
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}
