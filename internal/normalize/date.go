package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/bookmerge/internal/raw"
)

type precision int

const (
	precisionYear precision = iota
	precisionMonth
	precisionDay
)

type dateLayout struct {
	layout    string
	precision precision
}

var dateLayouts = []dateLayout{
	{time.RFC3339, precisionDay},
	{"2006-01-02T15:04:05", precisionDay},
	{"2006-01-02 15:04:05", precisionDay},
	{"2006-1-2", precisionDay},
	{"2006/1/2", precisionDay},
	{"2006.1.2", precisionDay},
	{"1/2/2006", precisionDay},
	{"January 2, 2006", precisionDay},
	{"January 2 2006", precisionDay},
	{"Jan 2, 2006", precisionDay},
	{"Jan 2 2006", precisionDay},
	{"Jan. 2, 2006", precisionDay},
	{"2 January 2006", precisionDay},
	{"2 Jan 2006", precisionDay},
	{"2006-1", precisionMonth},
	{"2006/1", precisionMonth},
	{"1/2006", precisionMonth},
	{"January 2006", precisionMonth},
	{"January, 2006", precisionMonth},
	{"Jan 2006", precisionMonth},
	{"2006", precisionYear},
}

var (
	publishedPrefix = regexp.MustCompile(`(?i)^(first\s+published|published|expected\s+publication)\s*(in|on)?\s*`)
	ordinalSuffix   = regexp.MustCompile(`(\d)(st|nd|rd|th)\b`)
)

// Date parses common date spellings into ISO form at the most specific
// precision the input supports: "2006-01-02", "2006-01" or "2006". A full
// date on the first of the month degrades to year-month, and on January 1st
// to the year alone, since scrapers fill unknown parts with 1. Numbers are
// read as a bare year or as epoch milliseconds. Unparseable input yields "".
func Date(v raw.Value) string {
	if f, ok := v.Float(); ok {
		return dateFromNumber(f)
	}
	return DateString(v.Text())
}

// DateString is Date for an already extracted string.
func DateString(s string) string {
	s = strings.TrimSpace(s)
	if isNullText(s) {
		return ""
	}
	s = publishedPrefix.ReplaceAllString(s, "")
	s = ordinalSuffix.ReplaceAllString(s, "$1")
	s = strings.Trim(collapseSpace(s), " ,.")

	for _, l := range dateLayouts {
		t, err := time.Parse(l.layout, s)
		if err != nil {
			continue
		}
		if t.Year() < 1000 || t.Year() > 2100 {
			return ""
		}
		return formatDate(t, l.precision)
	}
	return ""
}

func dateFromNumber(f float64) string {
	if math.IsInf(f, 0) || f != math.Trunc(f) {
		return ""
	}
	if f >= 1000 && f <= 2100 {
		return fmt.Sprintf("%04d", int(f))
	}
	// Goodreads exposes publicationTime in epoch milliseconds.
	if math.Abs(f) >= 1e11 {
		return formatDate(time.UnixMilli(int64(f)).UTC(), precisionDay)
	}
	return ""
}

func formatDate(t time.Time, p precision) string {
	switch p {
	case precisionYear:
		return fmt.Sprintf("%04d", t.Year())
	case precisionMonth:
		return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
	}
	if t.Day() != 1 {
		return t.Format("2006-01-02")
	}
	if t.Month() != time.January {
		return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
	}
	return fmt.Sprintf("%04d", t.Year())
}
