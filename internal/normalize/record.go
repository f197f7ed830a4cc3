package normalize

import (
	"regexp"
	"strings"

	"github.com/lehigh-university-libraries/bookmerge/internal/models"
	"github.com/lehigh-university-libraries/bookmerge/internal/raw"
)

var (
	isbnLabel    = regexp.MustCompile(`(?i)^isbn(-?1[03])?\s*:?\s*`)
	floatSuffix  = regexp.MustCompile(`^(\d+)\.0+$`)
	isbnNoiseSet = strings.NewReplacer("-", "", " ", "", "\u00a0", "")
)

// ISBN removes labels, separators and the ".0" left behind when a
// spreadsheet stored the identifier as a float. It does not validate.
func ISBN(v raw.Value) string {
	s := strings.TrimSpace(v.Text())
	if isNullText(s) {
		return ""
	}
	s = isbnLabel.ReplaceAllString(s, "")
	s = isbnNoiseSet.Replace(s)
	if m := floatSuffix.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	return strings.ToUpper(s)
}

// Record normalizes every field of a source record.
func Record(a raw.Accessor) models.SourceRecord {
	rec := a.Record()
	title, subtitle := SplitTitleAndSubtitle(a.Title().Text(), a.Subtitle().Text())

	return models.SourceRecord{
		Source:        string(rec.Source()),
		SourceIndex:   rec.Index(),
		Title:         title,
		Subtitle:      subtitle,
		MatchTitle:    MatchKey(title),
		Authors:       Authors(a.Authors()),
		Categories:    Categories(a.Categories()),
		Publisher:     Publisher(a.Publisher()),
		ISBN13:        ISBN(a.ISBN13()),
		ISBN10:        ISBN(a.ISBN10()),
		PubDate:       Date(a.PubDate()),
		Language:      Language(a.Language()),
		PriceAmount:   Price(a.PriceAmount()),
		PriceCurrency: Currency(a.PriceCurrency()),
		URL:           strings.TrimSpace(a.URL().Text()),
		RatingValue:   Rating(a.RatingValue()),
		RatingCount:   Count(a.RatingCount()),
		RawJSON:       rec.JSON(),
	}
}
