// Package quality aggregates run statistics over the final catalog and the
// per-source detail rows. Nothing here performs I/O.
package quality

import (
	"math"
	"time"

	"github.com/lehigh-university-libraries/bookmerge/internal/dedup"
	"github.com/lehigh-university-libraries/bookmerge/internal/models"
)

// Report is the structured quality summary of one run.
type Report struct {
	RunID       string    `json:"run_id" yaml:"run_id"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`

	RecordsBySource  map[string]int `json:"records_by_source" yaml:"records_by_source"`
	CanonicalRecords int            `json:"canonical_records" yaml:"canonical_records"`
	ByWinningSource  map[string]int `json:"by_winning_source" yaml:"by_winning_source"`

	PctValidISBN13   float64        `json:"pct_valid_isbn13" yaml:"pct_valid_isbn13"`
	PctResolvedDate  float64        `json:"pct_resolved_pub_date" yaml:"pct_resolved_pub_date"`
	DuplicateIDs     int            `json:"duplicate_book_ids_pre_dedup" yaml:"duplicate_book_ids_pre_dedup"`
	DuplicateISBN13  int            `json:"duplicate_isbn13" yaml:"duplicate_isbn13"`
	MatchMethods     map[string]int `json:"match_methods" yaml:"match_methods"`
	AmbiguousMatches int            `json:"ambiguous_matches" yaml:"ambiguous_matches"`
	DroppedISBNs     int            `json:"invalid_isbns_dropped" yaml:"invalid_isbns_dropped"`

	Dedup dedup.Stats `json:"dedup" yaml:"dedup"`

	NullRates map[string]float64 `json:"null_rates" yaml:"null_rates"`
}

// Input is everything the reporter aggregates over.
type Input struct {
	RunID       string
	GeneratedAt time.Time
	// Catalog is the final, deduplicated set.
	Catalog []models.CanonicalRecord
	// Merged is the catalog before deduplication.
	Merged  []models.CanonicalRecord
	Details []models.DetailRecord
	Matches []models.MatchResult

	DroppedISBNs int
	Dedup        dedup.Stats
}

// Build computes the report. It never fails: an empty input yields zero
// counts and zero percentages.
func Build(in Input) *Report {
	r := &Report{
		RunID:            in.RunID,
		GeneratedAt:      in.GeneratedAt,
		RecordsBySource:  make(map[string]int),
		CanonicalRecords: len(in.Catalog),
		ByWinningSource:  make(map[string]int),
		MatchMethods:     make(map[string]int),
		DroppedISBNs:     in.DroppedISBNs,
		Dedup:            in.Dedup,
		NullRates:        make(map[string]float64, len(nullableFields)),
	}

	// A secondary record matched by several primaries has one detail row per
	// pairing but is counted once.
	type sourceRow struct {
		source string
		index  int64
	}
	seenRows := make(map[sourceRow]struct{}, len(in.Details))
	for _, d := range in.Details {
		k := sourceRow{d.Source, d.SourceIndex}
		if _, ok := seenRows[k]; ok {
			continue
		}
		seenRows[k] = struct{}{}
		r.RecordsBySource[d.Source]++
	}

	for _, m := range in.Matches {
		r.MatchMethods[string(m.Method)]++
		if m.Matched && m.Candidates > 1 {
			r.AmbiguousMatches++
		}
	}

	seenIDs := make(map[string]struct{}, len(in.Merged))
	for _, c := range in.Merged {
		if _, ok := seenIDs[c.BookID]; ok {
			r.DuplicateIDs++
			continue
		}
		seenIDs[c.BookID] = struct{}{}
	}

	var validISBN, resolvedDate int
	seenISBN := make(map[string]struct{}, len(in.Catalog))
	nulls := make(map[string]int, len(nullableFields))
	for i := range in.Catalog {
		c := &in.Catalog[i]
		r.ByWinningSource[c.WinningSource]++
		if len(c.ISBN13) == 13 {
			validISBN++
			if _, ok := seenISBN[c.ISBN13]; ok {
				r.DuplicateISBN13++
			}
			seenISBN[c.ISBN13] = struct{}{}
		}
		if c.PubDateNorm != "" {
			resolvedDate++
		}
		for _, f := range nullableFields {
			if f.isNull(c) {
				nulls[f.name]++
			}
		}
	}

	r.PctValidISBN13 = percent(validISBN, len(in.Catalog))
	r.PctResolvedDate = percent(resolvedDate, len(in.Catalog))
	for _, f := range nullableFields {
		r.NullRates[f.name] = ratio(nulls[f.name], len(in.Catalog))
	}
	return r
}

type nullableField struct {
	name   string
	isNull func(*models.CanonicalRecord) bool
}

var nullableFields = []nullableField{
	{"title", func(c *models.CanonicalRecord) bool { return c.Title == "" }},
	{"subtitle", func(c *models.CanonicalRecord) bool { return c.Subtitle == "" }},
	{"authors", func(c *models.CanonicalRecord) bool { return len(c.Authors) == 0 }},
	{"publisher", func(c *models.CanonicalRecord) bool { return c.Publisher == "" }},
	{"isbn13", func(c *models.CanonicalRecord) bool { return c.ISBN13 == "" }},
	{"isbn10", func(c *models.CanonicalRecord) bool { return c.ISBN10 == "" }},
	{"pub_date_norm", func(c *models.CanonicalRecord) bool { return c.PubDateNorm == "" }},
	{"language_norm", func(c *models.CanonicalRecord) bool { return c.LanguageNorm == "" }},
	{"price_amount_norm", func(c *models.CanonicalRecord) bool { return c.PriceAmountNorm == nil }},
	{"price_currency", func(c *models.CanonicalRecord) bool { return c.PriceCurrency == "" }},
	{"categories", func(c *models.CanonicalRecord) bool { return len(c.Categories) == 0 }},
	{"url", func(c *models.CanonicalRecord) bool { return c.URL == "" }},
	{"rating_value", func(c *models.CanonicalRecord) bool { return c.RatingValue == nil }},
	{"rating_count", func(c *models.CanonicalRecord) bool { return c.RatingCount == nil }},
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*10000) / 10000
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*10000) / 100
}
