package models

import "time"

// MatchMethod records how a primary record found its secondary partner.
type MatchMethod string

const (
	MatchIdentifier  MatchMethod = "identifier"
	MatchBlockingKey MatchMethod = "blocking-key"
	MatchNone        MatchMethod = "none"
)

// SourceRecord is a raw input record after normalization. Empty strings and
// nil pointers mean "no value". ISBN13 and ISBN10 are cleaned of separators
// but not yet validated; validation belongs to the identity resolver.
type SourceRecord struct {
	Source      string
	SourceIndex int

	Title         string
	Subtitle      string
	MatchTitle    string
	Authors       []string
	Categories    []string
	Publisher     string
	ISBN13        string
	ISBN10        string
	PubDate       string
	Language      string
	PriceAmount   *float64
	PriceCurrency string
	URL           string
	RatingValue   *float64
	RatingCount   *int64

	RawJSON string
}

// Completeness counts the populated bibliographic fields.
func (r *SourceRecord) Completeness() int {
	n := 0
	for _, s := range []string{r.Title, r.Subtitle, r.Publisher, r.ISBN13, r.ISBN10,
		r.PubDate, r.Language, r.PriceCurrency, r.URL} {
		if s != "" {
			n++
		}
	}
	if len(r.Authors) > 0 {
		n++
	}
	if len(r.Categories) > 0 {
		n++
	}
	if r.PriceAmount != nil {
		n++
	}
	if r.RatingValue != nil {
		n++
	}
	if r.RatingCount != nil {
		n++
	}
	return n
}

// MatchResult is the Matcher's verdict for one primary record.
type MatchResult struct {
	Matched   bool
	Method    MatchMethod
	Candidate *SourceRecord
	// CandidatePos is Candidate's position in the secondary collection, or -1.
	CandidatePos int
	// Candidates is how many secondary records shared the winning key.
	// More than one means the first by input order was taken.
	Candidates int
}

// CanonicalRecord is one book in the unified catalog.
type CanonicalRecord struct {
	BookID          string      `json:"book_id" yaml:"book_id" parquet:"book_id"`
	Title           string      `json:"title" yaml:"title" parquet:"title,optional"`
	Subtitle        string      `json:"subtitle,omitempty" yaml:"subtitle,omitempty" parquet:"subtitle,optional"`
	Authors         []string    `json:"authors" yaml:"authors" parquet:"authors,list"`
	Publisher       string      `json:"publisher,omitempty" yaml:"publisher,omitempty" parquet:"publisher,optional"`
	ISBN13          string      `json:"isbn13,omitempty" yaml:"isbn13,omitempty" parquet:"isbn13,optional"`
	ISBN10          string      `json:"isbn10,omitempty" yaml:"isbn10,omitempty" parquet:"isbn10,optional"`
	PubDateNorm     string      `json:"pub_date_norm,omitempty" yaml:"pub_date_norm,omitempty" parquet:"pub_date_norm,optional"`
	LanguageNorm    string      `json:"language_norm,omitempty" yaml:"language_norm,omitempty" parquet:"language_norm,optional"`
	PriceAmountNorm *float64    `json:"price_amount_norm,omitempty" yaml:"price_amount_norm,omitempty" parquet:"price_amount_norm,optional"`
	PriceCurrency   string      `json:"price_currency,omitempty" yaml:"price_currency,omitempty" parquet:"price_currency,optional"`
	Categories      []string    `json:"categories" yaml:"categories" parquet:"categories,list"`
	URL             string      `json:"url,omitempty" yaml:"url,omitempty" parquet:"url,optional"`
	RatingValue     *float64    `json:"rating_value,omitempty" yaml:"rating_value,omitempty" parquet:"rating_value,optional"`
	RatingCount     *int64      `json:"rating_count,omitempty" yaml:"rating_count,omitempty" parquet:"rating_count,optional"`
	MatchMethod     MatchMethod `json:"match_method" yaml:"match_method" parquet:"match_method"`
	WinningSource   string      `json:"winning_source" yaml:"winning_source" parquet:"winning_source"`
	UpdatedAt       time.Time   `json:"updated_at" yaml:"updated_at" parquet:"updated_at"`
}

// NonNullCount is the completeness score used by deduplication. BookID,
// WinningSource, MatchMethod and UpdatedAt are always set and not counted.
func (c *CanonicalRecord) NonNullCount() int {
	n := 0
	for _, s := range []string{c.Title, c.Subtitle, c.Publisher, c.ISBN13, c.ISBN10,
		c.PubDateNorm, c.LanguageNorm, c.PriceCurrency, c.URL} {
		if s != "" {
			n++
		}
	}
	if len(c.Authors) > 0 {
		n++
	}
	if len(c.Categories) > 0 {
		n++
	}
	if c.PriceAmountNorm != nil {
		n++
	}
	if c.RatingValue != nil {
		n++
	}
	if c.RatingCount != nil {
		n++
	}
	return n
}

// DetailRecord links a canonical book to one contributing raw record.
type DetailRecord struct {
	BookID      string      `json:"book_id" parquet:"book_id"`
	Source      string      `json:"source" parquet:"source"`
	SourceIndex int64       `json:"source_index" parquet:"source_index"`
	MatchMethod MatchMethod `json:"match_method" parquet:"match_method"`
	ISBN13Valid bool        `json:"flag_isbn13_valid" parquet:"flag_isbn13_valid"`
	ISBN10Valid bool        `json:"flag_isbn10_valid" parquet:"flag_isbn10_valid"`
	DateValid   bool        `json:"flag_date_valid" parquet:"flag_date_valid"`
	Raw         string      `json:"raw" parquet:"raw"`
}
