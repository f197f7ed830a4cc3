package raw

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Source names an input collection.
type Source string

const (
	SourceGoodreads   Source = "goodreads"
	SourceGoogleBooks Source = "googlebooks"
)

// Record is one read-only input mapping. Fields are never mutated after
// construction; accessors read through fallback chains.
type Record struct {
	source Source
	index  int
	fields map[string]Value
}

// NewRecord builds a Record from decoded values. The map is copied.
func NewRecord(source Source, index int, fields map[string]any) Record {
	r := Record{
		source: source,
		index:  index,
		fields: make(map[string]Value, len(fields)),
	}
	for k, v := range fields {
		r.fields[k] = FromAny(v)
	}
	return r
}

// IsZero reports whether r was never constructed, which callers treat as a
// contract violation.
func (r Record) IsZero() bool { return r.fields == nil }

// Source reports which input the record came from.
func (r Record) Source() Source { return r.source }

// Index is the record's position in its input collection.
func (r Record) Index() int { return r.index }

// Get returns the named field, or Missing.
func (r Record) Get(name string) Value {
	if r.fields == nil {
		return Missing()
	}
	return r.fields[name]
}

// First returns the first non-missing field in the chain.
func (r Record) First(names ...string) Value {
	for _, name := range names {
		if v := r.Get(name); !v.IsMissing() {
			return v
		}
	}
	return Missing()
}

// Keys lists field names in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r.fields))
	for k := range r.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// JSON serializes the record's fields for traceability output.
func (r Record) JSON() string {
	data, err := json.Marshal(r.fields)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	return string(data)
}

// Accessor exposes the bibliographic fields of a source record regardless of
// which field names the source uses.
type Accessor interface {
	Record() Record
	Title() Value
	Subtitle() Value
	Authors() Value
	Publisher() Value
	PubDate() Value
	Language() Value
	Categories() Value
	ISBN13() Value
	ISBN10() Value
	PriceAmount() Value
	PriceCurrency() Value
	URL() Value
	RatingValue() Value
	RatingCount() Value
}

// Goodreads reads scraped Goodreads records.
type Goodreads struct{ Rec Record }

var _ Accessor = Goodreads{}

func (g Goodreads) Record() Record     { return g.Rec }
func (g Goodreads) Title() Value       { return g.Rec.Get("title") }
func (g Goodreads) Subtitle() Value    { return g.Rec.Get("subtitle") }
func (g Goodreads) Authors() Value     { return g.Rec.First("authors", "author", "author_principal") }
func (g Goodreads) Publisher() Value   { return g.Rec.Get("publisher") }
func (g Goodreads) Language() Value    { return g.Rec.Get("language") }
func (g Goodreads) Categories() Value  { return g.Rec.First("genres", "categories") }
func (g Goodreads) PriceAmount() Value { return g.Rec.Get("price_amount") }
func (g Goodreads) URL() Value         { return g.Rec.Get("url") }
func (g Goodreads) RatingValue() Value { return g.Rec.First("rating_value", "gr_rating_value") }
func (g Goodreads) RatingCount() Value { return g.Rec.First("rating_count", "gr_rating_count") }

func (g Goodreads) PriceCurrency() Value { return g.Rec.Get("price_currency") }

func (g Goodreads) PubDate() Value {
	return g.Rec.First("publication_date", "pub_date", "publication_timestamp")
}

// ISBN13 falls back to the bare "isbn" field when it carries 13 digits; the
// scraper stores whichever identifier the page exposed there.
func (g Goodreads) ISBN13() Value {
	if v := g.Rec.Get("isbn13"); !v.IsMissing() {
		return v
	}
	v := g.Rec.Get("isbn")
	if countDigits(v.Text()) == 13 {
		return v
	}
	return Missing()
}

// ISBN10 falls back to "isbn" unless that field holds the ISBN-13.
func (g Goodreads) ISBN10() Value {
	if v := g.Rec.Get("isbn10"); !v.IsMissing() {
		return v
	}
	v := g.Rec.Get("isbn")
	if countDigits(v.Text()) == 13 {
		return Missing()
	}
	return v
}

// GoogleBooks reads rows produced by the Google Books fetcher.
type GoogleBooks struct{ Rec Record }

var _ Accessor = GoogleBooks{}

func (b GoogleBooks) Record() Record       { return b.Rec }
func (b GoogleBooks) Title() Value         { return b.Rec.Get("title") }
func (b GoogleBooks) Subtitle() Value      { return b.Rec.Get("subtitle") }
func (b GoogleBooks) Authors() Value       { return b.Rec.Get("authors") }
func (b GoogleBooks) Publisher() Value     { return b.Rec.Get("publisher") }
func (b GoogleBooks) PubDate() Value       { return b.Rec.First("pub_date", "publishedDate") }
func (b GoogleBooks) Language() Value      { return b.Rec.Get("language") }
func (b GoogleBooks) Categories() Value    { return b.Rec.Get("categories") }
func (b GoogleBooks) ISBN13() Value        { return b.Rec.Get("isbn13") }
func (b GoogleBooks) ISBN10() Value        { return b.Rec.Get("isbn10") }
func (b GoogleBooks) PriceAmount() Value   { return b.Rec.Get("price_amount") }
func (b GoogleBooks) PriceCurrency() Value { return b.Rec.Get("price_currency") }
func (b GoogleBooks) URL() Value           { return b.Rec.First("info_link", "canonical_link", "gb_url") }
func (b GoogleBooks) RatingValue() Value   { return Missing() }
func (b GoogleBooks) RatingCount() Value   { return Missing() }

// Wrap returns the accessor matching the record's source.
func Wrap(r Record) Accessor {
	if r.source == SourceGoogleBooks {
		return GoogleBooks{Rec: r}
	}
	return Goodreads{Rec: r}
}

func countDigits(s string) int {
	n := 0
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			n++
		case c == '-' || c == ' ':
		default:
			return -1
		}
	}
	return n
}
