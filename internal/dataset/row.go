package dataset

import "reflect"

// Row is the flat landing-file shape shared by both sources. The Google
// Books fetcher writes it as CSV; parquet landings use the same columns.
// Empty strings are absent values.
type Row struct {
	GBID            string `json:"gb_id,omitempty" csv:"gb_id" parquet:"gb_id,optional"`
	Title           string `json:"title,omitempty" csv:"title" parquet:"title,optional"`
	Subtitle        string `json:"subtitle,omitempty" csv:"subtitle" parquet:"subtitle,optional"`
	Authors         string `json:"authors,omitempty" csv:"authors" parquet:"authors,optional"`
	Publisher       string `json:"publisher,omitempty" csv:"publisher" parquet:"publisher,optional"`
	PubDate         string `json:"pub_date,omitempty" csv:"pub_date" parquet:"pub_date,optional"`
	Language        string `json:"language,omitempty" csv:"language" parquet:"language,optional"`
	Categories      string `json:"categories,omitempty" csv:"categories" parquet:"categories,optional"`
	ISBN13          string `json:"isbn13,omitempty" csv:"isbn13" parquet:"isbn13,optional"`
	ISBN10          string `json:"isbn10,omitempty" csv:"isbn10" parquet:"isbn10,optional"`
	PriceAmount     string `json:"price_amount,omitempty" csv:"price_amount" parquet:"price_amount,optional"`
	PriceCurrency   string `json:"price_currency,omitempty" csv:"price_currency" parquet:"price_currency,optional"`
	Description     string `json:"description,omitempty" csv:"description" parquet:"description,optional"`
	InfoLink        string `json:"info_link,omitempty" csv:"info_link" parquet:"info_link,optional"`
	CanonicalLink   string `json:"canonical_link,omitempty" csv:"canonical_link" parquet:"canonical_link,optional"`
	APIQueryURL     string `json:"api_query_url,omitempty" csv:"api_query_url" parquet:"api_query_url,optional"`
	URL             string `json:"url,omitempty" csv:"url" parquet:"url,optional"`
	RatingValue     string `json:"rating_value,omitempty" csv:"rating_value" parquet:"rating_value,optional"`
	RatingCount     string `json:"rating_count,omitempty" csv:"rating_count" parquet:"rating_count,optional"`
	PublicationDate string `json:"publication_date,omitempty" csv:"publication_date" parquet:"publication_date,optional"`
	Genres          string `json:"genres,omitempty" csv:"genres" parquet:"genres,optional"`
}

// Columns lists the Row column names in declaration order.
func Columns() []string {
	t := reflect.TypeOf(Row{})
	cols := make([]string, t.NumField())
	for i := range cols {
		cols[i] = t.Field(i).Tag.Get("csv")
	}
	return cols
}

// Values returns the row's values aligned with Columns.
func (r Row) Values() []string {
	v := reflect.ValueOf(r)
	out := make([]string, v.NumField())
	for i := range out {
		out[i] = v.Field(i).String()
	}
	return out
}

// Map returns the non-empty fields keyed by column name.
func (r Row) Map() map[string]any {
	cols := Columns()
	vals := r.Values()
	m := make(map[string]any, len(cols))
	for i, c := range cols {
		if vals[i] != "" {
			m[c] = vals[i]
		}
	}
	return m
}
