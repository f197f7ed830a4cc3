package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/bookmerge/internal/models"
)

// ListSeparator joins list cells in CSV output. It cannot be ';', the
// column separator.
const ListSeparator = "|"

// CatalogHeader is the dim_book CSV header.
var CatalogHeader = []string{
	"book_id", "title", "subtitle", "authors", "publisher", "isbn13", "isbn10",
	"pub_date_norm", "language_norm", "price_amount_norm", "price_currency",
	"categories", "url", "rating_value", "rating_count", "match_method",
	"winning_source", "updated_at",
}

// DetailHeader is the book_source_detail CSV header.
var DetailHeader = []string{
	"book_id", "source", "source_index", "match_method",
	"flag_isbn13_valid", "flag_isbn10_valid", "flag_date_valid", "raw",
}

// WriteCatalogCSV writes dim_book as a ';'-separated CSV.
func WriteCatalogCSV(path string, catalog []models.CanonicalRecord) error {
	rows := make([][]string, 0, len(catalog))
	for _, c := range catalog {
		rows = append(rows, []string{
			c.BookID, c.Title, c.Subtitle,
			strings.Join(c.Authors, ListSeparator),
			c.Publisher, c.ISBN13, c.ISBN10, c.PubDateNorm, c.LanguageNorm,
			formatFloat(c.PriceAmountNorm), c.PriceCurrency,
			strings.Join(c.Categories, ListSeparator),
			c.URL, formatFloat(c.RatingValue), formatInt(c.RatingCount),
			string(c.MatchMethod), c.WinningSource,
			c.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return writeCSV(path, CatalogHeader, rows)
}

// WriteDetailCSV writes book_source_detail as a ';'-separated CSV.
func WriteDetailCSV(path string, details []models.DetailRecord) error {
	rows := make([][]string, 0, len(details))
	for _, d := range details {
		rows = append(rows, []string{
			d.BookID, d.Source, strconv.FormatInt(d.SourceIndex, 10), string(d.MatchMethod),
			strconv.FormatBool(d.ISBN13Valid), strconv.FormatBool(d.ISBN10Valid),
			strconv.FormatBool(d.DateValid), d.Raw,
		})
	}
	return writeCSV(path, DetailHeader, rows)
}

func writeCSV(path string, header []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	w.Comma = ';'
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return file.Close()
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func formatInt(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}
