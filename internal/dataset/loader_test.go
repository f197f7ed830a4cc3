package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lehigh-university-libraries/bookmerge/internal/raw"
	"github.com/parquet-go/parquet-go"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	path := "./test.parquet"
	loader := NewLoader(path, raw.SourceGoogleBooks)

	if loader.path != path {
		t.Errorf("Expected path %s, got %s", path, loader.path)
	}
	if loader.source != raw.SourceGoogleBooks {
		t.Errorf("Expected source googlebooks, got %s", loader.source)
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "goodreads.json", `[
  {"title": "Fluent Python", "authors": ["Luciano Ramalho"], "isbn13": "9781491946008", "rating_count": 1200},
  {"title": "Dune", "genres": [{"genre": {"name": "Science Fiction"}}]}
]`)

	records, err := NewLoader(path, raw.SourceGoodreads).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if got := records[0].Get("authors").Kind(); got != raw.KindList {
		t.Errorf("Expected authors list, got kind %v", got)
	}
	if got := records[0].Get("rating_count").Text(); got != "1200" {
		t.Errorf("Expected rating_count 1200, got %q", got)
	}
	if got := records[1].Get("genres").Text(); got != "Science Fiction" {
		t.Errorf("Expected nested genre name, got %q", got)
	}
	if records[1].Index() != 1 || records[1].Source() != raw.SourceGoodreads {
		t.Errorf("Unexpected provenance: %d %s", records[1].Index(), records[1].Source())
	}
}

func TestLoadJSONRejectsBadShape(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"object instead of array", `{"title": "Dune"}`},
		{"null element", `[{"title": "Dune"}, null]`},
		{"string element", `["Dune"]`},
		{"not json", `title: Dune`},
		{"null", `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "bad.json", tt.content)
			_, err := NewLoader(path, raw.SourceGoodreads).Load()

			var bie *raw.BatchIntegrityError
			if !errors.As(err, &bie) {
				t.Fatalf("Expected BatchIntegrityError, got %v", err)
			}
		})
	}
}

func TestLoadJSONEmptyArray(t *testing.T) {
	path := writeFile(t, "empty.json", `[]`)
	records, err := NewLoader(path, raw.SourceGoodreads).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected no records, got %d", len(records))
	}
}

func TestLoadJSONL(t *testing.T) {
	path := writeFile(t, "goodreads.jsonl", "{\"title\": \"A\"}\n\n{\"title\": \"B\", \"isbn\": 9781491946008}\n")

	records, err := NewLoader(path, raw.SourceGoodreads).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if got := records[1].Get("isbn").Text(); got != "9781491946008" {
		t.Errorf("Expected isbn without exponent, got %q", got)
	}

	bad := writeFile(t, "bad.jsonl", "{\"title\": \"A\"}\n[1, 2]\n")
	_, err = NewLoader(bad, raw.SourceGoodreads).Load()
	var bie *raw.BatchIntegrityError
	if !errors.As(err, &bie) {
		t.Fatalf("Expected BatchIntegrityError, got %v", err)
	}
	if bie.Index != 1 {
		t.Errorf("Expected failing index 1, got %d", bie.Index)
	}
}

func TestLoadCSV(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"semicolon", "title;authors;price_amount\nFluent Python;Luciano Ramalho;45,99\nDune;;\n"},
		{"comma", "title,authors,price_amount\nFluent Python,Luciano Ramalho,\"45,99\"\nDune,,\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "googlebooks.csv", tt.content)
			records, err := NewLoader(path, raw.SourceGoogleBooks).Load()
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if len(records) != 2 {
				t.Fatalf("Expected 2 records, got %d", len(records))
			}
			if got := records[0].Get("price_amount").Text(); got != "45,99" {
				t.Errorf("Expected price 45,99, got %q", got)
			}
			if !records[1].Get("authors").IsMissing() {
				t.Errorf("Expected empty cell to be missing")
			}
		})
	}
}

func TestLoadCSVRaggedRow(t *testing.T) {
	path := writeFile(t, "bad.csv", "title;authors\nA;B\nC;D;E\n")
	_, err := NewLoader(path, raw.SourceGoogleBooks).Load()

	var bie *raw.BatchIntegrityError
	if !errors.As(err, &bie) {
		t.Fatalf("Expected BatchIntegrityError, got %v", err)
	}
}

func TestLoadParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "googlebooks.parquet")
	rows := []Row{
		{Title: "Fluent Python", ISBN13: "9781491946008", PriceAmount: "45.99", PriceCurrency: "USD"},
		{Title: "Dune"},
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		t.Fatalf("Failed to write parquet fixture: %v", err)
	}

	records, err := NewLoader(path, raw.SourceGoogleBooks).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if got := records[0].Get("isbn13").Text(); got != "9781491946008" {
		t.Errorf("Expected isbn13, got %q", got)
	}
	if !records[1].Get("isbn13").IsMissing() {
		t.Errorf("Expected empty parquet value to be missing")
	}
}

func TestLoadUnsupported(t *testing.T) {
	_, err := NewLoader("books.xml", raw.SourceGoodreads).Load()
	if err == nil {
		t.Fatal("Expected error for unsupported format")
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "landing", "googlebooks_books.csv")
	rows := []Row{{Title: "Fluent Python", Authors: "Luciano Ramalho", Categories: "Computers; Programming"}}

	if err := WriteCSV(path, rows); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	records, err := NewLoader(path, raw.SourceGoogleBooks).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if got := records[0].Get("categories").Text(); got != "Computers; Programming" {
		t.Errorf("Expected categories to survive, got %q", got)
	}
	if !records[0].Get("isbn13").IsMissing() {
		t.Errorf("Expected empty isbn13 to be missing")
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "landing", "goodreads_books.json")
	rows := []map[string]any{{"title": "Dune", "genres": []string{"Science Fiction"}}}

	if err := WriteJSON(path, rows); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	records, err := NewLoader(path, raw.SourceGoodreads).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 1 || records[0].Get("genres").Kind() != raw.KindList {
		t.Errorf("Unexpected round trip result: %+v", records)
	}
}
