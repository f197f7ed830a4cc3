package quality

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/lehigh-university-libraries/bookmerge/internal/models"
)

// Column documents one dim_book column.
type Column struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Nullable bool   `json:"nullable" yaml:"nullable"`
	Example  string `json:"example,omitempty" yaml:"example,omitempty"`
	Rules    string `json:"rules" yaml:"rules"`
}

var columnRules = map[string]string{
	"book_id":           "isbn13, else isbn10, else 16-hex content hash; unique",
	"title":             "trimmed, wrapping quotes removed, subtitle split on ':' or '–'",
	"subtitle":          "explicit subtitle or text after the first ':' / '–'",
	"authors":           "title-cased, deduplicated, sorted union of both sources",
	"publisher":         "corporate suffixes stripped, title-cased",
	"isbn13":            "13 digits, no separators",
	"isbn10":            "9 digits plus check digit or X",
	"pub_date_norm":     "YYYY, YYYY-MM or YYYY-MM-DD, most specific known",
	"language_norm":     "lowercase language code",
	"price_amount_norm": "non-negative decimal",
	"price_currency":    "ISO-4217 code, same source as price_amount_norm",
	"categories":        "sorted union of both sources, case preserved",
	"url":               "link from the more complete source",
	"rating_value":      "average rating from the scraped source",
	"rating_count":      "number of ratings from the scraped source",
	"match_method":      "identifier, blocking-key or none",
	"winning_source":    "source that supplied the descriptive fields",
	"updated_at":        "merge timestamp (UTC)",
}

// Schema describes the CanonicalRecord columns. Examples are taken from the
// first catalog record that has a value for the column.
func Schema(catalog []models.CanonicalRecord) []Column {
	t := reflect.TypeOf(models.CanonicalRecord{})
	cols := make([]Column, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, opts, _ := strings.Cut(f.Tag.Get("parquet"), ",")
		col := Column{
			Name:     name,
			Type:     typeName(f.Type),
			Nullable: strings.Contains(opts, "optional") || f.Type.Kind() == reflect.Slice,
			Rules:    columnRules[name],
		}
		for j := range catalog {
			v := reflect.ValueOf(catalog[j]).Field(i)
			if v.IsZero() {
				continue
			}
			col.Example = example(v)
			break
		}
		cols = append(cols, col)
	}
	return cols
}

// SchemaMarkdown renders the schema as the docs/schema.md table.
func SchemaMarkdown(cols []Column) string {
	var b strings.Builder
	b.WriteString("# dim_book schema\n\n")
	b.WriteString("| column | type | nullable | example | rules |\n")
	b.WriteString("|--------|------|----------|---------|-------|\n")
	for _, c := range cols {
		nullable := "no"
		if c.Nullable {
			nullable = "yes"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			c.Name, c.Type, nullable, escapeCell(c.Example), escapeCell(c.Rules))
	}
	return b.String()
}

func typeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Ptr:
		return typeName(t.Elem())
	case reflect.Slice:
		return "list<" + typeName(t.Elem()) + ">"
	case reflect.Float64:
		return "decimal"
	case reflect.Int64:
		return "integer"
	case reflect.Struct:
		return "timestamp"
	}
	return "string"
}

func example(v reflect.Value) string {
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	switch x := v.Interface().(type) {
	case []string:
		return strings.Join(x, "; ")
	case interface{ Format(string) string }:
		return x.Format("2006-01-02T15:04:05Z07:00")
	}
	return fmt.Sprint(v.Interface())
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
