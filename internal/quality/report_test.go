package quality

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/bookmerge/internal/dedup"
	"github.com/lehigh-university-libraries/bookmerge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEmpty(t *testing.T) {
	r := Build(Input{})

	assert.Zero(t, r.CanonicalRecords)
	assert.Zero(t, r.PctValidISBN13)
	assert.Zero(t, r.PctResolvedDate)
	assert.Zero(t, r.DuplicateIDs)
	assert.Empty(t, r.RecordsBySource)
	require.Len(t, r.NullRates, len(nullableFields))
	for name, rate := range r.NullRates {
		assert.False(t, math.IsNaN(rate), name)
		assert.Zero(t, rate, name)
	}

	_, err := json.Marshal(r)
	assert.NoError(t, err)
	assert.NotEmpty(t, r.Render(true))
}

func TestBuild(t *testing.T) {
	price := 45.99
	catalog := []models.CanonicalRecord{
		{
			BookID: "9781491946008", Title: "Fluent Python", Authors: []string{"Luciano Ramalho"},
			ISBN13: "9781491946008", PubDateNorm: "2015-08", PriceAmountNorm: &price,
			PriceCurrency: "USD", WinningSource: "goodreads", MatchMethod: models.MatchIdentifier,
		},
		{
			BookID: "8a0694eda4486cbc", Title: "The Pragmatic Programmer", Authors: []string{"Andrew Hunt"},
			WinningSource: "goodreads", MatchMethod: models.MatchNone,
		},
		{
			BookID: "9780201616224", Title: "Other", ISBN13: "9780201616224", PubDateNorm: "1999",
			WinningSource: "googlebooks", MatchMethod: models.MatchNone,
		},
		{
			BookID: "020161622X", Title: "Dup isbn", ISBN13: "9780201616224",
			WinningSource: "googlebooks", MatchMethod: models.MatchNone,
		},
	}
	merged := append([]models.CanonicalRecord{catalog[1]}, catalog...)

	r := Build(Input{
		RunID:       "run-1",
		GeneratedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Catalog:     catalog,
		Merged:      merged,
		Details: []models.DetailRecord{
			{Source: "goodreads", SourceIndex: 0},
			{Source: "goodreads", SourceIndex: 1},
			{Source: "goodreads", SourceIndex: 2},
			{Source: "googlebooks", SourceIndex: 0},
			{Source: "googlebooks", SourceIndex: 0},
		},
		Matches: []models.MatchResult{
			{Matched: true, Method: models.MatchIdentifier, Candidates: 1},
			{Matched: true, Method: models.MatchBlockingKey, Candidates: 3},
			{Method: models.MatchNone, CandidatePos: -1},
		},
		DroppedISBNs: 2,
		Dedup:        dedup.Stats{Input: 5, Exact: 1, Collisions: 1, Output: 4},
	})

	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, map[string]int{"goodreads": 3, "googlebooks": 1}, r.RecordsBySource)
	assert.Equal(t, 4, r.CanonicalRecords)
	assert.Equal(t, map[string]int{"goodreads": 2, "googlebooks": 2}, r.ByWinningSource)
	assert.Equal(t, 75.0, r.PctValidISBN13)
	assert.Equal(t, 50.0, r.PctResolvedDate)
	assert.Equal(t, 1, r.DuplicateIDs)
	assert.Equal(t, 1, r.DuplicateISBN13)
	assert.Equal(t, map[string]int{"identifier": 1, "blocking-key": 1, "none": 1}, r.MatchMethods)
	assert.Equal(t, 1, r.AmbiguousMatches)
	assert.Equal(t, 2, r.DroppedISBNs)
	assert.Equal(t, 1, r.Dedup.Collisions)
	assert.Equal(t, 0.75, r.NullRates["price_amount_norm"])
	assert.Equal(t, 0.0, r.NullRates["title"])
	assert.Equal(t, 1.0, r.NullRates["subtitle"])
	assert.Equal(t, 0.5, r.NullRates["authors"])

	out := r.Render(true)
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "75.00%")
	assert.Contains(t, out, "Matched by blocking-key")
}

func TestSchema(t *testing.T) {
	price := 45.99
	catalog := []models.CanonicalRecord{
		{BookID: "8a0694eda4486cbc", Title: "The Pragmatic Programmer"},
		{BookID: "9781491946008", Authors: []string{"Luciano Ramalho"}, PriceAmountNorm: &price},
	}

	cols := Schema(catalog)
	byName := map[string]Column{}
	for _, c := range cols {
		byName[c.Name] = c
	}

	require.Contains(t, byName, "book_id")
	assert.False(t, byName["book_id"].Nullable)
	assert.Equal(t, "8a0694eda4486cbc", byName["book_id"].Example)
	assert.Equal(t, "list<string>", byName["authors"].Type)
	assert.Equal(t, "Luciano Ramalho", byName["authors"].Example)
	assert.Equal(t, "decimal", byName["price_amount_norm"].Type)
	assert.True(t, byName["price_amount_norm"].Nullable)
	assert.Equal(t, "45.99", byName["price_amount_norm"].Example)
	assert.Equal(t, "timestamp", byName["updated_at"].Type)
	for _, c := range cols {
		assert.NotEmpty(t, c.Rules, c.Name)
	}

	md := SchemaMarkdown(cols)
	assert.True(t, strings.HasPrefix(md, "# dim_book schema"))
	assert.Contains(t, md, "| book_id | string | no | 8a0694eda4486cbc |")
}
