package merge

import (
	"testing"
	"time"

	"github.com/lehigh-university-libraries/bookmerge/internal/identity"
	"github.com/lehigh-university-libraries/bookmerge/internal/models"
	"github.com/lehigh-university-libraries/bookmerge/internal/normalize"
	"github.com/lehigh-university-libraries/bookmerge/internal/raw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newMerger(p Policy) *Merger {
	m := New(p, identity.Resolver{})
	m.Now = func() time.Time { return fixedNow }
	return m
}

func goodreads(fields map[string]any) models.SourceRecord {
	return normalize.Record(raw.Goodreads{Rec: raw.NewRecord(raw.SourceGoodreads, 0, fields)})
}

func googleBooks(fields map[string]any) models.SourceRecord {
	return normalize.Record(raw.GoogleBooks{Rec: raw.NewRecord(raw.SourceGoogleBooks, 0, fields)})
}

func matched(rec *models.SourceRecord, method models.MatchMethod) models.MatchResult {
	return models.MatchResult{Matched: true, Method: method, Candidate: rec, CandidatePos: 0, Candidates: 1}
}

func TestMergeFluentPython(t *testing.T) {
	primary := goodreads(map[string]any{
		"title":     "Fluent Python",
		"authors":   []any{"Luciano Ramalho"},
		"isbn13":    "9781491946008",
		"publisher": "O'Reilly Media, Inc.",
	})
	secondary := googleBooks(map[string]any{
		"title":          "Fluent Python",
		"isbn13":         "9781491946008",
		"price_amount":   "45,99",
		"price_currency": "USD",
	})

	out, prov := newMerger(DefaultPolicy()).Merge(&primary, matched(&secondary, models.MatchIdentifier))

	assert.Equal(t, "9781491946008", out.BookID)
	assert.Equal(t, "9781491946008", out.ISBN13)
	assert.Equal(t, "O'Reilly", out.Publisher)
	require.NotNil(t, out.PriceAmountNorm)
	assert.InDelta(t, 45.99, *out.PriceAmountNorm, 1e-9)
	assert.Equal(t, "USD", out.PriceCurrency)
	assert.Equal(t, []string{"Luciano Ramalho"}, out.Authors)
	assert.Equal(t, "goodreads", out.WinningSource)
	assert.Equal(t, models.MatchIdentifier, out.MatchMethod)
	assert.Equal(t, fixedNow, out.UpdatedAt)
	assert.Equal(t, SidePrimary, prov.Winner)
	assert.Equal(t, SideSecondary, prov.FieldSources[FieldPrice])
	assert.Zero(t, prov.DroppedISBNs)
}

func TestMergeUnionsSetFields(t *testing.T) {
	primary := goodreads(map[string]any{
		"title":   "Designing Data-Intensive Applications",
		"authors": "Martin Kleppmann",
		"genres":  []any{"Computer Science", "Databases"},
	})
	secondary := googleBooks(map[string]any{
		"title":      "Designing Data-Intensive Applications",
		"authors":    "Martin Kleppmann; Jane Editor",
		"categories": "Computers; Databases",
	})

	out, _ := newMerger(DefaultPolicy()).Merge(&primary, matched(&secondary, models.MatchBlockingKey))

	assert.Equal(t, []string{"Jane Editor", "Martin Kleppmann"}, out.Authors)
	assert.Equal(t, []string{"Computer Science", "Computers", "Databases"}, out.Categories)
	assert.Equal(t, models.MatchBlockingKey, out.MatchMethod)
}

func TestMergeNeverDropsValidISBN(t *testing.T) {
	tests := []struct {
		name        string
		primary     string
		secondary   string
		want        string
		wantDropped int
	}{
		{"primary only", "9780201616224", "", "9780201616224", 0},
		{"secondary only", "", "9780201616224", "9780201616224", 0},
		{"primary invalid", "97802016", "9780201616224", "9780201616224", 1},
		{"both invalid", "978-02", "abc", "", 2},
		{"primary wins", "9781491946008", "9780201616224", "9781491946008", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.SourceRecord{Source: "goodreads", Title: "X", ISBN13: tt.primary}
			s := models.SourceRecord{Source: "googlebooks", Title: "X", ISBN13: tt.secondary}

			out, prov := newMerger(DefaultPolicy()).Merge(&p, matched(&s, models.MatchBlockingKey))
			assert.Equal(t, tt.want, out.ISBN13)
			assert.Equal(t, tt.wantDropped, prov.DroppedISBNs)
		})
	}
}

func TestMergeBookIDFromMergedFields(t *testing.T) {
	primary := models.SourceRecord{
		Source:  "goodreads",
		Title:   "The Pragmatic Programmer",
		Authors: []string{"Andrew Hunt", "David Thomas"},
	}
	secondary := models.SourceRecord{
		Source:    "googlebooks",
		Title:     "The Pragmatic Programmer",
		Publisher: "Addison-Wesley",
	}

	out, _ := newMerger(DefaultPolicy()).Merge(&primary, matched(&secondary, models.MatchBlockingKey))
	assert.Equal(t, identity.ContentHash("The Pragmatic Programmer", "Andrew Hunt", "Addison-Wesley"), out.BookID)
	assert.Equal(t, "8a0694eda4486cbc", out.BookID)

	secondary.ISBN10 = "020161622X"
	out, _ = newMerger(DefaultPolicy()).Merge(&primary, matched(&secondary, models.MatchBlockingKey))
	assert.Equal(t, "020161622X", out.BookID)
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	price := 10.0
	primary := models.SourceRecord{
		Source:     "goodreads",
		Title:      "Go in Action",
		Authors:    []string{"William Kennedy"},
		Categories: []string{"Programming"},
	}
	secondary := models.SourceRecord{
		Source:      "googlebooks",
		Title:       "Go in Action",
		Authors:     []string{"Brian Ketelsen"},
		Categories:  []string{"Computers"},
		PriceAmount: &price,
	}
	wantPrimary, wantSecondary := primary, secondary
	wantPrimary.Authors = append([]string(nil), primary.Authors...)
	wantSecondary.Authors = append([]string(nil), secondary.Authors...)

	out, _ := newMerger(DefaultPolicy()).Merge(&primary, matched(&secondary, models.MatchBlockingKey))
	*out.PriceAmountNorm = 99
	out.Authors[0] = "changed"

	assert.Equal(t, wantPrimary, primary)
	assert.Equal(t, wantSecondary, secondary)
	assert.Equal(t, 10.0, price)
}

func TestMergeWinningSource(t *testing.T) {
	sparse := models.SourceRecord{Source: "goodreads", Title: "Refactoring"}
	rich := models.SourceRecord{
		Source:    "googlebooks",
		Title:     "Refactoring: Improving the Design of Existing Code",
		Authors:   []string{"Martin Fowler"},
		Publisher: "Addison-Wesley",
		PubDate:   "2018-11-20",
	}
	untitled := models.SourceRecord{Source: "goodreads", Authors: []string{"Martin Fowler"}}

	tests := []struct {
		name      string
		policy    Policy
		primary   models.SourceRecord
		secondary models.SourceRecord
		want      string
		title     string
	}{
		{"primary wins by default", DefaultPolicy(), sparse, rich, "goodreads", "Refactoring"},
		{"most complete picks secondary", Policy{PreferMostComplete, PreferMostComplete, PreferMostComplete}, sparse, rich, "googlebooks", rich.Title},
		{"prefer secondary", Policy{PreferSecondary, PreferMostComplete, PreferMostComplete}, sparse, rich, "googlebooks", rich.Title},
		{"untitled side never wins", DefaultPolicy(), untitled, rich, "googlebooks", rich.Title},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _ := newMerger(tt.policy).Merge(&tt.primary, matched(&tt.secondary, models.MatchBlockingKey))
			assert.Equal(t, tt.want, out.WinningSource)
			assert.Equal(t, tt.title, out.Title)
		})
	}
}

func TestMergeFillsGapsFromSecondary(t *testing.T) {
	primary := models.SourceRecord{Source: "goodreads", Title: "Clean Code", Language: "en"}
	secondary := models.SourceRecord{
		Source:    "googlebooks",
		Title:     "Clean Code",
		Publisher: "Prentice Hall",
		PubDate:   "2008-08",
		Language:  "fr",
		URL:       "https://books.google.com/books?id=abc",
	}

	out, prov := newMerger(DefaultPolicy()).Merge(&primary, matched(&secondary, models.MatchBlockingKey))
	assert.Equal(t, "Prentice Hall", out.Publisher)
	assert.Equal(t, "2008-08", out.PubDateNorm)
	assert.Equal(t, "en", out.LanguageNorm)
	assert.Equal(t, secondary.URL, out.URL)
	assert.Equal(t, SideSecondary, prov.FieldSources[FieldPublisher])
	assert.Equal(t, SidePrimary, prov.FieldSources[FieldLanguage])
}

func TestMergeCommerceKeepsPair(t *testing.T) {
	a, b := 12.5, 30.0
	primary := models.SourceRecord{Source: "goodreads", Title: "T", PriceAmount: &a, PriceCurrency: "EUR"}
	secondary := models.SourceRecord{
		Source: "googlebooks", Title: "T", PriceAmount: &b, PriceCurrency: "USD",
		Publisher: "P", PubDate: "2020",
	}

	out, _ := newMerger(DefaultPolicy()).Merge(&primary, matched(&secondary, models.MatchBlockingKey))
	require.NotNil(t, out.PriceAmountNorm)
	assert.Equal(t, 30.0, *out.PriceAmountNorm)
	assert.Equal(t, "USD", out.PriceCurrency)

	p := DefaultPolicy()
	p.Commerce = PreferPrimary
	out, _ = newMerger(p).Merge(&primary, matched(&secondary, models.MatchBlockingKey))
	assert.Equal(t, 12.5, *out.PriceAmountNorm)
	assert.Equal(t, "EUR", out.PriceCurrency)
}

func TestSingleton(t *testing.T) {
	rec := models.SourceRecord{Source: "googlebooks", Title: "Unpaired", ISBN13: "9780201616224"}
	out, prov := newMerger(DefaultPolicy()).Singleton(&rec)

	assert.Equal(t, "9780201616224", out.BookID)
	assert.Equal(t, "googlebooks", out.WinningSource)
	assert.Equal(t, models.MatchNone, out.MatchMethod)
	assert.Equal(t, SidePrimary, prov.Winner)
	assert.Empty(t, out.Authors)
	assert.NotNil(t, out.Authors)
}

func TestMergeIgnoresCandidateWhenUnmatched(t *testing.T) {
	primary := models.SourceRecord{Source: "goodreads", Title: "Alone"}
	other := models.SourceRecord{Source: "googlebooks", Title: "Other", Publisher: "Nope"}

	out, _ := newMerger(DefaultPolicy()).Merge(&primary, models.MatchResult{Method: models.MatchNone, Candidate: &other})
	assert.Empty(t, out.Publisher)
	assert.Equal(t, models.MatchNone, out.MatchMethod)
}
