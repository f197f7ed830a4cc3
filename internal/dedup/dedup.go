// Package dedup collapses residual duplicates in a canonical catalog: first
// records sharing a book_id, then records sharing a normalized title and
// main author.
package dedup

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/lehigh-university-libraries/bookmerge/internal/identity"
	"github.com/lehigh-university-libraries/bookmerge/internal/models"
	"github.com/lehigh-university-libraries/bookmerge/internal/normalize"
)

// Stats counts what each stage removed.
type Stats struct {
	Input int `json:"input" yaml:"input"`
	Exact int `json:"exact_collapses" yaml:"exact_collapses"`
	Fuzzy int `json:"fuzzy_collapses" yaml:"fuzzy_collapses"`
	// Collisions are exact collapses on a content-hash id, where unrelated
	// books may share a key.
	Collisions int `json:"identity_collisions" yaml:"identity_collisions"`
	Output     int `json:"output" yaml:"output"`
}

// Result is the deduplicated catalog. Redirects maps the book_id of every
// record removed by the fuzzy stage to the book_id of its survivor.
type Result struct {
	Records   []models.CanonicalRecord
	Redirects map[string]string
	Stats     Stats
}

// Deduplicate runs the exact-key stage and then the fuzzy stage. The input
// slice is not modified. Running it again on Result.Records removes nothing.
func Deduplicate(records []models.CanonicalRecord, resolver identity.Resolver) Result {
	res := Result{
		Redirects: make(map[string]string),
		Stats:     Stats{Input: len(records)},
	}

	exact := collapse(records, func(r *models.CanonicalRecord) string { return r.BookID }, mostComplete)
	for _, g := range exact {
		extra := len(g.members) - 1
		if extra == 0 {
			continue
		}
		res.Stats.Exact += extra
		if identity.IsHashKey(g.key) {
			res.Stats.Collisions += extra
			slog.Warn("Identity collision on content hash",
				"book_id", g.key,
				"members", len(g.members),
				"kept_title", g.survivor().Title,
				"kept_source", g.survivor().WinningSource)
		}
	}

	stage1 := survivors(exact)
	fuzzy := collapse(stage1, FuzzyKey, func(members []*models.CanonicalRecord) int {
		return isbnFirst(members, resolver)
	})
	for _, g := range fuzzy {
		if len(g.members) == 1 {
			continue
		}
		kept := g.survivor()
		res.Stats.Fuzzy += len(g.members) - 1
		for i, m := range g.members {
			if i != g.keep {
				res.Redirects[m.BookID] = kept.BookID
			}
		}
		slog.Debug("Collapsed near-duplicates", "key", g.key, "members", len(g.members), "kept", kept.BookID)
	}

	res.Records = survivors(fuzzy)
	res.Stats.Output = len(res.Records)
	return res
}

// FuzzyKey is the looser grouping key: match-form title and lowercase first
// author. Records without a usable title get no key and are never grouped.
func FuzzyKey(r *models.CanonicalRecord) string {
	title := normalize.MatchKey(r.Title)
	if title == "" {
		return ""
	}
	return title + "||" + strings.ToLower(normalize.FirstAuthor(r.Authors))
}

type group struct {
	key     string
	members []*models.CanonicalRecord
	keep    int
}

func (g *group) survivor() *models.CanonicalRecord { return g.members[g.keep] }

// collapse groups records by key in first-seen order. An empty key puts the
// record in a group of its own.
func collapse(records []models.CanonicalRecord, key func(*models.CanonicalRecord) string, choose func([]*models.CanonicalRecord) int) []*group {
	var groups []*group
	byKey := make(map[string]*group, len(records))
	for i := range records {
		r := &records[i]
		k := key(r)
		if k == "" {
			groups = append(groups, &group{members: []*models.CanonicalRecord{r}})
			continue
		}
		g, ok := byKey[k]
		if !ok {
			g = &group{key: k}
			byKey[k] = g
			groups = append(groups, g)
		}
		g.members = append(g.members, r)
	}
	for _, g := range groups {
		if len(g.members) > 1 {
			g.keep = choose(g.members)
		}
	}
	return groups
}

func survivors(groups []*group) []models.CanonicalRecord {
	out := make([]models.CanonicalRecord, 0, len(groups))
	for _, g := range groups {
		r := *g.survivor()
		r.Authors = slices.Clone(r.Authors)
		r.Categories = slices.Clone(r.Categories)
		out = append(out, r)
	}
	return out
}

// mostComplete picks the highest non-null count; ties keep the earliest.
func mostComplete(members []*models.CanonicalRecord) int {
	best, bestScore := 0, members[0].NonNullCount()
	for i := 1; i < len(members); i++ {
		if s := members[i].NonNullCount(); s > bestScore {
			best, bestScore = i, s
		}
	}
	return best
}

// isbnFirst keeps the first member carrying a valid ISBN-13, falling back to
// mostComplete when none does.
func isbnFirst(members []*models.CanonicalRecord, resolver identity.Resolver) int {
	for i, m := range members {
		if resolver.ISBN13(m.ISBN13) != "" {
			return i
		}
	}
	return mostComplete(members)
}
