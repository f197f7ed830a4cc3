// Package matching links primary records to at most one secondary record,
// first by ISBN-13 and then by a normalized title and first-author blocking
// key.
package matching

import (
	"context"
	"strings"

	"github.com/lehigh-university-libraries/bookmerge/internal/identity"
	"github.com/lehigh-university-libraries/bookmerge/internal/models"
	"github.com/lehigh-university-libraries/bookmerge/internal/normalize"
	"golang.org/x/sync/errgroup"
)

type bucket struct {
	first int // position of the first secondary record with this key
	count int
}

// Index is a read-only lookup over the secondary records. Build it once per
// run with NewIndex; it is safe for concurrent Match calls afterwards.
type Index struct {
	records  []models.SourceRecord
	byISBN13 map[string]*bucket
	byKey    map[string]*bucket
	resolver identity.Resolver
}

// NewIndex indexes secondary records by validated ISBN-13 and by blocking
// key. When several records share a key the earliest one in input order is
// the candidate.
func NewIndex(secondary []models.SourceRecord, resolver identity.Resolver) *Index {
	idx := &Index{
		records:  secondary,
		byISBN13: make(map[string]*bucket, len(secondary)),
		byKey:    make(map[string]*bucket, len(secondary)),
		resolver: resolver,
	}
	for i := range secondary {
		if isbn := resolver.ISBN13(secondary[i].ISBN13); isbn != "" {
			add(idx.byISBN13, isbn, i)
		}
		if key := BlockingKey(&secondary[i]); key != "" {
			add(idx.byKey, key, i)
		}
	}
	return idx
}

func add(m map[string]*bucket, key string, pos int) {
	if b, ok := m[key]; ok {
		b.count++
		return
	}
	m[key] = &bucket{first: pos, count: 1}
}

// Len is the number of indexed secondary records.
func (idx *Index) Len() int { return len(idx.records) }

// Record returns the secondary record at a position.
func (idx *Index) Record(pos int) *models.SourceRecord { return &idx.records[pos] }

// BlockingKey is matchTitle + "||" + lower(first author). It is empty when
// either half is missing.
func BlockingKey(r *models.SourceRecord) string {
	title := r.MatchTitle
	author := strings.ToLower(normalize.FirstAuthor(r.Authors))
	if title == "" || author == "" {
		return ""
	}
	return title + "||" + author
}

// Match finds the secondary partner of a primary record. Candidate points
// into the index and must be treated as read-only.
func (idx *Index) Match(primary *models.SourceRecord) models.MatchResult {
	if isbn := idx.resolver.ISBN13(primary.ISBN13); isbn != "" {
		if b, ok := idx.byISBN13[isbn]; ok {
			return models.MatchResult{
				Matched:      true,
				Method:       models.MatchIdentifier,
				Candidate:    &idx.records[b.first],
				CandidatePos: b.first,
				Candidates:   b.count,
			}
		}
	}
	if key := BlockingKey(primary); key != "" {
		if b, ok := idx.byKey[key]; ok {
			return models.MatchResult{
				Matched:      true,
				Method:       models.MatchBlockingKey,
				Candidate:    &idx.records[b.first],
				CandidatePos: b.first,
				Candidates:   b.count,
			}
		}
	}
	return models.MatchResult{Method: models.MatchNone, CandidatePos: -1}
}

// MatchAll matches every primary record, spreading the work over at most
// workers goroutines. Results are in primary input order.
func MatchAll(ctx context.Context, primaries []models.SourceRecord, idx *Index, workers int) ([]models.MatchResult, error) {
	results := make([]models.MatchResult, len(primaries))
	if workers < 1 {
		workers = 1
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range primaries {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = idx.Match(&primaries[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
