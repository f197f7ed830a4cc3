package matching

import (
	"context"
	"fmt"
	"testing"

	"github.com/lehigh-university-libraries/bookmerge/internal/identity"
	"github.com/lehigh-university-libraries/bookmerge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(title, author, isbn13 string) models.SourceRecord {
	r := models.SourceRecord{Title: title, MatchTitle: title, ISBN13: isbn13}
	if author != "" {
		r.Authors = []string{author}
	}
	return r
}

func TestBlockingKey(t *testing.T) {
	r := rec("fluent python", "Luciano Ramalho", "")
	assert.Equal(t, "fluent python||luciano ramalho", BlockingKey(&r))

	noAuthor := rec("fluent python", "", "")
	assert.Empty(t, BlockingKey(&noAuthor))

	noTitle := rec("", "Luciano Ramalho", "")
	assert.Empty(t, BlockingKey(&noTitle))
}

func TestMatchIdentifierFirst(t *testing.T) {
	secondary := []models.SourceRecord{
		rec("fluent python", "Luciano Ramalho", ""),
		rec("something else", "Other", "9781491946008"),
	}
	idx := NewIndex(secondary, identity.Resolver{})
	primary := rec("fluent python", "Luciano Ramalho", "978-1-4919-4600-8")
	primary.ISBN13 = "9781491946008"

	got := idx.Match(&primary)

	require.True(t, got.Matched)
	assert.Equal(t, models.MatchIdentifier, got.Method)
	assert.Equal(t, 1, got.CandidatePos)
	assert.Same(t, idx.Record(1), got.Candidate)
	assert.Equal(t, 1, got.Candidates)
}

func TestMatchBlockingKey(t *testing.T) {
	secondary := []models.SourceRecord{
		rec("refactoring", "Kent Beck", ""),
		rec("refactoring", "Martin Fowler", ""),
	}
	idx := NewIndex(secondary, identity.Resolver{})

	primary := rec("refactoring", "martin fowler", "9780000000000")
	got := idx.Match(&primary)

	require.True(t, got.Matched)
	assert.Equal(t, models.MatchBlockingKey, got.Method)
	assert.Equal(t, 1, got.CandidatePos)
}

func TestMatchAmbiguousTakesFirst(t *testing.T) {
	secondary := []models.SourceRecord{
		rec("other", "Someone", ""),
		rec("dune", "Frank Herbert", ""),
		rec("dune", "Frank Herbert", ""),
		rec("dune", "Frank Herbert", ""),
	}
	idx := NewIndex(secondary, identity.Resolver{})

	primary := rec("dune", "Frank Herbert", "")
	got := idx.Match(&primary)

	require.True(t, got.Matched)
	assert.Equal(t, 1, got.CandidatePos)
	assert.Equal(t, 3, got.Candidates)
}

func TestMatchNone(t *testing.T) {
	idx := NewIndex([]models.SourceRecord{rec("dune", "Frank Herbert", "")}, identity.Resolver{})

	tests := []models.SourceRecord{
		rec("dune", "", ""),
		rec("", "", ""),
		rec("dune messiah", "Frank Herbert", ""),
		rec("x", "y", "97804410"),
	}
	for _, p := range tests {
		got := idx.Match(&p)
		assert.False(t, got.Matched)
		assert.Equal(t, models.MatchNone, got.Method)
		assert.Nil(t, got.Candidate)
		assert.Equal(t, -1, got.CandidatePos)
	}
}

func TestMatchIgnoresInvalidSecondaryISBN(t *testing.T) {
	idx := NewIndex([]models.SourceRecord{rec("a", "b", "978-bad")}, identity.Resolver{})
	p := rec("c", "d", "978-bad")
	assert.False(t, idx.Match(&p).Matched)
}

func TestMatchAllPreservesOrder(t *testing.T) {
	var secondary, primaries []models.SourceRecord
	for i := 0; i < 200; i++ {
		secondary = append(secondary, rec(fmt.Sprintf("book %d", i), "Author", ""))
	}
	for i := 199; i >= 0; i-- {
		primaries = append(primaries, rec(fmt.Sprintf("book %d", i), "author", ""))
	}
	idx := NewIndex(secondary, identity.Resolver{})

	results, err := MatchAll(context.Background(), primaries, idx, 8)
	require.NoError(t, err)
	require.Len(t, results, len(primaries))
	for i, r := range results {
		require.True(t, r.Matched)
		assert.Equal(t, 199-i, r.CandidatePos)
	}
	assert.Equal(t, 200, idx.Len())
}

func TestMatchAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	idx := NewIndex(nil, identity.Resolver{})

	_, err := MatchAll(ctx, []models.SourceRecord{rec("a", "b", "")}, idx, 2)
	assert.ErrorIs(t, err, context.Canceled)
}
