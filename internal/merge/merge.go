// Package merge builds one canonical record from a matched pair or an
// unmatched singleton using an explicit survivorship policy.
package merge

import (
	"time"

	"github.com/lehigh-university-libraries/bookmerge/internal/identity"
	"github.com/lehigh-university-libraries/bookmerge/internal/models"
	"github.com/lehigh-university-libraries/bookmerge/internal/normalize"
)

// Provenance explains a merge: which side won the descriptive fields, which
// side supplied each scalar field, and how many invalid ISBNs were dropped.
type Provenance struct {
	Winner       Side
	FieldSources map[Field]Side
	DroppedISBNs int
}

// Merger applies a Policy. Now stamps updated_at and defaults to time.Now.
type Merger struct {
	Policy   Policy
	Resolver identity.Resolver
	Now      func() time.Time
}

// New returns a Merger with the given policy and resolver.
func New(policy Policy, resolver identity.Resolver) *Merger {
	return &Merger{Policy: policy, Resolver: resolver, Now: time.Now}
}

// Singleton turns an unmatched record into a canonical record.
func (m *Merger) Singleton(rec *models.SourceRecord) (models.CanonicalRecord, Provenance) {
	return m.Merge(rec, models.MatchResult{Method: models.MatchNone, CandidatePos: -1})
}

// Merge combines primary with the match's candidate, if any. Neither input is
// modified; the returned slices are freshly allocated.
func (m *Merger) Merge(primary *models.SourceRecord, match models.MatchResult) (models.CanonicalRecord, Provenance) {
	secondary := match.Candidate
	if !match.Matched {
		secondary = nil
	}
	if secondary == nil {
		secondary = &models.SourceRecord{}
	}

	prov := Provenance{FieldSources: make(map[Field]Side, 8)}
	pc, sc := primary.Completeness(), secondary.Completeness()

	pick := func(f Field, a, b string) string {
		side := m.Policy.Choose(f,
			Contribution{Present: a != "", Completeness: pc},
			Contribution{Present: b != "", Completeness: sc})
		prov.FieldSources[f] = side
		if side == SideSecondary {
			return b
		}
		return a
	}

	out := models.CanonicalRecord{
		Title:        pick(FieldTitle, primary.Title, secondary.Title),
		Subtitle:     pick(FieldSubtitle, primary.Subtitle, secondary.Subtitle),
		Publisher:    pick(FieldPublisher, primary.Publisher, secondary.Publisher),
		PubDateNorm:  pick(FieldPubDate, primary.PubDate, secondary.PubDate),
		LanguageNorm: pick(FieldLanguage, primary.Language, secondary.Language),
		URL:          pick(FieldURL, primary.URL, secondary.URL),
		Authors:      normalize.Union(primary.Authors, secondary.Authors),
		Categories:   normalize.Union(primary.Categories, secondary.Categories),
		MatchMethod:  match.Method,
	}
	if out.MatchMethod == "" {
		out.MatchMethod = models.MatchNone
	}

	// Price and currency always come from the same side.
	price := m.Policy.Choose(FieldPrice,
		Contribution{Present: primary.PriceAmount != nil, Completeness: pc},
		Contribution{Present: secondary.PriceAmount != nil, Completeness: sc})
	prov.FieldSources[FieldPrice] = price
	switch price {
	case SidePrimary:
		out.PriceAmountNorm, out.PriceCurrency = copyFloat(primary.PriceAmount), primary.PriceCurrency
	case SideSecondary:
		out.PriceAmountNorm, out.PriceCurrency = copyFloat(secondary.PriceAmount), secondary.PriceCurrency
	}

	rating := m.Policy.Choose(FieldRating,
		Contribution{Present: primary.RatingValue != nil || primary.RatingCount != nil, Completeness: pc},
		Contribution{Present: secondary.RatingValue != nil || secondary.RatingCount != nil, Completeness: sc})
	prov.FieldSources[FieldRating] = rating
	switch rating {
	case SidePrimary:
		out.RatingValue, out.RatingCount = copyFloat(primary.RatingValue), copyInt(primary.RatingCount)
	case SideSecondary:
		out.RatingValue, out.RatingCount = copyFloat(secondary.RatingValue), copyInt(secondary.RatingCount)
	}

	out.ISBN13 = m.firstValid(m.Resolver.ISBN13, &prov, primary.ISBN13, secondary.ISBN13)
	out.ISBN10 = m.firstValid(m.Resolver.ISBN10, &prov, primary.ISBN10, secondary.ISBN10)

	prov.Winner = m.winner(primary, secondary, pc, sc)
	if prov.Winner == SideSecondary {
		out.WinningSource = secondary.Source
	} else {
		out.WinningSource = primary.Source
	}

	out.BookID = m.Resolver.Resolve(identity.Fields{
		ISBN13:    out.ISBN13,
		ISBN10:    out.ISBN10,
		Title:     out.Title,
		Authors:   out.Authors,
		Publisher: out.Publisher,
	})

	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	out.UpdatedAt = now().UTC()

	return out, prov
}

// winner is the side supplying the descriptive fields. A side without a
// title never beats one that has a title.
func (m *Merger) winner(primary, secondary *models.SourceRecord, pc, sc int) Side {
	side := m.Policy.Choose(FieldTitle,
		Contribution{Present: primary.Title != "", Completeness: pc},
		Contribution{Present: secondary.Title != "", Completeness: sc})
	if side != SideNone {
		return side
	}
	if secondary.Source != "" && sc > pc {
		return SideSecondary
	}
	return SidePrimary
}

// firstValid takes the first candidate accepted by validate, primary side
// first, and counts the non-empty ones it had to reject.
func (m *Merger) firstValid(validate func(string) string, prov *Provenance, candidates ...string) string {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if v := validate(c); v != "" {
			return v
		}
		prov.DroppedISBNs++
	}
	return ""
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func copyInt(i *int64) *int64 {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
