package normalize

import (
	"testing"

	"github.com/lehigh-university-libraries/bookmerge/internal/raw"
	"github.com/stretchr/testify/assert"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		in   raw.Value
		want string
	}{
		{raw.String("  Fluent   Python "), "Fluent Python"},
		{raw.String(`"Dune"`), "Dune"},
		{raw.String("“Neuromancer”"), "Neuromancer"},
		{raw.String(`'"Nested"'`), "Nested"},
		{raw.String("It's Complicated"), "It's Complicated"},
		{raw.String("nan"), ""},
		{raw.Missing(), ""},
		{raw.Number(1984), "1984"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Title(tt.in), "input %q", tt.in.Text())
	}
}

func TestMatchKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"The Pragmatic Programmer", "the pragmatic programmer"},
		{"  Cien años de soledad!  ", "cien anos de soledad"},
		{"Harry Potter & the Goblet", "harry potter the goblet"},
		{"L'Étranger", "letranger"},
		{"Deep Learning: A Practitioner's Approach", "deep learning a practitioners approach"},
		{"", ""},
		{"???", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchKey(tt.in), "input %q", tt.in)
	}
	assert.Equal(t, MatchKey("FLUENT PYTHON"), MatchTitle(raw.String("Fluent Python")))
}

func TestSplitTitleAndSubtitle(t *testing.T) {
	tests := []struct {
		name         string
		title, sub   string
		wantTitle    string
		wantSubtitle string
	}{
		{"colon", "Deep Learning: A Practitioner's Approach", "", "Deep Learning", "A Practitioner's Approach"},
		{"en dash", "Dune – Book One", "", "Dune", "Book One"},
		{"first separator only", "A: B: C", "", "A", "B: C"},
		{"explicit subtitle wins", "Clean Code: Ignored", "A Handbook", "Clean Code: Ignored", "A Handbook"},
		{"no separator", "Refactoring", "", "Refactoring", ""},
		{"hyphen is not a separator", "Data-Intensive Apps", "", "Data-Intensive Apps", ""},
		{"empty title", "", "Orphan", "", ""},
		{"leading colon", ": odd", "", ": odd", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, sub := SplitTitleAndSubtitle(tt.title, tt.sub)
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantSubtitle, sub)
		})
	}
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "O'Reilly", titleCase("o'reilly"))
	assert.Equal(t, "J.R.R. Tolkien", titleCase("j.r.r. tolkien"))
	assert.Equal(t, "Addison-Wesley", titleCase("addison-wesley"))
	assert.Equal(t, "Gabriel García Márquez", titleCase("GABRIEL GARCÍA MÁRQUEZ"))
}
