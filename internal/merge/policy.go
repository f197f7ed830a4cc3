package merge

import "fmt"

// Preference decides which side wins a field when both sides have a value.
type Preference string

const (
	PreferPrimary      Preference = "preferPrimary"
	PreferSecondary    Preference = "preferSecondary"
	PreferMostComplete Preference = "preferMostComplete"
)

// Preferences lists the recognized options.
var Preferences = []Preference{PreferPrimary, PreferSecondary, PreferMostComplete}

// ParsePreference validates a configured option name.
func ParsePreference(s string) (Preference, error) {
	for _, p := range Preferences {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown survivorship preference %q (supported: preferPrimary, preferSecondary, preferMostComplete)", s)
}

// Field names a survivorship-governed field.
type Field string

const (
	FieldTitle     Field = "title"
	FieldSubtitle  Field = "subtitle"
	FieldPublisher Field = "publisher"
	FieldPubDate   Field = "pub_date"
	FieldLanguage  Field = "language"
	FieldRating    Field = "rating"
	FieldPrice     Field = "price"
	FieldURL       Field = "url"
)

// Side identifies which input supplied a value.
type Side int

const (
	SideNone Side = iota
	SidePrimary
	SideSecondary
)

func (s Side) String() string {
	switch s {
	case SidePrimary:
		return "primary"
	case SideSecondary:
		return "secondary"
	}
	return "none"
}

// Contribution is what one side offers for a field: whether it has a value,
// and how complete it is for preferMostComplete comparisons.
type Contribution struct {
	Present      bool
	Completeness int
}

// Policy is the survivorship rule set. Descriptive covers title, subtitle,
// publisher, publication date, language and ratings; Commerce covers the
// price amount and currency, which always travel together; Links covers
// the record URL.
type Policy struct {
	Descriptive Preference `yaml:"descriptive" validate:"oneof=preferPrimary preferSecondary preferMostComplete"`
	Commerce    Preference `yaml:"commerce" validate:"oneof=preferPrimary preferSecondary preferMostComplete"`
	Links       Preference `yaml:"links" validate:"oneof=preferPrimary preferSecondary preferMostComplete"`
}

// DefaultPolicy keeps the scraped source as the descriptive authority and
// takes commerce data and links from whichever side is more complete.
func DefaultPolicy() Policy {
	return Policy{
		Descriptive: PreferPrimary,
		Commerce:    PreferMostComplete,
		Links:       PreferMostComplete,
	}
}

// Validate rejects unknown preference names.
func (p Policy) Validate() error {
	fields := []struct {
		name string
		pref Preference
	}{
		{"descriptive", p.Descriptive},
		{"commerce", p.Commerce},
		{"links", p.Links},
	}
	for _, f := range fields {
		if _, err := ParsePreference(string(f.pref)); err != nil {
			return fmt.Errorf("survivorship.%s: %w", f.name, err)
		}
	}
	return nil
}

func (p Policy) preferenceFor(f Field) Preference {
	switch f {
	case FieldPrice:
		return p.Commerce
	case FieldURL:
		return p.Links
	}
	return p.Descriptive
}

// Choose maps the two sides' contributions for a field to the surviving side.
// A side with a value always beats a side without one. When both have one
// the field's preference decides; preferMostComplete breaks ties toward the
// primary side.
func (p Policy) Choose(f Field, primary, secondary Contribution) Side {
	switch {
	case primary.Present && !secondary.Present:
		return SidePrimary
	case !primary.Present && secondary.Present:
		return SideSecondary
	case !primary.Present && !secondary.Present:
		return SideNone
	}

	switch p.preferenceFor(f) {
	case PreferSecondary:
		return SideSecondary
	case PreferMostComplete:
		if secondary.Completeness > primary.Completeness {
			return SideSecondary
		}
	}
	return SidePrimary
}
