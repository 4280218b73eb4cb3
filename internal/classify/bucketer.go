package classify

import (
	"fmt"
	"strconv"
	"strings"
)

// Dimension names the demographic field a bucketer reads.
type Dimension string

const (
	DimensionAge       Dimension = "age"
	DimensionEthnicity Dimension = "ethnicity"
	DimensionGender    Dimension = "gender"
)

// Bucketer maps a surviving record to one bucket of an ordered scheme.
// The set of implementations is closed: AgeBands, EthnicityRules and GenderPrefixes.
type Bucketer interface {
	Dimension() Dimension
	// Buckets returns the display order of the scheme.
	Buckets() []Bucket
	// Bucket returns false when the record falls outside the scheme.
	Bucket(rec Record) (Bucket, bool)

	sealed()
}

// Age bands.
const (
	Age20to29 Bucket = "20–29"
	Age30to39 Bucket = "30–39"
	Age40to49 Bucket = "40–49"
	Age50to59 Bucket = "50–59"
	Age60Plus Bucket = "60+"
)

// AgeBands buckets the parsed victim age into five ten-year bands. Ages under 20 are excluded.
type AgeBands struct{}

func (AgeBands) Dimension() Dimension { return DimensionAge }

func (AgeBands) Buckets() []Bucket {
	return []Bucket{Age20to29, Age30to39, Age40to49, Age50to59, Age60Plus}
}

func (AgeBands) Bucket(rec Record) (Bucket, bool) {
	age, ok := ParseLeadingInt(rec.Field(ColumnAge))
	if !ok {
		return "", false
	}
	return AgeBand(age)
}

func (AgeBands) sealed() {}

// AgeBand maps an integer age to its band.
func AgeBand(age int) (Bucket, bool) {
	switch {
	case age >= 60:
		return Age60Plus, true
	case age >= 50:
		return Age50to59, true
	case age >= 40:
		return Age40to49, true
	case age >= 30:
		return Age30to39, true
	case age >= 20:
		return Age20to29, true
	default:
		return "", false
	}
}

// ParseLeadingInt reads an optional sign followed by decimal digits and ignores the rest,
// so "34 years" and "34.8" both give 34.
func ParseLeadingInt(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Ethnicity groups.
const (
	EthnicityHispanic        Bucket = "Hispanic or Latino"
	EthnicityWhite           Bucket = "White"
	EthnicityBlack           Bucket = "Black or African American"
	EthnicityAsian           Bucket = "Asian"
	EthnicityAmericanIndian  Bucket = "American Indian and Alaska Native"
	EthnicityPacificIslander Bucket = "Native Hawaiian and Other Pacific Islander"
)

// EthnicityRule matches when the lower-cased ethnicity text contains any of Substrings.
type EthnicityRule struct {
	Bucket     Bucket
	Substrings []string
}

func (r EthnicityRule) matches(text string) bool {
	for _, sub := range r.Substrings {
		if strings.Contains(text, sub) {
			return true
		}
	}
	return false
}

// DefaultEthnicityRules returns the evaluation order used by the ethnicity dashboard.
func DefaultEthnicityRules() []EthnicityRule {
	return []EthnicityRule{
		{Bucket: EthnicityWhite, Substrings: []string{"white"}},
		{Bucket: EthnicityBlack, Substrings: []string{"black"}},
		{Bucket: EthnicityAsian, Substrings: []string{"asian"}},
		{Bucket: EthnicityHispanic, Substrings: []string{"hispanic", "latino"}},
		{Bucket: EthnicityAmericanIndian, Substrings: []string{"american indian", "alaska"}},
		{Bucket: EthnicityPacificIslander, Substrings: []string{"hawaiian", "pacific"}},
	}
}

// DefaultEthnicityOrder is the display order of the ethnicity groups.
func DefaultEthnicityOrder() []Bucket {
	return []Bucket{
		EthnicityHispanic,
		EthnicityWhite,
		EthnicityBlack,
		EthnicityAsian,
		EthnicityAmericanIndian,
		EthnicityPacificIslander,
	}
}

// EthnicityRules buckets free-text ethnicity by testing Rules in order; the first match wins.
type EthnicityRules struct {
	Rules []EthnicityRule
	Order []Bucket
}

// NewEthnicityRules validates that every rule targets a bucket of order.
func NewEthnicityRules(rules []EthnicityRule, order []Bucket) (EthnicityRules, error) {
	known := make(map[Bucket]struct{}, len(order))
	for _, b := range order {
		known[b] = struct{}{}
	}
	for _, r := range rules {
		if _, ok := known[r.Bucket]; !ok {
			return EthnicityRules{}, fmt.Errorf("ethnicity rule targets unknown bucket %q", r.Bucket)
		}
		if len(r.Substrings) == 0 {
			return EthnicityRules{}, fmt.Errorf("ethnicity rule %q has no substrings", r.Bucket)
		}
	}
	return EthnicityRules{Rules: rules, Order: order}, nil
}

func (EthnicityRules) Dimension() Dimension { return DimensionEthnicity }

func (e EthnicityRules) Buckets() []Bucket {
	return append([]Bucket(nil), e.Order...)
}

func (e EthnicityRules) Bucket(rec Record) (Bucket, bool) {
	text := strings.ToLower(rec.Field(ColumnEthnicity))
	for _, r := range e.Rules {
		if r.matches(text) {
			return r.Bucket, true
		}
	}
	return "", false
}

func (EthnicityRules) sealed() {}

// Gender buckets.
const (
	GenderMale   Bucket = "Male"
	GenderFemale Bucket = "Female"
	GenderOther  Bucket = "Other / Unknown"
)

// GenderPrefixes buckets by the first letter of the gender field. It never excludes.
type GenderPrefixes struct{}

func (GenderPrefixes) Dimension() Dimension { return DimensionGender }

func (GenderPrefixes) Buckets() []Bucket {
	return []Bucket{GenderMale, GenderFemale, GenderOther}
}

func (GenderPrefixes) Bucket(rec Record) (Bucket, bool) {
	g := strings.ToLower(rec.Field(ColumnGender))
	switch {
	case strings.HasPrefix(g, "m"):
		return GenderMale, true
	case strings.HasPrefix(g, "f"):
		return GenderFemale, true
	default:
		return GenderOther, true
	}
}

func (GenderPrefixes) sealed() {}

// NewBucketer returns the default bucketer of a dimension.
func NewBucketer(d Dimension) (Bucketer, error) {
	switch d {
	case DimensionAge:
		return AgeBands{}, nil
	case DimensionEthnicity:
		return NewEthnicityRules(DefaultEthnicityRules(), DefaultEthnicityOrder())
	case DimensionGender:
		return GenderPrefixes{}, nil
	default:
		return nil, fmt.Errorf("unknown dimension %q", d)
	}
}
