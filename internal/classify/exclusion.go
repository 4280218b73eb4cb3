package classify

import (
	"fmt"
	"strings"
)

// ExclusionRule decides whether a row describes a business rather than a person.
//
// Two definitions exist across the dashboards and they disagree: the age and gender
// dashboards drop a row only when both fields are missing, the ethnicity dashboard drops
// it when either one is. Each dashboard picks its rule explicitly.
type ExclusionRule int

const (
	// ExcludeBothMissing drops rows whose gender is blank and whose age is blank or N/A.
	ExcludeBothMissing ExclusionRule = iota
	// ExcludeEitherMissing drops rows whose gender is blank or whose age is blank or N/A.
	ExcludeEitherMissing
)

func (r ExclusionRule) String() string {
	switch r {
	case ExcludeBothMissing:
		return "both-missing"
	case ExcludeEitherMissing:
		return "either-missing"
	default:
		return fmt.Sprintf("ExclusionRule(%d)", int(r))
	}
}

// ParseExclusionRule maps the configuration spelling of a rule to its value.
func ParseExclusionRule(s string) (ExclusionRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "both-missing", "both":
		return ExcludeBothMissing, nil
	case "either-missing", "either":
		return ExcludeEitherMissing, nil
	default:
		return 0, fmt.Errorf("unknown exclusion rule %q", s)
	}
}

// IsBusiness reports whether rec must be left out of demographic classification.
func (r ExclusionRule) IsBusiness(rec Record) bool {
	ageMissing := isMissingAge(rec.Field(ColumnAge))
	genderBlank := rec.Trimmed(ColumnGender) == ""

	if r == ExcludeEitherMissing {
		return ageMissing || genderBlank
	}
	return ageMissing && genderBlank
}

func isMissingAge(raw string) bool {
	v := strings.ToUpper(strings.TrimSpace(raw))
	return v == "" || v == "N/A" || v == "NA"
}
