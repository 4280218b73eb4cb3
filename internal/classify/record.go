package classify

import "strings"

// Column names consumed from the victim spreadsheets.
const (
	ColumnAge            = "Victim age"
	ColumnGender         = "Gender"
	ColumnEthnicity      = "Ethnicity"
	ColumnCaseID         = "Case ID"
	ColumnServiceRecords = "service records"
)

// Record is one spreadsheet row keyed by column header.
type Record map[string]string

// Field returns the raw value of a column, or "" when the column is absent.
func (r Record) Field(name string) string {
	if r == nil {
		return ""
	}
	return r[name]
}

// Trimmed returns the column value without surrounding whitespace.
func (r Record) Trimmed(name string) string {
	return strings.TrimSpace(r.Field(name))
}

// Bucket is one label of an ordered classification scheme.
type Bucket string

// Classified pairs a record with its bucket. Excluded records carry an empty bucket.
type Classified struct {
	Record   Record
	Bucket   Bucket
	Excluded bool
}
