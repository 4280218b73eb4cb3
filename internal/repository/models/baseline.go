package models

// BaselineRow is one reference population count of a dashboard bucket.
type BaselineRow struct {
	Dashboard string
	Bucket    string
	Count     float64
}
