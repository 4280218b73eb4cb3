package service

import "github.com/godilite/victim-dashboards/internal/classify"

// ComparisonSeries holds the observed and baseline percentages, index-aligned to Buckets.
type ComparisonSeries struct {
	Buckets  []classify.Bucket
	Counts   []int
	Total    int
	Observed []float64
	// Baseline is nil when the dashboard has no reference population.
	Baseline []float64
}

// Labels returns the bucket labels as strings.
func (s ComparisonSeries) Labels() []string {
	out := make([]string, len(s.Buckets))
	for i, b := range s.Buckets {
		out[i] = string(b)
	}
	return out
}

// HideReason explains why a panel is hidden.
type HideReason string

const (
	ReasonNone        HideReason = ""
	ReasonNotFound    HideReason = "not_found"
	ReasonEmptySample HideReason = "empty_sample"
	ReasonLoadFailed  HideReason = "load_failed"
)

// Panel is the outcome of one dashboard load.
type Panel struct {
	Dashboard string
	Visible   bool
	Reason    HideReason
	Year      int
	Series    ComparisonSeries
	ChartID   string
}

// ServiceCategory is one service-record letter of the victim services dashboard.
type ServiceCategory struct {
	Code    string
	Title   string
	Detail  string
	Color   string
	Cases   int
	Percent float64
}

// ServiceSummary counts cases per service category.
type ServiceSummary struct {
	Visible        bool
	Reason         HideReason
	Year           int
	Cases          int
	ServiceRecords int
	Categories     []ServiceCategory
	ChartID        string
}
