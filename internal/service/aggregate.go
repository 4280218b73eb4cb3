package service

import (
	"fmt"

	"github.com/godilite/victim-dashboards/internal/classify"
)

// Baseline maps each bucket to its reference population count.
type Baseline map[classify.Bucket]float64

// Validate checks that b covers exactly the buckets of order.
func (b Baseline) Validate(order []classify.Bucket) error {
	if len(b) != len(order) {
		return fmt.Errorf("%w: %d baseline buckets for %d categories", ErrBaselineMismatch, len(b), len(order))
	}
	for _, bucket := range order {
		v, ok := b[bucket]
		if !ok {
			return fmt.Errorf("%w: missing bucket %q", ErrBaselineMismatch, bucket)
		}
		if v < 0 {
			return fmt.Errorf("%w: negative count for %q", ErrBaselineMismatch, bucket)
		}
	}
	return nil
}

// Total sums every baseline count.
func (b Baseline) Total() float64 {
	var total float64
	for _, v := range b {
		total += v
	}
	return total
}

// Displayable returns ErrEmptySample when no record was counted.
func (s ComparisonSeries) Displayable() error {
	if s.Total == 0 {
		return ErrEmptySample
	}
	return nil
}

// Aggregate tallies classified records per bucket and converts the tallies and the baseline
// into percentages aligned to order. Excluded records and buckets outside order are not counted.
// A bucket with no records still appears with 0. An empty baseline yields a nil Baseline series.
func Aggregate(recs []classify.Classified, order []classify.Bucket, baseline Baseline) (ComparisonSeries, error) {
	if len(baseline) > 0 {
		if err := baseline.Validate(order); err != nil {
			return ComparisonSeries{}, err
		}
	}

	index := make(map[classify.Bucket]int, len(order))
	for i, b := range order {
		index[b] = i
	}

	out := ComparisonSeries{
		Buckets:  append([]classify.Bucket(nil), order...),
		Counts:   make([]int, len(order)),
		Observed: make([]float64, len(order)),
	}

	for _, r := range recs {
		if r.Excluded {
			continue
		}
		i, ok := index[r.Bucket]
		if !ok {
			continue
		}
		out.Counts[i]++
		out.Total++
	}

	if out.Total > 0 {
		for i, c := range out.Counts {
			out.Observed[i] = float64(c) / float64(out.Total) * 100
		}
	}

	if len(baseline) > 0 {
		out.Baseline = make([]float64, len(order))
		if total := baseline.Total(); total > 0 {
			for i, b := range order {
				out.Baseline[i] = baseline[b] / total * 100
			}
		}
	}

	return out, nil
}
