// Package render draws comparison charts and keeps the hover state of every mounted chart.
package render

import (
	"errors"
	"fmt"
	"strings"
)

// Layout selects how a binding is drawn and hit-tested.
type Layout int

const (
	// LayoutBar draws horizontal grouped bars; hover picks the nearest category along the vertical axis.
	LayoutBar Layout = iota
	// LayoutPie draws the first series as slices; hover hit-tests the slice under the pointer.
	LayoutPie
)

func (l Layout) String() string {
	switch l {
	case LayoutBar:
		return "bar"
	case LayoutPie:
		return "pie"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// ParseLayout maps "bar" or "pie" to a Layout.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bar", "":
		return LayoutBar, nil
	case "pie":
		return LayoutPie, nil
	default:
		return 0, fmt.Errorf("unknown layout %q", s)
	}
}

// Series is one row of values aligned to the binding labels.
type Series struct {
	Name   string
	Values []float64
	// Color is a hex color such as "#007acc".
	Color string
}

// Binding is the data handed to the chart: ordered labels and aligned series.
type Binding struct {
	Layout Layout
	Labels []string
	Series []Series
	// Palette colors pie slices by label index. Bars use the series color.
	Palette []string
	// Details is optional descriptive text per label, published to the detail target on hover.
	Details []string
}

var ErrInvalidBinding = errors.New("invalid chart binding")

// Validate checks that every series is aligned to the labels.
func (b Binding) Validate() error {
	if len(b.Labels) == 0 {
		return fmt.Errorf("%w: no labels", ErrInvalidBinding)
	}
	if len(b.Series) == 0 {
		return fmt.Errorf("%w: no series", ErrInvalidBinding)
	}
	if b.Details != nil && len(b.Details) != len(b.Labels) {
		return fmt.Errorf("%w: %d details for %d labels", ErrInvalidBinding, len(b.Details), len(b.Labels))
	}
	for _, s := range b.Series {
		if len(s.Values) != len(b.Labels) {
			return fmt.Errorf("%w: series %q has %d values for %d labels", ErrInvalidBinding, s.Name, len(s.Values), len(b.Labels))
		}
		for _, v := range s.Values {
			if v < 0 {
				return fmt.Errorf("%w: series %q has a negative value", ErrInvalidBinding, s.Name)
			}
		}
	}
	return nil
}

// clone copies the slices of b so later edits by the caller do not leak into a mounted chart.
func (b Binding) clone() Binding {
	out := Binding{
		Layout:  b.Layout,
		Labels:  append([]string(nil), b.Labels...),
		Palette: append([]string(nil), b.Palette...),
		Details: append([]string(nil), b.Details...),
		Series:  make([]Series, len(b.Series)),
	}
	for i, s := range b.Series {
		out.Series[i] = Series{Name: s.Name, Color: s.Color, Values: append([]float64(nil), s.Values...)}
	}
	return out
}

// FormatPercent renders a percentage with two decimals and a trailing "%".
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}
