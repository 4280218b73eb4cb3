package render

import (
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
)

const (
	legendHeight = 36
	axisHeight   = 28
	outerPadding = 16
)

// geometry maps pointer positions to category indexes. Drawing uses the same geometry.
type geometry interface {
	hitTest(x, y float64) (int, bool)
	center(i int) (float64, float64)
}

type barGeometry struct {
	plot  chart.Box
	width int
	bands int
}

func newBarGeometry(n, width, height int) barGeometry {
	left := width / 3
	if left > 320 {
		left = 320
	}
	return barGeometry{
		plot: chart.Box{
			Top:    legendHeight,
			Left:   left,
			Right:  width - outerPadding,
			Bottom: height - axisHeight,
		},
		width: width,
		bands: n,
	}
}

func (g barGeometry) bandHeight() float64 {
	if g.bands == 0 {
		return 0
	}
	return float64(g.plot.Height()) / float64(g.bands)
}

func (g barGeometry) bandTop(i int) float64 {
	return float64(g.plot.Top) + float64(i)*g.bandHeight()
}

func (g barGeometry) center(i int) (float64, float64) {
	x := float64(g.plot.Left+g.plot.Right) / 2
	return x, g.bandTop(i) + g.bandHeight()/2
}

// hitTest returns the category whose band center is nearest on the vertical axis.
// Only the vertical extent of the plot bounds the match, so the label column counts.
func (g barGeometry) hitTest(x, y float64) (int, bool) {
	if g.bands == 0 {
		return -1, false
	}
	if x < 0 || x > float64(g.width) ||
		y < float64(g.plot.Top) || y > float64(g.plot.Bottom) {
		return -1, false
	}
	best, bestD := -1, math.MaxFloat64
	for i := 0; i < g.bands; i++ {
		_, cy := g.center(i)
		if d := math.Abs(y - cy); d < bestD {
			best, bestD = i, d
		}
	}
	return best, best >= 0
}

type slice struct {
	start, delta float64
}

type pieGeometry struct {
	cx, cy float64
	radius float64
	slices []slice
}

func newPieGeometry(values []float64, width, height int) pieGeometry {
	plotW := float64(width) * 0.6
	plotH := float64(height - legendHeight)
	radius := math.Min(plotW, plotH)/2 - outerPadding
	if radius < 1 {
		radius = 1
	}

	g := pieGeometry{
		cx:     plotW / 2,
		cy:     float64(legendHeight) + plotH/2,
		radius: radius,
		slices: make([]slice, len(values)),
	}

	var total float64
	for _, v := range values {
		total += v
	}
	if total <= 0 {
		return g
	}

	var acc float64
	for i, v := range values {
		g.slices[i] = slice{start: acc, delta: v / total * 2 * math.Pi}
		acc += g.slices[i].delta
	}
	return g
}

// center returns the middle of slice i at two thirds of the radius.
func (g pieGeometry) center(i int) (float64, float64) {
	if i < 0 || i >= len(g.slices) {
		return g.cx, g.cy
	}
	s := g.slices[i]
	a := s.start + s.delta/2
	return g.cx + math.Cos(a)*g.radius*2/3, g.cy + math.Sin(a)*g.radius*2/3
}

// hitTest returns the slice containing the pointer. Angles grow clockwise on screen from 3 o'clock.
func (g pieGeometry) hitTest(x, y float64) (int, bool) {
	dx, dy := x-g.cx, y-g.cy
	if math.Hypot(dx, dy) > g.radius {
		return -1, false
	}
	a := math.Atan2(dy, dx)
	if a < 0 {
		a += 2 * math.Pi
	}
	for i, s := range g.slices {
		if s.delta > 0 && a >= s.start && a < s.start+s.delta {
			return i, true
		}
	}
	return -1, false
}

func newGeometry(b Binding, width, height int) geometry {
	if b.Layout == LayoutPie {
		return newPieGeometry(b.Series[0].Values, width, height)
	}
	return newBarGeometry(len(b.Labels), width, height)
}
