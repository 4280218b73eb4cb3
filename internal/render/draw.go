package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Format is the image encoding of a rendered chart.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat accepts "png" or "svg"; empty means png.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatPNG, nil
	}
	if _, err := f.provider(); err != nil {
		return "", err
	}
	return f, nil
}

func (f Format) provider() (chart.RendererProvider, error) {
	switch f {
	case FormatPNG, "":
		return chart.PNG, nil
	case FormatSVG:
		return chart.SVG, nil
	default:
		return nil, fmt.Errorf("unsupported image format %q", f)
	}
}

const (
	dimAlpha  = 0x66
	semiAlpha = 0xCC
	fontSize  = 10.0
)

var (
	axisColor  = drawing.ColorFromHex("9e9e9e")
	labelColor = drawing.ColorFromHex("333333")
)

func parseColor(hex string, fallback drawing.Color) drawing.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 && len(hex) != 3 {
		return fallback
	}
	return drawing.ColorFromHex(hex)
}

func fallbackColor(i int) drawing.Color {
	return chart.GetDefaultColor(i)
}

// elementColor applies the hover emphasis: the highlighted element stays opaque, the others are dimmed.
// With nothing highlighted every element gets the resting alpha.
func elementColor(base drawing.Color, i, highlight int, resting uint8) drawing.Color {
	switch {
	case highlight < 0:
		return base.WithAlpha(resting)
	case i == highlight:
		return base.WithAlpha(0xFF)
	default:
		return base.WithAlpha(dimAlpha)
	}
}

type painter struct {
	r chart.Renderer
}

func (p painter) box(b chart.Box, fill drawing.Color) {
	p.r.SetFillColor(fill)
	p.r.SetStrokeColor(fill)
	p.r.SetStrokeWidth(0)
	p.r.MoveTo(b.Left, b.Top)
	p.r.LineTo(b.Right, b.Top)
	p.r.LineTo(b.Right, b.Bottom)
	p.r.LineTo(b.Left, b.Bottom)
	p.r.Close()
	p.r.Fill()
}

func (p painter) line(x1, y1, x2, y2 int, color drawing.Color) {
	p.r.SetStrokeColor(color)
	p.r.SetStrokeWidth(1)
	p.r.MoveTo(x1, y1)
	p.r.LineTo(x2, y2)
	p.r.Stroke()
}

func (p painter) text(s string, x, y int, color drawing.Color) {
	p.r.SetFontColor(color)
	p.r.SetFontSize(fontSize)
	p.r.Text(s, x, y)
}

func (p painter) textRight(s string, right, y int, color drawing.Color) {
	p.r.SetFontSize(fontSize)
	w := p.r.MeasureText(s).Width()
	p.text(s, right-w, y, color)
}

func (p painter) legend(x, y int, entries []string, colors []drawing.Color) {
	for i, name := range entries {
		p.box(chart.Box{Top: y, Left: x, Right: x + 12, Bottom: y + 12}, colors[i])
		p.text(name, x+16, y+10, labelColor)
		p.r.SetFontSize(fontSize)
		x += 16 + p.r.MeasureText(name).Width() + 18
	}
}

// draw writes the binding to w with the element at highlight emphasized (-1 for none).
func draw(w io.Writer, format Format, b Binding, g geometry, highlight, width, height int) error {
	provider, err := format.provider()
	if err != nil {
		return err
	}
	r, err := provider(width, height)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("load font: %w", err)
	}
	r.SetFont(font)

	p := painter{r: r}
	p.box(chart.Box{Top: 0, Left: 0, Right: width, Bottom: height}, drawing.ColorWhite)

	switch geo := g.(type) {
	case barGeometry:
		drawBars(p, b, geo, highlight)
	case pieGeometry:
		drawPie(p, b, geo, highlight, width)
	default:
		return fmt.Errorf("unsupported geometry %T", g)
	}

	return r.Save(w)
}

func drawBars(p painter, b Binding, g barGeometry, highlight int) {
	axisMax := 100.0
	for _, s := range b.Series {
		for _, v := range s.Values {
			axisMax = math.Max(axisMax, v)
		}
	}

	names := make([]string, len(b.Series))
	colors := make([]drawing.Color, len(b.Series))
	for i, s := range b.Series {
		names[i] = s.Name
		colors[i] = parseColor(s.Color, fallbackColor(i))
	}
	p.legend(g.plot.Left, outerPadding/2, names, colors)

	for tick := 0.0; tick <= axisMax; tick += 25 {
		x := g.plot.Left + int(tick/axisMax*float64(g.plot.Width()))
		p.line(x, g.plot.Top, x, g.plot.Bottom, axisColor.WithAlpha(0x40))
		p.text(fmt.Sprintf("%.0f%%", tick), x-8, g.plot.Bottom+16, labelColor)
	}
	p.line(g.plot.Left, g.plot.Top, g.plot.Left, g.plot.Bottom, axisColor)

	bandH := g.bandHeight()
	barH := bandH * 0.8 / float64(len(b.Series))
	for i, label := range b.Labels {
		top := g.bandTop(i) + bandH*0.1
		for j, s := range b.Series {
			y0 := int(top + float64(j)*barH)
			y1 := int(top + float64(j+1)*barH)
			x1 := g.plot.Left + int(s.Values[i]/axisMax*float64(g.plot.Width()))
			if x1 > g.plot.Left {
				p.box(chart.Box{Top: y0, Left: g.plot.Left, Right: x1, Bottom: y1}, elementColor(colors[j], i, highlight, 0xFF))
			}
		}
		_, cy := g.center(i)
		p.textRight(label, g.plot.Left-6, int(cy)+4, labelColor)
	}
}

func drawPie(p painter, b Binding, g pieGeometry, highlight, width int) {
	colors := make([]drawing.Color, len(b.Labels))
	for i := range b.Labels {
		c := ""
		if i < len(b.Palette) {
			c = b.Palette[i]
		}
		colors[i] = parseColor(c, fallbackColor(i))
	}

	cx, cy := int(g.cx), int(g.cy)
	for i, s := range g.slices {
		if s.delta <= 0 {
			continue
		}
		p.r.SetFillColor(elementColor(colors[i], i, highlight, semiAlpha))
		p.r.SetStrokeColor(drawing.ColorWhite)
		p.r.SetStrokeWidth(1)
		if s.delta >= 2*math.Pi-1e-9 {
			p.r.Circle(g.radius, cx, cy)
			p.r.FillStroke()
			continue
		}
		p.r.MoveTo(cx, cy)
		p.r.ArcTo(cx, cy, g.radius, g.radius, s.start, s.delta)
		p.r.LineTo(cx, cy)
		p.r.Close()
		p.r.FillStroke()
	}

	x := int(g.cx+g.radius) + 2*outerPadding
	if x > width-100 {
		x = width - 100
	}
	y := legendHeight
	for i, label := range b.Labels {
		p.box(chart.Box{Top: y, Left: x, Right: x + 12, Bottom: y + 12}, colors[i])
		p.text(label, x+16, y+10, labelColor)
		y += 20
	}
	if len(b.Series) > 0 {
		p.text(b.Series[0].Name, x, outerPadding+4, labelColor)
	}
}
