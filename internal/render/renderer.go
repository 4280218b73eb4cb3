package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNoChart is returned when nothing is mounted on a target.
	ErrNoChart = errors.New("no chart mounted")
	// ErrChartReleased is returned when a chart was destroyed by a reload or teardown.
	ErrChartReleased = errors.New("chart released")
	// ErrStaleChart is returned by ImageFor when the mount no longer shows the requested state.
	ErrStaleChart = errors.New("chart state changed")
)

const (
	defaultWidth  = 800
	defaultHeight = 400
)

// Chart is one mounted chart instance.
type Chart struct {
	id        string
	mount     string
	binding   Binding
	targets   Targets
	geom      geometry
	width     int
	height    int
	highlight int
	released  bool
}

// ID identifies this instance; a redraw on the same mount gets a new ID.
func (c *Chart) ID() string { return c.id }

func (c *Chart) Mount() string { return c.mount }

// Binding returns a copy of the bound data.
func (c *Chart) Binding() Binding { return c.binding.clone() }

// Center returns the pointer position at the middle of element i.
func (c *Chart) Center(i int) (float64, float64) { return c.geom.center(i) }

// HoverState is the result of one pointer event.
type HoverState struct {
	ChartID string
	// Index is -1 when no category is under the pointer.
	Index  int
	Label  string
	Values []string
	Color  string
}

// Active reports whether a category is under the pointer.
func (h HoverState) Active() bool { return h.Index >= 0 }

type Options struct {
	width   int
	height  int
	readout *Readout
	logger  *zap.Logger
}

type Option func(*Options)

func WithSize(width, height int) Option {
	return func(o *Options) {
		o.width = width
		o.height = height
	}
}

func WithReadout(r *Readout) Option {
	return func(o *Options) { o.readout = r }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) { o.logger = logger }
}

// Renderer owns the chart mounted on each target. Drawing on a mount destroys
// the previous chart first, so a reload never leaves a stale series or readout behind.
type Renderer struct {
	mu      sync.Mutex
	charts  map[string]*Chart
	readout *Readout
	width   int
	height  int
	logger  *zap.Logger
}

func NewRenderer(opts ...Option) *Renderer {
	options := &Options{
		width:  defaultWidth,
		height: defaultHeight,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.width <= 0 || options.height <= 0 {
		options.width, options.height = defaultWidth, defaultHeight
	}
	if options.logger == nil {
		options.logger = zap.NewNop()
	}
	if options.readout == nil {
		options.readout = NewReadout(NewBoard(), 0)
	}

	return &Renderer{
		charts:  make(map[string]*Chart),
		readout: options.readout,
		width:   options.width,
		height:  options.height,
		logger:  options.logger.Named("renderer"),
	}
}

// Draw mounts a new chart for b on mount, releasing any chart already there.
func (r *Renderer) Draw(mount string, b Binding, targets Targets) (*Chart, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.releaseLocked(mount)

	bound := b.clone()
	c := &Chart{
		id:        uuid.NewString(),
		mount:     mount,
		binding:   bound,
		targets:   Targets{Label: targets.Label, Values: append([]string(nil), targets.Values...), Detail: targets.Detail},
		geom:      newGeometry(bound, r.width, r.height),
		width:     r.width,
		height:    r.height,
		highlight: -1,
	}
	r.charts[mount] = c

	r.logger.Debug("chart drawn",
		zap.String("mount", mount),
		zap.String("chart_id", c.id),
		zap.Stringer("layout", bound.Layout),
		zap.Int("categories", len(bound.Labels)))
	return c, nil
}

func (r *Renderer) releaseLocked(mount string) {
	prev, ok := r.charts[mount]
	if !ok {
		return
	}
	prev.released = true
	delete(r.charts, mount)
	r.readout.Clear(prev.targets)
	r.logger.Debug("chart released", zap.String("mount", mount), zap.String("chart_id", prev.id))
}

// Release destroys the chart on mount and clears its readouts.
func (r *Renderer) Release(mount string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releaseLocked(mount)
}

// ReleaseAll destroys every chart. Used on teardown.
func (r *Renderer) ReleaseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for mount := range r.charts {
		r.releaseLocked(mount)
	}
}

// Current returns the chart mounted on mount.
func (r *Renderer) Current(mount string) (*Chart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.charts[mount]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoChart, mount)
	}
	return c, nil
}

// Hover handles one pointer event over the chart on mount. When a category is found its
// label and values are published to the readout targets and it is highlighted; otherwise
// the readouts are cleared and the uniform styling restored.
func (r *Renderer) Hover(ctx context.Context, mount string, x, y float64) (HoverState, error) {
	r.mu.Lock()
	c, ok := r.charts[mount]
	if !ok {
		r.mu.Unlock()
		return HoverState{Index: -1}, fmt.Errorf("%w: %s", ErrNoChart, mount)
	}
	return r.hoverLocked(ctx, c, x, y)
}

// HoverChart is Hover addressed to a specific instance, which may have been released.
func (r *Renderer) HoverChart(ctx context.Context, c *Chart, x, y float64) (HoverState, error) {
	r.mu.Lock()
	return r.hoverLocked(ctx, c, x, y)
}

// hoverLocked is entered with r.mu held and returns with it released. The readout fade
// runs unlocked so other mounts are not held up by it.
func (r *Renderer) hoverLocked(ctx context.Context, c *Chart, x, y float64) (HoverState, error) {
	if c.released {
		r.mu.Unlock()
		return HoverState{ChartID: c.id, Index: -1}, fmt.Errorf("%w: %s", ErrChartReleased, c.id)
	}

	idx, ok := c.geom.hitTest(x, y)
	if !ok {
		c.highlight = -1
		r.readout.Clear(c.targets)
		r.mu.Unlock()
		return HoverState{ChartID: c.id, Index: -1}, nil
	}

	state := HoverState{
		ChartID: c.id,
		Index:   idx,
		Label:   c.binding.Labels[idx],
		Values:  make([]string, len(c.binding.Series)),
	}
	texts := make(map[string]string, len(c.binding.Series)+2)
	if c.targets.Label != "" {
		texts[c.targets.Label] = state.Label
	}
	if c.targets.Detail != "" && idx < len(c.binding.Details) {
		texts[c.targets.Detail] = c.binding.Details[idx]
	}
	for i, s := range c.binding.Series {
		state.Values[i] = FormatPercent(s.Values[idx])
		if i < len(c.targets.Values) && c.targets.Values[i] != "" {
			texts[c.targets.Values[i]] = state.Values[i]
		}
	}
	if c.binding.Layout == LayoutPie && idx < len(c.binding.Palette) {
		state.Color = c.binding.Palette[idx]
	}
	c.highlight = idx
	valueTargets := c.targets.Values
	r.mu.Unlock()

	if err := r.readout.Fade(ctx, texts); err != nil {
		return state, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c.released {
		return state, fmt.Errorf("%w: %s", ErrChartReleased, c.id)
	}
	// A later pointer event owns the readout now.
	if c.highlight != idx {
		return state, nil
	}
	r.readout.Write(texts)
	if state.Color != "" {
		r.readout.Color(state.Color, valueTargets...)
	}
	return state, nil
}

type snapshot struct {
	id        string
	binding   Binding
	geom      geometry
	highlight int
	width     int
	height    int
}

func (r *Renderer) snapshot(mount string) (snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.charts[mount]
	if !ok {
		return snapshot{}, fmt.Errorf("%w: %s", ErrNoChart, mount)
	}
	return snapshot{id: c.id, binding: c.binding, geom: c.geom, highlight: c.highlight, width: c.width, height: c.height}, nil
}

func (s snapshot) render(mount string, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := draw(&buf, format, s.binding, s.geom, s.highlight, s.width, s.height); err != nil {
		return nil, fmt.Errorf("render %s: %w", mount, err)
	}
	return buf.Bytes(), nil
}

// Image renders the chart on mount with its current highlight.
func (r *Renderer) Image(mount string, format Format) ([]byte, error) {
	snap, err := r.snapshot(mount)
	if err != nil {
		return nil, err
	}
	return snap.render(mount, format)
}

// ImageFor renders the chart on mount only while it is still the instance chartID with
// the given highlight. It returns ErrStaleChart otherwise, so an image never outlives the
// state it was requested for.
func (r *Renderer) ImageFor(mount, chartID string, highlight int, format Format) ([]byte, error) {
	snap, err := r.snapshot(mount)
	if err != nil {
		return nil, err
	}
	if snap.id != chartID || snap.highlight != highlight {
		return nil, fmt.Errorf("%w: %s: want %s/%d, have %s/%d", ErrStaleChart, mount, chartID, highlight, snap.id, snap.highlight)
	}
	return snap.render(mount, format)
}

// Highlight returns the highlighted element of the chart on mount, or -1.
func (r *Renderer) Highlight(mount string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.charts[mount]; ok {
		return c.highlight
	}
	return -1
}
