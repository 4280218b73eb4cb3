package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/godilite/victim-dashboards/internal/render"
)

var ErrUnknownDashboard = errors.New("unknown dashboard")

// ChartSurface is the interactive side of the renderer.
type ChartSurface interface {
	Hover(ctx context.Context, mount string, x, y float64) (render.HoverState, error)
	ImageFor(mount, chartID string, highlight int, format render.Format) ([]byte, error)
	Current(mount string) (*render.Chart, error)
	Highlight(mount string) int
	ReleaseAll()
}

// TargetReader reads back what was written to the display.
type TargetReader interface {
	Get(target string) render.TargetState
	Visible(target string) bool
}

// ReadoutState is a snapshot of a dashboard's panel and readout targets.
type ReadoutState struct {
	Dashboard string
	Visible   bool
	Targets   map[string]render.TargetState
}

// ChartRef identifies the rendered state of a mounted chart.
type ChartRef struct {
	ChartID   string
	Highlight int
}

// Hub addresses every configured dashboard by name.
type Hub struct {
	dashboards map[string]*Dashboard
	services   *ServicesDashboard
	surface    ChartSurface
	display    TargetReader
	logger     *zap.Logger
}

func NewHub(dashboards []*Dashboard, services *ServicesDashboard, surface ChartSurface, display TargetReader, logger *zap.Logger) *Hub {
	if surface == nil || display == nil {
		panic("hub surface and display must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	byName := make(map[string]*Dashboard, len(dashboards))
	for _, d := range dashboards {
		byName[d.Spec().Name] = d
	}
	return &Hub{
		dashboards: byName,
		services:   services,
		surface:    surface,
		display:    display,
		logger:     logger.Named("hub"),
	}
}

// Names lists the comparison dashboards in name order.
func (h *Hub) Names() []string {
	out := make([]string, 0, len(h.dashboards))
	for name := range h.dashboards {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (h *Hub) dashboard(name string) (*Dashboard, error) {
	d, ok := h.dashboards[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDashboard, name)
	}
	return d, nil
}

// mount returns the chart mount and panel of any dashboard, services included.
func (h *Hub) mount(name string) (mount, panel string, targets render.Targets, err error) {
	if h.services != nil && h.services.Spec().Name == name {
		s := h.services.Spec()
		return s.Mount, s.Panel, s.Targets, nil
	}
	d, err := h.dashboard(name)
	if err != nil {
		return "", "", render.Targets{}, err
	}
	s := d.Spec()
	return s.Mount, s.Panel, s.Targets, nil
}

// Load runs the pipeline of one dashboard.
func (h *Hub) Load(ctx context.Context, name string) (Panel, error) {
	d, err := h.dashboard(name)
	if err != nil {
		return Panel{Dashboard: name}, err
	}
	return d.Load(ctx)
}

// LoadAll loads every dashboard concurrently. Each dashboard owns its mount, so the
// loads are independent; the first error is returned after all have finished.
func (h *Hub) LoadAll(ctx context.Context) error {
	var g errgroup.Group
	for _, d := range h.dashboards {
		g.Go(func() error {
			_, err := d.Load(ctx)
			return err
		})
	}
	if h.services != nil {
		g.Go(func() error {
			_, err := h.services.Load(ctx)
			return err
		})
	}
	err := g.Wait()
	if err != nil {
		h.logger.Warn("dashboard load finished with errors", zap.Error(err))
	}
	return err
}

// Services returns the last services summary, loading it when it has never run.
func (h *Hub) Services(ctx context.Context) (ServiceSummary, error) {
	if h.services == nil {
		return ServiceSummary{}, fmt.Errorf("%w: services", ErrUnknownDashboard)
	}
	if last := h.services.Last(); last.Year != 0 || last.Visible {
		return last, nil
	}
	return h.services.Load(ctx)
}

// Hover forwards a pointer event to the chart of a dashboard.
func (h *Hub) Hover(ctx context.Context, name string, x, y float64) (render.HoverState, error) {
	mount, _, _, err := h.mount(name)
	if err != nil {
		return render.HoverState{Index: -1}, err
	}
	return h.surface.Hover(ctx, mount, x, y)
}

// ChartRef identifies what Image would currently draw for a dashboard.
func (h *Hub) ChartRef(name string) (ChartRef, error) {
	mount, _, _, err := h.mount(name)
	if err != nil {
		return ChartRef{}, err
	}
	c, err := h.surface.Current(mount)
	if err != nil {
		return ChartRef{}, err
	}
	return ChartRef{ChartID: c.ID(), Highlight: h.surface.Highlight(mount)}, nil
}

// Image renders the chart of a dashboard in the state ref names. It fails with
// render.ErrStaleChart once a redraw or pointer event has moved past ref.
func (h *Hub) Image(name string, ref ChartRef, format render.Format) ([]byte, error) {
	mount, _, _, err := h.mount(name)
	if err != nil {
		return nil, err
	}
	return h.surface.ImageFor(mount, ref.ChartID, ref.Highlight, format)
}

// Readout returns the panel visibility and readout targets of a dashboard.
func (h *Hub) Readout(name string) (ReadoutState, error) {
	_, panel, targets, err := h.mount(name)
	if err != nil {
		return ReadoutState{}, err
	}
	out := ReadoutState{
		Dashboard: name,
		Visible:   h.display.Visible(panel),
		Targets:   make(map[string]render.TargetState),
	}
	names := append([]string{targets.Label, targets.Detail}, targets.Values...)
	for _, t := range names {
		if t != "" {
			out.Targets[t] = h.display.Get(t)
		}
	}
	return out, nil
}

// Close releases every mounted chart.
func (h *Hub) Close() {
	h.surface.ReleaseAll()
	h.logger.Info("charts released")
}
