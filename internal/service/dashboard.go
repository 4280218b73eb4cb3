package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/godilite/victim-dashboards/internal/classify"
	"github.com/godilite/victim-dashboards/internal/dataset"
	"github.com/godilite/victim-dashboards/internal/render"
)

const (
	loadTimeout = 30 * time.Second
)

var (
	ErrResourceNotFound = dataset.ErrNotFound
	ErrEmptySample      = errors.New("no records survived classification")
	ErrFetchFailed      = errors.New("dataset fetch failed")
	ErrParseFailed      = errors.New("dataset parse failed")
	ErrBaselineMismatch = errors.New("baseline does not match bucket set")
)

// NotFoundPolicy decides what a missing dataset means for a dashboard.
type NotFoundPolicy int

const (
	// NotFoundFatal hides the panel and reports ErrResourceNotFound to the caller.
	NotFoundFatal NotFoundPolicy = iota
	// NotFoundEmpty hides the panel as a normal empty state.
	NotFoundEmpty
)

func (p NotFoundPolicy) String() string {
	if p == NotFoundEmpty {
		return "empty"
	}
	return "fatal"
}

// ParseNotFoundPolicy maps "fatal" or "empty" to a policy.
func ParseNotFoundPolicy(s string) (NotFoundPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fatal", "error":
		return NotFoundFatal, nil
	case "empty", "hide":
		return NotFoundEmpty, nil
	default:
		return 0, fmt.Errorf("unknown not-found policy %q", s)
	}
}

// DashboardSpec is one comparison dashboard: what to classify, what to compare it to and where to draw it.
type DashboardSpec struct {
	Name       string
	Panel      string
	Mount      string
	Classifier classify.Classifier
	Baseline   Baseline
	NotFound   NotFoundPolicy
	Layout     render.Layout
	Targets    render.Targets

	ObservedName  string
	ObservedColor string
	BaselineName  string
	BaselineColor string
	// Palette colors pie slices by bucket index.
	Palette []string
}

// Validate checks the spec before any load.
func (s DashboardSpec) Validate() error {
	if s.Name == "" || s.Mount == "" {
		return errors.New("dashboard name and mount are required")
	}
	if s.Classifier.Bucketer == nil {
		return fmt.Errorf("dashboard %q has no bucketer", s.Name)
	}
	if len(s.Baseline) > 0 {
		if err := s.Baseline.Validate(s.Classifier.Buckets()); err != nil {
			return fmt.Errorf("dashboard %q: %w", s.Name, err)
		}
	}
	return nil
}

// Dashboard runs the comparison pipeline for one spec and owns its panel visibility.
type Dashboard struct {
	spec     DashboardSpec
	resolver DatasetResolver
	parser   RowParser
	renderer ChartRenderer
	display  PanelDisplay
	logger   *zap.Logger

	mu   sync.Mutex
	last Panel
}

// NewDashboard creates a Dashboard. It panics when a collaborator is nil.
func NewDashboard(spec DashboardSpec, resolver DatasetResolver, parser RowParser, renderer ChartRenderer, display PanelDisplay, logger *zap.Logger) *Dashboard {
	if resolver == nil || parser == nil || renderer == nil || display == nil {
		panic("dashboard collaborators must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dashboard{
		spec:     spec,
		resolver: resolver,
		parser:   parser,
		renderer: renderer,
		display:  display,
		logger:   logger.Named("dashboard").With(zap.String("dashboard", spec.Name)),
		last:     Panel{Dashboard: spec.Name},
	}
}

func (d *Dashboard) Spec() DashboardSpec { return d.spec }

// Last returns the outcome of the most recent load.
func (d *Dashboard) Last() Panel {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// Load runs the pipeline: resolve the newest dataset, parse it, classify every row, aggregate
// against the baseline and draw. The panel is hidden, and nothing drawn, when no dataset exists
// or no row survives classification. The returned Panel is always usable; the error is non-nil
// only for a fatal not-found or a failed fetch/parse/draw.
func (d *Dashboard) Load(ctx context.Context) (Panel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	panel, err := d.load(ctx)
	d.last = panel
	return panel, err
}

func (d *Dashboard) load(ctx context.Context) (Panel, error) {
	res, err := d.resolver.Resolve(ctx)
	if err != nil {
		if errors.Is(err, dataset.ErrNotFound) {
			if d.spec.NotFound == NotFoundEmpty {
				d.logger.Info("no dataset found, hiding panel")
				return d.hide(ReasonNotFound, 0), nil
			}
			d.logger.Error("no dataset found", zap.Error(err))
			return d.hide(ReasonNotFound, 0), err
		}
		d.logger.Error("dataset resolution failed", zap.Error(err))
		return d.hide(ReasonLoadFailed, 0), fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	body, err := d.resolver.Open(ctx, res)
	if err != nil {
		d.logger.Error("dataset fetch failed", zap.Int("year", res.Year), zap.Error(err))
		return d.hide(ReasonLoadFailed, res.Year), fmt.Errorf("%w: %s: %v", ErrFetchFailed, res.Name, err)
	}
	defer body.Close()

	rows, err := d.parser.Parse(body)
	if err != nil {
		d.logger.Error("dataset parse failed", zap.Int("year", res.Year), zap.Error(err))
		return d.hide(ReasonLoadFailed, res.Year), fmt.Errorf("%w: %s: %v", ErrParseFailed, res.Name, err)
	}

	classified := d.spec.Classifier.ClassifyAll(rows)
	series, err := Aggregate(classified, d.spec.Classifier.Buckets(), d.spec.Baseline)
	if err != nil {
		d.logger.Error("aggregation failed", zap.Error(err))
		return d.hide(ReasonLoadFailed, res.Year), err
	}

	if err := series.Displayable(); err != nil {
		d.logger.Info("hiding panel", zap.Int("year", res.Year), zap.Int("rows", len(rows)), zap.Error(err))
		return d.hide(ReasonEmptySample, res.Year), nil
	}

	chart, err := d.renderer.Draw(d.spec.Mount, d.binding(series), d.spec.Targets)
	if err != nil {
		d.logger.Error("chart draw failed", zap.Error(err))
		return d.hide(ReasonLoadFailed, res.Year), fmt.Errorf("draw %s: %w", d.spec.Mount, err)
	}
	d.display.SetVisible(d.spec.Panel, true)

	d.logger.Info("dashboard loaded",
		zap.Int("year", res.Year),
		zap.Int("rows", len(rows)),
		zap.Int("classified", series.Total),
		zap.String("chart_id", chart.ID()))

	return Panel{
		Dashboard: d.spec.Name,
		Visible:   true,
		Year:      res.Year,
		Series:    series,
		ChartID:   chart.ID(),
	}, nil
}

// hide turns the panel off and drops any chart left from a previous load.
func (d *Dashboard) hide(reason HideReason, year int) Panel {
	d.display.SetVisible(d.spec.Panel, false)
	d.renderer.Release(d.spec.Mount)
	return Panel{Dashboard: d.spec.Name, Reason: reason, Year: year}
}

func (d *Dashboard) binding(s ComparisonSeries) render.Binding {
	b := render.Binding{
		Layout:  d.spec.Layout,
		Labels:  s.Labels(),
		Palette: d.spec.Palette,
		Series: []render.Series{{
			Name:   nonEmpty(d.spec.ObservedName, "Victims"),
			Values: s.Observed,
			Color:  d.spec.ObservedColor,
		}},
	}
	if s.Baseline != nil {
		b.Series = append(b.Series, render.Series{
			Name:   nonEmpty(d.spec.BaselineName, "Population"),
			Values: s.Baseline,
			Color:  d.spec.BaselineColor,
		})
	}
	return b
}

func nonEmpty(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
