package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/godilite/victim-dashboards/internal/classify"
	"github.com/godilite/victim-dashboards/internal/render"
)

// DefaultServiceCategories lists the service-record letters in display order.
func DefaultServiceCategories() []ServiceCategory {
	return []ServiceCategory{
		{Code: "A", Title: "Information and Referral", Color: "#2196f3",
			Detail: "Info about victim rights, justice process, and referrals."},
		{Code: "B", Title: "Personal Advocacy / Accompaniment", Color: "#4caf50",
			Detail: "Advocacy during interviews, help with public benefits, interpreter services, immigration help."},
		{Code: "C", Title: "Emotional Support or Safety Services", Color: "#ff9800",
			Detail: "Crisis counseling, community response, emergency financial help, support groups."},
		{Code: "D", Title: "Shelter / Housing Services", Color: "#e91e63",
			Detail: "Emergency shelter, relocation help, transitional housing."},
		{Code: "E", Title: "Criminal / Civil Justice System Assistance", Color: "#9c27b0",
			Detail: "Updates on legal events, court support, restitution help, legal guidance."},
	}
}

// SummarizeServices counts, for every category, the cases that received it. Rows whose
// case ID does not start with an integer are access-restricted and skipped. Percent is
// relative to the number of cases, so categories may sum past 100.
func SummarizeServices(rows []classify.Record, categories []ServiceCategory) ServiceSummary {
	out := ServiceSummary{Categories: make([]ServiceCategory, len(categories))}
	copy(out.Categories, categories)
	for i := range out.Categories {
		out.Categories[i].Cases = 0
		out.Categories[i].Percent = 0
	}

	for _, row := range rows {
		if _, ok := classify.ParseLeadingInt(row.Trimmed(classify.ColumnCaseID)); !ok {
			continue
		}
		out.Cases++
		out.ServiceRecords += serviceRecords(row.Trimmed(classify.ColumnServiceRecords))
		for i, c := range out.Categories {
			if strings.EqualFold(row.Trimmed(c.Code), "yes") {
				out.Categories[i].Cases++
			}
		}
	}

	if out.Cases > 0 {
		for i, c := range out.Categories {
			out.Categories[i].Percent = float64(c.Cases) / float64(out.Cases) * 100
		}
	}
	return out
}

// serviceRecords reads a numeric cell; anything unparseable counts as zero.
func serviceRecords(raw string) int {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0
	}
	return int(v)
}

// ServicesSpec configures the victim services dashboard.
type ServicesSpec struct {
	Name       string
	Panel      string
	Mount      string
	NotFound   NotFoundPolicy
	Categories []ServiceCategory
	Targets    render.Targets
}

// ServicesDashboard loads the newest services dataset and draws the category pie.
type ServicesDashboard struct {
	spec     ServicesSpec
	resolver DatasetResolver
	parser   RowParser
	renderer ChartRenderer
	display  PanelDisplay
	logger   *zap.Logger

	mu   sync.Mutex
	last ServiceSummary
}

func NewServicesDashboard(spec ServicesSpec, resolver DatasetResolver, parser RowParser, renderer ChartRenderer, display PanelDisplay, logger *zap.Logger) *ServicesDashboard {
	if resolver == nil || parser == nil || renderer == nil || display == nil {
		panic("services dashboard collaborators must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(spec.Categories) == 0 {
		spec.Categories = DefaultServiceCategories()
	}
	return &ServicesDashboard{
		spec:     spec,
		resolver: resolver,
		parser:   parser,
		renderer: renderer,
		display:  display,
		logger:   logger.Named("services").With(zap.String("dashboard", spec.Name)),
	}
}

func (d *ServicesDashboard) Spec() ServicesSpec { return d.spec }

// Last returns the most recent summary.
func (d *ServicesDashboard) Last() ServiceSummary {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// Load resolves, parses and summarizes the newest dataset, then draws the pie.
func (d *ServicesDashboard) Load(ctx context.Context) (ServiceSummary, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	summary, err := d.load(ctx)
	d.last = summary
	return summary, err
}

func (d *ServicesDashboard) load(ctx context.Context) (ServiceSummary, error) {
	res, err := d.resolver.Resolve(ctx)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
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

	summary := SummarizeServices(rows, d.spec.Categories)
	summary.Year = res.Year

	var served int
	for _, c := range summary.Categories {
		served += c.Cases
	}
	if summary.Cases == 0 || served == 0 {
		d.logger.Info("empty sample, hiding panel", zap.Int("year", res.Year), zap.Int("rows", len(rows)))
		hidden := d.hide(ReasonEmptySample, res.Year)
		hidden.Cases = summary.Cases
		hidden.ServiceRecords = summary.ServiceRecords
		hidden.Categories = summary.Categories
		return hidden, nil
	}

	chart, err := d.renderer.Draw(d.spec.Mount, servicesBinding(summary), d.spec.Targets)
	if err != nil {
		d.logger.Error("chart draw failed", zap.Error(err))
		return d.hide(ReasonLoadFailed, res.Year), fmt.Errorf("draw %s: %w", d.spec.Mount, err)
	}
	d.display.SetVisible(d.spec.Panel, true)

	summary.Visible = true
	summary.ChartID = chart.ID()
	d.logger.Info("services loaded",
		zap.Int("year", res.Year),
		zap.Int("cases", summary.Cases),
		zap.Int("service_records", summary.ServiceRecords),
		zap.String("chart_id", chart.ID()))
	return summary, nil
}

func (d *ServicesDashboard) hide(reason HideReason, year int) ServiceSummary {
	d.display.SetVisible(d.spec.Panel, false)
	d.renderer.Release(d.spec.Mount)
	return ServiceSummary{Reason: reason, Year: year}
}

func servicesBinding(s ServiceSummary) render.Binding {
	b := render.Binding{
		Layout:  render.LayoutPie,
		Labels:  make([]string, len(s.Categories)),
		Palette: make([]string, len(s.Categories)),
		Details: make([]string, len(s.Categories)),
		Series:  []render.Series{{Name: "Cases", Values: make([]float64, len(s.Categories))}},
	}
	for i, c := range s.Categories {
		b.Labels[i] = c.Title
		b.Palette[i] = c.Color
		b.Details[i] = c.Detail
		b.Series[0].Values[i] = c.Percent
	}
	return b
}
