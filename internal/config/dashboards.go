package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/godilite/victim-dashboards/internal/classify"
	"github.com/godilite/victim-dashboards/internal/dataset"
	"github.com/godilite/victim-dashboards/internal/render"
	"github.com/godilite/victim-dashboards/internal/service"
)

var ErrInvalidDashboard = errors.New("invalid dashboard configuration")

// Dashboards is the dashboards file.
type Dashboards struct {
	Dashboards []DashboardConfig `yaml:"dashboards"`
	Services   *ServicesConfig   `yaml:"services,omitempty"`
}

// DatasetConfig names the yearly dataset files: <prefix><separator><year>.xlsx.
type DatasetConfig struct {
	Prefix    string `yaml:"prefix"`
	Separator string `yaml:"separator"`
}

func (d DatasetConfig) Naming() dataset.Naming {
	return dataset.Naming{Prefix: d.Prefix, Separator: d.Separator}
}

type TargetsConfig struct {
	Label  string   `yaml:"label"`
	Values []string `yaml:"values"`
	Detail string   `yaml:"detail,omitempty"`
}

func (t TargetsConfig) targets() render.Targets {
	return render.Targets{Label: t.Label, Values: append([]string(nil), t.Values...), Detail: t.Detail}
}

type ColorsConfig struct {
	Observed string   `yaml:"observed"`
	Baseline string   `yaml:"baseline"`
	Palette  []string `yaml:"palette,omitempty"`
}

type EthnicityRuleConfig struct {
	Bucket string   `yaml:"bucket"`
	Match  []string `yaml:"match"`
}

// DashboardConfig is one comparison dashboard as written in the dashboards file.
type DashboardConfig struct {
	Name      string             `yaml:"name"`
	Panel     string             `yaml:"panel"`
	Mount     string             `yaml:"mount"`
	Dimension string             `yaml:"dimension"`
	Exclusion string             `yaml:"exclusion"`
	NotFound  string             `yaml:"not_found"`
	Layout    string             `yaml:"layout"`
	Dataset   DatasetConfig      `yaml:"dataset"`
	Baseline  map[string]float64 `yaml:"baseline,omitempty"`
	Colors    ColorsConfig       `yaml:"colors"`
	Targets   TargetsConfig      `yaml:"targets"`
	// EthnicityRules overrides the evaluation order of the ethnicity substring rules.
	EthnicityRules []EthnicityRuleConfig `yaml:"ethnicity_rules,omitempty"`
}

// ServicesConfig is the victim services dashboard.
type ServicesConfig struct {
	Name     string        `yaml:"name"`
	Panel    string        `yaml:"panel"`
	Mount    string        `yaml:"mount"`
	NotFound string        `yaml:"not_found"`
	Dataset  DatasetConfig `yaml:"dataset"`
	Targets  TargetsConfig `yaml:"targets"`
}

func (c DashboardConfig) bucketer() (classify.Bucketer, error) {
	dim := classify.Dimension(c.Dimension)
	if dim != classify.DimensionEthnicity || len(c.EthnicityRules) == 0 {
		return classify.NewBucketer(dim)
	}
	rules := make([]classify.EthnicityRule, len(c.EthnicityRules))
	for i, r := range c.EthnicityRules {
		rules[i] = classify.EthnicityRule{Bucket: classify.Bucket(r.Bucket), Substrings: r.Match}
	}
	return classify.NewEthnicityRules(rules, classify.DefaultEthnicityOrder())
}

// Spec converts the file form into a validated DashboardSpec.
func (c DashboardConfig) Spec() (service.DashboardSpec, error) {
	wrap := func(err error) error {
		return fmt.Errorf("%w: %s: %w", ErrInvalidDashboard, c.Name, err)
	}

	bucketer, err := c.bucketer()
	if err != nil {
		return service.DashboardSpec{}, wrap(err)
	}
	exclusion, err := classify.ParseExclusionRule(c.Exclusion)
	if err != nil {
		return service.DashboardSpec{}, wrap(err)
	}
	notFound, err := service.ParseNotFoundPolicy(c.NotFound)
	if err != nil {
		return service.DashboardSpec{}, wrap(err)
	}
	layout, err := render.ParseLayout(c.Layout)
	if err != nil {
		return service.DashboardSpec{}, wrap(err)
	}

	var baseline service.Baseline
	if len(c.Baseline) > 0 {
		baseline = make(service.Baseline, len(c.Baseline))
		for k, v := range c.Baseline {
			baseline[classify.Bucket(k)] = v
		}
	}

	spec := service.DashboardSpec{
		Name:          c.Name,
		Panel:         c.Panel,
		Mount:         c.Mount,
		Classifier:    classify.New(exclusion, bucketer),
		Baseline:      baseline,
		NotFound:      notFound,
		Layout:        layout,
		Targets:       c.Targets.targets(),
		ObservedName:  "Victims",
		ObservedColor: c.Colors.Observed,
		BaselineName:  "Population",
		BaselineColor: c.Colors.Baseline,
		Palette:       append([]string(nil), c.Colors.Palette...),
	}
	if err := spec.Validate(); err != nil {
		return service.DashboardSpec{}, wrap(err)
	}
	return spec, nil
}

// Spec converts the file form into a ServicesSpec with the default categories.
func (c ServicesConfig) Spec() (service.ServicesSpec, error) {
	notFound, err := service.ParseNotFoundPolicy(c.NotFound)
	if err != nil {
		return service.ServicesSpec{}, fmt.Errorf("%w: %s: %v", ErrInvalidDashboard, c.Name, err)
	}
	if c.Name == "" || c.Mount == "" {
		return service.ServicesSpec{}, fmt.Errorf("%w: services name and mount are required", ErrInvalidDashboard)
	}
	return service.ServicesSpec{
		Name:       c.Name,
		Panel:      c.Panel,
		Mount:      c.Mount,
		NotFound:   notFound,
		Categories: service.DefaultServiceCategories(),
		Targets:    c.Targets.targets(),
	}, nil
}

// LoadDashboards reads the dashboards file at path. An empty path yields the built-in dashboards.
func LoadDashboards(path string) (*Dashboards, error) {
	if path == "" {
		return DefaultDashboards(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dashboards file: %w", err)
	}
	var out Dashboards
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidDashboard, path, err)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate checks every dashboard and rejects duplicate names.
func (d *Dashboards) Validate() error {
	seen := make(map[string]struct{}, len(d.Dashboards)+1)
	for _, c := range d.Dashboards {
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("%w: duplicate dashboard %q", ErrInvalidDashboard, c.Name)
		}
		seen[c.Name] = struct{}{}
		if _, err := c.Spec(); err != nil {
			return err
		}
	}
	if d.Services != nil {
		if _, ok := seen[d.Services.Name]; ok {
			return fmt.Errorf("%w: duplicate dashboard %q", ErrInvalidDashboard, d.Services.Name)
		}
		if _, err := d.Services.Spec(); err != nil {
			return err
		}
	}
	return nil
}

const (
	victimColor     = "#007acc"
	populationColor = "#ff9800"
	demographics    = "victim_demographics"
)

// DefaultDashboards reproduces the age, ethnicity, gender and services dashboards.
func DefaultDashboards() *Dashboards {
	return &Dashboards{
		Dashboards: []DashboardConfig{
			{
				Name:      "age",
				Panel:     "panelVictimAge",
				Mount:     "victimAgeChart",
				Dimension: string(classify.DimensionAge),
				Exclusion: classify.ExcludeBothMissing.String(),
				NotFound:  "fatal",
				Layout:    "bar",
				Dataset:   DatasetConfig{Prefix: demographics, Separator: "_"},
				Baseline: map[string]float64{
					string(classify.Age20to29): 26169,
					string(classify.Age30to39): 25065,
					string(classify.Age40to49): 20257,
					string(classify.Age50to59): 19196,
					string(classify.Age60Plus): 35773,
				},
				Colors:  ColorsConfig{Observed: victimColor, Baseline: populationColor},
				Targets: TargetsConfig{Label: "hoverVAgeLabel", Values: []string{"hoverVAgeVict", "hoverVAgePop"}},
			},
			{
				Name:      "ethnicity",
				Panel:     "panelVictimEthnicity",
				Mount:     "victimEthChart",
				Dimension: string(classify.DimensionEthnicity),
				Exclusion: classify.ExcludeEitherMissing.String(),
				NotFound:  "empty",
				Layout:    "bar",
				Dataset:   DatasetConfig{Prefix: demographics, Separator: ""},
				Baseline: map[string]float64{
					string(classify.EthnicityHispanic):        153027,
					string(classify.EthnicityWhite):           16813,
					string(classify.EthnicityBlack):           4362,
					string(classify.EthnicityAsian):           3049,
					string(classify.EthnicityAmericanIndian):  4266,
					string(classify.EthnicityPacificIslander): 165,
				},
				Colors:  ColorsConfig{Observed: victimColor, Baseline: populationColor},
				Targets: TargetsConfig{Label: "hoverVEthLabel", Values: []string{"hoverVEthVict", "hoverVEthPop"}},
			},
			{
				Name:      "gender",
				Panel:     "panelVictimGender",
				Mount:     "victimGenderPieChart",
				Dimension: string(classify.DimensionGender),
				Exclusion: classify.ExcludeBothMissing.String(),
				NotFound:  "fatal",
				Layout:    "pie",
				Dataset:   DatasetConfig{Prefix: demographics, Separator: "_"},
				// No reference split ships for gender; the pie shows the observed series only
				// until a baseline is configured here or in the baseline database.
				Colors: ColorsConfig{Palette: []string{"#2196f3", "#e91e63", "#9e9e9e"}},
				Targets:   TargetsConfig{Label: "hoverVGenderLabel", Values: []string{"hoverVGenderPct"}},
			},
		},
		Services: &ServicesConfig{
			Name:     "services",
			Panel:    "panelVictims",
			Mount:    "victimPieChart",
			NotFound: "fatal",
			Dataset:  DatasetConfig{Prefix: "victims", Separator: "_"},
			Targets:  TargetsConfig{Label: "victimDescTitle", Values: []string{"victimDescPct"}, Detail: "victimDescBox"},
		},
	}
}
