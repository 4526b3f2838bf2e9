// Package plan reads the YAML file describing which tables a report needs:
// code maps, checkbox groups, frailty tiers and output names.
package plan

import (
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	"analiseilpi/risk"
	"analiseilpi/table"
	"analiseilpi/transform"
	"gopkg.in/yaml.v3"
)

// ErrInvalidPlan wraps every validation failure.
var ErrInvalidPlan = errors.New("invalid plan")

// Analysis types.
const (
	Binary          = "binary"
	Labels          = "labels"
	MultiSelect     = "multiselect"
	MultiSelectDrop = "multiselect_drop"
	Count           = "count"
	Professionals   = "professionals"
	Morbidities     = "morbidities"
	Medications     = "medications"
	Risk            = "risk"
	Bins            = "bins"
	Mean            = "mean"
)

// defaultDecimals rounds means the way the reports print them.
const defaultDecimals = 1

// Plan is the content of a plan file.
type Plan struct {
	Name         string       `yaml:"name"`
	Source       Source       `yaml:"source"`
	Entity       Entity       `yaml:"entity"`
	NotInformed  string       `yaml:"not_informed"`
	NoneSelected string       `yaml:"none_selected"`
	Propagation  *Propagation `yaml:"propagation"`
	Analyses     []Analysis   `yaml:"analyses"`
}

// Source describes the REDCap CSV export.
type Source struct {
	Separator string `yaml:"separator"`
	Latin1    bool   `yaml:"latin1"`
}

// Entity names the column owning each row of the label tables.
type Entity struct {
	Column string `yaml:"column"`
	Name   string `yaml:"name"`
}

// Propagation fills the resident keys over the repeat instrument rows.
type Propagation struct {
	Discriminator string   `yaml:"discriminator"`
	Keys          []string `yaml:"keys"`
}

// Analysis is one output table.
type Analysis struct {
	Name          string         `yaml:"name"`
	Type          string         `yaml:"type"`
	Column        string         `yaml:"column"`
	Label         string         `yaml:"label"`
	Group         string         `yaml:"group"`
	Codes         Codes          `yaml:"codes"`
	Options       []Option       `yaml:"options"`
	Other         string         `yaml:"other"`
	Professionals []Professional `yaml:"professionals"`
	Risk          *RiskConfig    `yaml:"risk"`
	Bands         []BandConfig   `yaml:"bands"`
	Decimals      *int           `yaml:"decimals"`
}

// BandConfig is the range [min, max) of a bins analysis.
type BandConfig struct {
	Label string  `yaml:"label"`
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
}

// Option is one checkbox of a multi-select question.
type Option struct {
	Column string `yaml:"column"`
	Label  string `yaml:"label"`
}

// Professional is one staff category.
type Professional struct {
	Name  string `yaml:"name"`
	Count string `yaml:"count"`
	Days  string `yaml:"days"`
}

// RiskConfig configures the frailty classifier. Without tiers the default
// frailty tiers are used.
type RiskConfig struct {
	IncludeNoRisk *bool        `yaml:"include_no_risk"`
	NoRiskLabel   string       `yaml:"no_risk_label"`
	Aggregation   string       `yaml:"aggregation"`
	Entity        string       `yaml:"entity"`
	Group         string       `yaml:"group"`
	Carry         []string     `yaml:"carry"`
	Order         string       `yaml:"order"`
	Tiers         []TierConfig `yaml:"tiers"`
}

// TierConfig is one severity level, most severe first.
type TierConfig struct {
	Label      string            `yaml:"label"`
	Conditions []ConditionConfig `yaml:"conditions"`
}

// ConditionConfig is a predicate over one column. The set fields are
// combined: in: [3, 4] with max: 3 only matches 3.
type ConditionConfig struct {
	Column  string   `yaml:"column"`
	In      []int64  `yaml:"in"`
	NotIn   []int64  `yaml:"not_in"`
	Min     *float64 `yaml:"min"`
	Max     *float64 `yaml:"max"`
	Missing bool     `yaml:"missing"`
}

// Load reads and validates a plan file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading plan file(%s):%q", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a plan.
func Parse(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

var validName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Validate checks the plan before any table is read.
func (p *Plan) Validate() error {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}
	if p.Name != "" && !validName.MatchString(p.Name) {
		add("plan name %q must use letters, digits, _ or -", p.Name)
	}
	switch p.Source.Separator {
	case "", ",", ";":
	default:
		add("separator %q must be , or ;", p.Source.Separator)
	}
	if p.Propagation != nil && (p.Propagation.Discriminator == "" || len(p.Propagation.Keys) == 0) {
		add("propagation needs discriminator and keys")
	}
	if len(p.Analyses) == 0 {
		add("no analyses")
	}
	seen := map[string]bool{}
	for i, a := range p.Analyses {
		where := fmt.Sprintf("analysis %d (%s)", i+1, a.Name)
		if !validName.MatchString(a.Name) {
			add("%s: name must use letters, digits, _ or -", where)
		}
		for _, out := range a.outputs() {
			if seen[out] {
				add("%s: duplicated name, %s.csv is written by another analysis", where, out)
			}
			seen[out] = true
		}
		for _, msg := range a.problems() {
			add("%s: %s", where, msg)
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidPlan, strings.Join(problems, "; "))
	}
	return nil
}

func (a Analysis) problems() []string {
	var out []string
	switch a.Type {
	case Binary, Labels:
		if a.Column == "" || len(a.Codes) == 0 {
			out = append(out, "needs column and codes")
		}
	case MultiSelect, MultiSelectDrop:
		if len(a.Options) == 0 {
			out = append(out, "needs options")
		}
	case Count:
		if a.Column == "" {
			out = append(out, "needs column")
		}
	case Professionals:
		if len(a.Professionals) == 0 {
			out = append(out, "needs professionals")
		}
		for _, p := range a.Professionals {
			if p.Name == "" || p.Count == "" || p.Days == "" {
				out = append(out, "professionals need name, count and days")
				break
			}
		}
	case Morbidities:
		if len(a.Options) == 0 || a.Other == "" {
			out = append(out, "needs options and other")
		}
	case Medications:
	case Bins:
		if a.Column == "" || len(a.Bands) == 0 {
			out = append(out, "needs column and bands")
		}
		for _, b := range a.Bands {
			if b.Label == "" || b.Min >= b.Max {
				out = append(out, fmt.Sprintf("band %q needs a label and min < max", b.Label))
			}
		}
	case Mean:
		if a.Column == "" {
			out = append(out, "needs column")
		}
		if a.Decimals != nil && *a.Decimals < 0 {
			out = append(out, "decimals must not be negative")
		}
	case Risk:
		if a.Risk == nil {
			break
		}
		if _, err := risk.ParseAggregation(a.Risk.Aggregation); err != nil {
			out = append(out, err.Error())
		}
		if a.Risk.Order != "" && a.Risk.Aggregation != "latest" {
			out = append(out, "order only applies to the latest aggregation")
		}
		for _, t := range a.Risk.Tiers {
			if t.Label == "" {
				out = append(out, "tiers need a label")
			}
			for _, c := range t.Conditions {
				if c.Column == "" {
					out = append(out, fmt.Sprintf("tier %s: condition without column", t.Label))
				}
			}
		}
	default:
		out = append(out, fmt.Sprintf("unknown type %q", a.Type))
	}
	for _, o := range a.Options {
		if o.Column == "" || o.Label == "" {
			out = append(out, "options need column and label")
			break
		}
	}
	return out
}

// Comma returns the input delimiter, ',' by default.
func (p *Plan) Comma() rune {
	if p.Source.Separator == ";" {
		return ';'
	}
	return ','
}

// TransformOptions returns the recoder settings of the plan.
func (p *Plan) TransformOptions() transform.Options {
	opts := transform.DefaultOptions()
	if p.Entity.Column != "" {
		opts.EntityColumn = p.Entity.Column
		opts.EntityName = p.Entity.Column
	}
	if p.Entity.Name != "" {
		opts.EntityName = p.Entity.Name
	}
	if p.NotInformed != "" {
		opts.NotInformed = p.NotInformed
	}
	if p.NoneSelected != "" {
		opts.NoneSelected = p.NoneSelected
	}
	return opts
}

// SummaryName is the file name, without extension, of the per-institution
// summary written next to a risk analysis.
func (a Analysis) SummaryName() string { return a.Name + "_resumo" }

// outputs lists the CSV files the analysis writes, without extension.
func (a Analysis) outputs() []string {
	if a.Type == Risk {
		return []string{a.Name, a.SummaryName()}
	}
	return []string{a.Name}
}

// OutputLabel is the label column name, defaulting to the analysis name.
func (a Analysis) OutputLabel() string {
	if a.Label != "" {
		return a.Label
	}
	return a.Name
}

// CodeMap returns the codes in file order.
func (a Analysis) CodeMap() table.CodeMap { return table.CodeMap(a.Codes) }

// MultiSelectOptions converts the options of the analysis.
func (a Analysis) MultiSelectOptions() []transform.Option {
	out := make([]transform.Option, len(a.Options))
	for i, o := range a.Options {
		out[i] = transform.Option{Column: o.Column, Label: o.Label}
	}
	return out
}

// TransformBands converts the bands of the analysis, in file order.
func (a Analysis) TransformBands() []transform.Band {
	out := make([]transform.Band, len(a.Bands))
	for i, b := range a.Bands {
		out[i] = transform.Band{Label: b.Label, Min: b.Min, Max: b.Max}
	}
	return out
}

// Places is the rounding of a mean analysis, 1 decimal by default.
func (a Analysis) Places() int {
	if a.Decimals == nil {
		return defaultDecimals
	}
	return *a.Decimals
}

// StaffCategories converts the professionals of the analysis.
func (a Analysis) StaffCategories() []transform.Professional {
	out := make([]transform.Professional, len(a.Professionals))
	for i, p := range a.Professionals {
		out[i] = transform.Professional{Name: p.Name, CountColumn: p.Count, DaysColumn: p.Days}
	}
	return out
}

// Classifier builds the risk classifier of the analysis.
func (a Analysis) Classifier() (*risk.Classifier, error) {
	cfg := RiskConfig{}
	if a.Risk != nil {
		cfg = *a.Risk
	}
	tiers := risk.FrailtyTiers()
	if len(cfg.Tiers) > 0 {
		tiers = make([]risk.Tier, len(cfg.Tiers))
		for i, t := range cfg.Tiers {
			tiers[i] = t.Tier()
		}
	}
	includeNoRisk := cfg.IncludeNoRisk == nil || *cfg.IncludeNoRisk
	c := risk.New(tiers, includeNoRisk)
	strategy, err := risk.ParseAggregation(cfg.Aggregation)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	c.Strategy = strategy
	c.OrderColumn = cfg.Order
	if cfg.NoRiskLabel != "" {
		c.NoRiskLabel = cfg.NoRiskLabel
	}
	if cfg.Entity != "" {
		c.EntityColumn = cfg.Entity
	}
	if cfg.Group != "" {
		c.GroupColumn = cfg.Group
	}
	if cfg.Carry != nil {
		c.Carry = cfg.Carry
	}
	return c, nil
}

// Tier converts the configured conditions into predicates.
func (t TierConfig) Tier() risk.Tier {
	tier := risk.Tier{Label: t.Label}
	for _, c := range t.Conditions {
		tier.Conditions = append(tier.Conditions, risk.Condition{Column: c.Column, Match: c.Predicate()})
	}
	return tier
}

// Predicate combines the set fields of the condition.
func (c ConditionConfig) Predicate() risk.Predicate {
	if c.Missing {
		return risk.IsMissing()
	}
	var ps []risk.Predicate
	if len(c.In) > 0 {
		ps = append(ps, risk.In(c.In...))
	}
	if len(c.NotIn) > 0 {
		ps = append(ps, risk.NotIn(c.NotIn...))
	}
	if c.Min != nil || c.Max != nil {
		lo, hi := math.Inf(-1), math.Inf(1)
		if c.Min != nil {
			lo = *c.Min
		}
		if c.Max != nil {
			hi = *c.Max
		}
		ps = append(ps, risk.Between(lo, hi))
	}
	if len(ps) == 0 {
		// sem restrição: qualquer resposta
		return func(v table.Value) bool { return !v.IsMissing() }
	}
	return risk.All(ps...)
}
