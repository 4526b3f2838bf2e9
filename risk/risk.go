// Package risk assigns each resident the frailty tier of the survey answers,
// most severe tier first.
package risk

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"analiseilpi/table"
)

// Labels of the frailty score.
const (
	Critico  = "Crítico"
	Alerta   = "Alerta"
	Atencao  = "Atenção"
	SemRisco = "Sem Risco"
)

// ErrNoTiers is returned by Classify when the classifier has no tier.
var ErrNoTiers = errors.New("risk classifier without tiers")

// Aggregation selects how the labels of an entity's rows become one label.
type Aggregation int

const (
	// Worst keeps the most severe label seen on any row of the entity.
	Worst Aggregation = iota
	// Latest keeps the label of the entity's most recent row.
	Latest
)

// ParseAggregation reads "worst" or "latest"; empty means Worst.
func ParseAggregation(s string) (Aggregation, error) {
	switch s {
	case "", "worst":
		return Worst, nil
	case "latest":
		return Latest, nil
	}
	return Worst, fmt.Errorf("unknown aggregation %q", s)
}

func (a Aggregation) String() string {
	if a == Latest {
		return "latest"
	}
	return "worst"
}

// Classifier evaluates Tiers, in order, on every row of a table.
type Classifier struct {
	Tiers         []Tier
	IncludeNoRisk bool   // rows matching no tier get NoRiskLabel instead of no label
	NoRiskLabel   string // defaults to SemRisco
	EntityColumn  string // defaults to cpf
	GroupColumn   string // defaults to institution_name
	Carry         []string
	Strategy      Aggregation
	// OrderColumn, when set, decides which row is the most recent for
	// Latest. Otherwise the last row of the entity in table order is used.
	OrderColumn string
}

// New returns a classifier with the column names of the REDCap export.
func New(tiers []Tier, includeNoRisk bool) *Classifier {
	return &Classifier{
		Tiers:         tiers,
		IncludeNoRisk: includeNoRisk,
		NoRiskLabel:   SemRisco,
		EntityColumn:  "cpf",
		GroupColumn:   "institution_name",
		Carry:         []string{"full_name"},
	}
}

// Result is the label of one entity. Rank is the tier index (0 is the most
// severe), len(Tiers) for the no risk label and -1 when unlabeled.
type Result struct {
	Entity  table.Value
	Group   table.Value
	Carried []table.Value // same order as Classifier.Carry
	Label   string
	Rank    int
}

// Labeled reports whether the entity got a label.
func (r Result) Labeled() bool { return r.Rank >= 0 }

type labeledRow struct {
	row  table.Row
	rank int
}

// Classify labels every row and collapses the rows of each entity according
// to the aggregation strategy. Rows without an entity key are ignored.
// Results are sorted by entity key.
func (c *Classifier) Classify(t *table.Table) ([]Result, error) {
	if len(c.Tiers) == 0 {
		return nil, ErrNoTiers
	}
	if err := t.Require(c.columns()...); err != nil {
		return nil, err
	}

	byEntity := map[string][]labeledRow{}
	var order []string
	for i := 0; i < t.Len(); i++ {
		r := t.Row(i)
		e := r.Get(c.entityColumn())
		if e.IsMissing() {
			continue
		}
		k := strconv.Itoa(int(e.Kind())) + ":" + e.String()
		if _, ok := byEntity[k]; !ok {
			order = append(order, k)
		}
		byEntity[k] = append(byEntity[k], labeledRow{row: r, rank: c.rank(r)})
	}

	out := make([]Result, 0, len(order))
	for _, k := range order {
		rows := byEntity[k]
		if c.Strategy == Latest {
			out = append(out, c.latest(rows))
		} else {
			out = append(out, c.worst(rows))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Entity.Less(out[j].Entity) })
	return out, nil
}

// rank returns the index of the first tier matching r.
func (c *Classifier) rank(r table.Row) int {
	for i, tier := range c.Tiers {
		if tier.matches(r) {
			return i
		}
	}
	if c.IncludeNoRisk {
		return len(c.Tiers)
	}
	return -1
}

func (c *Classifier) label(rank int) string {
	switch {
	case rank < 0:
		return ""
	case rank < len(c.Tiers):
		return c.Tiers[rank].Label
	case c.NoRiskLabel != "":
		return c.NoRiskLabel
	}
	return SemRisco
}

// worst sorts the rows by severity, unlabeled ones last, and takes for each
// field the first value present.
func (c *Classifier) worst(rows []labeledRow) Result {
	sorted := make([]labeledRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := sorted[i].rank, sorted[j].rank
		if ri < 0 || rj < 0 {
			return rj < 0 && ri >= 0
		}
		return ri < rj
	})
	return c.result(sorted[0], sorted)
}

// latest takes the label of the most recent row of the entity.
func (c *Classifier) latest(rows []labeledRow) Result {
	pick := rows[len(rows)-1]
	if c.OrderColumn != "" {
		pick = rows[0]
		for _, r := range rows[1:] {
			v, best := r.row.Get(c.OrderColumn), pick.row.Get(c.OrderColumn)
			if best.IsMissing() || (!v.IsMissing() && !v.Less(best)) {
				pick = r
			}
		}
	}
	return c.result(pick, []labeledRow{pick})
}

func (c *Classifier) result(pick labeledRow, rows []labeledRow) Result {
	res := Result{
		Entity: pick.row.Get(c.entityColumn()),
		Group:  firstPresent(rows, c.groupColumn()),
		Label:  c.label(pick.rank),
		Rank:   pick.rank,
	}
	for _, col := range c.Carry {
		res.Carried = append(res.Carried, firstPresent(rows, col))
	}
	return res
}

func firstPresent(rows []labeledRow, col string) table.Value {
	for _, r := range rows {
		if v := r.row.Get(col); !v.IsMissing() {
			return v
		}
	}
	return table.NA()
}

func (c *Classifier) entityColumn() string {
	if c.EntityColumn == "" {
		return "cpf"
	}
	return c.EntityColumn
}

func (c *Classifier) groupColumn() string {
	if c.GroupColumn == "" {
		return "institution_name"
	}
	return c.GroupColumn
}

func (c *Classifier) columns() []string {
	cols := append([]string{c.entityColumn(), c.groupColumn()}, c.Carry...)
	if c.OrderColumn != "" {
		cols = append(cols, c.OrderColumn)
	}
	for _, tier := range c.Tiers {
		for _, cond := range tier.Conditions {
			cols = append(cols, cond.Column)
		}
	}
	return cols
}

// SummaryRow is the number of entities of Group labeled Label.
type SummaryRow struct {
	Group table.Value
	Label string
	Rank  int
	Total int
}

// Summarize counts the labeled results per group and label, most severe
// label first within each group. Unlabeled results are not counted.
func Summarize(results []Result) []SummaryRow {
	type key struct {
		g string
		r int
	}
	index := map[key]int{}
	var out []SummaryRow
	for _, r := range results {
		if !r.Labeled() {
			continue
		}
		k := key{strconv.Itoa(int(r.Group.Kind())) + ":" + r.Group.String(), r.Rank}
		pos, ok := index[k]
		if !ok {
			pos = len(out)
			index[k] = pos
			out = append(out, SummaryRow{Group: r.Group, Label: r.Label, Rank: r.Rank})
		}
		out[pos].Total++
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Group.Equal(out[j].Group) {
			return out[i].Group.Less(out[j].Group)
		}
		return out[i].Rank < out[j].Rank
	})
	return out
}
