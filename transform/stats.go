package transform

import (
	"errors"
	"fmt"
	"sort"

	"analiseilpi/table"
)

// Band is the half-open range [Min, Max) of a continuous answer.
type Band struct {
	Label string
	Min   float64
	Max   float64
}

func (b Band) contains(x float64) bool { return x >= b.Min && x < b.Max }

// band returns the position of the first band holding v, or -1.
func band(bands []Band, v table.Value) int {
	x, ok := v.Number()
	if !ok {
		return -1
	}
	for i, b := range bands {
		if b.contains(x) {
			return i
		}
	}
	return -1
}

func checkBands(bands []Band) error {
	if len(bands) == 0 {
		return errors.New("no bands")
	}
	for _, b := range bands {
		if b.Label == "" || b.Min >= b.Max {
			return fmt.Errorf("band %q must have a label and min < max", b.Label)
		}
	}
	return nil
}

// Bin writes the band label of column source, one row per answer. Rows that
// are missing, not numeric or outside every band are left out.
func Bin(t *table.Table, source, output string, bands []Band, opts Options) (*table.Table, error) {
	if err := checkBands(bands); err != nil {
		return nil, err
	}
	if err := t.Require(opts.EntityColumn, source); err != nil {
		return nil, err
	}
	return labeled(t, opts, output, func(r table.Row) (table.Value, bool) {
		i := band(bands, r.Get(source))
		if i < 0 {
			return table.NA(), false
		}
		return table.TextValue(bands[i].Label), true
	}), nil
}

// CountBins counts the answers of column source per band, within each value
// of column group (the whole table when group is empty). Bands keep the
// order they were given in.
func CountBins(t *table.Table, source, group string, bands []Band) ([]Count, error) {
	if err := checkBands(bands); err != nil {
		return nil, err
	}
	cols := []string{source}
	if group != "" {
		cols = append(cols, group)
	}
	if err := t.Require(cols...); err != nil {
		return nil, err
	}

	const bandColumn = "band"
	groupColumn := ""
	if group != "" {
		groupColumn = "group"
	}
	binned := table.New("group", bandColumn)
	for i := 0; i < t.Len(); i++ {
		r := t.Row(i)
		b := band(bands, r.Get(source))
		if b < 0 {
			continue
		}
		g := table.NA()
		if group != "" {
			g = r.Get(group)
		}
		binned.AppendValues(g, table.IntValue(int64(b)))
	}
	counts, err := CountBy(binned, bandColumn, groupColumn)
	if err != nil {
		return nil, err
	}
	codes := make(table.CodeMap, len(bands))
	for i, b := range bands {
		codes[i] = table.Code{Code: int64(i), Label: b.Label}
	}
	return LabelCounts(counts, codes), nil
}

// Mean is the average of the numeric answers within Group.
type Mean struct {
	Group table.Value
	Mean  float64
	Total int // answers averaged
}

// MeanBy averages column source per value of column group, or over the whole
// table when group is empty, rounding to the given decimal places. Missing
// and non numeric answers are skipped.
func MeanBy(t *table.Table, source, group string, places int) ([]Mean, error) {
	cols := []string{source}
	if group != "" {
		cols = append(cols, group)
	}
	if err := t.Require(cols...); err != nil {
		return nil, err
	}

	index := map[string]int{}
	var means []Mean
	var sums []float64
	for i := 0; i < t.Len(); i++ {
		r := t.Row(i)
		x, ok := r.Get(source).Number()
		if !ok {
			continue
		}
		g := table.NA()
		if group != "" {
			g = r.Get(group)
			if g.IsMissing() {
				continue
			}
		}
		k := valueKey(g)
		pos, ok := index[k]
		if !ok {
			pos = len(means)
			index[k] = pos
			means = append(means, Mean{Group: g})
			sums = append(sums, 0)
		}
		means[pos].Total++
		sums[pos] += x
	}
	for i := range means {
		means[i].Mean = Round(sums[i]/float64(means[i].Total), places)
	}
	sort.SliceStable(means, func(i, j int) bool { return means[i].Group.Less(means[j].Group) })
	return means, nil
}
