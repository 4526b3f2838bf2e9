package transform

import (
	"math"
	"sort"
	"strconv"

	"analiseilpi/table"
)

// Count is the number of rows answering Category within Group, and its share
// of the group.
type Count struct {
	Group      table.Value
	Category   table.Value
	Total      int
	Proportion float64
}

// CountBy counts the answers of column category, per value of column group.
// An empty group counts the whole table as a single group. Rows without an
// answer, or without a group when grouping, are not counted. Proportions are
// relative to the group total, with 2 decimals, and the proportions of a
// group always add up to 1.
func CountBy(t *table.Table, category, group string) ([]Count, error) {
	cols := []string{category}
	if group != "" {
		cols = append(cols, group)
	}
	if err := t.Require(cols...); err != nil {
		return nil, err
	}

	type key struct{ g, c string }
	index := map[key]int{}
	groupTotal := map[string]int{}
	var counts []Count
	for i := 0; i < t.Len(); i++ {
		r := t.Row(i)
		c := r.Get(category)
		if c.IsMissing() {
			continue
		}
		g := table.NA()
		if group != "" {
			g = r.Get(group)
			if g.IsMissing() {
				continue
			}
		}
		k := key{valueKey(g), valueKey(c)}
		pos, ok := index[k]
		if !ok {
			pos = len(counts)
			index[k] = pos
			counts = append(counts, Count{Group: g, Category: c})
		}
		counts[pos].Total++
		groupTotal[k.g]++
	}

	sort.SliceStable(counts, func(i, j int) bool {
		if !counts[i].Group.Equal(counts[j].Group) {
			return counts[i].Group.Less(counts[j].Group)
		}
		return counts[i].Category.Less(counts[j].Category)
	})
	for start := 0; start < len(counts); {
		end := start + 1
		for end < len(counts) && counts[end].Group.Equal(counts[start].Group) {
			end++
		}
		setProportions(counts[start:end], groupTotal[valueKey(counts[start].Group)])
		start = end
	}
	return counts, nil
}

// setProportions splits 100 hundredths among the counts of one group by the
// largest remainder method. Ties go to the first count in output order.
func setProportions(group []Count, total int) {
	hundredths := make([]int, len(group))
	left := 100
	for i, c := range group {
		hundredths[i] = c.Total * 100 / total
		left -= hundredths[i]
	}
	order := make([]int, len(group))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return group[order[a]].Total*100%total > group[order[b]].Total*100%total
	})
	for _, i := range order[:left] {
		hundredths[i]++
	}
	for i := range group {
		group[i].Proportion = float64(hundredths[i]) / 100
	}
}

// LabelCounts replaces coded categories by their labels. Categories missing
// from the map are kept as they are.
func LabelCounts(counts []Count, codes table.CodeMap) []Count {
	out := make([]Count, len(counts))
	for i, c := range counts {
		out[i] = c
		if code, ok := c.Category.Code(); ok {
			if l, ok := codes.Lookup(code); ok {
				out[i].Category = table.TextValue(l)
			}
		}
	}
	return out
}

// Round rounds x to the given number of decimal places, halves away from zero.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// valueKey distinguishes values of different kinds that print alike.
func valueKey(v table.Value) string {
	return strconv.Itoa(int(v.Kind())) + ":" + v.String()
}
