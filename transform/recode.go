package transform

import (
	"strings"

	"analiseilpi/table"
)

// BinaryRecode maps a two-valued answer (1 = Sim, 2 = Não and the like) to
// its label, one output row per input row. Codes absent from the map give a
// missing label.
func BinaryRecode(t *table.Table, source, label string, codes table.CodeMap, opts Options) (*table.Table, error) {
	if err := t.Require(opts.EntityColumn, source); err != nil {
		return nil, err
	}
	return labeled(t, opts, label, func(r table.Row) (table.Value, bool) {
		v := r.Get(source)
		if s, ok := v.Text(); ok && codes.HasLabel(s) {
			return v, true
		}
		c, ok := v.Code()
		if !ok {
			return table.NA(), true
		}
		l, ok := codes.Lookup(c)
		if !ok {
			return table.NA(), true
		}
		return table.TextValue(l), true
	}), nil
}

// LabelCodes describes a coded answer: every entry of the map whose code
// equals the answer is joined with ", ". Answers matching nothing get
// opts.NotInformed.
func LabelCodes(t *table.Table, source, output string, codes table.CodeMap, opts Options) (*table.Table, error) {
	if err := t.Require(opts.EntityColumn, source); err != nil {
		return nil, err
	}
	joined := joinedLabels(codes)
	return labeled(t, opts, output, func(r table.Row) (table.Value, bool) {
		v := r.Get(source)
		if s, ok := v.Text(); ok && (codes.HasLabel(s) || joined[s] || s == opts.NotInformed) {
			return v, true
		}
		parts := codes.Matches(v)
		if len(parts) == 0 {
			return table.TextValue(opts.NotInformed), true
		}
		return table.TextValue(strings.Join(parts, ", ")), true
	}), nil
}

// joinedLabels is the set of descriptions LabelCodes writes for codes with
// more than one label.
func joinedLabels(codes table.CodeMap) map[string]bool {
	out := map[string]bool{}
	for _, c := range codes {
		if parts := codes.Matches(table.IntValue(c.Code)); len(parts) > 1 {
			out[strings.Join(parts, ", ")] = true
		}
	}
	return out
}
