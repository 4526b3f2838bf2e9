package transform

import (
	"strings"

	"analiseilpi/table"
)

// Option is one checkbox of a multi-select question: the 0/1 indicator
// column REDCap exports (morbidities___3) and the text it stands for.
type Option struct {
	Column string
	Label  string
}

func optionColumns(options []Option) []string {
	cols := make([]string, len(options))
	for i, o := range options {
		cols[i] = o.Column
	}
	return cols
}

// checked returns, in option order, the labels of the indicators set to 1.
func checked(r table.Row, options []Option) []string {
	var parts []string
	for _, o := range options {
		if c, ok := r.Get(o.Column).Code(); ok && c == 1 {
			parts = append(parts, o.Label)
		}
	}
	return parts
}

func selected(r table.Row, options []Option) string {
	return strings.Join(checked(r, options), ", ")
}

// FlattenMultiSelect writes one descriptive column per row from a set of
// checkbox indicators. Rows with nothing checked get opts.NoneSelected.
func FlattenMultiSelect(t *table.Table, options []Option, output string, opts Options) (*table.Table, error) {
	if err := t.Require(append([]string{opts.EntityColumn}, optionColumns(options)...)...); err != nil {
		return nil, err
	}
	return labeled(t, opts, output, func(r table.Row) (table.Value, bool) {
		s := selected(r, options)
		if s == "" {
			return table.TextValue(opts.NoneSelected), true
		}
		return table.TextValue(s), true
	}), nil
}

// FlattenMultiSelectDropEmpty is FlattenMultiSelect for reports that list
// only the rows with at least one checkbox set; the others are removed.
func FlattenMultiSelectDropEmpty(t *table.Table, options []Option, output string, opts Options) (*table.Table, error) {
	if err := t.Require(append([]string{opts.EntityColumn}, optionColumns(options)...)...); err != nil {
		return nil, err
	}
	return labeled(t, opts, output, func(r table.Row) (table.Value, bool) {
		s := selected(r, options)
		return table.TextValue(s), s != ""
	}), nil
}
