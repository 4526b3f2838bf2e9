// Package transform turns the wide REDCap export into the narrow tables
// used in the ILPI reports: recoded answers, flattened checkboxes and
// per-institution counts.
package transform

import "analiseilpi/table"

const (
	// NaoInformado is written when no code of the map matches the answer.
	NaoInformado = "Não informado"
	// Nenhum is written when no checkbox of a multi-select question is set.
	Nenhum = "Nenhum"
)

// Options carries the per-call settings shared by the recoders.
type Options struct {
	EntityColumn string // column identifying the row owner, usually institution_name
	EntityName   string // name of that column in the output, usually ILPI
	NotInformed  string // label for answers without a matching code
	NoneSelected string // label for rows with no checkbox set
}

// DefaultOptions returns the settings used throughout the ILPI reports.
func DefaultOptions() Options {
	return Options{
		EntityColumn: "institution_name",
		EntityName:   "ILPI",
		NotInformed:  NaoInformado,
		NoneSelected: Nenhum,
	}
}

func (o Options) entityName() string {
	if o.EntityName == "" {
		return o.EntityColumn
	}
	return o.EntityName
}

// labeled builds the (entity, label) output table shared by the recoders.
func labeled(t *table.Table, opts Options, output string, label func(table.Row) (table.Value, bool)) *table.Table {
	out := table.New(opts.entityName(), output)
	for i := 0; i < t.Len(); i++ {
		r := t.Row(i)
		v, keep := label(r)
		if !keep {
			continue
		}
		out.AppendValues(r.Get(opts.EntityColumn), v)
	}
	return out
}
