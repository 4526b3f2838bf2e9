package transform

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"analiseilpi/table"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ResidentKeys names the columns identifying a resident in the
// epidemiological profile export.
type ResidentKeys struct {
	Institution string
	Name        string
	CPF         string
}

// DefaultResidentKeys returns the REDCap column names.
func DefaultResidentKeys() ResidentKeys {
	return ResidentKeys{Institution: "institution_name", Name: "full_name", CPF: "cpf"}
}

func (k ResidentKeys) columns() []string { return []string{k.Institution, k.Name, k.CPF} }

// Professional describes one category of staff: the headcount column and
// the column with the days per month they work at the institution.
type Professional struct {
	Name        string
	CountColumn string
	DaysColumn  string
}

// Staff is one (institution, professional) line of the staffing table.
type Staff struct {
	Entity       table.Value
	Professional string
	DaysPerMonth float64
}

// ExtractProfessionals lists, for every institution employing at least one
// professional of a category, the days per month rounded to 1 decimal.
// Lines without the number of days are left out.
func ExtractProfessionals(t *table.Table, profs []Professional, opts Options) ([]Staff, error) {
	cols := []string{opts.EntityColumn}
	for _, p := range profs {
		cols = append(cols, p.CountColumn, p.DaysColumn)
	}
	if err := t.Require(cols...); err != nil {
		return nil, err
	}
	var out []Staff
	for _, p := range profs {
		for i := 0; i < t.Len(); i++ {
			r := t.Row(i)
			n, ok := r.Get(p.CountColumn).Number()
			if !ok || n < 1 {
				continue
			}
			days, ok := r.Get(p.DaysColumn).Number()
			if !ok || r.Get(opts.EntityColumn).IsMissing() {
				continue
			}
			out = append(out, Staff{Entity: r.Get(opts.EntityColumn), Professional: p.Name, DaysPerMonth: Round(days, 1)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Entity.Equal(out[j].Entity) {
			return out[i].Entity.Less(out[j].Entity)
		}
		return out[i].Professional < out[j].Professional
	})
	return out, nil
}

// Morbidity sums up the previous illnesses of a resident.
type Morbidity struct {
	Institution table.Value
	Name        table.Value
	CPF         table.Value
	Morbidities string // checked options, sorted
	Other       string // free text answers, normalized and sorted
	Total       int
}

var freeTextSeparators = regexp.MustCompile(`[;,|]`)

// ExtractMorbidities groups the morbidity checkboxes and the free text
// column per resident. Residents with nothing checked and no free text are
// left out. Free text items are lower-cased and deduplicated ignoring
// accents; Total counts distinct checked options plus distinct free items.
func ExtractMorbidities(t *table.Table, indicators []Option, otherColumn string, keys ResidentKeys) ([]Morbidity, error) {
	if err := t.Require(append(append(keys.columns(), otherColumn), optionColumns(indicators)...)...); err != nil {
		return nil, err
	}
	type acc struct {
		m      Morbidity
		labels map[string]bool
		other  map[string]string
	}
	index := map[string]*acc{}
	var order []*acc
	for i := 0; i < t.Len(); i++ {
		r := t.Row(i)
		labels := checked(r, indicators)
		other, _ := r.Get(otherColumn).Text()
		if len(labels) == 0 && strings.TrimSpace(other) == "" {
			continue
		}
		inst, name, cpf := r.Get(keys.Institution), r.Get(keys.Name), r.Get(keys.CPF)
		if inst.IsMissing() || name.IsMissing() || cpf.IsMissing() {
			continue
		}
		k := valueKey(inst) + "|" + valueKey(name) + "|" + valueKey(cpf)
		a, ok := index[k]
		if !ok {
			a = &acc{
				m:      Morbidity{Institution: inst, Name: name, CPF: cpf},
				labels: map[string]bool{},
				other:  map[string]string{},
			}
			index[k] = a
			order = append(order, a)
		}
		for _, l := range labels {
			a.labels[l] = true
		}
		for _, item := range freeTextSeparators.Split(other, -1) {
			item = normalizeFreeText(item)
			if item == "" {
				continue
			}
			if _, seen := a.other[foldKey(item)]; !seen {
				a.other[foldKey(item)] = item
			}
		}
	}

	out := make([]Morbidity, 0, len(order))
	for _, a := range order {
		labels := make([]string, 0, len(a.labels))
		for l := range a.labels {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		other := make([]string, 0, len(a.other))
		for _, o := range a.other {
			other = append(other, o)
		}
		sort.Strings(other)
		a.m.Morbidities = strings.Join(labels, ", ")
		a.m.Other = strings.Join(other, ", ")
		a.m.Total = len(labels) + len(other)
		out = append(out, a.m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return lessByKeys(
			[]table.Value{out[i].Institution, out[i].Name, out[i].CPF},
			[]table.Value{out[j].Institution, out[j].Name, out[j].CPF},
		)
	})
	return out, nil
}

// normalizeFreeText lower-cases, composes and trims a typed answer.
func normalizeFreeText(s string) string {
	t := transform.Chain(norm.NFC, runes.Map(unicode.ToLower))
	res, _, _ := transform.String(t, strings.TrimSpace(s))
	return strings.Join(strings.Fields(res), " ")
}

// foldKey drops accents so "hipertensão" and "hipertensao" collapse.
func foldKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	res, _, _ := transform.String(t, s)
	return res
}

// Combination is one of the extra medications of a combined prescription.
type Combination struct {
	NameColumn   string
	DosageColumn string
}

// MedicationSpec locates the medication repeat instrument in the export.
type MedicationSpec struct {
	InstrumentColumn string
	Instrument       string
	NameColumn       string
	DosageColumn     string
	TakenColumn      string
	TakenCodes       table.CodeMap
	Combinations     []Combination
	Keys             ResidentKeys
}

// DefaultMedicationSpec returns the layout of the "medicamentos_em_uso"
// instrument.
func DefaultMedicationSpec() MedicationSpec {
	s := MedicationSpec{
		InstrumentColumn: "redcap_repeat_instrument",
		Instrument:       "medicamentos_em_uso",
		NameColumn:       "med_name",
		DosageColumn:     "dosage",
		TakenColumn:      "taken_daily",
		TakenCodes: table.CodeMap{
			{Code: 1, Label: "1 x ao dia"},
			{Code: 2, Label: "2 x ao dia"},
			{Code: 3, Label: "3 x ao dia"},
			{Code: 4, Label: "4 x ao dia"},
			{Code: 5, Label: "semanalmente"},
			{Code: 6, Label: "mensalmente"},
			{Code: 7, Label: "quinzenalmente"},
		},
		Keys: DefaultResidentKeys(),
	}
	s.Combinations = append(s.Combinations, Combination{NameColumn: "combination_1", DosageColumn: "combination_dosage"})
	for _, n := range []string{"2", "3", "4", "5", "6"} {
		s.Combinations = append(s.Combinations, Combination{NameColumn: "combination_" + n, DosageColumn: "combination_dosage_" + n})
	}
	return s
}

// Medication is one drug taken by a resident.
type Medication struct {
	Institution table.Value
	Name        table.Value
	CPF         table.Value
	Medication  string
	Dosage      table.Value
	Taken       string
}

// ExtractMedications explodes the medication instrument into one line per
// drug, combinations included. Resident keys are forward filled across the
// instrument rows and upper-cased; drug names are lower-cased. Only the main
// drug carries the daily intake.
func ExtractMedications(t *table.Table, spec MedicationSpec) ([]Medication, error) {
	cols := append(spec.Keys.columns(), spec.InstrumentColumn, spec.NameColumn, spec.DosageColumn, spec.TakenColumn)
	if err := t.Require(cols...); err != nil {
		return nil, err
	}
	var out []Medication
	last := map[string]table.Value{}
	for i := 0; i < t.Len(); i++ {
		r := t.Row(i)
		if s, _ := r.Get(spec.InstrumentColumn).Text(); s != spec.Instrument {
			continue
		}
		for _, k := range spec.Keys.columns() {
			if v := r.Get(k); !v.IsMissing() {
				if s, ok := v.Text(); ok {
					v = table.TextValue(strings.ToUpper(s))
				}
				last[k] = v
			}
		}
		base := Medication{Institution: last[spec.Keys.Institution], Name: last[spec.Keys.Name], CPF: last[spec.Keys.CPF]}

		if name := drugName(r.Get(spec.NameColumn)); name != "" {
			m := base
			m.Medication = name
			m.Dosage = r.Get(spec.DosageColumn)
			if c, ok := r.Get(spec.TakenColumn).Code(); ok {
				m.Taken, _ = spec.TakenCodes.Lookup(c)
			}
			out = append(out, m)
		}
		for _, c := range spec.Combinations {
			if name := drugName(r.Get(c.NameColumn)); name != "" {
				m := base
				m.Medication = name
				m.Dosage = r.Get(c.DosageColumn)
				out = append(out, m)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return lessByKeys(
			[]table.Value{out[i].Institution, out[i].Name, out[i].CPF},
			[]table.Value{out[j].Institution, out[j].Name, out[j].CPF},
		)
	})
	return out, nil
}

func drugName(v table.Value) string {
	if v.IsMissing() {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(v.String()))
}

// lessByKeys compares two rows key by key.
func lessByKeys(a, b []table.Value) bool {
	for i := range a {
		if !a[i].Equal(b[i]) {
			return a[i].Less(b[i])
		}
	}
	return false
}
