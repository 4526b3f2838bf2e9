package table

import "sort"

// Code is one entry of a CodeMap.
type Code struct {
	Code  int64
	Label string
}

// CodeMap translates integer answers into labels, e.g. {1: "Sim", 2: "Não"}.
// Entry order is kept, so joins over several matches are deterministic.
type CodeMap []Code

// Codes builds a CodeMap ordered by code.
func Codes(m map[int64]string) CodeMap {
	out := make(CodeMap, 0, len(m))
	for c, l := range m {
		out = append(out, Code{Code: c, Label: l})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Lookup returns the label of the first entry with code c.
func (cm CodeMap) Lookup(c int64) (string, bool) {
	for _, e := range cm {
		if e.Code == c {
			return e.Label, true
		}
	}
	return "", false
}

// Matches returns, in map order, every label whose code equals v.
func (cm CodeMap) Matches(v Value) []string {
	c, ok := v.Code()
	if !ok {
		return nil
	}
	var out []string
	for _, e := range cm {
		if e.Code == c {
			out = append(out, e.Label)
		}
	}
	return out
}

// HasLabel reports whether l is one of the labels of the map.
func (cm CodeMap) HasLabel(l string) bool {
	for _, e := range cm {
		if e.Label == l {
			return true
		}
	}
	return false
}
