package risk

import (
	"analiseilpi/table"
	"golang.org/x/exp/slices"
)

// Predicate tests a single cell. Predicates built here are false on missing
// values, except IsMissing.
type Predicate func(table.Value) bool

// In matches integer codes equal to one of codes.
func In(codes ...int64) Predicate {
	return func(v table.Value) bool {
		c, ok := v.Code()
		return ok && slices.Contains(codes, c)
	}
}

// NotIn matches answered codes other than codes.
func NotIn(codes ...int64) Predicate {
	return func(v table.Value) bool {
		c, ok := v.Code()
		return ok && !slices.Contains(codes, c)
	}
}

// Between matches numbers in the closed interval [lo, hi].
func Between(lo, hi float64) Predicate {
	return func(v table.Value) bool {
		n, ok := v.Number()
		return ok && n >= lo && n <= hi
	}
}

// IsMissing matches empty cells.
func IsMissing() Predicate {
	return func(v table.Value) bool { return v.IsMissing() }
}

// All matches when every predicate matches.
func All(ps ...Predicate) Predicate {
	return func(v table.Value) bool {
		for _, p := range ps {
			if !p(v) {
				return false
			}
		}
		return true
	}
}

// Condition ties a predicate to the column it is evaluated on.
type Condition struct {
	Column string
	Match  Predicate
}

// Tier is one severity level. A row belongs to the tier when all of its
// conditions hold on that row; a tier without conditions takes every row.
type Tier struct {
	Label      string
	Conditions []Condition
}

func (t Tier) matches(r table.Row) bool {
	for _, c := range t.Conditions {
		if !c.Match(r.Get(c.Column)) {
			return false
		}
	}
	return true
}
