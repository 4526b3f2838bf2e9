package table

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies what a Value holds.
type Kind int

const (
	// Missing is an empty cell.
	Missing Kind = iota
	// Int is an integer code, the usual content of REDCap exports.
	Int
	// Float is a non integral number (days per month, weight, coordinates).
	Float
	// Text is any other string.
	Text
)

// Value is a single survey cell.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// NA returns a missing value.
func NA() Value { return Value{} }

// IntValue returns an integer code.
func IntValue(i int64) Value { return Value{kind: Int, i: i} }

// FloatValue returns a number. Integral numbers are stored as codes, so
// FloatValue(2) and IntValue(2) are equal.
func FloatValue(f float64) Value {
	if math.IsNaN(f) {
		return NA()
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return IntValue(int64(f))
	}
	return Value{kind: Float, f: f}
}

// TextValue returns a string value. The empty string is missing.
func TextValue(s string) Value {
	if s == "" {
		return NA()
	}
	return Value{kind: Text, s: s}
}

// ParseValue converts a raw CSV cell. Empty cells and the pandas
// placeholders (NA, nan, <NA>) are missing.
func ParseValue(raw string) Value {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "", "na", "nan", "<na>", "null":
		return NA()
	}
	// CPFs and similar identifiers keep their leading zeros.
	if len(s) > 1 && s[0] == '0' && s[1] != '.' {
		return Value{kind: Text, s: s}
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntValue(i)
	}
	// ParseFloat aceita "Inf" e "infinity", que aqui são texto livre.
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) {
		return FloatValue(f)
	}
	return Value{kind: Text, s: s}
}

// Kind returns what v holds.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether v is an empty cell.
func (v Value) IsMissing() bool { return v.kind == Missing }

// Code returns the integer code held by v.
func (v Value) Code() (int64, bool) {
	if v.kind == Int {
		return v.i, true
	}
	return 0, false
}

// Number returns v as float64 for Int and Float values.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case Int:
		return float64(v.i), true
	case Float:
		return v.f, true
	}
	return 0, false
}

// Text returns the string held by a Text value.
func (v Value) Text() (string, bool) {
	if v.kind == Text {
		return v.s, true
	}
	return "", false
}

// IsZero reports whether v is the numeric zero.
func (v Value) IsZero() bool {
	n, ok := v.Number()
	return ok && n == 0
}

// Equal compares kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Int:
		return v.i == o.i
	case Float:
		return v.f == o.f
	case Text:
		return v.s == o.s
	}
	return true
}

// Less orders numbers before text and missing values last.
func (v Value) Less(o Value) bool {
	vn, vNum := v.Number()
	on, oNum := o.Number()
	switch {
	case vNum && oNum:
		return vn < on
	case vNum:
		return true
	case oNum:
		return false
	}
	if v.kind == Text && o.kind == Text {
		return v.s < o.s
	}
	return v.kind == Text && o.kind == Missing
}

// String formats v the way it is written back to CSV. Missing is empty.
func (v Value) String() string {
	switch v.kind {
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Float:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case Text:
		return v.s
	}
	return ""
}

// MarshalCSV lets gocsv write Value fields.
func (v Value) MarshalCSV() (string, error) {
	return v.String(), nil
}
