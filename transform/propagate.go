package transform

import "analiseilpi/table"

// Propagate fills the key fields of every row with the values found on the
// first row of its group. A group starts on each row whose discriminator is
// neither missing nor zero; rows before the first start belong to group 0.
//
// Only the first row of a group is consulted: if it lacks a key, the key
// stays missing for the whole group even when later rows carry it.
func Propagate(t *table.Table, discriminator string, keys []string) (*table.Table, error) {
	if err := t.Require(append([]string{discriminator}, keys...)...); err != nil {
		return nil, err
	}
	out := t.Clone()
	var first table.Row
	for i := 0; i < out.Len(); i++ {
		d := t.Row(i).Get(discriminator)
		if first == nil || (!d.IsMissing() && !d.IsZero()) {
			first = t.Row(i)
		}
		for _, k := range keys {
			out.Set(i, k, first.Get(k))
		}
	}
	return out, nil
}
