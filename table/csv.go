package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// CSVOptions describes how an export was written. The REDCap exports
// switch between ',' and ';' depending on who downloaded them.
type CSVOptions struct {
	Comma  rune
	Latin1 bool // decode ISO 8859-1 instead of UTF-8
}

// ReadCSV loads a whole export. The first record is the header.
func ReadCSV(in io.Reader, opts CSVOptions) (*Table, error) {
	if opts.Latin1 {
		in = charmap.ISO8859_1.NewDecoder().Reader(in)
	}
	r := csv.NewReader(in)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	if opts.Comma != 0 {
		r.Comma = opts.Comma
	}
	header, err := r.Read()
	if err == io.EOF {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading CSV header:%q", err)
	}
	if len(header) > 0 {
		// Excel exports carry a BOM on the first column name.
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	t := New(header...)
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV line %d:%q", line, err)
		}
		vals := make([]Value, len(header))
		for i := range header {
			if i < len(rec) {
				vals[i] = ParseValue(rec[i])
			}
		}
		t.AppendValues(vals...)
	}
	return t, nil
}

// WriteCSV dumps t with the given separator, header first.
func WriteCSV(out io.Writer, t *Table, comma rune) error {
	w := csv.NewWriter(out)
	if comma != 0 {
		w.Comma = comma
	}
	if err := w.Write(t.columns); err != nil {
		return err
	}
	rec := make([]string, len(t.columns))
	for _, r := range t.rows {
		for i, c := range t.columns {
			rec[i] = r[c].String()
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
