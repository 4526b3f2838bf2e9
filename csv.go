package main

import (
	"encoding/csv"
	"fmt"
	"os"

	"analiseilpi/table"
	"github.com/gocarina/gocsv"
)

func toCSVFile(in interface{}, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating CSV file(%s):%q", path, err)
	}
	defer f.Close()

	// Planilhas em português esperam ';' como separador
	csvWriter := csv.NewWriter(f)
	csvWriter.Comma = ';'
	csvWriter.UseCRLF = true

	return gocsv.MarshalCSV(in, csvWriter)
}

// tableToCSVFile writes a label table, whose columns are only known at
// runtime, with the same separator as toCSVFile.
func tableToCSVFile(t *table.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating CSV file(%s):%q", path, err)
	}
	defer f.Close()
	if err := table.WriteCSV(f, t, ';'); err != nil {
		return fmt.Errorf("error writing CSV file(%s):%q", path, err)
	}
	return nil
}
