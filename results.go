package main

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"analiseilpi/plan"
	"analiseilpi/risk"
	"analiseilpi/table"
	"analiseilpi/transform"
	"go.uber.org/zap"
)

// ExecutionResult describes what a run of a plan produced.
type ExecutionResult struct {
	Plano   string          `json:"plano"`
	Linhas  int             `json:"linhas"` // rows of the input table
	Tabelas []GeneratedFile `json:"tabelas"`
	Pacote  string          `json:"pacote,omitempty"` // zip with every table, unless --no-zip
}

// GeneratedFile is one CSV written by an analysis.
type GeneratedFile struct {
	Analise string `json:"analise"`
	Arquivo string `json:"arquivo"`
	Linhas  int    `json:"linhas"`
}

// runAnalyses writes one CSV per analysis of the plan into outputPath. Risk
// analyses also write the per-institution summary.
func runAnalyses(p *plan.Plan, t *table.Table, outputPath string, logger *zap.Logger) ([]GeneratedFile, error) {
	opts := p.TransformOptions()
	var files []GeneratedFile
	for _, a := range p.Analyses {
		generated, err := runAnalysis(a, t, opts, outputPath)
		if err != nil {
			return files, fmt.Errorf("error running analysis %s: %w", a.Name, err)
		}
		for _, g := range generated {
			logger.Info("analysis written",
				zap.String("analysis", g.Analise),
				zap.String("file", g.Arquivo),
				zap.Int("rows", g.Linhas))
		}
		files = append(files, generated...)
	}
	return files, nil
}

func runAnalysis(a plan.Analysis, t *table.Table, opts transform.Options, outputPath string) ([]GeneratedFile, error) {
	path := filepath.Join(outputPath, a.Name+".csv")
	single := func(rows int, err error) ([]GeneratedFile, error) {
		if err != nil {
			return nil, err
		}
		return []GeneratedFile{{Analise: a.Name, Arquivo: path, Linhas: rows}}, nil
	}
	writeTable := func(out *table.Table, err error) ([]GeneratedFile, error) {
		if err != nil {
			return nil, err
		}
		return single(out.Len(), tableToCSVFile(out, path))
	}

	switch a.Type {
	case plan.Binary:
		return writeTable(transform.BinaryRecode(t, a.Column, a.OutputLabel(), a.CodeMap(), opts))
	case plan.Labels:
		return writeTable(transform.LabelCodes(t, a.Column, a.OutputLabel(), a.CodeMap(), opts))
	case plan.MultiSelect:
		return writeTable(transform.FlattenMultiSelect(t, a.MultiSelectOptions(), a.OutputLabel(), opts))
	case plan.MultiSelectDrop:
		return writeTable(transform.FlattenMultiSelectDropEmpty(t, a.MultiSelectOptions(), a.OutputLabel(), opts))
	case plan.Count:
		counts, err := transform.CountBy(t, a.Column, a.Group)
		if err != nil {
			return nil, err
		}
		if len(a.Codes) > 0 {
			counts = transform.LabelCounts(counts, a.CodeMap())
		}
		rows := toContagens(counts)
		return single(len(rows), toCSVFile(&rows, path))
	case plan.Professionals:
		staff, err := transform.ExtractProfessionals(t, a.StaffCategories(), opts)
		if err != nil {
			return nil, err
		}
		rows := toProfissionais(staff)
		return single(len(rows), toCSVFile(&rows, path))
	case plan.Morbidities:
		ms, err := transform.ExtractMorbidities(t, a.MultiSelectOptions(), a.Other, transform.DefaultResidentKeys())
		if err != nil {
			return nil, err
		}
		rows := toMorbidades(ms)
		return single(len(rows), toCSVFile(&rows, path))
	case plan.Medications:
		ms, err := transform.ExtractMedications(t, transform.DefaultMedicationSpec())
		if err != nil {
			return nil, err
		}
		rows := toMedicamentos(ms)
		return single(len(rows), toCSVFile(&rows, path))
	case plan.Bins:
		counts, err := transform.CountBins(t, a.Column, a.Group, a.TransformBands())
		if err != nil {
			return nil, err
		}
		rows := toContagens(counts)
		return single(len(rows), toCSVFile(&rows, path))
	case plan.Mean:
		means, err := transform.MeanBy(t, a.Column, a.Group, a.Places())
		if err != nil {
			return nil, err
		}
		rows := toMedias(means)
		return single(len(rows), toCSVFile(&rows, path))
	case plan.Risk:
		return runRisk(a, t, outputPath)
	}
	return nil, fmt.Errorf("%w: unknown type %q", plan.ErrInvalidPlan, a.Type)
}

func runRisk(a plan.Analysis, t *table.Table, outputPath string) ([]GeneratedFile, error) {
	c, err := a.Classifier()
	if err != nil {
		return nil, err
	}
	results, err := c.Classify(t)
	if err != nil {
		return nil, err
	}
	riscos := toRiscos(results)
	resumo := toResumo(risk.Summarize(results))

	path := filepath.Join(outputPath, a.Name+".csv")
	if err := toCSVFile(&riscos, path); err != nil {
		return nil, err
	}
	summaryPath := filepath.Join(outputPath, a.SummaryName()+".csv")
	if err := toCSVFile(&resumo, summaryPath); err != nil {
		return nil, err
	}
	return []GeneratedFile{
		{Analise: a.Name, Arquivo: path, Linhas: len(riscos)},
		{Analise: a.Name, Arquivo: summaryPath, Linhas: len(resumo)},
	}, nil
}

func zipFiles(filename string, basePath string, files []string) error {
	newfile, err := os.Create(filename)
	if err != nil {
		return err
	}
	zipWriter := zip.NewWriter(newfile)
	for _, file := range files {
		if err := addToZip(zipWriter, basePath, file); err != nil {
			zipWriter.Close()
			newfile.Close()
			return fmt.Errorf("error adding file to zip (%s):%q", file, err)
		}
	}
	// Close grava o diretório central: sem ele o zip não abre.
	if err := zipWriter.Close(); err != nil {
		newfile.Close()
		return fmt.Errorf("error closing zip (%s):%q", filename, err)
	}
	if err := newfile.Close(); err != nil {
		return fmt.Errorf("error closing zip (%s):%q", filename, err)
	}
	return nil
}

func addToZip(zipWriter *zip.Writer, basePath, file string) error {
	zipfile, err := os.Open(file)
	if err != nil {
		return err
	}
	defer zipfile.Close()
	info, err := zipfile.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Method = zip.Deflate
	t := strings.TrimPrefix(strings.TrimPrefix(file, basePath), "/")
	if filepath.Dir(t) != "." {
		header.Name = t
	}
	writer, err := zipWriter.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(writer, zipfile)
	return err
}
