package main

import (
	"archive/zip"
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"analiseilpi/plan"
	"analiseilpi/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const redcap = `institution_name,cpf,full_name,redcap_repeat_instrument,residents_bedroom,race,amount_weight_loss,elder_strenght,elder_hospitalized,elder_difficulties,elder_mobility,basic_activities_diffic,falls_number
Lar A,011,ANA,,1,1,2,1,3,1,1,1,3
Lar A,022,BIA,,2,3,1,2,1,1,2,1,1
Lar B,033,CAIO,,1,1,1,2,1,3,1,2,1
`

const relatorio = `
name: relatorio-teste
propagation:
  discriminator: institution_name
  keys: [cpf, full_name, institution_name]
analyses:
  - name: camas
    type: binary
    column: residents_bedroom
    label: Camas segundo a Norma
    codes: {1: Sim, 2: Não}
  - name: raca
    type: count
    column: race
    group: institution_name
    codes: {1: Branca, 3: Parda}
  - name: fragilidade
    type: risk
`

func readSemicolonCSV(t *testing.T, path string) [][]string {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	r := csv.NewReader(f)
	r.Comma = ';'
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

func TestRunAnalyses(t *testing.T) {
	p, err := plan.Parse([]byte(relatorio))
	require.NoError(t, err)
	in, err := table.ReadCSV(strings.NewReader(redcap), table.CSVOptions{Comma: ','})
	require.NoError(t, err)

	dir := t.TempDir()
	files, err := runAnalyses(p, in, dir, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, files, 4)
	assert.Equal(t, "camas", files[0].Analise)
	assert.Equal(t, 3, files[0].Linhas)
	assert.Equal(t, filepath.Join(dir, "fragilidade_resumo.csv"), files[3].Arquivo)

	camas := readSemicolonCSV(t, files[0].Arquivo)
	assert.Equal(t, [][]string{
		{"ILPI", "Camas segundo a Norma"},
		{"Lar A", "Sim"},
		{"Lar A", "Não"},
		{"Lar B", "Sim"},
	}, camas)

	raca := readSemicolonCSV(t, files[1].Arquivo)
	require.Len(t, raca, 4)
	assert.Equal(t, []string{"grupo", "categoria", "total", "proporcao"}, raca[0])
	assert.Equal(t, []string{"Lar A", "Branca", "1"}, raca[1][:3])
	assert.Equal(t, []string{"Lar A", "Parda", "1"}, raca[2][:3])
	assert.Equal(t, []string{"Lar B", "Branca", "1"}, raca[3][:3])

	riscos := readSemicolonCSV(t, files[2].Arquivo)
	assert.Equal(t, [][]string{
		{"ilpi", "cpf", "nome", "risco"},
		{"Lar A", "011", "ANA", "Crítico"},
		{"Lar A", "022", "BIA", "Atenção"},
		{"Lar B", "033", "CAIO", "Sem Risco"},
	}, riscos)

	resumo := readSemicolonCSV(t, files[3].Arquivo)
	assert.Equal(t, [][]string{
		{"ilpi", "risco", "total"},
		{"Lar A", "Crítico", "1"},
		{"Lar A", "Atenção", "1"},
		{"Lar B", "Sem Risco", "1"},
	}, resumo)
}

func TestRunAnalysesBinsAndMean(t *testing.T) {
	p, err := plan.Parse([]byte(`
analyses:
  - name: idade_media
    type: mean
    column: elder_age
    group: institution_name
  - name: faixa_etaria
    type: bins
    column: elder_age
    bands:
      - {label: 61 a 65 anos, min: 60, max: 65}
      - {label: 66 a 70 anos, min: 65, max: 70}
`))
	require.NoError(t, err)
	in, err := table.ReadCSV(strings.NewReader("institution_name,elder_age\nLar A,61\nLar A,66\nLar B,64\nLar B,\n"), table.CSVOptions{})
	require.NoError(t, err)

	files, err := runAnalyses(p, in, t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, 2, files[0].Linhas)

	medias := readSemicolonCSV(t, files[0].Arquivo)
	require.Len(t, medias, 3)
	assert.Equal(t, []string{"grupo", "media", "total"}, medias[0])
	assert.Equal(t, []string{"Lar A", "2"}, []string{medias[1][0], medias[1][2]})

	faixas := readSemicolonCSV(t, files[1].Arquivo)
	require.Len(t, faixas, 3)
	assert.Equal(t, []string{"", "61 a 65 anos", "2"}, faixas[1][:3])
	assert.Equal(t, []string{"", "66 a 70 anos", "1"}, faixas[2][:3])
}

func TestRunAnalysesMissingColumn(t *testing.T) {
	p, err := plan.Parse([]byte("analyses:\n  - {name: sexo, type: count, column: sex}\n"))
	require.NoError(t, err)
	in, err := table.ReadCSV(strings.NewReader(redcap), table.CSVOptions{})
	require.NoError(t, err)

	_, err = runAnalyses(p, in, t.TempDir(), zap.NewNop())
	assert.ErrorIs(t, err, table.ErrMissingColumn)
	assert.Contains(t, err.Error(), "sexo")
}

func TestZipFiles(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"camas.csv", "raca.csv"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("ILPI;x\r\n"), 0o644))
		paths = append(paths, path)
	}
	zipName := filepath.Join(dir, "relatorio.zip")
	require.NoError(t, zipFiles(zipName, dir, paths))

	r, err := zip.OpenReader(zipName)
	require.NoError(t, err)
	defer r.Close()
	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
		assert.Equal(t, zip.Deflate, f.Method)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"camas.csv", "raca.csv"}, names)
}

func TestZipFilesReportsCloseError(t *testing.T) {
	// /dev/full aceita a abertura e falha em toda escrita
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "camas.csv")
	require.NoError(t, os.WriteFile(path, []byte("ILPI;x\r\n"), 0o644))

	err := zipFiles("/dev/full", dir, []string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error closing zip")
}

func TestCSVOptions(t *testing.T) {
	defer func() { separator, latin1 = "", false }()

	p := &plan.Plan{Source: plan.Source{Separator: ";", Latin1: true}}
	opts := csvOptions(p)
	assert.Equal(t, ';', opts.Comma)
	assert.True(t, opts.Latin1)

	separator = ","
	assert.Equal(t, ',', csvOptions(p).Comma)

	separator = ""
	assert.Equal(t, ',', csvOptions(nil).Comma)
}
