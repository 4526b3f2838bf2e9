package plan

import (
	"os"
	"path/filepath"
	"testing"

	"analiseilpi/risk"
	"analiseilpi/table"
	"analiseilpi/transform"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const perfil = `
name: perfil-epidemiologico
source:
  separator: ";"
entity:
  column: institution_name
  name: ILPI
propagation:
  discriminator: institution_name
  keys: [cpf, full_name, institution_name]
analyses:
  - name: natureza
    type: labels
    column: institution_type
    label: Natureza
    codes:
      3: Pública
      1: Filantrópica
      2: [Privada, com fins lucrativos]
  - name: morbidades
    type: multiselect_drop
    label: Morbidades
    options:
      - {column: morbidities___1, label: Hipertensão}
      - {column: morbidities___2, label: Diabetes}
  - name: fragilidade
    type: risk
    risk:
      include_no_risk: false
      aggregation: latest
      order: redcap_repeat_instance
      tiers:
        - label: Idoso longevo
          conditions:
            - {column: elder_age, min: 80}
            - {column: falls_number, not_in: [1]}
        - label: Sem data
          conditions:
            - {column: admission_date, missing: true}
`

func TestParse(t *testing.T) {
	p, err := Parse([]byte(perfil))
	require.NoError(t, err)
	assert.Equal(t, "perfil-epidemiologico", p.Name)
	assert.Equal(t, ';', p.Comma())
	require.NotNil(t, p.Propagation)
	assert.Equal(t, []string{"cpf", "full_name", "institution_name"}, p.Propagation.Keys)
	require.Len(t, p.Analyses, 3)

	want := table.CodeMap{
		{Code: 3, Label: "Pública"},
		{Code: 1, Label: "Filantrópica"},
		{Code: 2, Label: "Privada"},
		{Code: 2, Label: "com fins lucrativos"},
	}
	if diff := cmp.Diff(want, p.Analyses[0].CodeMap()); diff != "" {
		t.Errorf("codes mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Natureza", p.Analyses[0].OutputLabel())
	assert.Equal(t, "Hipertensão", p.Analyses[1].MultiSelectOptions()[0].Label)

	opts := p.TransformOptions()
	assert.Equal(t, "institution_name", opts.EntityColumn)
	assert.Equal(t, "ILPI", opts.EntityName)
	assert.Equal(t, "Não informado", opts.NotInformed)
}

func TestClassifierFromPlan(t *testing.T) {
	p, err := Parse([]byte(perfil))
	require.NoError(t, err)
	c, err := p.Analyses[2].Classifier()
	require.NoError(t, err)
	assert.False(t, c.IncludeNoRisk)
	assert.Equal(t, risk.Latest, c.Strategy)
	assert.Equal(t, "redcap_repeat_instance", c.OrderColumn)
	require.Len(t, c.Tiers, 2)

	in := table.New("cpf", "institution_name", "full_name", "redcap_repeat_instance", "elder_age", "falls_number", "admission_date")
	in.AppendValues(table.TextValue("011"), table.TextValue("Lar A"), table.TextValue("ANA"), table.IntValue(1),
		table.IntValue(85), table.IntValue(2), table.TextValue("2023-01-10"))
	in.AppendValues(table.TextValue("022"), table.TextValue("Lar A"), table.TextValue("BIA"), table.IntValue(1),
		table.IntValue(85), table.IntValue(1), table.NA())
	in.AppendValues(table.TextValue("033"), table.TextValue("Lar A"), table.TextValue("CAIO"), table.IntValue(1),
		table.IntValue(70), table.IntValue(1), table.TextValue("2023-01-10"))

	res, err := c.Classify(in)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, "Idoso longevo", res[0].Label)
	assert.Equal(t, "Sem data", res[1].Label)
	assert.False(t, res[2].Labeled())
}

func TestDefaultClassifier(t *testing.T) {
	a := Analysis{Name: "fragilidade", Type: Risk}
	c, err := a.Classifier()
	require.NoError(t, err)
	assert.True(t, c.IncludeNoRisk)
	assert.Equal(t, risk.Worst, c.Strategy)
	assert.Len(t, c.Tiers, 3)
	assert.Equal(t, risk.Critico, c.Tiers[0].Label)
}

func TestValidate(t *testing.T) {
	data := []struct {
		desc string
		in   string
		msg  string
	}{
		{"no analyses", "name: vazio\n", "no analyses"},
		{"unknown type", "analyses:\n  - {name: a, type: grafico}\n", `unknown type "grafico"`},
		{"binary without codes", "analyses:\n  - {name: a, type: binary, column: x}\n", "needs column and codes"},
		{"duplicated", "analyses:\n  - {name: a, type: count, column: x}\n  - {name: a, type: count, column: y}\n", "duplicated name"},
		{"risk summary clash", "analyses:\n  - {name: fragilidade, type: risk}\n  - {name: fragilidade_resumo, type: count, column: x}\n", "fragilidade_resumo.csv is written by another analysis"},
		{"risk summary clash, count first", "analyses:\n  - {name: fragilidade_resumo, type: count, column: x}\n  - {name: fragilidade, type: risk}\n", "fragilidade_resumo.csv is written by another analysis"},
		{"bins without bands", "analyses:\n  - {name: a, type: bins, column: elder_age}\n", "needs column and bands"},
		{"empty band", "analyses:\n  - {name: a, type: bins, column: elder_age, bands: [{label: x, min: 5, max: 5}]}\n", `band "x" needs a label and min < max`},
		{"mean without column", "analyses:\n  - {name: a, type: mean}\n", "needs column"},
		{"negative decimals", "analyses:\n  - {name: a, type: mean, column: elder_age, decimals: -1}\n", "decimals must not be negative"},
		{"bad name", "analyses:\n  - {name: a/b, type: count, column: x}\n", "name must use"},
		{"bad separator", "source: {separator: '|'}\nanalyses:\n  - {name: a, type: count, column: x}\n", "separator"},
		{"bad aggregation", "analyses:\n  - {name: a, type: risk, risk: {aggregation: pior}}\n", `unknown aggregation "pior"`},
		{"order without latest", "analyses:\n  - {name: a, type: risk, risk: {order: visita}}\n", "order only applies"},
		{"code not integer", "analyses:\n  - {name: a, type: binary, column: x, codes: {sim: 1}}\n", "is not an integer"},
	}
	for _, d := range data {
		t.Run(d.desc, func(t *testing.T) {
			_, err := Parse([]byte(d.in))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidPlan)
			assert.Contains(t, err.Error(), d.msg)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plano.yaml")
	require.NoError(t, os.WriteFile(path, []byte(perfil), 0o644))
	p, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, p.Analyses, 3)

	_, err = Load(filepath.Join(t.TempDir(), "nao-existe.yaml"))
	assert.Error(t, err)
}

func TestConditionPredicate(t *testing.T) {
	hi := 3.0
	c := ConditionConfig{Column: "x", In: []int64{3, 4}, Max: &hi}
	p := c.Predicate()
	assert.True(t, p(table.IntValue(3)))
	assert.False(t, p(table.IntValue(4)))
	assert.False(t, p(table.NA()))

	answered := ConditionConfig{Column: "x"}.Predicate()
	assert.True(t, answered(table.TextValue("qualquer")))
	assert.False(t, answered(table.NA()))
}

func TestLoadExamplePlan(t *testing.T) {
	p, err := Load(filepath.Join("..", "planos", "perfil_epidemiologico.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "perfil-epidemiologico", p.Name)
	require.Len(t, p.Analyses, 12)
	assert.Len(t, p.Analyses[4].Options, 20)
	assert.Equal(t, p.Analyses[4].Options, p.Analyses[5].Options)

	label, ok := p.Analyses[1].CodeMap().Lookup(5)
	assert.True(t, ok)
	assert.Equal(t, "Indígena", label)

	natureza := p.Analyses[8]
	assert.Equal(t, Labels, natureza.Type)
	assert.Equal(t, []string{"Privada", "com fins lucrativos"}, natureza.CodeMap().Matches(table.IntValue(3)))

	assert.Equal(t, Mean, p.Analyses[9].Type)
	assert.Equal(t, 1, p.Analyses[9].Places())

	idades := p.Analyses[10].TransformBands()
	require.Len(t, idades, 8)
	assert.Equal(t, transform.Band{Label: "61 a 65 anos", Min: 60, Max: 65}, idades[0])
	tempo := p.Analyses[11].TransformBands()
	require.Len(t, tempo, 7)
	assert.Equal(t, 50.0, tempo[6].Max)
}

func TestLoadStructurePlan(t *testing.T) {
	p, err := Load(filepath.Join("..", "planos", "estrutura_ilpi.yaml"))
	require.NoError(t, err)
	assert.Nil(t, p.Propagation)
	require.Len(t, p.Analyses, 5)
	staff := p.Analyses[2].StaffCategories()
	require.Len(t, staff, 12)
	assert.Equal(t, "days_per_month_n", staff[2].DaysColumn)
}
