package transform

import (
	"testing"

	"analiseilpi/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractProfessionals(t *testing.T) {
	profs := []Professional{
		{Name: "Enfermeiro", CountColumn: "nurse_number", DaysColumn: "nurse_days"},
		{Name: "Nutricionista", CountColumn: "nutri_number", DaysColumn: "nutri_days"},
	}
	in := table.New("institution_name", "nurse_number", "nurse_days", "nutri_number", "nutri_days")
	in.AppendValues(text("B"), code(2), table.FloatValue(21.66), code(0), code(4))
	in.AppendValues(text("A"), code(1), code(30), code(1), table.NA())
	in.AppendValues(text("C"), table.NA(), code(10), code(3), table.FloatValue(8.04))

	staff, err := ExtractProfessionals(in, profs, DefaultOptions())
	require.NoError(t, err)
	want := []Staff{
		{Entity: text("A"), Professional: "Enfermeiro", DaysPerMonth: 30},
		{Entity: text("B"), Professional: "Enfermeiro", DaysPerMonth: 21.7},
		{Entity: text("C"), Professional: "Nutricionista", DaysPerMonth: 8},
	}
	assert.Equal(t, want, staff)
}

func TestExtractProfessionalsMissingColumn(t *testing.T) {
	in := table.New("institution_name", "nurse_number")
	_, err := ExtractProfessionals(in, []Professional{{Name: "Enfermeiro", CountColumn: "nurse_number", DaysColumn: "nurse_days"}}, DefaultOptions())
	assert.ErrorIs(t, err, table.ErrMissingColumn)
}

func TestExtractMorbidities(t *testing.T) {
	in := table.New("institution_name", "full_name", "cpf", "morbidities___1", "morbidities___2", "morbidities___3", "other_morbidities")
	in.AppendValues(text("A"), text("ANA"), text("011"), code(1), code(0), code(1), text("Artrose; hipertensao"))
	in.AppendValues(text("A"), text("ANA"), text("011"), code(1), code(0), code(0), text("artrose , Hipertensão"))
	in.AppendValues(text("A"), text("BIA"), text("022"), code(0), code(0), code(0), table.NA())
	in.AppendValues(text("A"), text("CAIO"), table.NA(), code(1), code(0), code(0), table.NA())
	in.AppendValues(text("A"), text("DORA"), text("033"), code(0), code(1), code(0), table.NA())

	got, err := ExtractMorbidities(in, morbidityOptions(), "other_morbidities", DefaultResidentKeys())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "ANA", got[0].Name.String())
	assert.Equal(t, "011", got[0].CPF.String())
	assert.Equal(t, "Demência, Hipertensão", got[0].Morbidities)
	assert.Equal(t, "artrose, hipertensao", got[0].Other)
	assert.Equal(t, 4, got[0].Total)

	assert.Equal(t, "DORA", got[1].Name.String())
	assert.Equal(t, "Diabetes", got[1].Morbidities)
	assert.Equal(t, "", got[1].Other)
	assert.Equal(t, 1, got[1].Total)
}

func TestExtractMedications(t *testing.T) {
	spec := DefaultMedicationSpec()
	spec.Combinations = spec.Combinations[:1]
	in := table.New("institution_name", "full_name", "cpf", "redcap_repeat_instrument",
		"med_name", "dosage", "taken_daily", "combination_1", "combination_dosage")
	in.AppendValues(text("Lar b"), text("jose"), text("022"), table.NA(), table.NA(), table.NA(), table.NA(), table.NA(), table.NA())
	in.AppendValues(text("Lar a"), text("ana"), text("011"), text("medicamentos_em_uso"), text("Insulina"), text("10UI"), code(9), text("Metformina"), text("850mg"))
	in.AppendValues(table.NA(), table.NA(), table.NA(), text("medicamentos_em_uso"), text(" Losartana "), text("50mg"), code(2), table.NA(), table.NA())
	in.AppendValues(table.NA(), table.NA(), table.NA(), text("medicamentos_em_uso"), table.NA(), table.NA(), table.NA(), table.NA(), table.NA())

	got, err := ExtractMedications(in, spec)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "LAR A", got[0].Institution.String())
	assert.Equal(t, "ANA", got[0].Name.String())
	assert.Equal(t, "insulina", got[0].Medication)
	assert.Equal(t, "", got[0].Taken)
	assert.Equal(t, "metformina", got[1].Medication)
	assert.Equal(t, "850mg", got[1].Dosage.String())

	// linhas do instrumento sem chaves herdam as da linha anterior do instrumento
	assert.Equal(t, "011", got[2].CPF.String())
	assert.Equal(t, "losartana", got[2].Medication)
	assert.Equal(t, "2 x ao dia", got[2].Taken)
}
