package main

import (
	"analiseilpi/risk"
	"analiseilpi/table"
	"analiseilpi/transform"
	"github.com/dadosjusbr/datapackage"
)

type Contagem struct {
	Grupo     table.Value               `csv:"grupo" tableheader:"grupo"`
	Categoria table.Value               `csv:"categoria" tableheader:"categoria"`
	Total     int                       `csv:"total" tableheader:"total"`
	Proporcao datapackage.CustomFloat32 `csv:"proporcao" tableheader:"proporcao"`
}

type Media struct {
	Grupo table.Value               `csv:"grupo" tableheader:"grupo"`
	Media datapackage.CustomFloat32 `csv:"media" tableheader:"media"`
	Total int                       `csv:"total" tableheader:"total"`
}

type Profissional struct {
	ILPI         table.Value               `csv:"ilpi" tableheader:"ilpi"`
	Profissional string                    `csv:"profissional" tableheader:"profissional"`
	DiasMes      datapackage.CustomFloat32 `csv:"dias_mes" tableheader:"dias_mes"`
}

type Morbidade struct {
	ILPI       table.Value `csv:"ilpi" tableheader:"ilpi"`
	Nome       table.Value `csv:"nome" tableheader:"nome"`
	CPF        table.Value `csv:"cpf" tableheader:"cpf"`
	Morbidades string      `csv:"morbidades" tableheader:"morbidades"`
	Outras     string      `csv:"outras_morbidades" tableheader:"outras_morbidades"`
	Total      int         `csv:"total" tableheader:"total"`
}

type Medicamento struct {
	ILPI        table.Value `csv:"ilpi" tableheader:"ilpi"`
	Nome        table.Value `csv:"nome" tableheader:"nome"`
	CPF         table.Value `csv:"cpf" tableheader:"cpf"`
	Medicamento string      `csv:"medicamento" tableheader:"medicamento"`
	Dosagem     table.Value `csv:"dosagem" tableheader:"dosagem"`
	Tomadas     string      `csv:"tomadas_dia" tableheader:"tomadas_dia"`
}

type Risco struct {
	ILPI  table.Value `csv:"ilpi" tableheader:"ilpi"`
	CPF   table.Value `csv:"cpf" tableheader:"cpf"`
	Nome  table.Value `csv:"nome" tableheader:"nome"`
	Risco string      `csv:"risco" tableheader:"risco"`
}

type ResumoRisco struct {
	ILPI  table.Value `csv:"ilpi" tableheader:"ilpi"`
	Risco string      `csv:"risco" tableheader:"risco"`
	Total int         `csv:"total" tableheader:"total"`
}

func toContagens(counts []transform.Count) []Contagem {
	out := make([]Contagem, len(counts))
	for i, c := range counts {
		out[i] = Contagem{
			Grupo:     c.Group,
			Categoria: c.Category,
			Total:     c.Total,
			Proporcao: datapackage.CustomFloat32(c.Proportion),
		}
	}
	return out
}

func toMedias(means []transform.Mean) []Media {
	out := make([]Media, len(means))
	for i, m := range means {
		out[i] = Media{Grupo: m.Group, Media: datapackage.CustomFloat32(m.Mean), Total: m.Total}
	}
	return out
}

func toProfissionais(staff []transform.Staff) []Profissional {
	out := make([]Profissional, len(staff))
	for i, s := range staff {
		out[i] = Profissional{ILPI: s.Entity, Profissional: s.Professional, DiasMes: datapackage.CustomFloat32(s.DaysPerMonth)}
	}
	return out
}

func toMorbidades(ms []transform.Morbidity) []Morbidade {
	out := make([]Morbidade, len(ms))
	for i, m := range ms {
		out[i] = Morbidade{ILPI: m.Institution, Nome: m.Name, CPF: m.CPF, Morbidades: m.Morbidities, Outras: m.Other, Total: m.Total}
	}
	return out
}

func toMedicamentos(ms []transform.Medication) []Medicamento {
	out := make([]Medicamento, len(ms))
	for i, m := range ms {
		out[i] = Medicamento{ILPI: m.Institution, Nome: m.Name, CPF: m.CPF, Medicamento: m.Medication, Dosagem: m.Dosage, Tomadas: m.Taken}
	}
	return out
}

// toRiscos writes one line per resident; unlabeled ones get an empty risco.
// The name is the first carried column, when there is one.
func toRiscos(results []risk.Result) []Risco {
	out := make([]Risco, 0, len(results))
	for _, r := range results {
		nome := table.NA()
		if len(r.Carried) > 0 {
			nome = r.Carried[0]
		}
		out = append(out, Risco{ILPI: r.Group, CPF: r.Entity, Nome: nome, Risco: r.Label})
	}
	return out
}

func toResumo(summary []risk.SummaryRow) []ResumoRisco {
	out := make([]ResumoRisco, len(summary))
	for i, s := range summary {
		out[i] = ResumoRisco{ILPI: s.Group, Risco: s.Label, Total: s.Total}
	}
	return out
}
