package risk

// Colunas do bloco "componentes de fragilidade" do perfil epidemiológico.
const (
	WeightLoss      = "amount_weight_loss"
	Strength        = "elder_strenght"
	Hospitalized    = "elder_hospitalized"
	Difficulties    = "elder_difficulties"
	Mobility        = "elder_mobility"
	BasicActivities = "basic_activities_diffic"
	Falls           = "falls_number"
)

// FrailtyTiers returns the Crítico, Alerta and Atenção tiers of the
// frailty score used in the ILPI reports.
func FrailtyTiers() []Tier {
	return []Tier{
		{Label: Critico, Conditions: []Condition{
			{Column: WeightLoss, Match: In(2)},
			{Column: Strength, Match: In(1)},
			{Column: Hospitalized, Match: In(3, 4)},
			{Column: Difficulties, Match: In(1)},
			{Column: Mobility, Match: In(1)},
			{Column: BasicActivities, Match: In(1)},
			{Column: Falls, Match: In(3)},
		}},
		{Label: Alerta, Conditions: []Condition{
			{Column: WeightLoss, Match: In(1)},
			{Column: Strength, Match: In(1)},
			{Column: Hospitalized, Match: In(2, 3)},
			{Column: Difficulties, Match: In(2)},
			{Column: Mobility, Match: In(1)},
			{Column: BasicActivities, Match: In(1)},
			{Column: Falls, Match: In(2)},
		}},
		{Label: Atencao, Conditions: []Condition{
			{Column: WeightLoss, Match: In(1)},
			{Column: Strength, Match: In(2)},
			{Column: Hospitalized, Match: In(1)},
			{Column: Difficulties, Match: In(1)},
			{Column: Mobility, Match: In(2)},
			{Column: BasicActivities, Match: In(1)},
			{Column: Falls, Match: In(1)},
		}},
	}
}
