package progress

import (
	"math"

	"github.com/cleberrangel/painel-obras/internal/model"
)

// Recalculate recompõe ano previsto, ano realizado e percentual de cada frente.
// Retorna uma nova fatia (a entrada não é alterada); coleção vazia é devolvida
// como veio. Os mapas semanais são compartilhados com a entrada.
func Recalculate(records []model.WorkFront) []model.WorkFront {
	if len(records) == 0 {
		return records
	}

	out := make([]model.WorkFront, len(records))
	for i, r := range records {
		out[i] = recalculateFront(r)
	}
	return out
}

func recalculateFront(f model.WorkFront) model.WorkFront {
	f.Total = finiteOrZero(f.Total)
	if f.WeeklyActual == nil {
		f.WeeklyActual = model.WeekValues{}
	}
	if f.WeeklyPlan == nil {
		f.WeeklyPlan = model.WeekValues{}
	}

	f.YearPlanned = f.Total
	f.YearActual = f.WeeklyActual.Sum()
	f.PercentComplete = percent(f.YearActual, f.YearPlanned)
	return f
}

// percent retorna actual/planned*100 com duas casas, ou 0 sem previsto
func percent(actual, planned float64) float64 {
	if planned <= 0 {
		return 0
	}
	return Round2(actual / planned * 100)
}

// Round2 arredonda para duas casas decimais
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
