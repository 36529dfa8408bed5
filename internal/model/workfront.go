package model

import (
	"math"
	"sort"
)

// PlaceholderName marca a frente sentinela usada apenas para registrar uma obra
// que ainda não possui frentes reais
const PlaceholderName = "---"

// WeekValues mapeia chave de semana ISO (YYYY-Www) para um valor.
// Valor nil representa célula em branco.
type WeekValues map[string]*float64

// Float retorna um ponteiro para v (atalho para montar WeekValues)
func Float(v float64) *float64 {
	return &v
}

// Sum soma os valores numéricos, tratando nil, NaN e Inf como zero
func (w WeekValues) Sum() float64 {
	total := 0.0
	for _, v := range w {
		total += valueOrZero(v)
	}
	return total
}

// HasPositive indica se existe ao menos um valor maior que zero
func (w WeekValues) HasPositive() bool {
	for _, v := range w {
		if valueOrZero(v) > 0 {
			return true
		}
	}
	return false
}

// Keys retorna as chaves em ordem lexical
func (w WeekValues) Keys() []string {
	keys := make([]string, 0, len(w))
	for k := range w {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone faz cópia profunda; nunca retorna nil
func (w WeekValues) Clone() WeekValues {
	out := make(WeekValues, len(w))
	for k, v := range w {
		if v == nil {
			out[k] = nil
			continue
		}
		val := *v
		out[k] = &val
	}
	return out
}

func valueOrZero(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0
	}
	return *v
}

// WorkFront é uma frente de trabalho de uma obra
type WorkFront struct {
	Project      string     `json:"obra"`
	Name         string     `json:"frente"`
	Total        float64    `json:"total"`
	StartDate    *Date      `json:"data_inicio"`
	EndDate      *Date      `json:"data_fim"`
	WeeklyActual WeekValues `json:"realizado_semanal"`
	WeeklyPlan   WeekValues `json:"planejamento_semanal"`

	// Campos derivados, recalculados a cada alteração e nunca persistidos
	YearPlanned     float64 `json:"ano_previsto"`
	YearActual      float64 `json:"ano_realizado"`
	PercentComplete float64 `json:"total_pct"`
}

// IsPlaceholder indica se a frente é a sentinela de obra vazia
func (f WorkFront) IsPlaceholder() bool {
	return f.Name == PlaceholderName
}

// Matches compara o identificador (obra, frente)
func (f WorkFront) Matches(project, name string) bool {
	return f.Project == project && f.Name == name
}

// Clone retorna uma cópia que não compartilha mapas nem datas
func (f WorkFront) Clone() WorkFront {
	out := f
	if f.StartDate != nil {
		d := *f.StartDate
		out.StartDate = &d
	}
	if f.EndDate != nil {
		d := *f.EndDate
		out.EndDate = &d
	}
	out.WeeklyActual = f.WeeklyActual.Clone()
	out.WeeklyPlan = f.WeeklyPlan.Clone()
	return out
}

// NewPlaceholder cria a linha sentinela de uma obra recém cadastrada
func NewPlaceholder(project string) WorkFront {
	return WorkFront{
		Project:      project,
		Name:         PlaceholderName,
		WeeklyActual: WeekValues{},
		WeeklyPlan:   WeekValues{},
	}
}
