package progress

import (
	"sort"

	"github.com/cleberrangel/painel-obras/internal/model"
)

// AllFronts é o valor do filtro de frente que seleciona todas
const AllFronts = "Todos"

// CompletedThreshold é o percentual a partir do qual a frente conta como concluída
const CompletedThreshold = 99.9

const (
	StatusFinished   = "Finalizado"
	StatusInProgress = "Em Andamento"
)

// Summary alimenta os cartões do painel
type Summary struct {
	Progress    float64 `json:"progresso"`
	Completed   int     `json:"concluidas"`
	FrontCount  int     `json:"total_frentes"`
	Status      string  `json:"status"`
	YearPlanned float64 `json:"ano_previsto"`
	YearActual  float64 `json:"ano_realizado"`
}

// Visible remove as frentes sentinela
func Visible(records []model.WorkFront) []model.WorkFront {
	out := make([]model.WorkFront, 0, len(records))
	for _, r := range records {
		if !r.IsPlaceholder() {
			out = append(out, r)
		}
	}
	return out
}

// Scope aplica os filtros do painel sobre as frentes visíveis.
// Obra vazia seleciona todas as obras; frente vazia ou "Todos" seleciona
// todas as frentes da obra.
func Scope(records []model.WorkFront, project, front string) []model.WorkFront {
	out := make([]model.WorkFront, 0, len(records))
	for _, r := range Visible(records) {
		if project != "" && r.Project != project {
			continue
		}
		if front != "" && front != AllFronts && r.Name != front {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Summarize calcula progresso agregado, frentes concluídas e status.
// Frente com total zero conta na quantidade mas não no denominador.
func Summarize(fronts []model.WorkFront) Summary {
	var s Summary
	names := make(map[string]bool)
	for _, f := range fronts {
		r := recalculateFront(f)
		s.YearPlanned += r.YearPlanned
		s.YearActual += r.YearActual
		if r.PercentComplete >= CompletedThreshold {
			s.Completed++
		}
		names[r.Name] = true
	}
	s.FrontCount = len(names)
	s.Progress = percent(s.YearActual, s.YearPlanned)

	s.Status = StatusInProgress
	if s.Progress >= 100 {
		s.Status = StatusFinished
	}
	return s
}

// Projects lista as obras distintas em ordem alfabética (inclui obras que só
// têm a frente sentinela)
func Projects(records []model.WorkFront) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, r := range records {
		if !seen[r.Project] {
			seen[r.Project] = true
			out = append(out, r.Project)
		}
	}
	sort.Strings(out)
	return out
}

// FrontNames lista as frentes reais de uma obra em ordem alfabética
func FrontNames(records []model.WorkFront, project string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, r := range Scope(records, project, AllFronts) {
		if !seen[r.Name] {
			seen[r.Name] = true
			out = append(out, r.Name)
		}
	}
	sort.Strings(out)
	return out
}
