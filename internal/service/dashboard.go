package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cleberrangel/painel-obras/internal/cache"
	"github.com/cleberrangel/painel-obras/internal/logger"
	"github.com/cleberrangel/painel-obras/internal/metrics"
	"github.com/cleberrangel/painel-obras/internal/model"
	"github.com/cleberrangel/painel-obras/internal/progress"
)

// Modos do gráfico de desempenho
const (
	PerformanceSCurve = "curva_s"
	PerformanceBars   = "barras"
)

const (
	dashboardCachePrefix = "dashboard:"
	gaugeOverallTitle    = "Geral"
)

// Gauge é o indicador de progresso do painel
type Gauge struct {
	Title string  `json:"titulo"`
	Value float64 `json:"valor"`
}

// FrontBar é uma barra do gráfico de desempenho por frente
type FrontBar struct {
	Project string  `json:"obra"`
	Front   string  `json:"frente"`
	Percent float64 `json:"total_pct"`
}

// Performance é a curva S de uma frente ou as barras de todas as frentes
type Performance struct {
	Mode    string          `json:"modo"`
	Title   string          `json:"titulo"`
	Planned *progress.Curve `json:"previsto,omitempty"`
	Actual  *progress.Curve `json:"realizado,omitempty"`
	Bars    []FrontBar      `json:"barras,omitempty"`
}

// TableRow é uma linha da tabela de detalhes
type TableRow struct {
	Project   string  `json:"obra"`
	Front     string  `json:"frente"`
	Total     float64 `json:"total"`
	StartDate string  `json:"data_inicio"`
	EndDate   string  `json:"data_fim"`
	Percent   float64 `json:"total_pct"`
	Completed bool    `json:"concluida"`
}

// DashboardView é tudo que o painel desenha para uma seleção
type DashboardView struct {
	Filters        Filters               `json:"filtros"`
	Empty          bool                  `json:"vazio"`
	Summary        progress.Summary      `json:"resumo"`
	Gauge          Gauge                 `json:"indicador"`
	Performance    Performance           `json:"desempenho"`
	Evolution      progress.PeriodSeries `json:"evolucao"`
	EvolutionTitle string                `json:"titulo_evolucao"`
	Rows           []TableRow            `json:"tabela"`
}

// DashboardService monta as visões do painel a partir da coleção corrente
type DashboardService struct {
	obras    *ObraService
	cache    *cache.Cache[DashboardView]
	exporter *ExcelExporter
}

// NewDashboardService cria o serviço; c pode ser nil para desabilitar o cache
func NewDashboardService(obras *ObraService, c *cache.Cache[DashboardView]) *DashboardService {
	s := &DashboardService{obras: obras, cache: c, exporter: NewExcelExporter()}
	obras.Subscribe(s.onChange)
	return s
}

func (s *DashboardService) onChange(change Change) {
	if s.cache == nil {
		return
	}
	switch change.Operation {
	case OperationFilters:
	case OperationLoad:
		s.cache.Clear()
	default:
		s.cache.InvalidatePrefix(dashboardCachePrefix)
	}
}

// CacheStats retorna as estatísticas do cache de visões; false sem cache
func (s *DashboardService) CacheStats() (cache.Stats, bool) {
	if s.cache == nil {
		return cache.Stats{}, false
	}
	return s.cache.Stats(), true
}

// View monta a visão para a seleção informada; campos vazios usam a seleção corrente
func (s *DashboardService) View(ctx context.Context, f Filters) (DashboardView, error) {
	f = s.resolve(f)
	metrics.Get().IncrementDashboardView()

	if s.cache == nil {
		return s.build(f), nil
	}

	key := dashboardCachePrefix + cacheKey(f)
	view, err := s.cache.GetOrCompute(key, func() (DashboardView, error) {
		logger.Get(ctx).Debug().Str("key", key).Msg("Montando visão do painel")
		return s.build(f), nil
	})
	return view, err
}

// Evolution agrega o escopo da seleção por período
func (s *DashboardService) Evolution(f Filters) progress.PeriodSeries {
	f = s.resolve(f)
	scope := progress.Scope(s.obras.Snapshot(), f.Project, f.Front)
	return progress.AggregatePeriod(scope, f.Timescale)
}

// Export gera a planilha do escopo da seleção
func (s *DashboardService) Export(ctx context.Context, f Filters) (*bytes.Buffer, Filters, error) {
	f = s.resolve(f)
	scope := progress.Scope(s.obras.Snapshot(), f.Project, f.Front)

	buf, err := s.exporter.Generate(scope, f.Timescale)
	metrics.Get().IncrementExport(err == nil)
	logger.AuditDocument(ctx, logger.AuditActionDataExport, cacheKey(f), len(scope), err)
	if err != nil {
		return nil, f, err
	}
	return buf, f, nil
}

// Curves retorna as curvas prevista e realizada de uma frente
func (s *DashboardService) Curves(project, name string) (progress.Curve, progress.Curve, error) {
	front, err := s.obras.Front(project, name)
	if err != nil {
		return progress.Curve{}, progress.Curve{}, err
	}
	return progress.BuildPlannedCurve(front), progress.BuildActualCurve(front), nil
}

// WeekRow é uma linha do formulário de lançamento semanal
type WeekRow struct {
	Week    string   `json:"semana"`
	Label   string   `json:"rotulo"`
	Planned *float64 `json:"planejado"`
	Actual  *float64 `json:"realizado"`
}

// Weeks lista as semanas do período da frente com os valores já lançados
func (s *DashboardService) Weeks(project, name string) ([]WeekRow, error) {
	front, err := s.obras.Front(project, name)
	if err != nil {
		return nil, err
	}

	keys := progress.WeeksInRange(front.StartDate, front.EndDate)
	rows := make([]WeekRow, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, WeekRow{
			Week:    key,
			Label:   weekLabel(key),
			Planned: front.WeeklyPlan[key],
			Actual:  front.WeeklyActual[key],
		})
	}
	return rows, nil
}

// resolve completa a seleção com os filtros correntes do painel
func (s *DashboardService) resolve(f Filters) Filters {
	current := s.obras.Filters()
	if f.Project == "" {
		f.Project = current.Project
	}
	if f.Front == "" {
		f.Front = current.Front
		if f.Project != current.Project {
			f.Front = progress.AllFronts
		}
	}
	if f.Timescale == "" {
		f.Timescale = current.Timescale
	}
	f.Timescale = parseTimescale(string(f.Timescale))
	return f
}

func (s *DashboardService) build(f Filters) DashboardView {
	records := s.obras.Snapshot()
	projectScope := progress.Scope(records, f.Project, progress.AllFronts)
	scope := progress.Scope(records, f.Project, f.Front)
	singleFront := f.Front != progress.AllFronts

	view := DashboardView{
		Filters:        f,
		Empty:          len(progress.Visible(records)) == 0,
		Summary:        progress.Summarize(scope),
		Evolution:      progress.AggregatePeriod(scope, f.Timescale),
		EvolutionTitle: fmt.Sprintf("Evolução (%s)", f.Timescale.Title()),
		Rows:           tableRows(scope),
	}

	if singleFront && len(scope) > 0 {
		view.Gauge = Gauge{Title: f.Front, Value: scope[0].PercentComplete}

		planned := progress.BuildPlannedCurve(scope[0])
		actual := progress.BuildActualCurve(scope[0])
		view.Performance = Performance{
			Mode:    PerformanceSCurve,
			Title:   "Curva S: " + f.Front,
			Planned: &planned,
			Actual:  &actual,
		}
	} else {
		view.Gauge = Gauge{Title: gaugeOverallTitle, Value: view.Summary.Progress}
		view.Performance = Performance{
			Mode:  PerformanceBars,
			Title: fmt.Sprintf("Performance Geral (%s)", f.Project),
			Bars:  frontBars(projectScope),
		}
	}

	return view
}

func frontBars(fronts []model.WorkFront) []FrontBar {
	bars := make([]FrontBar, 0, len(fronts))
	for _, f := range fronts {
		bars = append(bars, FrontBar{Project: f.Project, Front: f.Name, Percent: f.PercentComplete})
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Percent < bars[j].Percent })
	return bars
}

func tableRows(fronts []model.WorkFront) []TableRow {
	rows := make([]TableRow, 0, len(fronts))
	for _, f := range fronts {
		rows = append(rows, TableRow{
			Project:   f.Project,
			Front:     f.Name,
			Total:     f.Total,
			StartDate: displayDate(f.StartDate),
			EndDate:   displayDate(f.EndDate),
			Percent:   f.PercentComplete,
			Completed: f.PercentComplete >= progress.CompletedThreshold,
		})
	}
	return rows
}

func displayDate(d *model.Date) string {
	if d == nil {
		return ""
	}
	return d.Display()
}

// weekLabel formata "Semana 05 (2024)"
func weekLabel(key string) string {
	year, week, ok := strings.Cut(key, "-W")
	if !ok {
		return key
	}
	return fmt.Sprintf("Semana %s (%s)", week, year)
}

func cacheKey(f Filters) string {
	return strings.Join([]string{f.Project, f.Front, string(f.Timescale)}, "|")
}
