package progress

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cleberrangel/painel-obras/internal/model"
)

// Granularity é a escala de tempo do gráfico de evolução
type Granularity string

const (
	Weekly  Granularity = "semanal"
	Monthly Granularity = "mensal"
	Overall Granularity = "geral"
)

// OverallKey é a chave do balde único da visão geral
const OverallKey = "geral"

// OverallLabel é o rótulo do balde único da visão geral
const OverallLabel = "Visão Geral"

// ParseGranularity aceita os nomes em português e em inglês
func ParseGranularity(s string) (Granularity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "semanal", "weekly":
		return Weekly, true
	case "mensal", "monthly":
		return Monthly, true
	case "geral", "overall":
		return Overall, true
	}
	return "", false
}

// Title retorna o nome capitalizado ("Semanal", "Mensal", "Geral")
func (g Granularity) Title() string {
	if g == "" {
		return ""
	}
	return strings.ToUpper(string(g[:1])) + string(g[1:])
}

// Bucket é um período com os incrementos previsto e realizado somados
type Bucket struct {
	Key     string     `json:"chave"`
	Label   string     `json:"rotulo"`
	Start   model.Date `json:"data"`
	Planned float64    `json:"previsto"`
	Actual  float64    `json:"realizado"`
}

// PeriodSeries é o resultado da agregação por período, em ordem cronológica
type PeriodSeries struct {
	Granularity Granularity `json:"escala"`
	Buckets     []Bucket    `json:"baldes"`
	HasPlanned  bool        `json:"tem_previsto"`
	HasActual   bool        `json:"tem_realizado"`
}

// ByKey indexa os baldes pela chave
func (p PeriodSeries) ByKey() map[string]Bucket {
	out := make(map[string]Bucket, len(p.Buckets))
	for _, b := range p.Buckets {
		out[b.Key] = b
	}
	return out
}

// Totals soma previsto e realizado de todos os baldes
func (p PeriodSeries) Totals() (planned, actual float64) {
	for _, b := range p.Buckets {
		planned += b.Planned
		actual += b.Actual
	}
	return planned, actual
}

// AggregatePeriod agrega as frentes do escopo por período.
//
// Semanal e mensal somam os incrementos previstos (planejamento semanal ou
// distribuição linear) e realizados que caem em cada balde, de forma
// independente para cada série. A visão geral ignora a decomposição semanal e
// usa diretamente a soma de YearPlanned e YearActual: uma frente sem
// lançamentos contribui zero para semanal/mensal, mas o total previsto inteiro
// para a visão geral. Escala desconhecida é tratada como semanal.
func AggregatePeriod(fronts []model.WorkFront, g Granularity) PeriodSeries {
	if g == Overall {
		return aggregateOverall(fronts)
	}

	bucketOf, next, key, label := weeklyBuckets()
	if g == Monthly {
		bucketOf, next, key, label = monthlyBuckets()
	} else {
		g = Weekly
	}

	var planned, actual []sample
	for _, f := range fronts {
		planned = append(planned, plannedIncrements(f)...)
		actual = append(actual, weeklySamples(f.WeeklyActual)...)
	}

	plannedBuckets := resample(planned, bucketOf, next)
	actualBuckets := resample(actual, bucketOf, next)

	merged := make(map[time.Time]*Bucket)
	get := func(at time.Time) *Bucket {
		b, ok := merged[at]
		if !ok {
			b = &Bucket{Key: key(at), Label: label(at), Start: model.DateOf(at)}
			merged[at] = b
		}
		return b
	}
	for _, s := range plannedBuckets {
		get(s.at).Planned += s.value
	}
	for _, s := range actualBuckets {
		get(s.at).Actual += s.value
	}

	buckets := make([]Bucket, 0, len(merged))
	for _, b := range merged {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Start.Before(buckets[j].Start) })

	return PeriodSeries{
		Granularity: g,
		Buckets:     buckets,
		HasPlanned:  len(plannedBuckets) > 0,
		HasActual:   len(actualBuckets) > 0,
	}
}

func aggregateOverall(fronts []model.WorkFront) PeriodSeries {
	var planned, actual float64
	for _, f := range fronts {
		// derivados recalculados para não depender de quem chamou
		r := recalculateFront(f)
		planned += r.YearPlanned
		actual += r.YearActual
	}
	return PeriodSeries{
		Granularity: Overall,
		Buckets: []Bucket{{
			Key:     OverallKey,
			Label:   OverallLabel,
			Planned: planned,
			Actual:  actual,
		}},
		HasPlanned: true,
		HasActual:  true,
	}
}

func weeklyBuckets() (bucketOf, next func(time.Time) time.Time, key, label func(time.Time) string) {
	key = func(t time.Time) string { return t.Format(model.DateLayout) }
	label = func(t time.Time) string {
		return fmt.Sprintf("%s (%s)", t.Format("Jan"), WeekKey(t))
	}
	return weekEndingMonday, nextWeek, key, label
}

func monthlyBuckets() (bucketOf, next func(time.Time) time.Time, key, label func(time.Time) string) {
	key = func(t time.Time) string { return t.Format("2006-01") }
	return monthStart, nextMonth, key, key
}
