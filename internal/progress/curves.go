package progress

import (
	"sort"
	"time"

	"github.com/cleberrangel/painel-obras/internal/model"
)

// CurveKind identifica a origem de uma curva
type CurveKind string

const (
	// KindWeeklyPlan curva montada a partir do planejamento semanal
	KindWeeklyPlan CurveKind = "planejado"
	// KindLinear curva prevista por distribuição linear do total
	KindLinear CurveKind = "linear"
	// KindActual curva do realizado
	KindActual CurveKind = "realizado"
)

// Point é um ponto acumulado da curva
type Point struct {
	Date  model.Date `json:"data"`
	Week  string     `json:"semana"`
	Value float64    `json:"valor"`
}

// Curve é uma série acumulada; vazia quando não há dados
type Curve struct {
	Kind   CurveKind `json:"tipo,omitempty"`
	Points []Point   `json:"pontos"`
}

// Empty indica ausência de pontos (o gráfico omite o traço)
func (c Curve) Empty() bool {
	return len(c.Points) == 0
}

// Last retorna o valor acumulado final
func (c Curve) Last() float64 {
	if c.Empty() {
		return 0
	}
	return c.Points[len(c.Points)-1].Value
}

// sample é um incremento (não acumulado) em uma data
type sample struct {
	at    time.Time
	value float64
}

// BuildPlannedCurve monta a curva prevista acumulada de uma frente.
// Precedência: planejamento semanal com algum valor positivo; senão
// distribuição linear do total entre as datas; senão curva vazia.
func BuildPlannedCurve(front model.WorkFront) Curve {
	if front.WeeklyPlan.HasPositive() {
		return Curve{
			Kind:   KindWeeklyPlan,
			Points: cumulative(weeklySamples(front.WeeklyPlan)),
		}
	}

	if daily := linearDaily(front); len(daily) > 0 {
		return Curve{
			Kind:   KindLinear,
			Points: cumulative(resample(daily, weekEndingMonday, nextWeek)),
		}
	}

	return Curve{Points: []Point{}}
}

// BuildActualCurve monta a curva realizada acumulada em ordem cronológica
func BuildActualCurve(front model.WorkFront) Curve {
	samples := weeklySamples(front.WeeklyActual)
	if len(samples) == 0 {
		return Curve{Points: []Point{}}
	}
	return Curve{
		Kind:   KindActual,
		Points: cumulative(samples),
	}
}

// plannedIncrements retorna os incrementos previstos (antes do acumulado)
func plannedIncrements(front model.WorkFront) []sample {
	if front.WeeklyPlan.HasPositive() {
		return weeklySamples(front.WeeklyPlan)
	}
	return linearDaily(front)
}

// weeklySamples converte o mapa semanal em amostras na segunda-feira de cada
// semana, ignorando valores nil e chaves inválidas
func weeklySamples(values model.WeekValues) []sample {
	byMonday := make(map[time.Time]float64, len(values))
	for key, v := range values {
		if v == nil {
			continue
		}
		monday, err := ParseWeekKey(key)
		if err != nil {
			continue
		}
		byMonday[monday] += finiteOrZero(*v)
	}
	return sortedSamples(byMonday)
}

// linearDaily distribui o total igualmente entre os dias de [início, fim]
func linearDaily(front model.WorkFront) []sample {
	if front.StartDate == nil || front.EndDate == nil || front.StartDate.IsZero() || front.EndDate.IsZero() {
		return nil
	}
	total := finiteOrZero(front.Total)
	if total <= 0 {
		return nil
	}

	start := front.StartDate.Time
	end := front.EndDate.Time
	if end.Before(start) {
		return nil
	}

	days := int(end.Sub(start).Hours()/24) + 1
	share := total / float64(days)

	out := make([]sample, 0, days)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, sample{at: d, value: share})
	}
	return out
}

// resample soma amostras por balde e preenche com zero os baldes vazios entre
// o primeiro e o último
func resample(samples []sample, bucketOf, next func(time.Time) time.Time) []sample {
	if len(samples) == 0 {
		return nil
	}

	sums := make(map[time.Time]float64)
	for _, s := range samples {
		sums[bucketOf(s.at)] += s.value
	}

	ordered := sortedSamples(sums)
	first := ordered[0].at
	last := ordered[len(ordered)-1].at

	out := make([]sample, 0, len(ordered))
	for b := first; !b.After(last); b = next(b) {
		out = append(out, sample{at: b, value: sums[b]})
	}
	return out
}

func cumulative(samples []sample) []Point {
	points := make([]Point, 0, len(samples))
	running := 0.0
	for _, s := range samples {
		running += s.value
		points = append(points, Point{
			Date:  model.DateOf(s.at),
			Week:  WeekKey(s.at),
			Value: running,
		})
	}
	return points
}

func sortedSamples(byDate map[time.Time]float64) []sample {
	out := make([]sample, 0, len(byDate))
	for at, v := range byDate {
		out = append(out, sample{at: at, value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].at.Before(out[j].at) })
	return out
}

func nextWeek(t time.Time) time.Time {
	return t.AddDate(0, 0, 7)
}

func nextMonth(t time.Time) time.Time {
	return t.AddDate(0, 1, 0)
}
