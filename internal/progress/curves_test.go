package progress

import (
	"math"
	"testing"
	"time"

	"github.com/cleberrangel/painel-obras/internal/model"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestBuildPlannedCurve_LinearDistribution(t *testing.T) {
	front := model.WorkFront{
		Total:     140,
		StartDate: datePtr(2024, 1, 1),
		EndDate:   datePtr(2024, 1, 14),
	}

	curve := BuildPlannedCurve(front)
	if curve.Kind != KindLinear {
		t.Fatalf("tipo %q, esperado %q", curve.Kind, KindLinear)
	}

	// baldes terminando na segunda: 01/01 (1 dia), 08/01 (7 dias), 15/01 (6 dias)
	want := []struct {
		date  model.Date
		value float64
	}{
		{model.NewDate(2024, 1, 1), 10},
		{model.NewDate(2024, 1, 8), 80},
		{model.NewDate(2024, 1, 15), 140},
	}
	if len(curve.Points) != len(want) {
		t.Fatalf("pontos %+v, esperado %d", curve.Points, len(want))
	}
	for i, w := range want {
		p := curve.Points[i]
		if !p.Date.Equal(w.date.Time) || math.Abs(p.Value-w.value) > 1e-9 {
			t.Errorf("ponto %d = (%s, %v), esperado (%s, %v)", i, p.Date, p.Value, w.date, w.value)
		}
	}
}

func TestBuildPlannedCurve_WeeklyPlanTakesPrecedence(t *testing.T) {
	front := model.WorkFront{
		Total:     140,
		StartDate: datePtr(2024, 1, 1),
		EndDate:   datePtr(2024, 1, 14),
		WeeklyPlan: model.WeekValues{
			"2024-W02": model.Float(30),
			"2024-W01": model.Float(20),
			"2024-W03": nil,
		},
	}

	curve := BuildPlannedCurve(front)
	if curve.Kind != KindWeeklyPlan {
		t.Fatalf("tipo %q, esperado %q", curve.Kind, KindWeeklyPlan)
	}
	if len(curve.Points) != 2 {
		t.Fatalf("esperado 2 pontos, got %+v", curve.Points)
	}
	if curve.Points[0].Week != "2024-W01" || curve.Points[0].Value != 20 {
		t.Errorf("primeiro ponto %+v", curve.Points[0])
	}
	if curve.Points[1].Week != "2024-W02" || curve.Points[1].Value != 50 {
		t.Errorf("segundo ponto %+v", curve.Points[1])
	}
	if !curve.Points[1].Date.Equal(time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("eixo x deve ser a segunda-feira da semana, got %s", curve.Points[1].Date)
	}
}

func TestBuildPlannedCurve_ZeroPlanFallsBackToLinear(t *testing.T) {
	front := model.WorkFront{
		Total:      70,
		StartDate:  datePtr(2024, 1, 2),
		EndDate:    datePtr(2024, 1, 8),
		WeeklyPlan: model.WeekValues{"2024-W01": model.Float(0), "2024-W02": nil},
	}
	curve := BuildPlannedCurve(front)
	if curve.Kind != KindLinear {
		t.Fatalf("plano sem valores positivos deve usar distribuição linear, got %q", curve.Kind)
	}
	if math.Abs(curve.Last()-70) > 1e-9 {
		t.Errorf("acumulado final %v, esperado 70", curve.Last())
	}
}

func TestBuildPlannedCurve_Empty(t *testing.T) {
	cases := map[string]model.WorkFront{
		"sem datas":        {Total: 100},
		"total zero":       {StartDate: datePtr(2024, 1, 1), EndDate: datePtr(2024, 2, 1)},
		"fim antes início": {Total: 10, StartDate: datePtr(2024, 2, 1), EndDate: datePtr(2024, 1, 1)},
	}
	for name, front := range cases {
		if curve := BuildPlannedCurve(front); !curve.Empty() {
			t.Errorf("%s: esperado curva vazia, got %+v", name, curve)
		}
	}
}

func TestBuildPlannedCurve_CrossYearOrdering(t *testing.T) {
	front := model.WorkFront{
		WeeklyPlan: model.WeekValues{
			"2025-W01": model.Float(5),
			"2024-W52": model.Float(3),
			"2025-W02": model.Float(2),
		},
	}
	curve := BuildPlannedCurve(front)
	weeks := []string{"2024-W52", "2025-W01", "2025-W02"}
	values := []float64{3, 8, 10}
	for i := range weeks {
		if curve.Points[i].Week != weeks[i] || curve.Points[i].Value != values[i] {
			t.Fatalf("ponto %d = %+v, esperado %s/%v", i, curve.Points[i], weeks[i], values[i])
		}
	}
	if !curve.Points[1].Date.Equal(time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("2025-W01 deve começar em 2024-12-30, got %s", curve.Points[1].Date)
	}
}

func TestBuildActualCurve(t *testing.T) {
	front := model.WorkFront{
		WeeklyActual: model.WeekValues{
			"2024-W10": model.Float(4),
			"2024-W09": model.Float(6),
			"2024-W11": nil,
			"invalida": model.Float(100),
		},
	}
	curve := BuildActualCurve(front)
	if curve.Kind != KindActual || len(curve.Points) != 2 {
		t.Fatalf("curva inesperada %+v", curve)
	}
	if curve.Points[0].Value != 6 || curve.Points[1].Value != 10 {
		t.Errorf("acumulado %+v", curve.Points)
	}

	if empty := BuildActualCurve(model.WorkFront{}); !empty.Empty() {
		t.Errorf("sem realizado deve ser vazio")
	}
}

// A distribuição linear é monotônica e termina no total para qualquer intervalo
func TestLinearCurveProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	properties.Property("acumulado não decrescente e igual ao total", prop.ForAll(
		func(offset, span int, total float64) bool {
			start := model.DateOf(base.AddDate(0, 0, offset))
			end := model.DateOf(start.AddDate(0, 0, span))
			curve := BuildPlannedCurve(model.WorkFront{Total: total, StartDate: &start, EndDate: &end})
			if curve.Empty() {
				return false
			}
			previous := 0.0
			for _, p := range curve.Points {
				if p.Value+1e-9 < previous {
					return false
				}
				if p.Date.Weekday() != time.Monday {
					return false
				}
				previous = p.Value
			}
			return math.Abs(curve.Last()-total) < 1e-6
		},
		gen.IntRange(0, 700),
		gen.IntRange(0, 200),
		gen.Float64Range(0.5, 100000),
	))

	properties.TestingRun(t)
}
