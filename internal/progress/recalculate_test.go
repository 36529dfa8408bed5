package progress

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/cleberrangel/painel-obras/internal/model"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestRecalculate_Empty(t *testing.T) {
	got := Recalculate([]model.WorkFront{})
	if got == nil || len(got) != 0 {
		t.Fatalf("esperado fatia vazia, got %#v", got)
	}
	if Recalculate(nil) != nil {
		t.Errorf("nil deve ser devolvido como veio")
	}
}

func TestRecalculate_DerivedFields(t *testing.T) {
	records := []model.WorkFront{
		{
			Project: "Obra A",
			Name:    "Fundação",
			Total:   200,
			WeeklyActual: model.WeekValues{
				"2024-W01": model.Float(50),
				"2024-W02": nil,
				"2024-W03": model.Float(25.5),
			},
		},
		{Project: "Obra A", Name: "Estrutura", Total: 0, WeeklyActual: model.WeekValues{"2024-W01": model.Float(10)}},
		{Project: "Obra A", Name: "Acabamento", Total: math.NaN(), WeeklyActual: nil},
	}

	got := Recalculate(records)

	if got[0].YearPlanned != 200 || got[0].YearActual != 75.5 {
		t.Errorf("fundação: previsto=%v realizado=%v", got[0].YearPlanned, got[0].YearActual)
	}
	if got[0].PercentComplete != 37.75 {
		t.Errorf("fundação: percentual %v, esperado 37.75", got[0].PercentComplete)
	}
	if got[1].PercentComplete != 0 || got[1].YearActual != 10 {
		t.Errorf("total zero deve resultar em 0%%, got %v", got[1].PercentComplete)
	}
	if got[2].Total != 0 || got[2].PercentComplete != 0 || got[2].WeeklyActual == nil {
		t.Errorf("total inválido deve virar zero e mapas vazios: %#v", got[2])
	}

	if records[0].PercentComplete != 0 {
		t.Errorf("a entrada não deve ser alterada")
	}
}

func base2024() time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func genWeekValues() gopter.Gen {
	return gen.SliceOfN(8, gen.Float64Range(-50, 500)).Map(func(values []float64) model.WeekValues {
		out := model.WeekValues{}
		for i, v := range values {
			key := WeekKey(base2024().AddDate(0, 0, 7*i))
			if i%3 == 2 {
				out[key] = nil
				continue
			}
			out[key] = model.Float(v)
		}
		return out
	})
}

func genFront() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf(0.0, 10.0, 100.0, 1234.5),
		genWeekValues(),
	).Map(func(values []interface{}) model.WorkFront {
		return model.WorkFront{
			Project:      "Obra",
			Name:         "Frente",
			Total:        values[0].(float64),
			WeeklyActual: values[1].(model.WeekValues),
			WeeklyPlan:   model.WeekValues{},
		}
	})
}

func TestRecalculateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("percentual zero quando total é zero", prop.ForAll(
		func(actual model.WeekValues) bool {
			got := Recalculate([]model.WorkFront{{Total: 0, WeeklyActual: actual}})
			return got[0].PercentComplete == 0
		},
		genWeekValues(),
	))

	properties.Property("ano realizado é a soma dos valores não nulos", prop.ForAll(
		func(f model.WorkFront) bool {
			want := 0.0
			for _, v := range f.WeeklyActual {
				if v != nil {
					want += *v
				}
			}
			got := Recalculate([]model.WorkFront{f})
			return math.Abs(got[0].YearActual-want) < 1e-9 && got[0].YearPlanned == f.Total
		},
		genFront(),
	))

	properties.Property("recalcular é idempotente", prop.ForAll(
		func(fronts []model.WorkFront) bool {
			once := Recalculate(fronts)
			twice := Recalculate(once)
			return reflect.DeepEqual(once, twice)
		},
		gen.SliceOf(genFront()),
	))

	properties.TestingRun(t)
}
