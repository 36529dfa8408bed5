package service

import (
	"bytes"
	"fmt"

	"github.com/cleberrangel/painel-obras/internal/model"
	"github.com/cleberrangel/painel-obras/internal/progress"
	"github.com/xuri/excelize/v2"
)

// Nomes das planilhas exportadas
const (
	SheetFronts    = "Frentes"
	SheetEvolution = "Evolução"
	SheetSCurve    = "Curva S"
)

var (
	frontHeaders     = []string{"Obra", "Frente", "Total", "Data Início", "Data Fim", "Ano (Previsto)", "Ano (Realizado)", "Total (%)"}
	evolutionHeaders = []string{"Período", "Início", "Previsto", "Realizado"}
	curveHeaders     = []string{"Obra", "Frente", "Série", "Semana", "Data", "Acumulado"}
)

// ExcelExporter gera a planilha do painel
type ExcelExporter struct{}

// NewExcelExporter cria um novo exportador
func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{}
}

// Generate gera o arquivo com as frentes do escopo, a evolução na escala
// escolhida e as curvas S de cada frente
func (g *ExcelExporter) Generate(fronts []model.WorkFront, scale progress.Granularity) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	// Renomeia a sheet padrão
	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, SheetFronts); err != nil {
		return nil, fmt.Errorf("renomear sheet: %w", err)
	}
	for _, name := range []string{SheetEvolution, SheetSCurve} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("criar sheet %s: %w", name, err)
		}
	}

	styles, err := newSheetStyles(f)
	if err != nil {
		return nil, fmt.Errorf("criar estilos: %w", err)
	}

	if err := g.writeFronts(f, styles, fronts); err != nil {
		return nil, fmt.Errorf("escrever frentes: %w", err)
	}
	if err := g.writeEvolution(f, styles, progress.AggregatePeriod(fronts, scale)); err != nil {
		return nil, fmt.Errorf("escrever evolução: %w", err)
	}
	if err := g.writeCurves(f, styles, fronts); err != nil {
		return nil, fmt.Errorf("escrever curva S: %w", err)
	}

	// Escreve para buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("escrever buffer: %w", err)
	}

	return buf, nil
}

type sheetStyles struct {
	header    int
	even      int
	odd       int
	completed int
}

func newSheetStyles(f *excelize.File) (*sheetStyles, error) {
	cellBorder := []excelize.Border{
		{Type: "left", Color: "D9D9D9", Style: 1},
		{Type: "top", Color: "D9D9D9", Style: 1},
		{Type: "bottom", Color: "D9D9D9", Style: 1},
		{Type: "right", Color: "D9D9D9", Style: 1},
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:  true,
			Size:  11,
			Color: "FFFFFF",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"4472C4"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, err
	}

	fill := func(color string) (int, error) {
		return f.NewStyle(&excelize.Style{
			Fill:   excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Border: cellBorder,
		})
	}

	s := &sheetStyles{header: header}
	if s.even, err = fill("FFFFFF"); err != nil {
		return nil, err
	}
	if s.odd, err = fill("F2F2F2"); err != nil {
		return nil, err
	}
	// mesmo destaque verde da tabela do painel
	if s.completed, err = fill("D4EDDA"); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *sheetStyles) row(i int) int {
	if i%2 == 1 {
		return s.odd
	}
	return s.even
}

// writeHeaders escreve os cabeçalhos e ajusta a largura das colunas
func writeHeaders(f *excelize.File, sheet string, style int, headers []string) error {
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
		colName, _ := excelize.ColumnNumberToName(col + 1)
		if err := f.SetColWidth(sheet, colName, colName, 20); err != nil {
			return err
		}
	}
	return nil
}

// writeRow escreve uma linha de dados (linha 1 é header)
func writeRow(f *excelize.File, sheet string, row int, style int, values []interface{}) error {
	for col, value := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

func (g *ExcelExporter) writeFronts(f *excelize.File, styles *sheetStyles, fronts []model.WorkFront) error {
	if err := writeHeaders(f, SheetFronts, styles.header, frontHeaders); err != nil {
		return err
	}

	for i, fr := range fronts {
		style := styles.row(i)
		if fr.PercentComplete >= progress.CompletedThreshold {
			style = styles.completed
		}
		values := []interface{}{
			fr.Project, fr.Name, fr.Total,
			displayDate(fr.StartDate), displayDate(fr.EndDate),
			fr.YearPlanned, fr.YearActual, fr.PercentComplete,
		}
		if err := writeRow(f, SheetFronts, i, style, values); err != nil {
			return err
		}
	}
	return nil
}

func (g *ExcelExporter) writeEvolution(f *excelize.File, styles *sheetStyles, series progress.PeriodSeries) error {
	if err := writeHeaders(f, SheetEvolution, styles.header, evolutionHeaders); err != nil {
		return err
	}

	for i, b := range series.Buckets {
		values := []interface{}{b.Label, b.Start.Display(), b.Planned, b.Actual}
		if err := writeRow(f, SheetEvolution, i, styles.row(i), values); err != nil {
			return err
		}
	}
	return nil
}

func (g *ExcelExporter) writeCurves(f *excelize.File, styles *sheetStyles, fronts []model.WorkFront) error {
	if err := writeHeaders(f, SheetSCurve, styles.header, curveHeaders); err != nil {
		return err
	}

	row := 0
	for _, fr := range fronts {
		for _, curve := range []progress.Curve{progress.BuildPlannedCurve(fr), progress.BuildActualCurve(fr)} {
			for _, p := range curve.Points {
				values := []interface{}{fr.Project, fr.Name, string(curve.Kind), p.Week, p.Date.Display(), p.Value}
				if err := writeRow(f, SheetSCurve, row, styles.row(row), values); err != nil {
					return err
				}
				row++
			}
		}
	}
	return nil
}
