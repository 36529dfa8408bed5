package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cleberrangel/painel-obras/internal/logger"
	"github.com/cleberrangel/painel-obras/internal/model"
	"github.com/cleberrangel/painel-obras/internal/progress"
)

// Colunas do documento persistido, na ordem em que são gravadas
const (
	ColumnProject      = "Obra"
	ColumnFront        = "Frente"
	ColumnTotal        = "Total"
	ColumnStartDate    = "Data Início"
	ColumnEndDate      = "Data Fim"
	ColumnWeeklyActual = "Realizado por Semana"
	ColumnWeeklyPlan   = "Planejamento Semanal"
)

// DocumentColumns lista as colunas gravadas; colunas derivadas nunca são persistidas
var DocumentColumns = []string{
	ColumnProject,
	ColumnFront,
	ColumnTotal,
	ColumnStartDate,
	ColumnEndDate,
	ColumnWeeklyActual,
	ColumnWeeklyPlan,
}

// splitDocument é o layout orientado por colunas ("split") do arquivo de dados
type splitDocument struct {
	Columns []string            `json:"columns"`
	Index   []json.RawMessage   `json:"index"`
	Data    [][]json.RawMessage `json:"data"`
}

// LoadResult é o resultado da carga do documento
type LoadResult struct {
	Records  []model.WorkFront
	Warnings []*model.DataFormatError
	// Found indica se havia documento com conteúdo no disco
	Found bool
}

// DocumentStorage lê e grava a coleção de frentes em um único arquivo JSON
type DocumentStorage struct {
	mu   sync.Mutex
	path string
}

// NewDocumentStorage cria o storage para o arquivo em path
func NewDocumentStorage(path string) *DocumentStorage {
	return &DocumentStorage{path: path}
}

// Path retorna o caminho do arquivo de dados
func (s *DocumentStorage) Path() string {
	return s.path
}

// Load lê o documento inteiro. Arquivo ausente ou vazio não é erro: retorna
// coleção vazia com Found=false.
func (s *DocumentStorage) Load(ctx context.Context) (*LoadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(bytes.TrimSpace(raw)) == 0) {
		logger.Get(ctx).Warn().Str("path", s.path).Msg("Nenhum dado salvo encontrado")
		return &LoadResult{Records: []model.WorkFront{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ler documento %s: %w", s.path, err)
	}

	result, err := Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decodificar documento %s: %w", s.path, err)
	}
	result.Found = true

	for _, w := range result.Warnings {
		logger.Get(ctx).Warn().Str("path", s.path).Err(w).Msg("Valor malformado substituído pelo padrão")
	}
	return result, nil
}

// Save substitui o documento inteiro. A escrita vai para um arquivo temporário
// no mesmo diretório que depois é renomeado sobre o original.
func (s *DocumentStorage) Save(ctx context.Context, records []model.WorkFront) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("criar diretório %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("criar arquivo temporário: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := Encode(tmp, records); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync arquivo temporário: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("fechar arquivo temporário: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("substituir documento %s: %w", s.path, err)
	}

	logger.Get(ctx).Info().
		Str("path", s.path).
		Int("records", len(records)).
		Msg("Documento gravado")
	return nil
}

// Encode grava os registros no formato split com indentação de 4 espaços
func Encode(w io.Writer, records []model.WorkFront) error {
	doc := splitDocument{
		Columns: DocumentColumns,
		Index:   make([]json.RawMessage, 0, len(records)),
		Data:    make([][]json.RawMessage, 0, len(records)),
	}

	for i, r := range records {
		row := make([]json.RawMessage, 0, len(DocumentColumns))
		for _, cell := range []interface{}{
			r.Project,
			r.Name,
			finiteOrZero(r.Total),
			dateCell(r.StartDate),
			dateCell(r.EndDate),
			weekCell(r.WeeklyActual),
			weekCell(r.WeeklyPlan),
		} {
			b, err := marshalCell(cell)
			if err != nil {
				return fmt.Errorf("linha %d: %w", i, err)
			}
			row = append(row, b)
		}
		doc.Index = append(doc.Index, json.RawMessage(strconv.Itoa(i)))
		doc.Data = append(doc.Data, row)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("codificar documento: %w", err)
	}
	return nil
}

// Decode lê um documento split. Células malformadas viram valores padrão e são
// relatadas em Warnings; apenas JSON inválido ou a ausência das colunas de
// identificação falham a carga.
func Decode(r io.Reader) (*LoadResult, error) {
	var doc splitDocument
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidDocument, err)
	}

	columns := make(map[string]int, len(doc.Columns))
	for i, name := range doc.Columns {
		columns[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{ColumnProject, ColumnFront} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: coluna %q ausente", model.ErrInvalidDocument, required)
		}
	}

	result := &LoadResult{Records: make([]model.WorkFront, 0, len(doc.Data))}
	warn := func(row int, column, format string, args ...interface{}) {
		result.Warnings = append(result.Warnings, &model.DataFormatError{
			Row:     row,
			Column:  column,
			Message: fmt.Sprintf(format, args...),
		})
	}

	for _, optional := range []string{ColumnTotal, ColumnStartDate, ColumnEndDate, ColumnWeeklyActual, ColumnWeeklyPlan} {
		if _, ok := columns[optional]; !ok {
			warn(-1, optional, "coluna ausente, usando valor padrão")
		}
	}

	seen := make(map[[2]string]bool, len(doc.Data))
	for rowIdx, row := range doc.Data {
		cell := func(column string) json.RawMessage {
			i, ok := columns[column]
			if !ok || i >= len(row) {
				return nil
			}
			return row[i]
		}

		project, err := parseText(cell(ColumnProject))
		if err != nil {
			warn(rowIdx, ColumnProject, "%v", err)
		}
		name, err := parseText(cell(ColumnFront))
		if err != nil {
			warn(rowIdx, ColumnFront, "%v", err)
		}
		if project == "" || name == "" {
			warn(rowIdx, ColumnFront, "linha sem obra ou frente ignorada")
			continue
		}
		key := [2]string{project, name}
		if seen[key] {
			warn(rowIdx, ColumnFront, "frente duplicada %q/%q ignorada", project, name)
			continue
		}
		seen[key] = true

		front := model.WorkFront{Project: project, Name: name}

		if front.Total, err = parseNumber(cell(ColumnTotal)); err != nil {
			warn(rowIdx, ColumnTotal, "%v", err)
		}
		if front.StartDate, err = parseDateCell(cell(ColumnStartDate)); err != nil {
			warn(rowIdx, ColumnStartDate, "%v", err)
		}
		if front.EndDate, err = parseDateCell(cell(ColumnEndDate)); err != nil {
			warn(rowIdx, ColumnEndDate, "%v", err)
		}
		if front.WeeklyActual, err = parseWeekValues(cell(ColumnWeeklyActual)); err != nil {
			warn(rowIdx, ColumnWeeklyActual, "%v", err)
		}
		if front.WeeklyPlan, err = parseWeekValues(cell(ColumnWeeklyPlan)); err != nil {
			warn(rowIdx, ColumnWeeklyPlan, "%v", err)
		}

		result.Records = append(result.Records, front)
	}

	return result, nil
}

func marshalCell(v interface{}) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codificar célula: %w", err)
	}
	return b, nil
}

func dateCell(d *model.Date) interface{} {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.String()
}

// weekCell converte o mapa para gravação; NaN e Inf viram célula em branco
func weekCell(w model.WeekValues) map[string]*float64 {
	out := make(map[string]*float64, len(w))
	for k, v := range w {
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			out[k] = nil
			continue
		}
		val := *v
		out[k] = &val
	}
	return out
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || string(trimmed) == "null"
}

func parseText(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	var v interface{}
	if err := decodeNumber(raw, &v); err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), nil
	case json.Number:
		return t.String(), nil
	}
	return "", fmt.Errorf("texto esperado, encontrado %s", string(raw))
}

// parseNumber aceita número ou string numérica; o restante vira zero
func parseNumber(raw json.RawMessage) (float64, error) {
	if isNull(raw) {
		return 0, nil
	}
	var v interface{}
	if err := decodeNumber(raw, &v); err != nil {
		return 0, err
	}
	var (
		f   float64
		err error
	)
	switch t := v.(type) {
	case json.Number:
		f, err = t.Float64()
	case string:
		if strings.TrimSpace(t) == "" {
			return 0, nil
		}
		f, err = strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		err = fmt.Errorf("tipo não numérico")
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("número inválido %s", string(raw))
	}
	return f, nil
}

// parseDateCell aceita string ISO (data ou data-hora) ou epoch em milissegundos
func parseDateCell(raw json.RawMessage) (*model.Date, error) {
	if isNull(raw) {
		return nil, nil
	}
	var v interface{}
	if err := decodeNumber(raw, &v); err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return nil, nil
		}
		d, err := model.ParseDate(t)
		if err != nil {
			return nil, err
		}
		return &d, nil
	case json.Number:
		ms, err := t.Int64()
		if err != nil {
			f, ferr := t.Float64()
			if ferr != nil {
				return nil, fmt.Errorf("epoch inválido %s", t)
			}
			ms = int64(f)
		}
		d := model.DateFromEpochMillis(ms)
		return &d, nil
	}
	return nil, fmt.Errorf("data inválida %s", string(raw))
}

// parseWeekValues aceita objeto {semana: valor}; valores não numéricos viram
// célula em branco. Chaves fora da forma canônica são convertidas e, se a
// semana já existir na forma canônica, descartadas.
func parseWeekValues(raw json.RawMessage) (model.WeekValues, error) {
	out := model.WeekValues{}
	if isNull(raw) {
		return out, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return out, fmt.Errorf("mapa semanal inválido %s", string(raw))
	}

	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	// canônicas primeiro para prevalecerem sobre as variações
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := progress.IsWeekKey(keys[i]), progress.IsWeekKey(keys[j])
		if ci != cj {
			return ci
		}
		return keys[i] < keys[j]
	})

	var invalid, renamed, dropped []string
	for _, key := range keys {
		canonical, ok := progress.NormalizeWeekKey(key)
		if !ok {
			dropped = append(dropped, key)
			continue
		}
		if canonical != key {
			if _, exists := out[canonical]; exists {
				dropped = append(dropped, key)
				continue
			}
			renamed = append(renamed, key+" -> "+canonical)
		}

		value := m[key]
		if isNull(value) {
			out[canonical] = nil
			continue
		}
		f, err := parseNumber(value)
		if err != nil {
			out[canonical] = nil
			invalid = append(invalid, key)
			continue
		}
		out[canonical] = model.Float(f)
	}

	var problems []string
	if len(invalid) > 0 {
		problems = append(problems, "valores não numéricos nas semanas "+strings.Join(invalid, ", "))
	}
	if len(renamed) > 0 {
		problems = append(problems, "semanas convertidas para a forma canônica "+strings.Join(renamed, ", "))
	}
	if len(dropped) > 0 {
		problems = append(problems, "semanas inválidas ou repetidas ignoradas "+strings.Join(dropped, ", "))
	}
	if len(problems) > 0 {
		return out, errors.New(strings.Join(problems, "; "))
	}
	return out, nil
}

func decodeNumber(raw json.RawMessage, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("célula inválida: %w", err)
	}
	return nil
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
