package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/cleberrangel/painel-obras/internal/logger"
	"github.com/cleberrangel/painel-obras/internal/metrics"
	"github.com/cleberrangel/painel-obras/internal/model"
	"github.com/cleberrangel/painel-obras/internal/progress"
	"github.com/cleberrangel/painel-obras/internal/repository"
)

// Operações que disparam notificação de alteração
const (
	OperationLoad         = "carregar"
	OperationSave         = "salvar"
	OperationAddProject   = "adicionar_obra"
	OperationAddFront     = "adicionar_frente"
	OperationEditFront    = "editar_frente"
	OperationDeleteFront  = "excluir_frente"
	OperationRecordActual = "lancar_realizado"
	OperationFilters      = "filtros"
)

// DocumentStore é o armazenamento do documento de frentes
type DocumentStore interface {
	Load(ctx context.Context) (*repository.LoadResult, error)
	Save(ctx context.Context, records []model.WorkFront) error
	Path() string
}

// Filters é a seleção corrente do painel
type Filters struct {
	Project   string               `json:"obra"`
	Front     string               `json:"frente"`
	Timescale progress.Granularity `json:"escala"`
}

// Change descreve uma alteração aplicada à coleção
type Change struct {
	Operation string
	Project   string
	Front     string
}

// Status resume o estado da coleção em memória
type Status struct {
	DataFile     string    `json:"arquivo"`
	Found        bool      `json:"arquivo_encontrado"`
	LoadError    string    `json:"erro_carga,omitempty"`
	Warnings     int       `json:"avisos"`
	Dirty        bool      `json:"alteracoes_pendentes"`
	Records      int       `json:"registros"`
	Projects     int       `json:"obras"`
	Fronts       int       `json:"frentes"`
	LastLoad     time.Time `json:"ultima_carga,omitempty"`
	LastSave     time.Time `json:"ultima_gravacao,omitempty"`
	HistoryReady bool      `json:"historico_habilitado"`
}

// ObraService mantém a coleção de frentes e a seleção do painel.
// Toda alteração valida, muta uma cópia, recalcula e só então substitui
// a coleção; entrada inválida não deixa mutação parcial.
type ObraService struct {
	mu      sync.RWMutex
	records []model.WorkFront
	filters Filters
	status  Status

	storage DocumentStore
	history *HistoryService

	subMu       sync.RWMutex
	subscribers []func(Change)
}

// NewObraService cria o serviço com coleção vazia; history pode ser nil
func NewObraService(storage DocumentStore, history *HistoryService) *ObraService {
	if history == nil {
		history = NewHistoryService(nil)
	}
	return &ObraService{
		records: []model.WorkFront{},
		filters: Filters{Front: progress.AllFronts, Timescale: progress.Weekly},
		status:  Status{DataFile: storage.Path(), HistoryReady: history.Enabled()},
		storage: storage,
		history: history,
	}
}

// Subscribe registra um observador chamado após cada alteração
func (s *ObraService) Subscribe(fn func(Change)) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *ObraService) notify(change Change) {
	s.subMu.RLock()
	subs := make([]func(Change), len(s.subscribers))
	copy(subs, s.subscribers)
	s.subMu.RUnlock()

	for _, fn := range subs {
		fn(change)
	}
}

// Load lê o documento e substitui a coleção. Documento estruturalmente
// inválido resulta em coleção vazia com o erro registrado no Status.
func (s *ObraService) Load(ctx context.Context) error {
	log := logger.Get(ctx)

	result, err := s.storage.Load(ctx)
	metrics.Get().IncrementLoad(err == nil)
	if err != nil {
		logger.AuditDocument(ctx, logger.AuditActionDataLoad, s.storage.Path(), 0, err)
		if ctx.Err() != nil {
			return err
		}
		log.Error().Err(err).Str("path", s.storage.Path()).Msg("Erro ao carregar dados; iniciando com coleção vazia")
		s.replace(nil, Status{LoadError: err.Error()})
		s.notify(Change{Operation: OperationLoad})
		return err
	}

	records := progress.Recalculate(result.Records)
	s.replace(records, Status{Found: result.Found, Warnings: len(result.Warnings)})

	logger.AuditDocument(ctx, logger.AuditActionDataLoad, s.storage.Path(), len(records), nil)
	log.Info().
		Int("records", len(records)).
		Int("warnings", len(result.Warnings)).
		Bool("found", result.Found).
		Msg("Dados carregados")

	s.notify(Change{Operation: OperationLoad})
	return nil
}

func (s *ObraService) replace(records []model.WorkFront, st Status) {
	if records == nil {
		records = []model.WorkFront{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = records
	s.filters = Filters{Front: progress.AllFronts, Timescale: s.filters.Timescale}
	if projects := progress.Projects(records); len(projects) > 0 {
		s.filters.Project = projects[0]
	}

	st.DataFile = s.storage.Path()
	st.HistoryReady = s.history.Enabled()
	st.LastSave = s.status.LastSave
	st.LastLoad = time.Now()
	s.status = st
}

// Save grava a coleção inteira e registra a gravação no histórico
func (s *ObraService) Save(ctx context.Context) error {
	s.mu.RLock()
	records := cloneRecords(s.records)
	s.mu.RUnlock()

	err := s.storage.Save(ctx, records)
	metrics.Get().IncrementSave(err == nil)
	logger.AuditDocument(ctx, logger.AuditActionDataSave, s.storage.Path(), len(records), err)
	if err != nil {
		return fmt.Errorf("falha ao salvar dados: %w", err)
	}

	s.mu.Lock()
	s.status.Dirty = false
	s.status.LastSave = time.Now()
	s.mu.Unlock()

	if err := s.history.Record(ctx, records, s.storage.Path()); err != nil {
		logger.Get(ctx).Warn().Err(err).Msg("Gravação concluída, mas o histórico não foi registrado")
	}

	s.notify(Change{Operation: OperationSave})
	return nil
}

// Projects lista as obras em ordem alfabética
func (s *ObraService) Projects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return progress.Projects(s.records)
}

// Fronts lista as frentes reais de uma obra
func (s *ObraService) Fronts(project string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !hasProject(s.records, project) {
		return nil, fmt.Errorf("%w: %s", model.ErrProjectNotFound, project)
	}
	return progress.FrontNames(s.records, project), nil
}

// Snapshot retorna uma cópia recalculada da coleção
func (s *ObraService) Snapshot() []model.WorkFront {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRecords(s.records)
}

// Front retorna uma frente pelo identificador
func (s *ObraService) Front(project, name string) (model.WorkFront, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := findFront(s.records, project, name)
	if idx < 0 || s.records[idx].IsPlaceholder() {
		return model.WorkFront{}, fmt.Errorf("%w: %s / %s", model.ErrFrontNotFound, project, name)
	}
	return s.records[idx].Clone(), nil
}

// Status retorna o estado corrente
func (s *ObraService) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.status
	st.Records = len(s.records)
	st.Projects = len(progress.Projects(s.records))
	st.Fronts = len(progress.Visible(s.records))
	return st
}

// AddProject cadastra uma obra com a frente sentinela
func (s *ObraService) AddProject(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)

	err := s.mutate(func(records []model.WorkFront) ([]model.WorkFront, error) {
		if name == "" {
			return nil, model.NewValidationError("nome", "o nome da obra não pode estar vazio")
		}
		if hasProject(records, name) {
			return nil, model.NewValidationError("nome", "a obra '%s' já existe", name)
		}
		return append(records, model.NewPlaceholder(name)), nil
	})

	s.finishMutation(ctx, logger.AuditActionObraCreate, Change{Operation: OperationAddProject, Project: name}, err)
	return err
}

// AddFront cadastra uma frente em uma obra existente
func (s *ObraService) AddFront(ctx context.Context, req model.FrontRequest) error {
	front, err := frontFromRequest(req)

	if err == nil {
		err = s.mutate(func(records []model.WorkFront) ([]model.WorkFront, error) {
			if !hasProject(records, front.Project) {
				return nil, fmt.Errorf("%w: %s", model.ErrProjectNotFound, front.Project)
			}
			if findFront(records, front.Project, front.Name) >= 0 {
				return nil, model.NewValidationError("frente", "a frente '%s' já existe", front.Name)
			}
			front.WeeklyActual = model.WeekValues{}
			return append(records, front), nil
		})
	}

	s.finishMutation(ctx, logger.AuditActionFrenteCreate,
		Change{Operation: OperationAddFront, Project: strings.TrimSpace(req.Project), Front: strings.TrimSpace(req.Name)}, err)
	return err
}

// EditFront substitui os dados cadastrais de uma frente preservando o realizado.
// A obra da frente não muda; o nome pode ser alterado.
func (s *ObraService) EditFront(ctx context.Context, project, name string, req model.FrontRequest) error {
	req.Project = project
	front, err := frontFromRequest(req)

	if err == nil {
		err = s.mutate(func(records []model.WorkFront) ([]model.WorkFront, error) {
			idx := findFront(records, project, name)
			if idx < 0 || records[idx].IsPlaceholder() {
				return nil, fmt.Errorf("%w: %s / %s", model.ErrFrontNotFound, project, name)
			}
			if dup := findFront(records, front.Project, front.Name); dup >= 0 && dup != idx {
				return nil, model.NewValidationError("frente", "a frente '%s' já existe", front.Name)
			}
			front.WeeklyActual = records[idx].WeeklyActual.Clone()
			records[idx] = front
			return records, nil
		})
	}

	s.finishMutation(ctx, logger.AuditActionFrenteUpdate,
		Change{Operation: OperationEditFront, Project: project, Front: strings.TrimSpace(req.Name)}, err)
	return err
}

// DeleteFront remove uma frente; remover a sentinela remove a obra vazia
func (s *ObraService) DeleteFront(ctx context.Context, project, name string) error {
	err := s.mutate(func(records []model.WorkFront) ([]model.WorkFront, error) {
		idx := findFront(records, project, name)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s / %s", model.ErrFrontNotFound, project, name)
		}
		return append(records[:idx], records[idx+1:]...), nil
	})

	s.finishMutation(ctx, logger.AuditActionFrenteDelete,
		Change{Operation: OperationDeleteFront, Project: project, Front: name}, err)
	return err
}

// RecordActual mescla valores realizados semanais; valores nulos são ignorados.
// Chaves como "2024-W1" são gravadas na forma canônica.
func (s *ObraService) RecordActual(ctx context.Context, project, name string, values model.WeekValues) error {
	values, err := normalizeWeekValues("realizado", values)

	if err == nil {
		err = s.mutate(func(records []model.WorkFront) ([]model.WorkFront, error) {
			idx := findFront(records, project, name)
			if idx < 0 || records[idx].IsPlaceholder() {
				return nil, fmt.Errorf("%w: %s / %s", model.ErrFrontNotFound, project, name)
			}
			actual := records[idx].WeeklyActual.Clone()
			for key, v := range values {
				if v != nil {
					actual[key] = model.Float(*v)
				}
			}
			records[idx].WeeklyActual = actual
			return records, nil
		})
	}

	s.finishMutation(ctx, logger.AuditActionRealizadoRecord,
		Change{Operation: OperationRecordActual, Project: project, Front: name}, err)
	return err
}

// Filters retorna a seleção corrente
func (s *ObraService) Filters() Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

// SetFilters altera a seleção. Trocar a obra volta a frente para "Todos".
func (s *ObraService) SetFilters(req model.FiltersRequest) (Filters, error) {
	s.mu.Lock()

	next := s.filters
	if req.Project != nil {
		project := strings.TrimSpace(*req.Project)
		if project != "" && !hasProject(s.records, project) {
			s.mu.Unlock()
			return next, fmt.Errorf("%w: %s", model.ErrProjectNotFound, project)
		}
		if project != next.Project {
			next.Front = progress.AllFronts
		}
		next.Project = project
	}
	if req.Front != nil {
		front := strings.TrimSpace(*req.Front)
		if front == "" {
			front = progress.AllFronts
		}
		next.Front = front
	}
	if req.Timescale != nil {
		next.Timescale = parseTimescale(*req.Timescale)
	}

	s.filters = next
	s.mu.Unlock()

	s.notify(Change{Operation: OperationFilters, Project: next.Project, Front: next.Front})
	return next, nil
}

// mutate aplica fn sobre uma cópia da coleção e substitui a original em caso de sucesso
func (s *ObraService) mutate(fn func([]model.WorkFront) ([]model.WorkFront, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(cloneRecords(s.records))
	if err != nil {
		return err
	}
	s.records = progress.Recalculate(next)
	if s.records == nil {
		s.records = []model.WorkFront{}
	}
	s.status.Dirty = true

	if s.filters.Project == "" {
		if projects := progress.Projects(s.records); len(projects) > 0 {
			s.filters.Project = projects[0]
		}
	}
	return nil
}

func (s *ObraService) finishMutation(ctx context.Context, action logger.AuditAction, change Change, err error) {
	metrics.Get().IncrementMutation(err == nil)
	logger.AuditMutation(ctx, action, change.Project, change.Front, err)
	if err != nil {
		logger.Get(ctx).Warn().Err(err).Str("operation", change.Operation).Msg("Alteração rejeitada")
		return
	}
	s.notify(change)
}

// frontFromRequest valida os campos cadastrais de uma frente
func frontFromRequest(req model.FrontRequest) (model.WorkFront, error) {
	project := strings.TrimSpace(req.Project)
	name := strings.TrimSpace(req.Name)

	if project == "" || name == "" || req.Total == nil || req.StartDate == nil || req.EndDate == nil ||
		req.StartDate.IsZero() || req.EndDate.IsZero() {
		return model.WorkFront{}, model.NewValidationError("", "todos os campos principais são obrigatórios")
	}
	if name == model.PlaceholderName {
		return model.WorkFront{}, model.NewValidationError("frente", "nome de frente reservado: %s", name)
	}
	total := *req.Total
	if math.IsNaN(total) || math.IsInf(total, 0) || total < 0 {
		return model.WorkFront{}, model.NewValidationError("total", "total inválido")
	}
	if req.EndDate.Before(*req.StartDate) {
		return model.WorkFront{}, model.NewValidationError("data_fim", "a data de fim não pode ser anterior à data de início")
	}
	plan, err := normalizeWeekValues("planejamento_semanal", req.WeeklyPlan)
	if err != nil {
		return model.WorkFront{}, err
	}
	if planned := plan.Sum(); planned > total {
		return model.WorkFront{}, model.NewValidationError("planejamento_semanal",
			"o planejado (%g) excede o total (%g)", planned, total)
	}

	start, end := *req.StartDate, *req.EndDate
	return model.WorkFront{
		Project:    project,
		Name:       name,
		Total:      total,
		StartDate:  &start,
		EndDate:    &end,
		WeeklyPlan: plan,
	}, nil
}

// normalizeWeekValues valida os valores e devolve uma cópia com as chaves canônicas
func normalizeWeekValues(field string, values model.WeekValues) (model.WeekValues, error) {
	out := make(model.WeekValues, len(values))
	for key, v := range values {
		canonical, ok := progress.NormalizeWeekKey(key)
		if !ok {
			return nil, model.NewValidationError(field, "semana inválida: %s", key)
		}
		if _, dup := out[canonical]; dup {
			return nil, model.NewValidationError(field, "semana %s informada mais de uma vez", canonical)
		}
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0) {
			return nil, model.NewValidationError(field, "valor inválido na semana %s", key)
		}
		if v != nil {
			v = model.Float(*v)
		}
		out[canonical] = v
	}
	return out, nil
}

func parseTimescale(s string) progress.Granularity {
	if g, ok := progress.ParseGranularity(s); ok {
		return g
	}
	return progress.Weekly
}

func hasProject(records []model.WorkFront, project string) bool {
	for _, r := range records {
		if r.Project == project {
			return true
		}
	}
	return false
}

func findFront(records []model.WorkFront, project, name string) int {
	for i, r := range records {
		if r.Matches(project, name) {
			return i
		}
	}
	return -1
}

func cloneRecords(records []model.WorkFront) []model.WorkFront {
	out := make([]model.WorkFront, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
