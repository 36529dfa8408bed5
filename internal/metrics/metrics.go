package metrics

import (
	"context"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// EndpointMetrics acumula métricas de um endpoint
type EndpointMetrics struct {
	Requests     int64
	Errors       int64
	TotalLatency int64
}

// Metrics guarda todas as métricas da aplicação
type Metrics struct {
	mu sync.RWMutex

	// Requisições
	TotalRequests      int64
	SuccessfulRequests int64
	FailedRequests     int64
	RateLimited        int64

	// Latência das requisições (ms)
	TotalLatency int64
	RequestCount int64

	// Alterações na coleção de frentes
	Mutations      int64
	MutationErrors int64

	// Documento
	Loads      int64
	LoadErrors int64
	Saves      int64
	SaveErrors int64

	// Painel e exportação
	DashboardViews int64
	Exports        int64
	ExportErrors   int64

	// WebSocket
	WSConnections int64
	WSMessagesIn  int64
	WSMessagesOut int64

	EndpointMetrics map[string]*EndpointMetrics

	StartTime time.Time
}

var globalMetrics *Metrics
var once sync.Once

// New cria uma instância isolada (usada em testes)
func New() *Metrics {
	return &Metrics{
		StartTime:       time.Now(),
		EndpointMetrics: make(map[string]*EndpointMetrics),
	}
}

// Init inicializa a instância global
func Init() {
	once.Do(func() {
		globalMetrics = New()
	})
}

// Get retorna a instância global
func Get() *Metrics {
	Init()
	return globalMetrics
}

// IncrementRequests incrementa os contadores de requisição
func (m *Metrics) IncrementRequests(success bool, latencyMs int64) {
	atomic.AddInt64(&m.TotalRequests, 1)
	atomic.AddInt64(&m.TotalLatency, latencyMs)
	atomic.AddInt64(&m.RequestCount, 1)

	if success {
		atomic.AddInt64(&m.SuccessfulRequests, 1)
	} else {
		atomic.AddInt64(&m.FailedRequests, 1)
	}
}

// IncrementRateLimited conta requisições rejeitadas pelo limitador
func (m *Metrics) IncrementRateLimited() {
	atomic.AddInt64(&m.RateLimited, 1)
}

// IncrementMutation conta cadastro, edição, exclusão e lançamento de andamento
func (m *Metrics) IncrementMutation(success bool) {
	if success {
		atomic.AddInt64(&m.Mutations, 1)
	} else {
		atomic.AddInt64(&m.MutationErrors, 1)
	}
}

// IncrementLoad conta cargas do documento
func (m *Metrics) IncrementLoad(success bool) {
	atomic.AddInt64(&m.Loads, 1)
	if !success {
		atomic.AddInt64(&m.LoadErrors, 1)
	}
}

// IncrementSave conta gravações do documento
func (m *Metrics) IncrementSave(success bool) {
	if success {
		atomic.AddInt64(&m.Saves, 1)
	} else {
		atomic.AddInt64(&m.SaveErrors, 1)
	}
}

// IncrementDashboardView conta montagens do painel (sem cache)
func (m *Metrics) IncrementDashboardView() {
	atomic.AddInt64(&m.DashboardViews, 1)
}

// IncrementExport conta exportações para Excel
func (m *Metrics) IncrementExport(success bool) {
	if success {
		atomic.AddInt64(&m.Exports, 1)
	} else {
		atomic.AddInt64(&m.ExportErrors, 1)
	}
}

// IncrementWSConnection incrementa conexões WebSocket ativas
func (m *Metrics) IncrementWSConnection() {
	atomic.AddInt64(&m.WSConnections, 1)
}

// DecrementWSConnection decrementa conexões WebSocket ativas
func (m *Metrics) DecrementWSConnection() {
	atomic.AddInt64(&m.WSConnections, -1)
}

// IncrementWSMessageIn conta mensagens recebidas
func (m *Metrics) IncrementWSMessageIn() {
	atomic.AddInt64(&m.WSMessagesIn, 1)
}

// IncrementWSMessageOut conta mensagens enviadas
func (m *Metrics) IncrementWSMessageOut() {
	atomic.AddInt64(&m.WSMessagesOut, 1)
}

// TrackEndpoint registra métricas de um endpoint (path é a rota, não a URL)
func (m *Metrics) TrackEndpoint(path, method string, statusCode int, latencyMs int64) {
	key := method + " " + path

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.EndpointMetrics == nil {
		m.EndpointMetrics = make(map[string]*EndpointMetrics)
	}

	em, exists := m.EndpointMetrics[key]
	if !exists {
		em = &EndpointMetrics{}
		m.EndpointMetrics[key] = em
	}

	em.Requests++
	em.TotalLatency += latencyMs
	if statusCode >= 400 {
		em.Errors++
	}
}

// GetEndpointMetrics retorna uma cópia das métricas por endpoint
func (m *Metrics) GetEndpointMetrics() map[string]EndpointMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]EndpointMetrics, len(m.EndpointMetrics))
	for k, v := range m.EndpointMetrics {
		result[k] = *v
	}
	return result
}

// GetAverageLatency retorna a latência média em ms
func (m *Metrics) GetAverageLatency() float64 {
	count := atomic.LoadInt64(&m.RequestCount)
	if count == 0 {
		return 0
	}
	total := atomic.LoadInt64(&m.TotalLatency)
	return float64(total) / float64(count)
}

// GetUptime retorna o tempo desde a inicialização
func (m *Metrics) GetUptime() time.Duration {
	return time.Since(m.StartTime)
}

// EndpointMetricsSnapshot são as métricas de um endpoint no snapshot
type EndpointMetricsSnapshot struct {
	Requests     int64   `json:"requests"`
	Errors       int64   `json:"errors"`
	ErrorRate    float64 `json:"error_rate"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// MetricsSnapshot é uma fotografia das métricas
type MetricsSnapshot struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
	StartTime     string  `json:"start_time"`

	Requests struct {
		Total        int64   `json:"total"`
		Successful   int64   `json:"successful"`
		Failed       int64   `json:"failed"`
		RateLimited  int64   `json:"rate_limited"`
		AvgLatencyMs float64 `json:"avg_latency_ms"`
	} `json:"requests"`

	Mutations struct {
		Applied  int64 `json:"applied"`
		Rejected int64 `json:"rejected"`
	} `json:"mutations"`

	Document struct {
		Loads      int64 `json:"loads"`
		LoadErrors int64 `json:"load_errors"`
		Saves      int64 `json:"saves"`
		SaveErrors int64 `json:"save_errors"`
	} `json:"document"`

	Dashboard struct {
		Views        int64 `json:"views"`
		Exports      int64 `json:"exports"`
		ExportErrors int64 `json:"export_errors"`
	} `json:"dashboard"`

	WebSocket struct {
		Connections int64 `json:"connections"`
		MessagesIn  int64 `json:"messages_in"`
		MessagesOut int64 `json:"messages_out"`
	} `json:"websocket"`

	System struct {
		Goroutines   int    `json:"goroutines"`
		HeapAllocMB  uint64 `json:"heap_alloc_mb"`
		HeapInUseMB  uint64 `json:"heap_inuse_mb"`
		StackInUseMB uint64 `json:"stack_inuse_mb"`
		NumGC        uint32 `json:"num_gc"`
	} `json:"system"`

	Endpoints map[string]EndpointMetricsSnapshot `json:"endpoints,omitempty"`

	// preenchidos pelo handler: pool só quando o histórico usa banco
	DatabasePool interface{} `json:"database_pool,omitempty"`
	ViewCache    interface{} `json:"view_cache,omitempty"`
}

// Snapshot retorna as métricas atuais
func (m *Metrics) Snapshot() MetricsSnapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	snapshot := MetricsSnapshot{}

	snapshot.UptimeSeconds = m.GetUptime().Seconds()
	snapshot.StartTime = m.StartTime.Format(time.RFC3339)

	snapshot.Requests.Total = atomic.LoadInt64(&m.TotalRequests)
	snapshot.Requests.Successful = atomic.LoadInt64(&m.SuccessfulRequests)
	snapshot.Requests.Failed = atomic.LoadInt64(&m.FailedRequests)
	snapshot.Requests.RateLimited = atomic.LoadInt64(&m.RateLimited)
	snapshot.Requests.AvgLatencyMs = m.GetAverageLatency()

	snapshot.Mutations.Applied = atomic.LoadInt64(&m.Mutations)
	snapshot.Mutations.Rejected = atomic.LoadInt64(&m.MutationErrors)

	snapshot.Document.Loads = atomic.LoadInt64(&m.Loads)
	snapshot.Document.LoadErrors = atomic.LoadInt64(&m.LoadErrors)
	snapshot.Document.Saves = atomic.LoadInt64(&m.Saves)
	snapshot.Document.SaveErrors = atomic.LoadInt64(&m.SaveErrors)

	snapshot.Dashboard.Views = atomic.LoadInt64(&m.DashboardViews)
	snapshot.Dashboard.Exports = atomic.LoadInt64(&m.Exports)
	snapshot.Dashboard.ExportErrors = atomic.LoadInt64(&m.ExportErrors)

	snapshot.WebSocket.Connections = atomic.LoadInt64(&m.WSConnections)
	snapshot.WebSocket.MessagesIn = atomic.LoadInt64(&m.WSMessagesIn)
	snapshot.WebSocket.MessagesOut = atomic.LoadInt64(&m.WSMessagesOut)

	snapshot.System.Goroutines = runtime.NumGoroutine()
	snapshot.System.HeapAllocMB = memStats.HeapAlloc / 1024 / 1024
	snapshot.System.HeapInUseMB = memStats.HeapInuse / 1024 / 1024
	snapshot.System.StackInUseMB = memStats.StackInuse / 1024 / 1024
	snapshot.System.NumGC = memStats.NumGC

	endpointMetrics := m.GetEndpointMetrics()
	if len(endpointMetrics) > 0 {
		snapshot.Endpoints = make(map[string]EndpointMetricsSnapshot, len(endpointMetrics))
		for k, v := range endpointMetrics {
			em := EndpointMetricsSnapshot{
				Requests: v.Requests,
				Errors:   v.Errors,
			}
			if v.Requests > 0 {
				em.ErrorRate = float64(v.Errors) / float64(v.Requests) * 100
				em.AvgLatencyMs = float64(v.TotalLatency) / float64(v.Requests)
			}
			snapshot.Endpoints[k] = em
		}
	}

	return snapshot
}

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthStatus é o estado de um componente
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency int64  `json:"latency_ms,omitempty"`
}

// HealthCheck é a resposta do readiness
type HealthCheck struct {
	Status     string                  `json:"status"`
	Version    string                  `json:"version"`
	Uptime     string                  `json:"uptime"`
	Timestamp  string                  `json:"timestamp"`
	Components map[string]HealthStatus `json:"components"`
}

// Pinger é satisfeito pelo repositório de histórico
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckDatabaseHealth verifica a conectividade com o banco
func CheckDatabaseHealth(ctx context.Context, db Pinger) HealthStatus {
	if db == nil {
		return HealthStatus{
			Status:  StatusUnhealthy,
			Message: "conexão com o banco não inicializada",
		}
	}

	start := time.Now()
	err := db.Ping(ctx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return HealthStatus{
			Status:  StatusUnhealthy,
			Message: err.Error(),
			Latency: latency,
		}
	}

	if latency > 100 {
		return HealthStatus{
			Status:  StatusDegraded,
			Message: "latência alta",
			Latency: latency,
		}
	}

	return HealthStatus{
		Status:  StatusHealthy,
		Latency: latency,
	}
}

// CheckDataFileHealth verifica o arquivo de dados. Arquivo ainda inexistente é
// aceitável (primeira execução) e o diretório precisa existir para gravar.
func CheckDataFileHealth(path string) HealthStatus {
	info, err := os.Stat(path)
	if err == nil {
		if info.IsDir() {
			return HealthStatus{Status: StatusUnhealthy, Message: "caminho de dados é um diretório"}
		}
		return HealthStatus{Status: StatusHealthy}
	}
	if os.IsNotExist(err) {
		return HealthStatus{Status: StatusDegraded, Message: "arquivo de dados ainda não foi gravado"}
	}
	return HealthStatus{Status: StatusUnhealthy, Message: err.Error()}
}

// CheckMemoryHealth verifica o uso de heap
func CheckMemoryHealth(maxHeapMB uint64) HealthStatus {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	heapMB := memStats.HeapAlloc / 1024 / 1024

	if heapMB > maxHeapMB {
		return HealthStatus{
			Status:  StatusUnhealthy,
			Message: "heap acima do limite",
		}
	}

	if heapMB > (maxHeapMB * 80 / 100) {
		return HealthStatus{
			Status:  StatusDegraded,
			Message: "uso de heap elevado",
		}
	}

	return HealthStatus{Status: StatusHealthy}
}

// DetermineOverallStatus combina os estados dos componentes
func DetermineOverallStatus(components map[string]HealthStatus) string {
	hasUnhealthy := false
	hasDegraded := false

	for _, status := range components {
		switch status.Status {
		case StatusUnhealthy:
			hasUnhealthy = true
		case StatusDegraded:
			hasDegraded = true
		}
	}

	if hasUnhealthy {
		return StatusUnhealthy
	}
	if hasDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}
