package logger

import (
	"context"
	"time"
)

// AuditAction representa o tipo de ação auditada
type AuditAction string

const (
	// Cadastro
	AuditActionObraCreate   AuditAction = "OBRA_CREATE"
	AuditActionFrenteCreate AuditAction = "FRENTE_CREATE"
	AuditActionFrenteUpdate AuditAction = "FRENTE_UPDATE"
	AuditActionFrenteDelete AuditAction = "FRENTE_DELETE"

	// Andamento
	AuditActionRealizadoRecord AuditAction = "REALIZADO_RECORD"

	// Documento
	AuditActionDataLoad   AuditAction = "DATA_LOAD"
	AuditActionDataSave   AuditAction = "DATA_SAVE"
	AuditActionDataExport AuditAction = "DATA_EXPORT"

	// WebSocket
	AuditActionWSConnect    AuditAction = "WS_CONNECT"
	AuditActionWSDisconnect AuditAction = "WS_DISCONNECT"

	// API
	AuditActionAPIRequest AuditAction = "API_REQUEST"
	AuditActionAPIError   AuditAction = "API_ERROR"
)

// AuditEvent é uma entrada do log de auditoria
type AuditEvent struct {
	Action     AuditAction
	Resource   string
	ResourceID string
	Details    map[string]interface{}
	ClientIP   string
	RequestID  string
	Success    bool
	Error      string
	Duration   int64 // milissegundos
	Method     string
	Path       string
	StatusCode int
}

var auditLogger = globalLogger.With().Str("log_type", "audit").Logger()

// InitAudit inicializa o logger de auditoria a partir do global
func InitAudit() {
	auditLogger = globalLogger.With().Str("log_type", "audit").Logger()
}

// Audit registra um evento de auditoria
func Audit(ctx context.Context, event AuditEvent) {
	if event.RequestID == "" {
		event.RequestID = GetRequestID(ctx)
	}

	logEvent := auditLogger.Info()
	if !event.Success {
		logEvent = auditLogger.Warn()
	}

	logEvent.
		Str("action", string(event.Action)).
		Str("resource", event.Resource).
		Str("resource_id", event.ResourceID).
		Str("client_ip", event.ClientIP).
		Str("request_id", event.RequestID).
		Bool("success", event.Success).
		Time("timestamp", time.Now().UTC())

	if traceID := GetTraceID(ctx); traceID != "" {
		logEvent.Str("trace_id", traceID)
	}

	if event.Error != "" {
		logEvent.Str("error", event.Error)
	}

	if event.Duration > 0 {
		logEvent.Int64("duration_ms", event.Duration)
	}

	if event.Method != "" {
		logEvent.Str("method", event.Method)
	}

	if event.Path != "" {
		logEvent.Str("path", event.Path)
	}

	if event.StatusCode > 0 {
		logEvent.Int("status_code", event.StatusCode)
	}

	if len(event.Details) > 0 {
		logEvent.Interface("details", event.Details)
	}

	logEvent.Msg("Audit event")
}

// AuditMutation registra uma alteração na coleção de frentes
func AuditMutation(ctx context.Context, action AuditAction, project, front string, err error) {
	event := AuditEvent{
		Action:     action,
		Resource:   project,
		ResourceID: front,
		Success:    err == nil,
	}
	if err != nil {
		event.Error = err.Error()
	}
	Audit(ctx, event)
}

// AuditDocument registra carga, gravação ou exportação do documento
func AuditDocument(ctx context.Context, action AuditAction, path string, records int, err error) {
	event := AuditEvent{
		Action:     action,
		Resource:   "documento",
		ResourceID: path,
		Success:    err == nil,
		Details:    map[string]interface{}{"registros": records},
	}
	if err != nil {
		event.Error = err.Error()
	}
	Audit(ctx, event)
}

// AuditRequest registra uma requisição da API
func AuditRequest(ctx context.Context, method, path string, statusCode int, duration int64, clientIP string) {
	success := statusCode < 400
	action := AuditActionAPIRequest
	if !success {
		action = AuditActionAPIError
	}

	Audit(ctx, AuditEvent{
		Action:     action,
		Resource:   "api",
		ResourceID: path,
		Method:     method,
		Path:       path,
		StatusCode: statusCode,
		Duration:   duration,
		ClientIP:   clientIP,
		Success:    success,
	})
}

// AuditWebSocket registra eventos de conexão WebSocket
func AuditWebSocket(ctx context.Context, action AuditAction, clientID, clientIP string, details map[string]interface{}) {
	Audit(ctx, AuditEvent{
		Action:     action,
		Resource:   "websocket",
		ResourceID: clientID,
		ClientIP:   clientIP,
		Success:    true,
		Details:    details,
	})
}
