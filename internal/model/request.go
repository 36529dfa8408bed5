package model

// ProjectRequest é o payload de cadastro de obra
type ProjectRequest struct {
	Name string `json:"nome"`
}

// FrontRequest é o payload de criação/edição de frente.
// Total é ponteiro para distinguir "ausente" de zero.
type FrontRequest struct {
	Project    string     `json:"obra"`
	Name       string     `json:"frente"`
	Total      *float64   `json:"total"`
	StartDate  *Date      `json:"data_inicio"`
	EndDate    *Date      `json:"data_fim"`
	WeeklyPlan WeekValues `json:"planejamento_semanal"`
}

// ActualRequest é o payload de lançamento de andamento semanal
type ActualRequest struct {
	Values WeekValues `json:"realizado" binding:"required"`
}

// FiltersRequest altera a seleção corrente do painel
type FiltersRequest struct {
	Project   *string `json:"obra"`
	Front     *string `json:"frente"`
	Timescale *string `json:"escala"`
}

// Response representa a resposta padrão da API
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorResponse representa uma resposta de erro
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
