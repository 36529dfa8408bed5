package model

import (
	"errors"
	"fmt"
)

var (
	// ErrFrontNotFound indica que o par (obra, frente) não existe
	ErrFrontNotFound = errors.New("frente não encontrada")

	// ErrProjectNotFound indica que a obra não existe
	ErrProjectNotFound = errors.New("obra não encontrada")

	// ErrInvalidDocument indica documento persistido sem estrutura mínima
	ErrInvalidDocument = errors.New("documento de dados inválido")
)

// ValidationError representa entrada do usuário que viola uma regra de negócio.
// A entrada é descartada sem mutação parcial.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError cria um ValidationError com mensagem formatada
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsValidationError indica se err (ou algum erro encadeado) é de validação
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// DataFormatError descreve uma célula malformada no documento persistido.
// A carga substitui o valor padrão e segue; o erro vira aviso.
type DataFormatError struct {
	Row     int
	Column  string
	Message string
}

func (e *DataFormatError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("coluna %q: %s", e.Column, e.Message)
	}
	return fmt.Sprintf("linha %d, coluna %q: %s", e.Row, e.Column, e.Message)
}
