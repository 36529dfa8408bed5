package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout é o formato ISO usado na API e no documento persistido
const DateLayout = "2006-01-02"

// DisplayLayout é o formato exibido na tabela de detalhes
const DisplayLayout = "02/01/2006"

// acceptedLayouts cobre datas puras e os timestamps gerados pelo pandas
var acceptedLayouts = []string{
	DateLayout,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	DisplayLayout,
}

// Date é uma data de calendário sem hora, normalizada para meia-noite UTC
type Date struct {
	time.Time
}

// NewDate cria uma data de calendário
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf trunca t para a data de calendário
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate interpreta uma data ISO (com ou sem hora)
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("data inválida: %q", s)
}

// DateFromEpochMillis converte milissegundos desde a época (formato padrão do pandas)
func DateFromEpochMillis(ms int64) Date {
	return DateOf(time.UnixMilli(ms).UTC())
}

// String retorna a data no formato ISO
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Display retorna a data no formato dd/mm/aaaa
func (d Date) Display() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DisplayLayout)
}

// Before compara apenas a data de calendário
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// MarshalJSON serializa como "YYYY-MM-DD"
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON aceita string ISO, string vazia ou null
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("data deve ser string: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DatePtr retorna nil para datas zeradas, ou um ponteiro para a data
func DatePtr(d Date) *Date {
	if d.IsZero() {
		return nil
	}
	return &d
}
