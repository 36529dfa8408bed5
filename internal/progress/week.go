// Package progress concentra o cálculo de andamento das frentes: campos
// derivados, curvas acumuladas (Curva S) e agregação por período.
// Todas as funções são puras e nunca retornam erro para entrada numérica
// malformada; valores inválidos viram zero.
package progress

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cleberrangel/painel-obras/internal/model"
)

// WeekKey retorna a chave ISO-8601 (YYYY-Www) da semana que contém t
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// ParseWeekKey retorna a segunda-feira da semana ISO identificada pela chave.
// Só aceita a forma canônica YYYY-Www; o ano da chave é o ano ISO, que pode
// diferir do ano civil da segunda-feira.
func ParseWeekKey(key string) (time.Time, error) {
	if len(key) != 8 || key[4:6] != "-W" || !isDigits(key[:4]) || !isDigits(key[6:]) {
		return time.Time{}, fmt.Errorf("chave de semana inválida: %q", key)
	}
	year, _ := strconv.Atoi(key[:4])
	week, _ := strconv.Atoi(key[6:])
	return isoMonday(year, week)
}

// NormalizeWeekKey converte variações como "2024-W1" ou " 2024-W01 " para a
// chave canônica
func NormalizeWeekKey(key string) (string, bool) {
	key = strings.TrimSpace(key)
	idx := strings.Index(key, "-W")
	if idx != 4 || !isDigits(key[:4]) {
		return "", false
	}
	weekPart := key[6:]
	if len(weekPart) < 1 || len(weekPart) > 2 || !isDigits(weekPart) {
		return "", false
	}
	year, _ := strconv.Atoi(key[:4])
	week, _ := strconv.Atoi(weekPart)
	monday, err := isoMonday(year, week)
	if err != nil {
		return "", false
	}
	return WeekKey(monday), true
}

// IsWeekKey indica se a chave é uma semana ISO válida na forma canônica
func IsWeekKey(key string) bool {
	_, err := ParseWeekKey(key)
	return err == nil
}

func isoMonday(year, week int) (time.Time, error) {
	if week < 1 || week > 53 {
		return time.Time{}, fmt.Errorf("semana inválida: %d", week)
	}

	// 4 de janeiro sempre cai na semana 1
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	monday := jan4.AddDate(0, 0, -daysSinceMonday(jan4)+(week-1)*7)

	if y, w := monday.ISOWeek(); y != year || w != week {
		return time.Time{}, fmt.Errorf("ano %d não possui a semana %d", year, week)
	}
	return monday, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// WeeksInRange lista as chaves das semanas cujas segundas-feiras caem em
// [start, end], mais a semana que contém start (mesmo que sua segunda-feira
// seja anterior a start). Ordem cronológica, sem duplicatas.
func WeeksInRange(start, end *model.Date) []string {
	if start == nil || end == nil || start.IsZero() || end.IsZero() {
		return []string{}
	}

	first := start.Time
	last := end.Time

	mondays := []time.Time{mondayOf(first)}
	for d := nextMonday(first); !d.After(last); d = d.AddDate(0, 0, 7) {
		mondays = append(mondays, d)
	}

	sort.Slice(mondays, func(i, j int) bool { return mondays[i].Before(mondays[j]) })

	keys := make([]string, 0, len(mondays))
	seen := make(map[string]bool, len(mondays))
	for _, m := range mondays {
		key := WeekKey(m)
		if seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys
}

// SortWeekKeys ordena chaves cronologicamente; chaves inválidas vão para o
// final em ordem lexical
func SortWeekKeys(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.SliceStable(out, func(i, j int) bool {
		ti, errI := ParseWeekKey(out[i])
		tj, errJ := ParseWeekKey(out[j])
		switch {
		case errI != nil && errJ != nil:
			return out[i] < out[j]
		case errI != nil:
			return false
		case errJ != nil:
			return true
		}
		return ti.Before(tj)
	})
	return out
}

func daysSinceMonday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func mondayOf(t time.Time) time.Time {
	d := model.DateOf(t).Time
	return d.AddDate(0, 0, -daysSinceMonday(d))
}

func nextMonday(t time.Time) time.Time {
	d := model.DateOf(t).Time
	return d.AddDate(0, 0, (7-daysSinceMonday(d))%7)
}

// weekEndingMonday é o rótulo do balde semanal que termina na segunda-feira
// (terça a segunda), como o resample "W-MON" do pandas
func weekEndingMonday(t time.Time) time.Time {
	d := model.DateOf(t).Time
	return d.AddDate(0, 0, (int(time.Monday)-int(d.Weekday())+7)%7)
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
