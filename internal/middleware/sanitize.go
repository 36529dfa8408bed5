package middleware

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// MaxNameLength é o tamanho máximo de nomes de obra e frente
const MaxNameLength = 200

var invalidID = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SanitizeName limpa nomes de obra e frente: remove caracteres de controle,
// espaços nas pontas e limita o tamanho. Acentos são preservados.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\x00", "")
	name = removeControlChars(name)
	name = strings.TrimSpace(name)
	if len(name) > MaxNameLength {
		name = strings.TrimSpace(truncateRunes(name, MaxNameLength))
	}
	return name
}

// SanitizeFilename limpa o nome do arquivo de download: descarta diretórios,
// sequências "..", separadores, aspas e caracteres de controle.
// Nome vazio vira "unnamed_file".
func SanitizeFilename(filename string) string {
	filename = filepath.Base(filename)
	filename = strings.ReplaceAll(filename, "\x00", "")

	filename = strings.ReplaceAll(filename, "..", "")
	filename = strings.ReplaceAll(filename, "/", "")
	filename = strings.ReplaceAll(filename, "\\", "")
	filename = strings.ReplaceAll(filename, "\"", "")

	filename = removeControlChars(filename)
	filename = strings.TrimSpace(filename)

	if filename == "" || filename == "." {
		return "unnamed_file"
	}

	return filename
}

// SanitizeID mantém apenas letras, dígitos, hífen e sublinhado
func SanitizeID(id string) string {
	id = strings.TrimSpace(id)
	id = invalidID.ReplaceAllString(id, "")
	if len(id) > 64 {
		id = id[:64]
	}
	return id
}

func removeControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// truncateRunes corta em no máximo n bytes sem quebrar um caractere UTF-8
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := 0
	for i := range s {
		if i > n {
			break
		}
		cut = i
	}
	return s[:cut]
}
