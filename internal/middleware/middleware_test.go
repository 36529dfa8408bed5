package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/cleberrangel/painel-obras/internal/logger"
	"github.com/cleberrangel/painel-obras/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())

	var seen string
	router.GET("/x", func(c *gin.Context) {
		seen = logger.GetRequestID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	id := w.Header().Get(HeaderRequestID)
	if len(id) != 8 || id != seen {
		t.Errorf("request id gerado %q, contexto %q", id, seen)
	}
	if w.Header().Get(HeaderTraceID) == "" {
		t.Errorf("trace id ausente")
	}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "abc-123<script>")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Header().Get(HeaderRequestID); got != "abc-123script" {
		t.Errorf("request id do cliente deve ser saneado, got %q", got)
	}
}

func TestRequestID_WorkFrontFields(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter("info", true, &buf)
	t.Cleanup(func() { logger.InitWithWriter("info", true, io.Discard) })

	router := gin.New()
	router.Use(RequestID())
	router.PUT("/frentes/:obra/:frente", func(c *gin.Context) {
		logger.FromGin(c).Info().Msg("lançamento")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/frentes/Obra%20A/Estrutura", nil))

	out := buf.String()
	for _, want := range []string{`"obra":"Obra A"`, `"frente":"Estrutura"`, `"route":"/frentes/:obra/:frente"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log sem %s: %s", want, out)
		}
	}
}

func TestRateLimiter_Rejects(t *testing.T) {
	// 10/min: burst de 1
	limiter := NewRateLimiter(10)
	router := gin.New()
	router.Use(limiter.Middleware())
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(w, req)
		return w
	}

	if w := do(); w.Code != http.StatusOK {
		t.Fatalf("primeira requisição: %d", w.Code)
	}
	w := do()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("esperado 429, got %d", w.Code)
	}
	var body model.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Success || body.Error == "" {
		t.Errorf("corpo do 429 %s", w.Body.String())
	}

	if !limiter.Allow("10.0.0.2") {
		t.Errorf("limite é por IP")
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(0)
	for i := 0; i < 100; i++ {
		if !limiter.Allow("ip") {
			t.Fatalf("limite desligado não pode rejeitar")
		}
	}
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"  Residencial Aurora ":  "Residencial Aurora",
		"Fundação\x00\n":        "Fundação",
		"Bloco\tB":               "BlocoB",
		strings.Repeat("é", 150): strings.Repeat("é", MaxNameLength/2),
	}
	for in, want := range cases {
		if got := SanitizeName(in); got != want {
			t.Errorf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"../../etc/passwd":     "passwd",
		"painel \"obra\".xlsx": "painel obra.xlsx",
		"":                     "unnamed_file",
		"..":                   "unnamed_file",
	}
	for in, want := range cases {
		if got := SanitizeFilename(in); got != want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

// Nomes saneados são UTF-8 válidos, sem controle e dentro do limite
func TestSanitizeNameProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("nome saneado é válido e idempotente", prop.ForAll(
		func(s string) bool {
			out := SanitizeName(s)
			if !utf8.ValidString(out) || len(out) > MaxNameLength {
				return false
			}
			if strings.ContainsAny(out, "\x00\n\r\t") {
				return false
			}
			return SanitizeName(out) == out
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
