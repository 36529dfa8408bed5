package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func newTestClient(hub *Hub, id string, capacity int) *Client {
	return &Client{
		ID:          id,
		Send:        make(chan []byte, capacity),
		Hub:         hub,
		ConnectedAt: time.Now(),
	}
}

// drainWelcomeMessage drains the welcome message sent during client registration
func drainWelcomeMessage(t *testing.T, client *Client) {
	t.Helper()
	select {
	case msg := <-client.Send:
		var m Message
		if err := json.Unmarshal(msg, &m); err != nil || m.Type != MessageConnection {
			t.Fatalf("mensagem de boas-vindas inválida: %s", msg)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("mensagem de boas-vindas não recebida")
	}
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub()

	if hub.ConnectionCount() != 0 {
		t.Fatalf("contagem inicial %d", hub.ConnectionCount())
	}

	c1 := newTestClient(hub, "a", 4)
	c2 := newTestClient(hub, "b", 4)
	hub.registerClient(c1)
	hub.registerClient(c2)
	drainWelcomeMessage(t, c1)
	drainWelcomeMessage(t, c2)

	if hub.ConnectionCount() != 2 || len(hub.ClientIDs()) != 2 {
		t.Errorf("esperado 2 conexões, got %d", hub.ConnectionCount())
	}

	hub.unregisterClient(c1)
	if hub.ConnectionCount() != 1 {
		t.Errorf("esperado 1 conexão, got %d", hub.ConnectionCount())
	}
	if _, ok := <-c1.Send; ok {
		t.Errorf("canal do cliente removido deve estar fechado")
	}

	// segunda remoção não fecha o canal de novo
	hub.unregisterClient(c1)
}

func TestHub_StoppedDoesNotBlock(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	c := newTestClient(hub, "a", 4)
	if !hub.join(c) {
		t.Fatal("hub ativo deve aceitar o cliente")
	}
	drainWelcomeMessage(t, c)

	cancel()
	<-stopped

	finished := make(chan bool)
	go func() {
		hub.leave(c)
		finished <- hub.join(newTestClient(hub, "b", 4))
	}()

	select {
	case joined := <-finished:
		if joined {
			t.Errorf("hub encerrado não deve aceitar novos clientes")
		}
	case <-time.After(time.Second):
		t.Fatal("remoção ou registro bloqueou após o encerramento do hub")
	}
	if hub.ConnectionCount() != 0 {
		t.Errorf("encerramento deve remover todos os clientes, got %d", hub.ConnectionCount())
	}
}

func TestHub_BroadcastDataChanged(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "a", 4)
	hub.registerClient(client)
	drainWelcomeMessage(t, client)

	hub.BroadcastDataChanged("editar_frente", "Obra A", "Estrutura")

	select {
	case raw := <-client.Send:
		var msg struct {
			Type string     `json:"type"`
			Data DataChange `json:"data"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Type != MessageDataChanged {
			t.Errorf("tipo %q", msg.Type)
		}
		want := DataChange{Operation: "editar_frente", Project: "Obra A", Front: "Estrutura"}
		if msg.Data != want {
			t.Errorf("dados %#v", msg.Data)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("notificação não recebida")
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := NewHub()
	slow := newTestClient(hub, "lento", 1)
	fast := newTestClient(hub, "rapido", 8)
	hub.registerClient(slow)
	hub.registerClient(fast)
	drainWelcomeMessage(t, fast)

	// o buffer do lento ainda contém a mensagem de boas-vindas
	hub.BroadcastDataChanged("salvar", "", "")

	if hub.ConnectionCount() != 1 {
		t.Fatalf("cliente lento deveria ter sido removido, conexões=%d", hub.ConnectionCount())
	}
	if len(fast.Send) != 1 {
		t.Errorf("cliente rápido deveria ter recebido a notificação")
	}
	if slow.SendMessage(Message{Type: "x"}) {
		t.Errorf("envio para cliente removido não deve ser entregue")
	}
}

// Toda notificação chega a todos os clientes registrados com os mesmos dados
func TestHubBroadcastProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("broadcast entrega a todos os clientes", prop.ForAll(
		func(clientCount int, operation, project string) bool {
			hub := NewHub()
			clients := make([]*Client, clientCount)
			for i := range clients {
				clients[i] = newTestClient(hub, string(rune('a'+i)), 4)
				hub.registerClient(clients[i])
				<-clients[i].Send
			}

			hub.BroadcastDataChanged(operation, project, "")

			for _, c := range clients {
				select {
				case raw := <-c.Send:
					var msg struct {
						Type string     `json:"type"`
						Data DataChange `json:"data"`
					}
					if err := json.Unmarshal(raw, &msg); err != nil {
						return false
					}
					if msg.Type != MessageDataChanged || msg.Data.Operation != operation || msg.Data.Project != project {
						return false
					}
				default:
					return false
				}
			}
			return hub.ConnectionCount() == clientCount
		},
		gen.IntRange(0, 20),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestServeWS_EndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	hub.SetStatusProvider(func() interface{} {
		return map[string]int{"registros": 3}
	})
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/ws", hub.ServeWS)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var welcome Message
	if err := conn.ReadJSON(&welcome); err != nil || welcome.Type != MessageConnection {
		t.Fatalf("boas-vindas: %v %#v", err, welcome)
	}

	hub.BroadcastDataChanged("adicionar_obra", "Obra Nova", "")
	var changed Message
	if err := conn.ReadJSON(&changed); err != nil || changed.Type != MessageDataChanged {
		t.Fatalf("notificação: %v %#v", err, changed)
	}

	if err := conn.WriteJSON(Message{Type: "ping"}); err != nil {
		t.Fatalf("ping: %v", err)
	}
	var pong Message
	if err := conn.ReadJSON(&pong); err != nil || pong.Type != MessagePong {
		t.Fatalf("pong: %v %#v", err, pong)
	}

	if err := conn.WriteJSON(Message{Type: MessageStatus}); err != nil {
		t.Fatalf("estado: %v", err)
	}
	var status struct {
		Type string         `json:"type"`
		Data map[string]int `json:"data"`
	}
	if err := conn.ReadJSON(&status); err != nil || status.Type != MessageStatus || status.Data["registros"] != 3 {
		t.Fatalf("estado: %v %#v", err, status)
	}
}
