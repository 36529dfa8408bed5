package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/cleberrangel/painel-obras/internal/logger"
	"github.com/cleberrangel/painel-obras/internal/metrics"
	"github.com/gorilla/websocket"
)

// Message types sent to dashboard clients
const (
	MessageConnection   = "connection"
	MessageDataChanged  = "dados_atualizados"
	MessagePong         = "pong"
	MessageStatus       = "estado"
	defaultSendCapacity = 256
)

// Hub maintains the set of active dashboard clients and pushes change notifications
type Hub struct {
	// Registered clients by client ID
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client

	// done é fechado quando Run termina
	done     chan struct{}
	doneOnce sync.Once

	// status responde ao pedido "estado" de um cliente que acabou de reconectar
	status func() interface{}

	mutex sync.RWMutex
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	conn *websocket.Conn

	// Buffered channel of outbound messages
	Send chan []byte

	ID          string
	RemoteAddr  string
	Hub         *Hub
	ConnectedAt time.Time
}

// Message represents a generic WebSocket message
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// DataChange descreve a alteração que disparou o redesenho
type DataChange struct {
	Operation string `json:"operacao"`
	Project   string `json:"obra,omitempty"`
	Front     string `json:"frente,omitempty"`
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// painel sem autenticação: qualquer origem pode assinar
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// SetStatusProvider define o que o hub responde quando um cliente pede "estado"
func (h *Hub) SetStatusProvider(fn func() interface{}) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.status = fn
}

func (h *Hub) currentStatus() (interface{}, bool) {
	h.mutex.RLock()
	fn := h.status
	h.mutex.RUnlock()
	if fn == nil {
		return nil, false
	}
	return fn(), true
}

// Run processes register and unregister requests until ctx is canceled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ctx.Done():
			h.doneOnce.Do(func() { close(h.done) })
			h.closeAll()
			return
		}
	}
}

// join entrega o cliente ao Run; retorna false se o hub já foi encerrado
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// leave pede a remoção do cliente; após o encerramento closeAll já o removeu
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	h.clients[client.ID] = client
	total := len(h.clients)
	h.mutex.Unlock()

	metrics.Get().IncrementWSConnection()
	logger.AuditWebSocket(context.Background(), logger.AuditActionWSConnect, client.ID, client.RemoteAddr, nil)

	logger.Global().Info().
		Str("client_id", client.ID).
		Str("remote_addr", client.RemoteAddr).
		Int("total_connections", total).
		Msg("WebSocket client connected")

	client.SendMessage(Message{
		Type:      MessageConnection,
		Data:      map[string]interface{}{"client_id": client.ID},
		Timestamp: time.Now(),
	})
}

// sendTo entrega a um único cliente; Send só é fechado sob o lock de escrita
func (h *Hub) sendTo(client *Client, data []byte) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if current, ok := h.clients[client.ID]; !ok || current != client {
		return false
	}
	select {
	case client.Send <- data:
		metrics.Get().IncrementWSMessageOut()
		return true
	default:
		return false
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	current, ok := h.clients[client.ID]
	if ok && current == client {
		delete(h.clients, client.ID)
		close(client.Send)
	}
	total := len(h.clients)
	h.mutex.Unlock()

	if !ok {
		return
	}

	metrics.Get().DecrementWSConnection()
	logger.AuditWebSocket(context.Background(), logger.AuditActionWSDisconnect, client.ID, client.RemoteAddr,
		map[string]interface{}{"duracao_s": int(time.Since(client.ConnectedAt).Seconds())})

	logger.Global().Info().
		Str("client_id", client.ID).
		Int("total_connections", total).
		Msg("WebSocket client disconnected")
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for id, client := range h.clients {
		close(client.Send)
		delete(h.clients, id)
		metrics.Get().DecrementWSConnection()
	}
}

// Broadcast sends a message to every connected client; clients whose
// buffer is full are dropped
func (h *Hub) Broadcast(message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Global().Error().Err(err).Str("type", message.Type).Msg("Failed to marshal broadcast message")
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for id, client := range h.clients {
		select {
		case client.Send <- data:
			metrics.Get().IncrementWSMessageOut()
		default:
			close(client.Send)
			delete(h.clients, id)
			metrics.Get().DecrementWSConnection()
			logger.Global().Warn().Str("client_id", id).Msg("Dropping slow WebSocket client")
		}
	}
}

// BroadcastDataChanged notifica os painéis de que a coleção mudou
func (h *Hub) BroadcastDataChanged(operation, project, front string) {
	h.Broadcast(Message{
		Type: MessageDataChanged,
		Data: DataChange{
			Operation: operation,
			Project:   project,
			Front:     front,
		},
		Timestamp: time.Now(),
	})
}

// ConnectionCount returns the number of connected clients
func (h *Hub) ConnectionCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// ClientIDs returns the IDs of the connected clients
func (h *Hub) ClientIDs() []string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}
