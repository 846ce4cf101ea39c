package orderControllers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/freshcatch/seafood-api/models"
)

const (
	EventOrderCreated = "order_created"
	EventOrderStatus  = "order_status"

	writeWait  = 5 * time.Second
	sendBuffer = 16
)

// Event is one message on the order stream.
type Event struct {
	Type  string       `json:"type"`
	Order models.Order `json:"order"`
}

// Hub fans order events out to connected websocket clients. Each client
// has its own writer, so a slow client never holds up a broadcast.
type Hub struct {
	mu       sync.Mutex
	clients  map[*wsClient]bool
	upgrader websocket.Upgrader
	log      *zap.Logger
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*wsClient]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// GET /user/orders/ws
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &wsClient{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[cl] = true
	h.mu.Unlock()

	go h.write(cl)
	defer h.drop(cl)
	// clients only listen; reading detects the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) write(cl *wsClient) {
	defer cl.conn.Close()
	for data := range cl.send {
		_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
}

// Broadcast queues ev for every client without waiting on any of them. A
// client whose queue is full is dropped.
func (h *Hub) Broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("order event encode failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		select {
		case cl.send <- data:
		default:
			h.log.Debug("dropping slow websocket client")
			h.remove(cl)
		}
	}
}

// Clients is the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) drop(cl *wsClient) {
	h.mu.Lock()
	h.remove(cl)
	h.mu.Unlock()
}

// remove closes the client once. Callers hold h.mu.
func (h *Hub) remove(cl *wsClient) {
	if !h.clients[cl] {
		return
	}
	delete(h.clients, cl)
	close(cl.send)
	cl.conn.Close()
}
