package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/race-bet-platform/pkg/contracts/events"
)

// client serializa as escritas; o gorilla aceita um único escritor por conexão
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(messageType, data)
}

// Hub gerencia conexões WebSocket e assinaturas por corrida
type Hub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	// raceID -> conexões inscritas
	subs map[string]map[*client]struct{}
}

func NewHub(log *zap.Logger, allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		log:      log,
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*client]struct{}),
	}
}

// HandleWS trata uma conexão: subscribe/unsubscribe por raceId e ping
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	c := &client{conn: conn}

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			if msg.RaceID == "" {
				continue
			}
			h.mu.Lock()
			if _, ok := h.subs[msg.RaceID]; !ok {
				h.subs[msg.RaceID] = make(map[*client]struct{})
			}
			h.subs[msg.RaceID][c] = struct{}{}
			h.mu.Unlock()
		case "unsubscribe":
			h.remove(msg.RaceID, c)
		case "ping":
			_ = c.write(websocket.TextMessage, []byte(`{"type":"pong"}`))
		}
	}

	h.mu.Lock()
	for raceID, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, raceID)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) remove(raceID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.subs[raceID]; ok {
		delete(m, c)
		if len(m) == 0 {
			delete(h.subs, raceID)
		}
	}
}

// Subscribers devolve quantos clientes acompanham a corrida
func (h *Hub) Subscribers(raceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[raceID])
}

// Broadcast envia a atualização a todos os inscritos na corrida
func (h *Hub) Broadcast(update events.RaceUpdate) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.subs[update.RaceID]))
	for c := range h.subs[update.RaceID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	b, err := json.Marshal(update)
	if err != nil {
		h.log.Warn("ws encode failed", zap.String("race_id", update.RaceID), zap.Error(err))
		return
	}
	for _, c := range targets {
		if err := c.write(websocket.TextMessage, b); err != nil {
			h.log.Debug("ws write failed", zap.String("race_id", update.RaceID), zap.Error(err))
		}
	}
}
