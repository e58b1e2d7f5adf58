// Package inspect implements the decision inspector's transport: a
// websocket hub that broadcasts each bridge decision (the inbound
// snapshot and the decision engine's full Action, not just the thin wire
// action) to every
// connected viewer, for internal/tui's live debugging view. Grounded on
// internal/server/connection.go's per-connection send-channel and
// writePump idiom, generalized from "broadcast game state to players"
// to "broadcast decision events to inspectors".
package inspect

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/rook/blindsolver/internal/bridge"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 64
)

// Hub fans out InspectEvents to every connected viewer. It implements
// bridge.Inspector.
type Hub struct {
	logger *log.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	viewers map[*viewer]struct{}
}

type viewer struct {
	conn *websocket.Conn
	send chan bridge.InspectEvent
}

// NewHub builds an empty hub. logger may be nil, in which case a
// discarding logger is used.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Hub{
		logger: logger.WithPrefix("inspect"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		viewers: make(map[*viewer]struct{}),
	}
}

// Publish implements bridge.Inspector: it fans the event out to every
// connected viewer without blocking the caller (the bridge's decision
// hot path) — a slow or stuck viewer is dropped rather than allowed to
// backpressure decision-making.
func (h *Hub) Publish(event bridge.InspectEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for v := range h.viewers {
		select {
		case v.send <- event:
		default:
			h.logger.Warn().Msg("inspector viewer too slow, dropping connection")
			h.removeLocked(v)
		}
	}
}

// ServeHTTP upgrades the connection and registers it as a viewer until
// it disconnects or falls behind.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "err", err)
		return
	}
	v := &viewer{conn: conn, send: make(chan bridge.InspectEvent, sendBuffer)}

	h.mu.Lock()
	h.viewers[v] = struct{}{}
	h.mu.Unlock()

	go h.writePump(v)
	go h.readPump(v)
}

func (h *Hub) writePump(v *viewer) {
	defer v.conn.Close()
	for event := range v.send {
		payload, err := json.Marshal(event)
		if err != nil {
			h.logger.Error("failed to encode inspect event", "err", err)
			continue
		}
		v.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := v.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.remove(v)
			return
		}
	}
}

// readPump discards inbound messages; the inspector is a one-way
// broadcast, but it must drain the connection to notice a client-side
// close.
func (h *Hub) readPump(v *viewer) {
	defer h.remove(v)
	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(v *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(v)
}

func (h *Hub) removeLocked(v *viewer) {
	if _, ok := h.viewers[v]; !ok {
		return
	}
	delete(h.viewers, v)
	close(v.send)
}
