package events

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 64
)

// Hub fans events out to every connected websocket watcher. A watcher may
// narrow its feed to one graph with the "graph" query parameter.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu    sync.Mutex
	conns map[*subscriber]struct{}
}

type subscriber struct {
	conn    *websocket.Conn
	graphID string
	send    chan []byte
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: slog.Default(),
		conns:  make(map[*subscriber]struct{}),
	}
}

func (h *Hub) SetLogger(l *slog.Logger) {
	h.logger = l
}

// Count returns the number of connected watchers
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// ServeHTTP upgrades the request to a websocket and keeps it subscribed until
// the peer goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", "error", err)
		return
	}
	sub := &subscriber{
		conn:    conn,
		graphID: r.URL.Query().Get("graph"),
		send:    make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	h.conns[sub] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("Watcher connected", "remote", r.RemoteAddr, "graph_id", sub.graphID)

	go h.writeLoop(sub)
	h.readLoop(sub)
}

// Broadcast queues an event for every watcher interested in its graph.
// Watchers that cannot keep up are dropped.
func (h *Hub) Broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("Serializing event", "type", ev.Type, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.conns {
		if sub.graphID != "" && sub.graphID != ev.GraphID {
			continue
		}
		select {
		case sub.send <- data:
		default:
			h.logger.Warn("Dropping slow watcher", "graph_id", sub.graphID)
			delete(h.conns, sub)
			close(sub.send)
		}
	}
}

// Close disconnects every watcher
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.conns {
		delete(h.conns, sub)
		close(sub.send)
	}
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[sub]; ok {
		delete(h.conns, sub)
		close(sub.send)
	}
}

// readLoop only drains control frames; watchers have nothing to say.
func (h *Hub) readLoop(sub *subscriber) {
	defer func() {
		h.remove(sub)
		sub.conn.Close()
	}()
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-sub.send:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				sub.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
