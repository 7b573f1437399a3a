// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package preview

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeWait bounds a single frame write to a preview client.
const writeWait = 10 * time.Second

// sendBufferSize bounds the per-client outbound queue. A client that falls
// this far behind is disconnected rather than allowed to stall the
// broadcaster; the poller transport covers the loss.
const sendBufferSize = 16

// hubClient is one connected peer. All writes to the connection go through
// the send channel and a single write pump, so broadcasts never touch the
// socket directly.
type hubClient struct {
	conn *websocket.Conn
	send chan Signal
}

// writePump drains the send queue onto the wire. It owns all writes to the
// connection and exits when the queue is closed or a write fails.
func (c *hubClient) writePump() {
	for sig := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(sig); err != nil {
			break
		}
	}
	_ = c.conn.Close()
}

// Hub is the server end of the cross-context message transport. Authoring and
// consuming surfaces connect over WebSocket; a valid signal received from any
// connection is rebroadcast to all the others and to in-process subscribers.
// Invalid or untyped messages are dropped silently.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu       sync.Mutex
	clients  map[*hubClient]bool
	handlers map[int]Handler
	nextID   int
	closed   bool
}

// NewHub creates a hub with no connected clients.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The preview frame may be served from a different origin than
			// the API. Signals carry no secrets and trigger only reloads.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger:   logger,
		clients:  make(map[*hubClient]bool),
		handlers: make(map[int]Handler),
	}
}

// Name implements Transport.
func (h *Hub) Name() string { return "websocket-hub" }

// ServeHTTP upgrades the request and pumps messages until the peer goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("preview websocket upgrade failed", "error", err)
		return
	}

	client := &hubClient{conn: conn, send: make(chan Signal, sendBufferSize)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[client] = true
	h.mu.Unlock()

	go client.writePump()
	h.readPump(client)
}

// Broadcast queues the signal for every connected client. It never blocks:
// a client whose queue is full is disconnected instead.
func (h *Hub) Broadcast(_ context.Context, sig Signal) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return errors.New("preview hub closed")
	}
	for client := range h.clients {
		h.enqueueLocked(client, sig)
	}
	return nil
}

// enqueueLocked hands a signal to one client's write pump. The caller holds
// h.mu. A full queue means the client stopped draining; it is dropped so the
// broadcaster stays non-blocking.
func (h *Hub) enqueueLocked(client *hubClient, sig Signal) {
	select {
	case client.send <- sig:
	default:
		h.logger.Debug("dropping slow preview connection", "slug", sig.Slug)
		delete(h.clients, client)
		close(client.send)
	}
}

// Subscribe registers an in-process handler for signals arriving from
// connected clients.
func (h *Hub) Subscribe(handler Handler) (func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, errors.New("preview hub closed")
	}
	id := h.nextID
	h.nextID++
	h.handlers[id] = handler

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.handlers, id)
	}, nil
}

// Close disconnects every client and drops all handlers.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	for client := range h.clients {
		close(client.send)
	}
	h.clients = make(map[*hubClient]bool)
	h.handlers = make(map[int]Handler)
	return nil
}

// ClientCount reports the number of connected preview clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// drop deregisters a client and closes its connection. Safe to call after
// the client has already been removed by a full-queue disconnect.
func (h *Hub) drop(client *hubClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
	_ = client.conn.Close()
}

func (h *Hub) readPump(client *hubClient) {
	defer h.drop(client)

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		sig, ok := DecodeSignal(data)
		if !ok {
			continue
		}
		h.relay(client, sig)
	}
}

// relay forwards a client-sent signal to in-process handlers and to every
// other connection.
func (h *Hub) relay(from *hubClient, sig Signal) {
	h.mu.Lock()
	handlers := make([]Handler, 0, len(h.handlers))
	for _, handler := range h.handlers {
		handlers = append(handlers, handler)
	}
	for client := range h.clients {
		if client == from {
			continue
		}
		h.enqueueLocked(client, sig)
	}
	h.mu.Unlock()

	for _, handler := range handlers {
		handler(sig)
	}
}
