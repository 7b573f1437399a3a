// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// WSClient is the client end of the cross-context message transport: it
// connects to a Hub and exchanges signals with every other connected surface.
// The connection is best effort; if it drops, the transport goes quiet and
// the poller covers convergence. There is no reconnect loop.
type WSClient struct {
	conn   *websocket.Conn
	logger *slog.Logger

	writeMu sync.Mutex

	mu       sync.Mutex
	handlers map[int]Handler
	nextID   int
	reading  bool
	closed   bool
}

// DialHub connects to a hub endpoint (ws:// or wss:// URL).
func DialHub(url string, logger *slog.Logger) (*WSClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing preview hub %s: %w", url, err)
	}
	return &WSClient{conn: conn, logger: logger, handlers: make(map[int]Handler)}, nil
}

// Name implements Transport.
func (c *WSClient) Name() string { return "websocket" }

// Broadcast sends the signal to the hub, which relays it to every other
// connected surface.
func (c *WSClient) Broadcast(_ context.Context, sig Signal) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("preview websocket closed")
	}
	c.mu.Unlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(sig)
}

// Subscribe registers a handler for signals relayed by the hub. The read
// loop starts on the first subscription.
func (c *WSClient) Subscribe(h Handler) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errors.New("preview websocket closed")
	}
	id := c.nextID
	c.nextID++
	c.handlers[id] = h

	if !c.reading {
		c.reading = true
		go c.readLoop()
	}

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.handlers, id)
	}, nil
}

// Close tears the connection down and stops the read loop.
func (c *WSClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.handlers = make(map[int]Handler)
	c.mu.Unlock()

	return c.conn.Close()
}

func (c *WSClient) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				c.logger.Warn("preview websocket read failed, transport going quiet", "error", err)
			}
			return
		}

		sig, ok := DecodeSignal(data)
		if !ok {
			continue
		}

		c.mu.Lock()
		handlers := make([]Handler, 0, len(c.handlers))
		for _, h := range c.handlers {
			handlers = append(handlers, h)
		}
		c.mu.Unlock()

		for _, h := range handlers {
			h(sig)
		}
	}
}
