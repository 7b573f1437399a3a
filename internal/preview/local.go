// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package preview

import (
	"context"
	"errors"
	"sync"
)

// localBufferSize bounds the per-subscriber queue. A subscriber that falls
// this far behind loses signals rather than blocking the broadcaster; the
// poller transport covers the loss.
const localBufferSize = 8

// LocalBus delivers signals between sessions running in the same process,
// such as a side-by-side editor and its preview pane.
type LocalBus struct {
	mu     sync.Mutex
	subs   map[int]chan Signal
	nextID int
	closed bool
}

// NewLocalBus creates an empty in-process bus.
func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[int]chan Signal)}
}

// Name implements Transport.
func (b *LocalBus) Name() string { return "local" }

// Broadcast fans the signal out to all subscribers without blocking. Full
// subscriber queues drop the signal.
func (b *LocalBus) Broadcast(_ context.Context, sig Signal) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errors.New("local bus closed")
	}
	for _, ch := range b.subs {
		select {
		case ch <- sig:
		default:
		}
	}
	return nil
}

// Subscribe registers a handler. Signals are delivered on a dedicated
// goroutine per subscriber so one slow handler cannot stall another.
func (b *LocalBus) Subscribe(h Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, errors.New("local bus closed")
	}

	id := b.nextID
	b.nextID++
	ch := make(chan Signal, localBufferSize)
	b.subs[id] = ch

	go func() {
		for sig := range ch {
			h(sig)
		}
	}()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if ch, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}, nil
}

// Close drops all subscribers.
func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	return nil
}
