// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package preview

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/stagecms/stagecms/internal/store"
)

// DefaultPollInterval is the token poll cadence. It bounds convergence: with
// only the poll transport reachable, a draft change becomes visible within
// one interval.
const DefaultPollInterval = time.Second

// TokenSource reads the current version token for a slug. The store
// implementations satisfy it.
type TokenSource interface {
	VersionToken(ctx context.Context, slug string) (string, error)
}

// TokenPoller watches a page's version token on a fixed interval and fires a
// content-change signal when it moves. It is the transport of last resort:
// it works in any embedding that can reach the store, at the cost of up to
// one interval of latency.
type TokenPoller struct {
	source   TokenSource
	slug     string
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	cancels []context.CancelFunc
	closed  bool
}

// NewTokenPoller creates a poller for one slug. A non-positive interval
// falls back to DefaultPollInterval.
func NewTokenPoller(source TokenSource, slug string, interval time.Duration, logger *slog.Logger) *TokenPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenPoller{source: source, slug: slug, interval: interval, logger: logger}
}

// Name implements Transport.
func (p *TokenPoller) Name() string { return "token-poll" }

// Broadcast is a no-op: the store write that triggered the broadcast already
// bumped the token this poller watches.
func (p *TokenPoller) Broadcast(context.Context, Signal) error { return nil }

// Subscribe starts a polling loop. The first observed token is taken as the
// baseline; only subsequent movement fires the handler. The returned cancel
// stops the ticker and releases the goroutine.
func (p *TokenPoller) Subscribe(h Handler) (func(), error) {
	return p.subscribe(h, "", false)
}

// SubscribeFrom starts a polling loop anchored to the token the caller
// observed when it loaded. A save that lands between that load and the
// subscription moves the token past the baseline and still fires, where a
// probed baseline would silently absorb it.
func (p *TokenPoller) SubscribeFrom(baseline string, h Handler) (func(), error) {
	return p.subscribe(h, baseline, true)
}

func (p *TokenPoller) subscribe(h Handler, baseline string, anchored bool) (func(), error) {
	ctx, cancel := context.WithCancel(context.Background())

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		cancel()
		return nil, context.Canceled
	}
	p.cancels = append(p.cancels, cancel)
	p.mu.Unlock()

	go p.loop(ctx, h, baseline, anchored)
	return cancel, nil
}

// Close stops every active polling loop.
func (p *TokenPoller) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	for _, cancel := range p.cancels {
		cancel()
	}
	p.cancels = nil
	return nil
}

func (p *TokenPoller) loop(ctx context.Context, h Handler, last string, known bool) {
	if !known {
		last, known = p.probe(ctx)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			token, ok := p.probe(ctx)
			if !ok {
				continue
			}
			if known && token == last {
				continue
			}
			if known {
				h(NewContentChanged(p.slug, token))
			}
			last, known = token, true
		}
	}
}

// probe reads the current token. A missing record is a valid reading with an
// empty token, so the very first save of a new page still moves the token and
// fires. Transient fetch failures yield no reading.
func (p *TokenPoller) probe(ctx context.Context) (string, bool) {
	token, err := p.source.VersionToken(ctx, p.slug)
	if errors.Is(err, store.ErrNotFound) {
		return "", true
	}
	if err != nil {
		return "", false
	}
	return token, true
}
