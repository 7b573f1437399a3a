// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package preview

import (
	"context"
	"errors"
	"log/slog"
)

// Handler processes a received signal. Handlers run on transport goroutines
// and must not block.
type Handler func(Signal)

// Transport is one signaling path between authoring and consuming surfaces.
// Broadcast never guarantees delivery; Subscribe returns a cancel function
// that releases the subscription deterministically.
type Transport interface {
	Name() string
	Broadcast(ctx context.Context, sig Signal) error
	Subscribe(h Handler) (cancel func(), err error)
	Close() error
}

// Channel multiplexes several transports. Broadcasts go to all of them and
// the first signal to arrive on the consuming side wins; the rest are
// harmless duplicates.
type Channel struct {
	transports []Transport
	logger     *slog.Logger
}

// NewChannel creates a channel over the given transports.
func NewChannel(logger *slog.Logger, transports ...Transport) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{transports: transports, logger: logger}
}

// Broadcast sends the signal through every transport. It is fire-and-forget:
// per-transport failures are logged, never returned, and never block the
// caller beyond the transports' own non-blocking sends.
func (c *Channel) Broadcast(ctx context.Context, sig Signal) {
	for _, tr := range c.transports {
		if err := tr.Broadcast(ctx, sig); err != nil {
			c.logger.Warn("preview broadcast failed",
				"transport", tr.Name(), "slug", sig.Slug, "error", err)
		}
	}
}

// Subscribe registers a handler on every transport, filtered to valid
// content-change signals for the given slug (empty slug matches all pages).
// Transports that fail to subscribe are skipped with a warning; the channels
// are redundant by design. An error is returned only when no transport could
// be subscribed at all.
func (c *Channel) Subscribe(slug string, h Handler) (cancel func(), err error) {
	filtered := func(sig Signal) {
		if !sig.Valid() {
			return
		}
		if slug != "" && sig.Slug != slug {
			return
		}
		h(sig)
	}

	var cancels []func()
	for _, tr := range c.transports {
		c3, err := tr.Subscribe(filtered)
		if err != nil {
			c.logger.Warn("preview subscribe failed",
				"transport", tr.Name(), "slug", slug, "error", err)
			continue
		}
		cancels = append(cancels, c3)
	}
	if len(cancels) == 0 && len(c.transports) > 0 {
		return nil, errors.New("preview: no transport accepted the subscription")
	}

	return func() {
		for _, fn := range cancels {
			fn()
		}
	}, nil
}

// Close releases every transport.
func (c *Channel) Close() error {
	var errs []error
	for _, tr := range c.transports {
		if err := tr.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
