// Package recognize turns raw user input, either free text or an image of a
// receipt or banking-app screen, into parsed transaction candidates. It does
// so by trying a chain of recognition backends in a fixed order until one
// produces a usable result.
package recognize

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"finbook/internal/parse"
)

// Input is one recognition request. Exactly one of Text or Image is
// normally set; a backend abstains when the input kind it needs is missing.
type Input struct {
	Text        string
	Image       []byte
	ContentType string
}

// Result is a successful recognition outcome together with the name of the
// backend that produced it.
type Result struct {
	parse.Result
	Backend string `json:"backend"`
}

// Backend is one recognition strategy in the chain.
type Backend interface {
	// Name identifies the backend in logs and results.
	Name() string
	// Available reports whether the backend is configured well enough to be
	// worth calling at all (credentials present, client constructed).
	Available() bool
	// Recognize extracts transaction candidates from the input. An error
	// means the backend abstains; the chain moves on to the next one.
	Recognize(ctx context.Context, in Input) (*parse.Result, error)
}

// ErrNoResult is returned when every backend in the chain abstained.
var ErrNoResult = errors.New("could not recognize any transactions; check recognition service credentials")

// Chain runs backends in order, returning the first usable result. Each
// backend gets at most one attempt per request, bounded by the per-backend
// timeout.
type Chain struct {
	backends []Backend
	timeout  time.Duration
	logger   *slog.Logger
}

// NewChain creates a chain over the given backends, tried in argument order.
func NewChain(timeout time.Duration, logger *slog.Logger, backends ...Backend) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		backends: backends,
		timeout:  timeout,
		logger:   logger,
	}
}

// Recognize tries each available backend until one returns a non-empty
// result. A result with no items but a detected total still counts: the
// caller can surface the total even when line items were unreadable.
func (c *Chain) Recognize(ctx context.Context, in Input) (*Result, error) {
	for _, b := range c.backends {
		if !b.Available() {
			c.logger.Debug("recognition backend not configured", "backend", b.Name())
			continue
		}

		res, err := c.attempt(ctx, b, in)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("recognition backend abstained",
				"backend", b.Name(), "error", err)
			continue
		}
		if res == nil || (len(res.Items) == 0 && res.Total == nil) {
			c.logger.Debug("recognition backend found nothing", "backend", b.Name())
			continue
		}

		c.logger.Info("recognition succeeded",
			"backend", b.Name(), "items", len(res.Items))
		return &Result{Result: *res, Backend: b.Name()}, nil
	}
	return nil, ErrNoResult
}

func (c *Chain) attempt(ctx context.Context, b Backend, in Input) (*parse.Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return b.Recognize(ctx, in)
}
