// Package ratelimit layers abuse protection over an external counter store:
// a block-list, a coarse burst ceiling that escalates into the block-list,
// and per-endpoint sliding-window quotas. Counter atomicity lives in the
// store; this package only interprets its state and never throws for
// expected conditions (denial, block, store outage).
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// CounterStore is the external persistence behind the policy. Implemented by
// the redis adapter in production and by fakes in tests.
type CounterStore interface {
	// GetBlock reports whether key is block-listed and when the block expires.
	GetBlock(ctx context.Context, key string) (blocked bool, until time.Time, err error)
	// SetBlock records a block for key that expires after ttl.
	SetBlock(ctx context.Context, key, reason string, ttl time.Duration) error
	// IncrFixedWindow counts a hit in a fixed window and returns the running
	// count plus the moment the window resets.
	IncrFixedWindow(ctx context.Context, key string, window time.Duration) (count int64, reset time.Time, err error)
	// IncrSlidingWindow records a hit and returns how many hits fall inside
	// the trailing window.
	IncrSlidingWindow(ctx context.Context, key string, window time.Duration) (count int64, err error)
}

// Config is an immutable per-endpoint-class quota: Limit requests per Window.
type Config struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Limits carries the preconfigured endpoint classes. It is built once at
// startup and passed explicitly into the HTTP layer; there is deliberately no
// package-level default instance.
type Limits struct {
	API    Config
	Voice  Config
	Search Config
}

func DefaultLimits() Limits {
	return Limits{
		API:    Config{Name: "api", Limit: 100, Window: time.Minute},
		Voice:  Config{Name: "voice", Limit: 10, Window: time.Minute},
		Search: Config{Name: "search", Limit: 30, Window: time.Minute},
	}
}

// Decision is the per-request outcome. Headers must be propagated verbatim.
type Decision struct {
	Success   bool              `json:"success"`
	Limit     int               `json:"limit"`
	Remaining int               `json:"remaining"`
	Reset     int64             `json:"reset"` // epoch ms
	Blocked   bool              `json:"blocked"`
	Burst     bool              `json:"burst"`
	Err       bool              `json:"error"`
	Headers   map[string]string `json:"-"`
}

type Policy struct {
	store       CounterStore
	burstLimit  int
	burstWindow time.Duration
	blockTTL    time.Duration
}

type Option func(*Policy)

func WithBurstLimit(n int, window time.Duration) Option {
	return func(p *Policy) { p.burstLimit, p.burstWindow = n, window }
}

func WithBlockTTL(d time.Duration) Option {
	return func(p *Policy) { p.blockTTL = d }
}

func NewPolicy(store CounterStore, opts ...Option) *Policy {
	p := &Policy{
		store:       store,
		burstLimit:  50,
		burstWindow: time.Hour,
		blockTTL:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Check evaluates the layers in strict order (block-list, burst ceiling,
// endpoint window), short-circuiting on the first denial. A store failure at
// any step fails open: availability wins over strictness during an outage,
// and the Err flag lets the caller surface degraded-mode operation.
func (p *Policy) Check(ctx context.Context, identifier string, cfg Config) Decision {
	blocked, until, err := p.store.GetBlock(ctx, blockKey(identifier))
	if err != nil {
		return failOpen(cfg)
	}
	if blocked {
		return finish(Decision{
			Limit:   cfg.Limit,
			Reset:   until.UnixMilli(),
			Blocked: true,
		})
	}

	count, reset, err := p.store.IncrFixedWindow(ctx, burstKey(identifier), p.burstWindow)
	if err != nil {
		return failOpen(cfg)
	}
	if count > int64(p.burstLimit) {
		// Escalate into the block-list before returning; the write is
		// best-effort and the denial stands even if it fails.
		_ = p.store.SetBlock(ctx, blockKey(identifier), "burst ceiling exceeded", p.blockTTL)
		return finish(Decision{
			Limit: p.burstLimit,
			Reset: reset.UnixMilli(),
			Burst: true,
		})
	}

	n, err := p.store.IncrSlidingWindow(ctx, endpointKey(cfg.Name, identifier), cfg.Window)
	if err != nil {
		return failOpen(cfg)
	}
	remaining := cfg.Limit - int(n)
	if remaining < 0 {
		remaining = 0
	}
	return finish(Decision{
		Success:   n <= int64(cfg.Limit),
		Limit:     cfg.Limit,
		Remaining: remaining,
		Reset:     time.Now().Add(cfg.Window).UnixMilli(),
	})
}

// BlockIP records an explicit block, independent of burst escalation.
// Administrative surface; not part of the hot request path.
func (p *Policy) BlockIP(ctx context.Context, ip, reason string, d time.Duration) error {
	if err := p.store.SetBlock(ctx, blockKey(ip), reason, d); err != nil {
		return fmt.Errorf("block %s: %w", ip, err)
	}
	return nil
}

// IsIPBlocked reports whether ip currently has a block record.
func (p *Policy) IsIPBlocked(ctx context.Context, ip string) (bool, error) {
	blocked, _, err := p.store.GetBlock(ctx, blockKey(ip))
	return blocked, err
}

func blockKey(id string) string          { return "ratelimit:block:" + id }
func burstKey(id string) string          { return "ratelimit:burst:" + id }
func endpointKey(name, id string) string { return "ratelimit:" + name + ":" + id }

func failOpen(cfg Config) Decision {
	return finish(Decision{
		Success:   true,
		Err:       true,
		Limit:     cfg.Limit,
		Remaining: cfg.Limit,
		Reset:     time.Now().UnixMilli(),
	})
}

func finish(d Decision) Decision {
	d.Headers = map[string]string{
		"X-RateLimit-Limit":     strconv.Itoa(d.Limit),
		"X-RateLimit-Remaining": strconv.Itoa(d.Remaining),
		"X-RateLimit-Reset":     strconv.FormatInt(d.Reset, 10),
	}
	if d.Blocked {
		d.Headers["X-RateLimit-Blocked"] = "true"
	}
	if d.Burst {
		d.Headers["X-RateLimit-Burst"] = "true"
	}
	return d
}
