package ratelimit_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"haus_search/internal/ratelimit"
)

// ---- fake store ----

type fakeStore struct {
	blocks map[string]string
	fixed  map[string]int64
	slide  map[string]int64

	failAll bool

	getBlockCalls int
	fixedCalls    int
	slideCalls    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		blocks: map[string]string{},
		fixed:  map[string]int64{},
		slide:  map[string]int64{},
	}
}

var errStoreDown = errors.New("store down")

func (f *fakeStore) GetBlock(ctx context.Context, key string) (bool, time.Time, error) {
	f.getBlockCalls++
	if f.failAll {
		return false, time.Time{}, errStoreDown
	}
	if _, ok := f.blocks[key]; ok {
		return true, time.Now().Add(time.Hour), nil
	}
	return false, time.Time{}, nil
}

func (f *fakeStore) SetBlock(ctx context.Context, key, reason string, ttl time.Duration) error {
	if f.failAll {
		return errStoreDown
	}
	f.blocks[key] = reason
	return nil
}

func (f *fakeStore) IncrFixedWindow(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	f.fixedCalls++
	if f.failAll {
		return 0, time.Time{}, errStoreDown
	}
	f.fixed[key]++
	return f.fixed[key], time.Now().Add(window), nil
}

func (f *fakeStore) IncrSlidingWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	f.slideCalls++
	if f.failAll {
		return 0, errStoreDown
	}
	f.slide[key]++
	return f.slide[key], nil
}

func testConfig() ratelimit.Config {
	return ratelimit.Config{Name: "test", Limit: 3, Window: time.Minute}
}

// ---- tests ----

func TestCheck_AllowWithinLimit(t *testing.T) {
	store := newFakeStore()
	p := ratelimit.NewPolicy(store)
	cfg := testConfig()

	d := p.Check(context.Background(), "1.2.3.4", cfg)
	if !d.Success || d.Blocked || d.Burst || d.Err {
		t.Fatalf("unexpected decision: %+v", d)
	}
	if d.Limit != 3 || d.Remaining != 2 {
		t.Fatalf("limit/remaining = %d/%d, want 3/2", d.Limit, d.Remaining)
	}
	if d.Headers["X-RateLimit-Limit"] != "3" || d.Headers["X-RateLimit-Remaining"] != "2" {
		t.Fatalf("unexpected headers: %v", d.Headers)
	}
	if d.Headers["X-RateLimit-Reset"] == "" {
		t.Fatalf("missing reset header: %v", d.Headers)
	}
	if _, ok := d.Headers["X-RateLimit-Blocked"]; ok {
		t.Fatalf("blocked flag must be absent on allow: %v", d.Headers)
	}
}

func TestCheck_DeniesOverEndpointLimit(t *testing.T) {
	store := newFakeStore()
	p := ratelimit.NewPolicy(store)
	cfg := testConfig()
	ctx := context.Background()

	var d ratelimit.Decision
	for i := 0; i < 4; i++ {
		d = p.Check(ctx, "1.2.3.4", cfg)
	}
	if d.Success {
		t.Fatalf("4th request within limit 3 must be denied: %+v", d)
	}
	if d.Blocked || d.Burst {
		t.Fatalf("normal denial must not be blocked/burst: %+v", d)
	}
	if d.Remaining != 0 {
		t.Fatalf("remaining = %d, want 0", d.Remaining)
	}
	if d.Reset <= time.Now().Add(-time.Second).UnixMilli() {
		t.Fatalf("reset %d should be in the future", d.Reset)
	}
}

func TestCheck_BlockedShortCircuits(t *testing.T) {
	store := newFakeStore()
	p := ratelimit.NewPolicy(store)
	ctx := context.Background()

	if err := p.BlockIP(ctx, "9.9.9.9", "manual", time.Hour); err != nil {
		t.Fatalf("BlockIP: %v", err)
	}

	d := p.Check(ctx, "9.9.9.9", testConfig())
	if d.Success || !d.Blocked {
		t.Fatalf("expected blocked denial: %+v", d)
	}
	if d.Remaining != 0 {
		t.Fatalf("blocked caller must have zero remaining: %+v", d)
	}
	if d.Headers["X-RateLimit-Blocked"] != "true" {
		t.Fatalf("missing blocked header: %v", d.Headers)
	}
	// no quota consumed from later layers
	if store.fixedCalls != 0 || store.slideCalls != 0 {
		t.Fatalf("blocked check must not touch burst/endpoint counters (%d/%d)", store.fixedCalls, store.slideCalls)
	}
}

func TestCheck_BurstEscalatesToBlock(t *testing.T) {
	store := newFakeStore()
	p := ratelimit.NewPolicy(store, ratelimit.WithBurstLimit(2, time.Hour))
	cfg := testConfig()
	ctx := context.Background()

	var d ratelimit.Decision
	for i := 0; i < 3; i++ {
		d = p.Check(ctx, "5.6.7.8", cfg)
	}
	if d.Success || !d.Burst {
		t.Fatalf("3rd request over burst limit 2 must be a burst denial: %+v", d)
	}
	if d.Headers["X-RateLimit-Burst"] != "true" {
		t.Fatalf("missing burst header: %v", d.Headers)
	}

	// escalation wrote a block: the next request is blocked outright, even
	// though the endpoint limiter alone would still allow it
	d = p.Check(ctx, "5.6.7.8", cfg)
	if d.Success || !d.Blocked {
		t.Fatalf("expected blocked after burst escalation: %+v", d)
	}

	found := false
	for k, reason := range store.blocks {
		if strings.Contains(k, "5.6.7.8") && reason != "" {
			found = true
		}
	}
	if !found {
		t.Fatalf("no block record written: %v", store.blocks)
	}
}

func TestCheck_FailsOpenOnStoreError(t *testing.T) {
	store := newFakeStore()
	store.failAll = true
	p := ratelimit.NewPolicy(store)

	d := p.Check(context.Background(), "1.2.3.4", testConfig())
	if !d.Success || !d.Err {
		t.Fatalf("store outage must fail open with the error flag: %+v", d)
	}
	if d.Blocked || d.Burst {
		t.Fatalf("fail-open decision must not deny: %+v", d)
	}
	if d.Headers["X-RateLimit-Limit"] == "" {
		t.Fatalf("degenerate header set still required: %v", d.Headers)
	}
}

func TestBlockIP_RoundTrip(t *testing.T) {
	store := newFakeStore()
	p := ratelimit.NewPolicy(store)
	ctx := context.Background()

	blocked, err := p.IsIPBlocked(ctx, "8.8.8.8")
	if err != nil || blocked {
		t.Fatalf("fresh ip must not be blocked (err=%v blocked=%v)", err, blocked)
	}
	if err := p.BlockIP(ctx, "8.8.8.8", "abuse report", 30*time.Minute); err != nil {
		t.Fatalf("BlockIP: %v", err)
	}
	blocked, err = p.IsIPBlocked(ctx, "8.8.8.8")
	if err != nil || !blocked {
		t.Fatalf("ip must be blocked after BlockIP (err=%v blocked=%v)", err, blocked)
	}
}

func TestDefaultLimits_EndpointClasses(t *testing.T) {
	l := ratelimit.DefaultLimits()
	if l.Voice.Limit >= l.Search.Limit || l.Search.Limit >= l.API.Limit {
		t.Fatalf("expected voice < search < api budgets: %+v", l)
	}
	for _, cfg := range []ratelimit.Config{l.API, l.Voice, l.Search} {
		if cfg.Name == "" || cfg.Limit <= 0 || cfg.Window <= 0 {
			t.Fatalf("malformed config: %+v", cfg)
		}
	}
}
