package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "haus_search/internal/adapters/redis"
	"haus_search/internal/ratelimit"
)

func TestCounters_FixedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.NewCounters(mr.Addr(), "", 0)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, reset, err := c.IncrFixedWindow(ctx, "burst:test", time.Hour)
		if err != nil {
			t.Fatalf("incr: %v", err)
		}
		if n != want {
			t.Fatalf("count = %d, want %d", n, want)
		}
		if reset.Before(time.Now()) {
			t.Fatalf("reset %v should be in the future", reset)
		}
	}

	// window expiry resets the count
	mr.FastForward(2 * time.Hour)
	n, _, err := c.IncrFixedWindow(ctx, "burst:test", time.Hour)
	if err != nil {
		t.Fatalf("incr after expiry: %v", err)
	}
	if n != 1 {
		t.Fatalf("count after window expiry = %d, want 1", n)
	}
}

func TestCounters_SlidingWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.NewCounters(mr.Addr(), "", 0)
	ctx := context.Background()

	for want := int64(1); want <= 5; want++ {
		n, err := c.IncrSlidingWindow(ctx, "api:test", time.Minute)
		if err != nil {
			t.Fatalf("incr: %v", err)
		}
		if n != want {
			t.Fatalf("count = %d, want %d", n, want)
		}
	}

	// old hits fall out of the trailing window
	mr.FastForward(2 * time.Minute)
	n, err := c.IncrSlidingWindow(ctx, "api:test", time.Minute)
	if err != nil {
		t.Fatalf("incr after window: %v", err)
	}
	if n != 1 {
		t.Fatalf("count after window = %d, want 1", n)
	}
}

func TestCounters_Blocks(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.NewCounters(mr.Addr(), "", 0)
	ctx := context.Background()

	blocked, _, err := c.GetBlock(ctx, "block:1.2.3.4")
	if err != nil || blocked {
		t.Fatalf("fresh key: blocked=%v err=%v", blocked, err)
	}

	if err := c.SetBlock(ctx, "block:1.2.3.4", "burst ceiling exceeded", time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	blocked, until, err := c.GetBlock(ctx, "block:1.2.3.4")
	if err != nil || !blocked {
		t.Fatalf("after set: blocked=%v err=%v", blocked, err)
	}
	if until.Before(time.Now()) {
		t.Fatalf("block expiry %v should be in the future", until)
	}

	mr.FastForward(2 * time.Hour)
	blocked, _, err = c.GetBlock(ctx, "block:1.2.3.4")
	if err != nil || blocked {
		t.Fatalf("after ttl: blocked=%v err=%v", blocked, err)
	}
}

// The policy composed with the real redis adapter fails open the moment the
// store goes away.
func TestPolicy_FailsOpenWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.NewCounters(mr.Addr(), "", 0)
	p := ratelimit.NewPolicy(c)
	cfg := ratelimit.Config{Name: "voice", Limit: 5, Window: time.Minute}

	d := p.Check(context.Background(), "1.2.3.4", cfg)
	if !d.Success || d.Err {
		t.Fatalf("healthy store should allow cleanly: %+v", d)
	}

	mr.Close()

	d = p.Check(context.Background(), "1.2.3.4", cfg)
	if !d.Success || !d.Err {
		t.Fatalf("store outage must fail open with error flag: %+v", d)
	}
}
