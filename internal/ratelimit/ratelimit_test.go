package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestUnregisteredServicePassesThrough(t *testing.T) {
	l := New()
	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := l.Wait(context.Background(), "unknown"); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("unregistered service throttled, took %v", elapsed)
	}
}

func TestRegisteredServiceEnforcesMinInterval(t *testing.T) {
	l := New()
	l.Register("musicbrainz", 30*time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Wait(context.Background(), "musicbrainz"); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("expected throttling of at least ~60ms across 3 calls, took %v", elapsed)
	}
}

func TestWaitRespectsContextCancellation(t *testing.T) {
	l := New()
	l.Register("slow", time.Hour)
	l.Wait(context.Background(), "slow")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "slow"); err == nil {
		t.Fatalf("expected context deadline error")
	}
}

func TestServicesAreIndependent(t *testing.T) {
	l := New()
	l.Register("a", time.Hour)
	l.Wait(context.Background(), "a")

	if err := l.Wait(context.Background(), "b"); err != nil {
		t.Fatalf("service b should be unaffected by a's throttle: %v", err)
	}
}
