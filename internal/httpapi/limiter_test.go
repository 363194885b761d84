package httpapi

import (
	"fmt"
	"testing"
	"time"
)

func TestChatLimiterEvictsIdleBuckets(t *testing.T) {
	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newChatLimiter(2)
	l.now = func() time.Time { return clock }

	for i := 0; i < 100; i++ {
		l.Allow(fmt.Sprintf("u%d", i))
	}
	if got := l.size(); got != 100 {
		t.Fatalf("size = %d, want 100", got)
	}

	clock = clock.Add(bucketIdleTTL / 2)
	l.Allow("active")

	clock = clock.Add(bucketIdleTTL/2 + time.Second)
	l.Allow("active")
	if got := l.size(); got != 1 {
		t.Fatalf("size after sweep = %d, want only the active identity", got)
	}
}

func TestChatLimiterKeepsBudgetWithinWindow(t *testing.T) {
	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newChatLimiter(2)
	l.now = func() time.Time { return clock }

	if !l.Allow("u1") || !l.Allow("u1") {
		t.Fatalf("burst of 2 should be allowed")
	}
	if l.Allow("u1") {
		t.Fatalf("third message in the same instant should be limited")
	}
	clock = clock.Add(30 * time.Second)
	if !l.Allow("u1") {
		t.Fatalf("one token should refill after 30s at 2/min")
	}
}

func TestNilChatLimiterAllows(t *testing.T) {
	var l *chatLimiter
	if !l.Allow("anyone") {
		t.Fatalf("disabled limiter must allow")
	}
}
