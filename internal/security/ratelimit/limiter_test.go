package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	l := NewLimiter(3, time.Minute)
	defer l.Stop()

	for i := 0; i < 3; i++ {
		if !l.Allow("user@hotel.test") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("user@hotel.test") {
		t.Fatalf("request over the limit should be denied")
	}
}

func TestAllowIsPerKey(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	defer l.Stop()

	if !l.Allow("a@hotel.test") {
		t.Fatalf("first key should be allowed")
	}
	if !l.Allow("b@hotel.test") {
		t.Fatalf("second key should have its own bucket")
	}
	if l.Allow("a@hotel.test") {
		t.Fatalf("first key should now be limited")
	}
}

func TestAllowEmptyKeyBypasses(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	defer l.Stop()

	for i := 0; i < 5; i++ {
		if !l.Allow("") {
			t.Fatalf("empty key should never be limited")
		}
	}
}

func TestAllowStrictUsesSeparateBucket(t *testing.T) {
	l := NewLimiter(100, time.Minute)
	defer l.Stop()

	for i := 0; i < 2; i++ {
		if !l.AllowStrict("user@hotel.test", 2, time.Minute) {
			t.Fatalf("strict request %d should be allowed", i+1)
		}
	}
	if l.AllowStrict("user@hotel.test", 2, time.Minute) {
		t.Fatalf("strict limit should be enforced")
	}
	if !l.Allow("user@hotel.test") {
		t.Fatalf("regular bucket should be unaffected by strict bucket")
	}
}

func TestWindowExpiry(t *testing.T) {
	l := NewLimiter(1, 50*time.Millisecond)
	defer l.Stop()

	if !l.Allow("user@hotel.test") {
		t.Fatalf("first request should be allowed")
	}
	if l.Allow("user@hotel.test") {
		t.Fatalf("second request inside window should be denied")
	}

	time.Sleep(60 * time.Millisecond)
	if !l.Allow("user@hotel.test") {
		t.Fatalf("request after window expiry should be allowed")
	}
}
