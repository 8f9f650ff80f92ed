package rate

import (
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	interval := 10 * time.Millisecond
	r := NewLimiter(1, interval, time.Hour)

	tooshort := 1 * time.Millisecond

	client := "test@test.com"
	expected := []bool{true, false, true, true, false, false}
	waits := []time.Duration{tooshort, interval, interval, tooshort, tooshort, tooshort}
	for i, exp := range expected {
		if got := r.Check(client); got != exp {
			t.Fatalf("iteration %d: expected %v, but got %v", i, exp, got)
		}
		time.Sleep(waits[i])
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	r := NewLimiter(2, time.Hour, time.Hour)

	for i := 0; i < 2; i++ {
		if !r.Check("a@test.com") {
			t.Fatalf("attempt %d for a should pass", i)
		}
	}
	if r.Check("a@test.com") {
		t.Fatal("third attempt for a should be throttled")
	}
	if !r.Check("b@test.com") {
		t.Fatal("b must not be throttled by a's attempts")
	}
}

func TestLimiterSweep(t *testing.T) {
	r := NewLimiter(1, time.Hour, time.Minute)
	r.Check("old@test.com")
	r.Check("new@test.com")

	r.mu.Lock()
	r.clients["old@test.com"].lastAccess = time.Now().Add(-2 * time.Minute)
	r.mu.Unlock()

	r.sweep(time.Now())

	if got := r.size(); got != 1 {
		t.Fatalf("expected 1 remaining key, got %d", got)
	}
	if !r.Check("old@test.com") {
		t.Fatal("swept key should start with a fresh bucket")
	}
}
