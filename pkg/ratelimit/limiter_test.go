package ratelimit

import (
	"testing"
	"time"
)

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(5, time.Second)

	// Initial capacity
	for i := 0; i < 5; i++ {
		if !tb.Allow() {
			t.Errorf("Expected token %d to be available", i+1)
		}
	}

	// Exhaustion
	if tb.Allow() {
		t.Error("Expected no more tokens to be available")
	}

	// Refill after the period elapses
	time.Sleep(time.Second + 100*time.Millisecond)
	if !tb.Allow() {
		t.Error("Expected tokens to be refilled after waiting")
	}

	// Reset
	tb.tokens = 0
	tb.Reset()
	if tb.tokens != tb.capacity {
		t.Error("Expected tokens to be reset to capacity")
	}
}

func TestTokenBucketWait(t *testing.T) {
	tb := NewTokenBucket(1, 200*time.Millisecond)

	if !tb.Allow() {
		t.Fatal("Expected first token to be available")
	}

	start := time.Now()
	tb.Wait()
	elapsed := time.Since(start)

	if elapsed < 100*time.Millisecond {
		t.Errorf("Expected Wait to block until refill, returned after %v", elapsed)
	}
}

func TestTokenBucketConcurrency(t *testing.T) {
	tb := NewTokenBucket(100, time.Minute)

	done := make(chan bool)
	allowed := make(chan bool, 200)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 20; j++ {
				allowed <- tb.Allow()
			}
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	close(allowed)

	count := 0
	for ok := range allowed {
		if ok {
			count++
		}
	}
	if count != 100 {
		t.Errorf("Expected exactly 100 requests allowed, got %d", count)
	}
}
