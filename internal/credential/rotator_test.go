package credential

import (
	"sort"
	"sync"
	"testing"
)

func TestNewRotator_EmptyPool(t *testing.T) {
	if _, err := NewRotator(nil); err == nil {
		t.Fatal("expected error for empty pool")
	}
	if _, err := NewRotator([]string{}); err == nil {
		t.Fatal("expected error for zero-length pool")
	}
}

func TestRotator_RoundRobin(t *testing.T) {
	pool := []string{"key-a", "key-b", "key-c"}
	r, err := NewRotator(pool)
	if err != nil {
		t.Fatalf("NewRotator failed: %v", err)
	}

	// K+1 calls on a K-sized pool: call 1 and call K+1 return the same key.
	first := r.Next()
	for i := 1; i < len(pool); i++ {
		if got := r.Next(); got == first {
			t.Errorf("call %d returned %q, want a different key", i+1, got)
		}
	}
	if got := r.Next(); got != first {
		t.Errorf("call K+1 returned %q, want %q", got, first)
	}
}

func TestRotator_DeterministicOrder(t *testing.T) {
	r, err := NewRotator([]string{"a", "b"})
	if err != nil {
		t.Fatalf("NewRotator failed: %v", err)
	}
	want := []string{"a", "b", "a", "b", "a"}
	for i, w := range want {
		if got := r.Next(); got != w {
			t.Errorf("call %d = %q, want %q", i+1, got, w)
		}
	}
}

func TestRotator_ConcurrentDistinct(t *testing.T) {
	pool := []string{"a", "b", "c", "d"}
	r, err := NewRotator(pool)
	if err != nil {
		t.Fatalf("NewRotator failed: %v", err)
	}

	// 4 concurrent callers on a 4-key pool must receive 4 distinct keys.
	var wg sync.WaitGroup
	got := make([]string, len(pool))
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = r.Next()
		}(i)
	}
	wg.Wait()

	sort.Strings(got)
	for i := 1; i < len(got); i++ {
		if got[i] == got[i-1] {
			t.Fatalf("duplicate credential handed out concurrently: %v", got)
		}
	}
}

func TestRotator_CopiesPool(t *testing.T) {
	pool := []string{"a", "b"}
	r, err := NewRotator(pool)
	if err != nil {
		t.Fatalf("NewRotator failed: %v", err)
	}
	pool[0] = "mutated"
	if got := r.Next(); got != "a" {
		t.Errorf("rotator shares caller slice: got %q", got)
	}
}
