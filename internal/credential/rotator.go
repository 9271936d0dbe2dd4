// Package credential manages the API key pool for one backend family.
// Keys are handed out strictly round-robin so load spreads evenly and a
// rate-limited key is not immediately reused on retry.
package credential

import (
	"fmt"
	"sync"
)

// Rotator owns an ordered pool of opaque credential tokens and a cursor.
// The cursor is the only mutable state and is mutex-guarded: concurrent
// dispatches against the same backend family must never receive the same
// credential when distinct ones are available.
type Rotator struct {
	mu     sync.Mutex
	pool   []string
	cursor int
}

// NewRotator builds a rotator over the given pool. The pool must not be
// empty; an empty pool is a configuration error, not a runtime one.
func NewRotator(pool []string) (*Rotator, error) {
	if len(pool) == 0 {
		return nil, fmt.Errorf("credential pool is empty")
	}
	tokens := make([]string, len(pool))
	copy(tokens, pool)
	return &Rotator{pool: tokens}, nil
}

// Next returns the credential at the cursor and advances it modulo the pool
// size. Call N+1 on an N-sized pool returns the same token as call 1.
func (r *Rotator) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	token := r.pool[r.cursor]
	r.cursor = (r.cursor + 1) % len(r.pool)
	return token
}

// Size returns the number of credentials in the pool.
func (r *Rotator) Size() int {
	return len(r.pool)
}

// IsEmpty reports whether the pool holds zero credentials. Always false for
// a rotator built through NewRotator; kept for callers that embed a zero
// value.
func (r *Rotator) IsEmpty() bool {
	return len(r.pool) == 0
}
