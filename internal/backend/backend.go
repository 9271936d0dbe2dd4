// Package backend implements the generation clients, one per backend family,
// behind the types.GenerationClient interface. New families are added by
// implementing that interface, never by branching on type at call sites.
package backend

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// FailureKind classifies a request failure so the retry layer can decide
// whether another attempt is worth making.
type FailureKind string

const (
	// Retryable kinds.
	KindRateLimited FailureKind = "rate_limited" // 429
	KindTransient   FailureKind = "transient"    // 5xx
	KindNetwork     FailureKind = "network"      // transport-level failure

	// Terminal kinds: more attempts cannot help.
	KindQuotaExhausted FailureKind = "quota_exhausted" // 402 / credits spent
	KindMalformed      FailureKind = "malformed"       // 4xx other than 429
	KindEmptyResponse  FailureKind = "empty_response"  // 200 with no completion
)

// RequestError is a classified dispatch failure.
type RequestError struct {
	Kind       FailureKind
	StatusCode int // zero when no HTTP status applies
	Message    string
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Retryable is the single predicate deciding whether a failed dispatch may be
// retried. Anything that is not a classified RequestError is treated as a
// transport-level problem and retried.
func Retryable(err error) bool {
	var re *RequestError
	if !errors.As(err, &re) {
		return err != nil
	}
	switch re.Kind {
	case KindRateLimited, KindTransient, KindNetwork:
		return true
	default:
		return false
	}
}

// classifyStatus maps an HTTP response status to a RequestError.
func classifyStatus(status int, body string) *RequestError {
	switch {
	case status == http.StatusTooManyRequests:
		return &RequestError{Kind: KindRateLimited, StatusCode: status, Message: body}
	case status == http.StatusPaymentRequired:
		return &RequestError{Kind: KindQuotaExhausted, StatusCode: status, Message: body}
	case status >= 500:
		return &RequestError{Kind: KindTransient, StatusCode: status, Message: body}
	default:
		return &RequestError{Kind: KindMalformed, StatusCode: status, Message: body}
	}
}

// netError wraps a transport failure (DNS, dial, timeout) as retryable.
func netError(err error) *RequestError {
	return &RequestError{Kind: KindNetwork, Message: err.Error()}
}

// Config holds the settings common to every backend family.
type Config struct {
	ID      string        // roster identifier, e.g. "openrouter/gpt-4o-mini"
	Model   string        // model identifier inside the family
	BaseURL string        // override for tests; empty means the family default
	Timeout time.Duration // HTTP timeout; zero means the family default
}
