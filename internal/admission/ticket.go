package admission

import (
	"context"
	"sync"
	"time"

	apperrors "posada/pkg/errors"
)

// Ticket is the handle a caller holds while its request is pending. A ticket
// is resolved exactly once by the controller worker; callers block on Wait.
type Ticket[T any] struct {
	intent    T
	key       string
	score     float64
	arrivedAt time.Time
	processAt time.Time
	seq       uint64

	mu      sync.Mutex
	outcome *Outcome
	done    chan struct{}
}

func newTicket[T any](intent T, key string, score float64, arrivedAt, processAt time.Time, seq uint64) *Ticket[T] {
	return &Ticket[T]{
		intent:    intent,
		key:       key,
		score:     score,
		arrivedAt: arrivedAt,
		processAt: processAt,
		seq:       seq,
		done:      make(chan struct{}),
	}
}

// Intent returns the submitted intent.
func (t *Ticket[T]) Intent() T { return t.intent }

// Key returns the resource key the intent contends on.
func (t *Ticket[T]) Key() string { return t.key }

// Score returns the priority computed at submission.
func (t *Ticket[T]) Score() float64 { return t.score }

// ArrivedAt returns the submission timestamp (UTC).
func (t *Ticket[T]) ArrivedAt() time.Time { return t.arrivedAt }

// Wait blocks until the ticket is resolved or ctx expires. An expired ctx
// abandons the wait only; the request stays queued and is still resolved by
// the worker, so the underlying reservation may yet be created.
func (t *Ticket[T]) Wait(ctx context.Context) (*Outcome, error) {
	select {
	case <-t.done:
		return t.Outcome(), nil
	case <-ctx.Done():
		return nil, apperrors.Timeout("reservation request is still being processed")
	}
}

// Outcome returns the resolution, or nil while the ticket is pending.
func (t *Ticket[T]) Outcome() *Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outcome
}

func (t *Ticket[T]) resolved() bool {
	return t.Outcome() != nil
}

// resolve sets the outcome and releases waiters. The first call wins; later
// calls are no-ops so a late worker pass can never flip a decision.
func (t *Ticket[T]) resolve(o *Outcome) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.outcome != nil {
		return false
	}
	t.outcome = o
	close(t.done)
	return true
}

// beats reports whether t outranks other: higher score first, then earlier
// arrival, then submission order. The sequence number makes the order total,
// so two contenders with identical scores and timestamps still resolve
// deterministically.
func (t *Ticket[T]) beats(other *Ticket[T]) bool {
	if t.score != other.score {
		return t.score > other.score
	}
	if !t.arrivedAt.Equal(other.arrivedAt) {
		return t.arrivedAt.Before(other.arrivedAt)
	}
	return t.seq < other.seq
}
