package admission

import "sync"

// registry tracks every in-flight ticket, bucketed by resource key. It is
// the controller's shared view of pending work: submissions register here
// before the batching window opens, HTTP-side probes read it, and the worker
// scans it to find contenders. One mutex guards the whole structure.
type registry[T any] struct {
	mu        sync.Mutex
	conflicts func(a, b T) bool
	buckets   map[string][]*Ticket[T]
}

func newRegistry[T any](conflicts func(a, b T) bool) *registry[T] {
	return &registry[T]{
		conflicts: conflicts,
		buckets:   make(map[string][]*Ticket[T]),
	}
}

func (r *registry[T]) register(t *Ticket[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buckets[t.key] = append(r.buckets[t.key], t)
}

// unresolvedRivals returns a snapshot of the pending tickets in t's bucket
// that conflict with t, excluding t itself.
func (r *registry[T]) unresolvedRivals(t *Ticket[T]) []*Ticket[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	var rivals []*Ticket[T]
	for _, other := range r.buckets[t.key] {
		if other == t || other.resolved() {
			continue
		}
		if r.conflicts(t.intent, other.intent) {
			rivals = append(rivals, other)
		}
	}
	return rivals
}

// hasConflict reports whether any pending ticket under key conflicts with
// probe. Used before submission to steer requests away from resources that
// are already contested.
func (r *registry[T]) hasConflict(key string, probe T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, other := range r.buckets[key] {
		if other.resolved() {
			continue
		}
		if r.conflicts(probe, other.intent) {
			return true
		}
	}
	return false
}

// resolveAndRemove resolves t and drops it from its bucket. A nil outcome
// removes only, for tickets already resolved as a winner's sibling. Empty
// buckets are evicted so the map does not grow with the lifetime of the
// process.
func (r *registry[T]) resolveAndRemove(t *Ticket[T], o *Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o != nil {
		t.resolve(o)
	}
	r.removeLocked(t)
}

// rejectRivals atomically resolves and removes every pending ticket that
// conflicts with the winner, using outcomes produced by reject. It returns
// the losers so the caller can publish their decisions.
func (r *registry[T]) rejectRivals(winner *Ticket[T], reject func(loser *Ticket[T]) *Outcome) []*Ticket[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	var losers []*Ticket[T]
	for _, other := range r.buckets[winner.key] {
		if other == winner || other.resolved() {
			continue
		}
		if !r.conflicts(winner.intent, other.intent) {
			continue
		}
		other.resolve(reject(other))
		losers = append(losers, other)
	}
	for _, loser := range losers {
		r.removeLocked(loser)
	}
	return losers
}

func (r *registry[T]) removeLocked(t *Ticket[T]) {
	bucket := r.buckets[t.key]
	for i, other := range bucket {
		if other == t {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(r.buckets, t.key)
	} else {
		r.buckets[t.key] = bucket
	}
}

// stats returns the number of contested resource keys and total pending
// tickets.
func (r *registry[T]) stats() (keys, pending int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, bucket := range r.buckets {
		keys++
		pending += len(bucket)
	}
	return keys, pending
}
