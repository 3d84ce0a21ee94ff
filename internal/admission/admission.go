// Package admission implements the reservation admission controller: a
// priority-ordered, batched conflict-resolution engine for requests competing
// over a shared bookable resource.
//
// Submissions are held for a batching window so near-simultaneous contenders
// are all registered before any is resolved, then a single worker resolves
// the best contender per conflict set: it is committed through the durable
// gateway and every conflicting pending sibling is rejected. The engine is
// generic over the intent type; the per-resource rules (priority score,
// resource key, conflict predicate) come from a Policy and durable
// persistence from a Gateway.
package admission

import (
	"context"
	"fmt"
	"time"
)

// Policy supplies the per-domain admission rules. Implementations must be
// pure: the controller computes the score and key once at submission and
// never again.
type Policy[T any] interface {
	// Score derives the priority of an intent. Higher wins.
	Score(intent T) float64
	// Key buckets intents that can possibly contend with each other.
	Key(intent T) string
	// Conflicts reports whether two intents under the same key cannot both
	// be honored.
	Conflicts(a, b T) bool
}

// Gateway commits an accepted intent as durable entities. It must re-check
// already-committed reservations under the store's own isolation (the
// in-memory view cannot see writers outside this queue) and return a
// *ConflictError when the resource turns out to be taken.
type Gateway[T any] interface {
	Commit(ctx context.Context, intent T, score float64) (*Receipt, error)
}

// Receipt identifies the durable entities created for an accepted request.
type Receipt struct {
	ReservationID string         `json:"reservation_id"`
	GroupID       string         `json:"group_id"`
	Details       map[string]any `json:"details,omitempty"`
}

// ConflictError is returned by a Gateway when durable state already holds a
// conflicting reservation. Reason is a caller-facing rejection code.
type ConflictError struct {
	Reason  string
	Message string
	Details map[string]any
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// Outcome is the terminal resolution of a pending request. Exactly one is
// set per ticket, by the worker.
type Outcome struct {
	Accepted bool           `json:"accepted"`
	Reason   string         `json:"reason,omitempty"`
	Message  string         `json:"message,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Receipt  *Receipt       `json:"receipt,omitempty"`
	Score    float64        `json:"score"`

	// RejectedSiblings counts the pending contenders turned away when this
	// request was accepted.
	RejectedSiblings int `json:"rejected_siblings,omitempty"`
}

// Decision is the event published for every resolved request.
type Decision struct {
	Queue         string    `json:"queue"`
	ResourceKey   string    `json:"resource_key"`
	Accepted      bool      `json:"accepted"`
	Reason        string    `json:"reason,omitempty"`
	Score         float64   `json:"score"`
	ReservationID string    `json:"reservation_id,omitempty"`
	GroupID       string    `json:"group_id,omitempty"`
	SubmittedAt   time.Time `json:"submitted_at"`
	ResolvedAt    time.Time `json:"resolved_at"`
}

// DecisionPublisher receives every admission decision. Implementations must
// be best-effort and non-blocking: resolution never waits on them.
type DecisionPublisher interface {
	PublishDecision(ctx context.Context, decision Decision)
}

// Stats is a point-in-time snapshot of a controller's queues.
type Stats struct {
	Queue            string `json:"queue"`
	QueueDepth       int    `json:"queue_depth"`
	ResourcesPending int    `json:"resources_pending"`
	PendingRequests  int    `json:"pending_requests"`
	BatchWindow      string `json:"batch_window"`
}
