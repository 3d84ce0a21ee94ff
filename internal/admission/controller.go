package admission

import (
	"container/heap"
	"context"
	"errors"
	"sync"
	"time"

	apperrors "posada/pkg/errors"
	"posada/pkg/logger"
)

const (
	defaultBatchWindow   = 2 * time.Second
	defaultCommitTimeout = 5 * time.Second
)

// Config tunes a Controller. Zero values fall back to defaults.
type Config struct {
	// Name labels the controller in logs, stats and published decisions.
	Name string
	// BatchWindow is how long a submission is held before resolution so
	// that near-simultaneous contenders can be compared.
	BatchWindow time.Duration
	// CommitTimeout bounds each durable commit attempt.
	CommitTimeout time.Duration
	// Publisher, when set, receives every decision. Best effort.
	Publisher DecisionPublisher
	Log       *logger.Logger
}

// Controller is a single-worker admission queue over one intent type. All
// requests for the resource class flow through Submit; the worker resolves
// them in priority order after the batching window.
//
// A Controller is an explicit dependency: construct one per resource class,
// Start it, inject it where needed, and Stop it on shutdown.
type Controller[T any] struct {
	name          string
	policy        Policy[T]
	gateway       Gateway[T]
	batchWindow   time.Duration
	commitTimeout time.Duration
	publisher     DecisionPublisher
	log           *logger.Logger

	reg *registry[T]

	mu      sync.Mutex
	cond    *sync.Cond
	queue   ticketHeap[T]
	seq     uint64
	running bool
	stopped bool

	quit chan struct{}
	done chan struct{}
}

// New builds a Controller. It does not start the worker; call Start.
func New[T any](policy Policy[T], gateway Gateway[T], cfg Config) *Controller[T] {
	if cfg.BatchWindow <= 0 {
		cfg.BatchWindow = defaultBatchWindow
	}
	if cfg.CommitTimeout <= 0 {
		cfg.CommitTimeout = defaultCommitTimeout
	}
	if cfg.Log == nil {
		cfg.Log = logger.Discard()
	}

	c := &Controller[T]{
		name:          cfg.Name,
		policy:        policy,
		gateway:       gateway,
		batchWindow:   cfg.BatchWindow,
		commitTimeout: cfg.CommitTimeout,
		publisher:     cfg.Publisher,
		log:           cfg.Log,
		reg:           newRegistry[T](policy.Conflicts),
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Start launches the worker goroutine. Starting twice or after Stop is an
// error.
func (c *Controller[T]) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return errors.New("admission controller already stopped")
	}
	if c.running {
		return errors.New("admission controller already started")
	}
	c.running = true
	go c.run()

	c.log.Info("admission controller started",
		"queue", c.name,
		"batch_window", c.batchWindow.String(),
	)
	return nil
}

// Stop shuts the worker down and waits for it to exit. Tickets still queued
// are abandoned unresolved; their callers time out on Wait, exactly as if
// the process had restarted.
func (c *Controller[T]) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		<-c.done
		return
	}
	c.stopped = true
	wasRunning := c.running
	c.mu.Unlock()

	close(c.quit)
	c.cond.Broadcast()
	if wasRunning {
		<-c.done
	} else {
		close(c.done)
	}

	c.log.Info("admission controller stopped", "queue", c.name)
}

// Submit registers an intent and returns the caller's ticket. The score,
// key and batching deadline are fixed here; the worker does the rest.
func (c *Controller[T]) Submit(intent T) (*Ticket[T], error) {
	score := c.policy.Score(intent)
	key := c.policy.Key(intent)
	now := time.Now().UTC()

	c.mu.Lock()
	if c.stopped || !c.running {
		c.mu.Unlock()
		return nil, apperrors.Unavailable(c.name + " admission queue")
	}
	c.seq++
	t := newTicket(intent, key, score, now, now.Add(c.batchWindow), c.seq)
	c.reg.register(t)
	heap.Push(&c.queue, t)
	c.mu.Unlock()

	c.cond.Signal()

	c.log.Info("reservation request queued",
		"queue", c.name,
		"resource_key", key,
		"score", score,
	)
	return t, nil
}

// HasPendingConflict reports whether a pending request conflicts with probe.
// Callers use it to pick an uncontested resource before submitting.
func (c *Controller[T]) HasPendingConflict(probe T) bool {
	return c.reg.hasConflict(c.policy.Key(probe), probe)
}

// Stats snapshots queue depth and registry occupancy.
func (c *Controller[T]) Stats() Stats {
	c.mu.Lock()
	depth := c.queue.Len()
	c.mu.Unlock()

	keys, pending := c.reg.stats()
	return Stats{
		Queue:            c.name,
		QueueDepth:       depth,
		ResourcesPending: keys,
		PendingRequests:  pending,
		BatchWindow:      c.batchWindow.String(),
	}
}

func (c *Controller[T]) run() {
	defer close(c.done)
	for {
		t := c.next()
		if t == nil {
			return
		}

		// Hold until the ticket's batching deadline so contenders that
		// arrived just after it are registered before resolution.
		if wait := time.Until(t.processAt); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-c.quit:
				timer.Stop()
				return
			}
		}

		c.evaluate(t)
	}
}

// next pops the highest-priority ticket, blocking until one is available or
// the controller stops.
func (c *Controller[T]) next() *Ticket[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.queue.Len() == 0 {
		if c.stopped {
			return nil
		}
		c.cond.Wait()
	}
	if c.stopped {
		return nil
	}
	return heap.Pop(&c.queue).(*Ticket[T])
}

// evaluate resolves a single ticket. Every path out of here resolves t and
// removes it from the registry; a panic in the policy or gateway is
// converted to a processing-error rejection so the worker never dies.
func (c *Controller[T]) evaluate(t *Ticket[T]) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("admission evaluation panicked",
				"queue", c.name,
				"resource_key", t.key,
				"panic", r,
			)
			c.finish(t, rejectProcessing(t))
		}
	}()

	if t.resolved() {
		// Already rejected as a sibling of an earlier winner.
		c.reg.resolveAndRemove(t, nil)
		return
	}

	// A strictly better pending contender means this one loses without
	// touching the store.
	for _, rival := range c.reg.unresolvedRivals(t) {
		if rival.beats(t) {
			c.finish(t, &Outcome{
				Reason:  apperrors.CodePriorityLoss,
				Message: "a higher priority request is pending for this resource",
				Score:   t.score,
				Details: map[string]any{
					"winning_score": rival.score,
				},
			})
			c.log.Info("reservation request lost priority",
				"queue", c.name,
				"resource_key", t.key,
				"score", t.score,
				"winning_score", rival.score,
			)
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.commitTimeout)
	defer cancel()

	receipt, err := c.gateway.Commit(ctx, t.intent, t.score)
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			c.finish(t, &Outcome{
				Reason:  conflict.Reason,
				Message: conflict.Message,
				Details: conflict.Details,
				Score:   t.score,
			})
			c.log.Warn("reservation request rejected by durable state",
				"queue", c.name,
				"resource_key", t.key,
				"reason", conflict.Reason,
			)
			return
		}

		c.finish(t, rejectProcessing(t))
		c.log.Error("reservation commit failed",
			"queue", c.name,
			"resource_key", t.key,
			"error", err,
		)
		return
	}

	// Winner. Turn away every pending contender, then resolve the winner.
	losers := c.reg.rejectRivals(t, func(loser *Ticket[T]) *Outcome {
		return &Outcome{
			Reason:  apperrors.CodePriorityLoss,
			Message: "a higher priority request was accepted for this resource",
			Score:   loser.score,
			Details: map[string]any{
				"winning_score": t.score,
			},
		}
	})
	for _, loser := range losers {
		c.publish(loser, loser.Outcome())
	}

	c.finish(t, &Outcome{
		Accepted:         true,
		Receipt:          receipt,
		Score:            t.score,
		RejectedSiblings: len(losers),
	})
	c.log.Info("reservation request accepted",
		"queue", c.name,
		"resource_key", t.key,
		"score", t.score,
		"reservation_id", receipt.ReservationID,
		"rejected_siblings", len(losers),
	)
}

// finish resolves t, removes it from the registry and publishes the
// decision. Passing a nil outcome only performs registry cleanup for a
// ticket resolved elsewhere.
func (c *Controller[T]) finish(t *Ticket[T], o *Outcome) {
	c.reg.resolveAndRemove(t, o)
	if o != nil {
		c.publish(t, o)
	}
}

func (c *Controller[T]) publish(t *Ticket[T], o *Outcome) {
	if c.publisher == nil || o == nil {
		return
	}
	d := Decision{
		Queue:       c.name,
		ResourceKey: t.key,
		Accepted:    o.Accepted,
		Reason:      o.Reason,
		Score:       o.Score,
		SubmittedAt: t.arrivedAt,
		ResolvedAt:  time.Now().UTC(),
	}
	if o.Receipt != nil {
		d.ReservationID = o.Receipt.ReservationID
		d.GroupID = o.Receipt.GroupID
	}
	c.publisher.PublishDecision(context.Background(), d)
}

func rejectProcessing[T any](t *Ticket[T]) *Outcome {
	return &Outcome{
		Reason:  apperrors.CodeProcessingError,
		Message: "failed to process reservation request",
		Score:   t.score,
	}
}
