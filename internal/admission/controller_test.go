package admission

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "posada/pkg/errors"
)

// slot is a minimal intent for exercising the engine: a half-open range on a
// named resource with an explicit priority weight.
type slot struct {
	resource string
	from     int
	to       int
	weight   float64
}

type slotPolicy struct{}

func (slotPolicy) Score(s slot) float64 { return s.weight }

func (slotPolicy) Key(s slot) string { return s.resource }

func (slotPolicy) Conflicts(a, b slot) bool {
	return a.resource == b.resource && a.from < b.to && b.from < a.to
}

type fakeGateway struct {
	mu         sync.Mutex
	commits    []slot
	commitFunc func(ctx context.Context, s slot, score float64) (*Receipt, error)
}

func (g *fakeGateway) Commit(ctx context.Context, s slot, score float64) (*Receipt, error) {
	g.mu.Lock()
	g.commits = append(g.commits, s)
	n := len(g.commits)
	g.mu.Unlock()

	if g.commitFunc != nil {
		return g.commitFunc(ctx, s, score)
	}
	return &Receipt{ReservationID: "res-" + s.resource, GroupID: "grp-" + s.resource, Details: map[string]any{"commit": n}}, nil
}

func (g *fakeGateway) commitCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.commits)
}

func newTestController(t *testing.T, gw Gateway[slot], window time.Duration) *Controller[slot] {
	t.Helper()
	c := New[slot](slotPolicy{}, gw, Config{
		Name:        "test",
		BatchWindow: window,
	})
	if err := c.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(c.Stop)
	return c
}

func waitOutcome(t *testing.T, tk *Ticket[slot]) *Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	o, err := tk.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	return o
}

func TestController_SingleRequestAccepted(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(t, gw, 20*time.Millisecond)

	tk, err := c.Submit(slot{resource: "r1", from: 0, to: 5, weight: 100})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	o := waitOutcome(t, tk)
	if !o.Accepted {
		t.Fatalf("outcome not accepted: %+v", o)
	}
	if o.Receipt == nil || o.Receipt.ReservationID != "res-r1" {
		t.Errorf("unexpected receipt: %+v", o.Receipt)
	}
	if o.Score != 100 {
		t.Errorf("Score = %v, want 100", o.Score)
	}
	if got := gw.commitCount(); got != 1 {
		t.Errorf("commit count = %d, want 1", got)
	}
}

func TestController_MutualExclusion(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(t, gw, 30*time.Millisecond)

	const n = 8
	tickets := make([]*Ticket[slot], 0, n)
	for i := 0; i < n; i++ {
		tk, err := c.Submit(slot{resource: "r1", from: 0, to: 5, weight: 50})
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		tickets = append(tickets, tk)
	}

	accepted, rejected := 0, 0
	for _, tk := range tickets {
		o := waitOutcome(t, tk)
		if o.Accepted {
			accepted++
		} else {
			rejected++
			if o.Reason != apperrors.CodePriorityLoss {
				t.Errorf("rejection reason = %q, want %q", o.Reason, apperrors.CodePriorityLoss)
			}
		}
	}

	if accepted != 1 {
		t.Errorf("accepted = %d, want exactly 1", accepted)
	}
	if rejected != n-1 {
		t.Errorf("rejected = %d, want %d", rejected, n-1)
	}
	if got := gw.commitCount(); got != 1 {
		t.Errorf("commit count = %d, want 1", got)
	}
}

func TestController_HigherPriorityArrivingLaterWins(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(t, gw, 60*time.Millisecond)

	low, err := c.Submit(slot{resource: "r1", from: 0, to: 5, weight: 106})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	high, err := c.Submit(slot{resource: "r1", from: 2, to: 7, weight: 402})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	lowOutcome := waitOutcome(t, low)
	highOutcome := waitOutcome(t, high)

	if lowOutcome.Accepted {
		t.Error("low priority request was accepted")
	}
	if lowOutcome.Reason != apperrors.CodePriorityLoss {
		t.Errorf("low reason = %q, want %q", lowOutcome.Reason, apperrors.CodePriorityLoss)
	}
	if ws, ok := lowOutcome.Details["winning_score"].(float64); !ok || ws != 402 {
		t.Errorf("winning_score detail = %v, want 402", lowOutcome.Details["winning_score"])
	}
	if !highOutcome.Accepted {
		t.Errorf("high priority request rejected: %+v", highOutcome)
	}
	if got := gw.commitCount(); got != 1 {
		t.Errorf("commit count = %d, want 1", got)
	}
}

func TestController_TieBreaksOnArrivalOrder(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(t, gw, 40*time.Millisecond)

	first, err := c.Submit(slot{resource: "r1", from: 14, to: 18, weight: 770})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	second, err := c.Submit(slot{resource: "r1", from: 16, to: 20, weight: 770})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if !waitOutcome(t, first).Accepted {
		t.Error("first arrival was rejected on an exact score tie")
	}
	if waitOutcome(t, second).Accepted {
		t.Error("second arrival was accepted on an exact score tie")
	}
}

func TestController_NonConflictingRequestsAllAccepted(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(t, gw, 20*time.Millisecond)

	a, err := c.Submit(slot{resource: "r1", from: 0, to: 5, weight: 100})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	// Same resource, disjoint half-open range: checkout day equals check-in.
	b, err := c.Submit(slot{resource: "r1", from: 5, to: 9, weight: 100})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	other, err := c.Submit(slot{resource: "r2", from: 0, to: 5, weight: 100})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	for _, tk := range []*Ticket[slot]{a, b, other} {
		if o := waitOutcome(t, tk); !o.Accepted {
			t.Errorf("non-conflicting request rejected: %+v", o)
		}
	}
	if got := gw.commitCount(); got != 3 {
		t.Errorf("commit count = %d, want 3", got)
	}
}

func TestController_DurableConflictUsesGatewayReason(t *testing.T) {
	gw := &fakeGateway{
		commitFunc: func(ctx context.Context, s slot, score float64) (*Receipt, error) {
			return nil, &ConflictError{
				Reason:  apperrors.CodeRoomReserved,
				Message: "room already reserved for the requested dates",
				Details: map[string]any{"room_id": s.resource},
			}
		},
	}
	c := newTestController(t, gw, 20*time.Millisecond)

	tk, err := c.Submit(slot{resource: "r1", from: 0, to: 5, weight: 100})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	o := waitOutcome(t, tk)
	if o.Accepted {
		t.Fatal("request accepted despite durable conflict")
	}
	if o.Reason != apperrors.CodeRoomReserved {
		t.Errorf("reason = %q, want %q", o.Reason, apperrors.CodeRoomReserved)
	}
	if o.Details["room_id"] != "r1" {
		t.Errorf("details = %v, want room_id r1", o.Details)
	}
}

func TestController_GatewayErrorRejectsWithoutKillingWorker(t *testing.T) {
	var failed bool
	gw := &fakeGateway{}
	gw.commitFunc = func(ctx context.Context, s slot, score float64) (*Receipt, error) {
		if !failed {
			failed = true
			return nil, errors.New("connection reset")
		}
		return &Receipt{ReservationID: "res-ok", GroupID: "grp-ok"}, nil
	}
	c := newTestController(t, gw, 20*time.Millisecond)

	first, err := c.Submit(slot{resource: "r1", from: 0, to: 5, weight: 100})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	o := waitOutcome(t, first)
	if o.Accepted || o.Reason != apperrors.CodeProcessingError {
		t.Fatalf("outcome = %+v, want %s rejection", o, apperrors.CodeProcessingError)
	}

	// Worker must keep serving later requests.
	second, err := c.Submit(slot{resource: "r2", from: 0, to: 5, weight: 100})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if o := waitOutcome(t, second); !o.Accepted {
		t.Errorf("request after gateway failure rejected: %+v", o)
	}
}

func TestController_GatewayPanicRejectsWithoutKillingWorker(t *testing.T) {
	var panicked bool
	gw := &fakeGateway{}
	gw.commitFunc = func(ctx context.Context, s slot, score float64) (*Receipt, error) {
		if !panicked {
			panicked = true
			panic("corrupt state")
		}
		return &Receipt{ReservationID: "res-ok", GroupID: "grp-ok"}, nil
	}
	c := newTestController(t, gw, 20*time.Millisecond)

	first, err := c.Submit(slot{resource: "r1", from: 0, to: 5, weight: 100})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	o := waitOutcome(t, first)
	if o.Accepted || o.Reason != apperrors.CodeProcessingError {
		t.Fatalf("outcome = %+v, want %s rejection", o, apperrors.CodeProcessingError)
	}

	second, err := c.Submit(slot{resource: "r2", from: 0, to: 5, weight: 100})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if o := waitOutcome(t, second); !o.Accepted {
		t.Errorf("request after panic rejected: %+v", o)
	}
}

func TestController_WaitTimeoutDoesNotCancelProcessing(t *testing.T) {
	gw := &fakeGateway{
		commitFunc: func(ctx context.Context, s slot, score float64) (*Receipt, error) {
			time.Sleep(120 * time.Millisecond)
			return &Receipt{ReservationID: "res-slow", GroupID: "grp-slow"}, nil
		},
	}
	c := newTestController(t, gw, 10*time.Millisecond)

	tk, err := c.Submit(slot{resource: "r1", from: 0, to: 5, weight: 100})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := tk.Wait(ctx); err == nil {
		t.Fatal("Wait() with short deadline returned no error")
	} else if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeTimeout {
		t.Fatalf("Wait() error code = %q, want %q", appErr.Code, apperrors.CodeTimeout)
	}

	// The request keeps processing after the caller walks away.
	o := waitOutcome(t, tk)
	if !o.Accepted {
		t.Errorf("abandoned request not committed: %+v", o)
	}
}

func TestController_SubmitAfterStop(t *testing.T) {
	c := New[slot](slotPolicy{}, &fakeGateway{}, Config{Name: "test", BatchWindow: 10 * time.Millisecond})
	if err := c.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	c.Stop()

	if _, err := c.Submit(slot{resource: "r1", from: 0, to: 5, weight: 1}); err == nil {
		t.Error("Submit() after Stop() returned no error")
	}
}

func TestController_StartTwice(t *testing.T) {
	c := New[slot](slotPolicy{}, &fakeGateway{}, Config{Name: "test", BatchWindow: 10 * time.Millisecond})
	if err := c.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(c.Stop)

	if err := c.Start(); err == nil {
		t.Error("second Start() returned no error")
	}
}

func TestController_RegistryDrainsAfterResolution(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(t, gw, 20*time.Millisecond)

	tickets := make([]*Ticket[slot], 0, 4)
	for i := 0; i < 4; i++ {
		tk, err := c.Submit(slot{resource: "r1", from: 0, to: 5, weight: float64(10 * i)})
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		tickets = append(tickets, tk)
	}
	for _, tk := range tickets {
		waitOutcome(t, tk)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		stats := c.Stats()
		if stats.PendingRequests == 0 && stats.ResourcesPending == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("registry not drained: %+v", stats)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestController_HasPendingConflict(t *testing.T) {
	gw := &fakeGateway{
		commitFunc: func(ctx context.Context, s slot, score float64) (*Receipt, error) {
			time.Sleep(80 * time.Millisecond)
			return &Receipt{ReservationID: "res", GroupID: "grp"}, nil
		},
	}
	c := newTestController(t, gw, 40*time.Millisecond)

	tk, err := c.Submit(slot{resource: "r1", from: 0, to: 5, weight: 100})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if !c.HasPendingConflict(slot{resource: "r1", from: 3, to: 8, weight: 1}) {
		t.Error("overlapping probe reported no pending conflict")
	}
	if c.HasPendingConflict(slot{resource: "r1", from: 5, to: 8, weight: 1}) {
		t.Error("adjacent probe reported a pending conflict")
	}
	if c.HasPendingConflict(slot{resource: "r2", from: 0, to: 5, weight: 1}) {
		t.Error("probe on another resource reported a pending conflict")
	}

	waitOutcome(t, tk)
}

func TestController_StatsSnapshot(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(t, gw, 500*time.Millisecond)

	if _, err := c.Submit(slot{resource: "r1", from: 0, to: 5, weight: 10}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if _, err := c.Submit(slot{resource: "r2", from: 0, to: 5, weight: 10}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	stats := c.Stats()
	if stats.Queue != "test" {
		t.Errorf("Queue = %q, want test", stats.Queue)
	}
	if stats.PendingRequests != 2 {
		t.Errorf("PendingRequests = %d, want 2", stats.PendingRequests)
	}
	if stats.ResourcesPending != 2 {
		t.Errorf("ResourcesPending = %d, want 2", stats.ResourcesPending)
	}
	if stats.BatchWindow != "500ms" {
		t.Errorf("BatchWindow = %q, want 500ms", stats.BatchWindow)
	}
}

type recordingPublisher struct {
	mu        sync.Mutex
	decisions []Decision
}

func (p *recordingPublisher) PublishDecision(_ context.Context, d Decision) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.decisions = append(p.decisions, d)
}

func (p *recordingPublisher) snapshot() []Decision {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Decision(nil), p.decisions...)
}

func TestController_PublishesEveryDecision(t *testing.T) {
	pub := &recordingPublisher{}
	c := New[slot](slotPolicy{}, &fakeGateway{}, Config{
		Name:        "test",
		BatchWindow: 30 * time.Millisecond,
		Publisher:   pub,
	})
	if err := c.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(c.Stop)

	winner, err := c.Submit(slot{resource: "r1", from: 0, to: 5, weight: 200})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	loser, err := c.Submit(slot{resource: "r1", from: 0, to: 5, weight: 50})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitOutcome(t, winner)
	waitOutcome(t, loser)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if len(pub.snapshot()) >= 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("published %d decisions, want 2", len(pub.snapshot()))
		}
		time.Sleep(5 * time.Millisecond)
	}

	var acceptedSeen, rejectedSeen bool
	for _, d := range pub.snapshot() {
		if d.Queue != "test" || d.ResourceKey != "r1" {
			t.Errorf("decision routing = %q/%q, want test/r1", d.Queue, d.ResourceKey)
		}
		if d.Accepted {
			acceptedSeen = true
			if d.ReservationID == "" {
				t.Error("accepted decision missing reservation id")
			}
		} else {
			rejectedSeen = true
			if d.Reason != apperrors.CodePriorityLoss {
				t.Errorf("rejected decision reason = %q", d.Reason)
			}
		}
	}
	if !acceptedSeen || !rejectedSeen {
		t.Errorf("decisions missing outcomes: accepted=%v rejected=%v", acceptedSeen, rejectedSeen)
	}
}
