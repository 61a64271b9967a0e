// Package events broadcasts payment lifecycle events to in-process subscribers.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mstgnz/nepalpay/infra/logger"
)

// Name is a lifecycle event name
type Name string

const (
	PaymentPending Name = "payment.pending"
	PaymentSuccess Name = "payment.success"
	PaymentFailed  Name = "payment.failed"
)

// Names lists every event a Notifier accepts
var Names = []Name{PaymentPending, PaymentSuccess, PaymentFailed}

// IsKnown reports whether name is one of the lifecycle events
func IsKnown(name Name) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}

// Event is delivered to subscribers
type Event struct {
	Name          Name      `json:"name"`
	Provider      string    `json:"provider"`
	TransactionID string    `json:"transaction_id"`
	Status        string    `json:"status"`
	RequestID     string    `json:"request_id,omitempty"`
	Payload       any       `json:"payload"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Handler receives events
type Handler func(ctx context.Context, event Event)

// SubscriptionID identifies a registered handler
type SubscriptionID uint64

type subscription struct {
	id      SubscriptionID
	handler Handler
}

// Notifier is a three-event pub/sub broadcaster.
// Handlers run in registration order; a panicking handler never reaches the emitter.
type Notifier struct {
	mu      sync.RWMutex
	subs    map[Name][]subscription
	nextID  SubscriptionID
	async   bool
	wg      sync.WaitGroup
	onPanic func(event Event, recovered any)
}

// Option configures a Notifier
type Option func(*Notifier)

// WithAsync dispatches each emission on its own goroutine
func WithAsync() Option {
	return func(n *Notifier) {
		n.async = true
	}
}

// WithPanicHandler replaces the default panic reporter
func WithPanicHandler(fn func(event Event, recovered any)) Option {
	return func(n *Notifier) {
		n.onPanic = fn
	}
}

// NewNotifier creates an empty notifier
func NewNotifier(opts ...Option) *Notifier {
	n := &Notifier{
		subs: make(map[Name][]subscription),
		onPanic: func(event Event, recovered any) {
			logger.Error("Event handler panicked", fmt.Errorf("%v", recovered), logger.LogContext{
				Provider:      event.Provider,
				TransactionID: event.TransactionID,
				Fields: map[string]any{
					"event": string(event.Name),
				},
			})
		},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Subscribe registers handler for name
func (n *Notifier) Subscribe(name Name, handler Handler) (SubscriptionID, error) {
	if !IsKnown(name) {
		return 0, fmt.Errorf("unknown event %q", name)
	}
	if handler == nil {
		return 0, fmt.Errorf("handler for %q cannot be nil", name)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID

	// copy on write so Emit can iterate without holding the lock
	current := n.subs[name]
	next := make([]subscription, len(current), len(current)+1)
	copy(next, current)
	n.subs[name] = append(next, subscription{id: id, handler: handler})

	return id, nil
}

// Unsubscribe removes a handler, reporting whether it was registered
func (n *Notifier) Unsubscribe(name Name, id SubscriptionID) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	current := n.subs[name]
	for i, sub := range current {
		if sub.id != id {
			continue
		}
		next := make([]subscription, 0, len(current)-1)
		next = append(next, current[:i]...)
		next = append(next, current[i+1:]...)
		n.subs[name] = next
		return true
	}
	return false
}

// Count returns the number of handlers registered for name
func (n *Notifier) Count(name Name) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs[name])
}

// Emit delivers event to every current subscriber of event.Name
func (n *Notifier) Emit(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	n.mu.RLock()
	subs := n.subs[event.Name]
	n.mu.RUnlock()

	if len(subs) == 0 {
		return
	}

	if !n.async {
		n.dispatch(ctx, subs, event)
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.dispatch(context.WithoutCancel(ctx), subs, event)
	}()
}

// Wait blocks until asynchronous dispatches have finished
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) dispatch(ctx context.Context, subs []subscription, event Event) {
	for _, sub := range subs {
		n.call(ctx, sub.handler, event)
	}
}

func (n *Notifier) call(ctx context.Context, handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil && n.onPanic != nil {
			n.onPanic(event, r)
		}
	}()
	handler(ctx, event)
}
