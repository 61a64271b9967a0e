package events

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribe_RejectsUnknownAndNil(t *testing.T) {
	n := NewNotifier()

	_, err := n.Subscribe("payment.refunded", func(context.Context, Event) {})
	assert.Error(t, err)

	_, err = n.Subscribe(PaymentSuccess, nil)
	assert.Error(t, err)
}

func TestEmit_RegistrationOrder(t *testing.T) {
	n := NewNotifier()

	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		_, err := n.Subscribe(PaymentSuccess, func(context.Context, Event) {
			order = append(order, i)
		})
		require.NoError(t, err)
	}

	n.Emit(context.Background(), Event{Name: PaymentSuccess, TransactionID: "T1"})
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestEmit_OnlyMatchingName(t *testing.T) {
	n := NewNotifier()

	var success, failed int
	_, _ = n.Subscribe(PaymentSuccess, func(context.Context, Event) { success++ })
	_, _ = n.Subscribe(PaymentFailed, func(context.Context, Event) { failed++ })

	n.Emit(context.Background(), Event{Name: PaymentFailed})
	assert.Equal(t, 0, success)
	assert.Equal(t, 1, failed)
}

func TestEmit_SetsOccurredAtAndPayload(t *testing.T) {
	n := NewNotifier()

	var got Event
	_, _ = n.Subscribe(PaymentPending, func(_ context.Context, e Event) { got = e })

	n.Emit(context.Background(), Event{Name: PaymentPending, Provider: "esewa", Payload: map[string]string{"k": "v"}})
	assert.False(t, got.OccurredAt.IsZero())
	assert.Equal(t, "esewa", got.Provider)
	assert.Equal(t, map[string]string{"k": "v"}, got.Payload)
}

func TestUnsubscribe(t *testing.T) {
	n := NewNotifier()

	var calls int
	id, err := n.Subscribe(PaymentSuccess, func(context.Context, Event) { calls++ })
	require.NoError(t, err)
	assert.Equal(t, 1, n.Count(PaymentSuccess))

	assert.True(t, n.Unsubscribe(PaymentSuccess, id))
	assert.False(t, n.Unsubscribe(PaymentSuccess, id))
	assert.Equal(t, 0, n.Count(PaymentSuccess))

	n.Emit(context.Background(), Event{Name: PaymentSuccess})
	assert.Equal(t, 0, calls)
}

func TestEmit_PanickingHandlerIsIsolated(t *testing.T) {
	var recovered any
	n := NewNotifier(WithPanicHandler(func(_ Event, r any) { recovered = r }))

	var after bool
	_, _ = n.Subscribe(PaymentFailed, func(context.Context, Event) { panic("listener broke") })
	_, _ = n.Subscribe(PaymentFailed, func(context.Context, Event) { after = true })

	assert.NotPanics(t, func() {
		n.Emit(context.Background(), Event{Name: PaymentFailed})
	})
	assert.Equal(t, "listener broke", recovered)
	assert.True(t, after, "later handlers still run")
}

func TestEmit_DefaultPanicHandlerLogs(t *testing.T) {
	n := NewNotifier()
	_, _ = n.Subscribe(PaymentFailed, func(context.Context, Event) { panic("boom") })

	assert.NotPanics(t, func() {
		n.Emit(context.Background(), Event{Name: PaymentFailed, Provider: "khalti"})
	})
}

func TestEmit_Async(t *testing.T) {
	n := NewNotifier(WithAsync())

	var calls atomic.Int32
	_, _ = n.Subscribe(PaymentSuccess, func(ctx context.Context, _ Event) {
		assert.NoError(t, ctx.Err())
		calls.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < 10; i++ {
		n.Emit(ctx, Event{Name: PaymentSuccess})
	}
	cancel()
	n.Wait()

	assert.Equal(t, int32(10), calls.Load())
}

func TestNotifier_ConcurrentSubscribeEmit(t *testing.T) {
	n := NewNotifier()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = n.Subscribe(PaymentPending, func(context.Context, Event) {})
		}()
		go func() {
			defer wg.Done()
			n.Emit(context.Background(), Event{Name: PaymentPending})
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, n.Count(PaymentPending))
}

func TestIsKnown(t *testing.T) {
	for _, name := range Names {
		assert.True(t, IsKnown(name))
	}
	assert.False(t, IsKnown("payment.unknown"))
}
