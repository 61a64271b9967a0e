package provider

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mstgnz/nepalpay/infra/events"
	"github.com/mstgnz/nepalpay/infra/opensearch"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdapter returns canned responses. registryWith hides its optional
// methods unless refund or callback is set.
type fakeAdapter struct {
	id       ProviderID
	refund   bool
	callback bool

	verifyResp *VerificationResponse
	verifyErr  error
	refundResp *RefundResponse
	initErr    error
}

func (f *fakeAdapter) ID() ProviderID { return f.id }

func (f *fakeAdapter) InitiatePayment(_ context.Context, req PaymentRequest) (*PaymentInitResponse, error) {
	if f.initErr != nil {
		return nil, f.initErr
	}
	return &PaymentInitResponse{
		Provider:      f.id,
		TransactionID: req.TransactionID,
		Amount:        req.Amount,
		Currency:      CurrencyNPR,
		Status:        StatusPending,
		RedirectURL:   "https://gateway.example/pay",
	}, nil
}

func (f *fakeAdapter) VerifyPayment(context.Context, VerifyRequest) (*VerificationResponse, error) {
	return f.verifyResp, f.verifyErr
}

func (f *fakeAdapter) RefundPayment(context.Context, RefundRequest) (*RefundResponse, error) {
	return f.refundResp, nil
}

func (f *fakeAdapter) HandleCallback(context.Context, CallbackRequest) (*VerificationResponse, error) {
	return f.verifyResp, f.verifyErr
}

func (f *fakeAdapter) CallbackMode() CallbackMode { return CallbackLookup }

// initVerifyOnly hides the optional methods of a fakeAdapter
type initVerifyOnly struct {
	inner *fakeAdapter
}

func (a initVerifyOnly) ID() ProviderID { return a.inner.id }

func (a initVerifyOnly) InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentInitResponse, error) {
	return a.inner.InitiatePayment(ctx, req)
}

func (a initVerifyOnly) VerifyPayment(ctx context.Context, req VerifyRequest) (*VerificationResponse, error) {
	return a.inner.VerifyPayment(ctx, req)
}

func registryWith(adapters ...*fakeAdapter) *ProviderRegistry {
	r := NewProviderRegistry()
	for _, a := range adapters {
		a := a
		r.Register(a.id, func(RawConfig) (Adapter, error) {
			if a.refund || a.callback {
				return a, nil
			}
			return initVerifyOnly{inner: a}, nil
		})
	}
	return r
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) attach(t *testing.T, svc *PaymentService) {
	t.Helper()
	for _, name := range events.Names {
		_, err := svc.Subscribe(name, func(_ context.Context, e events.Event) {
			r.mu.Lock()
			r.events = append(r.events, e)
			r.mu.Unlock()
		})
		require.NoError(t, err)
	}
}

func (r *eventRecorder) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

func TestNewPaymentService_DispatchTable(t *testing.T) {
	reg := registryWith(&fakeAdapter{id: "A"}, &fakeAdapter{id: "B"}, &fakeAdapter{id: "C"})

	svc, err := NewPaymentService(Config{"A": {}, "C": {}}, WithRegistry(reg))
	require.NoError(t, err)
	assert.Equal(t, []ProviderID{"A", "C"}, svc.Providers())

	ctx := context.Background()
	_, err = svc.Initiate(ctx, "B", PaymentRequest{Amount: decimal.NewFromInt(1), TransactionID: "T"})
	assert.ErrorIs(t, err, ErrProviderNotConfigured)

	_, err = svc.Verify(ctx, "B", VerifyRequest{TransactionID: "T"})
	assert.ErrorIs(t, err, ErrProviderNotConfigured)

	_, err = svc.Refund(ctx, "B", RefundRequest{TransactionID: "T"})
	assert.ErrorIs(t, err, ErrProviderNotConfigured)

	_, err = svc.HandleCallback(ctx, "B", CallbackRequest{})
	assert.ErrorIs(t, err, ErrProviderNotConfigured)

	_, err = svc.Capabilities("B")
	assert.ErrorIs(t, err, ErrProviderNotConfigured)
}

func TestNewPaymentService_UnknownProvider(t *testing.T) {
	_, err := NewPaymentService(Config{"nope": {}}, WithRegistry(NewProviderRegistry()))
	assert.ErrorIs(t, err, ErrConfigurationInvalid)
}

func TestNewPaymentService_FactoryError(t *testing.T) {
	reg := NewProviderRegistry()
	reg.Register("bad", func(RawConfig) (Adapter, error) {
		return nil, ConfigError("bad", "invalid bad configuration", nil)
	})

	_, err := NewPaymentService(Config{"bad": {}}, WithRegistry(reg))
	assert.ErrorIs(t, err, ErrConfigurationInvalid)
}

func TestPaymentService_CapabilityGating(t *testing.T) {
	reg := registryWith(&fakeAdapter{id: "basic"})
	svc, err := NewPaymentService(Config{"basic": {}}, WithRegistry(reg))
	require.NoError(t, err)

	caps, err := svc.Capabilities("basic")
	require.NoError(t, err)
	assert.Equal(t, Capabilities{}, caps)

	assert.NotPanics(t, func() {
		_, err = svc.Refund(context.Background(), "basic", RefundRequest{TransactionID: "T"})
	})
	assert.ErrorIs(t, err, ErrCapabilityNotSupported)

	_, err = svc.HandleCallback(context.Background(), "basic", CallbackRequest{})
	assert.ErrorIs(t, err, ErrCapabilityNotSupported)
}

func TestPaymentService_InitiateEmitsPending(t *testing.T) {
	reg := registryWith(&fakeAdapter{id: "A"})
	svc, err := NewPaymentService(Config{"A": {}}, WithRegistry(reg))
	require.NoError(t, err)

	rec := &eventRecorder{}
	rec.attach(t, svc)

	resp, err := svc.Initiate(context.Background(), "A", PaymentRequest{Amount: decimal.NewFromInt(100), TransactionID: "TXN1"})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, resp.Status)
	assert.Equal(t, "TXN1", resp.TransactionID)
	assert.True(t, resp.Amount.Equal(decimal.NewFromInt(100)))
	assert.NotEmpty(t, resp.RedirectURL)

	got := rec.all()
	require.Len(t, got, 1)
	assert.Equal(t, events.PaymentPending, got[0].Name)
	assert.Equal(t, "TXN1", got[0].TransactionID)
	assert.Equal(t, "A", got[0].Provider)
	assert.Same(t, resp, got[0].Payload)
}

func TestPaymentService_InitiateErrorEmitsNothing(t *testing.T) {
	reg := registryWith(&fakeAdapter{id: "A", initErr: PayloadError("A", "initiate", "amount must be greater than 0", nil)})
	svc, err := NewPaymentService(Config{"A": {}}, WithRegistry(reg))
	require.NoError(t, err)

	rec := &eventRecorder{}
	rec.attach(t, svc)

	_, err = svc.Initiate(context.Background(), "A", PaymentRequest{})
	assert.ErrorIs(t, err, ErrPayloadInvalid)
	assert.Empty(t, rec.all())
}

func TestPaymentService_VerifyEmitsByStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   PaymentStatus
		expected []events.Name
	}{
		{"success", StatusSuccess, []events.Name{events.PaymentSuccess}},
		{"failed", StatusFailed, []events.Name{events.PaymentFailed}},
		{"pending", StatusPending, []events.Name{events.PaymentPending}},
		{"no_status", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := &fakeAdapter{id: "A", verifyResp: &VerificationResponse{Provider: "A", TransactionID: "T1", Status: tt.status}}
			svc, err := NewPaymentService(Config{"A": {}}, WithRegistry(registryWith(adapter)))
			require.NoError(t, err)

			rec := &eventRecorder{}
			rec.attach(t, svc)

			resp, err := svc.Verify(context.Background(), "A", VerifyRequest{TransactionID: "T1"})
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.Status)

			got := rec.all()
			require.Len(t, got, len(tt.expected))
			for i, name := range tt.expected {
				assert.Equal(t, name, got[i].Name)
				assert.Equal(t, "T1", got[i].TransactionID)
				assert.Same(t, resp, got[i].Payload)
			}
		})
	}
}

func TestPaymentService_VerifyErrorPropagates(t *testing.T) {
	cause := NewError(KindTransportFailure, "A", "GET /status", "HTTP error 503", nil)
	adapter := &fakeAdapter{id: "A", verifyErr: cause}
	svc, err := NewPaymentService(Config{"A": {}}, WithRegistry(registryWith(adapter)))
	require.NoError(t, err)

	rec := &eventRecorder{}
	rec.attach(t, svc)

	resp, err := svc.Verify(context.Background(), "A", VerifyRequest{TransactionID: "T"})
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrTransportFailure)
	assert.Empty(t, rec.all())
}

func TestPaymentService_RefundAndCallback(t *testing.T) {
	adapter := &fakeAdapter{
		id:         "full",
		refund:     true,
		callback:   true,
		verifyResp: &VerificationResponse{Provider: "full", TransactionID: "T2", Status: StatusSuccess},
		refundResp: &RefundResponse{Provider: "full", TransactionID: "T2", Status: StatusSuccess, Amount: decimal.NewFromInt(10)},
	}
	svc, err := NewPaymentService(Config{"full": {}}, WithRegistry(registryWith(adapter)))
	require.NoError(t, err)

	caps, err := svc.Capabilities("full")
	require.NoError(t, err)
	assert.Equal(t, Capabilities{Refund: true, Callback: true, CallbackMode: CallbackLookup}, caps)

	rec := &eventRecorder{}
	rec.attach(t, svc)

	refund, err := svc.Refund(context.Background(), "full", RefundRequest{TransactionID: "T2"})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, refund.Status)

	cb, err := svc.HandleCallback(context.Background(), "full", CallbackRequest{Query: map[string]string{"pidx": "p"}})
	require.NoError(t, err)
	assert.Equal(t, "T2", cb.TransactionID)

	got := rec.all()
	require.Len(t, got, 2)
	assert.Equal(t, events.PaymentSuccess, got[0].Name)
	assert.Equal(t, events.PaymentSuccess, got[1].Name)
}

func TestPaymentService_OwnsNotifier(t *testing.T) {
	reg := registryWith(&fakeAdapter{id: "A"})
	first, err := NewPaymentService(Config{"A": {}}, WithRegistry(reg))
	require.NoError(t, err)
	second, err := NewPaymentService(Config{"A": {}}, WithRegistry(reg))
	require.NoError(t, err)

	assert.NotSame(t, first.Notifier(), second.Notifier())

	shared := events.NewNotifier()
	third, err := NewPaymentService(Config{"A": {}}, WithRegistry(reg), WithNotifier(shared))
	require.NoError(t, err)
	assert.Same(t, shared, third.Notifier())

	id, err := third.Subscribe(events.PaymentSuccess, func(context.Context, events.Event) {})
	require.NoError(t, err)
	assert.True(t, third.Unsubscribe(events.PaymentSuccess, id))
}

func TestPaymentService_PanickingListenerDoesNotBreakPayment(t *testing.T) {
	reg := registryWith(&fakeAdapter{id: "A"})
	svc, err := NewPaymentService(Config{"A": {}}, WithRegistry(reg),
		WithNotifier(events.NewNotifier(events.WithPanicHandler(func(events.Event, any) {}))))
	require.NoError(t, err)

	_, err = svc.Subscribe(events.PaymentPending, func(context.Context, events.Event) { panic("listener") })
	require.NoError(t, err)

	resp, err := svc.Initiate(context.Background(), "A", PaymentRequest{Amount: decimal.NewFromInt(5), TransactionID: "T5"})
	require.NoError(t, err)
	assert.Equal(t, "T5", resp.TransactionID)
}

type auditSink struct {
	entries chan opensearch.PaymentLog
	err     error
}

func (a *auditSink) LogPaymentRequest(_ context.Context, entry opensearch.PaymentLog) error {
	a.entries <- entry
	return a.err
}

func TestPaymentService_AuditLog(t *testing.T) {
	sink := &auditSink{entries: make(chan opensearch.PaymentLog, 4), err: errors.New("index unavailable")}
	reg := registryWith(&fakeAdapter{id: "A"})
	svc, err := NewPaymentService(Config{"A": {}}, WithRegistry(reg), WithPaymentLogger(sink))
	require.NoError(t, err)

	ctx := WithRequestID(context.Background(), "req-1")
	_, err = svc.Initiate(ctx, "A", PaymentRequest{Amount: decimal.NewFromInt(100), TransactionID: "TXN9"})
	require.NoError(t, err, "audit failures never fail the payment")

	select {
	case entry := <-sink.entries:
		assert.Equal(t, "A", entry.Provider)
		assert.Equal(t, "initiate", entry.Operation)
		assert.Equal(t, "req-1", entry.RequestID)
		assert.Equal(t, "TXN9", entry.TransactionID)
		assert.Equal(t, "100", entry.PaymentInfo.Amount)
		assert.Equal(t, "PENDING", entry.PaymentInfo.Status)
		assert.Contains(t, entry.Request.Body, "TXN9")
		assert.Empty(t, entry.Error.Code)
	case <-time.After(2 * time.Second):
		t.Fatal("audit entry not written")
	}
}

func TestPaymentService_AuditLogRecordsErrorKind(t *testing.T) {
	sink := &auditSink{entries: make(chan opensearch.PaymentLog, 4)}
	adapter := &fakeAdapter{id: "A", verifyErr: VerificationError("A", "verify", "totalAmount is required", nil)}
	svc, err := NewPaymentService(Config{"A": {}}, WithRegistry(registryWith(adapter)), WithPaymentLogger(sink))
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), "A", VerifyRequest{TransactionID: "T"})
	require.Error(t, err)

	select {
	case entry := <-sink.entries:
		assert.Equal(t, "verification_failed", entry.Error.Code)
		assert.Equal(t, "T", entry.TransactionID)
	case <-time.After(2 * time.Second):
		t.Fatal("audit entry not written")
	}
}

func TestEventForStatus(t *testing.T) {
	name, ok := EventForStatus(StatusSuccess)
	assert.True(t, ok)
	assert.Equal(t, events.PaymentSuccess, name)

	name, ok = EventForStatus("SOMETHING_ELSE")
	assert.True(t, ok)
	assert.Equal(t, events.PaymentPending, name)

	_, ok = EventForStatus("")
	assert.False(t, ok)
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFrom(ctx))
	assert.Same(t, ctx, WithRequestID(ctx, ""))
	assert.Equal(t, "abc", RequestIDFrom(WithRequestID(ctx, "abc")))
}

func TestConfigFromMap(t *testing.T) {
	cfg := ConfigFromMap(map[string]map[string]string{
		"khalti": {"secretKey": "k"},
		"esewa":  {},
	})
	assert.Equal(t, Config{Khalti: RawConfig{"secretKey": "k"}}, cfg)
}
