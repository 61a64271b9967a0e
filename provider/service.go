package provider

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mstgnz/nepalpay/infra/events"
	"github.com/mstgnz/nepalpay/infra/logger"
	"github.com/mstgnz/nepalpay/infra/opensearch"
)

// Config is the multi-provider configuration: one raw config per provider to enable
type Config map[ProviderID]RawConfig

// ConfigFromMap converts settings keyed by provider name into a Config.
// Providers without settings are skipped.
func ConfigFromMap(all map[string]map[string]string) Config {
	cfg := make(Config, len(all))
	for name, values := range all {
		if len(values) == 0 {
			continue
		}
		cfg[ProviderID(name)] = RawConfig(values)
	}
	return cfg
}

// PaymentService routes calls to configured adapters and emits lifecycle events
type PaymentService struct {
	adapters map[ProviderID]Adapter
	notifier *events.Notifier
	audit    PaymentLogger
}

type serviceOptions struct {
	notifier *events.Notifier
	registry *ProviderRegistry
	audit    PaymentLogger
}

// Option configures a PaymentService
type Option func(*serviceOptions)

// WithNotifier uses n instead of a fresh synchronous notifier
func WithNotifier(n *events.Notifier) Option {
	return func(o *serviceOptions) {
		o.notifier = n
	}
}

// WithRegistry builds adapters from r instead of DefaultRegistry
func WithRegistry(r *ProviderRegistry) Option {
	return func(o *serviceOptions) {
		o.registry = r
	}
}

// WithPaymentLogger records every call in an audit log
func WithPaymentLogger(l PaymentLogger) Option {
	return func(o *serviceOptions) {
		o.audit = l
	}
}

// NewPaymentService builds the dispatch table once. Providers missing from cfg
// are not available; any provider config that fails to build aborts construction.
func NewPaymentService(cfg Config, opts ...Option) (*PaymentService, error) {
	o := serviceOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = DefaultRegistry
	}
	if o.notifier == nil {
		o.notifier = events.NewNotifier()
	}

	adapters := make(map[ProviderID]Adapter, len(cfg))
	for id, raw := range cfg {
		adapter, err := o.registry.CreateProvider(id, raw)
		if err != nil {
			return nil, err
		}
		adapters[id] = adapter
		logger.Debug("Payment provider configured", logger.LogContext{
			Provider: string(id),
			Fields:   map[string]any{"capabilities": CapabilitiesOf(adapter)},
		})
	}

	return &PaymentService{
		adapters: adapters,
		notifier: o.notifier,
		audit:    o.audit,
	}, nil
}

// Providers returns the configured provider ids in sorted order
func (s *PaymentService) Providers() []ProviderID {
	ids := make([]ProviderID, 0, len(s.adapters))
	for id := range s.adapters {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Capabilities reports the optional operations of a configured provider
func (s *PaymentService) Capabilities(id ProviderID) (Capabilities, error) {
	a, err := s.adapter(id, "capabilities")
	if err != nil {
		return Capabilities{}, err
	}
	return CapabilitiesOf(a), nil
}

// Notifier returns the notifier owned by the service
func (s *PaymentService) Notifier() *events.Notifier {
	return s.notifier
}

// Subscribe registers a lifecycle event handler
func (s *PaymentService) Subscribe(name events.Name, handler events.Handler) (events.SubscriptionID, error) {
	return s.notifier.Subscribe(name, handler)
}

// Unsubscribe removes a lifecycle event handler
func (s *PaymentService) Unsubscribe(name events.Name, id events.SubscriptionID) bool {
	return s.notifier.Unsubscribe(name, id)
}

func (s *PaymentService) adapter(id ProviderID, op string) (Adapter, error) {
	a, ok := s.adapters[id]
	if !ok {
		return nil, NewError(KindProviderNotConfigured, id, op, fmt.Sprintf("provider %q is not configured", id), nil)
	}
	return a, nil
}

func requestID(ctx context.Context) string {
	if id := RequestIDFrom(ctx); id != "" {
		return id
	}
	return uuid.New().String()
}

// Initiate starts a payment. A successful initiation always emits payment.pending.
func (s *PaymentService) Initiate(ctx context.Context, id ProviderID, req PaymentRequest) (*PaymentInitResponse, error) {
	a, err := s.adapter(id, "initiate")
	if err != nil {
		return nil, err
	}

	call := auditCall{
		provider:      id,
		operation:     "initiate",
		requestID:     requestID(ctx),
		transactionID: req.TransactionID,
		request:       req,
		started:       time.Now(),
	}
	log := logger.WithTransaction(string(id), req.TransactionID).SetRequestID(call.requestID)

	resp, err := a.InitiatePayment(ctx, req)
	if err != nil {
		call.err = err
		writeAudit(ctx, s.audit, call)
		log.Error("Payment initiation failed", err)
		return nil, err
	}

	call.response = resp
	call.info = opensearch.PaymentInfo{
		Amount:      resp.Amount.String(),
		Currency:    resp.Currency,
		Status:      string(resp.Status),
		ReferenceID: resp.ProviderReference,
		RedirectURL: resp.RedirectURL,
	}
	writeAudit(ctx, s.audit, call)
	log.Info("Payment initiated")

	s.emit(ctx, events.PaymentPending, id, resp.TransactionID, resp.Status, call.requestID, resp)
	return resp, nil
}

// Verify looks a payment up and emits the event matching the resulting status
func (s *PaymentService) Verify(ctx context.Context, id ProviderID, req VerifyRequest) (*VerificationResponse, error) {
	a, err := s.adapter(id, "verify")
	if err != nil {
		return nil, err
	}

	call := auditCall{
		provider:      id,
		operation:     "verify",
		requestID:     requestID(ctx),
		transactionID: FirstNonEmpty(req.TransactionID, req.Pidx, req.ReferenceID),
		request:       req,
		started:       time.Now(),
	}

	resp, err := a.VerifyPayment(ctx, req)
	return s.finishVerification(ctx, call, resp, err)
}

// HandleCallback processes an inbound provider notification
func (s *PaymentService) HandleCallback(ctx context.Context, id ProviderID, req CallbackRequest) (*VerificationResponse, error) {
	a, err := s.adapter(id, "callback")
	if err != nil {
		return nil, err
	}

	handler, ok := a.(CallbackHandler)
	if !ok {
		return nil, NewError(KindCapabilityNotSupported, id, "callback", "provider does not handle callbacks", nil)
	}

	call := auditCall{
		provider:  id,
		operation: "callback",
		requestID: requestID(ctx),
		request:   req,
		started:   time.Now(),
	}

	resp, err := handler.HandleCallback(ctx, req)
	return s.finishVerification(ctx, call, resp, err)
}

func (s *PaymentService) finishVerification(ctx context.Context, call auditCall, resp *VerificationResponse, err error) (*VerificationResponse, error) {
	if err != nil {
		call.err = err
		writeAudit(ctx, s.audit, call)
		logger.WithTransaction(string(call.provider), call.transactionID).
			SetRequestID(call.requestID).
			Error("Payment "+call.operation+" failed", err)
		return nil, err
	}

	call.transactionID = FirstNonEmpty(resp.TransactionID, call.transactionID)
	call.response = resp
	call.info = opensearch.PaymentInfo{
		Status:      string(resp.Status),
		ReferenceID: resp.ReferenceID,
	}
	writeAudit(ctx, s.audit, call)

	logger.WithTransaction(string(call.provider), call.transactionID).
		SetRequestID(call.requestID).
		AddField("status", resp.Status).
		Info("Payment " + call.operation + " completed")

	s.emitByStatus(ctx, call.provider, resp.TransactionID, resp.Status, call.requestID, resp)
	return resp, nil
}

// Refund returns funds through a provider that supports refunds
func (s *PaymentService) Refund(ctx context.Context, id ProviderID, req RefundRequest) (*RefundResponse, error) {
	a, err := s.adapter(id, "refund")
	if err != nil {
		return nil, err
	}

	refunder, ok := a.(Refunder)
	if !ok {
		return nil, NewError(KindCapabilityNotSupported, id, "refund", "provider does not support refunds", nil)
	}

	call := auditCall{
		provider:      id,
		operation:     "refund",
		requestID:     requestID(ctx),
		transactionID: req.TransactionID,
		request:       req,
		started:       time.Now(),
	}
	log := logger.WithTransaction(string(id), req.TransactionID).SetRequestID(call.requestID)

	resp, err := refunder.RefundPayment(ctx, req)
	if err != nil {
		call.err = err
		writeAudit(ctx, s.audit, call)
		log.Error("Payment refund failed", err)
		return nil, err
	}

	call.response = resp
	call.info = opensearch.PaymentInfo{
		Amount: resp.Amount.String(),
		Status: string(resp.Status),
	}
	writeAudit(ctx, s.audit, call)
	log.AddField("status", resp.Status).Info("Payment refund completed")

	s.emitByStatus(ctx, id, resp.TransactionID, resp.Status, call.requestID, resp)
	return resp, nil
}

// EventForStatus picks the lifecycle event for a status. An empty status has no event.
func EventForStatus(status PaymentStatus) (events.Name, bool) {
	switch status {
	case "":
		return "", false
	case StatusSuccess:
		return events.PaymentSuccess, true
	case StatusFailed:
		return events.PaymentFailed, true
	default:
		return events.PaymentPending, true
	}
}

func (s *PaymentService) emitByStatus(ctx context.Context, id ProviderID, transactionID string, status PaymentStatus, requestID string, payload any) {
	name, ok := EventForStatus(status)
	if !ok {
		return
	}
	s.emit(ctx, name, id, transactionID, status, requestID, payload)
}

func (s *PaymentService) emit(ctx context.Context, name events.Name, id ProviderID, transactionID string, status PaymentStatus, requestID string, payload any) {
	s.notifier.Emit(ctx, events.Event{
		Name:          name,
		Provider:      string(id),
		TransactionID: transactionID,
		Status:        string(status),
		RequestID:     requestID,
		Payload:       payload,
	})
}
