package provider

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mstgnz/nepalpay/infra/logger"
	"github.com/mstgnz/nepalpay/infra/opensearch"
)

// PaymentLogger stores an audit record for every facade call.
// *opensearch.Logger satisfies it.
type PaymentLogger interface {
	LogPaymentRequest(ctx context.Context, entry opensearch.PaymentLog) error
}

type requestIDKey struct{}

// WithRequestID attaches a request id that the payment service will reuse
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request id attached with WithRequestID
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// auditCall describes one facade call for the audit trail
type auditCall struct {
	provider      ProviderID
	operation     string
	requestID     string
	transactionID string
	request       any
	response      any
	info          opensearch.PaymentInfo
	err           error
	started       time.Time
}

func (c auditCall) entry() opensearch.PaymentLog {
	entry := opensearch.PaymentLog{
		Timestamp:     c.started.UTC(),
		Provider:      string(c.provider),
		Operation:     c.operation,
		RequestID:     c.requestID,
		TransactionID: c.transactionID,
		Request:       opensearch.RequestLog{Body: marshalForLog(c.request)},
		Response: opensearch.ResponseLog{
			Body:             marshalForLog(c.response),
			ProcessingTimeMs: time.Since(c.started).Milliseconds(),
		},
		PaymentInfo: c.info,
	}
	if c.err != nil {
		entry.Error = opensearch.ErrorInfo{
			Code:    string(KindOf(c.err)),
			Message: c.err.Error(),
		}
	}
	return entry
}

func marshalForLog(v any) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// writeAudit stores the record without holding up the caller
func writeAudit(ctx context.Context, sink PaymentLogger, call auditCall) {
	if sink == nil {
		return
	}
	entry := call.entry()
	ctx = context.WithoutCancel(ctx)

	go func() {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := sink.LogPaymentRequest(ctx, entry); err != nil {
			logger.Warn("Failed to write payment audit log", logger.LogContext{
				Provider:      entry.Provider,
				RequestID:     entry.RequestID,
				TransactionID: entry.TransactionID,
				Fields:        map[string]any{"error": err.Error()},
			})
		}
	}()
}
