package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/nepalpay/infra/logger"
	"github.com/mstgnz/nepalpay/infra/response"
	"github.com/mstgnz/nepalpay/provider"
)

const requestTimeout = 30 * time.Second

// PaymentHandler handles payment related HTTP requests
type PaymentHandler struct {
	paymentService PaymentServiceInterface
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService PaymentServiceInterface) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// ProviderInfo describes a configured provider
type ProviderInfo struct {
	ID           provider.ProviderID   `json:"id"`
	Capabilities provider.Capabilities `json:"capabilities"`
}

// InitiatePayment handles POST /v1/payments/{provider}
func (h *PaymentHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req provider.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	resp, err := h.paymentService.Initiate(ctx, providerParam(r), req)
	if err != nil {
		writeServiceError(w, "Payment initiation failed", err)
		return
	}

	response.Success(w, http.StatusOK, "Payment initiated", resp)
}

// VerifyPayment handles POST /v1/payments/{provider}/verify
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req provider.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	resp, err := h.paymentService.Verify(ctx, providerParam(r), req)
	if err != nil {
		writeServiceError(w, "Payment verification failed", err)
		return
	}

	response.Success(w, http.StatusOK, "Payment verified", resp)
}

// RefundPayment handles POST /v1/payments/{provider}/refund
func (h *PaymentHandler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req provider.RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	resp, err := h.paymentService.Refund(ctx, providerParam(r), req)
	if err != nil {
		writeServiceError(w, "Payment refund failed", err)
		return
	}

	response.Success(w, http.StatusOK, "Payment refunded", resp)
}

// HandleCallback handles GET and POST /v1/callback/{provider}.
// Gateways return query parameters, JSON bodies or form posts.
func (h *PaymentHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	req, err := callbackRequestFrom(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid callback payload", err)
		return
	}

	resp, err := h.paymentService.HandleCallback(ctx, providerParam(r), req)
	if err != nil {
		writeServiceError(w, "Callback processing failed", err)
		return
	}

	response.Success(w, http.StatusOK, "Callback processed", resp)
}

// ListProviders handles GET /v1/providers
func (h *PaymentHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	ids := h.paymentService.Providers()
	providers := make([]ProviderInfo, 0, len(ids))
	for _, id := range ids {
		caps, err := h.paymentService.Capabilities(id)
		if err != nil {
			continue
		}
		providers = append(providers, ProviderInfo{ID: id, Capabilities: caps})
	}

	response.Success(w, http.StatusOK, "Configured providers", providers)
}

func providerParam(r *http.Request) provider.ProviderID {
	return provider.ProviderID(strings.ToLower(chi.URLParam(r, "provider")))
}

func callbackRequestFrom(r *http.Request) (provider.CallbackRequest, error) {
	req := provider.CallbackRequest{}

	if query := r.URL.Query(); len(query) > 0 {
		req.Query = flattenValues(query)
	}

	if r.Body == nil || r.Method == http.MethodGet {
		return req, nil
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return req, err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return req, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			return req, err
		}
		body := make(map[string]any, len(values))
		for k, v := range flattenValues(values) {
			body[k] = v
		}
		req.Body = body
	case "application/json":
		var body map[string]any
		if err := json.Unmarshal(raw, &body); err != nil {
			return req, err
		}
		req.Body = body
	default:
		req.RawBody = string(raw)
	}
	return req, nil
}

func flattenValues(values url.Values) map[string]string {
	out := make(map[string]string, len(values))
	for k := range values {
		out[k] = values.Get(k)
	}
	return out
}

// StatusForKind maps an error kind to the HTTP status returned to clients
func StatusForKind(kind provider.ErrorKind) int {
	switch kind {
	case provider.KindPayloadInvalid:
		return http.StatusBadRequest
	case provider.KindProviderNotConfigured:
		return http.StatusNotFound
	case provider.KindVerificationFailed:
		return http.StatusUnprocessableEntity
	case provider.KindCapabilityNotSupported:
		return http.StatusNotImplemented
	case provider.KindTransportFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, message string, err error) {
	var perr *provider.Error
	if !errors.As(err, &perr) {
		logger.Error(message, err)
		response.Error(w, http.StatusInternalServerError, message, err)
		return
	}

	status := StatusForKind(perr.Kind)
	if status >= http.StatusInternalServerError {
		logger.Error(message, err, logger.LogContext{Provider: string(perr.Provider)})
	}
	response.Failure(w, status, string(perr.Kind), message, err)
}
