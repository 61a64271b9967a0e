package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/nepalpay/infra/opensearch"
	"github.com/mstgnz/nepalpay/infra/response"
)

// LoggerInterface defines the audit log queries served over HTTP
type LoggerInterface interface {
	SearchLogs(ctx context.Context, provider string, query map[string]any) ([]opensearch.PaymentLog, error)
	GetPaymentLogs(ctx context.Context, provider, transactionID string) ([]opensearch.PaymentLog, error)
	GetRecentErrorLogs(ctx context.Context, provider string, hours int) ([]opensearch.PaymentLog, error)
}

// LogsHandler handles logs related HTTP requests
type LogsHandler struct {
	logger LoggerInterface
}

// NewLogsHandler creates a new logs handler
func NewLogsHandler(logger LoggerInterface) *LogsHandler {
	return &LogsHandler{
		logger: logger,
	}
}

const (
	defaultLogHours = 24
	maxLogHours     = 168
)

// ListLogs handles GET /v1/logs/{provider} with optional transactionId,
// operation, status, errorsOnly and hours filters
func (h *LogsHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	providerName := strings.ToLower(chi.URLParam(r, "provider"))
	if providerName == "" {
		response.Error(w, http.StatusBadRequest, "Provider parameter is required", nil)
		return
	}

	logs, err := h.logger.SearchLogs(ctx, providerName, BuildLogQuery(r.URL.Query()))
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to search logs", err)
		return
	}

	response.Success(w, http.StatusOK, "Logs retrieved", map[string]any{
		"provider": providerName,
		"count":    len(logs),
		"logs":     logs,
	})
}

// GetPaymentLogs handles GET /v1/logs/{provider}/{transactionID}
func (h *LogsHandler) GetPaymentLogs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	providerName := strings.ToLower(chi.URLParam(r, "provider"))
	transactionID := chi.URLParam(r, "transactionID")
	if providerName == "" || transactionID == "" {
		response.Error(w, http.StatusBadRequest, "Provider and transaction ID are required", nil)
		return
	}

	logs, err := h.logger.GetPaymentLogs(ctx, providerName, transactionID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to get payment logs", err)
		return
	}

	response.Success(w, http.StatusOK, "Payment logs retrieved", map[string]any{
		"provider":      providerName,
		"transactionId": transactionID,
		"count":         len(logs),
		"logs":          logs,
	})
}

// GetErrorLogs handles GET /v1/logs/{provider}/errors
func (h *LogsHandler) GetErrorLogs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	providerName := strings.ToLower(chi.URLParam(r, "provider"))
	hours := parseHours(r.URL.Query().Get("hours"))

	logs, err := h.logger.GetRecentErrorLogs(ctx, providerName, hours)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to get error logs", err)
		return
	}

	response.Success(w, http.StatusOK, "Error logs retrieved", map[string]any{
		"provider": providerName,
		"hours":    hours,
		"count":    len(logs),
		"logs":     logs,
	})
}

// BuildLogQuery turns query string filters into an OpenSearch bool query
func BuildLogQuery(params map[string][]string) map[string]any {
	get := func(key string) string {
		if v := params[key]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	must := []map[string]any{
		{
			"range": map[string]any{
				"timestamp": map[string]any{
					"gte": fmt.Sprintf("now-%dh", parseHours(get("hours"))),
				},
			},
		},
	}

	if v := get("transactionId"); v != "" {
		must = append(must, map[string]any{"term": map[string]any{"transaction_id": v}})
	}
	if v := get("operation"); v != "" {
		must = append(must, map[string]any{"term": map[string]any{"operation": v}})
	}
	if v := get("status"); v != "" {
		must = append(must, map[string]any{"term": map[string]any{"payment_info.status": strings.ToUpper(v)}})
	}
	if get("errorsOnly") == "true" {
		must = append(must, map[string]any{"exists": map[string]any{"field": "error.code"}})
	}

	return map[string]any{"bool": map[string]any{"must": must}}
}

func parseHours(value string) int {
	if h, err := strconv.Atoi(value); err == nil && h > 0 && h <= maxLogHours {
		return h
	}
	return defaultLogHours
}

