package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mstgnz/nepalpay/infra/events"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// PaymentLog is the audit record of one facade call
type PaymentLog struct {
	Timestamp     time.Time   `json:"timestamp"`
	Provider      string      `json:"provider"`
	Operation     string      `json:"operation"`
	RequestID     string      `json:"request_id"`
	TransactionID string      `json:"transaction_id,omitempty"`
	Request       RequestLog  `json:"request"`
	Response      ResponseLog `json:"response"`
	PaymentInfo   PaymentInfo `json:"payment_info,omitempty"`
	Error         ErrorInfo   `json:"error,omitempty"`
}

// RequestLog represents request details
type RequestLog struct {
	Body string `json:"body,omitempty"`
}

// ResponseLog represents response details
type ResponseLog struct {
	Body             string `json:"body,omitempty"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}

// PaymentInfo represents payment-specific information
type PaymentInfo struct {
	Amount      string `json:"amount,omitempty"`
	Currency    string `json:"currency,omitempty"`
	Status      string `json:"status,omitempty"`
	ReferenceID string `json:"reference_id,omitempty"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Logger handles OpenSearch logging operations
type Logger struct {
	client *Client
}

// NewLogger creates a new OpenSearch logger
func NewLogger(client *Client) *Logger {
	return &Logger{
		client: client,
	}
}

// LogPaymentRequest indexes a payment audit record in the provider's index
func (l *Logger) LogPaymentRequest(ctx context.Context, entry PaymentLog) error {
	if !l.client.IsEnabled() {
		return nil
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.RequestID == "" {
		entry.RequestID = uuid.New().String()
	}
	entry.Request.Body = SanitizeForLog(entry.Request.Body)
	entry.Response.Body = SanitizeForLog(entry.Response.Body)

	return l.index(ctx, l.client.GetLogIndexName(entry.Provider), entry)
}

// LogSystemEvent indexes a system log entry
func (l *Logger) LogSystemEvent(ctx context.Context, entry any) error {
	if !l.client.IsEnabled() {
		return nil
	}
	return l.index(ctx, SystemIndex, entry)
}

// LogPaymentEvent indexes a lifecycle event
func (l *Logger) LogPaymentEvent(ctx context.Context, event events.Event) error {
	if !l.client.IsEnabled() {
		return nil
	}
	return l.index(ctx, EventIndex, event)
}

func (l *Logger) index(ctx context.Context, indexName string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document for %s: %w", indexName, err)
	}

	req := opensearchapi.IndexRequest{
		Index: indexName,
		Body:  bytes.NewReader(body),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return fmt.Errorf("failed to index into %s: %w", indexName, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch error: %s", res.String())
	}
	return nil
}

// SearchLogs searches a provider's payment logs, newest first
func (l *Logger) SearchLogs(ctx context.Context, provider string, query map[string]any) ([]PaymentLog, error) {
	if !l.client.IsEnabled() {
		return nil, fmt.Errorf("logging is disabled")
	}

	searchQuery := map[string]any{
		"query": query,
		"sort": []map[string]any{
			{"timestamp": map[string]string{"order": "desc"}},
		},
		"size": 100,
	}

	queryJSON, err := json.Marshal(searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req := opensearchapi.SearchRequest{
		Index: []string{l.client.GetLogIndexName(provider)},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("opensearch search error: %s", res.String())
	}

	var searchResult struct {
		Hits struct {
			Hits []struct {
				Source PaymentLog `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	logs := make([]PaymentLog, len(searchResult.Hits.Hits))
	for i, hit := range searchResult.Hits.Hits {
		logs[i] = hit.Source
	}
	return logs, nil
}

// GetPaymentLogs retrieves the audit trail of one transaction
func (l *Logger) GetPaymentLogs(ctx context.Context, provider, transactionID string) ([]PaymentLog, error) {
	query := map[string]any{
		"term": map[string]any{
			"transaction_id": transactionID,
		},
	}
	return l.SearchLogs(ctx, provider, query)
}

// GetRecentErrorLogs retrieves failed calls of the last hours
func (l *Logger) GetRecentErrorLogs(ctx context.Context, provider string, hours int) ([]PaymentLog, error) {
	query := map[string]any{
		"bool": map[string]any{
			"must": []map[string]any{
				{
					"range": map[string]any{
						"timestamp": map[string]any{
							"gte": fmt.Sprintf("now-%dh", hours),
						},
					},
				},
				{
					"exists": map[string]any{
						"field": "error.code",
					},
				},
			},
		},
	}
	return l.SearchLogs(ctx, provider, query)
}

var sensitivePatterns = func() []*regexp.Regexp {
	fields := []string{
		"secretKey", "secret_key", "appSecret", "app_secret", "password",
		"apiKey", "api_key", "authorization", "token", "x-api-key", "x-app-secret",
	}
	patterns := make([]*regexp.Regexp, 0, len(fields)*2)
	for _, field := range fields {
		patterns = append(patterns,
			regexp.MustCompile(fmt.Sprintf(`(?i)"%s"\s*:\s*"[^"]*"`, regexp.QuoteMeta(field))),
			regexp.MustCompile(fmt.Sprintf(`(?i)\b%s=[^&\s"]*`, regexp.QuoteMeta(field))),
		)
	}
	return patterns
}()

// SanitizeForLog removes credentials from a logged body
func SanitizeForLog(data string) string {
	result := data
	for _, re := range sensitivePatterns {
		result = re.ReplaceAllStringFunc(result, func(match string) string {
			if match[0] == '"' {
				key := strings.TrimSpace(match[:strings.IndexByte(match, ':')])
				return key + `:"***REDACTED***"`
			}
			key := match[:strings.IndexByte(match, '=')]
			return key + "=***REDACTED***"
		})
	}
	return result
}
