package provider

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPClientConfig represents configuration for HTTP client
type HTTPClientConfig struct {
	Provider           ProviderID
	BaseURL            string
	Timeout            time.Duration
	InsecureSkipVerify bool
	DefaultHeaders     map[string]string
}

// HTTPRequest represents a standardized HTTP request
type HTTPRequest struct {
	Method      string
	Endpoint    string
	Headers     map[string]string
	Body        any
	QueryParams map[string]string
}

// HTTPResponse represents a standardized HTTP response
type HTTPResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// ProviderHTTPClient performs provider calls and reports every failure as TransportFailure
type ProviderHTTPClient struct {
	config *HTTPClientConfig
	client *http.Client
}

// NewProviderHTTPClient creates a new provider HTTP client
func NewProviderHTTPClient(config *HTTPClientConfig) *ProviderHTTPClient {
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeoutMs * time.Millisecond
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if config.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &ProviderHTTPClient{
		config: config,
		client: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
	}
}

// CreateHTTPClientConfig creates a standard HTTP client configuration for providers
func CreateHTTPClientConfig(id ProviderID, baseURL string, timeout time.Duration, headers map[string]string) *HTTPClientConfig {
	defaults := map[string]string{
		"Accept":       "application/json",
		"Content-Type": "application/json",
		"User-Agent":   "NepalPay/1.0",
	}
	for k, v := range headers {
		defaults[k] = v
	}

	return &HTTPClientConfig{
		Provider:       id,
		BaseURL:        baseURL,
		Timeout:        timeout,
		DefaultHeaders: defaults,
	}
}

// Do sends the request and decodes a 2xx JSON body into target (when not nil)
func (c *ProviderHTTPClient) Do(ctx context.Context, req *HTTPRequest, target any) (*HTTPResponse, error) {
	fullURL := c.buildURL(req.Endpoint, req.QueryParams)

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, c.failure(req, 0, nil, "failed to marshal request body", err)
		}
		body = bytes.NewReader(data)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, c.failure(req, 0, nil, "failed to create HTTP request", err)
	}

	for key, value := range c.config.DefaultHeaders {
		httpReq.Header.Set(key, value)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		msg := "HTTP request failed"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			msg = "HTTP request timed out"
		}
		return nil, c.failure(req, 0, nil, msg, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.failure(req, resp.StatusCode, nil, "failed to read response body", err)
	}

	response := &HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return response, c.failure(req, resp.StatusCode, respBody, fmt.Sprintf("HTTP error %d", resp.StatusCode), nil)
	}

	if target != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, target); err != nil {
			return response, c.failure(req, resp.StatusCode, respBody, "failed to decode response body", err)
		}
	}

	return response, nil
}

func (c *ProviderHTTPClient) failure(req *HTTPRequest, status int, body []byte, message string, cause error) *Error {
	return &Error{
		Kind:       KindTransportFailure,
		Provider:   c.config.Provider,
		Op:         strings.ToUpper(req.Method) + " " + req.Endpoint,
		Message:    message,
		StatusCode: status,
		Body:       string(body),
		Err:        cause,
	}
}

func joinURL(base, endpoint string) string {
	if base == "" {
		return endpoint
	}
	if endpoint == "" {
		return base
	}
	if strings.HasSuffix(base, "/") && strings.HasPrefix(endpoint, "/") {
		return base + endpoint[1:]
	}
	if !strings.HasSuffix(base, "/") && !strings.HasPrefix(endpoint, "/") {
		return base + "/" + endpoint
	}
	return base + endpoint
}

// buildURL constructs the full URL with query parameters
func (c *ProviderHTTPClient) buildURL(endpoint string, queryParams map[string]string) string {
	fullURL := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		fullURL = joinURL(c.config.BaseURL, endpoint)
	}

	if len(queryParams) == 0 {
		return fullURL
	}

	u, err := url.Parse(fullURL)
	if err != nil {
		return fullURL
	}
	q := u.Query()
	for key, value := range queryParams {
		if value == "" {
			continue
		}
		q.Set(key, value)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
