package middle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mstgnz/nepalpay/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("success"))
	})
}

func TestAuthMiddleware(t *testing.T) {
	handler := AuthMiddleware("test-api-key")(okHandler())

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"valid_key", "Bearer test-api-key", http.StatusOK},
		{"wrong_key", "Bearer wrong-key", http.StatusUnauthorized},
		{"missing_header", "", http.StatusUnauthorized},
		{"basic_scheme", "Basic test-api-key", http.StatusUnauthorized},
		{"empty_bearer", "Bearer ", http.StatusUnauthorized},
		{"prefix_of_key", "Bearer test-api", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/providers", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}

func TestAuthMiddleware_NotConfigured(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/providers", nil)
	req.Header.Set("Authorization", "Bearer anything")

	AuthMiddleware("")(okHandler()).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 2, 200*time.Millisecond)
	clientIP := "192.168.1.1"

	assert.True(t, rl.Allow(clientIP))
	assert.True(t, rl.Allow(clientIP))
	assert.False(t, rl.Allow(clientIP), "third request in the window")
	assert.True(t, rl.Allow("192.168.1.2"), "other clients have their own budget")

	time.Sleep(250 * time.Millisecond)
	assert.True(t, rl.Allow(clientIP), "new window")
}

func TestRateLimiter_Defaults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 0, 0)
	assert.Equal(t, 100, rl.rate)
	assert.Equal(t, time.Minute, rl.window)
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := &RateLimiter{visitors: make(map[string]*visitor), rate: 1, window: time.Second}
	rl.Allow("10.0.0.1")

	rl.sweep(time.Now())
	assert.Len(t, rl.visitors, 1)

	rl.sweep(time.Now().Add(3 * time.Second))
	assert.Empty(t, rl.visitors)
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := &RateLimiter{visitors: make(map[string]*visitor), rate: 1, window: time.Minute}
	handler := RateLimitMiddleware(rl)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/providers", nil)
	req.RemoteAddr = "192.168.1.1:12345"

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{"forwarded_chain", map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.1"}, "10.0.0.2:80", "203.0.113.1"},
		{"forwarded_single", map[string]string{"X-Forwarded-For": " 203.0.113.9 "}, "10.0.0.2:80", "203.0.113.9"},
		{"real_ip", map[string]string{"X-Real-IP": "198.51.100.7"}, "10.0.0.2:80", "198.51.100.7"},
		{"remote_addr", nil, "192.168.1.1:12345", "192.168.1.1"},
		{"ipv6_localhost", nil, "[::1]:8080", "127.0.0.1"},
		{"no_port", nil, "192.168.1.1", "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, GetClientIP(req))
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = provider.RequestIDFrom(r.Context())
	}))

	t.Run("reuses_header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "req-42")
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)
		assert.Equal(t, "req-42", seen)
		assert.Equal(t, "req-42", rr.Header().Get(RequestIDHeader))
	})

	t.Run("generates", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		require.NotEmpty(t, seen)
		assert.Len(t, seen, 36)
		assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
	})

	t.Run("oversized_header_replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLength+1))
		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.Len(t, seen, 36)
	})
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeadersMiddleware()(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rr.Header().Get("Strict-Transport-Security"))
}

func TestRequestValidationMiddleware(t *testing.T) {
	handler := RequestValidationMiddleware("/v1/callback")(okHandler())

	tests := []struct {
		name           string
		method         string
		path           string
		contentType    string
		contentLength  int64
		expectedStatus int
	}{
		{"get_without_type", http.MethodGet, "/v1/providers", "", 0, http.StatusOK},
		{"json_post", http.MethodPost, "/v1/payments/khalti", "application/json; charset=utf-8", 0, http.StatusOK},
		{"form_post_to_api", http.MethodPost, "/v1/payments/khalti", "application/x-www-form-urlencoded", 0, http.StatusUnsupportedMediaType},
		{"post_without_type", http.MethodPost, "/v1/payments/khalti", "", 0, http.StatusBadRequest},
		{"form_callback", http.MethodPost, "/v1/callback/connectips", "application/x-www-form-urlencoded", 0, http.StatusOK},
		{"callback_without_type", http.MethodPost, "/v1/callback/connectips", "", 0, http.StatusOK},
		{"xml_callback", http.MethodPost, "/v1/callback/connectips", "text/xml", 0, http.StatusUnsupportedMediaType},
		{"too_large", http.MethodPost, "/v1/payments/khalti", "application/json", MaxBodyBytes + 1, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			if tt.contentLength > 0 {
				req.ContentLength = tt.contentLength
			}

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}
