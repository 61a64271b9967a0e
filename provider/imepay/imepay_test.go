package imepay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mstgnz/nepalpay/provider"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRawConfig() provider.RawConfig {
	return provider.RawConfig{
		"merchantCode": "IMEPAYTEST",
		"merchantName": "Test Shop",
		"username":     "ime-user",
		"password":     "ime-pass",
		"module":       "TESTSHOP",
		"successUrl":   "https://shop.example/ime/success",
		"failureUrl":   "https://shop.example/ime/failure",
	}
}

func newTestProvider(t *testing.T, overrides provider.RawConfig) *Provider {
	t.Helper()
	raw := testRawConfig()
	for k, v := range overrides {
		raw[k] = v
	}
	cfg, err := BuildConfig(raw)
	require.NoError(t, err)
	return New(cfg)
}

// verifyServer answers /api/verify with body and records the decoded request
func verifyServer(t *testing.T, body string, sent *map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != verifyPath || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if sent != nil {
			data, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(data, sent)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestBuildConfig(t *testing.T) {
	tests := []struct {
		name        string
		overrides   provider.RawConfig
		expectError bool
		expectBase  string
		expectAPI   string
	}{
		{name: "sandbox", expectBase: sandboxBaseURL, expectAPI: sandboxAPIURL},
		{name: "production", overrides: provider.RawConfig{"env": "production"}, expectBase: productionBaseURL, expectAPI: productionAPIURL},
		{name: "override_api", overrides: provider.RawConfig{"apiUrl": "https://ime.test/"}, expectBase: sandboxBaseURL, expectAPI: "https://ime.test"},
		{name: "missing_module", overrides: provider.RawConfig{"module": ""}, expectError: true},
		{name: "missing_password", overrides: provider.RawConfig{"password": ""}, expectError: true},
		{name: "bad_mode", overrides: provider.RawConfig{"callbackMode": "signed"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := testRawConfig()
			for k, v := range tt.overrides {
				raw[k] = v
			}

			cfg, err := BuildConfig(raw)
			if tt.expectError {
				assert.ErrorIs(t, err, provider.ErrConfigurationInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectBase, cfg.BaseURL)
			assert.Equal(t, tt.expectAPI, cfg.APIURL)
			assert.Equal(t, provider.CallbackDirect, cfg.CallbackMode)
		})
	}
}

func TestInitiatePayment(t *testing.T) {
	p := newTestProvider(t, nil)

	resp, err := p.InitiatePayment(context.Background(), provider.PaymentRequest{
		Amount:         decimal.NewFromInt(500),
		TransactionID:  "IME-1",
		Remarks:        "Order IME-1",
		CustomerMobile: "9800000002",
	})
	require.NoError(t, err)

	assert.Equal(t, provider.ImePay, resp.Provider)
	assert.Equal(t, "IME-1", resp.TransactionID)
	assert.Equal(t, provider.StatusPending, resp.Status)
	assert.Equal(t, sandboxBaseURL+"/payment/initiate", resp.RedirectURL)

	checkout, ok := resp.Raw.(Checkout)
	require.True(t, ok)
	assert.Equal(t, "Order IME-1", checkout.Request.Remarks)
	assert.Equal(t, "TESTSHOP", checkout.Request.Module)

	data, err := json.Marshal(checkout)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "ime-pass")
	assert.NotContains(t, string(data), "ime-user")
}

func TestVerifyPayment(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus provider.PaymentStatus
		expectedRef    string
	}{
		{"response_code_zero", `{"ResponseCode":0,"TransactionId":"IME-1","RefId":"R-1","Amount":500}`, provider.StatusSuccess, "R-1"},
		{"response_code_string", `{"ResponseCode":"0","TransactionId":"IME-1"}`, provider.StatusSuccess, ""},
		{"status_success", `{"status":"SUCCESS","transactionId":"IME-1","referenceId":"R-2"}`, provider.StatusSuccess, "R-2"},
		{"declined", `{"ResponseCode":"1","TransactionId":"IME-1","ResponseDescription":"Failed"}`, provider.StatusFailed, ""},
		{"empty", `{}`, provider.StatusFailed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sent map[string]any
			server := verifyServer(t, tt.body, &sent)
			p := newTestProvider(t, provider.RawConfig{"apiUrl": server.URL})

			resp, err := p.VerifyPayment(context.Background(), provider.VerifyRequest{TransactionID: "IME-1", ReferenceID: "R-1"})
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.Status)
			assert.Equal(t, tt.expectedRef, resp.ReferenceID)

			assert.Equal(t, map[string]any{
				"MerchantCode":  "IMEPAYTEST",
				"UserName":      "ime-user",
				"Password":      "ime-pass",
				"TransactionId": "IME-1",
				"RefId":         "R-1",
			}, sent)
		})
	}
}

func TestVerifyPayment_Errors(t *testing.T) {
	p := newTestProvider(t, nil)
	_, err := p.VerifyPayment(context.Background(), provider.VerifyRequest{})
	assert.ErrorIs(t, err, provider.ErrPayloadInvalid)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	p = newTestProvider(t, provider.RawConfig{"apiUrl": server.URL})
	_, err = p.VerifyPayment(context.Background(), provider.VerifyRequest{TransactionID: "IME-1"})
	assert.ErrorIs(t, err, provider.ErrTransportFailure)
}

func TestHandleCallback_Direct(t *testing.T) {
	p := newTestProvider(t, nil)

	tests := []struct {
		name           string
		request        provider.CallbackRequest
		expectedStatus provider.PaymentStatus
		expectedTxn    string
	}{
		{
			name:           "pascal_case_query",
			request:        provider.CallbackRequest{Query: map[string]string{"ResponseCode": "0", "TransactionId": "IME-1", "RefId": "R-1"}},
			expectedStatus: provider.StatusSuccess,
			expectedTxn:    "IME-1",
		},
		{
			name:           "camel_case_body",
			request:        provider.CallbackRequest{Body: map[string]any{"status": "FAILED", "transactionId": "IME-2"}},
			expectedStatus: provider.StatusFailed,
			expectedTxn:    "IME-2",
		},
		{
			name:           "numeric_code",
			request:        provider.CallbackRequest{Body: map[string]any{"ResponseCode": 0.0, "TransactionId": "IME-3"}},
			expectedStatus: provider.StatusSuccess,
			expectedTxn:    "IME-3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := p.HandleCallback(context.Background(), tt.request)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.Status)
			assert.Equal(t, tt.expectedTxn, resp.TransactionID)
		})
	}

	_, err := p.HandleCallback(context.Background(), provider.CallbackRequest{Query: map[string]string{"ResponseCode": "0"}})
	assert.ErrorIs(t, err, provider.ErrVerificationFailed)
}

func TestHandleCallback_LookupMode(t *testing.T) {
	var sent map[string]any
	server := verifyServer(t, `{"ResponseCode":"1","TransactionId":"IME-1"}`, &sent)
	p := newTestProvider(t, provider.RawConfig{"apiUrl": server.URL, "callbackMode": "lookup"})

	resp, err := p.HandleCallback(context.Background(), provider.CallbackRequest{
		Query: map[string]string{"ResponseCode": "0", "TransactionId": "IME-1", "RefId": "R-7"},
	})
	require.NoError(t, err)
	assert.Equal(t, provider.StatusFailed, resp.Status)
	assert.Equal(t, "R-7", sent["RefId"])

	raw, ok := resp.Raw.(provider.CallbackRaw)
	require.True(t, ok)
	assert.IsType(t, VerifyResponse{}, raw.Lookup)
}

func TestCapabilities(t *testing.T) {
	p := newTestProvider(t, provider.RawConfig{"callbackMode": "lookup"})
	assert.Equal(t, provider.Capabilities{Callback: true, CallbackMode: provider.CallbackLookup}, provider.CapabilitiesOf(p))
}
