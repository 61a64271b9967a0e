package provider

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCallbackMode(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected CallbackMode
		wantErr  bool
	}{
		{name: "unset", value: "", expected: CallbackDirect},
		{name: "lookup", value: "lookup", expected: CallbackLookup},
		{name: "upper_case", value: "LOOKUP", expected: CallbackLookup},
		{name: "direct", value: "direct", expected: CallbackDirect},
		{name: "signed", value: "signed", wantErr: true},
		{name: "unknown", value: "webhook", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, err := ResolveCallbackMode(ConnectIPS, RawConfig{"callbackMode": tt.value}, CallbackDirect)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConfigurationInvalid)
				assert.Equal(t, ConnectIPS, err.(*Error).Provider)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, mode)
		})
	}
}

func TestCallbackRequest_Payload(t *testing.T) {
	tests := []struct {
		name     string
		request  CallbackRequest
		expected map[string]any
	}{
		{
			name:     "query_wins",
			request:  CallbackRequest{Query: map[string]string{"a": "1"}, Body: map[string]any{"b": "2"}, RawBody: `{"c":3}`},
			expected: map[string]any{"a": "1"},
		},
		{
			name:     "body",
			request:  CallbackRequest{Body: map[string]any{"b": "2"}, RawBody: `{"c":3}`},
			expected: map[string]any{"b": "2"},
		},
		{
			name:     "raw_json",
			request:  CallbackRequest{RawBody: ` {"c":3} `},
			expected: map[string]any{"c": 3.0},
		},
		{
			name:     "raw_form",
			request:  CallbackRequest{RawBody: "status=SUCCESS&transactionId=T-1"},
			expected: map[string]any{"status": "SUCCESS", "transactionId": "T-1"},
		},
		{
			name:     "json_null_falls_back_to_form",
			request:  CallbackRequest{RawBody: "null"},
			expected: map[string]any{"null": ""},
		},
		{
			name:     "bad_form",
			request:  CallbackRequest{RawBody: "a=%zz"},
			expected: map[string]any{},
		},
		{
			name:     "empty",
			request:  CallbackRequest{},
			expected: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.request.Payload())
		})
	}
}

func TestVerifyCallback(t *testing.T) {
	lookup := &VerificationResponse{Provider: "x", TransactionID: "T-1", Status: StatusSuccess, Raw: map[string]any{"state": "Completed"}}
	adapter := &fakeAdapter{id: "x", verifyResp: lookup}

	callback := CallbackRequest{Query: map[string]string{"pidx": "P-1", "status": "Pending"}}
	resp, err := VerifyCallback(context.Background(), adapter, VerifyRequest{Pidx: "P-1"}, callback)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, resp.Status)

	raw, ok := resp.Raw.(CallbackRaw)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"state": "Completed"}, raw.Lookup)
	assert.Equal(t, map[string]any{"pidx": "P-1", "status": "Pending"}, raw.Callback)

	t.Run("lookup_error", func(t *testing.T) {
		cause := NewError(KindTransportFailure, "x", "verify", "gateway down", errors.New("dial"))
		failing := &fakeAdapter{id: "x", verifyErr: cause}
		_, err := VerifyCallback(context.Background(), failing, VerifyRequest{Pidx: "P-1"}, callback)
		assert.ErrorIs(t, err, ErrTransportFailure)
	})
}

func TestFlattenJSON(t *testing.T) {
	type order struct {
		ID     string `json:"id"`
		Amount int    `json:"amount"`
	}

	data, err := FlattenJSON(order{ID: "O-1", Amount: 100}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"O-1","amount":100}`, string(data))

	data, err = FlattenJSON(order{ID: "O-1", Amount: 100}, map[string]any{"channel": "web", "amount": 5})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string]any{"id": "O-1", "amount": 5.0, "channel": "web"}, got)

	_, err = FlattenJSON(func() {}, map[string]any{"a": 1})
	assert.Error(t, err)
}
