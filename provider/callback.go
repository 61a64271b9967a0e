package provider

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
)

// ResolveCallbackMode reads the callbackMode setting of a redirect provider.
// Only direct and lookup are accepted; def applies when unset.
func ResolveCallbackMode(id ProviderID, raw RawConfig, def CallbackMode) (CallbackMode, error) {
	mode, ok := ParseCallbackMode(raw.Get("callbackMode"), def)
	if !ok || mode == CallbackSigned {
		return "", ConfigError(id, "invalid "+string(id)+" configuration: callbackMode must be one of: direct lookup", nil)
	}
	return mode, nil
}

// Payload returns the notification fields: query parameters, then body, then
// the raw body parsed as JSON or as a form.
func (c CallbackRequest) Payload() map[string]any {
	if src := c.Source(); len(src) > 0 {
		return src
	}

	raw := strings.TrimSpace(c.RawBody)
	if raw == "" {
		return map[string]any{}
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err == nil && doc != nil {
		return doc
	}

	values, err := url.ParseQuery(raw)
	if err != nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(values))
	for k := range values {
		out[k] = values.Get(k)
	}
	return out
}

// VerifyCallback answers a callback with a fresh lookup. The lookup result is
// returned with the notification attached as CallbackRaw.
func VerifyCallback(ctx context.Context, a Adapter, lookup VerifyRequest, callback CallbackRequest) (*VerificationResponse, error) {
	resp, err := a.VerifyPayment(ctx, lookup)
	if err != nil {
		return nil, err
	}
	resp.Raw = CallbackRaw{
		Lookup:   resp.Raw,
		Callback: callback.Payload(),
	}
	return resp, nil
}
