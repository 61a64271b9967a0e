package esewa

import (
	"context"
	"net/http"
	"strings"

	"github.com/mstgnz/nepalpay/infra/logger"
	"github.com/mstgnz/nepalpay/infra/signing"
	"github.com/mstgnz/nepalpay/provider"
	"github.com/shopspring/decimal"
)

// Provider implements signed-form checkout and status lookup for eSewa ePay v2
type Provider struct {
	config *Config
	client *provider.ProviderHTTPClient
}

// New creates an eSewa adapter from a validated config
func New(cfg *Config) *Provider {
	return &Provider{
		config: cfg,
		client: provider.NewProviderHTTPClient(provider.CreateHTTPClientConfig(provider.Esewa, "", cfg.Timeout(), nil)),
	}
}

// NewProvider is the registry factory for eSewa
func NewProvider(raw provider.RawConfig) (provider.Adapter, error) {
	cfg, err := BuildConfig(raw)
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}

// ID implements provider.Adapter
func (p *Provider) ID() provider.ProviderID {
	return provider.Esewa
}

// CallbackMode implements provider.CallbackHandler
func (p *Provider) CallbackMode() provider.CallbackMode {
	return provider.CallbackSigned
}

// InitiatePayment builds and signs the form the customer posts to eSewa.
// No request is sent to eSewa at this point.
func (p *Provider) InitiatePayment(ctx context.Context, request provider.PaymentRequest) (*provider.PaymentInitResponse, error) {
	if err := provider.ValidatePayload(provider.Esewa, "initiate", request); err != nil {
		return nil, err
	}

	total := request.TotalAmount
	if !total.IsPositive() {
		total = request.Amount.Add(request.TaxAmount).Add(request.ServiceCharge).Add(request.DeliveryCharge)
	}

	form := FormPost{
		URL:    p.config.FormURL,
		Method: http.MethodPost,
		Fields: p.buildFormFields(request, total),
	}

	logger.WithTransaction(string(provider.Esewa), request.TransactionID).
		AddField("signed_field_names", form.Fields["signed_field_names"]).
		Debug("eSewa form fields signed")

	return mapInitResponse(request.TransactionID, form, total), nil
}

func (p *Provider) buildFormFields(request provider.PaymentRequest, total decimal.Decimal) map[string]string {
	fields := map[string]string{
		"amount":                  formatAmount(request.Amount),
		"tax_amount":              formatAmount(request.TaxAmount),
		"product_service_charge":  formatAmount(request.ServiceCharge),
		"product_delivery_charge": formatAmount(request.DeliveryCharge),
		"total_amount":            formatAmount(total),
		"transaction_uuid":        request.TransactionID,
		"product_code":            provider.FirstNonEmpty(request.ProductCode, p.config.ProductCode),
		"success_url":             provider.FirstNonEmpty(request.SuccessURL, p.config.SuccessURL),
		"failure_url":             provider.FirstNonEmpty(request.FailureURL, p.config.FailureURL),
		"signed_field_names":      signing.JoinFieldNames(p.config.SignedFieldNames),
	}
	for k, v := range request.AdditionalFields {
		if _, reserved := fields[k]; reserved || k == "signature" {
			continue
		}
		fields[k] = provider.Stringify(v)
	}

	signable := make(map[string]any, len(fields))
	for k, v := range fields {
		signable[k] = v
	}
	fields["signature"] = signing.SignFields(p.config.SecretKey, signable, p.config.SignedFieldNames)
	return fields
}

// VerifyPayment queries the transaction status API. eSewa needs the total amount
// to find a transaction, taken from TotalAmount or else Amount.
func (p *Provider) VerifyPayment(ctx context.Context, request provider.VerifyRequest) (*provider.VerificationResponse, error) {
	if err := provider.ValidatePayload(provider.Esewa, "verify", request); err != nil {
		return nil, err
	}
	if request.TransactionID == "" {
		return nil, provider.PayloadError(provider.Esewa, "verify", "transactionId is required", nil)
	}

	total := request.TotalAmount
	if !total.IsPositive() {
		total = request.Amount
	}
	if !total.IsPositive() {
		return nil, provider.VerificationError(provider.Esewa, "verify", "totalAmount is required to verify eSewa payment", nil)
	}

	var status StatusResponse
	_, err := p.client.Do(ctx, &provider.HTTPRequest{
		Method:   http.MethodGet,
		Endpoint: p.config.StatusURL,
		QueryParams: map[string]string{
			"product_code":     provider.FirstNonEmpty(request.ProductCode, p.config.ProductCode),
			"transaction_uuid": request.TransactionID,
			"total_amount":     formatAmount(total),
		},
	}, &status)
	if err != nil {
		return nil, err
	}

	return mapVerificationResponse(status), nil
}

// HandleCallback decodes the base64 document eSewa appends to the success URL
// and trusts it only when its embedded signature verifies.
func (p *Provider) HandleCallback(ctx context.Context, request provider.CallbackRequest) (*provider.VerificationResponse, error) {
	encoded := provider.FirstNonEmpty(request.Lookup("encoded", "data"), request.RawBody)
	// query decoding turns the base64 '+' into a space
	encoded = strings.ReplaceAll(strings.TrimSpace(encoded), " ", "+")
	if encoded == "" {
		return nil, provider.VerificationError(provider.Esewa, "callback", "unable to locate encoded callback payload", nil)
	}

	doc, err := signing.DecodeBase64JSON(encoded)
	if err != nil {
		return nil, provider.VerificationError(provider.Esewa, "callback", "invalid callback payload", err)
	}

	if err := signing.VerifyDocument(p.config.SecretKey, doc); err != nil {
		logger.WithTransaction(string(provider.Esewa), provider.Stringify(doc["transaction_uuid"])).
			Warn("eSewa callback signature rejected")
		return nil, provider.VerificationError(provider.Esewa, "callback", "invalid eSewa callback signature", err)
	}

	var status StatusResponse
	if err := provider.DecodeMap(doc, &status); err != nil {
		return nil, provider.VerificationError(provider.Esewa, "callback", "unexpected callback document", err)
	}
	if status.TransactionUUID == "" {
		return nil, provider.VerificationError(provider.Esewa, "callback", "callback document has no transaction_uuid", nil)
	}
	return mapVerificationResponse(status), nil
}

// formatAmount renders whole amounts without decimals and anything else with two
func formatAmount(amount decimal.Decimal) string {
	if amount.IsInteger() {
		return amount.StringFixed(0)
	}
	return amount.StringFixed(2)
}
