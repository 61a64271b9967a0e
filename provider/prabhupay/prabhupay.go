package prabhupay

import (
	"context"
	"net/http"

	"github.com/mstgnz/nepalpay/infra/logger"
	"github.com/mstgnz/nepalpay/provider"
)

// Provider implements the Prabhu Pay redirect checkout
type Provider struct {
	config *Config
	client *provider.ProviderHTTPClient
}

// New creates a Prabhu Pay adapter from a validated config
func New(cfg *Config) *Provider {
	headers := map[string]string{"Authorization": "Bearer " + cfg.APIKey}
	return &Provider{
		config: cfg,
		client: provider.NewProviderHTTPClient(provider.CreateHTTPClientConfig(provider.PrabhuPay, cfg.APIURL, cfg.Timeout(), headers)),
	}
}

// NewProvider is the registry factory for Prabhu Pay
func NewProvider(raw provider.RawConfig) (provider.Adapter, error) {
	cfg, err := BuildConfig(raw)
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}

// ID implements provider.Adapter
func (p *Provider) ID() provider.ProviderID {
	return provider.PrabhuPay
}

// CallbackMode implements provider.CallbackHandler
func (p *Provider) CallbackMode() provider.CallbackMode {
	return p.config.CallbackMode
}

// InitiatePayment prepares the checkout redirect
func (p *Provider) InitiatePayment(ctx context.Context, request provider.PaymentRequest) (*provider.PaymentInitResponse, error) {
	if err := provider.ValidatePayload(provider.PrabhuPay, "initiate", request); err != nil {
		return nil, err
	}

	checkout := Checkout{
		PaymentURL:    p.config.BaseURL + "/payment/initiate",
		TransactionID: request.TransactionID,
		Request: CheckoutRequest{
			MerchantID:    p.config.MerchantID,
			TransactionID: request.TransactionID,
			Amount:        request.Amount,
			Currency:      p.config.Currency,
			SuccessURL:    p.config.SuccessURL,
			FailureURL:    p.config.FailureURL,
			Remarks:       provider.FirstNonEmpty(request.Remarks, "Payment for "+request.TransactionID),
			Particular:    provider.FirstNonEmpty(request.Particular, request.TransactionID),
			CustomerInfo: CustomerInfo{
				Name:   request.CustomerName,
				Email:  request.CustomerEmail,
				Mobile: request.CustomerMobile,
			},
			AdditionalFields: request.AdditionalFields,
		},
	}

	logger.WithTransaction(string(provider.PrabhuPay), request.TransactionID).Debug("Prabhu Pay checkout prepared")
	return mapInitResponse(checkout), nil
}

// VerifyPayment confirms the transaction through the verify API
func (p *Provider) VerifyPayment(ctx context.Context, request provider.VerifyRequest) (*provider.VerificationResponse, error) {
	if request.TransactionID == "" {
		return nil, provider.PayloadError(provider.PrabhuPay, "verify", "transactionId is required", nil)
	}

	var resp VerifyResponse
	if _, err := p.client.Do(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: verifyPath,
		Body: VerifyBody{
			MerchantID:    p.config.MerchantID,
			TransactionID: request.TransactionID,
			ReferenceID:   request.ReferenceID,
		},
	}, &resp); err != nil {
		return nil, err
	}

	return mapVerificationResponse(resp), nil
}

// HandleCallback maps the posted result, or looks the transaction up again in lookup mode
func (p *Provider) HandleCallback(ctx context.Context, request provider.CallbackRequest) (*provider.VerificationResponse, error) {
	var notification VerifyResponse
	if err := provider.DecodeMap(request.Payload(), &notification); err != nil {
		return nil, provider.VerificationError(provider.PrabhuPay, "callback", "unexpected callback payload", err)
	}

	transactionID := notification.transactionID()
	if transactionID == "" {
		return nil, provider.VerificationError(provider.PrabhuPay, "callback", "Prabhu Pay callback missing transactionId", nil)
	}

	if p.config.CallbackMode == provider.CallbackLookup {
		lookup := provider.VerifyRequest{TransactionID: transactionID, ReferenceID: notification.referenceID()}
		return provider.VerifyCallback(ctx, p, lookup, request)
	}
	return mapVerificationResponse(notification), nil
}
