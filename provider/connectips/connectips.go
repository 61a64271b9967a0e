package connectips

import (
	"context"
	"net/http"

	"github.com/mstgnz/nepalpay/infra/logger"
	"github.com/mstgnz/nepalpay/provider"
)

// Provider implements the ConnectIPS redirect checkout
type Provider struct {
	config *Config
	client *provider.ProviderHTTPClient
}

// New creates a ConnectIPS adapter from a validated config
func New(cfg *Config) *Provider {
	headers := map[string]string{
		"X-App-Id":     cfg.AppID,
		"X-App-Secret": cfg.AppSecret,
		"X-Username":   cfg.Username,
	}
	return &Provider{
		config: cfg,
		client: provider.NewProviderHTTPClient(provider.CreateHTTPClientConfig(provider.ConnectIPS, cfg.BaseURL, cfg.Timeout(), headers)),
	}
}

// NewProvider is the registry factory for ConnectIPS
func NewProvider(raw provider.RawConfig) (provider.Adapter, error) {
	cfg, err := BuildConfig(raw)
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}

// ID implements provider.Adapter
func (p *Provider) ID() provider.ProviderID {
	return provider.ConnectIPS
}

// CallbackMode implements provider.CallbackHandler
func (p *Provider) CallbackMode() provider.CallbackMode {
	return p.config.CallbackMode
}

// InitiatePayment prepares the checkout redirect
func (p *Provider) InitiatePayment(ctx context.Context, request provider.PaymentRequest) (*provider.PaymentInitResponse, error) {
	if err := provider.ValidatePayload(provider.ConnectIPS, "initiate", request); err != nil {
		return nil, err
	}

	checkout := Checkout{
		PaymentURL:    p.config.BaseURL + "/payment/initiate",
		TransactionID: request.TransactionID,
		Request: CheckoutRequest{
			MerchantID:    p.config.MerchantID,
			AppID:         p.config.AppID,
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

	logger.WithTransaction(string(provider.ConnectIPS), request.TransactionID).Debug("ConnectIPS checkout prepared")
	return mapInitResponse(checkout), nil
}

// VerifyPayment queries the merchant status API
func (p *Provider) VerifyPayment(ctx context.Context, request provider.VerifyRequest) (*provider.VerificationResponse, error) {
	if request.TransactionID == "" {
		return nil, provider.PayloadError(provider.ConnectIPS, "verify", "transactionId is required", nil)
	}

	var status StatusResponse
	if _, err := p.client.Do(ctx, &provider.HTTPRequest{
		Method:   http.MethodGet,
		Endpoint: p.config.StatusURL,
		QueryParams: map[string]string{
			"merchantId":    p.config.MerchantID,
			"transactionId": request.TransactionID,
		},
	}, &status); err != nil {
		return nil, err
	}

	return mapVerificationResponse(status), nil
}

// HandleCallback maps the posted status, or looks the transaction up again in lookup mode
func (p *Provider) HandleCallback(ctx context.Context, request provider.CallbackRequest) (*provider.VerificationResponse, error) {
	var notification StatusResponse
	if err := provider.DecodeMap(request.Payload(), &notification); err != nil {
		return nil, provider.VerificationError(provider.ConnectIPS, "callback", "unexpected callback payload", err)
	}
	transactionID := notification.TransactionID.String()
	if transactionID == "" {
		return nil, provider.VerificationError(provider.ConnectIPS, "callback", "ConnectIPS callback missing transactionId", nil)
	}

	if p.config.CallbackMode == provider.CallbackLookup {
		return provider.VerifyCallback(ctx, p, provider.VerifyRequest{TransactionID: transactionID}, request)
	}
	return mapVerificationResponse(notification), nil
}
