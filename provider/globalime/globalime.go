package globalime

import (
	"context"
	"net/http"

	"github.com/mstgnz/nepalpay/infra/logger"
	"github.com/mstgnz/nepalpay/provider"
)

// Provider implements the Global IME Bank redirect checkout
type Provider struct {
	config *Config
	client *provider.ProviderHTTPClient
}

func New(cfg *Config) *Provider {
	headers := map[string]string{"X-API-Key": cfg.APIKey}
	return &Provider{
		config: cfg,
		client: provider.NewProviderHTTPClient(provider.CreateHTTPClientConfig(provider.GlobalIME, cfg.APIURL, cfg.Timeout(), headers)),
	}
}

func NewProvider(raw provider.RawConfig) (provider.Adapter, error) {
	cfg, err := BuildConfig(raw)
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}

func (p *Provider) ID() provider.ProviderID {
	return provider.GlobalIME
}

func (p *Provider) CallbackMode() provider.CallbackMode {
	return p.config.CallbackMode
}

func (p *Provider) InitiatePayment(ctx context.Context, request provider.PaymentRequest) (*provider.PaymentInitResponse, error) {
	if err := provider.ValidatePayload(provider.GlobalIME, "initiate", request); err != nil {
		return nil, err
	}

	checkout := Checkout{
		PaymentURL:    p.config.BaseURL + "/payment/initiate",
		TransactionID: request.TransactionID,
		Request: CheckoutRequest{
			MerchantCode:     p.config.MerchantCode,
			MerchantName:     p.config.MerchantName,
			TransactionID:    request.TransactionID,
			Amount:           request.Amount,
			Currency:         p.config.Currency,
			SuccessURL:       p.config.SuccessURL,
			FailureURL:       p.config.FailureURL,
			Remarks:          provider.FirstNonEmpty(request.Remarks, "Payment for "+request.TransactionID),
			Particular:       provider.FirstNonEmpty(request.Particular, request.TransactionID),
			CustomerName:     request.CustomerName,
			CustomerEmail:    request.CustomerEmail,
			CustomerMobile:   request.CustomerMobile,
			AdditionalFields: request.AdditionalFields,
		},
	}

	logger.WithTransaction(string(provider.GlobalIME), request.TransactionID).Debug("Global IME checkout prepared")
	return mapInitResponse(checkout), nil
}

func (p *Provider) VerifyPayment(ctx context.Context, request provider.VerifyRequest) (*provider.VerificationResponse, error) {
	if request.TransactionID == "" {
		return nil, provider.PayloadError(provider.GlobalIME, "verify", "transactionId is required", nil)
	}

	var resp VerifyResponse
	if _, err := p.client.Do(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: verifyPath,
		Body: VerifyBody{
			MerchantCode:  p.config.MerchantCode,
			Username:      p.config.Username,
			Password:      p.config.Password,
			TransactionID: request.TransactionID,
			ReferenceID:   request.ReferenceID,
		},
	}, &resp); err != nil {
		return nil, err
	}

	return mapVerificationResponse(resp), nil
}

func (p *Provider) HandleCallback(ctx context.Context, request provider.CallbackRequest) (*provider.VerificationResponse, error) {
	var notification VerifyResponse
	if err := provider.DecodeMap(request.Payload(), &notification); err != nil {
		return nil, provider.VerificationError(provider.GlobalIME, "callback", "unexpected callback payload", err)
	}

	transactionID := notification.transactionID()
	if transactionID == "" {
		return nil, provider.VerificationError(provider.GlobalIME, "callback", "Global IME callback missing transactionId", nil)
	}

	if p.config.CallbackMode == provider.CallbackLookup {
		lookup := provider.VerifyRequest{TransactionID: transactionID, ReferenceID: notification.referenceID()}
		return provider.VerifyCallback(ctx, p, lookup, request)
	}
	return mapVerificationResponse(notification), nil
}
