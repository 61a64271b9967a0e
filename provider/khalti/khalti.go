package khalti

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mstgnz/nepalpay/infra/logger"
	"github.com/mstgnz/nepalpay/provider"
)

// Provider implements Khalti ePayment (KPG-2): server-side initiation, lookup,
// lookup-verified callbacks and merchant transaction refunds.
type Provider struct {
	config *Config
	client *provider.ProviderHTTPClient
}

// New creates a Khalti adapter from a validated config
func New(cfg *Config) *Provider {
	headers := map[string]string{"Authorization": "Key " + cfg.SecretKey}
	return &Provider{
		config: cfg,
		client: provider.NewProviderHTTPClient(provider.CreateHTTPClientConfig(provider.Khalti, cfg.BaseURL, cfg.Timeout(), headers)),
	}
}

// NewProvider is the registry factory for Khalti
func NewProvider(raw provider.RawConfig) (provider.Adapter, error) {
	cfg, err := BuildConfig(raw)
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}

// ID implements provider.Adapter
func (p *Provider) ID() provider.ProviderID {
	return provider.Khalti
}

// CallbackMode implements provider.CallbackHandler
func (p *Provider) CallbackMode() provider.CallbackMode {
	return provider.CallbackLookup
}

// InitiatePayment registers the payment with Khalti and returns its payment URL.
// TransactionID stays the caller's purchase order id; the pidx is the ProviderReference.
func (p *Provider) InitiatePayment(ctx context.Context, request provider.PaymentRequest) (*provider.PaymentInitResponse, error) {
	body, err := p.buildInitiateRequest(request)
	if err != nil {
		return nil, err
	}

	var resp InitiateResponse
	if _, err := p.client.Do(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: initiatePath,
		Body:     body,
	}, &resp); err != nil {
		return nil, err
	}

	logger.WithTransaction(string(provider.Khalti), request.TransactionID).
		AddField("pidx", resp.Pidx).
		Debug("Khalti payment initiated")

	return mapInitResponse(body, resp, request.Amount), nil
}

func (p *Provider) buildInitiateRequest(request provider.PaymentRequest) (InitiateRequest, error) {
	if err := provider.ValidatePayload(provider.Khalti, "initiate", request); err != nil {
		return InitiateRequest{}, err
	}

	name := provider.FirstNonEmpty(request.OrderName, request.Particular)
	if name == "" {
		return InitiateRequest{}, provider.PayloadError(provider.Khalti, "initiate", "orderName is required", nil)
	}

	returnURL := provider.FirstNonEmpty(request.ReturnURL, p.config.ReturnURL)
	websiteURL := provider.FirstNonEmpty(request.WebsiteURL, p.config.WebsiteURL)
	if returnURL == "" || websiteURL == "" {
		return InitiateRequest{}, provider.NewError(provider.KindConfigurationInvalid, provider.Khalti, "initiate",
			"returnUrl and websiteUrl are required for Khalti payments", nil)
	}

	body := InitiateRequest{
		ReturnURL:         returnURL,
		WebsiteURL:        websiteURL,
		Amount:            toPaisa(request.Amount),
		PurchaseOrderID:   request.TransactionID,
		PurchaseOrderName: name,
		Metadata:          request.Metadata,
	}

	customer := CustomerInfo{
		Name:  strings.TrimSpace(request.CustomerName),
		Email: strings.TrimSpace(request.CustomerEmail),
		Phone: strings.TrimSpace(request.CustomerMobile),
	}
	if customer != (CustomerInfo{}) {
		body.CustomerInfo = &customer
	}

	if len(request.AmountBreakdown) > 0 {
		var sum int64
		for _, item := range request.AmountBreakdown {
			paisa := toPaisa(item.Amount)
			sum += paisa
			body.AmountBreakdown = append(body.AmountBreakdown, BreakdownItem{Label: item.Label, Amount: paisa})
		}
		if sum != body.Amount {
			return InitiateRequest{}, provider.PayloadError(provider.Khalti, "initiate",
				fmt.Sprintf("sum of amountBreakdown (%d) must equal amount in paisa (%d)", sum, body.Amount), nil)
		}
	}

	for _, item := range request.ProductDetails {
		body.ProductDetails = append(body.ProductDetails, ProductDetail{
			Identity:   item.Identity,
			Name:       item.Name,
			TotalPrice: toPaisa(item.TotalPrice),
			Quantity:   item.Quantity,
			UnitPrice:  toPaisa(item.UnitPrice),
		})
	}

	if len(request.MerchantData) > 0 {
		body.MerchantData = make(map[string]any, len(request.MerchantData))
		for k, v := range request.MerchantData {
			if !strings.HasPrefix(k, "merchant_") {
				k = "merchant_" + k
			}
			body.MerchantData[k] = v
		}
	}

	return body, nil
}

// VerifyPayment looks the payment up by pidx. TransactionID is accepted as the pidx
// when Pidx is empty.
func (p *Provider) VerifyPayment(ctx context.Context, request provider.VerifyRequest) (*provider.VerificationResponse, error) {
	pidx := provider.FirstNonEmpty(request.Pidx, request.TransactionID)
	if pidx == "" {
		return nil, provider.PayloadError(provider.Khalti, "verify", "provide pidx or transactionId to verify Khalti payment", nil)
	}

	var lookup LookupResponse
	if _, err := p.client.Do(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: lookupPath,
		Body:     map[string]string{"pidx": pidx},
	}, &lookup); err != nil {
		return nil, err
	}

	return mapVerificationResponse(lookup), nil
}

// HandleCallback never trusts the redirect parameters: the pidx they carry is
// looked up again and the lookup result is returned.
func (p *Provider) HandleCallback(ctx context.Context, request provider.CallbackRequest) (*provider.VerificationResponse, error) {
	pidx := provider.FirstNonEmpty(request.Lookup("pidx"), provider.Stringify(request.Payload()["pidx"]))
	if pidx == "" {
		return nil, provider.VerificationError(provider.Khalti, "callback", "Khalti callback payload is missing pidx", nil)
	}

	return provider.VerifyCallback(ctx, p, provider.VerifyRequest{Pidx: pidx}, request)
}

// RefundPayment refunds a completed transaction. TransactionID is the Khalti
// transaction_id (the ReferenceID of a verification); a zero Amount refunds in full.
func (p *Provider) RefundPayment(ctx context.Context, request provider.RefundRequest) (*provider.RefundResponse, error) {
	if err := provider.ValidatePayload(provider.Khalti, "refund", request); err != nil {
		return nil, err
	}

	body := RefundBody{Mobile: request.Mobile}
	if request.Amount.IsPositive() {
		body.Amount = toPaisa(request.Amount)
	}

	var result RefundResult
	if _, err := p.client.Do(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: p.config.RefundURL + "/" + url.PathEscape(request.TransactionID) + "/refund/",
		Body:     body,
	}, &result); err != nil {
		return nil, err
	}

	logger.WithTransaction(string(provider.Khalti), request.TransactionID).
		AddField("detail", result.Detail).
		Info("Khalti refund processed")

	return mapRefundResponse(request.TransactionID, request.Amount, result), nil
}
