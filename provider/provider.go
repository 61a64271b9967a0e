package provider

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// ProviderID identifies a payment gateway
type ProviderID string

const (
	Esewa      ProviderID = "esewa"
	Khalti     ProviderID = "khalti"
	ConnectIPS ProviderID = "connectips"
	ImePay     ProviderID = "imepay"
	PrabhuPay  ProviderID = "prabhupay"
	GlobalIME  ProviderID = "globalime"
)

// CurrencyNPR is the only currency any provider settles in
const CurrencyNPR = "NPR"

// PaymentStatus is the normalized status vocabulary
type PaymentStatus string

const (
	StatusPending PaymentStatus = "PENDING"
	StatusSuccess PaymentStatus = "SUCCESS"
	StatusFailed  PaymentStatus = "FAILED"
)

// Environment selects sandbox or production endpoints
type Environment string

const (
	EnvironmentSandbox    Environment = "sandbox"
	EnvironmentProduction Environment = "production"
)

// AmountBreakdownItem is a labelled part of the total amount (Khalti)
type AmountBreakdownItem struct {
	Label  string          `json:"label" validate:"required"`
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
}

// ProductDetail describes a purchased item (Khalti)
type ProductDetail struct {
	Identity   string          `json:"identity" validate:"required"`
	Name       string          `json:"name" validate:"required"`
	TotalPrice decimal.Decimal `json:"totalPrice" validate:"gt=0"`
	Quantity   int             `json:"quantity" validate:"gt=0"`
	UnitPrice  decimal.Decimal `json:"unitPrice" validate:"gt=0"`
}

// PaymentRequest contains everything a caller may send to initiate a payment.
// Providers read the fields they understand and ignore the rest.
type PaymentRequest struct {
	Amount           decimal.Decimal `json:"amount" validate:"gt=0"`
	TransactionID    string          `json:"transactionId" validate:"required"`
	Remarks          string          `json:"remarks,omitempty"`
	Particular       string          `json:"particular,omitempty"`
	CustomerName     string          `json:"customerName,omitempty"`
	CustomerEmail    string          `json:"customerEmail,omitempty" validate:"omitempty,email"`
	CustomerMobile   string          `json:"customerMobile,omitempty"`
	AdditionalFields map[string]any  `json:"additionalFields,omitempty"`

	// eSewa
	TaxAmount      decimal.Decimal `json:"taxAmount,omitempty" validate:"gte=0"`
	ServiceCharge  decimal.Decimal `json:"productServiceCharge,omitempty" validate:"gte=0"`
	DeliveryCharge decimal.Decimal `json:"productDeliveryCharge,omitempty" validate:"gte=0"`
	TotalAmount    decimal.Decimal `json:"totalAmount,omitempty" validate:"gte=0"`
	ProductCode    string          `json:"productCode,omitempty"`
	SuccessURL     string          `json:"successUrl,omitempty" validate:"omitempty,url"`
	FailureURL     string          `json:"failureUrl,omitempty" validate:"omitempty,url"`

	// Khalti
	OrderName       string                `json:"orderName,omitempty"`
	ReturnURL       string                `json:"returnUrl,omitempty" validate:"omitempty,url"`
	WebsiteURL      string                `json:"websiteUrl,omitempty" validate:"omitempty,url"`
	AmountBreakdown []AmountBreakdownItem `json:"amountBreakdown,omitempty" validate:"omitempty,dive"`
	ProductDetails  []ProductDetail       `json:"productDetails,omitempty" validate:"omitempty,dive"`
	MerchantData    map[string]any        `json:"merchantData,omitempty"`
	Metadata        map[string]any        `json:"metadata,omitempty"`
}

// VerifyRequest identifies a payment to look up
type VerifyRequest struct {
	TransactionID string          `json:"transactionId,omitempty"`
	ReferenceID   string          `json:"referenceId,omitempty"`
	Pidx          string          `json:"pidx,omitempty"`
	TotalAmount   decimal.Decimal `json:"totalAmount,omitempty" validate:"gte=0"`
	Amount        decimal.Decimal `json:"amount,omitempty" validate:"gte=0"`
	ProductCode   string          `json:"productCode,omitempty"`
}

// RefundRequest asks the provider to return funds for a settled transaction
type RefundRequest struct {
	TransactionID string          `json:"transactionId" validate:"required"`
	Amount        decimal.Decimal `json:"amount,omitempty" validate:"gte=0"`
	Mobile        string          `json:"mobile,omitempty"`
	Reason        string          `json:"reason,omitempty"`
}

// CallbackRequest carries an inbound provider notification in whatever envelope it arrived
type CallbackRequest struct {
	Query   map[string]string `json:"query,omitempty"`
	Body    map[string]any    `json:"body,omitempty"`
	RawBody string            `json:"rawBody,omitempty"`
}

// NewCallbackRequest builds a CallbackRequest from a loosely shaped payload.
// A payload with nested "body" or "query" members is unwrapped, anything else
// is treated as the body itself.
func NewCallbackRequest(payload map[string]any) CallbackRequest {
	req := CallbackRequest{}
	nested := false

	if q, ok := payload["query"].(map[string]any); ok {
		nested = true
		req.Query = make(map[string]string, len(q))
		for k, v := range q {
			req.Query[k] = Stringify(v)
		}
	}

	switch b := payload["body"].(type) {
	case map[string]any:
		nested = true
		req.Body = b
	case string:
		nested = true
		req.RawBody = b
	}

	if !nested {
		req.Body = payload
	}
	return req
}

// Source returns the first non-empty envelope: query parameters, then body
func (c CallbackRequest) Source() map[string]any {
	if len(c.Query) > 0 {
		out := make(map[string]any, len(c.Query))
		for k, v := range c.Query {
			out[k] = v
		}
		return out
	}
	if len(c.Body) > 0 {
		return c.Body
	}
	return map[string]any{}
}

// Lookup returns the first non-empty string value for any of keys across query and body
func (c CallbackRequest) Lookup(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(c.Query[key]); v != "" {
			return v
		}
		if v, ok := c.Body[key].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// PaymentInitResponse is the normalized result of starting a payment
type PaymentInitResponse struct {
	Provider          ProviderID      `json:"provider"`
	TransactionID     string          `json:"transactionId"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Status            PaymentStatus   `json:"status"`
	RedirectURL       string          `json:"redirectUrl,omitempty"`
	ProviderReference string          `json:"providerReference,omitempty"`
	Raw               any             `json:"raw,omitempty"`
}

// VerificationResponse is the normalized result of a lookup or callback
type VerificationResponse struct {
	Provider      ProviderID    `json:"provider"`
	TransactionID string        `json:"transactionId"`
	Status        PaymentStatus `json:"status"`
	ReferenceID   string        `json:"referenceId,omitempty"`
	Raw           any           `json:"raw,omitempty"`
}

// RefundResponse is the normalized result of a refund
type RefundResponse struct {
	Provider      ProviderID      `json:"provider"`
	TransactionID string          `json:"transactionId"`
	Status        PaymentStatus   `json:"status"`
	Amount        decimal.Decimal `json:"amount,omitempty"`
	Raw           any             `json:"raw,omitempty"`
}

// CallbackRaw is the raw value of a callback resolved through a server-side lookup
type CallbackRaw struct {
	Lookup   any            `json:"lookup"`
	Callback map[string]any `json:"callback"`
}

// Adapter is the contract every payment gateway implements
type Adapter interface {
	// ID returns the provider key the adapter serves
	ID() ProviderID

	// InitiatePayment validates the payload and prepares the provider-side payment
	InitiatePayment(ctx context.Context, request PaymentRequest) (*PaymentInitResponse, error)

	// VerifyPayment looks up the payment status on the provider
	VerifyPayment(ctx context.Context, request VerifyRequest) (*VerificationResponse, error)
}

// Refunder is implemented by adapters that can return funds
type Refunder interface {
	RefundPayment(ctx context.Context, request RefundRequest) (*RefundResponse, error)
}

// CallbackMode states how far an adapter trusts inbound notifications
type CallbackMode string

const (
	// CallbackSigned trusts the payload once its embedded signature verifies
	CallbackSigned CallbackMode = "signed"
	// CallbackLookup re-checks every notification with a server-to-server lookup
	CallbackLookup CallbackMode = "lookup"
	// CallbackDirect maps the notification as received
	CallbackDirect CallbackMode = "direct"
)

// CallbackHandler is implemented by adapters that accept provider notifications
type CallbackHandler interface {
	HandleCallback(ctx context.Context, request CallbackRequest) (*VerificationResponse, error)
	CallbackMode() CallbackMode
}

// Capabilities lists the optional operations an adapter supports
type Capabilities struct {
	Refund       bool         `json:"refund"`
	Callback     bool         `json:"callback"`
	CallbackMode CallbackMode `json:"callbackMode,omitempty"`
}

// CapabilitiesOf inspects which optional interfaces an adapter implements
func CapabilitiesOf(a Adapter) Capabilities {
	var caps Capabilities
	if _, ok := a.(Refunder); ok {
		caps.Refund = true
	}
	if h, ok := a.(CallbackHandler); ok {
		caps.Callback = true
		caps.CallbackMode = h.CallbackMode()
	}
	return caps
}

// ParseCallbackMode accepts the configured callback mode, falling back to def when empty
func ParseCallbackMode(value string, def CallbackMode) (CallbackMode, bool) {
	switch CallbackMode(strings.ToLower(strings.TrimSpace(value))) {
	case "":
		return def, true
	case CallbackDirect:
		return CallbackDirect, true
	case CallbackLookup:
		return CallbackLookup, true
	case CallbackSigned:
		return CallbackSigned, true
	}
	return "", false
}
