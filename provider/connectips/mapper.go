package connectips

import (
	"github.com/mstgnz/nepalpay/provider"
	"github.com/shopspring/decimal"
)

// CustomerInfo identifies the payer on the checkout request
type CustomerInfo struct {
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Mobile string `json:"mobile,omitempty"`
}

// CheckoutRequest holds the fields the ConnectIPS checkout page expects
type CheckoutRequest struct {
	MerchantID    string          `json:"merchantId"`
	AppID         string          `json:"appId"`
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	SuccessURL    string          `json:"successUrl"`
	FailureURL    string          `json:"failureUrl"`
	Remarks       string          `json:"remarks"`
	Particular    string          `json:"particular"`
	CustomerInfo  CustomerInfo    `json:"customerInfo"`

	AdditionalFields map[string]any `json:"-"`
}

// MarshalJSON merges AdditionalFields into the request
func (r CheckoutRequest) MarshalJSON() ([]byte, error) {
	type plain CheckoutRequest
	return provider.FlattenJSON(plain(r), r.AdditionalFields)
}

// Checkout is the redirect target and the fields prepared for it
type Checkout struct {
	PaymentURL    string          `json:"paymentUrl"`
	TransactionID string          `json:"transactionId"`
	Request       CheckoutRequest `json:"request"`
}

// StatusResponse is returned by the merchant status API and posted back on callback
type StatusResponse struct {
	Status        string              `json:"status"`
	TransactionID provider.FlexString `json:"transactionId"`
	RefID         provider.FlexString `json:"refId,omitempty"`
	Amount        provider.FlexString `json:"amount,omitempty"`
}

var statuses = provider.StatusTable{Success: []string{"SUCCESS"}}

func mapInitResponse(checkout Checkout) *provider.PaymentInitResponse {
	return &provider.PaymentInitResponse{
		Provider:      provider.ConnectIPS,
		TransactionID: checkout.TransactionID,
		Amount:        checkout.Request.Amount,
		Currency:      provider.CurrencyNPR,
		Status:        provider.StatusPending,
		RedirectURL:   checkout.PaymentURL,
		Raw:           checkout,
	}
}

func mapVerificationResponse(resp StatusResponse) *provider.VerificationResponse {
	return &provider.VerificationResponse{
		Provider:      provider.ConnectIPS,
		TransactionID: provider.FirstNonEmpty(resp.TransactionID.String(), resp.RefID.String()),
		Status:        statuses.Resolve(resp.Status),
		ReferenceID:   provider.FirstNonEmpty(resp.RefID.String(), resp.TransactionID.String()),
		Raw:           resp,
	}
}
