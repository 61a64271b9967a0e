package prabhupay

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

// CheckoutRequest holds the fields of the Prabhu Pay checkout
type CheckoutRequest struct {
	MerchantID    string          `json:"merchantId"`
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

// VerifyBody is posted to /api/verify
type VerifyBody struct {
	MerchantID    string `json:"merchantId"`
	TransactionID string `json:"transactionId"`
	ReferenceID   string `json:"referenceId,omitempty"`
}

// VerifyResponse covers both the verify API answer and the callback post
type VerifyResponse struct {
	Success       provider.FlexBool   `json:"success"`
	Status        string              `json:"status,omitempty"`
	Code          provider.FlexString `json:"code,omitempty"`
	Message       string              `json:"message,omitempty"`
	TransactionID provider.FlexString `json:"transactionId,omitempty"`
	TxnID         provider.FlexString `json:"txnId,omitempty"`
	ReferenceID   provider.FlexString `json:"referenceId,omitempty"`
	RefID         provider.FlexString `json:"refId,omitempty"`
	Amount        provider.FlexString `json:"amount,omitempty"`
}

func (r VerifyResponse) transactionID() string {
	return provider.FirstNonEmpty(r.TransactionID.String(), r.TxnID.String())
}

func (r VerifyResponse) referenceID() string {
	return provider.FirstNonEmpty(r.ReferenceID.String(), r.RefID.String())
}

func mapInitResponse(checkout Checkout) *provider.PaymentInitResponse {
	return &provider.PaymentInitResponse{
		Provider:      provider.PrabhuPay,
		TransactionID: checkout.TransactionID,
		Amount:        checkout.Request.Amount,
		Currency:      provider.CurrencyNPR,
		Status:        provider.StatusPending,
		RedirectURL:   checkout.PaymentURL,
		Raw:           checkout,
	}
}

func mapVerificationResponse(resp VerifyResponse) *provider.VerificationResponse {
	return &provider.VerificationResponse{
		Provider:      provider.PrabhuPay,
		TransactionID: resp.transactionID(),
		Status:        provider.AnySuccess(bool(resp.Success), resp.Status == "COMPLETED", resp.Code == "00"),
		ReferenceID:   resp.referenceID(),
		Raw:           resp,
	}
}
