package imepay

import (
	"github.com/mstgnz/nepalpay/provider"
	"github.com/shopspring/decimal"
)

// CheckoutRequest holds the fields of the IME Pay checkout. API credentials are
// only ever sent server to server and are not part of it.
type CheckoutRequest struct {
	MerchantCode   string          `json:"MerchantCode"`
	MerchantName   string          `json:"MerchantName"`
	Module         string          `json:"Module"`
	TransactionID  string          `json:"TransactionId"`
	Amount         decimal.Decimal `json:"Amount"`
	Currency       string          `json:"Currency"`
	SuccessURL     string          `json:"SuccessUrl"`
	FailureURL     string          `json:"FailureUrl"`
	Remarks        string          `json:"Remarks"`
	Particular     string          `json:"Particular"`
	CustomerName   string          `json:"CustomerName,omitempty"`
	CustomerEmail  string          `json:"CustomerEmail,omitempty"`
	CustomerMobile string          `json:"CustomerMobile,omitempty"`

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
	MerchantCode  string `json:"MerchantCode"`
	UserName      string `json:"UserName"`
	Password      string `json:"Password"`
	TransactionID string `json:"TransactionId"`
	RefID         string `json:"RefId,omitempty"`
}

// VerifyResponse covers both the verify API answer and the callback post
type VerifyResponse struct {
	ResponseCode        provider.FlexString `json:"ResponseCode,omitempty"`
	ResponseDescription string              `json:"ResponseDescription,omitempty"`
	TransactionID       provider.FlexString `json:"TransactionId,omitempty"`
	RefID               provider.FlexString `json:"RefId,omitempty"`
	Amount              provider.FlexString `json:"Amount,omitempty"`

	Status      string              `json:"status,omitempty"`
	TxnID       provider.FlexString `json:"transactionId,omitempty"`
	ReferenceID provider.FlexString `json:"referenceId,omitempty"`
}

func (r VerifyResponse) transactionID() string {
	return provider.FirstNonEmpty(r.TransactionID.String(), r.TxnID.String())
}

func mapInitResponse(checkout Checkout) *provider.PaymentInitResponse {
	return &provider.PaymentInitResponse{
		Provider:      provider.ImePay,
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
		Provider:      provider.ImePay,
		TransactionID: resp.transactionID(),
		Status:        provider.AnySuccess(resp.ResponseCode == "0", resp.Status == "SUCCESS"),
		ReferenceID:   provider.FirstNonEmpty(resp.RefID.String(), resp.ReferenceID.String()),
		Raw:           resp,
	}
}
