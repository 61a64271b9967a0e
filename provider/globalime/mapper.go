package globalime

import (
	"github.com/mstgnz/nepalpay/provider"
	"github.com/shopspring/decimal"
)

// CheckoutRequest holds the fields of the bank checkout form
type CheckoutRequest struct {
	MerchantCode   string          `json:"merchantCode"`
	MerchantName   string          `json:"merchantName"`
	TransactionID  string          `json:"transactionId"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	SuccessURL     string          `json:"successUrl"`
	FailureURL     string          `json:"failureUrl"`
	Remarks        string          `json:"remarks"`
	Particular     string          `json:"particular"`
	CustomerName   string          `json:"customerName,omitempty"`
	CustomerEmail  string          `json:"customerEmail,omitempty"`
	CustomerMobile string          `json:"customerMobile,omitempty"`

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

// VerifyBody is posted to the Global IME verify API
type VerifyBody struct {
	MerchantCode  string `json:"merchantCode"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	TransactionID string `json:"transactionId"`
	ReferenceID   string `json:"referenceId,omitempty"`
}

// VerifyResponse covers both the verify API answer and the callback post
type VerifyResponse struct {
	Success       provider.FlexBool   `json:"success"`
	Status        string              `json:"status,omitempty"`
	ResponseCode  provider.FlexString `json:"responseCode,omitempty"`
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
		Provider:      provider.GlobalIME,
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
		Provider:      provider.GlobalIME,
		TransactionID: resp.transactionID(),
		Status:        provider.AnySuccess(bool(resp.Success), resp.Status == "SUCCESS", resp.ResponseCode == "00"),
		ReferenceID:   resp.referenceID(),
		Raw:           resp,
	}
}
