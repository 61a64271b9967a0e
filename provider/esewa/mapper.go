package esewa

import (
	"github.com/mstgnz/nepalpay/provider"
	"github.com/shopspring/decimal"
)

// FormPost is what the customer's browser must submit to start an eSewa payment
type FormPost struct {
	URL    string            `json:"url"`
	Method string            `json:"method"`
	Fields map[string]string `json:"fields"`
}

// StatusResponse is the transaction document returned by the status API and
// carried, base64 encoded, by the redirect callback
type StatusResponse struct {
	ProductCode      string              `json:"product_code"`
	TransactionUUID  string              `json:"transaction_uuid"`
	TotalAmount      provider.FlexString `json:"total_amount"`
	Status           string              `json:"status"`
	RefID            provider.FlexString `json:"ref_id,omitempty"`
	TransactionCode  string              `json:"transaction_code,omitempty"`
	SignedFieldNames string              `json:"signed_field_names,omitempty"`
	Signature        string              `json:"signature,omitempty"`
}

var statuses = provider.StatusTable{
	Success: []string{"COMPLETE"},
	Pending: []string{"PENDING", "AMBIGUOUS"},
}

func mapInitResponse(transactionID string, form FormPost, totalAmount decimal.Decimal) *provider.PaymentInitResponse {
	return &provider.PaymentInitResponse{
		Provider:      provider.Esewa,
		TransactionID: transactionID,
		Amount:        totalAmount,
		Currency:      provider.CurrencyNPR,
		Status:        provider.StatusPending,
		RedirectURL:   form.URL,
		Raw:           form,
	}
}

func mapVerificationResponse(resp StatusResponse) *provider.VerificationResponse {
	return &provider.VerificationResponse{
		Provider:      provider.Esewa,
		TransactionID: resp.TransactionUUID,
		Status:        statuses.Resolve(resp.Status),
		ReferenceID:   resp.RefID.String(),
		Raw:           resp,
	}
}
