package khalti

import (
	"strings"

	"github.com/mstgnz/nepalpay/provider"
	"github.com/shopspring/decimal"
)

// CustomerInfo is the optional customer block of an initiate request
type CustomerInfo struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// BreakdownItem is one labelled part of the amount, in paisa
type BreakdownItem struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}

// ProductDetail describes one purchased item, prices in paisa
type ProductDetail struct {
	Identity   string `json:"identity"`
	Name       string `json:"name"`
	TotalPrice int64  `json:"total_price"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"`
}

// InitiateRequest is the body posted to /epayment/initiate/
type InitiateRequest struct {
	ReturnURL         string          `json:"return_url"`
	WebsiteURL        string          `json:"website_url"`
	Amount            int64           `json:"amount"`
	PurchaseOrderID   string          `json:"purchase_order_id"`
	PurchaseOrderName string          `json:"purchase_order_name"`
	CustomerInfo      *CustomerInfo   `json:"customer_info,omitempty"`
	AmountBreakdown   []BreakdownItem `json:"amount_breakdown,omitempty"`
	ProductDetails    []ProductDetail `json:"product_details,omitempty"`
	Metadata          map[string]any  `json:"metadata,omitempty"`

	// MerchantData is sent as top-level merchant_* fields
	MerchantData map[string]any `json:"-"`
}

// MarshalJSON flattens MerchantData into the request body
func (r InitiateRequest) MarshalJSON() ([]byte, error) {
	type plain InitiateRequest
	return provider.FlattenJSON(plain(r), r.MerchantData)
}

// InitiateResponse is Khalti's answer to an initiate request
type InitiateResponse struct {
	Pidx       string              `json:"pidx"`
	PaymentURL string              `json:"payment_url"`
	ExpiresAt  string              `json:"expires_at,omitempty"`
	ExpiresIn  provider.FlexString `json:"expires_in,omitempty"`
}

// Initiation keeps both sides of the initiate exchange
type Initiation struct {
	Request  InitiateRequest  `json:"request"`
	Response InitiateResponse `json:"response"`
}

// LookupResponse is the payment state returned by /epayment/lookup/
type LookupResponse struct {
	Pidx          string              `json:"pidx"`
	TotalAmount   provider.FlexString `json:"total_amount"`
	Status        string              `json:"status"`
	TransactionID provider.FlexString `json:"transaction_id"`
	Fee           provider.FlexString `json:"fee,omitempty"`
	Refunded      provider.FlexBool   `json:"refunded"`
}

// RefundBody is posted to the merchant transaction refund endpoint
type RefundBody struct {
	Mobile string `json:"mobile,omitempty"`
	Amount int64  `json:"amount,omitempty"`
}

// RefundResult is the refund endpoint's answer
type RefundResult struct {
	Detail string `json:"detail"`
	Status string `json:"status,omitempty"`
}

var statuses = provider.StatusTable{
	Success: []string{"Completed"},
	Pending: []string{"Pending", "Initiated"},
}

// toPaisa converts rupees to the integer paisa amounts Khalti expects
func toPaisa(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func mapInitResponse(request InitiateRequest, response InitiateResponse, amount decimal.Decimal) *provider.PaymentInitResponse {
	return &provider.PaymentInitResponse{
		Provider:          provider.Khalti,
		TransactionID:     request.PurchaseOrderID,
		Amount:            amount,
		Currency:          provider.CurrencyNPR,
		Status:            provider.StatusPending,
		RedirectURL:       response.PaymentURL,
		ProviderReference: response.Pidx,
		Raw: Initiation{
			Request:  request,
			Response: response,
		},
	}
}

func mapVerificationResponse(lookup LookupResponse) *provider.VerificationResponse {
	return &provider.VerificationResponse{
		Provider:      provider.Khalti,
		TransactionID: lookup.Pidx,
		Status:        statuses.Resolve(lookup.Status),
		ReferenceID:   lookup.TransactionID.String(),
		Raw:           lookup,
	}
}

func mapRefundResponse(transactionID string, amount decimal.Decimal, result RefundResult) *provider.RefundResponse {
	return &provider.RefundResponse{
		Provider:      provider.Khalti,
		TransactionID: transactionID,
		Status: provider.AnySuccess(
			reportsSuccess(result.Detail),
			result.Status == "Refunded",
			result.Status == "Partially Refunded",
		),
		Amount: amount,
		Raw:    result,
	}
}

func reportsSuccess(detail string) bool {
	detail = strings.ToLower(detail)
	return strings.Contains(detail, "success") && !strings.Contains(detail, "unsuccess")
}
