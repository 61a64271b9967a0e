// Package provider normalizes Nepali payment gateways behind a single API.
//
// Every gateway (eSewa, Khalti, ConnectIPS, IME Pay, PrabhuPay and Global IME)
// is an Adapter living in its own subpackage. PaymentService keeps one adapter
// per configured gateway and routes calls to it by ProviderID.
//
// # Basic Usage
//
//	import (
//	    "github.com/mstgnz/nepalpay/provider"
//	    _ "github.com/mstgnz/nepalpay/provider/esewa"
//	    _ "github.com/mstgnz/nepalpay/provider/khalti"
//	)
//
//	service, err := provider.NewPaymentService(provider.Config{
//	    provider.Esewa: {
//	        "merchantId":  "EPAYTEST",
//	        "productCode": "EPAYTEST",
//	        "secretKey":   "8gBm/:&EnhH.1/q",
//	        "successUrl":  "https://shop.example/success",
//	        "failureUrl":  "https://shop.example/failure",
//	        "env":         "sandbox",
//	    },
//	    provider.Khalti: {
//	        "publicKey":  "live_public_key",
//	        "secretKey":  "live_secret_key",
//	        "returnUrl":  "https://shop.example/khalti/return",
//	        "websiteUrl": "https://shop.example",
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := service.Initiate(ctx, provider.Khalti, provider.PaymentRequest{
//	    Amount:        decimal.NewFromInt(1000),
//	    TransactionID: "ORDER-42",
//	    OrderName:     "Order 42",
//	})
//
// Only gateways present in Config are available. Calling any other id fails
// with ErrProviderNotConfigured.
//
// # Capabilities
//
// InitiatePayment and VerifyPayment are mandatory. Refunds (Refunder) and
// inbound notifications (CallbackHandler) are optional interfaces; the service
// answers ErrCapabilityNotSupported when an adapter lacks them. Capabilities
// reports what a configured gateway supports.
//
// # Statuses and Events
//
// Every response carries a normalized PaymentStatus: PENDING, SUCCESS or
// FAILED. The service emits payment.pending after a successful initiation and
// the event matching the resulting status after verify, refund and callback:
//
//	service.Subscribe(events.PaymentSuccess, func(ctx context.Context, e events.Event) {
//	    fmt.Println("paid", e.Provider, e.TransactionID)
//	})
//
// # Errors
//
// All failures are *Error values tagged with an ErrorKind. Match them with
// errors.Is against the Err* sentinels or read the kind with KindOf.
//
// # Audit Trail
//
// WithPaymentLogger records every call (request, response, timing, error kind)
// in a PaymentLogger such as *opensearch.Logger. Secrets are redacted before
// anything is stored and audit failures never fail a payment.
package provider
