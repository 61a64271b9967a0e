// Package nepalpay puts the Nepali payment gateways behind a single,
// standardized API. It can be used as a Go library or run as an HTTP service
// that merchant backends call instead of talking to each gateway directly.
//
// # Overview
//
// eSewa, Khalti, ConnectIPS, IME Pay, Prabhu Pay and Global IME each have
// their own authentication, request shapes, callback conventions and status
// vocabularies. NepalPay maps all of them onto one request type, one response
// type and three statuses: PENDING, SUCCESS and FAILED.
//
//	┌─────────────────┐    ┌─────────────────┐    ┌─────────────────┐
//	│                 │    │                 │    │                 │
//	│  Merchant App   │◄──►│    NepalPay     │◄──►│    Gateways     │
//	│                 │    │                 │    │                 │
//	└─────────────────┘    └─────────────────┘    └─────────────────┘
//
// # Supported Providers
//
//   - eSewa: signed form redirect, status lookup, signed callbacks
//   - Khalti: ePayment initiate, lookup, refunds, lookup-verified callbacks
//   - ConnectIPS: redirect checkout, transaction validation
//   - IME Pay: token redirect, confirmation, callbacks
//   - Prabhu Pay: redirect checkout, verification, callbacks
//   - Global IME: redirect checkout, verification, callbacks
//
// # Quick Start
//
//	import (
//	    "github.com/mstgnz/nepalpay/provider"
//	    _ "github.com/mstgnz/nepalpay/provider/khalti" // Import to register provider
//	)
//
//	service, err := provider.NewPaymentService(provider.Config{
//	    provider.Khalti: {
//	        "publicKey":  "live_public_key",
//	        "secretKey":  "live_secret_key",
//	        "returnUrl":  "https://shop.example/khalti/return",
//	        "websiteUrl": "https://shop.example",
//	        "env":        "sandbox",
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
//	// redirect the customer to resp.RedirectURL
//
// See the provider package for capabilities, events and error kinds.
//
// # HTTP API
//
// cmd/ runs the HTTP service. Every /v1 route except callbacks needs the
// API_KEY as a bearer token:
//
//	POST   /v1/payments/{provider}          initiate
//	POST   /v1/payments/{provider}/verify   verify
//	POST   /v1/payments/{provider}/refund   refund
//	GET    /v1/providers                    configured providers and capabilities
//	GET    /v1/config                       provider settings, secrets masked
//	PUT    /v1/config/{provider}            validate, apply and store settings
//	DELETE /v1/config/{provider}            disable a provider
//	GET    /v1/logs/{provider}              audit log search (OpenSearch)
//	GET    /v1/callback/{provider}          gateway callback, no auth
//	POST   /v1/callback/{provider}          gateway callback, no auth
//	GET    /health                          health check, no auth
//
// # Configuration
//
// Provider settings come from environment variables prefixed with the
// provider id and from the SQLite settings store. Environment values win.
//
//	ESEWA_MERCHANT_ID=EPAYTEST
//	ESEWA_PRODUCT_CODE=EPAYTEST
//	ESEWA_SECRET_KEY=8gBm/:&EnhH.1/q
//	ESEWA_SUCCESS_URL=https://shop.example/success
//	ESEWA_FAILURE_URL=https://shop.example/failure
//	ESEWA_ENV=sandbox
//
// Service settings: APP_PORT, API_KEY, SQLITE_PATH, CORS_ALLOWED_ORIGINS,
// RATE_LIMIT_PER_MINUTE, LOGGING_LEVEL, ENABLE_OPENSEARCH_LOGGING,
// OPENSEARCH_URL, OPENSEARCH_USER, OPENSEARCH_PASSWORD and OPENSEARCH_INSECURE.
//
// # Logging
//
// Structured logs go to stdout and, when OpenSearch logging is enabled, every
// payment call and lifecycle event is indexed per provider for later search.
//
// # Examples
//
//   - examples/esewa/ - library usage with eSewa sandbox credentials
//   - examples/logger/ - structured logging
//
// # Contributing
//
// To add a new payment provider:
//
//  1. Implement provider.Adapter, plus Refunder or CallbackHandler when supported
//  2. Add the provider package under provider/{provider}/
//  3. Register the provider in provider/{provider}/register.go
//  4. Add the blank import to router/routes.go and tests next to the adapter
package nepalpay
