// Package handler exposes the NepalPay payment service over HTTP.
//
// Every response uses the envelope from infra/response:
//
//	{"code": 200, "success": true, "message": "Payment initiated", "data": {...}}
//
// Failures from the payment service carry their error kind so clients can
// branch without parsing messages:
//
//	{"code": 422, "success": false, "kind": "verification_failed", "error": "..."}
//
// # Payment Handler
//
//	r.Post("/v1/payments/{provider}", paymentHandler.InitiatePayment)
//	r.Post("/v1/payments/{provider}/verify", paymentHandler.VerifyPayment)
//	r.Post("/v1/payments/{provider}/refund", paymentHandler.RefundPayment)
//	r.HandleFunc("/v1/callback/{provider}", paymentHandler.HandleCallback)
//	r.Get("/v1/providers", paymentHandler.ListProviders)
//
// Callbacks accept query parameters, JSON bodies and form posts. Any other
// body is handed to the provider as raw text.
//
// # Error Kinds
//
//	payload_invalid           400
//	provider_not_configured   404
//	verification_failed       422
//	configuration_invalid     500
//	capability_not_supported  501
//	transport_failure         502
//
// # Config Handler
//
// Provider settings can be changed at runtime. New settings are validated by
// building a payment service with them; only then are they stored in SQLite
// and swapped in through LiveService.
//
//	PUT /v1/config/khalti
//	{"publicKey": "...", "secretKey": "...", "returnUrl": "https://shop.np/return"}
//
// # Logs Handler
//
// The OpenSearch audit trail is searchable per provider:
//
//	GET /v1/logs/khalti?status=SUCCESS&hours=48
//	GET /v1/logs/khalti/errors
//	GET /v1/logs/khalti/ORDER-42
package handler
