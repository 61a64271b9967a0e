package v1

import (
	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/nepalpay/handler"
)

// Handlers groups the handlers served under /v1. Logs is nil when audit
// logging is disabled and its routes are then not mounted.
type Handlers struct {
	Payment *handler.PaymentHandler
	Config  *handler.ConfigHandler
	Logs    *handler.LogsHandler
}

// Routes registers the authenticated API routes
func Routes(r chi.Router, h Handlers) {
	r.Route("/payments/{provider}", func(r chi.Router) {
		r.Post("/", h.Payment.InitiatePayment)
		r.Post("/verify", h.Payment.VerifyPayment)
		r.Post("/refund", h.Payment.RefundPayment)
	})

	r.Get("/providers", h.Payment.ListProviders)

	r.Route("/config", func(r chi.Router) {
		r.Get("/", h.Config.ListConfigs)
		r.Get("/{provider}", h.Config.GetConfig)
		r.Put("/{provider}", h.Config.SetConfig)
		r.Delete("/{provider}", h.Config.DeleteConfig)
	})

	if h.Logs != nil {
		r.Route("/logs/{provider}", func(r chi.Router) {
			r.Get("/", h.Logs.ListLogs)
			r.Get("/errors", h.Logs.GetErrorLogs)
			r.Get("/{transactionID}", h.Logs.GetPaymentLogs)
		})
	}
}

// CallbackRoutes registers the gateway callback endpoint. Gateways cannot
// authenticate, so it is mounted outside the API key check.
func CallbackRoutes(r chi.Router, h *handler.PaymentHandler) {
	r.HandleFunc("/callback/{provider}", h.HandleCallback)
}
