package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/nepalpay/handler"
	"github.com/mstgnz/nepalpay/infra/config"
	"github.com/mstgnz/nepalpay/infra/middle"
	"github.com/mstgnz/nepalpay/infra/response"
	v1 "github.com/mstgnz/nepalpay/router/v1"

	// Import for side-effect registration
	_ "github.com/mstgnz/nepalpay/provider/connectips"
	_ "github.com/mstgnz/nepalpay/provider/esewa"
	_ "github.com/mstgnz/nepalpay/provider/globalime"
	_ "github.com/mstgnz/nepalpay/provider/imepay"
	_ "github.com/mstgnz/nepalpay/provider/khalti"
	_ "github.com/mstgnz/nepalpay/provider/prabhupay"
)

// CallbackPrefix is the path prefix of the unauthenticated callback routes
const CallbackPrefix = "/v1/callback/"

// Deps are the services the HTTP API is built from
type Deps struct {
	Service      *handler.LiveService
	Settings     *config.ProviderConfig
	Logs         handler.LoggerInterface
	APIKey       string
	AuditEnabled bool
}

// Routes mounts /health, the gateway callbacks and the authenticated /v1 API
func Routes(r chi.Router, d Deps) {
	paymentHandler := handler.NewPaymentHandler(d.Service)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "Not Found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
	})

	var stats handler.StatsSource
	if d.Settings != nil {
		stats = d.Settings
	}
	r.Get("/health", handler.NewHealthHandler(d.Service, stats, d.AuditEnabled).CheckHealth)

	h := v1.Handlers{
		Payment: paymentHandler,
		Config:  handler.NewConfigHandler(d.Settings, d.Service),
	}
	if d.Logs != nil {
		h.Logs = handler.NewLogsHandler(d.Logs)
	}

	r.Route("/v1", func(r chi.Router) {
		v1.CallbackRoutes(r, paymentHandler)

		r.Group(func(r chi.Router) {
			r.Use(middle.AuthMiddleware(d.APIKey))
			v1.Routes(r, h)
		})
	})
}
