package middle

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/mstgnz/nepalpay/infra/logger"
	"github.com/mstgnz/nepalpay/infra/response"
	"github.com/mstgnz/nepalpay/provider"
)

// PanicRecoveryMiddleware handles panics and converts them to HTTP 500 errors
func PanicRecoveryMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				requestID := provider.RequestIDFrom(r.Context())
				if requestID == "" {
					requestID = "unknown"
				}

				logger.Error("Panic recovered", fmt.Errorf("%v", rec), logger.LogContext{
					RequestID: requestID,
					Fields: map[string]any{
						"method": r.Method,
						"url":    r.URL.Path,
						"stack":  string(debug.Stack()),
					},
				})

				w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
				w.Header().Set("Pragma", "no-cache")
				w.Header().Set("Expires", "0")

				response.Error(w, http.StatusInternalServerError, "Internal server error", fmt.Errorf("an unexpected error occurred"))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
