package middle

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/mstgnz/nepalpay/provider"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 128

// RequestIDMiddleware reuses a caller supplied X-Request-ID or generates one,
// echoes it on the response and attaches it to the request context so the
// payment service records it in audit logs and events.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if requestID == "" || len(requestID) > maxRequestIDLength {
				requestID = uuid.New().String()
			}

			w.Header().Set(RequestIDHeader, requestID)
			next.ServeHTTP(w, r.WithContext(provider.WithRequestID(r.Context(), requestID)))
		})
	}
}
