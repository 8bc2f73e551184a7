package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/docegestao/docegestao/internal/logger"
)

const headerRequestID = "X-Request-ID"

// RequestID tags every request with an id for log correlation. A caller
// may supply its own via X-Request-ID; otherwise a fresh UUID is minted.
// The id travels in the request context and is echoed on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}

		ctx := logger.WithRequestID(r.Context(), id)
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
