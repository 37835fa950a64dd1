package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"taskhub/pkg/requestcontext"
)

// Header carries the correlation ID between services and back to callers.
const Header = "X-Request-ID"

// RequestID assigns a correlation ID to every request, honoring one supplied
// by the caller so IDs survive service hops. The ID is echoed on the response
// and available to handlers via requestcontext.RequestID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(Header)
		if reqID == "" {
			reqID = uuid.NewString()
		}

		w.Header().Set(Header, reqID)
		ctx := requestcontext.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
