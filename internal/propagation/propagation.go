// Package propagation forwards caller identity across service boundaries.
//
// An allow-listed subset of inbound request headers is captured once per
// request and re-attached to every outbound inter-service call, so the
// membership check and the audit write downstream see the same caller as the
// original request. Headers outside the allow-list never leave this process.
package propagation

import (
	"net/http"

	pstrings "taskhub/pkg/platform/strings"
	"taskhub/pkg/requestcontext"
)

// AllowList is the fixed set of header names eligible for forwarding.
// Built once at startup from configuration; read-only afterwards.
type AllowList struct {
	names []string
}

// NewAllowList canonicalizes, trims, and dedupes the configured header names.
func NewAllowList(names []string) AllowList {
	cleaned := pstrings.DedupeAndTrim(names)
	canonical := make([]string, 0, len(cleaned))
	seen := make(map[string]struct{}, len(cleaned))
	for _, n := range cleaned {
		c := http.CanonicalHeaderKey(n)
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		canonical = append(canonical, c)
	}
	return AllowList{names: canonical}
}

// Names returns the canonicalized header names, in configuration order.
func (a AllowList) Names() []string {
	return append([]string(nil), a.names...)
}

// Snapshot copies the allow-listed headers present in inbound. Missing
// headers are simply absent from the result, never an error.
func (a AllowList) Snapshot(inbound http.Header) http.Header {
	out := make(http.Header, len(a.names))
	for _, name := range a.names {
		if values, ok := inbound[name]; ok && len(values) > 0 {
			out[name] = append([]string(nil), values...)
		}
	}
	return out
}

// Capture is middleware that snapshots the allow-listed inbound headers into
// the request context for outbound forwarding.
func Capture(allowList AllowList) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snapshot := allowList.Snapshot(r.Header)
			ctx := requestcontext.WithPropagatedHeaders(r.Context(), snapshot)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Forward attaches the headers captured in the request context to req. A
// header the caller already set explicitly on req is never overwritten.
// Deterministic: the same context and request always yield the same headers.
func Forward(req *http.Request) {
	captured := requestcontext.PropagatedHeaders(req.Context())
	for name, values := range captured {
		if _, exists := req.Header[name]; exists {
			continue
		}
		req.Header[name] = append([]string(nil), values...)
	}
}

// Transport is an http.RoundTripper that applies Forward to every outbound
// request. Wrap the base transport of any client calling a peer service.
type Transport struct {
	Base http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Per RoundTripper contract the request must not be mutated; clone first.
	out := req.Clone(req.Context())
	Forward(out)

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(out)
}
