package middleware

import (
	"context"
	"net/http"
)

type routeKey struct{}

type routeHolder struct {
	pattern string
}

// RecordRoute wraps the ServeMux so outer middleware can read the matched
// route pattern after the request was served.
func RecordRoute(mux http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
		if holder, ok := r.Context().Value(routeKey{}).(*routeHolder); ok && r.Pattern != "" {
			holder.pattern = r.Pattern
		}
	})
}

// withRoute attaches a route holder to the request unless an outer middleware already did
func withRoute(r *http.Request) (*http.Request, *routeHolder) {
	if holder, ok := r.Context().Value(routeKey{}).(*routeHolder); ok {
		return r, holder
	}
	holder := &routeHolder{}
	return r.WithContext(context.WithValue(r.Context(), routeKey{}, holder)), holder
}

// route returns the matched pattern; unmatched requests share one label
func (h *routeHolder) route() string {
	if h.pattern == "" {
		return "unmatched"
	}
	return h.pattern
}
