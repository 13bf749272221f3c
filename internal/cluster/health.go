package cluster

import (
	"fmt"
	"net/http"
)

// NewBasicHealthHandler returns a liveness check handler: the process is up
// and the HTTP server answers. Consul polls this endpoint.
func NewBasicHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "Service is alive.")
	}
}
