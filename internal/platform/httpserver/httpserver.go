// Package httpserver constructs the process's http.Server with timeouts
// derived from configuration.
package httpserver

import (
	"net/http"
	"time"
)

// writeSlack pads the server write timeout past the per-request deadline so
// the timeout middleware can still render its 504 before the connection drops.
const writeSlack = 5 * time.Second

// New builds the HTTP server. Per-request deadlines belong to the timeout
// middleware; the server-level timeouts only bound slow or stuck clients.
func New(addr string, handler http.Handler, requestTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      requestTimeout + writeSlack,
		IdleTimeout:       2 * time.Minute,
	}
}
