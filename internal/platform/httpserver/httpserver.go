// Package httpserver constructs the campaign service's HTTP server.
package httpserver

import (
	"net/http"
	"time"
)

// New wraps the router in a server with a bounded header read timeout so a
// stalled pledge client cannot hold a connection open indefinitely.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
