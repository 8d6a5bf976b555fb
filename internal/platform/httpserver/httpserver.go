package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with defaults sized for a session gateway:
// requests are small JSON bodies, so short header and write deadlines are
// safe and protect against slow-client exhaustion.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
