package httpserver

import (
	"net/http"
	"time"
)

// Timeouts sized for the registry API: small JSON bodies in, small JSON
// bodies out, nothing streams. The write timeout exceeds the 30s handler
// timeout so the middleware deadline fires first and the client still gets
// its error envelope.
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second
	writeTimeout      = 35 * time.Second
	idleTimeout       = 90 * time.Second
)

// New builds the registry HTTP server.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}
