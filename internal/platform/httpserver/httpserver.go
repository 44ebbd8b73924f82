// Package httpserver builds the http.Server the wiki API runs on.
package httpserver

import (
	"net/http"
	"time"
)

// Article bodies are small text documents, so the read and write windows
// can stay tight; idle keep-alive connections are given longer.
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 2 * time.Minute
)

// New returns a server with timeouts suited to the wiki's request shapes.
// Per-request deadlines beyond these are the middleware's job.
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
