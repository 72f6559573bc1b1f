package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. The write timeout leaves room for match
// discovery, which fans out distance lookups to an external provider.
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
