// Package httpkit builds pooled HTTP clients shared by the model-backend
// client packages (sttclient, alignclient, phonemeclient, llmannotate), so
// concurrent jobs never pay per-request TLS/TCP setup cost against the same
// backend.
package httpkit

import (
	"net/http"
	"time"
)

// Pool holds the tuning knobs for a pooled client.
type Pool struct {
	Size    int
	Timeout time.Duration
}

// NewPooledClient builds an *http.Client with connection pooling and tuned
// transport, safe for concurrent use across worker goroutines.
func NewPooledClient(p Pool) *http.Client {
	return &http.Client{
		Timeout: p.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:          p.Size,
			MaxIdleConnsPerHost:   p.Size,
			IdleConnTimeout:       90 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			ForceAttemptHTTP2:     true,
		},
	}
}

// Default returns a pooled client with 20 idle connections and a 30s
// timeout.
func Default() *http.Client {
	return NewPooledClient(Pool{Size: 20, Timeout: 30 * time.Second})
}
