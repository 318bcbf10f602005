// Package network provides the HTTP clients used for thumbnail downloads.
package network

import (
	"net/http"
	"time"

	"github.com/spf13/viper"
	"github.com/vidra-player/vidra/key"
)

// Client is the HTTP client shared across the application.
var Client = &http.Client{
	Timeout:   time.Minute,
	Transport: newTransport(),
}

// newTransport initializes a tuned http.Transport with larger pools and bounded header waits.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 100
	t.MaxConnsPerHost = 200
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	t.ExpectContinueTimeout = 30 * time.Second
	return t
}

// Default returns the fingerprinted client when network.tls_fingerprint is set, Client otherwise.
func Default() *http.Client {
	if viper.GetBool(key.NetworkTLSFingerprint) {
		return Fingerprinted()
	}
	return Client
}
