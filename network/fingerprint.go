package network

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

const dialTimeout = 30 * time.Second

var (
	fingerprinted     *http.Client
	fingerprintedOnce sync.Once
)

// Fingerprinted returns a client whose TLS handshake mimics Chrome 120.
// Some thumbnail CDNs reject the Go TLS fingerprint outright.
// HTTP/2 is tried first, servers that only speak HTTP/1.1 are retried over a forced h1 connection.
func Fingerprinted() *http.Client {
	fingerprintedOnce.Do(func() {
		fingerprinted = &http.Client{
			Timeout:   time.Minute,
			Transport: newFingerprintTransport(),
		}
	})
	return fingerprinted
}

type fingerprintTransport struct {
	h2    *http2.Transport
	h1    *http.Transport
	plain http.RoundTripper
}

func newFingerprintTransport() *fingerprintTransport {
	return &fingerprintTransport{
		h2: &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialTLS(ctx, network, addr, nil)
			},
		},
		h1: &http.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialTLS(ctx, network, addr, []string{"http/1.1"})
			},
		},
		plain: newTransport(),
	}
}

// RoundTrip sends https requests through the Chrome fingerprint.
// Only requests without a body are retried on the h1 fallback.
func (t *fingerprintTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.plain.RoundTrip(req)
	}

	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}
	if req.Body != nil && req.Body != http.NoBody {
		return nil, err
	}

	return t.h1.RoundTrip(req.Clone(req.Context()))
}

// dialTLS creates a TLS connection with Chrome's client hello.
// Without protos both h2 and http/1.1 are advertised as Chrome does.
func dialTLS(ctx context.Context, network, addr string, protos []string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	config := &utls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
		NextProtos: protos,
	}

	spec := utls.HelloChrome_120
	if len(protos) > 0 {
		// a preset hello ignores NextProtos, so h1 only connections use a customized copy
		spec = utls.HelloCustom
	}

	tlsConn := utls.UClient(conn, config, spec)
	if spec == utls.HelloCustom {
		if err := applyChromeSpec(tlsConn, protos); err != nil {
			conn.Close()
			return nil, err
		}
	}

	if err := tlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}

// applyChromeSpec loads the Chrome 120 hello and rewrites its ALPN extension.
func applyChromeSpec(conn *utls.UConn, protos []string) error {
	spec, err := utls.UTLSIdToSpec(utls.HelloChrome_120)
	if err != nil {
		return fmt.Errorf("chrome spec: %w", err)
	}

	for _, ext := range spec.Extensions {
		if alpn, ok := ext.(*utls.ALPNExtension); ok {
			alpn.AlpnProtocols = protos
		}
	}

	if err := conn.ApplyPreset(&spec); err != nil {
		return fmt.Errorf("apply chrome spec: %w", err)
	}
	return nil
}
