package client

import (
	"crypto/tls"
	"crypto/x509"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// Option tweaks the HTTP client handed to network power backends.
type Option func(client *http.Client)

// NewClient() creates an HTTP client for PDU requests. The transport does
// not keep idle connections around since most PDUs only handle a handful
// of concurrent sessions.
func NewClient(opts ...Option) *http.Client {
	client := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig:   &tls.Config{},
			DisableKeepAlives: true,
			Dial: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).Dial,
			TLSHandshakeTimeout:   30 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// WithTimeout sets the overall request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(client *http.Client) {
		client.Timeout = timeout
	}
}

// WithInsecure disables certificate verification; many PDUs ship with
// self-signed certificates.
func WithInsecure(insecure bool) Option {
	return func(client *http.Client) {
		if transport, ok := client.Transport.(*http.Transport); ok {
			transport.TLSClientConfig.InsecureSkipVerify = insecure
		}
	}
}

func WithCertPool(certPool *x509.CertPool) Option {
	// make sure we have a valid cert pool
	if certPool == nil {
		return func(client *http.Client) {}
	}
	return func(client *http.Client) {
		transport, ok := client.Transport.(*http.Transport)
		if !ok {
			log.Warn().Msg("invalid internal HTTP transport, not setting cert pool")
			return
		}
		transport.TLSClientConfig.RootCAs = certPool
	}
}

func WithSecureTLS(certPath string) Option {
	if certPath == "" {
		return func(client *http.Client) {}
	}
	cacert, err := os.ReadFile(certPath)
	if err != nil {
		log.Warn().Err(err).Str("path", certPath).Msg("failed to read CA cert, using system CAs")
		return func(client *http.Client) {}
	}
	certPool := x509.NewCertPool()
	certPool.AppendCertsFromPEM(cacert)
	return WithCertPool(certPool)
}
