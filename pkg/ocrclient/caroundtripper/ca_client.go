package caroundtripper

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
)

var _ http.RoundTripper = (*Client)(nil)

type Client struct {
	transport *http.Transport
}

func (c Client) RoundTrip(request *http.Request) (*http.Response, error) {
	return c.transport.RoundTrip(request)
}

// New creates a round tripper that only trusts the CA certificates
// in the PEM bundle at caPath.
func New(caPath string) (*Client, error) {
	caBytes, err := os.ReadFile(caPath)
	if err != nil {
		return nil, err
	}

	certPool := x509.NewCertPool()
	if !certPool.AppendCertsFromPEM(caBytes) {
		return nil, fmt.Errorf("no CERTIFICATE block found in %s", caPath)
	}

	t := http.Transport{
		TLSClientConfig: &tls.Config{
			RootCAs:    certPool,
			MinVersion: tls.VersionTLS12,
		},
		ForceAttemptHTTP2: true,
	}

	return &Client{
		transport: &t,
	}, nil
}
