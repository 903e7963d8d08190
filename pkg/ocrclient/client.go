package ocrclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"
)

type Client struct {
	http     *http.Client
	endpoint *url.URL
	mutex    sync.Mutex
}

var logger = logrus.StandardLogger().WithField("package", "ocr_client")

// Process sends an image to the OCR API and decodes the recognized blocks.
func (c *Client) Process(ctx context.Context, f io.Reader, contentType string) (*OcrResult, error) {
	// The OCR API handles one image at a time.
	c.mutex.Lock()
	defer c.mutex.Unlock()
	ocrUrl, err := c.endpoint.Parse("/api/v1/ocr")
	if err != nil {
		return nil, fmt.Errorf("unable to parse URL: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ocrUrl.String(), f)
	if err != nil {
		return nil, fmt.Errorf("unable to create request: %w", err)
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}
	req.Header.Set("Content-Type", contentType)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to perform HTTP request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", res.Status)
	}

	var ocrResult OcrResult
	if err := json.NewDecoder(res.Body).Decode(&ocrResult); err != nil {
		return nil, fmt.Errorf("unable to decode OCR result: %w", err)
	}
	logger.Debugf("OCR returned %d text blocks and %d barcodes", len(ocrResult.TextBlocks), len(ocrResult.Barcodes))
	return &ocrResult, nil
}

// Healthz checks if the OCR service is healthy and returns true if it is.
func (c *Client) Healthz(ctx context.Context) (bool, error) {
	healthEndpoint, err := c.endpoint.Parse("/healthz")
	if err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthEndpoint.String(), nil)
	if err != nil {
		return false, err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()
	return res.StatusCode == http.StatusOK, nil
}

func New(endpoint string) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("scheme %s is not supported", u.Scheme)
	}

	return &Client{
		endpoint: u,
		http:     &http.Client{Transport: http.DefaultTransport},
	}, nil
}

func (c *Client) SetHttpTransport(transport http.RoundTripper) {
	c.http.Transport = transport
}
