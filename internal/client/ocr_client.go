package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"plate-service/internal/config"
)

var ErrOCRNotConfigured = errors.New("OCR service URL is not configured")

const (
	recognizePath = "/internal/ocr/recognize"
	maxRetries    = 3
)

// OCRText is one text hypothesis returned by the OCR service. Confidence is
// on a 0..100 scale; nil means the engine did not report one.
type OCRText struct {
	Text       string   `json:"text"`
	Engine     string   `json:"engine"`
	Confidence *float64 `json:"confidence,omitempty"`
}

type ocrRequest struct {
	ImageBase64 string `json:"image_base64"`
}

type ocrResponse struct {
	Data []OCRText `json:"data"`
}

type OCRClient struct {
	baseURL       string
	internalToken string
	httpClient    *http.Client
	retryDelay    time.Duration
}

func NewOCRClient(cfg *config.Config) *OCRClient {
	timeout := cfg.OCR.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OCRClient{
		baseURL:       strings.TrimRight(cfg.OCR.ServiceURL, "/"),
		internalToken: cfg.OCR.InternalToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retryDelay: 500 * time.Millisecond,
	}
}

func (c *OCRClient) Configured() bool {
	return c.baseURL != ""
}

// Recognize sends a base64 encoded image to the OCR service and returns the
// text hypotheses it produced. Network errors are retried with a linear
// backoff; HTTP error statuses are not.
func (c *OCRClient) Recognize(ctx context.Context, imageBase64 string) ([]OCRText, error) {
	if c.baseURL == "" {
		return nil, ErrOCRNotConfigured
	}

	payload, err := json.Marshal(ocrRequest{ImageBase64: imageBase64})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	url := c.baseURL + recognizePath

	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		req, err := c.newRequest(ctx, url, payload)
		if err != nil {
			return nil, err
		}

		resp, lastErr = c.httpClient.Do(req)
		if lastErr == nil {
			break
		}
		if attempt == maxRetries-1 {
			return nil, fmt.Errorf("failed to execute request after %d attempts: %w", maxRetries, lastErr)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * c.retryDelay):
		}
	}
	if resp == nil {
		return nil, fmt.Errorf("failed to execute request: %w", lastErr)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OCR service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response ocrResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return response.Data, nil
}

func (c *OCRClient) newRequest(ctx context.Context, url string, payload []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.internalToken != "" {
		req.Header.Set("X-Internal-Token", c.internalToken)
	}
	return req, nil
}
