// Package extractor is the HTTP adapter for the remote mood classification
// service. It uploads an audio asset and returns the raw prediction payload;
// normalization into the canonical record shape lives in core/ingest.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Shima-Rai/melixa/internal/core/ports"
)

// The classifier analyzes entire clips and can legitimately take tens of
// seconds per call; past this bound the call counts as unavailable.
const defaultTimeout = 120 * time.Second

// Client talks to the mood classification service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	logger     zerolog.Logger
}

var _ ports.Extractor = (*Client)(nil)

// NewClient constructs a Client for the given base URL. A nil httpClient
// falls back to http.DefaultClient.
func NewClient(httpClient *http.Client, baseURL string, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    defaultTimeout,
		logger:     logger.With().Str("component", "extractor").Logger(),
	}
}

// WithTimeout overrides the per-call extraction timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.timeout = d
	}
	return c
}

// Extract uploads the audio file at audioPath and decodes the prediction.
// Transport failures and timeouts surface as *ports.UnavailableError;
// explicit non-success responses as *ports.RejectedError.
func (c *Client) Extract(ctx context.Context, audioPath string) (ports.Prediction, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, contentType, err := encodeUpload(audioPath)
	if err != nil {
		return ports.Prediction{}, fmt.Errorf("extractor: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", body)
	if err != nil {
		return ports.Prediction{}, fmt.Errorf("extractor: build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ports.Prediction{}, &ports.UnavailableError{Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ports.Prediction{}, &ports.UnavailableError{Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ports.Prediction{}, &ports.RejectedError{
			Status: resp.StatusCode,
			Detail: rejectionDetail(raw),
		}
	}

	var pred ports.Prediction
	if err := json.Unmarshal(raw, &pred); err != nil {
		return ports.Prediction{}, &ports.RejectedError{
			Status: resp.StatusCode,
			Detail: fmt.Sprintf("undecodable prediction body: %v", err),
		}
	}
	pred.Raw = raw

	c.logger.Debug().
		Str("asset", filepath.Base(audioPath)).
		Str("mood", pred.Mood).
		Dur("took", time.Since(started)).
		Msg("prediction received")

	return pred, nil
}

// Health probes the service health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("extractor: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ports.UnavailableError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ports.RejectedError{Status: resp.StatusCode, Detail: "health check failed"}
	}
	return nil
}

// encodeUpload builds the multipart form body for a prediction request.
func encodeUpload(audioPath string) (*bytes.Buffer, string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("open audio asset: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", fmt.Errorf("encode upload: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("read audio asset: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("encode upload: %w", err)
	}

	return &buf, mw.FormDataContentType(), nil
}

// rejectionDetail pulls the service's error message out of a failure body.
// FastAPI-style services put it under "detail"; anything else is passed
// through truncated.
func rejectionDetail(raw []byte) string {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Detail != "" {
		return body.Detail
	}
	detail := strings.TrimSpace(string(raw))
	if len(detail) > 200 {
		detail = detail[:200]
	}
	return detail
}
