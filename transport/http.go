package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPTransport POSTs a JSON array of records to a configured
// endpoint. 2xx is success; 4xx other than 429 is permanent (not
// retried); 429, 5xx, and network errors are retryable.
type HTTPTransport struct {
	*BatchTransport
	url     string
	headers map[string]string
	client  *http.Client
}

// HTTPOptions configures an HTTPTransport.
type HTTPOptions struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
	Batch   BatchConfig
	Client  *http.Client
}

func NewHTTPTransport(opts HTTPOptions) *HTTPTransport {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	h := &HTTPTransport{url: opts.URL, headers: opts.Headers, client: client}
	h.BatchTransport = NewBatchTransport("http", SenderFunc(h.send), opts.Batch)
	return h
}

func (h *HTTPTransport) Name() string { return "http" }

func (h *HTTPTransport) send(ctx context.Context, batch []Record) error {
	body, err := json.Marshal(toWireBatch(batch))
	if err != nil {
		return &PermanentError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return &PermanentError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Connection", "keep-alive")
	for k, v := range h.headers {
		req.Header.Set(k, v)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return err // network errors are retryable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("http transport: rate limited (429)")
	case resp.StatusCode >= 500:
		return fmt.Errorf("http transport: server error (%d)", resp.StatusCode)
	default:
		return &PermanentError{Err: fmt.Errorf("http transport: non-retryable status %d", resp.StatusCode)}
	}
}

type wireRecord struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Namespace string         `json:"namespace,omitempty"`
	Runtime   string         `json:"runtime,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
	Error     map[string]any `json:"error,omitempty"`
}

func toWireBatch(batch []Record) []wireRecord {
	out := make([]wireRecord, len(batch))
	for i, r := range batch {
		out[i] = wireRecord{
			Timestamp: r.Timestamp,
			Level:     levelName(r.Level),
			Message:   r.Message,
			Namespace: r.Namespace,
			Runtime:   r.Runtime,
			Metadata:  r.Metadata,
			Context:   r.Context,
			Error:     r.Error,
		}
	}
	return out
}
