package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeJSON = "application/json"
	requestIDHeader = "X-Request-Id"
)

// HTTPRequester implements Requester over net/http.
type HTTPRequester struct {
	client    *http.Client
	userAgent string
}

// HTTPRequesterOption defines a function type to modify the HTTPRequester instance.
type HTTPRequesterOption func(*HTTPRequester)

// WithHTTPClient replaces the underlying client (tests use httptest clients).
func WithHTTPClient(client *http.Client) HTTPRequesterOption {
	return func(h *HTTPRequester) {
		h.client = client
	}
}

func WithUserAgent(userAgent string) HTTPRequesterOption {
	return func(h *HTTPRequester) {
		h.userAgent = userAgent
	}
}

// NewHTTPRequester returns a Requester with the given per-request timeout.
func NewHTTPRequester(timeout time.Duration, options ...HTTPRequesterOption) *HTTPRequester {
	h := &HTTPRequester{
		client: &http.Client{Timeout: timeout},
	}
	for _, opt := range options {
		opt(h)
	}
	return h
}

// Do sends req. The partner API rejects requests without a JSON Content-Type,
// GETs included, so it is always set.
func (h *HTTPRequester) Do(ctx context.Context, req Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, errors.Wrapf(err, "[HTTPRequester Do] encoding body for %s %s", req.Method, req.URL)
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, errors.Wrap(err, "[HTTPRequester Do] building request")
	}

	requestID := uuid.New().String()
	httpReq.Header.Set("Content-Type", contentTypeJSON)
	httpReq.Header.Set("Accept", contentTypeJSON)
	httpReq.Header.Set(requestIDHeader, requestID)
	if h.userAgent != "" {
		httpReq.Header.Set("User-Agent", h.userAgent)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	httpResp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "[HTTPRequester Do] %s %s", req.Method, req.URL)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "[HTTPRequester Do] reading response of %s %s", req.Method, req.URL)
	}

	log.Debug().
		Str("method", req.Method).
		Str("url", req.URL).
		Str("request_id", requestID).
		Int("status", httpResp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("partner request")

	return &Response{
		Method: req.Method,
		URL:    req.URL,
		Status: httpResp.StatusCode,
		Header: httpResp.Header,
		Body:   respBody,
	}, nil
}
