package transport

import (
	"context"
	"encoding/json"
	"net/http"

	apperrors "github.com/jrsteele09/netop-connector/internal/errors"
	"github.com/pkg/errors"
)

// Request describes one outbound partner API call. Body, when non-nil, is sent
// JSON encoded.
type Request struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    any
}

// WithHeader returns a copy of r with the header set. The receiver is not modified.
func (r Request) WithHeader(key, value string) Request {
	headers := make(map[string]string, len(r.Headers)+1)
	for k, v := range r.Headers {
		headers[k] = v
	}
	headers[key] = value
	r.Headers = headers
	return r
}

// Response is the outcome of a Request that reached the server, whatever its status.
type Response struct {
	Method string
	URL    string
	Status int
	Header http.Header
	Body   []byte
}

// JSON decodes the response body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return errors.Wrapf(err, "[Response JSON] decoding %s %s", r.Method, r.URL)
	}
	return nil
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status <= 299
}

// ThrowForStatus returns an UpstreamError for any non-2xx status.
func (r *Response) ThrowForStatus() error {
	if r.OK() {
		return nil
	}
	return r.UpstreamError("")
}

// UpstreamError builds an UpstreamError from this response, whatever its status.
func (r *Response) UpstreamError(reason string) *apperrors.UpstreamError {
	return &apperrors.UpstreamError{
		Method: r.Method,
		URL:    r.URL,
		Status: r.Status,
		Body:   string(r.Body),
		Reason: reason,
	}
}

// Requester is the HTTP capability the connector depends on. Implementations
// return a Response for every status code and an error only when no response
// was received.
type Requester interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// RequesterFunc adapts a function to a Requester.
type RequesterFunc func(ctx context.Context, req Request) (*Response, error)

func (f RequesterFunc) Do(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
