package transportfake

import (
	"context"
	"fmt"
	"sync"

	"github.com/jrsteele09/netop-connector/transport"
)

var _ transport.Requester = (*FakeRequester)(nil)

// Responder produces the response for a routed request.
type Responder func(req transport.Request) (*transport.Response, error)

// FakeRequester routes requests by "METHOD URL" to canned responders and
// records every call in order.
type FakeRequester struct {
	routes map[string]Responder
	calls  []transport.Request
	lock   sync.Mutex
}

func NewFakeRequester() *FakeRequester {
	return &FakeRequester{
		routes: make(map[string]Responder),
	}
}

// On registers a responder for method and url, replacing any previous one.
func (f *FakeRequester) On(method, url string, responder Responder) *FakeRequester {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.routes[method+" "+url] = responder
	return f
}

// Reply registers a fixed status and body for method and url.
func (f *FakeRequester) Reply(method, url string, status int, body string) *FakeRequester {
	return f.On(method, url, func(req transport.Request) (*transport.Response, error) {
		return Respond(req, status, body), nil
	})
}

func (f *FakeRequester) Do(_ context.Context, req transport.Request) (*transport.Response, error) {
	f.lock.Lock()
	f.calls = append(f.calls, req)
	responder, ok := f.routes[req.Method+" "+req.URL]
	f.lock.Unlock()
	if !ok {
		return nil, fmt.Errorf("no fake route for %s %s", req.Method, req.URL)
	}
	return responder(req)
}

// Calls returns a copy of the recorded requests.
func (f *FakeRequester) Calls() []transport.Request {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]transport.Request(nil), f.calls...)
}

// Respond builds a Response for req.
func Respond(req transport.Request, status int, body string) *transport.Response {
	return &transport.Response{
		Method: req.Method,
		URL:    req.URL,
		Status: status,
		Body:   []byte(body),
	}
}
