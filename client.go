package consumer

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Transport sends a request and returns the raw response. Implementations
// return an error only when no response could be obtained; status codes are
// classified by the Consumer.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

func (f TransportFunc) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

var RestHttpTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   50,
	MaxConnsPerHost:       200,
	IdleConnTimeout:       90 * time.Second,
	ResponseHeaderTimeout: 90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 5 * time.Second,
}

var (
	// DefaultJar holds the cookies of DefaultTransport. Consumers without
	// WithTransport or WithCookies read their CSRF token from it.
	DefaultJar = NewJar()

	// DefaultTransport is used by consumers created without WithTransport.
	DefaultTransport Transport = NewHTTPTransport(DefaultJar)
)

// HTTPTransport is a Transport backed by net/http.
type HTTPTransport struct {
	Client *http.Client
	// MaxInFlight caps the number of concurrent requests when positive.
	MaxInFlight int

	slots     *semaphore.Weighted
	slotsOnce sync.Once
}

// NewHTTPTransport returns a transport on the shared connection pool. jar may
// be nil; pass the jar also given to JarCookies for the CSRF cookie to round trip.
func NewHTTPTransport(jar http.CookieJar) *HTTPTransport {
	return &HTTPTransport{
		Client: &http.Client{
			Transport: RestHttpTransport,
			Timeout:   120 * time.Second,
			Jar:       jar,
		},
	}
}

func (t *HTTPTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	if t.MaxInFlight > 0 {
		t.slotsOnce.Do(func() { t.slots = semaphore.NewWeighted(int64(t.MaxInFlight)) })
		if err := t.slots.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer t.slots.Release(1)
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	r, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}
	for k, v := range req.Header {
		r.Header[k] = v
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}
