// Package consumer provides the base for typed REST API clients. A Consumer
// maps the endpoints of one resource onto Go values: it builds URLs from an
// endpoint and a path, merges default and per call parameters and headers,
// adds a CSRF token on unsafe methods and decodes JSON responses into objects
// that keep a reference to the Consumer they came from.
package consumer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/KarpelesLab/pjson"
	"github.com/google/uuid"
)

var (
	// Debug enables verbose logging of requests and responses
	Debug = false
)

const (
	DefaultCSRFHeader = "X-CSRF-Token"
	DefaultCSRFCookie = "csrftoken"
)

// Consumer issues requests against one API resource root and decodes the
// responses into *T. The zero value is usable once SetEndpoint was called.
type Consumer[T any, PT Target[T]] struct {
	endpoint          string
	defaultParameters Params
	defaultHeaders    http.Header
	customHeaders     http.Header
	csrfHeader        string
	csrfCookie        string
	cookies           CookieFunc
	transport         Transport
	logger            *slog.Logger

	id     uuid.UUID
	idOnce sync.Once
	lk     sync.RWMutex
}

// Option configures a Consumer.
type Option func(*options)

type options struct {
	defaultParameters Params
	defaultHeaders    http.Header
	csrfHeader        string
	csrfCookie        string
	cookies           CookieFunc
	transport         Transport
	logger            *slog.Logger
}

// WithDefaultParameters sets the query parameters added to every GET and DELETE.
func WithDefaultParameters(p Params) Option {
	return func(o *options) {
		o.defaultParameters = append(Params(nil), p...)
	}
}

// WithDefaultHeaders sets headers sent with every request.
func WithDefaultHeaders(h map[string]string) Option {
	return func(o *options) {
		for k, v := range h {
			o.defaultHeaders.Set(k, v)
		}
	}
}

// WithCSRF overrides the header and cookie names used for the CSRF token.
// Empty values keep the defaults.
func WithCSRF(header, cookie string) Option {
	return func(o *options) {
		if header != "" {
			o.csrfHeader = header
		}
		if cookie != "" {
			o.csrfCookie = cookie
		}
	}
}

// WithCookies sets where the CSRF token cookie is read from.
func WithCookies(f CookieFunc) Option {
	return func(o *options) {
		o.cookies = f
	}
}

// WithTransport sets the Transport used to send requests.
func WithTransport(t Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// WithLogger sets the logger used when Debug is enabled.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// New returns a Consumer for endpoint decoding responses into *T.
//
//	type Post struct {
//	    consumer.Object
//	    Title string `json:"title"`
//	}
//
//	posts := consumer.New[Post]("http://example.com/api")
//	res, err := posts.Get(ctx, "/posts/1", nil)
//
// Without options requests go through DefaultTransport, and CSRF tokens set
// as cookies by the server are read back from DefaultJar. A Consumer given its
// own Transport also needs WithCookies for the CSRF header to be sent.
func New[T any, PT Target[T]](endpoint string, opts ...Option) *Consumer[T, PT] {
	c := &Consumer[T, PT]{}
	c.SetEndpoint(endpoint)
	c.Configure(opts...)
	return c
}

// SetEndpoint sets the resource root. Types wrapping a Consumer call it from
// their own constructor.
func (c *Consumer[T, PT]) SetEndpoint(endpoint string) {
	c.endpoint = endpoint
}

// Configure applies options. It is meant to be called before any request.
func (c *Consumer[T, PT]) Configure(opts ...Option) {
	o := &options{
		defaultParameters: c.defaultParameters,
		defaultHeaders:    c.defaultHeaders,
		csrfHeader:        c.csrfHeader,
		csrfCookie:        c.csrfCookie,
		cookies:           c.cookies,
		transport:         c.transport,
		logger:            c.logger,
	}
	if o.defaultHeaders == nil {
		o.defaultHeaders = make(http.Header)
	}
	for _, opt := range opts {
		opt(o)
	}

	c.defaultParameters = o.defaultParameters
	c.defaultHeaders = o.defaultHeaders
	c.csrfHeader = o.csrfHeader
	c.csrfCookie = o.csrfCookie
	c.cookies = o.cookies
	c.transport = o.transport
	c.logger = o.logger
}

func (c *Consumer[T, PT]) Endpoint() string {
	return c.endpoint
}

// ID identifies this Consumer in logs.
func (c *Consumer[T, PT]) ID() uuid.UUID {
	c.idOnce.Do(func() { c.id = uuid.New() })
	return c.id
}

func (c *Consumer[T, PT]) DefaultParameters() Params {
	return append(Params(nil), c.defaultParameters...)
}

func (c *Consumer[T, PT]) CSRFHeader() string {
	if c.csrfHeader == "" {
		return DefaultCSRFHeader
	}
	return c.csrfHeader
}

func (c *Consumer[T, PT]) CSRFCookie() string {
	if c.csrfCookie == "" {
		return DefaultCSRFCookie
	}
	return c.csrfCookie
}

// AddHeader sets a header sent with every following request. Custom headers
// override default headers of the same name; the last call for a name wins.
func (c *Consumer[T, PT]) AddHeader(name, value string) {
	c.lk.Lock()
	defer c.lk.Unlock()

	if c.customHeaders == nil {
		c.customHeaders = make(http.Header)
	}
	c.customHeaders.Set(name, value)
}

// GetCookie reads a cookie through the configured CookieFunc, or from
// DefaultJar when neither a CookieFunc nor a Transport was set. It returns an
// empty string when the cookie is missing.
func (c *Consumer[T, PT]) GetCookie(name string) string {
	cookies := c.cookies
	if cookies == nil {
		if c.transport != nil {
			return ""
		}
		cookies = JarCookies(DefaultJar, c.endpoint)
	}
	v, ok := cookies(name)
	if !ok {
		return ""
	}
	return v
}

// URL returns endpoint + path followed by the merged query string.
func (c *Consumer[T, PT]) URL(path string, params Params) string {
	u := c.endpoint + path
	q := params.merge(c.defaultParameters).Encode()
	if q == "" {
		return u
	}
	if strings.Contains(path, "?") {
		return u + "&" + q
	}
	return u + "?" + q
}

// Header returns the headers for a request using method: defaults, then
// extra, then custom headers, then the CSRF token for unsafe methods.
func (c *Consumer[T, PT]) Header(method string, extra http.Header) http.Header {
	h := c.defaultHeaders.Clone()
	if h == nil {
		h = make(http.Header)
	}
	for k, v := range extra {
		h[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
	}

	c.lk.RLock()
	maps.Copy(h, c.customHeaders.Clone())
	c.lk.RUnlock()

	if !isSafeMethod(method) {
		if token := c.GetCookie(c.CSRFCookie()); token != "" {
			h.Set(c.CSRFHeader(), token)
		}
	}
	return h
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}

// Get requests path with params merged into the query string.
func (c *Consumer[T, PT]) Get(ctx context.Context, path string, params Params) (*Result[T], error) {
	return c.Apply(ctx, http.MethodGet, path, params, nil)
}

// Delete requests path with params merged into the query string.
func (c *Consumer[T, PT]) Delete(ctx context.Context, path string, params Params) (*Result[T], error) {
	return c.Apply(ctx, http.MethodDelete, path, params, nil)
}

// Post sends body encoded as JSON.
func (c *Consumer[T, PT]) Post(ctx context.Context, path string, body any) (*Result[T], error) {
	return c.Apply(ctx, http.MethodPost, path, nil, body)
}

// Put sends body encoded as JSON.
func (c *Consumer[T, PT]) Put(ctx context.Context, path string, body any) (*Result[T], error) {
	return c.Apply(ctx, http.MethodPut, path, nil, body)
}

// Patch sends body encoded as JSON.
func (c *Consumer[T, PT]) Patch(ctx context.Context, path string, body any) (*Result[T], error) {
	return c.Apply(ctx, http.MethodPatch, path, nil, body)
}

// Apply runs a request and decodes the response into objects bound to c.
func (c *Consumer[T, PT]) Apply(ctx context.Context, method, path string, params Params, body any) (*Result[T], error) {
	res, err := c.Do(ctx, method, path, params, body)
	if err != nil {
		return nil, err
	}
	out, err := c.wrap(ctx, res)
	if err != nil && Debug {
		c.log().ErrorContext(ctx, fmt.Sprintf("failed to parse json: %s\n%s", err, res.Body), "event", "consumer:not_json", "consumer:id", c.ID())
	}
	return out, err
}

// Do sends a request and returns the raw response. Params go in the query
// string for GET and DELETE, body is sent as JSON for the other methods.
// Responses outside of 2xx are returned as *HttpError.
func (c *Consumer[T, PT]) Do(ctx context.Context, method, path string, params Params, body any) (*Response, error) {
	if c.endpoint == "" {
		return nil, &ConfigurationError{Field: "endpoint"}
	}

	req := &Request{Method: method}

	extra := requestHeaders(ctx)
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		req.URL = c.URL(path, params)
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		req.URL = c.endpoint + path
		if body != nil {
			data, err := pjson.MarshalContext(ctx, body)
			if err != nil {
				return nil, fmt.Errorf("failed to encode request body: %w", err)
			}
			req.Body = data
			if extra.Get("Content-Type") == "" {
				extra.Set("Content-Type", "application/json")
			}
		}
	default:
		return nil, fmt.Errorf("invalid request method %s", method)
	}
	req.Header = c.Header(method, extra)

	return c.send(ctx, req)
}

func (c *Consumer[T, PT]) send(ctx context.Context, req *Request) (*Response, error) {
	ctx, span := startSpan(ctx, req)
	defer span.End()
	injectTraceparent(ctx, req.Header)

	transport := c.transport
	if transport == nil {
		transport = DefaultTransport
	}

	t := time.Now()
	res, err := transport.Send(ctx, req)
	if err != nil {
		endSpan(span, 0, err)
		return nil, &TransportError{Method: req.Method, URL: req.URL, Err: err}
	}

	if Debug {
		d := time.Since(t)
		c.log().DebugContext(ctx, fmt.Sprintf("[consumer] %s %s => %d %s", req.Method, req.URL, res.StatusCode, d), "event", "consumer:request", "consumer:id", c.ID(), "consumer:method", req.Method, "consumer:url", req.URL, "consumer:status", res.StatusCode, "consumer:duration", d)
	}

	if !res.OK() {
		err := &HttpError{Code: res.StatusCode, Body: res.Body, Response: res}
		if Debug {
			c.log().DebugContext(ctx, fmt.Sprintf("[consumer] %s %s failed with HTTP %d", req.Method, req.URL, res.StatusCode), "event", "consumer:http_error", "consumer:id", c.ID(), "consumer:status", res.StatusCode, "consumer:message", err.Message())
		}
		endSpan(span, res.StatusCode, err)
		return nil, err
	}
	endSpan(span, res.StatusCode, nil)
	return res, nil
}

// wrap decodes a JSON object or array of objects into *T values bound to c.
func (c *Consumer[T, PT]) wrap(ctx context.Context, res *Response) (*Result[T], error) {
	body := res.Body
	data := bytes.TrimSpace(body)
	if len(data) == 0 {
		return &Result[T]{}, nil
	}

	switch data[0] {
	case '[':
		var raw []json.RawMessage
		if err := res.ApplyContext(ctx, &raw); err != nil {
			return nil, &DecodeError{Body: body, Err: err}
		}
		out := &Result[T]{Items: make([]*T, 0, len(raw)), Array: true}
		for _, elem := range raw {
			obj, err := c.object(ctx, elem)
			if err != nil {
				return nil, &DecodeError{Body: body, Err: err}
			}
			out.Items = append(out.Items, obj)
		}
		return out, nil
	case '{':
		obj, err := c.object(ctx, data)
		if err != nil {
			return nil, &DecodeError{Body: body, Err: err}
		}
		return &Result[T]{Items: []*T{obj}}, nil
	default:
		return nil, &DecodeError{Body: body, Err: ErrNotJSON}
	}
}

func (c *Consumer[T, PT]) object(ctx context.Context, data []byte) (*T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, ErrNotJSON
	}
	obj := PT(new(T))
	if err := pjson.UnmarshalContext(ctx, data, obj); err != nil {
		return nil, err
	}
	// bind last so payload fields can never replace the reference
	obj.BindConsumer(c)
	return (*T)(obj), nil
}

func (c *Consumer[T, PT]) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}
