package consumer

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"sync"

	"github.com/KarpelesLab/pjson"
)

// Request is what a Consumer hands to its Transport.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is the raw message returned by a Transport.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	dataParsed any
	dataError  error
	dataParse  sync.Once
}

// OK reports whether the status code is in the 2xx range.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ApplyContext decodes the body into v.
func (r *Response) ApplyContext(ctx context.Context, v any) error {
	return pjson.UnmarshalContext(ctx, r.Body, v)
}

// Value returns the body decoded as generic JSON. The result is cached.
func (r *Response) Value() (any, error) {
	r.dataParse.Do(func() {
		r.dataError = pjson.Unmarshal(r.Body, &r.dataParsed)
	})
	return r.dataParsed, r.dataError
}

// Lookup walks the decoded body along a slash separated path of object keys.
// Empty segments are skipped, a missing key yields fs.ErrNotExist.
func (r *Response) Lookup(path string) (any, error) {
	node, err := r.Value()
	if err != nil {
		return nil, err
	}
	for key := range strings.SplitSeq(path, "/") {
		if key == "" {
			continue
		}
		obj, ok := node.(map[string]any)
		if !ok {
			return nil, fs.ErrNotExist
		}
		if node, ok = obj[key]; !ok {
			return nil, fs.ErrNotExist
		}
	}
	return node, nil
}

// LookupString is Lookup for values that must be JSON strings.
func (r *Response) LookupString(path string) (string, error) {
	node, err := r.Lookup(path)
	if err != nil {
		return "", err
	}
	if s, ok := node.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("%s: expected a string, got %T", path, node)
}
