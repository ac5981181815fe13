package consumer

import (
	"context"
	"net/http"
)

type headerValue int

type withHeaders struct {
	context.Context
	header http.Header
}

func (w *withHeaders) Value(v any) any {
	if _, ok := v.(headerValue); ok {
		return w.header
	}

	return w.Context.Value(v)
}

// WithHeaders returns a context carrying headers for the requests made with
// it. They override default headers but not the ones set with AddHeader.
// Nested calls accumulate, the innermost value winning.
func WithHeaders(ctx context.Context, h http.Header) context.Context {
	merged := requestHeaders(ctx)
	for k, v := range h {
		merged[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
	}
	return &withHeaders{ctx, merged}
}

// requestHeaders returns a copy of the headers attached to ctx, never nil.
func requestHeaders(ctx context.Context) http.Header {
	if h, ok := ctx.Value(headerValue(0)).(http.Header); ok && h != nil {
		return h.Clone()
	}
	return make(http.Header)
}
