package consumer

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithHeaders(t *testing.T) {
	base := context.Background()
	assert.Empty(t, requestHeaders(base))

	ctx := WithHeaders(base, http.Header{"x-a": {"1"}, "X-B": {"1"}})
	ctx = WithHeaders(ctx, http.Header{"X-B": {"2"}})

	h := requestHeaders(ctx)
	assert.Equal(t, "1", h.Get("X-A"))
	assert.Equal(t, "2", h.Get("X-B"))

	// callers get a copy
	h.Set("X-A", "changed")
	assert.Equal(t, "1", requestHeaders(ctx).Get("X-A"))

	type keyType string
	ctx = context.WithValue(ctx, keyType("k"), "v")
	assert.Equal(t, "v", ctx.Value(keyType("k")))
	assert.Equal(t, "2", requestHeaders(ctx).Get("X-B"))
}
