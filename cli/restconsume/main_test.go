package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/KarpelesLab/consumer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	p, err := parseParams("")
	require.NoError(t, err)
	assert.Empty(t, p)

	p, err = parseParams(`{"b":"2","a":1,"n":null}`)
	require.NoError(t, err)
	assert.Equal(t, "a=1&b=2&n=", p.Encode())

	p, err = parseParams("foo=bar&x=a+b")
	require.NoError(t, err)
	v, ok := p.Get("foo")
	assert.True(t, ok)
	assert.Equal(t, "bar", v)

	_, err = parseParams(`{"broken"`)
	assert.Error(t, err)
}

func TestHeaderList(t *testing.T) {
	var h headerList
	require.NoError(t, h.Set("X-Requested-With: Commodore 64"))
	require.NoError(t, h.Set("Accept:application/json"))
	assert.Error(t, h.Set("nocolon"))
	assert.Error(t, h.Set(": value"))

	assert.Equal(t, headerList{{"X-Requested-With", "Commodore 64"}, {"Accept", "application/json"}}, h)
	assert.Equal(t, "X-Requested-With: Commodore 64, Accept: application/json", h.String())
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "consumer.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
endpoint: http://example.com/api
default_parameters:
  api_key: ABC
csrf_cookie: xsrf
timeout: 5s
`), 0o600))

	cfg, err := loadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/api", cfg.Endpoint)
	assert.Equal(t, map[string]string{"api_key": "ABC"}, cfg.DefaultParameters)
	assert.Equal(t, "xsrf", cfg.CSRFCookie)
	assert.Equal(t, 5*time.Second, cfg.Timeout)

	t.Setenv("CONSUMER_ENDPOINT", "http://example.org/v2")
	cfg, err = loadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/v2", cfg.Endpoint)

	_, err = loadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	var last *http.Request
	var lastBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last = r
		lastBody, _ = io.ReadAll(r.Body)
		switch r.URL.Path {
		case "/api/posts":
			w.Write([]byte(`[{"title":"FooBar"},{"title":"FooBaz"}]`))
		case "/api/posts/1":
			w.Write([]byte(`{"title":"FooBar"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"not found"}`))
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	cfg := consumer.Config{Endpoint: srv.URL + "/api"}

	var out bytes.Buffer
	err := run(ctx, cfg, request{method: "get", path: "/posts", params: "page=2"}, &out)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"title":"FooBar"},{"title":"FooBaz"}]`, out.String())
	assert.Equal(t, "page=2", last.URL.RawQuery)

	out.Reset()
	hdr := headerList{{"X-Requested-With", "Commodore 64"}}
	err = run(ctx, cfg, request{method: "PATCH", path: "/posts/1", body: `{"title":"new"}`, headers: hdr}, &out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"FooBar"}`, out.String())
	assert.Equal(t, http.MethodPatch, last.Method)
	assert.Equal(t, "Commodore 64", last.Header.Get("X-Requested-With"))
	assert.JSONEq(t, `{"title":"new"}`, string(lastBody))

	out.Reset()
	err = run(ctx, cfg, request{method: "GET", path: "/nope"}, &out)
	assert.True(t, consumer.IsNotFound(err))
	assert.True(t, strings.HasPrefix(err.Error(), "not found: HTTP Error 404"))
	assert.JSONEq(t, `{"error":"not found"}`, out.String())

	err = run(ctx, cfg, request{method: "BREW", path: "/posts"}, &out)
	assert.Error(t, err)

	err = run(ctx, consumer.Config{}, request{method: "GET", path: "/posts"}, &out)
	assert.True(t, consumer.IsConfiguration(err))
}
