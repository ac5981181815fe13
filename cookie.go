package consumer

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"golang.org/x/net/publicsuffix"
)

// CookieFunc reads a cookie by name. It reports false when there is no such cookie.
type CookieFunc func(name string) (string, bool)

// NewJar returns a cookie jar using the public suffix list, suitable for both
// HTTPTransport and JarCookies.
func NewJar() http.CookieJar {
	// cookiejar.New only fails on invalid options
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return jar
}

// JarCookies reads cookies the jar holds for endpoint. When the transport
// shares the same jar, a token cookie set by the server is echoed back in the
// CSRF header of subsequent unsafe requests.
func JarCookies(jar http.CookieJar, endpoint string) CookieFunc {
	u, err := url.Parse(endpoint)
	if err != nil || !u.IsAbs() {
		return func(string) (string, bool) { return "", false }
	}
	return func(name string) (string, bool) {
		for _, c := range jar.Cookies(u) {
			if c.Name == name {
				return c.Value, true
			}
		}
		return "", false
	}
}

// StaticCookies serves cookies from a fixed map.
func StaticCookies(m map[string]string) CookieFunc {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}
