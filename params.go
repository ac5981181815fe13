package consumer

import (
	"net/url"
	"sort"
	"strings"
)

// Param is a single query parameter.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered list of query parameters. Order matters: it is kept
// as-is when the query string is built.
type Params []Param

// P builds Params from alternating key/value strings. A trailing key without
// value is given an empty value.
func P(kv ...string) Params {
	res := make(Params, 0, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		p := Param{Key: kv[i]}
		if i+1 < len(kv) {
			p.Value = kv[i+1]
		}
		res = res.Set(p.Key, p.Value)
	}
	return res
}

// ParamsOf converts a map into Params, sorted by key since maps carry no order.
func ParamsOf(m map[string]string) Params {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	res := make(Params, 0, len(keys))
	for _, k := range keys {
		res = append(res, Param{Key: k, Value: m[k]})
	}
	return res
}

// Get returns the value for key, if present.
func (p Params) Get(key string) (string, bool) {
	for _, v := range p {
		if v.Key == key {
			return v.Value, true
		}
	}
	return "", false
}

// Set replaces the value of key in place, or appends it.
func (p Params) Set(key, value string) Params {
	for i := range p {
		if p[i].Key == key {
			p[i].Value = value
			return p
		}
	}
	return append(p, Param{Key: key, Value: value})
}

// merge combines call parameters with defaults. Call-supplied keys come first
// in their own order and win on collision, followed by default-only keys in
// default order.
func (p Params) merge(defaults Params) Params {
	res := make(Params, 0, len(p)+len(defaults))
	for _, v := range p {
		res = res.Set(v.Key, v.Value)
	}
	for _, v := range defaults {
		if _, found := res.Get(v.Key); found {
			continue
		}
		res = append(res, v)
	}
	return res
}

// Encode builds the query string without the leading "?".
func (p Params) Encode() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for i, v := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escapeComponent(v.Key))
		b.WriteByte('=')
		b.WriteString(escapeComponent(v.Value))
	}
	return b.String()
}

// componentFixer turns url.QueryEscape output into the encodeURIComponent
// character set browsers use: spaces as %20 and !'()* left as is.
var componentFixer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func escapeComponent(s string) string {
	return componentFixer.Replace(url.QueryEscape(s))
}
