package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/KarpelesLab/consumer"
	"github.com/KarpelesLab/webutil"
	"github.com/spf13/viper"
)

var configKeys = []string{
	"endpoint",
	"default_parameters",
	"default_headers",
	"csrf_header",
	"csrf_cookie",
	"timeout",
	"max_in_flight",
}

// loadConfig reads the optional file then CONSUMER_* environment variables,
// the latter taking precedence.
func loadConfig(file string) (consumer.Config, error) {
	var cfg consumer.Config

	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("failed to read %s: %w", file, err)
		}
	}

	v.SetEnvPrefix("consumer")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range configKeys {
		if err := v.BindEnv(k); err != nil {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return cfg, nil
}

// parseParams accepts either a JSON object or a url encoded query.
func parseParams(param string) (consumer.Params, error) {
	if param == "" {
		return nil, nil
	}

	var raw map[string]any
	if param[0] == '{' {
		if err := json.Unmarshal([]byte(param), &raw); err != nil {
			return nil, fmt.Errorf("invalid params: %w", err)
		}
	} else {
		raw = webutil.ParsePhpQuery(param)
	}

	m := make(map[string]string, len(raw))
	for k, v := range raw {
		switch s := v.(type) {
		case string:
			m[k] = s
		case nil:
			m[k] = ""
		default:
			// nested values are passed as JSON
			buf, err := json.Marshal(s)
			if err != nil {
				return nil, err
			}
			m[k] = string(buf)
		}
	}
	return consumer.ParamsOf(m), nil
}

type header struct {
	name  string
	value string
}

type headerList []header

func (h *headerList) String() string {
	res := make([]string, 0, len(*h))
	for _, v := range *h {
		res = append(res, v.name+": "+v.value)
	}
	return strings.Join(res, ", ")
}

func (h *headerList) Set(s string) error {
	name, value, ok := strings.Cut(s, ":")
	if !ok || strings.TrimSpace(name) == "" {
		return fmt.Errorf("invalid header %q, expected Name: value", s)
	}
	*h = append(*h, header{name: strings.TrimSpace(name), value: strings.TrimSpace(value)})
	return nil
}
