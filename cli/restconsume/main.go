package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/KarpelesLab/consumer"
)

// query a REST endpoint and print the decoded objects

var (
	configFile = flag.String("config", "", "configuration file (yaml, json or toml)")
	endpoint   = flag.String("endpoint", "", "API root, overrides the configuration")
	method     = flag.String("method", "GET", "HTTP method")
	params     = flag.String("params", "", "query parameters for GET and DELETE, as JSON or url encoded")
	body       = flag.String("body", "", "JSON body for POST, PUT and PATCH")
	debug      = flag.Bool("debug", false, "log requests")
	headers    headerList
)

func main() {
	flag.Var(&headers, "header", "extra header as Name: value, may be repeated")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Printf("usage: restconsume [flags] path")
		flag.Usage()
		os.Exit(1)
	}
	consumer.Debug = *debug

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Printf("failed to load configuration: %s", err)
		os.Exit(1)
	}
	if *endpoint != "" {
		cfg.Endpoint = *endpoint
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	req := request{
		method:  *method,
		path:    flag.Arg(0),
		params:  *params,
		body:    *body,
		headers: headers,
	}
	if err := run(ctx, cfg, req, os.Stdout); err != nil {
		log.Printf("request failed: %s", err)
		os.Exit(1)
	}
}

type request struct {
	method  string
	path    string
	params  string
	body    string
	headers headerList
}

func run(ctx context.Context, cfg consumer.Config, req request, out io.Writer) error {
	c, err := consumer.NewFromConfig[consumer.Record](cfg)
	if err != nil {
		return err
	}
	for _, h := range req.headers {
		c.AddHeader(h.name, h.value)
	}

	p, err := parseParams(req.params)
	if err != nil {
		return err
	}

	var payload any
	if req.body != "" {
		payload = json.RawMessage(req.body)
	}

	m := strings.ToUpper(req.method)
	var res *consumer.Result[consumer.Record]
	switch m {
	case http.MethodGet:
		res, err = c.Get(ctx, req.path, p)
	case http.MethodDelete:
		res, err = c.Delete(ctx, req.path, p)
	case http.MethodPost:
		res, err = c.Post(ctx, req.path, payload)
	case http.MethodPut:
		res, err = c.Put(ctx, req.path, payload)
	case http.MethodPatch:
		res, err = c.Patch(ctx, req.path, payload)
	default:
		return fmt.Errorf("unsupported method %s", m)
	}
	if err != nil {
		if httpErr, ok := consumer.IsHttpError(err); ok {
			out.Write(httpErr.Body)
			if msg := httpErr.Message(); msg != "" {
				return fmt.Errorf("%s: %w", msg, err)
			}
		}
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if res.Array {
		return enc.Encode(res.All())
	}
	if res.Len() == 0 {
		return nil
	}
	return enc.Encode(res.One())
}
