package provider

import (
	"context"
	"time"

	"github.com/valyala/fasthttp"
)

// TransportConfig tunes the pooled fasthttp client.
type TransportConfig struct {
	MaxConnsPerHost     int
	MaxIdleConnDuration time.Duration
	ReadBufferSize      int
}

func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		MaxConnsPerHost:     64,
		MaxIdleConnDuration: 90 * time.Second,
		ReadBufferSize:      16 * 1024,
	}
}

func newHTTPClient(cfg TransportConfig, name string) *fasthttp.Client {
	return &fasthttp.Client{
		Name:                     name,
		MaxConnsPerHost:          cfg.MaxConnsPerHost,
		MaxIdleConnDuration:      cfg.MaxIdleConnDuration,
		ReadBufferSize:           cfg.ReadBufferSize,
		NoDefaultUserAgentHeader: true,
	}
}

// doRequest uses the configured timeout when set, then the context deadline, then the
// transport's own defaults.
func doRequest(ctx context.Context, c *fasthttp.Client, timeout time.Duration, req *fasthttp.Request, resp *fasthttp.Response) error {
	if timeout > 0 {
		return c.DoTimeout(req, resp, timeout)
	}
	if deadline, ok := ctx.Deadline(); ok {
		return c.DoDeadline(req, resp, deadline)
	}
	return c.Do(req, resp)
}
