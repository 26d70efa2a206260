package arm

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/pkg/errors"

	"spotplacement/pkg/metrics"
)

// Client issues Azure Resource Manager REST calls. Headers are set on every
// request; the underlying hertz client carries no per-caller state, so one
// Client is safe to share between concurrent requests.
type Client struct {
	host    string
	timeout time.Duration
	hClient *client.Client
}

// Response is a fully read upstream answer.
type Response struct {
	StatusCode int
	Body       []byte
}

// Success reports a 2xx status.
func (r *Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type clientOptions struct {
	tlsConfig *tls.Config
}

// Option customizes NewClient.
type Option func(o *clientOptions)

// WithTLSConfig replaces the TLS settings used for https hosts.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(o *clientOptions) {
		o.tlsConfig = cfg
	}
}

// NewClient builds a client for host (e.g. https://management.azure.com).
// timeout <= 0 leaves the transport defaults in place.
func NewClient(host string, timeout time.Duration, opts ...Option) (*Client, error) {
	o := &clientOptions{tlsConfig: &tls.Config{MinVersion: tls.VersionTLS12}}
	for _, opt := range opts {
		opt(o)
	}
	// WithTLSConfig also switches hertz to the standard dialer, netpoll cannot do TLS
	hClient, err := client.NewClient(
		client.WithDialTimeout(10*time.Second),
		client.WithTLSConfig(o.tlsConfig),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create hertz client")
	}
	return &Client{
		host:    strings.TrimSuffix(host, "/"),
		timeout: timeout,
		hClient: hClient,
	}, nil
}

// URL joins the host, path and an already encoded query.
func (c *Client) URL(path, query string) string {
	uri := c.host + path
	if query != "" {
		uri += "?" + query
	}
	return uri
}

// Query renders api-version plus extra parameters. Values are percent
// encoded with %20 for spaces, which ARM requires for OData $filter.
func Query(apiVersion string, extra ...string) string {
	q := "api-version=" + url.QueryEscape(apiVersion)
	for i := 0; i+1 < len(extra); i += 2 {
		q += "&" + extra[i] + "=" + strings.ReplaceAll(url.QueryEscape(extra[i+1]), "+", "%20")
	}
	return q
}

// Do sends one request with a bearer token and returns the status and body
// whatever the status is. Only transport failures are returned as errors.
func (c *Client) Do(ctx context.Context, operation, method, uri string, body []byte, token string) (*Response, error) {
	req, resp := protocol.AcquireRequest(), protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()
	req.SetMethod(method)
	req.SetRequestURI(uri)
	req.SetHeader("Accept", "application/json")
	if body != nil {
		req.SetHeader("Content-Type", "application/json; charset=utf-8")
		req.SetBody(body)
	}
	req.SetAuthToken(token)

	start := time.Now()
	var err error
	if c.timeout > 0 {
		err = c.hClient.DoTimeout(ctx, req, resp, c.timeout)
	} else {
		err = c.hClient.Do(ctx, req, resp)
	}
	if err != nil {
		metrics.ObserveARMRequest(operation, 0, time.Since(start))
		return nil, errors.Wrapf(err, "%s %s", method, uri)
	}
	metrics.ObserveARMRequest(operation, resp.StatusCode(), time.Since(start))

	// resp is released on return, keep a copy of the body
	out := &Response{StatusCode: resp.StatusCode()}
	out.Body = append([]byte(nil), resp.Body()...)
	return out, nil
}

// GetJSON sends a GET and decodes a 2xx body into out.
func (c *Client) GetJSON(ctx context.Context, operation, path, query, token string, out interface{}) error {
	resp, err := c.Do(ctx, operation, consts.MethodGet, c.URL(path, query), nil, token)
	if err != nil {
		return err
	}
	if !resp.Success() {
		return &UpstreamError{Operation: operation, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	if err := sonic.Unmarshal(resp.Body, out); err != nil {
		return &MalformedResponseError{Operation: operation, Cause: err}
	}
	return nil
}

// Path fills format with escaped path segments such as a subscription id or a region.
func Path(format string, segments ...string) string {
	args := make([]interface{}, len(segments))
	for i, s := range segments {
		args[i] = url.PathEscape(s)
	}
	return fmt.Sprintf(format, args...)
}
