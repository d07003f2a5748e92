// Package api is the HTTP client core: two call surfaces (authenticated and
// unauthenticated) over the backend's REST endpoints, with uniform error
// normalization and transparent bearer-token refresh on 401.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// reqOpts carries per-request overrides.
type reqOpts struct {
	headers        http.Header
	idempotencyKey string
}

// ReqOption customizes a single request.
type ReqOption func(*reqOpts)

// WithHeader sets an extra request header (caller override, e.g. Accept-Language).
func WithHeader(key, value string) ReqOption {
	return func(o *reqOpts) {
		if o.headers == nil {
			o.headers = http.Header{}
		}
		o.headers.Set(key, value)
	}
}

// WithIdempotencyKey pins the Idempotency-Key header so a logical submission
// keeps one key across a refresh retry or a caller-level resubmit.
func WithIdempotencyKey(key string) ReqOption {
	return func(o *reqOpts) { o.idempotencyKey = key }
}

// Client is the unauthenticated surface: no Authorization header. Used for
// login, registration, password reset, and public reads.
type Client struct {
	httpc *http.Client
	log   *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying transport (tests, custom TLS).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithLogger sets the request logger; default is a nop logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithTimeout sets the transport timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpc.Timeout = d }
}

// New builds the unauthenticated surface.
func New(opts ...Option) *Client {
	c := &Client{
		httpc: &http.Client{Timeout: defaultTimeout},
		log:   zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get issues a GET and decodes the JSON response into out (out may be nil).
func (c *Client) Get(ctx context.Context, url string, out any, opts ...ReqOption) error {
	return c.do(ctx, http.MethodGet, url, nil, out, opts...)
}

// Post issues a POST with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, url string, in, out any, opts ...ReqOption) error {
	return c.do(ctx, http.MethodPost, url, in, out, opts...)
}

// Put issues a PUT with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, url string, in, out any, opts ...ReqOption) error {
	return c.do(ctx, http.MethodPut, url, in, out, opts...)
}

// Delete issues a DELETE; a 204 yields no decoded body.
func (c *Client) Delete(ctx context.Context, url string, out any, opts ...ReqOption) error {
	return c.do(ctx, http.MethodDelete, url, nil, out, opts...)
}

// PostMultipart uploads fields and named files as multipart/form-data.
// The multipart writer owns the Content-Type header (boundary included).
func (c *Client) PostMultipart(ctx context.Context, url string, fields map[string]string, files map[string]NamedReader, out any, opts ...ReqOption) error {
	body, contentType, err := encodeMultipart(fields, files)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	applyOpts(req, opts)
	return c.send(req, out)
}

func (c *Client) do(ctx context.Context, method, url string, in, out any, opts ...ReqOption) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	applyOpts(req, opts)
	return c.send(req, out)
}

// send executes the request and normalizes the outcome.
func (c *Client) send(req *http.Request, out any) error {
	c.log.Debug("request", zap.String("method", req.Method), zap.String("url", req.URL.String()))

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := normalizeDetail(raw)
		c.log.Debug("request failed",
			zap.String("url", req.URL.String()),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", detail),
		)
		return newAPIError(resp.StatusCode, detail)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		// 2xx with a non-JSON body still surfaces the raw text.
		return newAPIError(resp.StatusCode, "unexpected response body: "+string(raw))
	}
	return nil
}

func applyOpts(req *http.Request, opts []ReqOption) {
	var o reqOpts
	for _, fn := range opts {
		fn(&o)
	}
	for k, vs := range o.headers {
		req.Header[k] = vs
	}
	if o.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", o.idempotencyKey)
	}
}

// NamedReader pairs an upload stream with its filename.
type NamedReader struct {
	Name   string
	Reader io.Reader
}

func encodeMultipart(fields map[string]string, files map[string]NamedReader) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	for field, f := range files {
		part, err := w.CreateFormFile(field, f.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
