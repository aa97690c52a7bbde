package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const userAgent = "FPG-Gateway/1.0"

// BaseURLResolver yields the backend base URL for an outbound call. The
// Prober implements it; tests and the explicit-URL configuration use
// StaticResolver.
type BaseURLResolver interface {
	ResolveBaseURL(ctx context.Context) string
}

// StaticResolver always returns a fixed base URL.
type StaticResolver string

func (s StaticResolver) ResolveBaseURL(context.Context) string { return string(s) }

// Envelope is the uniform result shape for every outbound backend call.
// Transport failures, upstream error statuses, and malformed bodies are
// all folded into it; Request never returns an error.
type Envelope struct {
	Success  bool   `json:"success"`
	HTTPCode int    `json:"http_code,omitempty"`
	Data     any    `json:"data"`
	Error    string `json:"error,omitempty"`
	Raw      string `json:"raw_response,omitempty"`
}

// Client executes JSON requests against the price-aggregation backend.
type Client struct {
	resolver   BaseURLResolver
	endpoints  *EndpointTable
	httpClient *http.Client
}

// NewClient builds a gateway client. The timeout is a hard per-call
// ceiling; exceeding it surfaces as a transport failure in the Envelope.
func NewClient(resolver BaseURLResolver, endpoints *EndpointTable, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		resolver:  resolver,
		endpoints: endpoints,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Request performs one call and normalizes the outcome. The body is
// serialized as JSON and attached only for POST and PUT. Default headers
// are always present unless the caller overrides them by name. No retry:
// each call is made exactly once.
func (c *Client) Request(ctx context.Context, path, method string, body any, headers map[string]string) Envelope {
	if path == "" {
		return Envelope{Success: false, Error: "empty request path"}
	}

	url := c.resolver.ResolveBaseURL(ctx) + path

	var reqBody io.Reader
	if body != nil && (method == http.MethodPost || method == http.MethodPut) {
		payload, err := json.Marshal(body)
		if err != nil {
			return Envelope{Success: false, Error: fmt.Sprintf("encode request body: %v", err)}
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return Envelope{Success: false, Error: fmt.Sprintf("build request: %v", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	logRequest(method, url)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logError("request", err)
		return Envelope{Success: false, Error: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		logError("read response", err)
		return Envelope{Success: false, Error: fmt.Sprintf("read response: %v", err)}
	}

	logResponse(resp.StatusCode, time.Since(start))

	// Non-JSON bodies leave Data nil; success is decided by status alone.
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		data = nil
	}

	return Envelope{
		Success:  resp.StatusCode >= 200 && resp.StatusCode < 300,
		HTTPCode: resp.StatusCode,
		Data:     data,
		Raw:      string(raw),
	}
}

func (c *Client) Get(ctx context.Context, path string, headers map[string]string) Envelope {
	return c.Request(ctx, path, http.MethodGet, nil, headers)
}

func (c *Client) Post(ctx context.Context, path string, body any, headers map[string]string) Envelope {
	return c.Request(ctx, path, http.MethodPost, body, headers)
}

func (c *Client) Put(ctx context.Context, path string, body any, headers map[string]string) Envelope {
	return c.Request(ctx, path, http.MethodPut, body, headers)
}

func (c *Client) Delete(ctx context.Context, path string, headers map[string]string) Envelope {
	return c.Request(ctx, path, http.MethodDelete, nil, headers)
}

// BaseURL exposes the currently resolved backend URL, for status pages.
func (c *Client) BaseURL(ctx context.Context) string {
	return c.resolver.ResolveBaseURL(ctx)
}
