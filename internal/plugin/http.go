package plugin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// WhitelistEntry permits GET/POST calls to any URL under URLPrefix using
// Method; any other destination is rejected with ErrNotAllowed.
type WhitelistEntry struct {
	URLPrefix string
	Method    string
}

func (e WhitelistEntry) allows(url, method string) bool {
	return strings.EqualFold(e.Method, method) && strings.HasPrefix(url, e.URLPrefix)
}

// ErrNotAllowed is returned when a plugin's HTTP call does not match any
// whitelist entry.
type ErrNotAllowed struct {
	URL    string
	Method string
}

func (e *ErrNotAllowed) Error() string {
	return fmt.Sprintf("plugin: url %q with method %q is not in the allow-list", e.URL, e.Method)
}

// Response is the decoded HTTP call result handed back into WASM.
type Response struct {
	Status  int               `json:"status"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers"`
}

// HTTPClient performs allow-listed GET/POST requests on behalf of a plugin.
type HTTPClient struct {
	whitelist []WhitelistEntry
	client    *http.Client
}

// NewHTTPClient builds an HTTPClient restricted to whitelist.
func NewHTTPClient(whitelist []WhitelistEntry, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		whitelist: whitelist,
		client:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) checkWhitelist(url, method string) error {
	for _, e := range c.whitelist {
		if e.allows(url, method) {
			return nil
		}
	}
	return &ErrNotAllowed{URL: url, Method: method}
}

// Get performs an allow-listed GET.
func (c *HTTPClient) Get(ctx context.Context, url string) (Response, error) {
	if err := c.checkWhitelist(url, http.MethodGet); err != nil {
		return Response{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, err
	}
	return c.do(req)
}

// Post performs an allow-listed POST with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, url, body string) (Response, error) {
	if err := c.checkWhitelist(url, http.MethodPost); err != nil {
		return Response{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *HTTPClient) do(req *http.Request) (Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}

	headers := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	return Response{Status: resp.StatusCode, Body: string(data), Headers: headers}, nil
}
