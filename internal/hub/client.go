// Package hub provides a minimal client for the MCP Hub catalog REST API.
package hub

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// approvedStatus restricts every listing and search to published entries.
const approvedStatus = "approved"

// maxErrorBody caps how much of a failed response body is kept in a StatusError.
const maxErrorBody = 512

// ErrNotFound is matched by errors.Is for 404 responses.
var ErrNotFound = errors.New("not found")

// StatusError reports a catalog response with a status code of 400 or above.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("catalog api status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Is makes 404 responses match ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Options configures the HTTP client built by New.
type Options struct {
	Timeout   time.Duration
	VerifySSL bool
	Debug     bool
}

// Client is an HTTP client for the MCP Hub catalog. It is safe for concurrent use;
// all calls share one connection pool that Close releases.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Debug   bool

	closeOnce sync.Once
}

// New returns a client for baseURL. If httpClient is nil, one is built from opts.
func New(baseURL string, httpClient *http.Client, opts Options) *Client {
	if httpClient == nil {
		httpClient = newHTTPClient(opts)
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: httpClient, Debug: opts.Debug}
}

func newHTTPClient(opts Options) *http.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !opts.VerifySSL {
		log.Println("WARN: SSL certificate verification is disabled")
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via VERIFY_SSL
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// Close releases idle pooled connections. Calling it more than once is a no-op.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.HTTP.CloseIdleConnections()
	})
	return nil
}

// ListQuery holds paging and sorting arguments for the server listing. Values are
// forwarded as received; the catalog validates them.
type ListQuery struct {
	Sort   string
	Order  string
	Limit  string
	Offset string
}

// SearchServers searches approved servers by keyword and tags. Empty filters are omitted.
func (c *Client) SearchServers(ctx context.Context, keyword string, tags []string) (any, error) {
	body := map[string]any{"status": approvedStatus}
	if keyword != "" {
		body["keyword"] = keyword
	}
	if len(tags) > 0 {
		body["tags"] = tags
	}
	return c.post(ctx, "/mcp-servers/search", body)
}

// ListServers returns one page of approved servers.
func (c *Client) ListServers(ctx context.Context, q ListQuery) (any, error) {
	return c.get(ctx, "/mcp-servers/", url.Values{
		"status": {approvedStatus},
		"sort":   {q.Sort},
		"order":  {q.Order},
		"limit":  {q.Limit},
		"offset": {q.Offset},
	})
}

// GetServerDetails fetches one server record. A missing server yields an error
// matching ErrNotFound.
func (c *Client) GetServerDetails(ctx context.Context, serverID string) (any, error) {
	if strings.TrimSpace(serverID) == "" {
		return nil, errors.New("server id is empty")
	}
	return c.get(ctx, "/mcp-servers/"+url.PathEscape(serverID), nil)
}

// GetTopServers returns the first limit approved servers ordered by sort, descending.
func (c *Client) GetTopServers(ctx context.Context, limit, sort string) (any, error) {
	return c.ListServers(ctx, ListQuery{Sort: sort, Order: "desc", Limit: limit, Offset: "0"})
}

// GetTopContributors returns the users with the most registered servers.
func (c *Client) GetTopContributors(ctx context.Context, limit string) (any, error) {
	return c.get(ctx, "/mcp-servers/top-users", url.Values{"limit": {limit}})
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (any, error) {
	reqURL := c.BaseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	c.debugf("GET %s", reqURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) (any, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	reqURL := c.BaseURL + endpoint
	c.debugf("POST %s with data: %s", reqURL, data)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (any, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		log.Printf("catalog request error: %v", err)
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		log.Printf("catalog http error: %d - %s", statusErr.StatusCode, statusErr.Body)
		return nil, statusErr
	}
	return decodeJSON(resp)
}

// decodeJSON decodes an HTTP response body into a generic value. Numbers stay
// json.Number so they render exactly as the catalog sent them.
func decodeJSON(resp *http.Response) (any, error) {
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var body any
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return body, nil
}

func (c *Client) debugf(format string, args ...any) {
	if c.Debug {
		log.Printf("DEBUG: "+format, args...)
	}
}
