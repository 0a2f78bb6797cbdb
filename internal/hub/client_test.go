package hub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type recorded struct {
	method string
	path   string
	query  map[string]string
	body   map[string]any
}

func newBackend(t *testing.T, status int, response string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, query: map[string]string{}}
		for k, v := range r.URL.Query() {
			rec.query[k] = v[0]
		}
		if r.Method == http.MethodPost {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		calls = append(calls, rec)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestSearchServers(t *testing.T) {
	srv, calls := newBackend(t, http.StatusOK, `{"servers":[{"id":1,"name":"test"}]}`)
	c := New(srv.URL+"/api/v1", srv.Client(), Options{})

	got, err := c.SearchServers(context.Background(), "github", nil)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if _, ok := got.(map[string]any)["servers"]; !ok {
		t.Fatalf("expected servers key, got %#v", got)
	}
	if len(*calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(*calls))
	}
	call := (*calls)[0]
	if call.method != http.MethodPost || call.path != "/api/v1/mcp-servers/search" {
		t.Fatalf("unexpected request %s %s", call.method, call.path)
	}
	if call.body["status"] != "approved" || call.body["keyword"] != "github" {
		t.Fatalf("unexpected body %#v", call.body)
	}
	if _, ok := call.body["tags"]; ok {
		t.Fatal("empty tags should be omitted")
	}
}

func TestSearchServersOmitsEmptyKeyword(t *testing.T) {
	srv, calls := newBackend(t, http.StatusOK, `[]`)
	c := New(srv.URL, srv.Client(), Options{})

	if _, err := c.SearchServers(context.Background(), "", []string{"git"}); err != nil {
		t.Fatalf("search: %v", err)
	}
	body := (*calls)[0].body
	if _, ok := body["keyword"]; ok {
		t.Fatal("empty keyword should be omitted")
	}
	tags, _ := body["tags"].([]any)
	if len(tags) != 1 || tags[0] != "git" {
		t.Fatalf("unexpected tags %#v", body["tags"])
	}
}

func TestListQueries(t *testing.T) {
	tests := []struct {
		name  string
		call  func(*Client) (any, error)
		path  string
		query map[string]string
	}{
		{
			name: "list servers",
			call: func(c *Client) (any, error) {
				return c.ListServers(context.Background(), ListQuery{Sort: "favorites", Order: "desc", Limit: "5", Offset: "0"})
			},
			path:  "/api/v1/mcp-servers/",
			query: map[string]string{"status": "approved", "sort": "favorites", "order": "desc", "limit": "5", "offset": "0"},
		},
		{
			name: "top servers",
			call: func(c *Client) (any, error) {
				return c.GetTopServers(context.Background(), "3", "created_at")
			},
			path:  "/api/v1/mcp-servers/",
			query: map[string]string{"status": "approved", "sort": "created_at", "order": "desc", "limit": "3", "offset": "0"},
		},
		{
			name: "top contributors",
			call: func(c *Client) (any, error) {
				return c.GetTopContributors(context.Background(), "3")
			},
			path:  "/api/v1/mcp-servers/top-users",
			query: map[string]string{"limit": "3"},
		},
		{
			name: "server details",
			call: func(c *Client) (any, error) {
				return c.GetServerDetails(context.Background(), "5")
			},
			path:  "/api/v1/mcp-servers/5",
			query: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := newBackend(t, http.StatusOK, `{}`)
			c := New(srv.URL+"/api/v1/", srv.Client(), Options{})
			if _, err := tt.call(c); err != nil {
				t.Fatalf("call: %v", err)
			}
			call := (*calls)[0]
			if call.method != http.MethodGet {
				t.Fatalf("expected GET, got %s", call.method)
			}
			if call.path != tt.path {
				t.Fatalf("expected path %q, got %q", tt.path, call.path)
			}
			if len(call.query) != len(tt.query) {
				t.Fatalf("expected query %v, got %v", tt.query, call.query)
			}
			for k, v := range tt.query {
				if call.query[k] != v {
					t.Fatalf("query %s: expected %q, got %q", k, v, call.query[k])
				}
			}
		})
	}
}

func TestNumbersKeepTheirLiteral(t *testing.T) {
	srv, _ := newBackend(t, http.StatusOK, `{"id":5,"favorites_count":10}`)
	c := New(srv.URL, srv.Client(), Options{})

	got, err := c.GetServerDetails(context.Background(), "5")
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	rec := got.(map[string]any)
	if n, ok := rec["id"].(json.Number); !ok || n.String() != "5" {
		t.Fatalf("expected json.Number 5, got %#v", rec["id"])
	}
}

func TestStatusErrors(t *testing.T) {
	srv, _ := newBackend(t, http.StatusNotFound, `{"detail":"Server not found"}`)
	c := New(srv.URL, srv.Client(), Options{})

	_, err := c.GetServerDetails(context.Background(), "999")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected StatusError 404, got %v", err)
	}
	if !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status code in message, got %q", err.Error())
	}

	srv500, _ := newBackend(t, http.StatusInternalServerError, `boom`)
	c500 := New(srv500.URL, srv500.Client(), Options{})
	_, err = c500.ListServers(context.Background(), ListQuery{})
	if errors.Is(err, ErrNotFound) {
		t.Fatal("500 must not match ErrNotFound")
	}
}

func TestGetServerDetailsRejectsEmptyID(t *testing.T) {
	srv, calls := newBackend(t, http.StatusOK, `{"servers":[]}`)
	c := New(srv.URL, srv.Client(), Options{})

	for _, id := range []string{"", " "} {
		if _, err := c.GetServerDetails(context.Background(), id); err == nil {
			t.Fatalf("expected error for id %q", id)
		}
	}
	if len(*calls) != 0 {
		t.Fatalf("empty id must not reach the backend, got %d calls", len(*calls))
	}
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c := New(srv.URL, nil, Options{Timeout: 20 * time.Millisecond, VerifySSL: true})
	if _, err := c.GetTopContributors(context.Background(), "3"); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	c := New("http://localhost", nil, Options{VerifySSL: true})
	if err := c.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
