// Package tools holds the catalog tool table, the dispatcher that runs tool calls
// against the catalog, and the formatters that turn catalog JSON into text.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"mcphub-mcp/internal/hub"
)

// Catalog is the subset of the catalog client the tools call. *hub.Client
// implements it and is safe for concurrent use.
type Catalog interface {
	SearchServers(ctx context.Context, keyword string, tags []string) (any, error)
	ListServers(ctx context.Context, q hub.ListQuery) (any, error)
	GetServerDetails(ctx context.Context, serverID string) (any, error)
	GetTopServers(ctx context.Context, limit, sort string) (any, error)
	GetTopContributors(ctx context.Context, limit string) (any, error)
}

// Arg declares one tool argument. The same declaration drives the advertised
// input schema and the defaults the dispatcher fills in.
type Arg struct {
	Name        string
	Type        string
	Description string
	Enum        []string
	Default     any
	Required    bool
}

// Tool binds a tool name to its arguments and catalog handler.
type Tool struct {
	Name        string
	Description string
	Args        []Arg

	run func(ctx context.Context, c Catalog, args Args) (string, error)
}

// InputSchema builds the JSON schema advertised for the tool.
func (t Tool) InputSchema() *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema, len(t.Args)),
	}
	for _, a := range t.Args {
		prop := &jsonschema.Schema{Type: a.Type, Description: a.Description}
		if a.Type == "array" {
			prop.Items = &jsonschema.Schema{Type: "string"}
		}
		for _, v := range a.Enum {
			prop.Enum = append(prop.Enum, v)
		}
		if a.Default != nil {
			if raw, err := json.Marshal(a.Default); err == nil {
				prop.Default = raw
			}
		}
		schema.Properties[a.Name] = prop
		if a.Required {
			schema.Required = append(schema.Required, a.Name)
		}
	}
	return schema
}

// Registry is the fixed, ordered tool table. It is read-only after construction.
type Registry struct {
	tools []Tool
	index map[string]int
}

// NewRegistry returns the registry of catalog tools.
func NewRegistry() *Registry {
	return newRegistry(catalogTools())
}

func newRegistry(tools []Tool) *Registry {
	r := &Registry{tools: tools, index: make(map[string]int, len(tools))}
	for i, t := range tools {
		if _, dup := r.index[t.Name]; dup {
			panic(fmt.Sprintf("tools: duplicate tool name %q", t.Name))
		}
		r.index[t.Name] = i
	}
	return r
}

// ListTools returns the tools in registration order. The returned slice is a copy.
func (r *Registry) ListTools() []Tool {
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	i, ok := r.index[name]
	if !ok {
		return Tool{}, false
	}
	return r.tools[i], true
}

var sortEnum = []string{"favorites", "created_at"}

func catalogTools() []Tool {
	return []Tool{
		{
			Name:        "search_mcp_servers",
			Description: "Search approved MCP servers in the MCP Hub by keyword and optional tags.",
			Args: []Arg{
				{Name: "keyword", Type: "string", Description: "Keyword matched against server names and descriptions"},
				{Name: "tags", Type: "array", Description: "Only return servers carrying all of these tags"},
			},
			run: searchServers,
		},
		{
			Name:        "list_mcp_servers",
			Description: "List approved MCP servers with sorting and pagination.",
			Args: []Arg{
				{Name: "sort", Type: "string", Description: "Sort field", Enum: sortEnum, Default: "favorites"},
				{Name: "order", Type: "string", Description: "Sort order", Enum: []string{"asc", "desc"}, Default: "desc"},
				{Name: "limit", Type: "integer", Description: "Maximum number of servers to return", Default: 20},
				{Name: "offset", Type: "integer", Description: "Number of servers to skip", Default: 0},
			},
			run: listServers,
		},
		{
			Name:        "get_mcp_server_details",
			Description: "Get detailed information about a specific MCP server including tools, tags, and metadata.",
			Args: []Arg{
				{Name: "server_id", Type: "integer", Description: "The unique ID of the MCP server", Required: true},
			},
			run: serverDetails,
		},
		{
			Name:        "get_top_servers",
			Description: "Get the top MCP servers ranked by favorites or creation date.",
			Args: []Arg{
				{Name: "limit", Type: "integer", Description: "Number of servers to return", Default: 3},
				{Name: "sort", Type: "string", Description: "Ranking field", Enum: sortEnum, Default: "favorites"},
			},
			run: topServers,
		},
		{
			Name:        "get_top_contributors",
			Description: "Get the users who registered the most MCP servers.",
			Args: []Arg{
				{Name: "limit", Type: "integer", Description: "Number of contributors to return", Default: 3},
			},
			run: topContributors,
		},
	}
}

func searchServers(ctx context.Context, c Catalog, args Args) (string, error) {
	keyword := args.String("keyword")
	data, err := c.SearchServers(ctx, keyword, args.Strings("tags"))
	if err != nil {
		return "", err
	}
	title := "Search Results"
	if keyword != "" {
		title = fmt.Sprintf("Search Results for %q", keyword)
	}
	return FormatServerList(data, title), nil
}

func listServers(ctx context.Context, c Catalog, args Args) (string, error) {
	q := hub.ListQuery{
		Sort:   args.String("sort"),
		Order:  args.String("order"),
		Limit:  args.String("limit"),
		Offset: args.String("offset"),
	}
	data, err := c.ListServers(ctx, q)
	if err != nil {
		return "", err
	}
	return FormatServerList(data, fmt.Sprintf("MCP Servers (sorted by %s, %s)", q.Sort, q.Order)), nil
}

func serverDetails(ctx context.Context, c Catalog, args Args) (string, error) {
	data, err := c.GetServerDetails(ctx, args.String("server_id"))
	if err != nil {
		return "", err
	}
	return FormatServerDetails(data), nil
}

func topServers(ctx context.Context, c Catalog, args Args) (string, error) {
	limit, sort := args.String("limit"), args.String("sort")
	data, err := c.GetTopServers(ctx, limit, sort)
	if err != nil {
		return "", err
	}
	return FormatServerList(data, fmt.Sprintf("Top %s MCP Servers (by %s)", limit, sort)), nil
}

func topContributors(ctx context.Context, c Catalog, args Args) (string, error) {
	limit := args.String("limit")
	data, err := c.GetTopContributors(ctx, limit)
	if err != nil {
		return "", err
	}
	return FormatContributors(data, limit), nil
}
