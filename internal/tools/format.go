package tools

import (
	"fmt"
	"strings"
)

const (
	descriptionLimit = 100
	separator        = "=================================================="
)

// Alternate field names, tried in order.
var (
	serverListKeys      = []string{"servers", "items"}
	contributorListKeys = []string{"users", "top_users"}
	usernameKeys        = []string{"username", "name", "user_name", "email"}
	serverCountKeys     = []string{"server_count", "servers_count", "count", "total"}
	favoritesKeys       = []string{"favorites_count", "favorites"}
)

// FormatServerList renders a list of server records under title. data may be a
// bare list or an object carrying a servers or items field.
func FormatServerList(data any, title string) string {
	servers := extractItems(data, serverListKeys...)
	if len(servers) == 0 {
		return title + "\n\nNo servers found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d found)\n%s\n", title, len(servers), separator)
	for i, item := range servers {
		rec := asRecord(item)
		fmt.Fprintf(&b, "\n%d. %s (ID: %s)\n", i+1, getString(rec, "Unknown", "name"), getString(rec, "N/A", "id"))
		if desc := getString(rec, "", "description"); desc != "" {
			fmt.Fprintf(&b, "   %s\n", truncate(desc, descriptionLimit))
		}
		fmt.Fprintf(&b, "   GitHub: %s\n", getString(rec, "N/A", "github_link"))
		fmt.Fprintf(&b, "   Favorites: %s\n", getString(rec, "0", favoritesKeys...))
		if tags := tagNames(rec["tags"]); len(tags) > 0 {
			fmt.Fprintf(&b, "   Tags: %s\n", strings.Join(tags, ", "))
		}
	}
	return b.String()
}

// FormatServerDetails renders a single server record.
func FormatServerDetails(data any) string {
	rec := asRecord(data)
	if len(rec) == 0 {
		return "Server not found"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== %s ===\n\n", getString(rec, "Unknown", "name"))
	fmt.Fprintf(&b, "ID: %s\n", getString(rec, "N/A", "id"))
	fmt.Fprintf(&b, "Description: %s\n", getString(rec, "N/A", "description"))
	fmt.Fprintf(&b, "GitHub: %s\n", getString(rec, "N/A", "github_link"))
	fmt.Fprintf(&b, "Protocol: %s\n", getString(rec, "N/A", "protocol"))
	fmt.Fprintf(&b, "Status: %s\n", getString(rec, "N/A", "status"))
	fmt.Fprintf(&b, "Favorites: %s\n", getString(rec, "0", favoritesKeys...))
	if tags := tagNames(rec["tags"]); len(tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(tags, ", "))
	}

	if tools, _ := rec["tools"].([]any); len(tools) > 0 {
		fmt.Fprintf(&b, "\n--- Tools (%d) ---\n", len(tools))
		for _, item := range tools {
			if name, ok := item.(string); ok {
				fmt.Fprintf(&b, "  • %s\n", name)
				continue
			}
			tool := asRecord(item)
			fmt.Fprintf(&b, "  • %s\n", getString(tool, "Unknown", "name"))
			if desc := getString(tool, "", "description"); desc != "" {
				fmt.Fprintf(&b, "    %s\n", desc)
			}
		}
	}

	if created := getString(rec, "", "created_at"); created != "" {
		fmt.Fprintf(&b, "\nCreated: %s\n", created)
	}
	return b.String()
}

// FormatContributors renders the top contributor aggregation. data may be a bare
// list or an object carrying a users or top_users field.
func FormatContributors(data any, limit string) string {
	header := fmt.Sprintf("Top Contributors (Top %s)", limit)
	users := extractItems(data, contributorListKeys...)
	if len(users) == 0 {
		return header + "\n\nNo contributors found."
	}

	var b strings.Builder
	b.WriteString(header + "\n")
	for i, item := range users {
		rec := asRecord(item)
		fmt.Fprintf(&b, "\n%d. %s - %s servers", i+1, getString(rec, "Unknown", usernameKeys...), getString(rec, "0", serverCountKeys...))
	}
	b.WriteString("\n")
	return b.String()
}

// extractItems tries the given field names or an array root.
func extractItems(data any, keys ...string) []any {
	if arr, ok := data.([]any); ok {
		return arr
	}
	if m, ok := data.(map[string]any); ok {
		for _, k := range keys {
			if arr, ok := m[k].([]any); ok {
				return arr
			}
		}
	}
	return nil
}

func asRecord(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// getString renders the first present, non-empty field among keys, or def.
func getString(m map[string]any, def string, keys ...string) string {
	for _, k := range keys {
		if s := renderScalar(m[k]); s != "" {
			return s
		}
	}
	return def
}

// tagNames normalizes tags given as strings or as objects with a name field.
func tagNames(v any) []string {
	items, _ := v.([]any)
	names := make([]string, 0, len(items))
	for _, t := range items {
		switch tag := t.(type) {
		case string:
			names = append(names, tag)
		case map[string]any:
			if name := getString(tag, "", "name"); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

// truncate cuts s to limit code points and appends "..." when anything was cut.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
