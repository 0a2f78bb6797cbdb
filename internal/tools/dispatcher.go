package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "mcphub-mcp/internal/tools"

// Content is one item of a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is the outcome of a tool call: always exactly one text item.
type Result struct {
	Content []Content `json:"content"`
}

// Text returns the text of the result's content.
func (r Result) Text() string {
	if len(r.Content) == 0 {
		return ""
	}
	return r.Content[0].Text
}

func textResult(text string) Result {
	return Result{Content: []Content{{Type: "text", Text: text}}}
}

// Args are decoded tool-call arguments.
type Args map[string]any

// Has reports whether key is present with a non-null value.
func (a Args) Has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

// String renders the argument as it would appear in a query string. JSON numbers
// keep their literal form; nothing is coerced.
func (a Args) String(key string) string {
	return renderScalar(a[key])
}

// Strings renders a list argument. A scalar is treated as a one-item list.
func (a Args) Strings(key string) []string {
	switch v := a[key].(type) {
	case nil:
		return nil
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, renderScalar(item))
		}
		return out
	default:
		return []string{renderScalar(v)}
	}
}

func renderScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	}
}

// Dispatcher runs tool calls against the catalog. It holds no per-call state and
// is safe for concurrent use.
type Dispatcher struct {
	catalog  Catalog
	registry *Registry
	tracer   trace.Tracer
}

// NewDispatcher binds the registry's tools to catalog.
func NewDispatcher(catalog Catalog, registry *Registry) *Dispatcher {
	return &Dispatcher{
		catalog:  catalog,
		registry: registry,
		tracer:   otel.Tracer(tracerName),
	}
}

// Registry returns the tool table the dispatcher serves.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Dispatch runs the named tool. It never fails: unknown tools, missing required
// arguments and catalog errors all come back as a one-item text result.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, arguments map[string]any) (res Result) {
	ctx, span := d.tracer.Start(ctx, "tools.dispatch", trace.WithAttributes(attribute.String("mcp.tool.name", name)))
	defer span.End()

	tool, ok := d.registry.Lookup(name)
	if !ok {
		span.SetAttributes(attribute.Bool("mcp.tool.unknown", true))
		return textResult("Unknown tool: " + name)
	}

	args := withDefaults(tool, arguments)
	for _, a := range tool.Args {
		if a.Required && strings.TrimSpace(args.String(a.Name)) == "" {
			return textResult(fmt.Sprintf("Error: %s is required", a.Name))
		}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("tool %s panicked: args=%v panic=%v", name, arguments, r)
			span.SetStatus(codes.Error, "panic")
			res = textResult(fmt.Sprintf("Error: internal error: %v", r))
		}
	}()

	text, err := tool.run(ctx, d.catalog, args)
	if err != nil {
		log.Printf("tool %s failed: args=%v err=%v", name, arguments, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return textResult("Error: " + err.Error())
	}
	return textResult(text)
}

// withDefaults copies arguments and fills each declared default whose key is
// absent or null.
func withDefaults(tool Tool, arguments map[string]any) Args {
	args := make(Args, len(arguments)+len(tool.Args))
	for k, v := range arguments {
		args[k] = v
	}
	for _, a := range tool.Args {
		if a.Default != nil && !args.Has(a.Name) {
			args[a.Name] = a.Default
		}
	}
	return args
}
