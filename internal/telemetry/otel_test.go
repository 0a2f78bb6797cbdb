package telemetry_test

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"

	"mcphub-mcp/internal/telemetry"
)

func TestSetupInactive(t *testing.T) {
	tests := []struct {
		name string
		opts telemetry.Options
	}{
		{"no endpoint", telemetry.Options{ServiceName: "svc", Enabled: true}},
		{"disabled", telemetry.Options{ServiceName: "svc", Endpoint: "http://localhost:4318"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := otel.GetTracerProvider()
			shutdown, err := telemetry.Setup(context.Background(), tt.opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if otel.GetTracerProvider() != before {
				t.Fatal("inactive setup must not replace the global provider")
			}
			if err := shutdown(context.Background()); err != nil {
				t.Fatalf("shutdown error: %v", err)
			}
		})
	}
}

func TestSetupRegistersProvider(t *testing.T) {
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	// Non-routable address so nothing is exported.
	shutdown, err := telemetry.Setup(context.Background(), telemetry.Options{
		ServiceName:    "svc",
		ServiceVersion: "0.1.0",
		Endpoint:       "http://192.0.2.1:4318",
		Enabled:        true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if otel.GetTracerProvider() == before {
		t.Fatal("expected a registered tracer provider")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}
