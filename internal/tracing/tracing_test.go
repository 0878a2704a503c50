package tracing

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false}, quietLogger())
	if err != nil {
		t.Fatalf("expected no error for disabled tracing, got %v", err)
	}
	if p.Enabled() {
		t.Error("expected tracing to be disabled")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() on disabled provider = %v", err)
	}
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"negative sampling", Config{Enabled: true, SamplingRate: -0.1}},
		{"sampling above one", Config{Enabled: true, SamplingRate: 1.5}},
		{"unknown exporter", Config{Enabled: true, SamplingRate: 1, ExporterType: "jaeger"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewProvider(context.Background(), tt.cfg, quietLogger()); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestNewProvider_Enabled(t *testing.T) {
	tests := []struct {
		name     string
		exporter string
		rate     float64
	}{
		{"http default exporter", "", 1},
		{"http sampled", ExporterOTLPHTTP, 0.25},
		{"grpc never sample", ExporterOTLPGRPC, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(context.Background(), Config{
				Enabled:      true,
				ExporterType: tt.exporter,
				OTLPEndpoint: "localhost:4318",
				SamplingRate: tt.rate,
				Insecure:     true,
				Environment:  "test",
			}, quietLogger())
			if err != nil {
				t.Fatalf("NewProvider() error = %v", err)
			}
			if !p.Enabled() {
				t.Error("expected tracing to be enabled")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = p.Shutdown(ctx)
		})
	}
}
