package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/CrowderSoup/taskflow-pro/config"
)

func TestInitTelemetry(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.TelemetryConfig
		wantErr string
	}{
		{name: "disabled", cfg: config.TelemetryConfig{}},
		{name: "none", cfg: config.TelemetryConfig{Exporter: "none"}},
		{name: "stdout", cfg: config.TelemetryConfig{Exporter: "stdout"}},
		// The exporter dials lazily, so nothing needs to listen here.
		{name: "otlp", cfg: config.TelemetryConfig{Exporter: "otlp", Endpoint: "127.0.0.1:1"}},
		{name: "unknown exporter", cfg: config.TelemetryConfig{Exporter: "bogus"}, wantErr: "unknown exporter: bogus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			tel, err := InitTelemetry(ctx, tt.cfg)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("InitTelemetry: %v", err)
			}
			if tel.Tracer == nil {
				t.Fatal("nil tracer")
			}
			if err := tel.Shutdown(ctx); err != nil {
				t.Errorf("Shutdown: %v", err)
			}
		})
	}
}
