package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.InputPath = "/tmp/memo.pdf"
	cfg.OutputPath = "/tmp/memo.flat.pdf"
	cfg.AnnotationsPath = "/tmp/memo.markup.json"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.RenderScale != DefaultRenderScale {
		t.Errorf("Expected render scale %g, got %g", DefaultRenderScale, cfg.RenderScale)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("Expected log level %s, got %s", DefaultLogLevel, cfg.LogLevel)
	}
	if cfg.MaxFileSize != DefaultMaxFileSize {
		t.Errorf("Expected max file size %d, got %d", DefaultMaxFileSize, cfg.MaxFileSize)
	}
	if cfg.ToolName != "docflow" {
		t.Errorf("Expected tool name docflow, got %s", cfg.ToolName)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid with annotations only",
			mutate: func(c *Config) {},
		},
		{
			name: "valid with positions only",
			mutate: func(c *Config) {
				c.AnnotationsPath = ""
				c.PositionsPath = "/tmp/memo.signers.json"
			},
		},
		{
			name:    "missing input path",
			mutate:  func(c *Config) { c.InputPath = "" },
			wantErr: "input PDF path cannot be empty",
		},
		{
			name:    "missing output path",
			mutate:  func(c *Config) { c.OutputPath = "" },
			wantErr: "output path cannot be empty",
		},
		{
			name: "neither annotations nor positions",
			mutate: func(c *Config) {
				c.AnnotationsPath = ""
				c.PositionsPath = ""
			},
			wantErr: "at least one of annotations or positions",
		},
		{
			name:    "zero render scale",
			mutate:  func(c *Config) { c.RenderScale = 0 },
			wantErr: "render scale must be in",
		},
		{
			name:    "render scale above maximum",
			mutate:  func(c *Config) { c.RenderScale = MaxRenderScale + 0.5 },
			wantErr: "render scale must be in",
		},
		{
			name:    "non-positive max file size",
			mutate:  func(c *Config) { c.MaxFileSize = 0 },
			wantErr: "maximum file size must be positive",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected valid config, got error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestIsDebug(t *testing.T) {
	cfg := validConfig()
	if cfg.IsDebug() {
		t.Error("Expected IsDebug false for info level")
	}
	cfg.LogLevel = "debug"
	if !cfg.IsDebug() {
		t.Error("Expected IsDebug true for debug level")
	}
}

func TestString(t *testing.T) {
	cfg := validConfig()
	s := cfg.String()
	for _, want := range []string{"/tmp/memo.pdf", "/tmp/memo.flat.pdf", "info"} {
		if !strings.Contains(s, want) {
			t.Errorf("Expected String() to contain %q, got %q", want, s)
		}
	}
}
