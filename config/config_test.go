package config

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.REPL.Prompt != "> " {
		t.Errorf("expected default prompt '> ', got %q", cfg.REPL.Prompt)
	}
	if cfg.REPL.HistoryLimit != 1000 {
		t.Errorf("expected default history limit 1000, got %d", cfg.REPL.HistoryLimit)
	}
	if !cfg.Run.Extensions.Contains(".at") {
		t.Errorf("expected .at in default extensions, got %v", cfg.Run.Extensions)
	}
	if cfg.Output.Print != OutputStdout {
		t.Errorf("expected default output stdout, got %q", cfg.Output.Print)
	}
	d, err := cfg.DebounceDuration()
	if err != nil || d != 100*time.Millisecond {
		t.Errorf("expected 100ms debounce, got %v (%v)", d, err)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestStringOrSlice(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		expected []string
	}{
		{"single string", `extensions: ".al"`, []string{".al"}},
		{"list", "extensions:\n  - .at\n  - .alethia\n", []string{".at", ".alethia"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var run RunConfig
			if err := yaml.Unmarshal([]byte(tt.yaml), &run); err != nil {
				t.Fatalf("Failed to parse: %v", err)
			}
			if len(run.Extensions) != len(tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, run.Extensions)
			}
			for i := range tt.expected {
				if run.Extensions[i] != tt.expected[i] {
					t.Errorf("expected %v, got %v", tt.expected, run.Extensions)
				}
			}
		})
	}
}
