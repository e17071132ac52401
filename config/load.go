package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// errNoConfig means no config file was found in the default locations
var errNoConfig = errors.New("no config file found")

// Load reads configuration from a file with ENV interpolation.
// If configPath is empty, it searches default locations and falls back to
// Defaults when none exists.
func Load(configPath string, getenv func(string) string) (*Config, error) {
	cfg, _, err := LoadWithPath(configPath, getenv)
	return cfg, err
}

// LoadWithPath reads configuration and returns both the config and the
// resolved path. The path is empty when the defaults were used.
func LoadWithPath(configPath string, getenv func(string) string) (*Config, string, error) {
	path, err := resolveConfigPath(configPath, getenv)
	if errors.Is(err, errNoConfig) {
		return Defaults(), "", nil
	}
	if err != nil {
		return nil, "", err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve config path: %w", err)
	}
	baseDir := filepath.Dir(absPath)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}

	data = interpolateEnv(data, getenv)

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.BaseDir = baseDir

	// Resolve relative paths
	if cfg.REPL.HistoryFile != "" {
		cfg.REPL.HistoryFile = cfg.resolve(cfg.REPL.HistoryFile)
	}
	if p := cfg.Output.Print; p != "" && p != OutputStdout && p != OutputStderr {
		cfg.Output.Print = cfg.resolve(p)
	}

	if err := Validate(cfg); err != nil {
		return nil, "", err
	}

	return cfg, absPath, nil
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) || c.BaseDir == "" {
		return path
	}
	return filepath.Join(c.BaseDir, path)
}

// Validate reports every problem in cfg at once
func Validate(cfg *Config) error {
	var errs []string

	if len(cfg.Run.Extensions) == 0 {
		errs = append(errs, "run.extensions must list at least one extension")
	}
	for _, ext := range cfg.Run.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			errs = append(errs, fmt.Sprintf("run.extensions: %q must start with a dot", ext))
		}
	}

	if cfg.REPL.HistoryLimit < 0 {
		errs = append(errs, fmt.Sprintf("repl.history_limit must be 0 or more, got %d", cfg.REPL.HistoryLimit))
	}

	if d, err := cfg.DebounceDuration(); err != nil {
		errs = append(errs, fmt.Sprintf("watch.debounce: invalid duration %q", cfg.Watch.Debounce))
	} else if d <= 0 {
		errs = append(errs, fmt.Sprintf("watch.debounce must be positive, got %s", cfg.Watch.Debounce))
	}

	if strings.TrimSpace(cfg.Output.Print) == "" {
		errs = append(errs, "output.print must be stdout, stderr or a file path")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// resolveConfigPath finds the config file to use
func resolveConfigPath(explicit string, getenv func(string) string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	// Try ALETHIA_CONFIG environment variable
	if envPath := getenv("ALETHIA_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("ALETHIA_CONFIG file not found: %s", envPath)
		}
		return envPath, nil
	}

	// Try ./alethia.yaml
	if _, err := os.Stat("alethia.yaml"); err == nil {
		return "alethia.yaml", nil
	}

	// Try ~/.config/alethia/alethia.yaml
	home, err := os.UserHomeDir()
	if err == nil {
		xdgPath := filepath.Join(home, ".config", "alethia", "alethia.yaml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath, nil
		}
	}

	return "", errNoConfig
}

// envPattern matches ${VAR} or ${VAR:-default}
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// interpolateEnv replaces ${VAR} and ${VAR:-default} patterns with environment values.
func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		value := getenv(string(parts[1]))
		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}
		return []byte(value)
	})
}
