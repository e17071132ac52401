// Package config handles alethia.yaml configuration.
package config

import (
	"slices"
	"time"
)

// Config is the root configuration
type Config struct {
	BaseDir string `yaml:"-"` // directory of the config file, for relative paths

	REPL   REPLConfig   `yaml:"repl"`
	Run    RunConfig    `yaml:"run"`
	Watch  WatchConfig  `yaml:"watch"`
	Output OutputConfig `yaml:"output"`
}

// REPLConfig holds interactive session settings
type REPLConfig struct {
	Prompt             string `yaml:"prompt"`
	ContinuationPrompt string `yaml:"continuation_prompt"`
	HistoryFile        string `yaml:"history_file"`  // empty means the temp dir
	HistoryLimit       int    `yaml:"history_limit"` // 0 keeps everything
	Banner             bool   `yaml:"banner"`
}

// RunConfig controls which files are accepted as programs
type RunConfig struct {
	Extensions        StringOrSlice `yaml:"extensions"`         // ".at" or a list
	MarkdownLanguages StringOrSlice `yaml:"markdown_languages"` // fence languages run in .md files
}

// WatchConfig holds --watch settings
type WatchConfig struct {
	Debounce string `yaml:"debounce"` // Go duration, e.g. "100ms"
}

// OutputConfig routes program output
type OutputConfig struct {
	Print string `yaml:"print"` // "stdout", "stderr" or a file path
}

// Output destinations with special meaning
const (
	OutputStdout = "stdout"
	OutputStderr = "stderr"
)

// Defaults returns a config with default values
func Defaults() *Config {
	return &Config{
		REPL: REPLConfig{
			Prompt:             "> ",
			ContinuationPrompt: ".. ",
			HistoryLimit:       1000,
			Banner:             true,
		},
		Run: RunConfig{
			Extensions:        StringOrSlice{".at"},
			MarkdownLanguages: StringOrSlice{"alethia", "at"},
		},
		Watch: WatchConfig{
			Debounce: "100ms",
		},
		Output: OutputConfig{
			Print: OutputStdout,
		},
	}
}

// DebounceDuration parses watch.debounce
func (c *Config) DebounceDuration() (time.Duration, error) {
	return time.ParseDuration(c.Watch.Debounce)
}

// StringOrSlice supports YAML fields that can be either a string or a slice of strings
type StringOrSlice []string

// UnmarshalYAML implements yaml.Unmarshaler to handle both string and []string
func (s *StringOrSlice) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*s = []string{single}
		return nil
	}

	var slice []string
	if err := unmarshal(&slice); err != nil {
		return err
	}
	*s = slice
	return nil
}

// Contains checks if the slice contains the given string
func (s StringOrSlice) Contains(str string) bool {
	return slices.Contains(s, str)
}
