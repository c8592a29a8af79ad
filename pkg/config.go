package dupefind

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-ini/ini"
)

// Config represents the dupefind configuration
type Config struct {
	configPath string
	ini        *ini.File
}

// FilterConfig represents the size stage bounds
type FilterConfig struct {
	MinSize int64 // Exclusive lower bound in bytes
	MaxSize int64 // Exclusive upper bound in bytes
}

// HashConfig represents fingerprint configuration
type HashConfig struct {
	Default string // Hash algorithm name
	Window  int64  // Bytes sampled from each end
	Verify  bool   // Run the full-content stage
}

// OutputConfig represents output format configuration
type OutputConfig struct {
	Format string // human, json, yaml, fdupes
}

// VerboseConfig represents verbosity configuration
type VerboseConfig struct {
	Level int    // 0=quiet, 1=basic, 2=detailed, 3=trace
	Debug string // Comma-separated debug flags
}

// PerformanceConfig represents performance-related configuration
type PerformanceConfig struct {
	HashWorkers int // Concurrent fingerprint workers, 1 is sequential
}

// AllConfig represents all configuration options
type AllConfig struct {
	Filter      *FilterConfig
	Hash        *HashConfig
	Output      *OutputConfig
	Verbose     *VerboseConfig
	Performance *PerformanceConfig
}

// NewDefaultConfig returns a configuration holding only the built-in defaults
func NewDefaultConfig() *Config {
	cfg := &Config{ini: ini.Empty()}
	cfg.setDefaults()
	return cfg
}

// LoadConfig loads configuration from an ini file layered over the defaults.
// An empty path returns the defaults. A named file that does not exist is an error.
func LoadConfig(configPath string) (*Config, error) {
	cfg := NewDefaultConfig()
	if configPath == "" {
		return cfg, nil
	}

	if _, err := os.Stat(configPath); err != nil {
		return nil, &ConfigError{Field: "config", Reason: err.Error()}
	}
	if err := cfg.ini.Append(configPath); err != nil {
		return nil, &ConfigError{Field: "config", Reason: fmt.Sprintf("failed to load config file: %v", err)}
	}
	cfg.configPath = configPath
	VerboseLog(2, "Loaded config from %s", configPath)
	return cfg, nil
}

// setDefaults sets default configuration values
func (c *Config) setDefaults() {
	defaults := []struct{ section, key, value string }{
		{"filter", "minsize", strconv.FormatInt(DefaultMinSize, 10)},
		{"filter", "maxsize", strconv.FormatInt(DefaultMaxSize, 10)},
		{"filehash", "default", DefaultHashAlgorithm},
		{"filehash", "window", strconv.FormatInt(DefaultWindowSize, 10)},
		{"filehash", "verify", "false"},
		{"output", "format", FormatHuman},
		{"verbose", "level", "0"},
		{"verbose", "debug", ""},
		{"performance", "hash_workers", "1"},
	}
	for _, d := range defaults {
		c.ini.Section(d.section).Key(d.key).SetValue(d.value)
	}
}

// Path returns the file the configuration was loaded from, if any
func (c *Config) Path() string {
	return c.configPath
}

func (c *Config) sizeKey(section, key string, fallback int64) int64 {
	value := c.ini.Section(section).Key(key).String()
	if value == "" {
		return fallback
	}
	size, err := ParseHumanSize(value)
	if err != nil {
		return fallback
	}
	return size
}

// GetFilterConfig returns the size filter configuration
func (c *Config) GetFilterConfig() *FilterConfig {
	return &FilterConfig{
		MinSize: c.sizeKey("filter", "minsize", DefaultMinSize),
		MaxSize: c.sizeKey("filter", "maxsize", DefaultMaxSize),
	}
}

// GetHashConfig returns the hash configuration
func (c *Config) GetHashConfig() *HashConfig {
	section := c.ini.Section("filehash")
	hashConfig := &HashConfig{
		Default: section.Key("default").MustString(DefaultHashAlgorithm),
		Window:  c.sizeKey("filehash", "window", DefaultWindowSize),
		Verify:  section.Key("verify").MustBool(false),
	}
	return hashConfig
}

// GetOutputConfig returns the output configuration
func (c *Config) GetOutputConfig() *OutputConfig {
	return &OutputConfig{
		Format: c.ini.Section("output").Key("format").MustString(FormatHuman),
	}
}

// GetVerboseConfig returns the verbose configuration
func (c *Config) GetVerboseConfig() *VerboseConfig {
	section := c.ini.Section("verbose")
	return &VerboseConfig{
		Level: section.Key("level").MustInt(0),
		Debug: section.Key("debug").String(),
	}
}

// GetPerformanceConfig returns the performance configuration
func (c *Config) GetPerformanceConfig() *PerformanceConfig {
	return &PerformanceConfig{
		HashWorkers: c.ini.Section("performance").Key("hash_workers").MustInt(1),
	}
}

// GetAllConfig returns all configuration options
func (c *Config) GetAllConfig() *AllConfig {
	return &AllConfig{
		Filter:      c.GetFilterConfig(),
		Hash:        c.GetHashConfig(),
		Output:      c.GetOutputConfig(),
		Verbose:     c.GetVerboseConfig(),
		Performance: c.GetPerformanceConfig(),
	}
}

// Set stores a raw value, e.g. Set("filter", "minsize", "8K")
func (c *Config) Set(section, key, value string) {
	c.ini.Section(section).Key(key).SetValue(value)
}

// WriteTo writes the effective configuration in ini form
func (c *Config) WriteTo(w io.Writer) (int64, error) {
	return c.ini.WriteTo(w)
}

// overrideKeys maps override names to their section and key
var overrideKeys = map[string][2]string{
	"minsize":      {"filter", "minsize"},
	"maxsize":      {"filter", "maxsize"},
	"default":      {"filehash", "default"},
	"hash":         {"filehash", "default"},
	"window":       {"filehash", "window"},
	"verify":       {"filehash", "verify"},
	"format":       {"output", "format"},
	"level":        {"verbose", "level"},
	"debug":        {"verbose", "debug"},
	"hash_workers": {"performance", "hash_workers"},
}

// ApplyOverrides applies command-line overrides to the configuration
// Accepts strings like "minsize:8K", "hash:sha256", "format:json", "level:2"
func (c *Config) ApplyOverrides(overrides []string) error {
	for _, override := range overrides {
		parts := strings.SplitN(override, ":", 2)
		if len(parts) != 2 {
			return &ConfigError{Field: "override", Reason: fmt.Sprintf("invalid override format '%s', expected 'key:value'", override)}
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		target, ok := overrideKeys[key]
		if !ok {
			return &ConfigError{Field: "override", Reason: fmt.Sprintf("unsupported override key '%s' (supported: minsize, maxsize, hash, window, verify, format, level, debug, hash_workers)", key)}
		}
		c.ini.Section(target[0]).Key(target[1]).SetValue(value)
	}

	return nil
}

// Validate checks every section, returning the first problem as a ConfigError
func (c *Config) Validate() error {
	for _, check := range []struct {
		section, key string
	}{
		{"filter", "minsize"},
		{"filter", "maxsize"},
		{"filehash", "window"},
	} {
		value := c.ini.Section(check.section).Key(check.key).String()
		if _, err := ParseHumanSize(value); err != nil {
			return &ConfigError{Field: check.key, Reason: err.Error()}
		}
	}
	for _, check := range []struct{ section, key string }{
		{"verbose", "level"},
		{"performance", "hash_workers"},
	} {
		if _, err := c.ini.Section(check.section).Key(check.key).Int(); err != nil {
			return &ConfigError{Field: check.key, Reason: fmt.Sprintf("not an integer: %q", c.ini.Section(check.section).Key(check.key).String())}
		}
	}
	if _, err := c.ini.Section("filehash").Key("verify").Bool(); err != nil {
		return &ConfigError{Field: "verify", Reason: fmt.Sprintf("not a boolean: %q", c.ini.Section("filehash").Key("verify").String())}
	}

	all := c.GetAllConfig()
	if err := ValidateSizeBounds(all.Filter.MinSize, all.Filter.MaxSize); err != nil {
		return err
	}
	if err := ValidateWindowSize(all.Hash.Window); err != nil {
		return err
	}
	if err := ValidateHashAlgorithm(all.Hash.Default); err != nil {
		return &ConfigError{Field: "hash", Reason: err.Error()}
	}
	if err := ValidateOutputFormat(all.Output.Format); err != nil {
		return err
	}
	if err := ValidateVerboseLevel(all.Verbose.Level); err != nil {
		return err
	}
	return ValidateHashWorkers(all.Performance.HashWorkers)
}

// ValidateSizeBounds checks the exclusive size bounds
func ValidateSizeBounds(minSize, maxSize int64) error {
	if minSize < 0 {
		return &ConfigError{Field: "minsize", Reason: fmt.Sprintf("must not be negative, got %d", minSize)}
	}
	if minSize >= maxSize {
		return &ConfigError{Field: "maxsize", Reason: fmt.Sprintf("must be greater than minsize (%d >= %d)", minSize, maxSize)}
	}
	return nil
}

// ValidateWindowSize checks the fingerprint window size
func ValidateWindowSize(window int64) error {
	if window <= 0 || window > MaxWindowSize {
		return &ConfigError{Field: "window", Reason: fmt.Sprintf("must be between 1 and %d bytes, got %d", MaxWindowSize, window)}
	}
	return nil
}

// ValidateOutputFormat validates that an output format is supported
func ValidateOutputFormat(format string) error {
	switch strings.ToLower(format) {
	case FormatHuman, FormatJSON, FormatYAML, FormatFdupes:
		return nil
	default:
		return &ConfigError{Field: "format", Reason: fmt.Sprintf("unsupported output format: %s (supported: human, json, yaml, fdupes)", format)}
	}
}

// ValidateVerboseLevel validates that a verbose level is valid
func ValidateVerboseLevel(level int) error {
	if level < 0 || level > 3 {
		return &ConfigError{Field: "level", Reason: fmt.Sprintf("invalid verbose level: %d (supported: 0-3)", level)}
	}
	return nil
}

// ValidateHashWorkers validates that the hash worker count is reasonable
func ValidateHashWorkers(workers int) error {
	if workers < 1 {
		return &ConfigError{Field: "hash_workers", Reason: fmt.Sprintf("must be at least 1, got: %d", workers)}
	}
	if workers > 64 {
		return &ConfigError{Field: "hash_workers", Reason: fmt.Sprintf("should not exceed 64, got: %d", workers)}
	}
	return nil
}
