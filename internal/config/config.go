// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/sentinel-syx/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete sentinel configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Completion CompletionConfig `toml:"completion" json:"completion"`
	Search     SearchConfig     `toml:"search" json:"search"`
	Assistant  AssistantConfig  `toml:"assistant" json:"assistant"`
	Storage    StorageConfig    `toml:"storage" json:"storage"`
	Log        LogConfig        `toml:"log" json:"log"`
}

// CompletionConfig configures the chat-completion endpoint.
type CompletionConfig struct {
	// BaseURL is the API root; "/chat/completions" is appended.
	BaseURL string `toml:"base_url" json:"base_url"`
	// Model is the model identifier sent with every request.
	Model string `toml:"model" json:"model"`
	// Temperature is the sampling temperature, 0.0 to 1.0.
	Temperature float64 `toml:"temperature" json:"temperature"`
	// MaxTokens caps the size of each reply.
	MaxTokens int `toml:"max_tokens" json:"max_tokens"`
	// TimeoutSecs bounds a single completion request.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// SearchConfig configures the web-search endpoint.
type SearchConfig struct {
	BaseURL string `toml:"base_url" json:"base_url"`
	// Country is the "gl" parameter (e.g. "us").
	Country string `toml:"country" json:"country"`
	// Language is the "hl" parameter (e.g. "en").
	Language string `toml:"language" json:"language"`
	// NumResults is the "num" parameter.
	NumResults  int `toml:"num_results" json:"num_results"`
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// RequestsPerSecond throttles searches client-side (0 = unlimited).
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
}

// AssistantConfig configures how the assistant presents itself.
type AssistantConfig struct {
	// Name labels assistant lines in the UI and in exports.
	Name string `toml:"name" json:"name"`
	// Tone adds a tone instruction to every request unless "professional".
	Tone string `toml:"tone" json:"tone"`
}

// StorageConfig locates the local key/value store holding the API keys.
type StorageConfig struct {
	// Backend is "sqlite" or "bolt".
	Backend string `toml:"backend" json:"backend"`
	// Path to the store file (empty = ~/.sentinel/localstore.db).
	Path string `toml:"path" json:"path"`
}

// LogConfig configures the application log.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error, disabled.
	Level string `toml:"level" json:"level"`
	// File is the log file (empty = ~/.sentinel/sentinel.log).
	File string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// DefaultAssistantName is the label shown for assistant messages.
const DefaultAssistantName = "S.E.N.T.I.N.E.L S.Y.X"

// DefaultTone needs no extra instruction.
const DefaultTone = "professional"

// Tones lists the accepted values for assistant.tone.
var Tones = []string{"professional", "friendly", "casual", "formal", "concise", "humorous"}

// StorageBackends lists the accepted values for storage.backend.
var StorageBackends = []string{"sqlite", "bolt"}

// LogLevels lists the accepted values for log.level.
var LogLevels = []string{"trace", "debug", "info", "warn", "error", "disabled"}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1",

		Completion: CompletionConfig{
			BaseURL:     "https://api.deepseek.com/v1",
			Model:       "deepseek-chat",
			Temperature: 0.7,
			MaxTokens:   2000,
			TimeoutSecs: 60,
		},

		Search: SearchConfig{
			BaseURL:     "https://google.serper.dev",
			Country:     "us",
			Language:    "en",
			NumResults:  5,
			TimeoutSecs: 15,
		},

		Assistant: AssistantConfig{
			Name: DefaultAssistantName,
			Tone: DefaultTone,
		},

		Storage: StorageConfig{
			Backend: "sqlite",
		},

		Log: LogConfig{
			Level: "info",
		},
	}
}

// CompletionTimeout returns the completion timeout as a duration.
func (c *Config) CompletionTimeout() time.Duration {
	return time.Duration(c.Completion.TimeoutSecs) * time.Second
}

// SearchTimeout returns the search timeout as a duration.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.Search.TimeoutSecs) * time.Second
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the sentinel configuration directory path. The
// SENTINEL_HOME environment variable overrides ~/.sentinel.
func ConfigDir() (string, error) {
	if dir := os.Getenv("SENTINEL_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".sentinel"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o700)
}

// StorePath returns the local store location, resolving the default.
func (c *Config) StorePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "localstore.db"), nil
}

// LogPath returns the log file location, resolving the default.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sentinel.log"), nil
}

// ensureSecurePermissions tightens the config file to 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		if err := os.Chmod(path, 0o600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads the default config file if it exists, otherwise the built-in
// defaults. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPathTOML()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr == nil {
		return LoadFromPath(path)
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific TOML or JSON file.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := loadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := loadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadTOML decodes a TOML file over cfg; keys missing from the file keep
// their current values.
func loadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func loadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// SetDefaults fills zero values that would otherwise fail validation.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Completion.BaseURL == "" {
		c.Completion.BaseURL = d.Completion.BaseURL
	}
	if c.Completion.Model == "" {
		c.Completion.Model = d.Completion.Model
	}
	if c.Completion.MaxTokens == 0 {
		c.Completion.MaxTokens = d.Completion.MaxTokens
	}
	if c.Completion.TimeoutSecs == 0 {
		c.Completion.TimeoutSecs = d.Completion.TimeoutSecs
	}
	if c.Search.BaseURL == "" {
		c.Search.BaseURL = d.Search.BaseURL
	}
	if c.Search.Country == "" {
		c.Search.Country = d.Search.Country
	}
	if c.Search.Language == "" {
		c.Search.Language = d.Search.Language
	}
	if c.Search.NumResults == 0 {
		c.Search.NumResults = d.Search.NumResults
	}
	if c.Search.TimeoutSecs == 0 {
		c.Search.TimeoutSecs = d.Search.TimeoutSecs
	}
	if c.Assistant.Name == "" {
		c.Assistant.Name = d.Assistant.Name
	}
	if c.Assistant.Tone == "" {
		c.Assistant.Tone = d.Assistant.Tone
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# sentinel configuration file\n")
	buf.WriteString("# API keys are not stored here; run `sentinel setup`.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0o600, 0o700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if err := validateHTTPURL(c.Completion.BaseURL); err != nil {
		add("completion.base_url", "%v", err)
	}
	if c.Completion.Model == "" {
		add("completion.model", "must not be empty")
	}
	if c.Completion.Temperature < 0 || c.Completion.Temperature > 1 {
		add("completion.temperature", "must be between 0.0 and 1.0, got %g", c.Completion.Temperature)
	}
	if c.Completion.MaxTokens <= 0 {
		add("completion.max_tokens", "must be positive, got %d", c.Completion.MaxTokens)
	}
	if c.Completion.TimeoutSecs <= 0 {
		add("completion.timeout_secs", "must be positive, got %d", c.Completion.TimeoutSecs)
	}

	if err := validateHTTPURL(c.Search.BaseURL); err != nil {
		add("search.base_url", "%v", err)
	}
	if c.Search.NumResults < 1 || c.Search.NumResults > 100 {
		add("search.num_results", "must be between 1 and 100, got %d", c.Search.NumResults)
	}
	if c.Search.TimeoutSecs <= 0 {
		add("search.timeout_secs", "must be positive, got %d", c.Search.TimeoutSecs)
	}
	if c.Search.RequestsPerSecond < 0 {
		add("search.requests_per_second", "must not be negative")
	}

	if strings.TrimSpace(c.Assistant.Name) == "" {
		add("assistant.name", "must not be empty")
	}
	if !contains(Tones, c.Assistant.Tone) {
		add("assistant.tone", "must be one of %s", strings.Join(Tones, ", "))
	}
	if !contains(StorageBackends, c.Storage.Backend) {
		add("storage.backend", "must be one of %s", strings.Join(StorageBackends, ", "))
	}
	if !contains(LogLevels, c.Log.Level) {
		add("log.level", "must be one of %s", strings.Join(LogLevels, ", "))
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must be an http(s) URL, got %q", raw)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies SENTINEL_* environment variables. Unparseable
// numeric values are ignored.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SENTINEL_COMPLETION_URL"); v != "" {
		c.Completion.BaseURL = v
	}
	if v := os.Getenv("SENTINEL_MODEL"); v != "" {
		c.Completion.Model = v
	}
	if v := os.Getenv("SENTINEL_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Completion.Temperature = f
		}
	}
	if v := os.Getenv("SENTINEL_SEARCH_URL"); v != "" {
		c.Search.BaseURL = v
	}
	if v := os.Getenv("SENTINEL_TONE"); v != "" {
		c.Assistant.Tone = strings.ToLower(v)
	}
	if v := os.Getenv("SENTINEL_STORE"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("SENTINEL_STORE_BACKEND"); v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("SENTINEL_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a value by its dotted TOML key (e.g. "completion.model").
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns a value by its dotted TOML key, converting from string.
// The result is not validated; call Validate before saving.
func (c *Config) Set(key, value string) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: invalid integer value %q", key, value)
		}
		field.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s: invalid number %q", key, value)
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: invalid boolean %q", key, value)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("%s: unsupported field type %s", key, field.Type())
	}
	return nil
}

// lookup walks the struct by toml tags.
func (c *Config) lookup(key string) (reflect.Value, error) {
	parts := strings.Split(key, ".")
	v := reflect.ValueOf(c).Elem()

	for i, part := range parts {
		field, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown config key: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("%s is a section, not a key", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("%s is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if tomlName(t.Field(i)) == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func tomlName(f reflect.StructField) string {
	tag := f.Tag.Get("toml")
	if idx := strings.IndexByte(tag, ','); idx >= 0 {
		tag = tag[:idx]
	}
	return tag
}

// GetAllKeys returns every settable key in dot notation, sorted.
func GetAllKeys() []string {
	var keys []string
	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name := prefix + tomlName(f)
			if f.Type.Kind() == reflect.Struct {
				walk(f.Type, name+".")
				continue
			}
			keys = append(keys, name)
		}
	}
	walk(reflect.TypeOf(Config{}), "")
	sort.Strings(keys)
	return keys
}

// String renders the config as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}
