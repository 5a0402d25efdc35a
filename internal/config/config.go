// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

const (
	// DefaultBaseURL is the provider API root used when base_url is not set.
	DefaultBaseURL = "https://api.openai.com/v1"

	// MaxTemperature is the upper bound accepted for temperature.
	MaxTemperature = 2.0
)

var (
	// ErrNotFound is returned by Load when the resolved file does not exist.
	ErrNotFound = errors.New("config file not found")

	// ErrMalformed wraps TOML syntax and type errors.
	ErrMalformed = errors.New("malformed config file")
)

// Config is the validated configuration record shared by every request.
type Config struct {
	// APIKey is the bearer credential sent with every request.
	APIKey string `toml:"api_key"`
	// Model is the model identifier, embedded verbatim in the payload.
	Model string `toml:"model"`
	// MaxTokens bounds the generated completion.
	MaxTokens int64 `toml:"max_tokens"`
	// Temperature is the sampling temperature (0..2).
	Temperature float64 `toml:"temperature"`

	// BaseURL is the API root; the chat-completion path is appended to it.
	BaseURL string `toml:"base_url"`

	// Optional sampling knobs. Nil means "do not send".
	TopP             *float64 `toml:"top_p"`
	PresencePenalty  *float64 `toml:"presence_penalty"`
	FrequencyPenalty *float64 `toml:"frequency_penalty"`

	// RequestTimeoutSecs is a watchdog for one attempt, 0 disables it.
	RequestTimeoutSecs int `toml:"request_timeout_secs"`

	// path is the file the record was loaded from.
	path string
}

// RequestTimeout returns the per-attempt watchdog duration (0 = none).
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string {
	return c.path
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load resolves loc, decodes the TOML file and returns the validated record.
// Environment overrides are applied before validation.
func Load(loc Location) (*Config, error) {
	path, err := loc.Resolve()
	if err != nil {
		return nil, err
	}
	logrus.WithField("path", path).Debug("loading config")

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath decodes, overrides, defaults and validates the file at path.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrMalformed, path, err)
	}
	warnUndecoded(meta)
	cfg.path = path

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.validateDecoded(meta); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a TOML document held in memory. It applies defaults and
// validates, but does not consult the environment.
func Parse(contents string) (*Config, error) {
	cfg := &Config{}
	meta, err := toml.Decode(contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	warnUndecoded(meta)

	cfg.SetDefaults()
	if err := cfg.validateDecoded(meta); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func warnUndecoded(meta toml.MetaData) {
	undecoded := meta.Undecoded()
	if len(undecoded) == 0 {
		return
	}
	keys := make([]string, 0, len(undecoded))
	for _, k := range undecoded {
		keys = append(keys, k.String())
	}
	logrus.WithField("keys", strings.Join(keys, ",")).Warn("ignoring unknown config keys")
}

// validateDecoded runs Validate and also rejects a missing temperature,
// whose zero value is otherwise indistinguishable from an explicit 0.
func (c *Config) validateDecoded(meta toml.MetaData) error {
	var errs ValidateErrors
	if err := c.Validate(); err != nil {
		errs = err.(ValidateErrors)
	}
	if !meta.IsDefined("temperature") {
		errs = append(errs, ValidationError{Field: "temperature", Message: "must be set"})
	}
	if len(errs) > 0 {
		sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
		return errs
	}
	return nil
}

// SetDefaults fills optional fields that were left empty.
func (c *Config) SetDefaults() {
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.BaseURL), "/")
	c.APIKey = strings.TrimSpace(c.APIKey)
}

// ApplyEnvOverrides applies environment variable overrides:
//   - ATA_API_KEY, then OPENAI_API_KEY: overrides api_key
//   - ATA_MODEL: overrides model
//   - ATA_BASE_URL: overrides base_url
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("ATA_API_KEY"); key != "" {
		c.APIKey = key
	} else if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.APIKey == "" {
		c.APIKey = key
	}

	if model := os.Getenv("ATA_MODEL"); model != "" {
		c.Model = model
	}

	if base := os.Getenv("ATA_BASE_URL"); base != "" {
		c.BaseURL = base
	}
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
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every field and returns all problems at once.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.APIKey == "" {
		errs = append(errs, ValidationError{Field: "api_key", Message: "must not be empty"})
	}
	if strings.TrimSpace(c.Model) == "" {
		errs = append(errs, ValidationError{Field: "model", Message: "must not be empty"})
	}
	if c.MaxTokens <= 0 {
		errs = append(errs, ValidationError{
			Field:   "max_tokens",
			Message: fmt.Sprintf("must be positive, got %d", c.MaxTokens),
		})
	}
	if c.Temperature < 0 || c.Temperature > MaxTemperature {
		errs = append(errs, ValidationError{
			Field:   "temperature",
			Message: fmt.Sprintf("must be between 0 and %.0f, got %g", MaxTemperature, c.Temperature),
		})
	}
	if c.TopP != nil && (*c.TopP < 0 || *c.TopP > 1) {
		errs = append(errs, ValidationError{
			Field:   "top_p",
			Message: fmt.Sprintf("must be between 0 and 1, got %g", *c.TopP),
		})
	}
	for field, v := range map[string]*float64{
		"presence_penalty":  c.PresencePenalty,
		"frequency_penalty": c.FrequencyPenalty,
	} {
		if v != nil && (*v < -2 || *v > 2) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("must be between -2 and 2, got %g", *v),
			})
		}
	}
	if c.RequestTimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "request_timeout_secs",
			Message: fmt.Sprintf("must not be negative, got %d", c.RequestTimeoutSecs),
		})
	}
	if u, err := url.Parse(c.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "base_url",
			Message: fmt.Sprintf("must be an http(s) URL, got %q", c.BaseURL),
		})
	}

	if len(errs) > 0 {
		// Map iteration above is unordered.
		sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
		return errs
	}
	return nil
}

// =============================================================================
// DISPLAY
// =============================================================================

// KeyFingerprint returns the first 8 hex characters of the key's SHA-256.
func (c *Config) KeyFingerprint() string {
	if c.APIKey == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(c.APIKey))
	return hex.EncodeToString(h[:4])
}

// APIKeyMasked returns the key in a form safe to print or log.
// No fragment of the key is ever shown.
func (c *Config) APIKeyMasked() string {
	if c.APIKey == "" {
		return "[not set]"
	}
	return fmt.Sprintf("[REDACTED, length=%d, fingerprint=%s]", len(c.APIKey), c.KeyFingerprint())
}

// String renders the record for the start-up banner with the key masked.
func (c *Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "model: %s\n", c.Model)
	fmt.Fprintf(&b, "max_tokens: %d\n", c.MaxTokens)
	fmt.Fprintf(&b, "temperature: %g\n", c.Temperature)
	if c.TopP != nil {
		fmt.Fprintf(&b, "top_p: %g\n", *c.TopP)
	}
	if c.PresencePenalty != nil {
		fmt.Fprintf(&b, "presence_penalty: %g\n", *c.PresencePenalty)
	}
	if c.FrequencyPenalty != nil {
		fmt.Fprintf(&b, "frequency_penalty: %g\n", *c.FrequencyPenalty)
	}
	if c.BaseURL != DefaultBaseURL {
		fmt.Fprintf(&b, "base_url: %s\n", c.BaseURL)
	}
	if c.RequestTimeoutSecs > 0 {
		fmt.Fprintf(&b, "request_timeout_secs: %d\n", c.RequestTimeoutSecs)
	}
	fmt.Fprintf(&b, "api_key: %s", c.APIKeyMasked())
	return b.String()
}
