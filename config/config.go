// Package config loads and validates the masking configuration from
// masking_config.yaml, with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hannes/pii-mask/pii"
	"github.com/hannes/pii-mask/pii/operators"
)

// Environment variables recognized by FromEnv / ApplyEnv.
const (
	EnvLanguage       = "PII_LANGUAGE"
	EnvModelName      = "PII_MODEL_NAME"
	EnvScoreThreshold = "PII_SCORE_THRESHOLD"
	EnvEntityTypes    = "PII_ENTITY_TYPES"
)

// DefaultModelName selects the built-in morphological NER engine. A
// directory path containing model.onnx enables the ONNX detector
// instead.
const DefaultModelName = "kagome-ipa"

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Addr      string  `yaml:"addr"`
	RateLimit float64 `yaml:"rate_limit"` // requests per second, 0 disables limiting
	RateBurst int     `yaml:"rate_burst"`
}

// StoreConfig enables the persistent replacement mapping store.
// Lifetimes are plain integers so the YAML stays simple.
type StoreConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Database       string `yaml:"database"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	SSLMode        string `yaml:"ssl_mode"`
	MaxOpenConns   int    `yaml:"max_open_conns"`
	MaxIdleConns   int    `yaml:"max_idle_conns"`
	MaxLifetimeSec int    `yaml:"max_lifetime_seconds"`
	CleanupHours   int    `yaml:"cleanup_hours"`
}

// ToStoreConfig converts to the store package's connection settings.
func (s StoreConfig) ToStoreConfig() pii.StoreConfig {
	return pii.StoreConfig{
		Host:         s.Host,
		Port:         s.Port,
		Database:     s.Database,
		Username:     s.Username,
		Password:     s.Password,
		SSLMode:      s.SSLMode,
		MaxOpenConns: s.MaxOpenConns,
		MaxIdleConns: s.MaxIdleConns,
		MaxLifetime:  time.Duration(s.MaxLifetimeSec) * time.Second,
	}
}

// MaskingConfig is the root configuration: NLP engine selection,
// detection threshold, entity set, and per-entity anonymization
// operators. It is loaded once at startup and treated as immutable.
type MaskingConfig struct {
	Language        string                    `yaml:"language"`
	ModelName       string                    `yaml:"model_name"`
	ScoreThreshold  float64                   `yaml:"score_threshold"`
	EntityTypes     []string                  `yaml:"entity_types,omitempty"`
	Operators       map[string]operators.Spec `yaml:"operators,omitempty"`
	DefaultOperator operators.Spec            `yaml:"default_operator"`

	Server ServerConfig `yaml:"server,omitempty"`
	Store  StoreConfig  `yaml:"store,omitempty"`
}

// Default returns the built-in configuration.
func Default() *MaskingConfig {
	return &MaskingConfig{
		Language:        "ja",
		ModelName:       DefaultModelName,
		ScoreThreshold:  0.5,
		Operators:       map[string]operators.Spec{},
		DefaultOperator: operators.Spec{Operator: operators.KindReplace},
		Server: ServerConfig{
			Addr:      ":8080",
			RateLimit: 10,
			RateBurst: 20,
		},
		Store: StoreConfig{
			Host:           "localhost",
			Port:           5432,
			Database:       "piimask",
			Username:       "postgres",
			SSLMode:        "disable",
			MaxOpenConns:   25,
			MaxIdleConns:   25,
			MaxLifetimeSec: 300,
			CleanupHours:   24,
		},
	}
}

// FromFile loads the configuration from a YAML file on top of the
// defaults and validates it.
func FromFile(path string) (*MaskingConfig, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from the CLI user
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv returns the defaults with PII_* environment overrides applied.
func FromEnv() (*MaskingConfig, error) {
	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from PII_* environment variables.
func (c *MaskingConfig) ApplyEnv() error {
	if v := os.Getenv(EnvLanguage); v != "" {
		c.Language = v
	}
	if v := os.Getenv(EnvModelName); v != "" {
		c.ModelName = v
	}
	if v := os.Getenv(EnvScoreThreshold); v != "" {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvScoreThreshold, v, err)
		}
		c.ScoreThreshold = threshold
	}
	if v := os.Getenv(EnvEntityTypes); v != "" {
		c.EntityTypes = ParseEntityTypes(v)
	}
	return c.Validate()
}

// ParseEntityTypes splits a comma-separated entity type list, dropping
// empty elements.
func ParseEntityTypes(s string) []string {
	var types []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			types = append(types, trimmed)
		}
	}
	return types
}

// Validate checks thresholds and operator specs. Every entity type in
// EntityTypes resolves to an operator because the default always
// applies, so validation concerns the specs themselves.
func (c *MaskingConfig) Validate() error {
	if c.ScoreThreshold < 0 || c.ScoreThreshold > 1 {
		return fmt.Errorf("score_threshold must be between 0 and 1, got %g", c.ScoreThreshold)
	}
	for entityType, spec := range c.Operators {
		if err := operators.Validate(spec); err != nil {
			return fmt.Errorf("operator for %s: %w", entityType, err)
		}
	}
	if err := operators.Validate(c.DefaultOperator); err != nil {
		return fmt.Errorf("default_operator: %w", err)
	}
	return nil
}

// ResolveOperator returns the operator spec that applies to the given
// entity type.
func (c *MaskingConfig) ResolveOperator(entityType string) operators.Spec {
	if spec, ok := c.Operators[entityType]; ok {
		return spec
	}
	return c.DefaultOperator
}

// UseONNXModel reports whether ModelName points at an ONNX model
// directory rather than naming the built-in engine.
func (c *MaskingConfig) UseONNXModel() bool {
	if c.ModelName == "" || c.ModelName == DefaultModelName {
		return false
	}
	info, err := os.Stat(c.ModelName)
	return err == nil && info.IsDir()
}
