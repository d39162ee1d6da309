// Package config loads PowLang service configuration from defaults, a YAML
// file and POW_ environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/powlang/powlang/internal/logger"
)

// Config represents the complete configuration of the PowLang service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Compiler CompilerConfig `yaml:"compiler"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address      string        `yaml:"address" env:"POW_SERVER_ADDRESS"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"POW_SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"POW_SERVER_WRITE_TIMEOUT"`
	EnableCORS   bool          `yaml:"enable_cors" env:"POW_SERVER_ENABLE_CORS"`
	AllowOrigins []string      `yaml:"allow_origins" env:"POW_SERVER_ALLOW_ORIGINS"`
	BodyLimit    int           `yaml:"body_limit" env:"POW_SERVER_BODY_LIMIT"`
}

// CompilerConfig bounds the work a single request may cause.
type CompilerConfig struct {
	MaxSourceBytes int           `yaml:"max_source_bytes" env:"POW_COMPILER_MAX_SOURCE_BYTES"`
	MaxIterations  int64         `yaml:"max_iterations" env:"POW_COMPILER_MAX_ITERATIONS"`
	Timeout        time.Duration `yaml:"timeout" env:"POW_COMPILER_TIMEOUT"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `yaml:"level" env:"POW_LOG_LEVEL"`
	Format     string `yaml:"format" env:"POW_LOG_FORMAT"`
	Output     string `yaml:"output" env:"POW_LOG_OUTPUT"`
	FilePath   string `yaml:"file_path" env:"POW_LOG_FILE_PATH"`
	MaxSize    int    `yaml:"max_size" env:"POW_LOG_MAX_SIZE"`
	MaxBackups int    `yaml:"max_backups" env:"POW_LOG_MAX_BACKUPS"`
	MaxAge     int    `yaml:"max_age" env:"POW_LOG_MAX_AGE"`
}

// LoggerConfig converts the section into the logger package's Config.
func (c LoggingConfig) LoggerConfig() *logger.Config {
	return &logger.Config{
		Level:      c.Level,
		Format:     c.Format,
		Output:     c.Output,
		FilePath:   c.FilePath,
		MaxSize:    c.MaxSize,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAge,
	}
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:      ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			EnableCORS:   true,
			AllowOrigins: []string{"*"},
			BodyLimit:    256 * 1024,
		},
		Compiler: CompilerConfig{
			MaxSourceBytes: 64 * 1024,
			MaxIterations:  1_000_000,
			Timeout:        5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			Output:     "stderr",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
		},
	}
}

// Loader handles configuration loading from multiple sources.
type Loader struct {
	configPath string
	lookupEnv  func(string) (string, bool)
}

// NewLoader creates a new configuration loader reading the process environment.
func NewLoader() *Loader {
	return &Loader{lookupEnv: os.LookupEnv}
}

// WithConfigPath sets the path to the YAML configuration file.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnv replaces the environment lookup, mainly for tests.
func (l *Loader) WithEnv(lookup func(string) (string, bool)) *Loader {
	l.lookupEnv = lookup
	return l
}

// Load loads configuration with precedence defaults < YAML file < environment.
// A missing file is not an error.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := applyEnvToStruct(reflect.ValueOf(cfg).Elem(), l.lookupEnv); err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", l.configPath, err)
	}
	return nil
}

// applyEnvToStruct recursively applies environment variables to fields with
// an env tag.
func applyEnvToStruct(v reflect.Value, lookup func(string) (string, bool)) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(time.Duration(0)) {
			if err := applyEnvToStruct(field, lookup); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}
		envValue, ok := lookup(envTag)
		if !ok || envValue == "" {
			continue
		}
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("%s: %w", envTag, err)
		}
	}
	return nil
}

// setFieldValue sets a reflect.Value from a string value.
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return fmt.Errorf("field cannot be set")
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", field.Type().Elem().Kind())
		}
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		field.Set(reflect.ValueOf(parts))

	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}
	return nil
}

// Serialize serializes the configuration to YAML bytes.
func (c *Config) Serialize() ([]byte, error) {
	return yaml.Marshal(c)
}

// ParseConfig parses a YAML configuration on top of the defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file path and the environment.
func LoadFromFile(path string) (*Config, error) {
	return NewLoader().WithConfigPath(path).Load()
}
