package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/powlang/powlang/internal/logger"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration and returns ValidationErrors listing
// every problem, or nil.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	if c.Server.Address == "" {
		add("server.address", "address is required")
	} else if _, _, err := net.SplitHostPort(c.Server.Address); err != nil {
		add("server.address", "invalid address format, expected host:port or :port")
	}
	if c.Server.ReadTimeout < 0 {
		add("server.read_timeout", "read timeout must be non-negative")
	}
	if c.Server.WriteTimeout < 0 {
		add("server.write_timeout", "write timeout must be non-negative")
	}
	if c.Server.BodyLimit <= 0 {
		add("server.body_limit", "body limit must be positive")
	}

	if c.Compiler.MaxSourceBytes <= 0 {
		add("compiler.max_source_bytes", "max source bytes must be positive")
	}
	if c.Compiler.MaxIterations < 0 {
		add("compiler.max_iterations", "max iterations must be non-negative")
	}
	if c.Compiler.Timeout <= 0 {
		add("compiler.timeout", "timeout must be positive")
	}

	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		add("logging.level", err.Error())
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		add("logging.format", "format must be json or console")
	}
	switch c.Logging.Output {
	case "", "stderr", "stdout":
	case "file", "both":
		if c.Logging.FilePath == "" {
			add("logging.file_path", "file path is required for file output")
		}
	default:
		add("logging.output", "output must be stderr, stdout, file or both")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
