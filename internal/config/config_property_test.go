package config

import (
	"strconv"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

// deserialize(serialize(config)) == config
func TestConfigRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("config round-trip preserves data", prop.ForAll(
		func(cfg *Config) bool {
			yamlBytes, err := cfg.Serialize()
			if err != nil {
				return false
			}
			parsed, err := ParseConfig(yamlBytes)
			if err != nil {
				return false
			}
			return assert.ObjectsAreEqual(cfg, parsed)
		},
		genConfig(),
	))

	properties.TestingRun(t)
}

// Every generated configuration passes validation.
func TestGeneratedConfigsAreValidProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("generated configs validate", prop.ForAll(
		func(cfg *Config) bool {
			return cfg.Validate() == nil
		},
		genConfig(),
	))

	properties.TestingRun(t)
}

func genConfig() gopter.Gen {
	return gopter.CombineGens(
		genServerConfig(),
		genCompilerConfig(),
		genLoggingConfig(),
	).Map(func(values []interface{}) *Config {
		return &Config{
			Server:   values[0].(ServerConfig),
			Compiler: values[1].(CompilerConfig),
			Logging:  values[2].(LoggingConfig),
		}
	})
}

func genServerConfig() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(1024, 65535),
		gen.IntRange(1, 120),
		gen.Bool(),
		gen.IntRange(1, 1<<20),
	).Map(func(values []interface{}) ServerConfig {
		return ServerConfig{
			Address:      ":" + strconv.Itoa(values[0].(int)),
			ReadTimeout:  time.Duration(values[1].(int)) * time.Second,
			WriteTimeout: time.Duration(values[1].(int)) * time.Second,
			EnableCORS:   values[2].(bool),
			AllowOrigins: []string{"*"},
			BodyLimit:    values[3].(int),
		}
	})
}

func genCompilerConfig() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(1, 1<<20),
		gen.Int64Range(0, 1<<40),
		gen.IntRange(1, 60000),
	).Map(func(values []interface{}) CompilerConfig {
		return CompilerConfig{
			MaxSourceBytes: values[0].(int),
			MaxIterations:  values[1].(int64),
			Timeout:        time.Duration(values[2].(int)) * time.Millisecond,
		}
	})
}

func genLoggingConfig() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf("debug", "info", "warn", "error"),
		gen.OneConstOf("json", "console"),
		gen.OneConstOf("stderr", "stdout"),
	).Map(func(values []interface{}) LoggingConfig {
		return LoggingConfig{
			Level:      values[0].(string),
			Format:     values[1].(string),
			Output:     values[2].(string),
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
		}
	})
}
