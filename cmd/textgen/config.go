package main

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DeepInfra DeepInfraConfig `yaml:"deepinfra"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tokenizer TokenizerConfig `yaml:"tokenizer"`
}

type DeepInfraConfig struct {
	EndpointUrl  string        `yaml:"endpoint_url" validate:"required,http_url"`
	ApiKey       string        `yaml:"api_key" validate:"required"`
	DialogueType string        `yaml:"dialogue_type"`
	System       string        `yaml:"system"`
	MaxLength    int           `yaml:"max_length" validate:"gt=0"`
	Timeout      time.Duration `yaml:"timeout" validate:"gte=0"`
}

type CacheConfig struct {
	Backend string        `yaml:"backend" validate:"oneof=none memory redis"`
	Ttl     time.Duration `yaml:"ttl" validate:"gte=0"`
	Redis   RedisConfig   `yaml:"redis"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr" validate:"required_if=Enabled true"`
	Password  string `yaml:"password"`
	Db        int    `yaml:"db"`
	Namespace string `yaml:"namespace"`

	// Enabled is derived from the cache backend.
	Enabled bool `yaml:"-"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format" validate:"oneof=json console"`
	// Output is a zap sink, a file path or "stderr".
	Output string `yaml:"output" validate:"required"`
}

type TokenizerConfig struct {
	// Encoding is a tiktoken encoding name. Tokens are counted on whitespace
	// when empty.
	Encoding string `yaml:"encoding"`
}

func DefaultConfig() *Config {
	return &Config{
		DeepInfra: DeepInfraConfig{
			DialogueType: "default",
			MaxLength:    1024,
			Timeout:      2 * time.Minute,
		},
		Cache: CacheConfig{
			Backend: "memory",
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				Namespace: "textgen",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
	}
}

// LoadConfig reads a YAML configuration file, expanding `${VAR}` references
// from the environment. An empty path only uses defaults and the environment.
//
// DEEPINFRA_ENDPOINT_URL and DEEPINFRA_API_KEY take precedence over the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "could not read configuration file")
		}

		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, errors.Wrap(err, "could not parse configuration file")
		}
	}

	if url, ok := os.LookupEnv("DEEPINFRA_ENDPOINT_URL"); ok {
		cfg.DeepInfra.EndpointUrl = url
	}
	if key, ok := os.LookupEnv("DEEPINFRA_API_KEY"); ok {
		cfg.DeepInfra.ApiKey = key
	}

	cfg.Cache.Redis.Enabled = cfg.Cache.Backend == "redis"

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return cfg, nil
}

func (c LoggingConfig) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, errors.Wrap(err, "invalid log level")
	}

	zcfg := zap.NewProductionConfig()

	if c.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}

	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{lo.CoalesceOrEmpty(c.Output, "stderr")}

	return zcfg.Build()
}
