package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override. Nested keys use a double
// underscore: TRANSFORM_HTTP__ADDR sets http.addr.
const EnvPrefix = "TRANSFORM_"

type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type RuntimeConfig struct {
	Shards  int    `koanf:"shards"`
	Bundles string `koanf:"bundles"`
}

type LogConfig struct {
	Level       string `koanf:"level"`
	Development bool   `koanf:"development"`
	File        string `koanf:"file"`
}

type Config struct {
	HTTP    HTTPConfig    `koanf:"http"`
	Runtime RuntimeConfig `koanf:"runtime"`
	Log     LogConfig     `koanf:"log"`
}

func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            ":2017",
			ShutdownTimeout: 10 * time.Second,
		},
		Runtime: RuntimeConfig{
			Shards:  1,
			Bundles: "bundles",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load merges the defaults, the YAML file at path (if set) and the
// environment. A path that does not exist is an error. The result is not
// validated, callers apply their overrides first and then call Validate.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

func (c Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr cannot be empty")
	}
	if c.Runtime.Shards < 1 {
		return fmt.Errorf("runtime.shards cannot be smaller than 1")
	}
	if c.Runtime.Bundles == "" {
		return fmt.Errorf("runtime.bundles cannot be empty")
	}
	return nil
}
