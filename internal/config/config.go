// Package config loads the lattice host configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Workers int           `mapstructure:"workers"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Store   StoreConfig   `mapstructure:"store"`
	Physics PhysicsConfig `mapstructure:"physics"`
	// Commands is the path of the launcher commands file used by Browse.
	Commands string `mapstructure:"commands"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type HTTPConfig struct {
	Addr    string        `mapstructure:"addr"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type StoreConfig struct {
	Driver string      `mapstructure:"driver"`
	Path   string      `mapstructure:"path"`
	Redis  RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type PhysicsConfig struct {
	Gravity  []float64 `mapstructure:"gravity"`
	TimeStep float64   `mapstructure:"timestep"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Log:     LogConfig{Level: "info", Format: "text"},
		Workers: 4,
		HTTP:    HTTPConfig{Addr: ":8080", Timeout: 30 * time.Second},
		Store: StoreConfig{
			Driver: DriverMemory,
			Path:   ".lattice/snapshots",
			Redis:  RedisConfig{Addr: "localhost:6379", Prefix: "lattice:snapshot:"},
		},
		Physics: PhysicsConfig{
			Gravity:  []float64{0, -9.81, 0},
			TimeStep: 1.0 / 60.0,
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return Decode(raw)
}

// Decode applies raw over the defaults. Unknown keys are rejected.
func Decode(raw map[string]any) (Config, error) {
	cfg := Default()
	if len(raw) > 0 {
		// Replace rather than merge list values.
		if _, ok := physicsKey(raw, "gravity"); ok {
			cfg.Physics.Gravity = nil
		}

		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &cfg,
			ErrorUnused:      true,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		})
		if err != nil {
			return Config{}, err
		}
		if err := decoder.Decode(raw); err != nil {
			return Config{}, fmt.Errorf("invalid config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func physicsKey(raw map[string]any, key string) (any, bool) {
	section, ok := raw["physics"].(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := section[key]
	return v, ok
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("invalid log format %q", c.Log.Format))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.HTTP.Timeout < 0 {
		errs = append(errs, fmt.Errorf("http timeout must not be negative"))
	}
	switch c.Store.Driver {
	case DriverMemory, DriverFile, DriverRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	if len(c.Physics.Gravity) != 3 {
		errs = append(errs, fmt.Errorf("physics gravity needs 3 components, got %d", len(c.Physics.Gravity)))
	}
	if c.Physics.TimeStep <= 0 {
		errs = append(errs, fmt.Errorf("physics timestep must be positive"))
	}
	return errors.Join(errs...)
}

// Level returns the parsed log level.
func (c Config) Level() slog.Level {
	level, _ := logging.ParseLevel(c.Log.Level)
	return level
}

// Logger builds the application logger.
func (c Config) Logger() *slog.Logger {
	return logging.New(c.Level(), c.Log.Format)
}
