package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Studio   StudioConfig   `toml:"studio"`
	Engine   EngineConfig   `toml:"engine"`
	Physics  PhysicsConfig  `toml:"physics"`
	Database DatabaseConfig `toml:"database"`
	Scripts  ScriptsConfig  `toml:"scripts"`
	Logging  LoggingConfig  `toml:"logging"`
}

type StudioConfig struct {
	Name      string `toml:"name"`
	StartTime int64  // set at boot, not from config
}

type EngineConfig struct {
	TickRate time.Duration `toml:"tick_rate"`
}

type PhysicsConfig struct {
	GravityX float64 `toml:"gravity_x"`
	GravityY float64 `toml:"gravity_y"`
	GravityZ float64 `toml:"gravity_z"`
	Substeps int     `toml:"substeps"`
}

type DatabaseConfig struct {
	// DSN empty disables snapshot persistence.
	DSN             string        `toml:"dsn"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type ScriptsConfig struct {
	Dir string `toml:"dir"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Studio.StartTime = time.Now().Unix()
	return cfg, nil
}

// Defaults returns the built-in configuration, used when no config file
// exists.
func Defaults() *Config {
	cfg := defaults()
	cfg.Studio.StartTime = time.Now().Unix()
	return cfg
}

func defaults() *Config {
	return &Config{
		Studio: StudioConfig{
			Name: "orbitforge",
		},
		Engine: EngineConfig{
			TickRate: 16 * time.Millisecond, // ~60 fps
		},
		Physics: PhysicsConfig{
			GravityY: -9.81,
			Substeps: 4,
		},
		Database: DatabaseConfig{
			DSN:             "",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Scripts: ScriptsConfig{
			Dir: "scripts/behaviors",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
