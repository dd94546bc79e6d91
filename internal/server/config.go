package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete server configuration.
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Games  []GameConfig   `hcl:"game,block"`
}

// ServerSettings contains server-level configuration.
type ServerSettings struct {
	Address        string `hcl:"address,optional"`
	Port           int    `hcl:"port,optional"`
	LogLevel       string `hcl:"log_level,optional"`
	HistoryDir     string `hcl:"history_dir,optional"`
	MaxIdleMinutes int    `hcl:"max_idle_minutes,optional"`
}

// GameConfig configures one hosted game.
type GameConfig struct {
	Name string `hcl:"name,label"`

	// Players is the default player count for matches of this game; 0
	// takes the game's minimum.
	Players int `hcl:"players,optional"`

	// AutoCreate starts one match of this game at boot.
	AutoCreate bool `hcl:"auto_create,optional"`
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:        "localhost",
			Port:           8080,
			LogLevel:       "info",
			MaxIdleMinutes: 60,
		},
		Games: []GameConfig{
			{Name: "tictactoe", AutoCreate: true},
		},
	}
}

// LoadConfig loads server configuration from an HCL file. A missing file
// yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	if config.Server.Address == "" {
		config.Server.Address = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}
	if config.Server.MaxIdleMinutes == 0 {
		config.Server.MaxIdleMinutes = 60
	}
	if len(config.Games) == 0 {
		config.Games = DefaultConfig().Games
	}

	return &config, nil
}

// Validate validates the server configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Server.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}

	if c.Server.MaxIdleMinutes < 0 {
		return fmt.Errorf("max_idle_minutes must not be negative")
	}

	seen := map[string]bool{}
	for _, game := range c.Games {
		if game.Name == "" {
			return fmt.Errorf("game block requires a name label")
		}
		if seen[game.Name] {
			return fmt.Errorf("game %s: configured twice", game.Name)
		}
		seen[game.Name] = true
		if game.Players < 0 {
			return fmt.Errorf("game %s: players must not be negative", game.Name)
		}
	}

	return nil
}

// ListenAddress returns the full server address.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// MaxIdle returns the idle-match expiry duration; zero disables expiry.
func (c *Config) MaxIdle() time.Duration {
	return time.Duration(c.Server.MaxIdleMinutes) * time.Minute
}

// GameByName returns a game configuration by name.
func (c *Config) GameByName(name string) *GameConfig {
	for i := range c.Games {
		if c.Games[i].Name == name {
			return &c.Games[i]
		}
	}
	return nil
}
