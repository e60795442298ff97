package server

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lox/blackjack/internal/game"
)

// Config represents the complete server configuration
type Config struct {
	Server ServerSettings
	Table  TableSettings
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address    string `hcl:"address,optional"`
	Port       int    `hcl:"port,optional"`
	LogLevel   string `hcl:"log_level,optional"`
	HistoryDir string `hcl:"history_dir,optional"`
}

// TableSettings applies to every room the server creates
type TableSettings struct {
	MaxPlayers         int  `hcl:"max_players,optional"`
	StartingBalance    uint `hcl:"starting_balance,optional"`
	ReshuffleThreshold int  `hcl:"reshuffle_threshold,optional"`
	TurnTimeoutSeconds int  `hcl:"turn_timeout_seconds,optional"`
	MaxRooms           int  `hcl:"max_rooms,optional"`
}

// TurnTimeout returns the turn timeout, zero when disabled
func (t TableSettings) TurnTimeout() time.Duration {
	return time.Duration(t.TurnTimeoutSeconds) * time.Second
}

// fileConfig mirrors Config with optional blocks for decoding
type fileConfig struct {
	Server *ServerSettings `hcl:"server,block"`
	Table  *TableSettings  `hcl:"table,block"`
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     3001,
			LogLevel: "info",
		},
		Table: TableSettings{
			MaxPlayers:         game.MaxPlayers,
			StartingBalance:    1000,
			ReshuffleThreshold: game.ReshuffleThreshold,
			MaxRooms:           100,
		},
	}
}

// LoadConfig loads server configuration from an HCL file. A missing file
// yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(src, filename)
}

// ParseConfig decodes HCL source, filling unset values from DefaultConfig
func ParseConfig(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &fc); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", formatDiags(diags))
	}

	config := DefaultConfig()
	if s := fc.Server; s != nil {
		if s.Address != "" {
			config.Server.Address = s.Address
		}
		if s.Port != 0 {
			config.Server.Port = s.Port
		}
		if s.LogLevel != "" {
			config.Server.LogLevel = s.LogLevel
		}
		config.Server.HistoryDir = s.HistoryDir
	}
	if t := fc.Table; t != nil {
		if t.MaxPlayers != 0 {
			config.Table.MaxPlayers = t.MaxPlayers
		}
		if t.StartingBalance != 0 {
			config.Table.StartingBalance = t.StartingBalance
		}
		if t.ReshuffleThreshold != 0 {
			config.Table.ReshuffleThreshold = t.ReshuffleThreshold
		}
		if t.MaxRooms != 0 {
			config.Table.MaxRooms = t.MaxRooms
		}
		config.Table.TurnTimeoutSeconds = t.TurnTimeoutSeconds
	}

	return config, nil
}

func formatDiags(diags hcl.Diagnostics) string {
	if len(diags) == 1 {
		return diags[0].Error()
	}
	return diags.Error()
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Server.LogLevel)
	}

	if c.Table.MaxPlayers < 1 || c.Table.MaxPlayers > game.MaxPlayers {
		return fmt.Errorf("table: max players must be between 1 and %d", game.MaxPlayers)
	}
	if c.Table.StartingBalance == 0 {
		return fmt.Errorf("table: starting balance must be positive")
	}
	if c.Table.ReshuffleThreshold < 0 || c.Table.ReshuffleThreshold > 52 {
		return fmt.Errorf("table: reshuffle threshold must be between 0 and 52")
	}
	if c.Table.TurnTimeoutSeconds < 0 {
		return fmt.Errorf("table: turn timeout must not be negative")
	}
	if c.Table.MaxRooms < 1 {
		return fmt.Errorf("table: max rooms must be positive")
	}

	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
