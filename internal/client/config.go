package client

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lox/blackjack/internal/bot"
)

// Config represents the complete bot client configuration
type Config struct {
	Server ServerConnection
	Player PlayerSettings
}

// ServerConnection contains server connection settings
type ServerConnection struct {
	URL            string
	ConnectTimeout int
}

// PlayerSettings controls how the bot plays
type PlayerSettings struct {
	Name     string
	Room     string
	Bet      uint
	Strategy string
	Rounds   int
	// DelayMillis is the pause before the bot deals the next round
	DelayMillis int
}

// ConnectTimeoutDuration returns the dial timeout
func (c *Config) ConnectTimeoutDuration() time.Duration {
	return time.Duration(c.Server.ConnectTimeout) * time.Second
}

// Delay returns the pause before dealing
func (p PlayerSettings) Delay() time.Duration {
	return time.Duration(p.DelayMillis) * time.Millisecond
}

// fileConfig mirrors Config with optional blocks for HCL decoding
type fileConfig struct {
	Server *struct {
		URL            *string `hcl:"url,optional"`
		ConnectTimeout *int    `hcl:"connect_timeout,optional"`
	} `hcl:"server,block"`
	Player *struct {
		Name        *string `hcl:"name,optional"`
		Room        *string `hcl:"room,optional"`
		Bet         *uint   `hcl:"bet,optional"`
		Strategy    *string `hcl:"strategy,optional"`
		Rounds      *int    `hcl:"rounds,optional"`
		DelayMillis *int    `hcl:"delay_ms,optional"`
	} `hcl:"player,block"`
}

// DefaultConfig returns default client configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConnection{
			URL:            "ws://localhost:3001/ws",
			ConnectTimeout: 10,
		},
		Player: PlayerSettings{
			Name:        "bot",
			Room:        "lobby",
			Bet:         10,
			Strategy:    "chart",
			DelayMillis: 500,
		},
	}
}

// LoadConfig loads client configuration from an HCL file. A missing file
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

// ParseConfig decodes HCL source over the defaults
func ParseConfig(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &fc); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config := DefaultConfig()
	if s := fc.Server; s != nil {
		setIf(&config.Server.URL, s.URL)
		setIf(&config.Server.ConnectTimeout, s.ConnectTimeout)
	}
	if p := fc.Player; p != nil {
		setIf(&config.Player.Name, p.Name)
		setIf(&config.Player.Room, p.Room)
		setIf(&config.Player.Bet, p.Bet)
		setIf(&config.Player.Strategy, p.Strategy)
		setIf(&config.Player.Rounds, p.Rounds)
		setIf(&config.Player.DelayMillis, p.DelayMillis)
	}
	return config, nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Validate validates the client configuration
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server URL is required")
	}
	if _, err := websocketURL(c.Server.URL); err != nil {
		return err
	}

	if c.Player.Name == "" {
		return fmt.Errorf("player name is required")
	}

	if c.Player.Room == "" {
		return fmt.Errorf("room is required")
	}

	if c.Player.Bet == 0 {
		return fmt.Errorf("bet must be positive")
	}

	if err := bot.Validate(c.Player.Strategy); err != nil {
		return err
	}

	if c.Player.Rounds < 0 {
		return fmt.Errorf("rounds cannot be negative")
	}

	if c.Player.DelayMillis < 0 {
		return fmt.Errorf("delay cannot be negative")
	}

	if c.Server.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive")
	}

	return nil
}
