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
	Game   GameSettings   `hcl:"game,block"`
	Pacing PacingSettings `hcl:"pacing,block"`
}

// ServerSettings contains transport-level configuration.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	DBPath   string `hcl:"db_path,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// GameSettings contains match rules configuration.
type GameSettings struct {
	TargetScore    int `hcl:"target_score,optional"`
	RoomTTLMinutes int `hcl:"room_ttl_minutes,optional"`
}

// PacingSettings controls how quickly automated seats act. The post-trick
// pause exists so clients can animate the trick capture before the next card.
type PacingSettings struct {
	ThinkEasyMs      int `hcl:"think_easy_ms,optional"`
	ThinkMediumMs    int `hcl:"think_medium_ms,optional"`
	ThinkHardMs      int `hcl:"think_hard_ms,optional"`
	DisconnectedMs   int `hcl:"disconnected_ms,optional"`
	PostTrickPauseMs int `hcl:"post_trick_pause_ms,optional"`
	HandOverPauseMs  int `hcl:"hand_over_pause_ms,optional"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  ":8080",
			DBPath:   "euchred.db",
			LogLevel: "info",
		},
		Game: GameSettings{
			TargetScore:    10,
			RoomTTLMinutes: 60,
		},
		Pacing: PacingSettings{
			ThinkEasyMs:      1600,
			ThinkMediumMs:    1300,
			ThinkHardMs:      1050,
			DisconnectedMs:   900,
			PostTrickPauseMs: 2300,
			HandOverPauseMs:  3600,
		},
	}
}

// LoadConfig loads configuration from an HCL file, falling back to defaults
// when the file does not exist.
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

	defaults := DefaultConfig()
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.DBPath == "" {
		config.Server.DBPath = defaults.Server.DBPath
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Game.TargetScore == 0 {
		config.Game.TargetScore = defaults.Game.TargetScore
	}
	if config.Game.RoomTTLMinutes == 0 {
		config.Game.RoomTTLMinutes = defaults.Game.RoomTTLMinutes
	}
	if config.Pacing.ThinkEasyMs == 0 {
		config.Pacing.ThinkEasyMs = defaults.Pacing.ThinkEasyMs
	}
	if config.Pacing.ThinkMediumMs == 0 {
		config.Pacing.ThinkMediumMs = defaults.Pacing.ThinkMediumMs
	}
	if config.Pacing.ThinkHardMs == 0 {
		config.Pacing.ThinkHardMs = defaults.Pacing.ThinkHardMs
	}
	if config.Pacing.DisconnectedMs == 0 {
		config.Pacing.DisconnectedMs = defaults.Pacing.DisconnectedMs
	}
	if config.Pacing.PostTrickPauseMs == 0 {
		config.Pacing.PostTrickPauseMs = defaults.Pacing.PostTrickPauseMs
	}
	if config.Pacing.HandOverPauseMs == 0 {
		config.Pacing.HandOverPauseMs = defaults.Pacing.HandOverPauseMs
	}

	return &config, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Game.TargetScore < 1 {
		return fmt.Errorf("target_score must be positive, got %d", c.Game.TargetScore)
	}
	if c.Game.RoomTTLMinutes < 1 {
		return fmt.Errorf("room_ttl_minutes must be positive, got %d", c.Game.RoomTTLMinutes)
	}
	for name, v := range map[string]int{
		"think_easy_ms":       c.Pacing.ThinkEasyMs,
		"think_medium_ms":     c.Pacing.ThinkMediumMs,
		"think_hard_ms":       c.Pacing.ThinkHardMs,
		"disconnected_ms":     c.Pacing.DisconnectedMs,
		"post_trick_pause_ms": c.Pacing.PostTrickPauseMs,
		"hand_over_pause_ms":  c.Pacing.HandOverPauseMs,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, v)
		}
	}
	return nil
}

// RoomTTL returns the idle lifetime after which rooms are reaped.
func (c *Config) RoomTTL() time.Duration {
	return time.Duration(c.Game.RoomTTLMinutes) * time.Minute
}
