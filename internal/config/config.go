package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	// Room hub bounds.
	MaxUsersPerRoom  int `mapstructure:"max_users_per_room" yaml:"max_users_per_room"`
	HistoryLimit     int `mapstructure:"history_limit" yaml:"history_limit"`
	MaxDanmakuLength int `mapstructure:"max_danmaku_length" yaml:"max_danmaku_length"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		MaxUsersPerRoom:   200,
		HistoryLimit:      50,
		MaxDanmakuLength:  64,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.MaxUsersPerRoom != 0 {
		c.MaxUsersPerRoom = other.MaxUsersPerRoom
	}
	if other.HistoryLimit != 0 {
		c.HistoryLimit = other.HistoryLimit
	}
	if other.MaxDanmakuLength != 0 {
		c.MaxDanmakuLength = other.MaxDanmakuLength
	}
}
