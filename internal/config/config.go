package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	HandshakeHello = "hello"
	HandshakeRaw   = "raw"
)

// Config holds server configuration values.
type Config struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	MaxClients      int           `mapstructure:"max_clients" yaml:"max_clients"`
	MaxRooms        int           `mapstructure:"max_rooms" yaml:"max_rooms"`
	Rooms           []string      `mapstructure:"rooms" yaml:"rooms"`
	Handshake       string        `mapstructure:"handshake" yaml:"handshake"`
	ChunkSize       int           `mapstructure:"chunk_size" yaml:"chunk_size"`
	MaxFileSize     uint64        `mapstructure:"max_file_size" yaml:"max_file_size"`
	QueueSize       int           `mapstructure:"queue_size" yaml:"queue_size"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat       string        `mapstructure:"log_format" yaml:"log_format"`
	AdminAddr       string        `mapstructure:"admin_addr" yaml:"admin_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Host:            "",
		Port:            9000,
		MaxClients:      100,
		MaxRooms:        10,
		Rooms:           []string{"General"},
		Handshake:       HandshakeHello,
		ChunkSize:       1024,
		QueueSize:       64,
		WriteTimeout:    10 * time.Second,
		LogLevel:        "info",
		LogFormat:       "console",
		ShutdownTimeout: 5 * time.Second,
	}
}

// Addr is the TCP listen address for the chat listener.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MaxClients <= 0 {
		errs = append(errs, errors.New("max_clients must be positive"))
	}
	if c.MaxRooms <= 0 {
		errs = append(errs, errors.New("max_rooms must be positive"))
	}
	if len(c.Rooms) == 0 {
		errs = append(errs, errors.New("at least one room is required"))
	}
	if len(c.Rooms) > c.MaxRooms {
		errs = append(errs, fmt.Errorf("%d rooms configured but max_rooms is %d", len(c.Rooms), c.MaxRooms))
	}
	if c.Handshake != HandshakeHello && c.Handshake != HandshakeRaw {
		errs = append(errs, fmt.Errorf("handshake must be %q or %q, got %q", HandshakeHello, HandshakeRaw, c.Handshake))
	}
	if c.ChunkSize <= 0 || c.ChunkSize > 1024 {
		errs = append(errs, fmt.Errorf("chunk_size must be in 1..1024, got %d", c.ChunkSize))
	}
	if c.QueueSize <= 0 {
		errs = append(errs, errors.New("queue_size must be positive"))
	}
	if c.IdleTimeout < 0 || c.WriteTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	return errors.Join(errs...)
}
