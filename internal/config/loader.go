package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "ROOMRELAY"

// Load builds configuration from defaults, an optional config file and env
// vars, and returns the resolved file path ("" when no file is used).
// Precedence: defaults < config file < env vars < caller overrides.
//
// An empty path means no file. A path that does not exist yet gets a file
// holding the defaults.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("max_clients", cfg.MaxClients)
	v.SetDefault("max_rooms", cfg.MaxRooms)
	v.SetDefault("rooms", cfg.Rooms)
	v.SetDefault("handshake", cfg.Handshake)
	v.SetDefault("chunk_size", cfg.ChunkSize)
	v.SetDefault("max_file_size", cfg.MaxFileSize)
	v.SetDefault("queue_size", cfg.QueueSize)
	v.SetDefault("idle_timeout", cfg.IdleTimeout)
	v.SetDefault("write_timeout", cfg.WriteTimeout)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("admin_addr", cfg.AdminAddr)
	v.SetDefault("shutdown_timeout", cfg.ShutdownTimeout)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := explicitPath
	if configPath != "" {
		if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
			if err := writeDefaultConfig(configPath, cfg); err != nil {
				return cfg, configPath, fmt.Errorf("write default config: %w", err)
			}
			if logger != nil {
				logger.Info().Str("path", configPath).Msg("created default config")
			}
		}
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return cfg, configPath, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, configPath, nil
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
