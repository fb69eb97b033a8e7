package main

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

const (
	envConfigDefaultPath = "HUDDLE_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "config.yaml"
)

// Config holds client configuration values.
type Config struct {
	ServerURL string `mapstructure:"server_url" yaml:"server_url"`
	APIURL    string `mapstructure:"api_url" yaml:"api_url"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	CredsPath string `mapstructure:"creds_path" yaml:"creds_path"`
}

// defaultConfig returns configuration with reasonable starter defaults.
func defaultConfig() Config {
	return Config{
		ServerURL: "ws://localhost:8080/ws",
		APIURL:    "http://localhost:8080/api",
		LogLevel:  "info",
		CredsPath: defaultCredsPath(),
	}
}

func defaultCredsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "credentials.yaml"
	}
	return filepath.Join(home, ".huddle", "credentials.yaml")
}

// loadConfig builds configuration from defaults, optional config file, and env vars.
// Precedence: defaults < config file < env vars < flags (applied by the caller).
func loadConfig(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := defaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("server_url", cfg.ServerURL)
	v.SetDefault("api_url", cfg.APIURL)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("creds_path", cfg.CredsPath)

	v.SetEnvPrefix("HUDDLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := resolveConfigPath(explicitPath)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			if writeErr := writeDefaultConfig(configPath, cfg); writeErr != nil && logger != nil {
				logger.Warn().Err(writeErr).Str("path", configPath).Msg("failed to write default config")
			} else if logger != nil {
				logger.Info().Str("path", configPath).Msg("created default config")
			}
		} else {
			return cfg, configPath, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, configPath, nil
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(home, ".huddle", defaultConfigName)
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
