/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/wpilogviewer/pkg/codec"
	"github.com/ssargent/wpilogviewer/pkg/logging"
)

// Config represents the wpilog viewer configuration
type Config struct {
	Logging Logging `yaml:"logging"`
	Decode  Decode  `yaml:"decode"`
	Print   Print   `yaml:"print"`
	Server  Server  `yaml:"server"`
	Export  Export  `yaml:"export"`
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"` // silent, quiet, normal or verbose
}

// Decode controls how logs are decoded
type Decode struct {
	UTF8             string `yaml:"utf8"` // lenient or strict
	ProgressInterval uint64 `yaml:"progress_interval"`
	BufferSize       int    `yaml:"buffer_size"`
}

// Print controls the print command's output
type Print struct {
	Topic   string `yaml:"topic"`
	Control bool   `yaml:"control"`
	Values  bool   `yaml:"values"`
}

// Server contains HTTP server configuration
type Server struct {
	Bind           string   `yaml:"bind"`
	Port           int      `yaml:"port"`
	APIKey         string   `yaml:"api_key"` // empty disables authentication
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Export contains snapshot export configuration
type Export struct {
	Dir string `yaml:"dir"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Logging: Logging{
			Level: logging.Normal.String(),
		},
		Decode: Decode{
			UTF8:             codec.UTF8Lenient.String(),
			ProgressInterval: 10_000,
			BufferSize:       64 * 1024,
		},
		Print: Print{
			Control: true,
			Values:  true,
		},
		Server: Server{
			Bind:           "127.0.0.1",
			Port:           8080,
			AllowedOrigins: []string{"*"},
		},
		Export: Export{
			Dir: "./wpilog-data",
		},
	}
}

// Validate checks that enumerated fields hold known values.
func (c *Config) Validate() error {
	var errs []error
	if _, err := logging.ParseVerbosity(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if _, err := codec.ParseUTF8Policy(c.Decode.UTF8); err != nil {
		errs = append(errs, fmt.Errorf("decode.utf8: %w", err))
	}
	if c.Decode.BufferSize < 0 {
		errs = append(errs, fmt.Errorf("decode.buffer_size must not be negative"))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	return errors.Join(errs...)
}

// Verbosity returns the parsed logging level.
func (c *Config) Verbosity() (logging.Verbosity, error) {
	return logging.ParseVerbosity(c.Logging.Level)
}

// UTF8Policy returns the parsed decode policy.
func (c *Config) UTF8Policy() (codec.UTF8Policy, error) {
	return codec.ParseUTF8Policy(c.Decode.UTF8)
}

// LoadConfig loads configuration from the specified path. Fields missing
// from the file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}
	return config, nil
}

// SaveConfig writes config to configPath, creating its directory. The file
// is only readable by its owner since it may hold an API key.
func SaveConfig(config *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := marshal(config)
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Write encodes config as YAML to w.
func Write(w io.Writer, config *Config) error {
	data, err := marshal(config)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func marshal(config *Config) ([]byte, error) {
	data, err := yaml.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// GenerateSecureKey returns length random bytes, hex encoded.
func GenerateSecureKey(length int) (string, error) {
	key := make([]byte, length)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// BootstrapConfig writes a default configuration to configPath. With
// withAPIKey set, the server section gets a freshly generated API key.
func BootstrapConfig(configPath string, withAPIKey bool) (*Config, error) {
	config := DefaultConfig()
	if withAPIKey {
		key, err := GenerateSecureKey(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate API key: %w", err)
		}
		config.Server.APIKey = key
	}

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}
	return config, nil
}

// EnvConfigPath names the environment variable that overrides the default
// configuration path.
const EnvConfigPath = "WPILOG_CONFIG"

// GetDefaultConfigPath returns $WPILOG_CONFIG when set, otherwise
// wpilog/config.yaml under the user configuration directory.
func GetDefaultConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "./wpilog.yaml"
	}
	return filepath.Join(dir, "wpilog", "config.yaml")
}

// ConfigExists reports whether a file exists at configPath.
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !errors.Is(err, os.ErrNotExist)
}
