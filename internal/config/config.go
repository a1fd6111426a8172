// Package config provides YAML-based configuration with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override, e.g. EHCP_SERVER_PORT.
const EnvPrefix = "EHCP"

// AppConfig represents the root configuration structure
type AppConfig struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Storage    StorageConfig    `yaml:"storage" envconfig:"STORAGE"`
	Processing ProcessingConfig `yaml:"processing" envconfig:"PROCESSING"`
	Security   SecurityConfig   `yaml:"security" envconfig:"SECURITY"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	BindAddress  string `yaml:"bind_address" envconfig:"BIND_ADDRESS"`
	EnableCORS   bool   `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	AllowOrigins string `yaml:"allow_origins" envconfig:"ALLOW_ORIGINS"`
	ReadTimeout  int    `yaml:"read_timeout_seconds" envconfig:"READ_TIMEOUT_SECONDS" validate:"min=0"`
	WriteTimeout int    `yaml:"write_timeout_seconds" envconfig:"WRITE_TIMEOUT_SECONDS" validate:"min=0"`
	IdleTimeout  int    `yaml:"idle_timeout_seconds" envconfig:"IDLE_TIMEOUT_SECONDS" validate:"min=0"`
	BodyLimit    string `yaml:"body_limit" envconfig:"BODY_LIMIT" validate:"required"`
}

// StorageConfig contains staged upload settings
type StorageConfig struct {
	DataDirectory    string `yaml:"data_directory" envconfig:"DATA_DIRECTORY" validate:"required"`
	UploadsDirectory string `yaml:"uploads_directory" envconfig:"UPLOADS_DIRECTORY" validate:"required"`
}

// ProcessingConfig contains upload retention and response settings
type ProcessingConfig struct {
	UploadRetentionMinutes int  `yaml:"upload_retention_minutes" envconfig:"UPLOAD_RETENTION_MINUTES" validate:"min=1"`
	CleanupIntervalMinutes int  `yaml:"cleanup_interval_minutes" envconfig:"CLEANUP_INTERVAL_MINUTES" validate:"min=1"`
	EnableCompression      bool `yaml:"enable_compression" envconfig:"ENABLE_COMPRESSION"`
	CompressionLevel       int  `yaml:"compression_level" envconfig:"COMPRESSION_LEVEL" validate:"min=-1,max=9"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	AllowFileDeletion bool `yaml:"allow_file_deletion" envconfig:"ALLOW_FILE_DELETION"`
}

// LoggingConfig controls the process logger
type LoggingConfig struct {
	Level                string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format               string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	EnableRequestLogging bool   `yaml:"enable_request_logging" envconfig:"ENABLE_REQUEST_LOGGING"`
	// Development exposes internal error details in API responses.
	Development bool `yaml:"development" envconfig:"DEVELOPMENT"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8089,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "64M",
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
		},
		Processing: ProcessingConfig{
			UploadRetentionMinutes: 60,
			CleanupIntervalMinutes: 5,
			EnableCompression:      true,
			CompressionLevel:       5,
		},
		Security: SecurityConfig{
			AllowFileDeletion: true,
		},
		Logging: LoggingConfig{
			Level:                "info",
			Format:               "text",
			EnableRequestLogging: true,
		},
	}
}

// LoadConfig loads configuration from a YAML file, writing the defaults there
// first if the file does not exist.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to a YAML file
func (c *AppConfig) Save(configPath string) error {
	output, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# EHCP Review Report Service configuration\n# This file is auto-generated on first run\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks field constraints.
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if !filepath.IsAbs(c.Storage.DataDirectory) {
		c.Storage.DataDirectory = filepath.Join(configDir, c.Storage.DataDirectory)
	}
	if !filepath.IsAbs(c.Storage.UploadsDirectory) {
		c.Storage.UploadsDirectory = filepath.Join(configDir, c.Storage.UploadsDirectory)
	}
}

// GetDataDir returns the absolute data directory path
func (c *AppConfig) GetDataDir() string {
	return c.Storage.DataDirectory
}

// GetUploadDir returns the absolute uploads directory path
func (c *AppConfig) GetUploadDir() string {
	return c.Storage.UploadsDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// UploadRetention is how long a staged upload is kept.
func (c *AppConfig) UploadRetention() time.Duration {
	return time.Duration(c.Processing.UploadRetentionMinutes) * time.Minute
}

// CleanupInterval is the period of the staged upload sweep.
func (c *AppConfig) CleanupInterval() time.Duration {
	return time.Duration(c.Processing.CleanupIntervalMinutes) * time.Minute
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
