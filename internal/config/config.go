package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/instget/instget/internal/logger"
)

// Config is the effective configuration produced by merging all layers.
// It is validated once by Resolve and never mutated afterwards.
type Config struct {
	// InstallURL is the primary location of the installer script.
	InstallURL string `yaml:"install_url"`
	// BackupURL is tried when every attempt against InstallURL fails.
	// Empty disables the fallback.
	BackupURL string `yaml:"backup_url"`
	// VerifySSL toggles TLS certificate validation for downloads.
	VerifySSL bool `yaml:"verify_ssl"`
	// MaxDownloadSize is a size token (e.g. "10M") capping the artifact size.
	MaxDownloadSize string `yaml:"max_download_size"`
	// DownloadTimeout is the total download timeout in seconds.
	DownloadTimeout int `yaml:"download_timeout"`
	// NetworkRetries is the number of attempts per URL.
	NetworkRetries int `yaml:"network_retries"`
	// ConnectTimeout is the connection establishment timeout in seconds.
	ConnectTimeout int `yaml:"connect_timeout"`
	// CheckSystemCompatibility toggles the host requirements check.
	CheckSystemCompatibility bool `yaml:"check_system_compatibility"`
	// SupportedOS lists OS identifiers the installer is known to work on.
	// The check is advisory only.
	SupportedOS []string `yaml:"supported_os"`
	// MinDiskSpaceMB is the required free space under the temp root, in MiB.
	MinDiskSpaceMB int64 `yaml:"min_disk_space_mb"`
	// MinRAMMB is the advisory minimum of available memory, in MiB.
	MinRAMMB int64 `yaml:"min_ram_mb"`
	// LogLevel is the minimum log level (debug, info, warn, error, fatal).
	LogLevel string `yaml:"log_level"`
}

const (
	// DefaultSharedConfigPath is the well-known location of the shared configuration file.
	DefaultSharedConfigPath = "/etc/instget/instget.conf"

	// UserConfigFilename is the per-user configuration file name under the home directory.
	UserConfigFilename = ".instget.conf"

	// MinDownloadTimeout is the lowest accepted download timeout in seconds.
	MinDownloadTimeout = 5

	// MinNetworkRetries is the lowest accepted number of attempts per URL.
	MinNetworkRetries = 1
)

// ErrInvalid indicates a malformed configuration file or a merged value
// that fails validation. It is fatal and never auto-corrected.
var ErrInvalid = errors.New("invalid configuration")

// Defaults returns the built-in configuration layer.
func Defaults() *Config {
	return &Config{
		InstallURL:               "https://get.acme-agent.io/install.sh",
		BackupURL:                "https://mirror.acme-agent.io/install.sh",
		VerifySSL:                true,
		MaxDownloadSize:          "10M",
		DownloadTimeout:          30,
		NetworkRetries:           3,
		ConnectTimeout:           10,
		CheckSystemCompatibility: true,
		SupportedOS:              []string{"ubuntu", "debian", "centos", "rhel", "fedora"},
		MinDiskSpaceMB:           100,
		MinRAMMB:                 512,
		LogLevel:                 "info",
	}
}

// Resolve merges the built-in defaults with the shared and per-user
// configuration files and validates the result. Missing files are skipped;
// malformed files or invalid merged values are fatal.
func Resolve(ctx context.Context, sharedPath string) (*Config, error) {
	if sharedPath == "" {
		sharedPath = DefaultSharedConfigPath
	}

	cfg := Defaults()

	layers := []string{sharedPath}
	if userPath := userConfigPath(ctx); userPath != "" {
		layers = append(layers, userPath)
	}

	for _, path := range layers {
		if _, err := os.Stat(path); err != nil {
			logger.DebugKV(ctx, "Configuration file not present, skipping layer", "file", path)
			continue
		}

		values, err := godotenv.Read(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %v: %w", path, err, ErrInvalid)
		}

		if err = applyValues(ctx, cfg, values, path); err != nil {
			return nil, err
		}

		logger.DebugKV(ctx, "Applied configuration layer", "file", path)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the merged configuration against the documented minimums.
func Validate(cfg *Config) error {
	if !isHTTPURL(cfg.InstallURL) {
		return fmt.Errorf("INSTALL_URL %q must start with http:// or https://: %w", cfg.InstallURL, ErrInvalid)
	}

	if cfg.BackupURL != "" && !isHTTPURL(cfg.BackupURL) {
		return fmt.Errorf("BACKUP_URL %q must start with http:// or https://: %w", cfg.BackupURL, ErrInvalid)
	}

	if cfg.DownloadTimeout < MinDownloadTimeout {
		return fmt.Errorf("DOWNLOAD_TIMEOUT %d is below the minimum of %d seconds: %w",
			cfg.DownloadTimeout, MinDownloadTimeout, ErrInvalid)
	}

	if cfg.NetworkRetries < MinNetworkRetries {
		return fmt.Errorf("NETWORK_RETRIES %d is below the minimum of %d: %w",
			cfg.NetworkRetries, MinNetworkRetries, ErrInvalid)
	}

	if cfg.ConnectTimeout < 0 {
		return fmt.Errorf("CONNECT_TIMEOUT %d must not be negative: %w", cfg.ConnectTimeout, ErrInvalid)
	}

	if _, err := ParseSize(cfg.MaxDownloadSize); err != nil {
		return fmt.Errorf("MAX_DOWNLOAD_SIZE: %v: %w", err, ErrInvalid)
	}

	if cfg.MinDiskSpaceMB < 0 || cfg.MinRAMMB < 0 {
		return fmt.Errorf("MIN_DISK_SPACE_MB and MIN_RAM_MB must not be negative: %w", ErrInvalid)
	}

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("LOG_LEVEL %q is not a known level: %w", cfg.LogLevel, ErrInvalid)
	}

	return nil
}

// MaxDownloadBytes returns the size cap as an exact byte count.
func (c *Config) MaxDownloadBytes() (int64, error) {
	return ParseSize(c.MaxDownloadSize)
}

// YAML renders the effective configuration for the `config` subcommand.
func (c *Config) YAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal configuration: %w", err)
	}

	return string(data), nil
}

// applyValues overwrites configuration fields from one file's assignments.
// Unknown keys are reported but never fail the run.
func applyValues(ctx context.Context, cfg *Config, values map[string]string, source string) error {
	for key, value := range values {
		var err error

		switch key {
		case "INSTALL_URL":
			cfg.InstallURL = value
		case "BACKUP_URL":
			cfg.BackupURL = value
		case "VERIFY_SSL":
			cfg.VerifySSL, err = strconv.ParseBool(value)
		case "MAX_DOWNLOAD_SIZE":
			cfg.MaxDownloadSize = value
		case "DOWNLOAD_TIMEOUT":
			cfg.DownloadTimeout, err = strconv.Atoi(value)
		case "NETWORK_RETRIES":
			cfg.NetworkRetries, err = strconv.Atoi(value)
		case "CONNECT_TIMEOUT":
			cfg.ConnectTimeout, err = strconv.Atoi(value)
		case "CHECK_SYSTEM_COMPATIBILITY":
			cfg.CheckSystemCompatibility, err = strconv.ParseBool(value)
		case "SUPPORTED_OS":
			cfg.SupportedOS = strings.Fields(value)
		case "MIN_DISK_SPACE_MB":
			cfg.MinDiskSpaceMB, err = strconv.ParseInt(value, 10, 64)
		case "MIN_RAM_MB":
			cfg.MinRAMMB, err = strconv.ParseInt(value, 10, 64)
		case "LOG_LEVEL":
			cfg.LogLevel = value
		default:
			logger.WarnKV(ctx, "Ignoring unknown configuration key", "key", key, "file", source)
		}

		if err != nil {
			return fmt.Errorf("%s in %s: %q: %w", key, source, value, ErrInvalid)
		}
	}

	return nil
}

// userConfigPath locates the per-user configuration file.
// An unknown home directory only skips the layer.
func userConfigPath(ctx context.Context) string {
	home, err := os.UserHomeDir()
	if err != nil {
		logger.WarnKV(ctx, "Cannot locate home directory, skipping user configuration", "error", err)
		return ""
	}

	return filepath.Join(home, UserConfigFilename)
}

func isHTTPURL(raw string) bool {
	return strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
}
