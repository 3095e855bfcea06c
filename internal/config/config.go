package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/tpi/internal/logger"
)

// Config holds the settings shared by all tpi commands.
type Config struct {
	// RegistryURL is the base URL bare package names are resolved against.
	RegistryURL string `yaml:"registry_url"`
	// ManifestPath is the file listing installed package identifiers.
	ManifestPath string `yaml:"manifest_path"`
	// InstallerURL is the base URL hosting install.sh and install.ps1 for self-update.
	InstallerURL string `yaml:"installer_url"`
	// Shell overrides the program and leading arguments used to run commands,
	// e.g. ["bash", "-c"]. Empty means the platform default.
	Shell []string `yaml:"shell,omitempty"`
	// Timeout bounds descriptor downloads. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// LogLevel is the diagnostic log level: debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

const (
	// DefaultRegistryURL is the public package registry.
	DefaultRegistryURL = "https://gleepkg.deno.dev"

	// DefaultInstallerURL hosts the tpi installer scripts.
	DefaultInstallerURL = "https://gleepkg.deno.dev/tpi"

	// DefaultLogLevel keeps diagnostics out of the way of console output.
	DefaultLogLevel = "warn"

	// DefaultFilePermissions is the permission for files tpi writes.
	DefaultFilePermissions = 0o644

	// DefaultDirPermissions is the permission for directories tpi creates.
	DefaultDirPermissions = 0o755

	// ConfigFilename is the settings file name inside DataDir.
	ConfigFilename = "config.yaml"

	// ManifestFilename is the manifest file name inside DataDir.
	ManifestFilename = "packages"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errNegativeTimeout is returned when the timeout is below zero.
	errNegativeTimeout = errors.New("timeout must not be negative")
	// errUnknownLogLevel is returned for log levels zap does not know.
	errUnknownLogLevel = errors.New("unknown log level")
)

// IsWindows reports whether tpi runs on a Windows host.
func IsWindows() bool {
	return strings.Contains(strings.ToLower(runtime.GOOS), "windows")
}

// DataDir returns the OS-specific system directory holding the manifest.
func DataDir() string {
	if IsWindows() {
		return `C:\ProgramData\tpi`
	}

	return "/var/lib/tpi"
}

// DefaultManifestPath returns the OS-specific manifest location.
func DefaultManifestPath() string {
	return filepath.Join(DataDir(), ManifestFilename)
}

// DefaultConfigPath returns the OS-specific settings file location.
func DefaultConfigPath() string {
	if IsWindows() {
		return filepath.Join(DataDir(), ConfigFilename)
	}

	return filepath.Join("/etc/tpi", ConfigFilename)
}

// Default returns settings with every field set to its default.
func Default() *Config {
	return &Config{
		RegistryURL:  DefaultRegistryURL,
		ManifestPath: DefaultManifestPath(),
		InstallerURL: DefaultInstallerURL,
		LogLevel:     DefaultLogLevel,
	}
}

// Load reads configuration from the provided path and validates it.
// An empty path means DefaultConfigPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err = yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOptional behaves like Load but returns defaults when the file does not exist.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	return cfg, err
}

// Save writes Config to the provided path, creating its directory if needed.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	path = filepath.Clean(path)
	if err = os.MkdirAll(filepath.Dir(path), DefaultDirPermissions); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	if err = os.WriteFile(path, data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills in defaults for empty fields.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.RegistryURL == "" {
		cfg.RegistryURL = DefaultRegistryURL
	}

	if cfg.InstallerURL == "" {
		cfg.InstallerURL = DefaultInstallerURL
	}

	if cfg.ManifestPath == "" {
		cfg.ManifestPath = DefaultManifestPath()
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if _, err := url.ParseRequestURI(cfg.RegistryURL); err != nil {
		return fmt.Errorf("invalid registry URL: %w", err)
	}

	if _, err := url.ParseRequestURI(cfg.InstallerURL); err != nil {
		return fmt.Errorf("invalid installer URL: %w", err)
	}

	if cfg.Timeout < 0 {
		return errNegativeTimeout
	}

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, cfg.LogLevel)
	}

	return nil
}
