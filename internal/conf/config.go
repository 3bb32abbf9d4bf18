// Package conf handles loading and validation of application settings.
package conf

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"

	"github.com/kuzamma/surah-recognition-go/internal/errors"
)

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MainSettings contains general application settings
type MainSettings struct {
	Name string    `yaml:"name"` // name of the running node
	Log  LogConfig `yaml:"log"`  // main log configuration
}

// RecognitionSettings contains the remote classifier service settings
type RecognitionSettings struct {
	Endpoint       string `yaml:"endpoint"`       // base URL of the classifier service
	HealthPath     string `yaml:"healthpath"`     // path of the health probe, relative to endpoint
	UploadTimeout  int    `yaml:"uploadtimeout"`  // upload deadline in seconds
	MaxDuration    int    `yaml:"maxduration"`    // advisory maximum recording length in seconds
	Debug          bool   `yaml:"debug"`          // log request/response bodies
}

// SQLiteSettings contains the history database settings
type SQLiteSettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// OutputSettings contains settings for result persistence
type OutputSettings struct {
	SQLite SQLiteSettings `yaml:"sqlite"`
}

// WebServerSettings contains the HTTP API settings
type WebServerSettings struct {
	Enabled bool   `yaml:"enabled"`
	Port    string `yaml:"port"`
}

// Settings is the root configuration type
type Settings struct {
	Debug bool `yaml:"debug"` // true to enable debug mode

	Main        MainSettings        `yaml:"main"`
	Recognition RecognitionSettings `yaml:"recognition"`
	Output      OutputSettings      `yaml:"output"`
	WebServer   WebServerSettings   `yaml:"webserver"`
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// No config file yet, write one with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPaths returns the config file search paths in priority order.
func GetDefaultConfigPaths() ([]string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return []string{"."}, nil //nolint:nilerr // fall back to cwd when the home dir is unknown
	}
	return []string{
		".",
		filepath.Join(configDir, "surah-recognition"),
	}, nil
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, initializing it if necessary
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}
