// defaults.go default values for settings
package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "surah-recognition")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", filepath.Join("logs", "surah-recognition.log"))

	viper.SetDefault("recognition.endpoint", "https://surah-api.onrender.com")
	viper.SetDefault("recognition.healthpath", "/health")
	viper.SetDefault("recognition.uploadtimeout", 40)
	viper.SetDefault("recognition.maxduration", 45)
	viper.SetDefault("recognition.debug", false)

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "history.db")

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")
}

// getDefaultSettings returns a Settings struct populated from viper defaults.
func getDefaultSettings() (*Settings, error) {
	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling default config: %w", err)
	}
	return settings, nil
}

// createDefaultConfig creates a default config file and writes it to the
// first default config path.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	settings, err := getDefaultSettings()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	return viper.ReadInConfig()
}
