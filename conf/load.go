package conf

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/nodecfg/nodecfg/errors"
)

var globalConfig *Config
var viperInstance *viper.Viper

// Load reads the nodecfg configuration using Viper
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	v := initViper()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	globalConfig = &config
	return globalConfig, nil
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal config from %s", configPath)
	}

	return &config, nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viperInstance = nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	return initViper()
}

// initViper initializes Viper with configuration sources and defaults
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()

	v.SetEnvPrefix("NODECFG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	// Merge configs in precedence order: user -> project -> env vars
	mergeConfigFiles(v)

	viperInstance = v
	return v
}

// ProjectConfigPath returns the project config file in effect, or "" when
// no nodecfg.toml exists up the directory tree.
func ProjectConfigPath() string {
	return findProjectConfig()
}

// findProjectConfig searches for nodecfg.toml by walking up the directory
// tree. Returns the first config file found, or "" if none.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		path := filepath.Join(dir, "nodecfg.toml")
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// mergeConfigFiles merges configuration files in precedence order
// (lowest to highest): user < project < env vars
func mergeConfigFiles(v *viper.Viper) {
	homeDir, _ := os.UserHomeDir()

	configPaths := []string{
		filepath.Join(homeDir, ".nodecfg", "config.toml"),
	}
	if projectConfig := findProjectConfig(); projectConfig != "" {
		configPaths = append(configPaths, projectConfig)
	}

	for _, configPath := range configPaths {
		if _, err := os.Stat(configPath); err != nil {
			continue
		}
		tempViper := viper.New()
		tempViper.SetConfigFile(configPath)
		tempViper.SetConfigType("toml")

		if err := tempViper.ReadInConfig(); err == nil {
			for key, value := range tempViper.AllSettings() {
				v.Set(key, value)
			}
		}
	}
}
