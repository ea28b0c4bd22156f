package config

import (
	"fmt"
	"path/filepath"
	"strings"

	internal "github.com/bryanbarcelona/brybox/internal"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Brybox BryboxConfig `mapstructure:"brybox"`
}

// BryboxConfig stores application-wide settings.
type BryboxConfig struct {
	CacheDir    string            `mapstructure:"cacheDir"`
	PixelPorter PixelPorterConfig `mapstructure:"pixelporter"`
}

// PixelPorterConfig stores the ingestion pipeline defaults. The pipeline
// itself receives these as explicit call parameters; this layer only supplies
// defaults for the CLI.
type PixelPorterConfig struct {
	SourceDir        string `mapstructure:"sourceDir"`
	TargetDir        string `mapstructure:"targetDir"`
	MigrateSidecars  bool   `mapstructure:"migrateSidecars"`
	UniqueTimestamps bool   `mapstructure:"uniqueTimestamps"`
	Deduplicate      bool   `mapstructure:"deduplicate"`
	ExifToolPath     string `mapstructure:"exiftoolPath"`
	IgnoreFile       string `mapstructure:"ignoreFile"`
	Workers          int    `mapstructure:"workers"`
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		viper.AddConfigPath(internal.DefaultConfigPath)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Set default values
	viper.SetDefault("brybox.cacheDir", internal.DefaultCacheDir)
	viper.SetDefault("brybox.pixelporter.sourceDir", "")
	viper.SetDefault("brybox.pixelporter.targetDir", "")
	viper.SetDefault("brybox.pixelporter.migrateSidecars", true)
	viper.SetDefault("brybox.pixelporter.uniqueTimestamps", true)
	viper.SetDefault("brybox.pixelporter.deduplicate", true)
	viper.SetDefault("brybox.pixelporter.exiftoolPath", "")
	viper.SetDefault("brybox.pixelporter.ignoreFile", internal.DefaultIgnoreFile)
	viper.SetDefault("brybox.pixelporter.workers", 0)

	viper.AutomaticEnv()                                   // Read in environment variables that match
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // Replace dots with underscores in env var names e.g. brybox.pixelporter.targetDir becomes BRYBOX_PIXELPORTER_TARGETDIR

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; defaults will be used. This is not an
			// error for the application to halt on.
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &AppConfig, nil
}
