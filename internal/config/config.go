package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	RegistryPath     string            `mapstructure:"registry_path"`
	DBPath           string            `mapstructure:"db_path"`
	BackupDir        string            `mapstructure:"backup_dir"`
	IgnoreList       []string          `mapstructure:"ignore_list"`
	Compression      string            `mapstructure:"compression"`
	Volumes          map[string]string `mapstructure:"volumes"`
	WorkersPerVolume int               `mapstructure:"workers_per_volume"`
	QueueSize        int               `mapstructure:"queue_size"`
	DaemonPort       int               `mapstructure:"daemon_port"`
}

var Default = Config{
	RegistryPath:     "Data.dpf",
	DBPath:           "incback.db",
	BackupDir:        "",
	IgnoreList:       []string{},
	Compression:      "deflate",
	Volumes:          map[string]string{},
	WorkersPerVolume: 2,
	QueueSize:        256,
	DaemonPort:       9101,
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home dir: %w", err)
	}

	return LoadFrom(filepath.Join(home, ".incback"))
}

// LoadFrom reads config.yaml from configDir, falling back to defaults and
// INCBACK_* environment variables.
func LoadFrom(configDir string) (*Config, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetDefault("registry_path", Default.RegistryPath)
	v.SetDefault("db_path", Default.DBPath)
	v.SetDefault("backup_dir", Default.BackupDir)
	v.SetDefault("ignore_list", Default.IgnoreList)
	v.SetDefault("compression", Default.Compression)
	v.SetDefault("volumes", Default.Volumes)
	v.SetDefault("workers_per_volume", Default.WorkersPerVolume)
	v.SetDefault("queue_size", Default.QueueSize)
	v.SetDefault("daemon_port", Default.DaemonPort)

	v.SetEnvPrefix("INCBACK")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := errors.AsType[viper.ConfigFileNotFoundError](err); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.WorkersPerVolume < 1 {
		cfg.WorkersPerVolume = Default.WorkersPerVolume
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = Default.QueueSize
	}

	return &cfg, nil
}
