// Package config loads service configuration from a YAML file and
// STOWAGE_-prefixed environment variables, with sane defaults for running
// out of the box.
package config

import (
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	ListenAddr  string   `mapstructure:"listen_addr"`
	DataDir     string   `mapstructure:"data_dir"`
	Snapshot    string   `mapstructure:"snapshot"`
	AuditLog    string   `mapstructure:"audit_log"`
	LogLevel    string   `mapstructure:"log_level"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// SnapshotPath returns the store snapshot path inside the data directory
// (relative when DataDir is relative).
func (c Config) SnapshotPath() string {
	return filepath.Join(c.DataDir, c.Snapshot)
}

// AuditLogPath returns the audit log path inside the data directory
// (relative when DataDir is relative).
func (c Config) AuditLogPath() string {
	return filepath.Join(c.DataDir, c.AuditLog)
}

// Load reads configuration. path may name a config file explicitly; when
// empty, stowage.yaml is searched in the working directory and /etc/stowage.
// A missing config file is fine — defaults and environment apply.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("listen_addr", ":8000")
	v.SetDefault("data_dir", "data")
	v.SetDefault("snapshot", "stowage.json")
	v.SetDefault("audit_log", "audit.json")
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_origins", []string{"*"})

	v.SetEnvPrefix("STOWAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	} else {
		v.SetConfigName("stowage")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/stowage")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
