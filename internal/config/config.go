// Package config loads harvester settings from defaults, an optional
// thredds.yaml, THREDDS_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds harvest settings.
type Config struct {
	URL    string `mapstructure:"url"`
	Output string `mapstructure:"output"`

	CatalogFolder string `mapstructure:"catalog_folder"`
	BaseFolder    string `mapstructure:"base_folder"`

	DatasetInclude []string `mapstructure:"dataset_include"`
	DatasetExclude []string `mapstructure:"dataset_exclude"`
	CatalogInclude []string `mapstructure:"catalog_include"`
	CatalogExclude []string `mapstructure:"catalog_exclude"`

	CacheDir     string `mapstructure:"cache_dir"`
	CacheBackend string `mapstructure:"cache_backend"`
	RedisAddr    string `mapstructure:"redis_addr"`
	ForceRemote  bool   `mapstructure:"force_remote"`

	Coordinates     []string `mapstructure:"coordinates"`
	ModifyTimestamp string   `mapstructure:"modify_timestamp"`
	KeepAttributes  bool     `mapstructure:"keep_attributes"`

	CatalogWorkers int           `mapstructure:"catalog_workers"`
	DatasetWorkers int           `mapstructure:"dataset_workers"`
	Timeout        time.Duration `mapstructure:"timeout"`

	Verbose bool `mapstructure:"verbose"`
}

// Defaults applied before any file, environment or flag.
// Every key is listed so that environment variables are seen by Unmarshal.
var defaults = map[string]any{
	"url":              "",
	"output":           "",
	"catalog_folder":   "thredds/catalog/",
	"base_folder":      "",
	"dataset_include":  []string{},
	"dataset_exclude":  []string{},
	"catalog_include":  []string{},
	"catalog_exclude":  []string{},
	"cache_dir":        ".cache",
	"cache_backend":    "disk",
	"redis_addr":       "localhost:6379",
	"force_remote":     false,
	"coordinates":      []string{"time"},
	"modify_timestamp": "none",
	"keep_attributes":  false,
	"catalog_workers":  3,
	"dataset_workers":  3,
	"timeout":          10 * time.Second,
	"verbose":          false,
}

// Load builds a Config. configFile may be empty, in which case thredds.yaml
// is looked up in the working directory and silently skipped when absent.
// Flags, when non-nil, override everything else for the flags the user set.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("thredds")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("THREDDS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.DatasetInclude = splitPatterns(cfg.DatasetInclude)
	cfg.DatasetExclude = splitPatterns(cfg.DatasetExclude)
	cfg.CatalogInclude = splitPatterns(cfg.CatalogInclude)
	cfg.CatalogExclude = splitPatterns(cfg.CatalogExclude)
	cfg.Coordinates = splitPatterns(cfg.Coordinates)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// splitPatterns accepts both YAML lists and comma-separated strings.
func splitPatterns(in []string) []string {
	var out []string
	for _, s := range in {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Validate checks values that have a closed set of choices.
func (c *Config) Validate() error {
	switch c.ModifyTimestamp {
	case "none", "excel":
	default:
		return fmt.Errorf("modify_timestamp must be none or excel, got %q", c.ModifyTimestamp)
	}
	switch c.CacheBackend {
	case "disk", "memory", "redis":
	default:
		return fmt.Errorf("cache_backend must be disk, memory or redis, got %q", c.CacheBackend)
	}
	if c.CatalogWorkers <= 0 || c.DatasetWorkers <= 0 {
		return fmt.Errorf("worker counts must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
