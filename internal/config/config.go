// Package config loads the runtime settings of the widgets host from an
// optional file plus WIDGETS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "WIDGETS"

// UploadsConfig locates the uploads directory that holds the CSS cache.
type UploadsConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"` // Filesystem root of uploaded files
	URL string `mapstructure:"url" yaml:"url"` // Public URL of Dir
}

// CacheConfig controls the compiled stylesheet cache.
type CacheConfig struct {
	Dir    string        `mapstructure:"dir" yaml:"dir"`       // Sub directory of the uploads root
	Expiry time.Duration `mapstructure:"expiry" yaml:"expiry"` // Age after which cached files are swept
}

// Config wraps the entire host configuration.
type Config struct {
	Uploads      UploadsConfig `mapstructure:"uploads" yaml:"uploads"`
	Cache        CacheConfig   `mapstructure:"cache" yaml:"cache"`
	Debug        bool          `mapstructure:"debug" yaml:"debug"`                 // Regenerate stylesheets on every render
	AssetsURL    string        `mapstructure:"assets_url" yaml:"assets_url"`       // Base URL of admin scripts and styles
	Database     string        `mapstructure:"database" yaml:"database"`           // SQLite path of the instance store
	Listen       string        `mapstructure:"listen" yaml:"listen"`               // HTTP listen address
	LogLevel     string        `mapstructure:"log_level" yaml:"log_level"`         // debug, info, warn or error
	BundleActive bool          `mapstructure:"bundle_active" yaml:"bundle_active"` // Skip the standalone loader
	ThemeVariant string        `mapstructure:"theme_variant" yaml:"theme_variant"` // Style variant, e.g. dark
}

// CacheDir returns the directory compiled stylesheets are written to.
func (c *Config) CacheDir() string {
	return filepath.Join(c.Uploads.Dir, c.Cache.Dir)
}

// CacheURL returns the public URL of CacheDir.
func (c *Config) CacheURL() string {
	return strings.TrimRight(c.Uploads.URL, "/") + "/" + c.Cache.Dir
}

// Validate reports settings the host cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Uploads.Dir) == "" {
		errs = append(errs, errors.New("uploads.dir is required"))
	}
	if strings.TrimSpace(c.Cache.Dir) == "" {
		errs = append(errs, errors.New("cache.dir is required"))
	}
	if c.Cache.Expiry <= 0 {
		errs = append(errs, fmt.Errorf("cache.expiry must be positive, got %s", c.Cache.Expiry))
	}
	if strings.TrimSpace(c.Database) == "" {
		errs = append(errs, errors.New("database is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

var defaults = map[string]any{
	"uploads.dir":   "uploads",
	"uploads.url":   "/uploads",
	"cache.dir":     "siteorigin-widgets",
	"cache.expiry":  7 * 24 * time.Hour,
	"debug":         false,
	"assets_url":    "/assets",
	"database":      "widgets.db",
	"listen":        ":8080",
	"log_level":     "info",
	"bundle_active": false,
	"theme_variant": "",
}

// Load reads filePath when it exists and applies WIDGETS_* overrides, e.g.
// WIDGETS_CACHE_EXPIRY=48h or WIDGETS_UPLOADS_DIR=/srv/uploads. An empty
// filePath uses defaults and the environment only.
func Load(filePath string) (*Config, error) {
	v := New()
	if err := ReadFile(v, filePath); err != nil {
		return nil, err
	}
	return Decode(v)
}

// ReadFile merges filePath into v when it exists. A missing file leaves v
// on defaults and environment variables.
func ReadFile(v *viper.Viper, filePath string) error {
	if filePath == "" {
		return nil
	}
	v.SetConfigFile(filePath)
	if _, err := os.Stat(filePath); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: read %s: %w", filePath, err)
	}
	return nil
}

// New returns a viper instance with defaults and environment bindings set,
// ready for callers to bind command flags onto.
func New() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Decode unmarshals and validates the settings held by v.
func Decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
