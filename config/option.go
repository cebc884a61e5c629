package config

import (
	"github.com/spf13/viper"

	"github.com/kochabx/geostego/core/validator"
)

// Option is a function that configures a Config
type Option func(*Config)

// WithViper sets a custom viper instance
func WithViper(v *viper.Viper) Option {
	return func(c *Config) {
		c.viper = v
	}
}

// WithValidator sets a custom validator
func WithValidator(v *validator.Validator) Option {
	return func(c *Config) {
		c.validate = v
	}
}

// WithFile sets the config file name and search paths
func WithFile(name string, paths ...string) Option {
	return func(c *Config) {
		c.name = name
		if len(paths) > 0 {
			c.paths = paths
		}
	}
}

// WithEnvPrefix makes environment overrides use PREFIX_SECTION_KEY
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.envPrefix = prefix
	}
}

// WithLoader replaces the file loader
func WithLoader(l Loader) Option {
	return func(c *Config) {
		c.loader = l
	}
}

// WithWatch toggles reloading on file changes
func WithWatch(enabled bool) Option {
	return func(c *Config) {
		c.watch = enabled
	}
}

// OnReload registers a callback invoked after a successful reload
func OnReload(fn func()) Option {
	return func(c *Config) {
		if fn != nil {
			c.onReload = append(c.onReload, fn)
		}
	}
}
