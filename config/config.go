// Package config loads a YAML file into a struct: `default` tags first, then the file and
// environment, then validation. Keys follow the struct's json tags.
package config

import (
	"sync"

	"github.com/spf13/viper"

	"github.com/kochabx/geostego/core/validator"
	"github.com/kochabx/geostego/log"
)

// Config owns a target struct and keeps it in sync with its source.
type Config struct {
	// mu guards target during reloads
	mu        sync.RWMutex
	viper     *viper.Viper
	validate  *validator.Validator
	target    any
	loader    Loader
	watch     bool
	name      string
	paths     []string
	envPrefix string
	onReload  []func()
}

// New creates a new Config instance with the given options.
// Without options it reads ./config.yaml.
func New(target any, opts ...Option) *Config {
	c := &Config{
		viper:    viper.New(),
		validate: validator.Validate,
		target:   target,
		watch:    true,
		name:     "config.yaml",
		paths:    []string{"."},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.loader == nil {
		c.loader = NewFileLoader(c.name, c.paths, c.viper, c.validate, c.envPrefix)
	}

	return c
}

// Load reads the configuration using the configured loader
func (c *Config) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.loader.Load(c.target)
}

// Read runs fn while holding the read lock, so a concurrent reload cannot
// modify the target mid-read.
func (c *Config) Read(fn func()) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn()
}

// Watch reloads the configuration whenever the file changes, then runs the
// OnReload callbacks. A failed reload keeps the previous values.
func (c *Config) Watch() error {
	if !c.watch {
		return nil
	}
	return c.loader.Watch(func() {
		log.Info().Msg("config change detected")

		if err := c.Load(); err != nil {
			log.Error().Err(err).Msg("failed to reload config after change")
			return
		}
		for _, fn := range c.onReload {
			fn()
		}

		log.Info().Msg("config reloaded successfully")
	})
}

// GetViper returns the underlying viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.viper
}
