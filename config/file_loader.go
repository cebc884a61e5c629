package config

import (
	"path"
	"reflect"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/kochabx/geostego/core/tag"
	"github.com/kochabx/geostego/core/validator"
	"github.com/kochabx/geostego/errors"
)

// Loader errors
var (
	ErrDefaults   = errors.Internal("failed to apply defaults")
	ErrNotFound   = errors.NotFound("config file not found")
	ErrParse      = errors.Internal("config parse error")
	ErrValidation = errors.BadRequest("config validation failed")
)

// TagName is the struct tag used for config keys
const TagName = "json"

// Loader fills a target struct and reports later changes to its source.
type Loader interface {
	Load(target any) error
	Watch(onChange func()) error
}

// FileLoader loads configuration from file
type FileLoader struct {
	viper    *viper.Viper
	validate *validator.Validator
	name     string
	paths    []string
}

// NewFileLoader creates a new file loader. A non-empty envPrefix scopes
// environment overrides, e.g. GEOSTEGO_SERVER_PORT for server.port.
func NewFileLoader(name string, paths []string, v *viper.Viper, validate *validator.Validator, envPrefix string) *FileLoader {
	configType := strings.TrimPrefix(path.Ext(name), ".")

	for _, configPath := range paths {
		v.AddConfigPath(configPath)
	}

	v.SetConfigName(name)
	v.SetConfigType(configType)

	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &FileLoader{
		viper:    v,
		paths:    paths,
		name:     name,
		validate: validate,
	}
}

// Load applies defaults, reads the file, overlays the environment and validates.
func (l *FileLoader) Load(target any) error {
	// defaults first so keys missing from the file keep them
	if err := tag.ApplyDefaults(target); err != nil {
		return ErrDefaults.WithCause(err)
	}

	if err := l.viper.ReadInConfig(); err != nil {
		return ErrNotFound.WithMetadata(map[string]string{"name": l.name}).WithCause(err)
	}

	bindEnv(l.viper, reflect.TypeOf(target), "")

	if err := l.viper.Unmarshal(target, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = TagName
	}); err != nil {
		return ErrParse.WithCause(err)
	}

	if l.validate != nil {
		if err := l.validate.Struct(target); err != nil {
			return ErrValidation.WithMetadata(validator.Details(err)).WithCause(err)
		}
	}

	return nil
}

func (l *FileLoader) Watch(callback func()) error {
	l.viper.OnConfigChange(func(e fsnotify.Event) {
		if callback != nil {
			callback()
		}
	})

	l.viper.WatchConfig()
	return nil
}

// bindEnv registers every leaf key of t so environment variables override
// keys that are absent from the file.
func bindEnv(v *viper.Viper, t reflect.Type, prefix string) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get(TagName), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}

		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct && ft.PkgPath() != "time" {
			bindEnv(v, ft, key)
			continue
		}
		_ = v.BindEnv(key)
	}
}
