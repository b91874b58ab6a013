// Package config loads lumo settings from viper and validates them.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/lepinkainen/lumo/internal/cache"
)

// EnvPrefix prefixes every environment override, e.g. LUMO_CACHE_BACKEND.
const EnvPrefix = "LUMO"

// ErrMissingAPIKey is returned when a command needs TMDB but no key is configured.
var ErrMissingAPIKey = errors.New("TMDB API key is required (set tmdb.apikey in config.yaml or TMDB_API_KEY)")

// Settings is the complete runtime configuration.
type Settings struct {
	TMDB      TMDB      `mapstructure:"tmdb"`
	Cache     Cache     `mapstructure:"cache"`
	RateLimit RateLimit `mapstructure:"ratelimit"`
	Library   Library   `mapstructure:"library"`
	Server    Server    `mapstructure:"server"`
}

// TMDB configures the metadata provider.
type TMDB struct {
	APIKey       string `mapstructure:"apikey"`
	BaseURL      string `mapstructure:"baseurl" validate:"required,url"`
	ImageBaseURL string `mapstructure:"imagebaseurl" validate:"required,url"`
	PosterSize   string `mapstructure:"postersize" validate:"required"`
	BackdropSize string `mapstructure:"backdropsize" validate:"required"`
	LogoSize     string `mapstructure:"logosize" validate:"required"`
	Language     string `mapstructure:"language" validate:"required,min=2,max=3"`
}

// Cache configures the response cache backend.
type Cache struct {
	Backend    string        `mapstructure:"backend" validate:"oneof=file sqlite memory"`
	Dir        string        `mapstructure:"dir" validate:"required_if=Backend file"`
	DBFile     string        `mapstructure:"dbfile" validate:"required_if=Backend sqlite"`
	TTL        time.Duration `mapstructure:"ttl" validate:"gt=0"`
	MaxEntries int           `mapstructure:"maxentries" validate:"gte=0"`
}

// RateLimit configures outbound pacing.
type RateLimit struct {
	Interval time.Duration `mapstructure:"interval" validate:"gt=0"`
}

// Library points at the application database. Empty disables local ratings.
type Library struct {
	DBFile string `mapstructure:"dbfile"`
}

// Server configures the JSON API.
type Server struct {
	Addr              string `mapstructure:"addr" validate:"required"`
	RequestsPerMinute int    `mapstructure:"requestsperminute" validate:"gt=0"`
}

// SetDefaults registers every key with its default value so that
// environment overrides and Unmarshal see it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("tmdb.apikey", "")
	v.SetDefault("tmdb.baseurl", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.imagebaseurl", "https://image.tmdb.org/t/p")
	v.SetDefault("tmdb.postersize", "w500")
	v.SetDefault("tmdb.backdropsize", "w1280")
	v.SetDefault("tmdb.logosize", "w500")
	v.SetDefault("tmdb.language", "en")

	v.SetDefault("cache.backend", cache.BackendFile)
	v.SetDefault("cache.dir", "./cache")
	v.SetDefault("cache.dbfile", "./cache.db")
	v.SetDefault("cache.ttl", cache.DefaultTTL.String())
	v.SetDefault("cache.maxentries", 0)

	v.SetDefault("ratelimit.interval", "260ms")

	v.SetDefault("library.dbfile", "")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.requestsperminute", 120)
}

// BindEnv enables LUMO_* overrides and the conventional TMDB_API_KEY variable.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("tmdb.apikey", "TMDB_API_KEY", EnvPrefix+"_TMDB_APIKEY"); err != nil {
		return fmt.Errorf("failed to bind environment variable: %w", err)
	}
	return nil
}

// Load reads the settings out of v and validates them.
func Load(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field constraint and reports all violations at once.
func (s Settings) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, describe(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}

func describe(fe validator.FieldError) string {
	// Settings.Cache.TTL -> cache.ttl
	key := strings.ToLower(strings.TrimPrefix(fe.Namespace(), "Settings."))
	switch fe.Tag() {
	case "required", "required_if":
		return key + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", key, fe.Param())
	case "url":
		return key + " must be a URL"
	case "gt", "gte", "min", "max":
		return fmt.Sprintf("%s must be %s %s", key, fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", key, fe.Tag())
	}
}

// RequireAPIKey returns ErrMissingAPIKey when no TMDB key is set.
func (s Settings) RequireAPIKey() error {
	if strings.TrimSpace(s.TMDB.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// CacheOptions maps the cache section onto cache.Open options.
func (s Settings) CacheOptions() cache.Options {
	return cache.Options{
		Backend:    s.Cache.Backend,
		Dir:        s.Cache.Dir,
		DBFile:     s.Cache.DBFile,
		TTL:        s.Cache.TTL,
		MaxEntries: s.Cache.MaxEntries,
	}
}
