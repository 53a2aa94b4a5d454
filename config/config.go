// Package config loads server configuration with Viper. Sources, in
// precedence order: LUMA_* environment variables, a luma.toml file in the
// working directory or $HOME/.config/luma-ls, then built-in defaults.
package config

import (
	"strings"

	"github.com/spf13/viper"
	"github.com/teranos/luma-ls/errors"
	"github.com/teranos/luma-ls/luma"
)

// Config is the top-level server configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig controls the transport and per-document validation defaults.
type ServerConfig struct {
	// MaxNumberOfProblems is the default diagnostic budget handed to the
	// validator when a document has no client-resolved setting.
	MaxNumberOfProblems int `mapstructure:"max_number_of_problems"`

	// MaxOpenDocuments bounds the document store.
	MaxOpenDocuments int `mapstructure:"max_open_documents"`

	// Listen is the WebSocket listen address. Empty means stdio only.
	Listen string `mapstructure:"listen"`

	// AllowedOrigins restricts WebSocket upgrades. Empty allows any origin,
	// which suits local editor integrations.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig controls log output.
type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// SetDefaults configures default values for all options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.max_number_of_problems", luma.DefaultSettings.MaxNumberOfProblems)
	v.SetDefault("server.max_open_documents", 100)
	v.SetDefault("server.listen", "")
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)
}

// Load reads configuration from the standard locations.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LUMA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	v.SetConfigName("luma")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/luma-ls")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env cover everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	return unmarshal(v)
}

// LoadFromFile reads configuration from an explicit path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &cfg, nil
}

// ValidatorSettings converts the configured defaults into validator settings.
func (c *Config) ValidatorSettings() luma.Settings {
	if c.Server.MaxNumberOfProblems <= 0 {
		return luma.DefaultSettings
	}
	return luma.Settings{MaxNumberOfProblems: c.Server.MaxNumberOfProblems}
}
