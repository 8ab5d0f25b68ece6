package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/genterm/genterm/internal/api"
)

// Config holds the on-disk settings from ~/.config/genterm/config.yaml.
// Every key carries a default, so a missing file still yields a working
// configuration.
type Config struct {
	Model   string `mapstructure:"model"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	URL     string `mapstructure:"url"`
	Mode    string `mapstructure:"mode"`
	Command string `mapstructure:"command"`
	Debug   bool   `mapstructure:"debug"`
}

func Load() (*Config, error) {
	configPath, err := Dir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config dir: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	viper.AddConfigPath(".")

	// Set defaults
	viper.SetDefault("model", "mistral")
	viper.SetDefault("host", "localhost")
	viper.SetDefault("port", 11434)
	viper.SetDefault("url", "")
	viper.SetDefault("mode", string(api.ModeChat))
	viper.SetDefault("command", api.DefaultCommand)
	viper.SetDefault("debug", false)

	// Read config file (optional - won't error if missing)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if os.Getenv("GENTERM_DEBUG") == "1" {
		cfg.Debug = true
	}

	return &cfg, nil
}

// Options is the immutable per-invocation snapshot a session runs with.
// Build it once with Snapshot; nothing mutates it afterwards.
type Options struct {
	Model   string
	Host    string
	Port    int
	URL     string
	Mode    api.Mode
	Command string
	Debug   bool
}

// Overrides carries per-invocation flag values. Zero values mean "not set"
// and defer to the loaded config.
type Overrides struct {
	Model string
	Host  string
	Port  int
	URL   string
	Mode  string
	Debug bool
}

// Snapshot merges per-invocation overrides over the loaded config, override
// keys winning, and resolves the endpoint URL. The result is detached from
// the receiver: later Config mutation never reaches a running session.
func (c *Config) Snapshot(o Overrides) (Options, error) {
	opts := Options{
		Model:   c.Model,
		Host:    c.Host,
		Port:    c.Port,
		URL:     c.URL,
		Mode:    api.Mode(c.Mode),
		Command: c.Command,
		Debug:   c.Debug,
	}
	if o.Model != "" {
		opts.Model = o.Model
	}
	if o.Host != "" {
		opts.Host = o.Host
	}
	if o.Port != 0 {
		opts.Port = o.Port
	}
	if o.URL != "" {
		opts.URL = o.URL
	}
	if o.Mode != "" {
		opts.Mode = api.Mode(o.Mode)
	}
	if o.Debug {
		opts.Debug = true
	}

	if !opts.Mode.Valid() {
		return Options{}, fmt.Errorf("unknown mode %q (want chat, generate or openai)", opts.Mode)
	}

	url, err := ResolveValue(opts.URL)
	if err != nil {
		return Options{}, fmt.Errorf("failed to resolve url: %w", err)
	}
	opts.URL = url

	return opts, nil
}

// Endpoint composes the upstream location from the snapshot.
func (o Options) Endpoint() api.Endpoint {
	return api.Endpoint{Host: o.Host, Port: o.Port, URL: o.URL}
}

// expandEnv expands ${VAR} or $VAR in a string
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		varName := s[2 : len(s)-1]
		return os.Getenv(varName)
	}
	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}
	return s
}

// Dir returns the directory holding the config and templates files.
func Dir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "genterm"), nil
}

// TemplatesPath returns the user templates file, next to the config file.
func TemplatesPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "templates.yaml"), nil
}
