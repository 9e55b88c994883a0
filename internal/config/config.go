// Package config builds the gateway configuration from defaults, an optional
// TOML or YAML file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	// MinKeyLength is the shortest API key the gateway accepts.
	MinKeyLength = 32

	// FileEnv names the variable that points at a config file.
	FileEnv = "ACTIONGATE_CONFIG"
)

type Config struct {
	Host            string   `toml:"host" yaml:"host"`
	Port            int      `toml:"port" yaml:"port"`
	APIKey          string   `toml:"api_key" yaml:"api_key"`
	Secret          string   `toml:"secret" yaml:"secret"`
	LogLevel        string   `toml:"log_level" yaml:"log_level"`
	LogFormat       string   `toml:"log_format" yaml:"log_format"`
	MQTTBroker      string   `toml:"mqtt_broker" yaml:"mqtt_broker"`
	TrelloBaseURL   string   `toml:"trello_base_url" yaml:"trello_base_url"`
	TrelloRetries   int      `toml:"trello_retries" yaml:"trello_retries"`
	ShutdownTimeout Duration `toml:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func Default() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            20000,
		LogLevel:        "info",
		LogFormat:       "text",
		TrelloBaseURL:   "https://api.trello.com/1",
		TrelloRetries:   1,
		ShutdownTimeout: Duration{10 * time.Second},
	}
}

// Load reads the file named by ACTIONGATE_CONFIG, if any, then applies the
// environment. The result is not validated.
func Load() (Config, error) {
	return LoadFrom(os.Getenv(FileEnv))
}

// LoadFrom is Load with an explicit file path; an empty path skips the file.
func LoadFrom(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	path = os.ExpandEnv(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file type: %s", path)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"HOST":            &c.Host,
		"API_KEY":         &c.APIKey,
		"SECRET":          &c.Secret,
		"LOG_LEVEL":       &c.LogLevel,
		"LOG_FORMAT":      &c.LogFormat,
		"MQTT_BROKER":     &c.MQTTBroker,
		"TRELLO_BASE_URL": &c.TrelloBaseURL,
	}
	for name, dst := range str {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	ints := map[string]*int{
		"PORT":           &c.Port,
		"TRELLO_RETRIES": &c.TrelloRetries,
	}
	for name, dst := range ints {
		v, ok := lookup(name)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = n
	}
	return nil
}

// Validate enforces the startup requirements.
func (c Config) Validate() error {
	var errs []error
	if utf8.RuneCountInString(c.APIKey) < MinKeyLength {
		errs = append(errs, fmt.Errorf("API_KEY must be at least %d chars long", MinKeyLength))
	}
	if c.Secret == "" {
		errs = append(errs, errors.New("SECRET environment variable not defined"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	if c.TrelloRetries < 0 {
		errs = append(errs, fmt.Errorf("invalid trello retries %d", c.TrelloRetries))
	}
	return errors.Join(errs...)
}

// Addr is the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
