// Package config loads scrape jobs: which page to open, how to get past the
// consent banner and login form, and what to extract from each list item.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. WEBSCRAPE_MAX_PAGES.
const EnvPrefix = "WEBSCRAPE"

// Credential variables. They are read from the environment only.
const (
	EnvUsername = EnvPrefix + "_USERNAME"
	EnvPassword = EnvPrefix + "_PASSWORD"
)

// Config is one scrape job.
type Config struct {
	URL         string        `mapstructure:"url" yaml:"url"`
	MaxPages    int           `mapstructure:"max_pages" yaml:"max_pages"`
	WaitCeiling time.Duration `mapstructure:"wait_ceiling" yaml:"wait_ceiling"`
	// Seed fixes the pause sequence. Zero seeds from the clock.
	Seed    int64         `mapstructure:"seed" yaml:"seed"`
	Consent string        `mapstructure:"consent" yaml:"consent"`
	Login   LoginConfig   `mapstructure:"login" yaml:"login"`
	Listing ListingConfig `mapstructure:"listing" yaml:"listing"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`

	Credentials Credentials `mapstructure:"-" yaml:"-"`
}

// LoginConfig locates the login form. An empty Submit disables login.
type LoginConfig struct {
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	Submit   string `mapstructure:"submit" yaml:"submit"`
}

// Enabled reports whether the job logs in.
func (l LoginConfig) Enabled() bool { return l.Submit != "" }

// Credentials are never persisted in the job file.
type Credentials struct {
	Username string
	Password string
}

// ListingConfig describes the paginated list and per-item extraction.
type ListingConfig struct {
	Items  string         `mapstructure:"items" yaml:"items"`
	Next   string         `mapstructure:"next" yaml:"next"`
	Modal  string         `mapstructure:"modal" yaml:"modal"`
	Close  string         `mapstructure:"close" yaml:"close"`
	Header *HeaderConfig  `mapstructure:"header" yaml:"header"`
	Fields []FieldsConfig `mapstructure:"fields" yaml:"fields"`
	// Table is the element whose subtree holds the table, usually the
	// modal body.
	Table string       `mapstructure:"table" yaml:"table"`
	Attrs []AttrConfig `mapstructure:"attrs" yaml:"attrs"`
}

// HeaderConfig picks one text per tag from the children of Container.
type HeaderConfig struct {
	Container string   `mapstructure:"container" yaml:"container"`
	Child     string   `mapstructure:"child" yaml:"child"`
	Tags      []string `mapstructure:"tags" yaml:"tags"`
}

// FieldsConfig pairs heading and value tags under Container.
type FieldsConfig struct {
	Container string `mapstructure:"container" yaml:"container"`
	Heading   string `mapstructure:"heading" yaml:"heading"`
	Value     string `mapstructure:"value" yaml:"value"`
}

// AttrConfig reads one named value: the text of Parent (or of its Child),
// or the Attr attribute when set.
type AttrConfig struct {
	Name   string `mapstructure:"name" yaml:"name"`
	Parent string `mapstructure:"parent" yaml:"parent"`
	Child  string `mapstructure:"child" yaml:"child"`
	Attr   string `mapstructure:"attr" yaml:"attr"`
}

// BrowserConfig mirrors browser.Config.
type BrowserConfig struct {
	Headless   bool   `mapstructure:"headless" yaml:"headless"`
	Proxy      string `mapstructure:"proxy" yaml:"proxy"`
	Stealth    bool   `mapstructure:"stealth" yaml:"stealth"`
	ControlURL string `mapstructure:"control_url" yaml:"control_url"`
	WindowSize string `mapstructure:"window_size" yaml:"window_size"`
	NoSandbox  bool   `mapstructure:"no_sandbox" yaml:"no_sandbox"`
}

// LoggerConfig drives observability.Initialize.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("url", "")
	v.SetDefault("consent", "")
	v.SetDefault("max_pages", -1)
	v.SetDefault("wait_ceiling", "60s")
	v.SetDefault("seed", 0)

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.proxy", "")
	v.SetDefault("browser.stealth", false)
	v.SetDefault("browser.window_size", "1920,1080")
	v.SetDefault("browser.no_sandbox", false)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "webscrape")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
}

// NewViper returns a viper instance with defaults and WEBSCRAPE_ env
// overrides. When path is non-empty the file is read; its format follows
// the extension.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return v, nil
}

// Load reads path (optional) and the environment into a validated Config.
func Load(path string) (*Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	return NewConfigFromViper(v)
}

// NewConfigFromViper unmarshals v, attaches credentials from the
// environment and validates the result.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.Credentials = Credentials{
		Username: os.Getenv(EnvUsername),
		Password: os.Getenv(EnvPassword),
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// NewDefaultConfig returns defaults only. It does not validate.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// Validate checks required fields and sane values.
func (c *Config) Validate() error {
	var errs []error
	if c.URL == "" {
		errs = append(errs, errors.New("url is required"))
	}
	if c.WaitCeiling <= 0 {
		errs = append(errs, errors.New("wait_ceiling must be positive"))
	}
	if c.MaxPages < -1 {
		errs = append(errs, errors.New("max_pages must be -1 (unlimited) or non-negative"))
	}
	if c.Listing.Items == "" {
		errs = append(errs, errors.New("listing.items is required"))
	}
	if c.Listing.Modal != "" && c.Listing.Close == "" {
		errs = append(errs, errors.New("listing.close is required when listing.modal is set"))
	}
	if h := c.Listing.Header; h != nil && (h.Container == "" || len(h.Tags) == 0) {
		errs = append(errs, errors.New("listing.header needs container and tags"))
	}
	for i, f := range c.Listing.Fields {
		if f.Container == "" || f.Heading == "" || f.Value == "" {
			errs = append(errs, fmt.Errorf("listing.fields[%d] needs container, heading and value", i))
		}
	}
	for i, a := range c.Listing.Attrs {
		if a.Name == "" || a.Parent == "" {
			errs = append(errs, fmt.Errorf("listing.attrs[%d] needs name and parent", i))
		}
	}
	if c.Login.Enabled() {
		if c.Login.Username == "" || c.Login.Password == "" {
			errs = append(errs, errors.New("login needs username and password fields"))
		}
		if c.Credentials.Username == "" || c.Credentials.Password == "" {
			errs = append(errs, fmt.Errorf("login requires %s and %s", EnvUsername, EnvPassword))
		}
	}
	return errors.Join(errs...)
}
