// Package config resolves the site configuration: which content API to talk
// to, with which token, and how the server and its helpers are tuned.
//
// Configuration is assembled once at startup from, in increasing priority,
// built-in defaults, an optional YAML file, a .env file and the process
// environment. The result is resolved into an immutable Resolved value that
// is injected into the client and the server.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rfaridh/porto-web/pkg/logging"
)

// Environment selects which API base URL is used.
type Environment string

const (
	EnvLocal Environment = "local"
	EnvProd  Environment = "prod"
)

var (
	// ErrUnknownEnvironment is returned when the environment discriminator
	// matches neither EnvLocal nor EnvProd.
	ErrUnknownEnvironment = errors.New("unknown environment")

	// ErrMissingBaseURL is returned when the selected environment has no
	// API base URL configured.
	ErrMissingBaseURL = errors.New("missing api base url")
)

// Config is the raw, file- and environment-sourced configuration.
type Config struct {
	// Env is the environment discriminator ("local" or "prod").
	Env Environment `yaml:"env"`

	// APILocal and APIProd are the content API base URLs per environment.
	APILocal string `yaml:"api_local"`
	APIProd  string `yaml:"api_prod"`

	// APIToken is sent as "Authorization: Bearer <token>".
	APIToken string `yaml:"api_token"`

	// ProjectsHost overrides the base URL used for the projects endpoint
	// (the fixed third-party host variant). Empty means "same as the API".
	ProjectsHost string `yaml:"projects_host"`

	// ProjectsPaged controls whether ?page=n is sent to the projects endpoint.
	ProjectsPaged *bool `yaml:"projects_paged"`

	// ImageBase is prefixed to project image paths.
	ImageBase string `yaml:"image_base"`

	// DateLocale is "en" or "id".
	DateLocale string `yaml:"date_locale"`

	// TagDelimiter splits project tag strings. Elements are always trimmed.
	TagDelimiter string `yaml:"tag_delimiter"`

	Server  ServerConfig  `yaml:"server"`
	Client  ClientConfig  `yaml:"client"`
	Redis   RedisConfig   `yaml:"redis"`
	Footer  FooterConfig  `yaml:"footer"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig tunes the site server.
type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	RenderTimeout time.Duration `yaml:"render_timeout"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	WarmCache     bool          `yaml:"warm_cache"`
}

// ClientConfig tunes the content API client.
type ClientConfig struct {
	UserAgent      string        `yaml:"user_agent"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxConcurrency int           `yaml:"max_concurrency"`
	MaxPages       int           `yaml:"max_pages"`
}

// RedisConfig enables the response cache and shared rate limit state.
// An empty Addr disables both.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// FooterConfig holds the copyright line.
type FooterConfig struct {
	Owner      string `yaml:"owner"`
	SinceYear  int    `yaml:"since_year"`
	CreditName string `yaml:"credit_name"`
	CreditURL  string `yaml:"credit_url"`
}

// LoggingConfig mirrors logging.Config in file form.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the built-in defaults. Env and base URLs are deliberately
// left empty so that a missing configuration fails Resolve.
func Default() Config {
	paged := true
	return Config{
		ProjectsPaged: &paged,
		DateLocale:    "en",
		TagDelimiter:  ",",
		Server: ServerConfig{
			Addr:          ":8080",
			RenderTimeout: 2 * time.Second,
			SessionTTL:    30 * time.Minute,
		},
		Client: ClientConfig{
			UserAgent:      "porto-web/1.0",
			Timeout:        15 * time.Second,
			MaxAttempts:    1,
			InitialBackoff: 500 * time.Millisecond,
			MaxConcurrency: 4,
			MaxPages:       100,
		},
		Footer: FooterConfig{
			Owner:      "Rayhan F.",
			SinceYear:  2024,
			CreditName: "Ricardo",
			CreditURL:  "https://github.com/ByteGrad/portfolio-website",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load builds a Config from defaults, an optional YAML file at path, a .env
// file in the working directory (if any) and the environment, then resolves
// it.
func Load(path string) (Resolved, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Resolved{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Resolved{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// A missing .env is normal in production.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Resolved{}, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Resolved{}, err
	}

	return cfg.Resolve()
}

// applyEnv overlays PORTO_* environment variables onto cfg.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("PORTO_ENV"); ok && v != "" {
		c.Env = Environment(v)
	}
	str("PORTO_API_LOCAL", &c.APILocal)
	str("PORTO_API_PROD", &c.APIProd)
	str("PORTO_API_TOKEN", &c.APIToken)
	str("PORTO_PROJECTS_HOST", &c.ProjectsHost)
	str("PORTO_IMAGE_BASE", &c.ImageBase)
	str("PORTO_DATE_LOCALE", &c.DateLocale)
	str("PORTO_REDIS_ADDR", &c.Redis.Addr)
	str("PORTO_REDIS_PASSWORD", &c.Redis.Password)
	str("PORTO_ADDR", &c.Server.Addr)
	str("PORTO_LOG_LEVEL", &c.Logging.Level)
	str("PORTO_USER_AGENT", &c.Client.UserAgent)
	str("PORTO_TAG_DELIMITER", &c.TagDelimiter)

	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}
	if err := dur("PORTO_RENDER_TIMEOUT", &c.Server.RenderTimeout); err != nil {
		return err
	}
	if err := dur("PORTO_SESSION_TTL", &c.Server.SessionTTL); err != nil {
		return err
	}

	if v, ok := lookup("PORTO_PROJECTS_PAGED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PORTO_PROJECTS_PAGED: %w", err)
		}
		c.ProjectsPaged = &b
	}
	if v, ok := lookup("PORTO_MAX_ATTEMPTS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORTO_MAX_ATTEMPTS: %w", err)
		}
		c.Client.MaxAttempts = n
	}
	if v, ok := lookup("PORTO_MAX_PAGES"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORTO_MAX_PAGES: %w", err)
		}
		c.Client.MaxPages = n
	}
	if v, ok := lookup("PORTO_WARM_CACHE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PORTO_WARM_CACHE: %w", err)
		}
		c.Server.WarmCache = b
	}

	return nil
}

// Resolved is the validated configuration handed to the rest of the program.
type Resolved struct {
	Env           Environment
	APIBase       string
	ProjectsBase  string
	ProjectsPaged bool
	Token         string
	ImageBase     string
	DateLocale    string
	TagDelimiter  string
	LogLevel      logging.LogLevel
	LogPretty     bool

	Server ServerConfig
	Client ClientConfig
	Redis  RedisConfig
	Footer FooterConfig
}

// Resolve selects the API base URL for c.Env and validates everything else.
// It fails fast instead of producing an unusable endpoint.
func (c Config) Resolve() (Resolved, error) {
	var base string
	switch c.Env {
	case EnvLocal:
		base = c.APILocal
	case EnvProd:
		base = c.APIProd
	default:
		return Resolved{}, fmt.Errorf("%w: %q (want %q or %q)", ErrUnknownEnvironment, c.Env, EnvLocal, EnvProd)
	}

	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return Resolved{}, fmt.Errorf("%w for environment %q", ErrMissingBaseURL, c.Env)
	}
	if err := validateURL(base); err != nil {
		return Resolved{}, fmt.Errorf("api base url: %w", err)
	}

	projectsBase := base
	if host := strings.TrimRight(strings.TrimSpace(c.ProjectsHost), "/"); host != "" {
		if err := validateURL(host); err != nil {
			return Resolved{}, fmt.Errorf("projects host: %w", err)
		}
		projectsBase = host
	}

	switch c.DateLocale {
	case "", "en", "id":
	default:
		return Resolved{}, fmt.Errorf("unsupported date locale %q", c.DateLocale)
	}

	level, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return Resolved{}, err
	}

	if c.Client.MaxAttempts < 1 {
		return Resolved{}, fmt.Errorf("client.max_attempts must be >= 1 (got %d)", c.Client.MaxAttempts)
	}

	paged := true
	if c.ProjectsPaged != nil {
		paged = *c.ProjectsPaged
	}

	delim := c.TagDelimiter
	if delim == "" {
		delim = ","
	}
	locale := c.DateLocale
	if locale == "" {
		locale = "en"
	}

	return Resolved{
		Env:           c.Env,
		APIBase:       base,
		ProjectsBase:  projectsBase,
		ProjectsPaged: paged,
		Token:         c.APIToken,
		ImageBase:     strings.TrimRight(c.ImageBase, "/"),
		DateLocale:    locale,
		TagDelimiter:  delim,
		LogLevel:      level,
		LogPretty:     c.Logging.Pretty,
		Server:        c.Server,
		Client:        c.Client,
		Redis:         c.Redis,
		Footer:        c.Footer,
	}, nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q: missing host", raw)
	}
	return nil
}
