package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads and parses a configuration from the given YAML file path and
// fills in defaults for anything left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault searches for a config in standard locations and loads the first
// one found. Search order: ./careerpath.yaml, ~/.careerpath/config.yaml.
// With no file present the built-in defaults are returned.
func LoadDefault() (*Config, error) {
	candidates := []string{"careerpath.yaml"}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append(candidates, filepath.Join(home, ".careerpath", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return Default(), nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// LoadEnv loads variables from a .env file in the working directory, if one
// exists. Variables already set in the environment win.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// APIKey returns the LLM API key from the configured environment variable.
func (c *Config) APIKey() string {
	return os.Getenv(c.CareerPath.LLM.APIKeyEnv)
}

// PostgresDSN returns the Postgres connection string from the environment.
func (c *Config) PostgresDSN() string {
	return os.Getenv(c.CareerPath.Store.PostgresDSNEnv)
}

// ContextDir returns the absolute directory of the file store.
func (c *Config) ContextDir() string {
	return c.resolve(c.CareerPath.Store.Dir)
}

// EventsDBPath returns the absolute path of the event log database.
func (c *Config) EventsDBPath() string {
	return c.resolve(c.CareerPath.EventsDB)
}

func (c *Config) resolve(p string) string {
	if p == ":memory:" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(expandHome(c.CareerPath.DataDir), p)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

func applyDefaults(cfg *Config) {
	c := &cfg.CareerPath

	if c.DataDir == "" {
		c.DataDir = "~/.careerpath"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "file"
	}
	if c.Store.Dir == "" {
		c.Store.Dir = "contexts"
	}
	if c.Store.PostgresDSNEnv == "" {
		c.Store.PostgresDSNEnv = "CAREERPATH_POSTGRES_DSN"
	}
	if c.EventsDB == "" {
		c.EventsDB = "events.db"
	}

	l := &c.LLM
	if l.BaseURL == "" {
		l.BaseURL = "https://api.groq.com/openai/v1"
	}
	if l.Model == "" {
		l.Model = "llama-3.3-70b-versatile"
	}
	if l.APIKeyEnv == "" {
		l.APIKeyEnv = "GROQ_API_KEY"
	}
	if l.Timeout == "" {
		l.Timeout = "30s"
	}
	if l.MaxRetries == 0 {
		l.MaxRetries = 5
	}
	if l.Backoff == "" {
		l.Backoff = "4s"
	}
	if l.MinInterval == "" {
		l.MinInterval = "1500ms"
	}
	if l.Temperature == 0 {
		l.Temperature = 0.7
	}
	if l.MaxTokens == 0 {
		l.MaxTokens = 2000
	}

	if c.Roadmap.MinSteps == 0 {
		c.Roadmap.MinSteps = 4
	}
	if c.Roadmap.MaxSteps == 0 {
		c.Roadmap.MaxSteps = 6
	}
}
