package config

import "time"

// Config is the top-level configuration structure parsed from careerpath YAML.
type Config struct {
	CareerPath CareerPath `yaml:"careerpath"`
}

// CareerPath holds storage, generation, and evaluation settings.
type CareerPath struct {
	DataDir    string     `yaml:"data_dir"`
	Store      Store      `yaml:"store"`
	EventsDB   string     `yaml:"events_db"`
	PromptsDir string     `yaml:"prompts_dir"`
	LLM        LLM        `yaml:"llm"`
	Roadmap    Roadmap    `yaml:"roadmap"`
	Evaluation Evaluation `yaml:"evaluation"`
}

// Store selects and configures the context store backend.
type Store struct {
	Backend        string `yaml:"backend"` // "file" or "postgres"
	Dir            string `yaml:"dir"`
	PostgresDSNEnv string `yaml:"postgres_dsn_env"`
	Cache          *bool  `yaml:"cache"`
}

// LLM configures the OpenAI-compatible chat completion endpoint.
type LLM struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Timeout     string  `yaml:"timeout"`
	MaxRetries  int     `yaml:"max_retries"`
	Backoff     string  `yaml:"backoff"`
	MinInterval string  `yaml:"min_interval"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// Roadmap bounds the size of generated roadmaps.
type Roadmap struct {
	MinSteps int `yaml:"min_steps"`
	MaxSteps int `yaml:"max_steps"`
}

// Evaluation tunes the answer scoring loop.
type Evaluation struct {
	AppendRemedialActions bool `yaml:"append_remedial_actions"`
}

// TimeoutDuration parses the LLM timeout. Invalid values fall back to the default.
func (l LLM) TimeoutDuration() time.Duration {
	return parseDuration(l.Timeout, 30*time.Second)
}

// BackoffDuration parses the initial retry backoff.
func (l LLM) BackoffDuration() time.Duration {
	return parseDuration(l.Backoff, 4*time.Second)
}

// MinIntervalDuration parses the minimum spacing between requests.
func (l LLM) MinIntervalDuration() time.Duration {
	return parseDuration(l.MinInterval, 1500*time.Millisecond)
}

// CacheEnabled reports whether the read-through context cache is on.
func (s Store) CacheEnabled() bool {
	return s.Cache == nil || *s.Cache
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
