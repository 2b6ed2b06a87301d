package config

import (
	"fmt"
	"net/url"
	"time"
)

// ValidationError represents a single validation issue with a config.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var recognizedBackends = map[string]bool{
	"file":     true,
	"postgres": true,
}

// Validate checks a Config for structural and semantic errors.
// It returns a slice of all validation errors found (empty if valid).
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError
	c := cfg.CareerPath

	if !recognizedBackends[c.Store.Backend] {
		errs = append(errs, ValidationError{
			Field:   "careerpath.store.backend",
			Message: fmt.Sprintf("unrecognized backend %q (want file or postgres)", c.Store.Backend),
		})
	}
	if c.Store.Backend == "postgres" && cfg.PostgresDSN() == "" {
		errs = append(errs, ValidationError{
			Field:   "careerpath.store.postgres_dsn_env",
			Message: fmt.Sprintf("environment variable %s is empty", c.Store.PostgresDSNEnv),
		})
	}

	if u, err := url.Parse(c.LLM.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{Field: "careerpath.llm.base_url", Message: "must be an absolute URL"})
	}
	for _, d := range []struct {
		field, value string
	}{
		{"careerpath.llm.timeout", c.LLM.Timeout},
		{"careerpath.llm.backoff", c.LLM.Backoff},
		{"careerpath.llm.min_interval", c.LLM.MinInterval},
	} {
		v, err := time.ParseDuration(d.value)
		if err != nil {
			errs = append(errs, ValidationError{Field: d.field, Message: fmt.Sprintf("invalid duration %q", d.value)})
			continue
		}
		if v < 0 {
			errs = append(errs, ValidationError{Field: d.field, Message: "must not be negative"})
		}
	}
	if c.LLM.MaxRetries < 0 {
		errs = append(errs, ValidationError{Field: "careerpath.llm.max_retries", Message: "must not be negative"})
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, ValidationError{Field: "careerpath.llm.temperature", Message: "must be between 0 and 2"})
	}

	if c.Roadmap.MinSteps < 1 {
		errs = append(errs, ValidationError{Field: "careerpath.roadmap.min_steps", Message: "must be at least 1"})
	}
	if c.Roadmap.MaxSteps < c.Roadmap.MinSteps {
		errs = append(errs, ValidationError{
			Field:   "careerpath.roadmap.max_steps",
			Message: fmt.Sprintf("must be >= min_steps (%d)", c.Roadmap.MinSteps),
		})
	}

	return errs
}
