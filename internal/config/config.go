/*
Package config provides configuration management for the listening
trainer's analysis CLI. It handles environment variables and validation
of all configuration parameters.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Environment Variables:

	TRAINER_CONCURRENCY       Concurrency ceiling for analysis calls
	TRAINER_API_BASE_URL      Base URL of the analysis API
	TRAINER_API_KEY           API key for the analysis service
	TRAINER_MODEL             Model name to request
	TRAINER_REQUEST_TIMEOUT   Per-request timeout (e.g. 60s)
	TRAINER_RATE_LIMIT        Requests per second (0 for unpaced)
	TRAINER_OUTPUT            Output format: text|json|yaml
	TRAINER_OUTPUT_FILE       Output file path (empty for stdout)
	TRAINER_NO_PROGRESS       Disable progress reporting
	TRAINER_NO_COLOR          Disable colored output
	TRAINER_VERBOSE           Verbosity level

Default Values:

	Concurrency:     10
	Model:           gpt-4o-mini
	RequestTimeout:  60s
	RateLimit:       0 (unpaced)
	Output:          text
*/
package config

import (
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration parameters for the application
type Config struct {
	// Concurrency is the ceiling on simultaneous analysis calls
	Concurrency int

	// APIBaseURL is the base URL of the OpenAI-compatible analysis API
	APIBaseURL string

	// APIKey authenticates against the analysis service
	APIKey string

	// Model is the model name requested for explanations
	Model string

	// RequestTimeout bounds one analysis call
	RequestTimeout time.Duration

	// RateLimit is the maximum analysis requests per second (0 for unpaced)
	RateLimit int

	// Output specifies the output format (text, json, or yaml)
	Output string

	// OutputFile is the path to write the report (empty for stdout)
	OutputFile string

	// NoProgress disables progress reporting
	NoProgress bool

	// NoColor disables colored output
	NoColor bool

	// Verbose sets the verbosity level
	Verbose int
}

// validOutputFormats contains the list of supported output formats
var validOutputFormats = map[string]bool{
	"text": true,
	"json": true,
	"yaml": true,
}

// MaxConcurrency caps the configurable ceiling; beyond this the remote
// service throttles anyway and slots just pile up waiting.
const MaxConcurrency = 64

// Load reads configuration from environment variables and validates it
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("concurrency", 10)
	v.SetDefault("model", "gpt-4o-mini")
	v.SetDefault("request_timeout", "60s")
	v.SetDefault("rate_limit", 0)
	v.SetDefault("output", "text")
	v.SetDefault("no_progress", false)
	v.SetDefault("no_color", false)
	v.SetDefault("verbose", 0)

	v.SetEnvPrefix("TRAINER")
	v.AutomaticEnv()

	v.BindEnv("concurrency")
	v.BindEnv("api_base_url")
	v.BindEnv("api_key")
	v.BindEnv("model")
	v.BindEnv("request_timeout")
	v.BindEnv("rate_limit")
	v.BindEnv("output")
	v.BindEnv("output_file")
	v.BindEnv("no_progress")
	v.BindEnv("no_color")
	v.BindEnv("verbose")

	cfg := Config{
		Concurrency:    v.GetInt("concurrency"),
		APIBaseURL:     v.GetString("api_base_url"),
		APIKey:         v.GetString("api_key"),
		Model:          v.GetString("model"),
		RequestTimeout: v.GetDuration("request_timeout"),
		RateLimit:      v.GetInt("rate_limit"),
		Output:         v.GetString("output"),
		OutputFile:     v.GetString("output_file"),
		NoProgress:     v.GetBool("no_progress"),
		NoColor:        v.GetBool("no_color"),
		Verbose:        v.GetInt("verbose"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}
	if c.Concurrency > MaxConcurrency {
		return fmt.Errorf("concurrency cannot exceed %d", MaxConcurrency)
	}

	if c.APIBaseURL == "" {
		return fmt.Errorf("analysis API base URL is required")
	}

	// Local mock servers are the only endpoints usable without a key.
	if c.APIKey == "" && !isLoopbackURL(c.APIBaseURL) {
		return fmt.Errorf("analysis API key is required for non-local endpoints")
	}

	if !validOutputFormats[c.Output] {
		return fmt.Errorf("invalid output format: must be one of [text json yaml]")
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must be non-negative")
	}

	if c.RequestTimeout < time.Second {
		return fmt.Errorf("request timeout must be at least one second")
	}

	return nil
}

// isLoopbackURL reports whether the URL points at localhost or a
// loopback address.
func isLoopbackURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}

// String returns a string representation of the configuration with the
// API key withheld.
func (c Config) String() string {
	return fmt.Sprintf(
		"Config{Concurrency: %d, APIBaseURL: %s, Model: %s, RequestTimeout: %s, "+
			"RateLimit: %d, Output: %s, OutputFile: %s, NoProgress: %v, "+
			"NoColor: %v, Verbose: %d}",
		c.Concurrency, c.APIBaseURL, c.Model, c.RequestTimeout,
		c.RateLimit, c.Output, c.OutputFile, c.NoProgress,
		c.NoColor, c.Verbose,
	)
}
