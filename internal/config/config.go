// Package config loads bookmerge settings from an optional YAML file,
// environment overrides and defaults, then validates the result.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lehigh-university-libraries/bookmerge/internal/merge"
	"gopkg.in/yaml.v3"
)

const (
	// EnvConfig names the config file when --config is not given.
	EnvConfig = "BOOKMERGE_CONFIG"
	// EnvWorkers overrides Workers.
	EnvWorkers = "BOOKMERGE_WORKERS"
	// EnvGoogleBooksKey supplies the Google Books API key.
	EnvGoogleBooksKey = "GOOGLE_BOOKS_API_KEY"

	defaultConfigFile = "bookmerge.yaml"
)

// Inputs are the landing files produced by the collaborators.
type Inputs struct {
	Goodreads   string `yaml:"goodreads" validate:"required"`
	GoogleBooks string `yaml:"google_books" validate:"required"`
}

// Output controls where integration results are written.
type Output struct {
	Dir    string `yaml:"dir" validate:"required"`
	SQLite string `yaml:"sqlite"`
	CSV    bool   `yaml:"csv"`
	YAML   bool   `yaml:"yaml"`
}

// Identity configures ISBN validation.
type Identity struct {
	StrictChecksum bool `yaml:"strict_checksum"`
}

// GoogleBooks configures the enrichment fetcher.
type GoogleBooks struct {
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint" validate:"omitempty,url"`
	Country  string `yaml:"country" validate:"omitempty,len=2"`
	// DelayMillis pauses between lookups.
	DelayMillis int `yaml:"delay_ms" validate:"gte=0"`
}

// Logging selects the log level.
type Logging struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// Config is the full bookmerge configuration.
type Config struct {
	Inputs       Inputs       `yaml:"inputs"`
	Output       Output       `yaml:"output"`
	Survivorship merge.Policy `yaml:"survivorship"`
	Identity     Identity     `yaml:"identity"`
	GoogleBooks  GoogleBooks  `yaml:"google_books"`
	Logging      Logging      `yaml:"logging"`
	Workers      int          `yaml:"workers" validate:"gte=1,lte=512"`
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Inputs: Inputs{
			Goodreads:   "landing/goodreads_books.json",
			GoogleBooks: "landing/googlebooks_books.csv",
		},
		Output: Output{
			Dir: ".",
			CSV: true,
		},
		Survivorship: merge.DefaultPolicy(),
		GoogleBooks: GoogleBooks{
			DelayMillis: 200,
		},
		Logging: Logging{Level: "info"},
		Workers: runtime.NumCPU(),
	}
}

// Load reads the config file at path, or at $BOOKMERGE_CONFIG, or
// ./bookmerge.yaml. A missing file is not an error when no explicit path was
// given. It returns the config, the resolved path and whether the file
// existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = os.Getenv(EnvConfig)
		explicit = path != ""
	}
	if path == "" {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	exists := err == nil
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, "", false, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, path, exists, nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvWorkers)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvWorkers, v, err)
		}
		c.Workers = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvGoogleBooksKey)); v != "" {
		c.GoogleBooks.APIKey = v
	}
	return nil
}

// Validate checks field constraints and the survivorship option names.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config: %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Survivorship.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
