package models

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// SourceConfig describes one news source. Order in the config file is the
// source-processing order for the run, which makes mirror tie-breaking
// deterministic.
type SourceConfig struct {
	ID   string `yaml:"id"`
	Kind string `yaml:"kind"` // "rss" or "html"
	URL  string `yaml:"url"`

	// HTML list sources only: goquery selectors for the listing page.
	ItemSelector  string `yaml:"item_selector,omitempty"`
	LinkSelector  string `yaml:"link_selector,omitempty"`
	TitleSelector string `yaml:"title_selector,omitempty"`
	DateSelector  string `yaml:"date_selector,omitempty"`
}

// MatchConfig controls keyword matching behavior.
type MatchConfig struct {
	WholeWord     bool `yaml:"whole_word"`
	CaseSensitive bool `yaml:"case_sensitive"`
}

// EmailConfig holds SMTP delivery settings. Username and password are
// never read from the config file; they come from SMTP_USERNAME and
// SMTP_PASSWORD in the environment (a .env file is honored).
type EmailConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	From    string `yaml:"from"`

	Username string `yaml:"-"`
	Password string `yaml:"-"`
}

// Config is the immutable run configuration. It is loaded once at process
// start and passed explicitly into the engines; nothing reads it from
// ambient process state.
type Config struct {
	CrawlMode            CrawlMode `yaml:"crawl_mode"`
	Workers              int       `yaml:"workers"`
	MaxArticlesPerSource int       `yaml:"max_articles_per_source"`

	DataDir      string `yaml:"data_dir"`
	CacheDir     string `yaml:"cache_dir"`
	OutputDir    string `yaml:"output_dir"`
	OutputPrefix string `yaml:"output_prefix"`

	Match MatchConfig `yaml:"match"`
	Email EmailConfig `yaml:"email"`

	Sources     []SourceConfig `yaml:"sources"`
	Subscribers []Subscriber   `yaml:"subscribers"`
}

// LoadConfig reads and validates the YAML config file, applying defaults
// and the environment overlay for SMTP credentials.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{
		CrawlMode:            CrawlModeIncremental,
		Workers:              4,
		MaxArticlesPerSource: 50,
		DataDir:              "nclip-data",
		OutputPrefix:         "news",
		Match:                MatchConfig{WholeWord: true},
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.CacheDir == "" {
		cfg.CacheDir = cfg.DataDir + "/cache"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = cfg.DataDir + "/reports"
	}

	// .env is optional; real environment variables win either way.
	_ = godotenv.Load()
	cfg.Email.Username = os.Getenv("SMTP_USERNAME")
	cfg.Email.Password = os.Getenv("SMTP_PASSWORD")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.CrawlMode {
	case CrawlModeFull, CrawlModeIncremental:
	default:
		return fmt.Errorf("invalid crawl_mode %q (want full or incremental)", c.CrawlMode)
	}

	sourceIDs := make(map[string]bool, len(c.Sources))
	for _, src := range c.Sources {
		if src.ID == "" {
			return fmt.Errorf("source with url %q is missing an id", src.URL)
		}
		if sourceIDs[src.ID] {
			return fmt.Errorf("duplicate source id %q", src.ID)
		}
		sourceIDs[src.ID] = true

		switch src.Kind {
		case "rss":
		case "html":
			if src.ItemSelector == "" {
				return fmt.Errorf("html source %q is missing item_selector", src.ID)
			}
		default:
			return fmt.Errorf("source %q has unknown kind %q", src.ID, src.Kind)
		}
	}

	if len(c.Subscribers) == 0 {
		return fmt.Errorf("no subscribers configured")
	}
	subIDs := make(map[string]bool, len(c.Subscribers))
	for _, sub := range c.Subscribers {
		if sub.ID == "" {
			return fmt.Errorf("subscriber with email %q is missing an id", sub.Email)
		}
		if subIDs[sub.ID] {
			return fmt.Errorf("duplicate subscriber id %q", sub.ID)
		}
		subIDs[sub.ID] = true
		for _, srcID := range sub.Sources {
			if !sourceIDs[srcID] {
				return fmt.Errorf("subscriber %q references unknown source %q", sub.ID, srcID)
			}
		}
	}

	if c.Email.Enabled {
		if c.Email.Host == "" || c.Email.From == "" {
			return fmt.Errorf("email is enabled but host or from is missing")
		}
	}
	return nil
}
