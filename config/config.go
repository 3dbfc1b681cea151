package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Bot names, in the order bots are started.
const (
	BotPlaza        = "plaza"
	BotHolland2Stay = "holland2stay"
)

const defaultPollInterval = 60

// ErrNoBotEnabled is returned when the config enables no site bot.
var ErrNoBotEnabled = errors.New("config: no bot enabled")

// Config holds all application configuration.
type Config struct {
	Browser      BrowserConfig `yaml:"browser"`
	Journal      JournalConfig `yaml:"journal"`
	Plaza        *BotConfig    `yaml:"plaza"`
	Holland2Stay *BotConfig    `yaml:"holland2stay"`
}

// BrowserConfig holds Chrome launch options shared by all bots.
type BrowserConfig struct {
	Headless  bool   `yaml:"headless"`
	NoSandbox bool   `yaml:"no_sandbox"`
	ChromeBin string `yaml:"chrome_bin"`
	UserAgent string `yaml:"user_agent"`
}

// JournalConfig selects the reply journal sinks. Empty values disable a sink.
type JournalConfig struct {
	CSVPath     string `yaml:"csv_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// BotConfig is the per-site section.
type BotConfig struct {
	Name         string       `yaml:"-"`
	Enabled      bool         `yaml:"enabled"`
	PollInterval int          `yaml:"poll_interval"`
	Login        LoginConfig  `yaml:"login"`
	Target       TargetConfig `yaml:"target"`
	Selectors    Selectors    `yaml:"selectors"`
}

// Selectors override a site's built-in page selectors. Empty fields keep
// the built-in value.
type Selectors struct {
	EmptyState  string `yaml:"empty_state"`
	Container   string `yaml:"container"`
	Item        string `yaml:"item"`
	ReplyButton string `yaml:"reply_button"`
}

type LoginConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// TargetConfig says which listings to watch. A fixed URL wins over
// City/Region.
type TargetConfig struct {
	City    string       `yaml:"city"`
	Region  string       `yaml:"region"`
	URL     string       `yaml:"url"`
	Filters FilterConfig `yaml:"filters"`
}

// Interval returns the poll interval as a duration.
func (b *BotConfig) Interval() time.Duration {
	return time.Duration(b.PollInterval) * time.Second
}

// Load reads the .env file and the YAML config at path and returns a
// validated Config.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML data, applies the environment overlay and validates
// the result.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{
		Browser: BrowserConfig{Headless: true, NoSandbox: true},
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the config file path from HOME_RUSH_CONFIG or config.yaml.
func Path() string {
	return getEnv("HOME_RUSH_CONFIG", "config.yaml")
}

func (c *Config) applyEnv() {
	c.Browser.ChromeBin = getEnv("CHROME_BIN", c.Browser.ChromeBin)
	c.Journal.CSVPath = getEnv("JOURNAL_CSV_PATH", c.Journal.CSVPath)
	c.Journal.PostgresDSN = getEnv("DATABASE_URL", c.Journal.PostgresDSN)

	if c.Plaza != nil {
		c.Plaza.Name = BotPlaza
		c.Plaza.Login.Username = getEnv("PLAZA_USERNAME", c.Plaza.Login.Username)
		c.Plaza.Login.Password = getEnv("PLAZA_PASSWORD", c.Plaza.Login.Password)
	}
	if c.Holland2Stay != nil {
		c.Holland2Stay.Name = BotHolland2Stay
		c.Holland2Stay.Login.Username = getEnv("HOLLAND2STAY_USERNAME", c.Holland2Stay.Login.Username)
		c.Holland2Stay.Login.Password = getEnv("HOLLAND2STAY_PASSWORD", c.Holland2Stay.Login.Password)
	}
}

// EnabledBots returns the enabled bot sections in start order.
func (c *Config) EnabledBots() []*BotConfig {
	var bots []*BotConfig
	for _, b := range []*BotConfig{c.Plaza, c.Holland2Stay} {
		if b != nil && b.Enabled {
			bots = append(bots, b)
		}
	}
	return bots
}

// Validate checks that at least one bot is enabled and that every enabled
// bot can log in and knows what to watch.
func (c *Config) Validate() error {
	bots := c.EnabledBots()
	if len(bots) == 0 {
		return ErrNoBotEnabled
	}

	for _, b := range bots {
		if b.Login.URL == "" {
			return fmt.Errorf("config: %s: login.url is required", b.Name)
		}
		if b.Target.URL == "" && b.Target.City == "" {
			return fmt.Errorf("config: %s: target.city or target.url is required", b.Name)
		}
		if b.PollInterval < 0 {
			return fmt.Errorf("config: %s: poll_interval must not be negative, got %d", b.Name, b.PollInterval)
		}
		if b.PollInterval == 0 {
			b.PollInterval = defaultPollInterval
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
