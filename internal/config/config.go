package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. Operator-tunable behavior
// (identity, templates, pacing, submit toggle) lives in the settings table
// and overrides nothing here; this file configures the process itself.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Browser    BrowserConfig    `yaml:"browser" mapstructure:"browser"`
	Discovery  DiscoveryConfig  `yaml:"discovery" mapstructure:"discovery"`
	Form       FormConfig       `yaml:"form" mapstructure:"form"`
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Enrich     EnrichConfig     `yaml:"enrich" mapstructure:"enrich"`
	LinkedIn   LinkedInConfig   `yaml:"linkedin" mapstructure:"linkedin"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the table store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// BrowserConfig configures the Chrome driver.
type BrowserConfig struct {
	ExecPath        string `yaml:"exec_path" mapstructure:"exec_path"`
	UserAgent       string `yaml:"user_agent" mapstructure:"user_agent"`
	WindowWidth     int    `yaml:"window_width" mapstructure:"window_width"`
	WindowHeight    int    `yaml:"window_height" mapstructure:"window_height"`
	PageLoadSecs    int    `yaml:"page_load_secs" mapstructure:"page_load_secs"`
	ArtifactsDir    string `yaml:"artifacts_dir" mapstructure:"artifacts_dir"`
	ScreenshotFails bool   `yaml:"screenshot_failures" mapstructure:"screenshot_failures"`
}

// PageLoadTimeout returns the hard ceiling for one page load.
func (c BrowserConfig) PageLoadTimeout() time.Duration {
	if c.PageLoadSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.PageLoadSecs) * time.Second
}

// DiscoveryConfig configures form discovery.
type DiscoveryConfig struct {
	TimeoutSecs   int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	SelectorsFile string   `yaml:"selectors_file" mapstructure:"selectors_file"`
	ExtraPaths    []string `yaml:"extra_paths" mapstructure:"extra_paths"`
}

// Timeout returns the form discovery budget.
func (c DiscoveryConfig) Timeout() time.Duration {
	if c.TimeoutSecs <= 0 {
		return 20 * time.Second
	}
	return time.Duration(c.TimeoutSecs) * time.Second
}

// FormConfig configures the filler and adaptive retry driver.
type FormConfig struct {
	MaxAttempts     int `yaml:"max_attempts" mapstructure:"max_attempts"`
	FillTimeoutSecs int `yaml:"fill_timeout_secs" mapstructure:"fill_timeout_secs"`
	ResultPollSecs  int `yaml:"result_poll_secs" mapstructure:"result_poll_secs"`
}

// FillTimeout returns the budget for a single fill+submit attempt.
func (c FormConfig) FillTimeout() time.Duration {
	if c.FillTimeoutSecs <= 0 {
		return 20 * time.Second
	}
	return time.Duration(c.FillTimeoutSecs) * time.Second
}

// ResultPoll returns how long to poll for a post-submit signal.
func (c FormConfig) ResultPoll() time.Duration {
	if c.ResultPollSecs <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.ResultPollSecs) * time.Second
}

// ClassifierConfig configures the field classifier.
type ClassifierConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold" mapstructure:"confidence_threshold"`
	RetrainInterval     int     `yaml:"retrain_interval" mapstructure:"retrain_interval"`
}

// EnrichConfig configures the enrichment scraper.
type EnrichConfig struct {
	MaxSubpages int `yaml:"max_subpages" mapstructure:"max_subpages"`
}

// Subpages returns how many contact sub-pages to visit per site.
func (c EnrichConfig) Subpages() int {
	if c.MaxSubpages <= 0 {
		return 2
	}
	return c.MaxSubpages
}

// LinkedInConfig configures the LinkedIn connector.
type LinkedInConfig struct {
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	CookiePath    string  `yaml:"cookie_path" mapstructure:"cookie_path"`
	LoginSecs     int     `yaml:"login_secs" mapstructure:"login_secs"`
	PageLoadSecs  int     `yaml:"page_load_secs" mapstructure:"page_load_secs"`
	MinMatchScore float64 `yaml:"min_match_score" mapstructure:"min_match_score"`
}

// LoginTimeout returns the budget for the login flow.
func (c LinkedInConfig) LoginTimeout() time.Duration {
	if c.LoginSecs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.LoginSecs) * time.Second
}

// MinScore returns the acceptance threshold for search candidates.
func (c LinkedInConfig) MinScore() float64 {
	if c.MinMatchScore <= 0 {
		return 70
	}
	return c.MinMatchScore
}

// PageTimeout returns the budget for one LinkedIn navigation.
func (c LinkedInConfig) PageTimeout() time.Duration {
	if c.PageLoadSecs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.PageLoadSecs) * time.Second
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	DefaultLimit int `yaml:"default_limit" mapstructure:"default_limit"`
}

// ServerConfig configures the read-only status server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OUTREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "outreach.db")
	v.SetDefault("browser.window_width", 1366)
	v.SetDefault("browser.window_height", 900)
	v.SetDefault("browser.page_load_secs", 30)
	v.SetDefault("browser.artifacts_dir", "artifacts")
	v.SetDefault("browser.screenshot_failures", true)
	v.SetDefault("browser.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36")
	v.SetDefault("discovery.timeout_secs", 20)
	v.SetDefault("form.max_attempts", 3)
	v.SetDefault("form.fill_timeout_secs", 20)
	v.SetDefault("form.result_poll_secs", 3)
	v.SetDefault("classifier.confidence_threshold", 0.7)
	v.SetDefault("classifier.retrain_interval", 5)
	v.SetDefault("enrich.max_subpages", 2)
	v.SetDefault("linkedin.base_url", "https://www.linkedin.com")
	v.SetDefault("linkedin.cookie_path", "linkedin_cookies.json")
	v.SetDefault("linkedin.login_secs", 10)
	v.SetDefault("linkedin.page_load_secs", 5)
	v.SetDefault("linkedin.min_match_score", 70)
	v.SetDefault("batch.default_limit", 50)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
