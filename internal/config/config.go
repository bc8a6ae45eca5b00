package config

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/johntannerworthington/icypeascontactgenerator/internal/cost"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/fanout"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/resilience"
)

// Config holds the full application configuration.
type Config struct {
	Serper    ProviderConfig           `yaml:"serper" mapstructure:"serper"`
	Icypeas   ProviderConfig           `yaml:"icypeas" mapstructure:"icypeas"`
	Findymail ProviderConfig           `yaml:"findymail" mapstructure:"findymail"`
	OpenAI    ModelConfig              `yaml:"openai" mapstructure:"openai"`
	Anthropic ModelConfig              `yaml:"anthropic" mapstructure:"anthropic"`
	Match     MatchConfig              `yaml:"match" mapstructure:"match"`
	Pipeline  PipelineConfig           `yaml:"pipeline" mapstructure:"pipeline"`
	Audit     AuditConfig              `yaml:"audit" mapstructure:"audit"`
	Pricing   cost.Rates               `yaml:"pricing" mapstructure:"pricing"`
	Breaker   resilience.BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
	Log       LogConfig                `yaml:"log" mapstructure:"log"`
}

// ProviderConfig holds credentials and published limits for an HTTP provider.
type ProviderConfig struct {
	Key     string        `yaml:"key" mapstructure:"key"`
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Limits  fanout.Limits `yaml:"limits" mapstructure:"limits"`
}

// ModelConfig holds credentials for a language model provider.
type ModelConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// MatchConfig selects the semantic-match oracle: "openai", "anthropic", or
// "fold" for the local token matcher.
type MatchConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
}

// PipelineConfig configures stage sizing.
type PipelineConfig struct {
	BatchSize         int `yaml:"batch_size" mapstructure:"batch_size"`
	ValidationWorkers int `yaml:"validation_workers" mapstructure:"validation_workers"`
}

// AuditConfig configures the audit trail outputs. Empty paths disable a sink.
type AuditConfig struct {
	CSVPath    string `yaml:"csv_path" mapstructure:"csv_path"`
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
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
	v.SetEnvPrefix("CONTACTGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("serper.key", "")
	v.SetDefault("serper.base_url", "https://google.serper.dev")
	v.SetDefault("serper.limits.max_concurrent", 220)
	v.SetDefault("serper.limits.rate_per_second", 220)
	v.SetDefault("serper.limits.burst", 1)
	v.SetDefault("icypeas.key", "")
	v.SetDefault("icypeas.base_url", "https://app.icypeas.com")
	v.SetDefault("icypeas.limits.max_concurrent", 20)
	v.SetDefault("icypeas.limits.rate_per_second", 20)
	v.SetDefault("icypeas.limits.burst", 1)
	v.SetDefault("findymail.key", "")
	v.SetDefault("findymail.base_url", "https://app.findymail.com")
	v.SetDefault("findymail.limits.max_concurrent", 300)
	v.SetDefault("findymail.limits.rate_per_second", 300)
	v.SetDefault("findymail.limits.burst", 1)
	v.SetDefault("openai.key", "")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4.1-nano")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("match.provider", "openai")
	v.SetDefault("pipeline.batch_size", 50)
	v.SetDefault("pipeline.validation_workers", 70)
	v.SetDefault("audit.csv_path", "allqueries.csv")
	v.SetDefault("audit.sqlite_path", "")
	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.reset_timeout", "30s")
	v.SetDefault("pricing.serper.per_thousand_credits", 0.30)
	v.SetDefault("pricing.icypeas.per_profile", 0.0025)
	v.SetDefault("pricing.icypeas.credits_per_profile", 1.5)
	v.SetDefault("pricing.match.per_mtok", 0.40)
	v.SetDefault("pricing.findymail.per_credit", 0.00599625)

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

// Validate checks value ranges that Load cannot express as defaults.
func (c *Config) Validate() error {
	var problems []string

	if c.Pipeline.BatchSize < 1 || c.Pipeline.BatchSize > 50 {
		problems = append(problems, "pipeline.batch_size must be between 1 and 50")
	}
	if c.Pipeline.ValidationWorkers < 1 {
		problems = append(problems, "pipeline.validation_workers must be > 0")
	}
	for name, l := range map[string]fanout.Limits{
		"serper":    c.Serper.Limits,
		"icypeas":   c.Icypeas.Limits,
		"findymail": c.Findymail.Limits,
	} {
		if l.Concurrency < 1 {
			problems = append(problems, name+".limits.max_concurrent must be > 0")
		}
		if l.RatePerSecond < 0 {
			problems = append(problems, name+".limits.rate_per_second must be >= 0")
		}
	}
	switch c.Match.Provider {
	case "openai", "anthropic", "fold":
	default:
		problems = append(problems, "match.provider must be one of openai, anthropic, fold")
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return eris.Errorf("config: invalid:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
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
