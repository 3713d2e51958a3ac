// Package config loads and validates gatherer configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all gatherer configuration knobs loaded via Viper.
type Config struct {
	Logging       LoggingConfig         `mapstructure:"logging"`
	DB            DBConfig              `mapstructure:"db"`
	Gather        GatherConfig          `mapstructure:"gather"`
	Browser       BrowserConfig         `mapstructure:"browser"`
	Transcription TranscriptionConfig   `mapstructure:"transcription"`
	PubSub        PubSubConfig          `mapstructure:"pubsub"`
	Ops           OpsConfig             `mapstructure:"ops"`
	Feeds         map[string]string     `mapstructure:"feeds"`
	Credentials   map[string]Credential `mapstructure:"credentials"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxConns    int32  `mapstructure:"max_conns"`
	MinConns    int32  `mapstructure:"min_conns"`
	LifetimeMin int    `mapstructure:"conn_lifetime_minutes"`
}

// GatherConfig governs pipeline behavior.
type GatherConfig struct {
	MaxEpisodeAgeDays   int    `mapstructure:"max_episode_age_days"`
	SessionPauseSeconds int    `mapstructure:"session_pause_seconds"`
	UserAgent           string `mapstructure:"user_agent"`
}

// BrowserConfig configures the headless rendering subsystem.
type BrowserConfig struct {
	NavTimeoutSeconds int  `mapstructure:"nav_timeout_seconds"`
	Headless          bool `mapstructure:"headless"`
}

// TranscriptionConfig points at the external transcription service.
type TranscriptionConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	APIKey   string `mapstructure:"api_key"`
}

// PubSubConfig holds metadata for the briefing publisher.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// OpsConfig controls the optional metrics endpoint served during a run.
// Zero disables it; the pipeline itself owns no protocol.
type OpsConfig struct {
	Port int `mapstructure:"port"`
}

// Credential is a login for an authentication-gated source, keyed by slug.
type Credential struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GATHERER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("db.conn_lifetime_minutes", 30)
	v.SetDefault("gather.max_episode_age_days", 7)
	v.SetDefault("gather.session_pause_seconds", 5)
	v.SetDefault("gather.user_agent", "oculus-signalharvest/1.0")
	v.SetDefault("browser.nav_timeout_seconds", 25)
	v.SetDefault("browser.headless", true)
	v.SetDefault("ops.port", 0)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.DB.DSN == "" {
		return fmt.Errorf("db.dsn must be set")
	}
	if c.Browser.NavTimeoutSeconds <= 0 {
		return fmt.Errorf("browser.nav_timeout_seconds must be > 0")
	}
	if c.Gather.MaxEpisodeAgeDays < 0 {
		return fmt.Errorf("gather.max_episode_age_days must be >= 0")
	}
	if c.Ops.Port < 0 {
		return fmt.Errorf("ops.port must be >= 0")
	}
	return nil
}

// MaxEpisodeAge converts the day-based knob into a duration.
func (c Config) MaxEpisodeAge() time.Duration {
	return time.Duration(c.Gather.MaxEpisodeAgeDays) * 24 * time.Hour
}

// SessionPause is the cooperative pause between browser sources.
func (c Config) SessionPause() time.Duration {
	return time.Duration(c.Gather.SessionPauseSeconds) * time.Second
}

// NavTimeout bounds individual page actions.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Browser.NavTimeoutSeconds) * time.Second
}

// ConnLifetime converts the pool lifetime knob into a duration.
func (c Config) ConnLifetime() time.Duration {
	return time.Duration(c.DB.LifetimeMin) * time.Minute
}
