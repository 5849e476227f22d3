package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/dgnsrekt/matchcast/internal/notify"
)

// EnvPrefix is prepended to every environment variable, e.g.
// MATCHCAST_BIND_PORT or MATCHCAST_NOTIFY_TOPIC.
const EnvPrefix = "MATCHCAST"

type Config struct {
	SourcePath            string  `mapstructure:"source_path"`
	StartStep             int     `mapstructure:"start_step"`
	StartDelaySeconds     float64 `mapstructure:"start_delay_seconds"`
	SpeedIntervalSeconds  float64 `mapstructure:"speed_interval_seconds"`
	GateOnFirstSubscriber bool    `mapstructure:"gate_on_first_subscriber"`
	BindAddress           string  `mapstructure:"bind_address"`
	BindPort              int     `mapstructure:"bind_port"`
	ShardSize             int     `mapstructure:"shard_size"`
	WWWDir                string  `mapstructure:"www_dir"`

	Logging LoggingConfig `mapstructure:"logging"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Notify  notify.Config `mapstructure:"notify"`
}

type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type FetchConfig struct {
	Workers       int  `mapstructure:"workers"`
	RatePerSecond int  `mapstructure:"rate_per_second"`
	TimeoutSec    int  `mapstructure:"timeout_sec"`
	RetryCount    int  `mapstructure:"retry_count"`
	RetryDelay    int  `mapstructure:"retry_delay_sec"`
	Verify        bool `mapstructure:"verify"`
}

// flagKeys maps command-line flag names to config keys. Flags that a command
// does not define are skipped.
var flagKeys = map[string]string{
	"start-step":    "start_step",
	"delay":         "start_delay_seconds",
	"speed":         "speed_interval_seconds",
	"gate":          "gate_on_first_subscriber",
	"address":       "bind_address",
	"port":          "bind_port",
	"shard-size":    "shard_size",
	"www":           "www_dir",
	"log-level":     "logging.level",
	"workers":       "fetch.workers",
	"rate":          "fetch.rate_per_second",
	"verify":        "fetch.verify",
	"notify":        "notify.enabled",
	"notify-topic":  "notify.topic",
	"notify-server": "notify.server",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source_path", "")
	v.SetDefault("start_step", 0)
	v.SetDefault("start_delay_seconds", 10.0)
	v.SetDefault("speed_interval_seconds", 0.5)
	v.SetDefault("gate_on_first_subscriber", false)
	v.SetDefault("bind_address", "")
	v.SetDefault("bind_port", 8000)
	v.SetDefault("shard_size", 5)
	v.SetDefault("www_dir", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)

	v.SetDefault("fetch.workers", 3)
	v.SetDefault("fetch.rate_per_second", 5)
	v.SetDefault("fetch.timeout_sec", 60)
	v.SetDefault("fetch.retry_count", 3)
	v.SetDefault("fetch.retry_delay_sec", 1)
	v.SetDefault("fetch.verify", true)

	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.server", "https://ntfy.sh")
	v.SetDefault("notify.topic", "")
	v.SetDefault("notify.priority", "default")
	v.SetDefault("notify.tags", "tv")
	v.SetDefault("notify.token", "")
}

// Load reads configuration with precedence flag > env > file > default.
// flags may be nil. The result is not validated; callers validate the parts
// their command uses.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("binding flag %s: %w", name, err)
			}
		}
	}

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("matchcast")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// StartDelay returns the configured start delay.
func (c *Config) StartDelay() time.Duration {
	return seconds(c.StartDelaySeconds)
}

// SpeedInterval returns the time between step increments.
func (c *Config) SpeedInterval() time.Duration {
	return seconds(c.SpeedIntervalSeconds)
}

// ListenAddr returns the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.BindAddress, c.BindPort)
}

// LogLevel parses logging.level.
func (c *Config) LogLevel() (zapcore.Level, error) {
	var level zapcore.Level
	err := level.UnmarshalText([]byte(c.Logging.Level))
	return level, err
}

func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSec) * time.Second
}

func (f FetchConfig) RetryBackoff() time.Duration {
	return time.Duration(f.RetryDelay) * time.Second
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
