// Ininicializing common application configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Wavespeed WavespeedConfig `mapstructure:"wavespeed"`
	Relay     RelayConfig     `mapstructure:"relay"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
}

type ServerConfig struct {
	AppVersion   string        `mapstructure:"app_version"`
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Idle_timeout time.Duration `mapstructure:"idle_timeout"`
	Env          string        `mapstructure:"environment"`
	Mode         string        `mapstructure:"mode"`
	StaticDir    string        `mapstructure:"static_dir"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// WavespeedConfig holds the deployment secret used for upstream calls.
// An empty APIKey makes the relay fall back to the key sent by the caller.
type WavespeedConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type RelayConfig struct {
	MaxAttempts          int           `mapstructure:"max_attempts"`
	PollInterval         time.Duration `mapstructure:"poll_interval"`
	MaxConsecutiveErrors int           `mapstructure:"max_consecutive_errors"`
	RequestTimeout       time.Duration `mapstructure:"request_timeout"`
	Deadline             time.Duration `mapstructure:"deadline"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// PollCeiling is the longest a single job can spend in the poll loop.
func (r RelayConfig) PollCeiling() time.Duration {
	return time.Duration(r.MaxAttempts)*r.PollInterval + r.RequestTimeout
}

// LoadConfig reads config.yaml from the given directories (./config by default).
// A missing file is not an error: defaults and environment variables still apply.
func LoadConfig(paths ...string) (*viper.Viper, error) {

	viperInstance := viper.New()

	if len(paths) == 0 {
		paths = []string{"./config"}
	}
	for _, p := range paths {
		viperInstance.AddConfigPath(p)
	}
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	setDefaults(viperInstance)
	bindEnv(viperInstance)

	err := viperInstance.ReadInConfig()

	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return nil, err
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that the poll ceiling expires strictly before the request
// deadline, and the request deadline strictly before the server write timeout.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if c.Relay.MaxAttempts <= 0 {
		return errors.New("relay.max_attempts must be positive")
	}
	if c.Relay.PollInterval < 0 {
		return errors.New("relay.poll_interval must not be negative")
	}
	if c.Relay.RequestTimeout <= 0 {
		return errors.New("relay.request_timeout must be positive")
	}
	if ceiling := c.Relay.PollCeiling(); ceiling >= c.Relay.Deadline {
		return fmt.Errorf("poll ceiling %s must be shorter than relay.deadline %s", ceiling, c.Relay.Deadline)
	}
	if c.Relay.Deadline >= c.Server.Timeout {
		return fmt.Errorf("relay.deadline %s must be shorter than server.timeout %s", c.Relay.Deadline, c.Server.Timeout)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.app_version", "1.0.0")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.timeout", 10*time.Minute)
	v.SetDefault("server.idle_timeout", 15*time.Minute)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.static_dir", "./web/templates")
	v.SetDefault("server.max_body_bytes", 10<<20)

	v.SetDefault("wavespeed.api_key", "")

	// 100 attempts x 4s: roughly 6.7 minutes of polling
	v.SetDefault("relay.max_attempts", 100)
	v.SetDefault("relay.poll_interval", 4*time.Second)
	v.SetDefault("relay.max_consecutive_errors", 5)
	v.SetDefault("relay.request_timeout", 2*time.Minute)
	v.SetDefault("relay.deadline", 9*time.Minute+30*time.Second)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "generation-jobs")
}

func bindEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// names kept from the original deployment
	_ = v.BindEnv("wavespeed.api_key", "WAVESPEED_API_KEY")
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
